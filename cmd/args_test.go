// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"reflect"
	"testing"

	"github.com/Thermoquad/uartterm/pkg/config"
)

func TestParseLineArgs(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		want     lineArgs
		warnings int
	}{
		{
			name: "any order",
			args: []string{"e", "ttyUSB3", "9600", "7", "2"},
			want: lineArgs{port: "/dev/ttyUSB3", baud: 9600, dataBits: 7, stopBits: "2", parity: "even"},
		},
		{
			name: "one and a half stop bits",
			args: []string{"1,5"},
			want: lineArgs{stopBits: "1.5"},
		},
		{
			name: "search range",
			args: []string{"15", "odd"},
			want: lineArgs{searchRange: 15, parity: "odd"},
		},
		{
			name: "parity words",
			args: []string{"SPACE"},
			want: lineArgs{parity: "space"},
		},
		{
			name: "absolute device",
			args: []string{"/dev/ttyS0", "115200"},
			want: lineArgs{port: "/dev/ttyS0", baud: 115200},
		},
		{
			name: "first occurrence wins",
			args: []string{"9600", "19200"},
			want: lineArgs{baud: 9600},
		},
		{
			name:     "invalid arguments are skipped",
			args:     []string{"banana", "3", "1000", "8"},
			want:     lineArgs{dataBits: 8},
			warnings: 3,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, warnings := parseLineArgs(tt.args)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseLineArgs(%v) = %+v, want %+v", tt.args, got, tt.want)
			}
			if len(warnings) != tt.warnings {
				t.Errorf("warnings = %q, want %d", warnings, tt.warnings)
			}
		})
	}
}

func TestLineArgsApply(t *testing.T) {
	cfg := config.Default().Serial
	cfg.Port = "/dev/ttyACM0"

	lineArgs{baud: 57600, parity: "mark"}.apply(&cfg)

	if cfg.Port != "/dev/ttyACM0" {
		t.Errorf("unset port should keep the configured value, got %q", cfg.Port)
	}
	if cfg.Baud != 57600 || cfg.Parity != "mark" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.DataBits != config.DefaultDataBits || cfg.StopBits != config.DefaultStopBits {
		t.Errorf("defaults were overwritten: %+v", cfg)
	}
}
