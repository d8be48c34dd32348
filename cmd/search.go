// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Thermoquad/uartterm/pkg/config"
	"github.com/spf13/cobra"
	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

// Device families probed when no device is given, in order
var deviceFamilies = []string{"/dev/ttyUSB", "/dev/ttyACM", "/dev/ttyCOM"}

// ErrNoDevice is returned when probing finds no device that opens
var ErrNoDevice = errors.New("cannot find any devices")

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "List serial ports and the device a session would use",
	Long: `List the serial ports reported by the system, with USB details where
available, then probe /dev/ttyUSB*, /dev/ttyACM* and /dev/ttyCOM* the way a
session does when no device is given.

Examples:
  uartterm search
  uartterm search --search-range 15`,
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	listPorts(out)

	fmt.Fprintln(out)
	path, err := probeDevices(out, cfg.Serial)
	if err != nil {
		fmt.Fprintln(out, errorStyle.Render(err.Error()))
		return nil
	}
	fmt.Fprintln(out, successStyle.Render("A session would connect to "+path))
	return nil
}

// listPorts prints the detailed port list from the enumerator
func listPorts(out io.Writer) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		fmt.Fprintln(out, warnStyle.Render(fmt.Sprintf("Cannot list ports: %v", err)))
		return
	}
	if len(ports) == 0 {
		fmt.Fprintln(out, infoStyle.Render("No serial ports found"))
		return
	}

	fmt.Fprintln(out, titleStyle.Render("Serial ports"))
	for _, port := range ports {
		if !port.IsUSB {
			fmt.Fprintf(out, "  %s\n", port.Name)
			continue
		}
		fmt.Fprintf(out, "  %s  USB %s:%s", port.Name, port.VID, port.PID)
		if port.SerialNumber != "" {
			fmt.Fprintf(out, "  serial %s", port.SerialNumber)
		}
		if port.Product != "" {
			fmt.Fprintf(out, "  %s", port.Product)
		}
		fmt.Fprintln(out)
	}
}

// probeDevices opens <family>0..<family>N for each device family in turn.
// Within a family the last device that opens wins; later families are only
// tried when nothing in the earlier ones opened.
func probeDevices(out io.Writer, cfg config.SerialConfig) (string, error) {
	mode := &serial.Mode{BaudRate: cfg.Baud}
	for i, family := range deviceFamilies {
		if i > 0 {
			fmt.Fprintln(out, warnStyle.Render(fmt.Sprintf("Cannot find a %s device, searching for a %s device...",
				strings.TrimPrefix(deviceFamilies[i-1], "/dev/"), strings.TrimPrefix(family, "/dev/"))))
		}

		found := ""
		for n := 0; n <= cfg.SearchRange; n++ {
			path := family + strconv.Itoa(n)
			port, err := openPort(path, mode)
			if err != nil {
				continue
			}
			_ = port.Close()
			found = path
		}
		if found != "" {
			return found, nil
		}
	}
	return "", ErrNoDevice
}

// resolveDevice fills in the device when none was configured
func resolveDevice(cfg *config.SerialConfig) error {
	if cfg.URL != "" || cfg.Port != "" {
		return nil
	}
	path, err := probeDevices(os.Stderr, *cfg)
	if err != nil {
		return err
	}
	cfg.Port = path
	return nil
}
