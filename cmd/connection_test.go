// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/Thermoquad/uartterm/pkg/config"
	"go.bug.st/serial"
)

// fakePort is a serial.Port backed by fixed read data
type fakePort struct {
	rx      []byte
	tx      []byte
	opened  bool
	closed  bool
	readErr error
}

func (p *fakePort) SetMode(*serial.Mode) error { return nil }

func (p *fakePort) Read(b []byte) (int, error) {
	if p.readErr != nil {
		return 0, p.readErr
	}
	if len(p.rx) == 0 {
		return 0, io.EOF
	}
	n := copy(b, p.rx)
	p.rx = p.rx[n:]
	return n, nil
}

func (p *fakePort) Write(b []byte) (int, error) {
	p.tx = append(p.tx, b...)
	return len(b), nil
}

func (p *fakePort) Drain() error { return nil }
func (p *fakePort) ResetInputBuffer() error { return nil }
func (p *fakePort) ResetOutputBuffer() error { return nil }
func (p *fakePort) SetDTR(bool) error { return nil }
func (p *fakePort) SetRTS(bool) error { return nil }
func (p *fakePort) GetModemStatusBits() (*serial.ModemStatusBits, error) { return &serial.ModemStatusBits{}, nil }
func (p *fakePort) SetReadTimeout(time.Duration) error { return nil }
func (p *fakePort) Break(time.Duration) error { return nil }

func (p *fakePort) Close() error {
	p.closed = true
	return nil
}

// stubOpenPort replaces openPort for the duration of a test. Only paths in
// ports open.
func stubOpenPort(t *testing.T, ports map[string]*fakePort) *[]*serial.Mode {
	t.Helper()
	var modes []*serial.Mode
	orig := openPort
	openPort = func(name string, mode *serial.Mode) (serial.Port, error) {
		modes = append(modes, mode)
		if p, ok := ports[name]; ok {
			p.opened = true
			return p, nil
		}
		return nil, &serial.PortError{}
	}
	t.Cleanup(func() { openPort = orig })
	return &modes
}

// ============================================================================
// Line settings
// ============================================================================

func TestSerialMode(t *testing.T) {
	tests := []struct {
		name     string
		stopBits string
		parity   string
		wantStop serial.StopBits
		wantPar  serial.Parity
		wantErr  bool
	}{
		{name: "defaults", stopBits: "1", parity: "none", wantStop: serial.OneStopBit, wantPar: serial.NoParity},
		{name: "one and a half", stopBits: "1.5", parity: "odd", wantStop: serial.OnePointFiveStopBits, wantPar: serial.OddParity},
		{name: "two stop bits", stopBits: "2", parity: "e", wantStop: serial.TwoStopBits, wantPar: serial.EvenParity},
		{name: "mark", stopBits: "1", parity: "mark", wantStop: serial.OneStopBit, wantPar: serial.MarkParity},
		{name: "space", stopBits: "1", parity: "S", wantStop: serial.OneStopBit, wantPar: serial.SpaceParity},
		{name: "bad stop bits", stopBits: "3", parity: "none", wantErr: true},
		{name: "bad parity", stopBits: "1", parity: "sometimes", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default().Serial
			cfg.Baud = 9600
			cfg.DataBits = 7
			cfg.StopBits = tt.stopBits
			cfg.Parity = tt.parity

			mode, err := serialMode(cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if mode.BaudRate != 9600 || mode.DataBits != 7 {
				t.Errorf("mode = %+v", mode)
			}
			if mode.StopBits != tt.wantStop || mode.Parity != tt.wantPar {
				t.Errorf("stop bits %v parity %v, want %v %v", mode.StopBits, mode.Parity, tt.wantStop, tt.wantPar)
			}
		})
	}
}

func TestDescribeSettings(t *testing.T) {
	cfg := config.Default().Serial
	want := "Configurations: 115200 8 bits with no parity and 1 stop bit(s)"
	if got := describeSettings(cfg); got != want {
		t.Errorf("describeSettings() = %q, want %q", got, want)
	}

	cfg.Baud = 9600
	cfg.DataBits = 7
	cfg.Parity = "e"
	cfg.StopBits = "2"
	want = "Configurations: 9600 7 bits with even parity and 2 stop bit(s)"
	if got := describeSettings(cfg); got != want {
		t.Errorf("describeSettings() = %q, want %q", got, want)
	}
}

// ============================================================================
// Serial connection
// ============================================================================

func TestClassifySerialError(t *testing.T) {
	port := &fakePort{readErr: &serial.PortError{}}
	conn := &SerialConnection{port: port}

	// The zero PortError carries the PortBusy code, which is passed through
	_, err := conn.Read(make([]byte, 1))
	if err == nil || errors.Is(err, ErrConnectionClosed) {
		t.Errorf("Read() error = %v, want a plain port error", err)
	}

	if got := classifySerialError(nil); got != nil {
		t.Errorf("classifySerialError(nil) = %v", got)
	}
	if got := classifySerialError(io.EOF); got != io.EOF {
		t.Errorf("classifySerialError(EOF) = %v", got)
	}
}

func TestOpenConnectionSerial(t *testing.T) {
	port := &fakePort{rx: []byte("hi")}
	modes := stubOpenPort(t, map[string]*fakePort{"/dev/ttyUSB0": port})

	cfg := config.Default().Serial
	cfg.Port = "/dev/ttyUSB0"
	conn, device, settings, err := OpenConnection(cfg)
	if err != nil {
		t.Fatalf("OpenConnection() error = %v", err)
	}
	if device != "/dev/ttyUSB0" {
		t.Errorf("device = %q", device)
	}
	if settings != describeSettings(cfg) {
		t.Errorf("settings = %q", settings)
	}
	if len(*modes) != 1 || (*modes)[0].BaudRate != config.DefaultBaud {
		t.Errorf("port opened with %+v", *modes)
	}

	buf := make([]byte, 2)
	if n, _ := conn.Read(buf); string(buf[:n]) != "hi" {
		t.Errorf("Read() = %q", buf[:n])
	}
	if _, err := conn.Write([]byte{0x41}); err != nil || string(port.tx) != "A" {
		t.Errorf("Write() err=%v tx=%q", err, port.tx)
	}
	if err := conn.Close(); err != nil || !port.closed {
		t.Errorf("Close() err=%v closed=%v", err, port.closed)
	}
}

func TestOpenConnectionErrors(t *testing.T) {
	stubOpenPort(t, nil)

	cfg := config.Default().Serial
	if _, _, _, err := OpenConnection(cfg); err == nil {
		t.Error("expected error without a device")
	}

	cfg.Port = "/dev/ttyUSB9"
	if _, _, _, err := OpenConnection(cfg); err == nil {
		t.Error("expected error for a device that does not open")
	}

	cfg.URL = "http://example.invalid/ws"
	if _, _, _, err := OpenConnection(cfg); err == nil {
		t.Error("expected error for a non-websocket URL")
	}
}
