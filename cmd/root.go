// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Thermoquad/uartterm/pkg/codec"
	"github.com/Thermoquad/uartterm/pkg/config"
	"github.com/Thermoquad/uartterm/pkg/render"
	"github.com/Thermoquad/uartterm/pkg/session"
	"github.com/Thermoquad/uartterm/pkg/sessionlog"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	// Serial connection flags
	portName    string
	baudRate    int
	dataBits    int
	stopBits    string
	parity      string
	searchRange int

	// WebSocket connection flags
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool

	// Session flags
	configPath string
	keepLog    bool
	useWizard  bool
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	infoStyle    = lipgloss.NewStyle().Faint(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
)

var rootCmd = &cobra.Command{
	Use:   "uartterm [baud] [data bits] [parity] [stop bits] [ttyDEVICE] [search range]",
	Short: "Interactive UART terminal",
	Long: `uartterm - An interactive terminal for byte-oriented serial links.

Received bytes are shown as characters or as decimal, binary or hexadecimal
numbers while you type commands or data to send. Type \help in a session
for the list of commands.

Settings may be given as positional arguments in any order:
  uartterm 9600 ttyUSB1 7 e 2

With no device, /dev/ttyUSB0..N, then /dev/ttyACM0..N, then /dev/ttyCOM0..N
are probed (N = search range, default 10).

Connection modes:
  Serial:    [--port /dev/ttyUSB0] [--baud 115200]
  WebSocket: --url ws://host/path [--username user]

For WebSocket authentication, the password is read from the UARTTERM_PASSWORD
environment variable, or prompted interactively if not set.

Exit codes:
  0 - Session ended normally
  1 - Configuration or connection error
  2 - Connection lost during the session
  4 - Receiver failed to start`,
	Version:       "1.0.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRoot,
}

func init() {
	// Serial connection flags
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Serial port device")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", config.DefaultBaud, "Baud rate (serial only)")
	rootCmd.PersistentFlags().IntVar(&dataBits, "data-bits", config.DefaultDataBits, "Data bits (5-8)")
	rootCmd.PersistentFlags().StringVar(&stopBits, "stop-bits", config.DefaultStopBits, "Stop bits (1, 1.5 or 2)")
	rootCmd.PersistentFlags().StringVar(&parity, "parity", config.DefaultParity, "Parity (none, odd, even, mark, space)")
	rootCmd.PersistentFlags().IntVar(&searchRange, "search-range", config.DefaultSearchRange, "Highest device number probed when no device is given")

	// WebSocket connection flags
	rootCmd.PersistentFlags().StringVarP(&wsURL, "url", "u", "", "WebSocket URL (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	rootCmd.PersistentFlags().BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	// Session flags
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Configuration file (default "+config.DefaultPath()+")")
	rootCmd.Flags().BoolVar(&keepLog, "keep-log", false, "Keep the session log after a clean exit")
	rootCmd.Flags().BoolVar(&useWizard, "wizard", false, "Choose the connection settings interactively")
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig reads the configuration file and applies positional arguments
// and flags on top of it, in that order
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	path, explicit := configPath, configPath != ""
	if !explicit {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path, explicit)
	if err != nil {
		return nil, err
	}

	lineArgs, warnings := parseLineArgs(args)
	for _, w := range warnings {
		fmt.Fprintln(os.Stderr, warnStyle.Render(w))
	}
	lineArgs.apply(&cfg.Serial)

	flags := cmd.Flags()
	if flags.Changed("port") {
		cfg.Serial.Port = portName
	}
	if flags.Changed("baud") {
		cfg.Serial.Baud = baudRate
	}
	if flags.Changed("data-bits") {
		cfg.Serial.DataBits = dataBits
	}
	if flags.Changed("stop-bits") {
		cfg.Serial.StopBits = stopBits
	}
	if flags.Changed("parity") {
		cfg.Serial.Parity = parity
	}
	if flags.Changed("search-range") {
		cfg.Serial.SearchRange = searchRange
	}
	if flags.Changed("url") {
		cfg.Serial.URL = wsURL
	}
	if flags.Changed("username") {
		cfg.Serial.Username = wsUsername
	}
	if flags.Changed("no-ssl-verify") {
		cfg.Serial.NoSSLVerify = wsNoSSLVerify
	}
	if flags.Changed("keep-log") {
		cfg.Log.Keep = keepLog
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func configError(err error) error {
	return &session.ExitError{Code: session.ExitConfig, Err: err}
}

func runRoot(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return configError(err)
	}

	if useWizard {
		serialCfg, ok, err := runWizard(cfg.Serial)
		if err != nil {
			return configError(err)
		}
		if !ok {
			return nil
		}
		cfg.Serial = serialCfg
	}

	if err := resolveDevice(&cfg.Serial); err != nil {
		return configError(err)
	}

	conn, device, settings, err := OpenConnection(cfg.Serial)
	if err != nil {
		return configError(fmt.Errorf("cannot open %s: %w", cfg.Serial.Port, err))
	}
	defer conn.Close()

	// The log reports a mid-session failure through the session, which does
	// not exist yet when the log is opened
	var sess *session.Session
	var log *sessionlog.Writer
	if !cfg.Log.Disabled {
		log, err = sessionlog.Open(sessionlog.Options{
			Dir:      cfg.Log.Dir,
			LockWait: cfg.LockWait(),
			Keep:     cfg.Log.Keep,
			OnDisable: func(err error) {
				if sess != nil {
					sess.LogDisabled(err)
				}
			},
		})
		if err != nil {
			fmt.Fprintln(os.Stderr, warnStyle.Render(fmt.Sprintf("Logging disabled: %v", err)))
			log = nil
		}
	}

	mode, err := codec.ParseMode(cfg.Session.Mode)
	if err != nil {
		return configError(err)
	}

	sess, err = session.New(session.Options{
		Transport:   conn,
		Device:      device,
		Settings:    settings,
		DataBits:    cfg.Serial.DataBits,
		Console:     os.Stdin,
		Out:         os.Stdout,
		Interactive: term.IsTerminal(int(os.Stdin.Fd())),
		Log:         log,
		Mode:        mode,
		Safe:        cfg.Session.Safe,
		Mute:        cfg.Session.Mute,
		Checksum:    cfg.Session.Checksum,
		Render: render.Options{
			LineGap:         cfg.LineGap(),
			MaxCharUnits:    cfg.Render.MaxCharUnits,
			MaxNumericUnits: cfg.Render.MaxNumericUnits,
		},
		ListenerCheck: cfg.ListenerCheck(),
		IdleTimeout:   cfg.IdleTimeout(),
		WorkDir:       cfg.Session.WorkDir,
		DefaultDump:   cfg.Session.DumpFile,
	})
	if err != nil {
		_, _ = log.Close(false)
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runErr := sess.Run(ctx)
	// Unblock the receive loop before the log goes away
	_ = conn.Close()

	kept, err := log.Close(runErr == nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, warnStyle.Render(err.Error()))
	}
	if kept != "" {
		fmt.Fprintln(os.Stderr, infoStyle.Render("Session log kept at "+kept))
	}
	return runErr
}

// ExitCode maps an error returned by Execute to a process exit code
func ExitCode(err error) int {
	var exitErr *session.ExitError
	if err == nil || errors.As(err, &exitErr) {
		return session.ExitCode(err)
	}
	// Flag and argument errors from cobra
	return session.ExitConfig
}
