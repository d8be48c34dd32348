// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package session runs an interactive terminal session on an open link.
//
// A session has two concurrent activities. The receive loop reads the link
// one byte at a time, dumps and renders what arrives. The command
// interpreter reads typed lines from the console and either executes a
// backslash command or encodes the line and transmits it. The two share
// the State; the interpreter also watches receiver liveness and ends the
// session with exit code 2 once the receive loop has died.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/Thermoquad/uartterm/pkg/codec"
	"github.com/Thermoquad/uartterm/pkg/render"
	"github.com/Thermoquad/uartterm/pkg/sessionlog"
	"github.com/charmbracelet/x/ansi"
	"go.uber.org/atomic"
)

// Defaults
const (
	DefaultListenerCheck = time.Second
	DefaultIdleTimeout   = 30 * time.Minute
	DefaultDumpFile      = "uartrx.bin"
)

// Options configures a session
type Options struct {
	// Transport is the open link; the caller owns and closes it
	Transport io.ReadWriter
	// Device names the link in messages
	Device string
	// Settings describes the line settings for the connect banner
	Settings string
	// DataBits is the transmit data width (5..8)
	DataBits int

	// Console supplies typed lines; Out receives all terminal output
	Console io.Reader
	Out     io.Writer
	// Interactive overwrites the terminal's echo of each typed line
	Interactive bool

	// Log is the session log; nil disables logging
	Log *sessionlog.Writer

	// Initial display and transmit behaviour
	Mode     codec.Mode
	Safe     bool
	Mute     bool
	Checksum string

	Render        render.Options
	ListenerCheck time.Duration
	// IdleTimeout ends the session without input; negative disables it
	IdleTimeout   time.Duration

	// WorkDir resolves file names; defaults to the process working directory
	WorkDir     string
	DefaultDump string

	// Rand supplies bytes for \rand; defaults to crypto/rand
	Rand io.Reader
	// Now returns the current time; defaults to time.Now
	Now func() time.Time
}

// Session is one interactive terminal session
type Session struct {
	opts      Options
	transport io.ReadWriter
	out       *terminal
	log       *sessionlog.Writer

	state    *State
	stats    *Statistics
	encoder  *codec.Encoder
	decoder  *codec.Decoder
	renderer *render.Renderer
	console  *console
	watchdog *Watchdog

	dump    dumpFile
	closing atomic.Bool
	done    chan struct{}

	// turnOpen is set while the first message of a turn is pending
	turnOpen bool
}

// New creates a session; nothing runs until Run is called
func New(opts Options) (*Session, error) {
	if opts.Transport == nil {
		return nil, &ExitError{Code: ExitReceiverStart, Err: errors.New("no transport")}
	}
	if opts.DataBits == 0 {
		opts.DataBits = codec.DefaultDataBits
	}
	enc, err := codec.NewEncoder(opts.DataBits)
	if err != nil {
		return nil, &ExitError{Code: ExitConfig, Err: err}
	}
	if opts.Console == nil {
		opts.Console = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.ListenerCheck <= 0 {
		opts.ListenerCheck = DefaultListenerCheck
	}
	switch {
	case opts.IdleTimeout == 0:
		opts.IdleTimeout = DefaultIdleTimeout
	case opts.IdleTimeout < 0:
		// Disabled
		opts.IdleTimeout = 0
	}
	if opts.DefaultDump == "" {
		opts.DefaultDump = DefaultDumpFile
	}
	if opts.WorkDir == "" {
		if opts.WorkDir, err = os.Getwd(); err != nil {
			return nil, &ExitError{Code: ExitConfig, Err: fmt.Errorf("failed to get working directory: %w", err)}
		}
	}

	s := &Session{
		opts:      opts,
		transport: opts.Transport,
		out:       &terminal{w: opts.Out},
		log:       opts.Log,
		state:     newState(opts.WorkDir),
		stats:     NewStatistics(opts.Now()),
		encoder:   enc,
		decoder:   codec.NewDecoder(),
		done:      make(chan struct{}),
	}
	s.state.SetMode(opts.Mode)
	s.state.safe.Store(opts.Safe)
	s.state.mute.Store(opts.Mute)
	if opts.Checksum != "" {
		sum, err := codec.LookupChecksum(opts.Checksum)
		if err != nil {
			return nil, &ExitError{Code: ExitConfig, Err: err}
		}
		s.state.framing.Store(&Framing{Checksum: sum})
	}

	ropts := opts.Render
	ropts.Now = opts.Now
	ropts.Header = func(now time.Time) string {
		return formatTimestamp(now) + " " + gotStyle.Render("Got:") + " "
	}
	s.renderer = render.New(ropts)
	return s, nil
}

// State returns the shared session state
func (s *Session) State() *State {
	return s.state
}

// Stats returns the session statistics
func (s *Session) Stats() *Statistics {
	return s.stats
}

// LogDisabled reports that the session log stopped accepting writes
func (s *Session) LogDisabled(err error) {
	s.out.WriteString(levelWarn.render(fmt.Sprintf("Logging disabled: %v", err)) + "\n")
}

// Run starts the receive loop and interprets console input until the user
// quits, input ends, or the receive loop dies. It returns nil for a clean
// end and an *ExitError otherwise.
func (s *Session) Run(ctx context.Context) error {
	ready := make(chan struct{})
	go s.receive(ready)

	select {
	case <-ready:
	case <-s.done:
		return &ExitError{Code: ExitReceiverStart, Err: ErrReceiverStart}
	case <-time.After(s.opts.ListenerCheck):
		s.closing.Store(true)
		return &ExitError{Code: ExitReceiverStart, Err: ErrReceiverStart}
	}

	s.console = newConsole(s.opts.Console)
	s.watchdog = NewWatchdog(s.opts.ListenerCheck, s.opts.IdleTimeout)
	defer s.watchdog.Stop()
	defer s.console.Close()

	s.banner()
	err := s.interpret(ctx)
	s.closing.Store(true)

	switch {
	case err == nil, errors.Is(err, errConsoleClosed):
		s.report(levelInfo, "Disconnecting...")
		return nil
	case errors.Is(err, errInterrupted):
		s.report(levelWarn, "User Interrupt")
		return nil
	default:
		return err
	}
}

func (s *Session) banner() {
	s.report(levelSuccess, "Connected to "+s.opts.Device)
	if s.opts.Settings != "" {
		s.report(levelInfo, s.opts.Settings)
	}
	s.report(levelInfo, "Type \\help for a list of commands")
	if path := s.logPath(); path != "" {
		s.report(levelInfo, "Logging to "+path)
	}
}

func (s *Session) logPath() string {
	if s.log == nil || s.log.Disabled() {
		return ""
	}
	return s.log.Path()
}

// report prints a message from the interpreter and appends it to the
// session log
func (s *Session) report(lvl level, msg string) {
	s.out.WriteString(s.turnPrefix() + lvl.render(msg) + "\n")
	s.logMessage(lvl, msg)
}

// notify is report for the receive loop, which never owns a typed line
func (s *Session) notify(lvl level, msg string) {
	s.out.WriteString(lvl.render(msg) + "\n")
	s.logMessage(lvl, msg)
}

func (s *Session) logMessage(lvl level, msg string) {
	if s.log == nil {
		return
	}
	switch lvl {
	case levelWarn:
		_ = s.log.Warn(msg)
	case levelError:
		_ = s.log.Error(msg)
	default:
		_ = s.log.Info(msg)
	}
}

// turnPrefix timestamps the first message of a turn. On a terminal it also
// replaces the echoed input line.
func (s *Session) turnPrefix() string {
	if !s.turnOpen {
		return ""
	}
	s.turnOpen = false
	prefix := formatTimestamp(s.opts.Now()) + " "
	if s.opts.Interactive {
		prefix = ansi.CursorPreviousLine(1) + ansi.EraseEntireLine + prefix
	}
	return prefix
}

// terminal serializes writes from the receive loop and the interpreter
type terminal struct {
	mu sync.Mutex
	w  io.Writer
}

func (t *terminal) WriteString(s string) {
	if s == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	_, _ = io.WriteString(t.w, s)
}

func (t *terminal) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.w.Write(p)
}
