// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package sessionlog writes the per-session log file.
//
// Both the receive loop and the command interpreter append to the log.
// Appends are serialized by a one-slot semaphore with a bounded wait, so a
// stuck writer can delay logging but never block a caller forever. If the
// file disappears or stops accepting writes, logging is disabled for the
// rest of the session and the failure is reported once.
package sessionlog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/rs/zerolog"
	"go.uber.org/atomic"
	"golang.org/x/sync/semaphore"
)

const (
	// DefaultLockWait bounds how long a writer waits for the log lock
	DefaultLockWait = 100 * time.Millisecond

	fileNameLayout  = "20060102-150405"
	timestampLayout = "2006-01-02 15:04:05"
)

var (
	// ErrLockTimeout is returned when the log lock could not be acquired in time
	ErrLockTimeout = errors.New("log is busy")
	// ErrDisabled is returned after logging has been disabled
	ErrDisabled = errors.New("logging disabled")
)

// Options configures a session log
type Options struct {
	// Dir is the directory the log file is created in
	Dir string
	// LockWait bounds the wait for the log lock
	LockWait time.Duration
	// Keep retains the log file after a clean session end
	Keep bool
	// OnDisable is called once when logging is disabled mid-session
	OnDisable func(err error)
	// Now returns the current time; defaults to time.Now
	Now func() time.Time
}

// Writer appends normalized, timestamped messages to a session log file
type Writer struct {
	path      string
	lock      *semaphore.Weighted
	lockWait  time.Duration
	out       *appendFile
	logger    zerolog.Logger
	onDisable func(err error)

	keep     atomic.Bool
	disabled atomic.Bool
}

// Open creates a new session log file in opts.Dir
func Open(opts Options) (*Writer, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.LockWait <= 0 {
		opts.LockWait = DefaultLockWait
	}
	dir := opts.Dir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory %q: %w", dir, err)
	}

	name := fmt.Sprintf("uartterm-%s.log", opts.Now().Format(fileNameLayout))
	path := filepath.Join(dir, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if errors.Is(err, os.ErrExist) {
		// Two sessions started within the same second
		f, err = os.CreateTemp(dir, strings.TrimSuffix(name, ".log")+"-*.log")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}
	path = f.Name()
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}

	out := &appendFile{path: path}
	w := &Writer{
		path:      path,
		lock:      semaphore.NewWeighted(1),
		lockWait:  opts.LockWait,
		out:       out,
		onDisable: opts.OnDisable,
		logger: zerolog.New(zerolog.ConsoleWriter{
			Out:        out,
			NoColor:    true,
			TimeFormat: timestampLayout,
		}).With().Timestamp().Logger(),
	}
	w.keep.Store(opts.Keep)
	return w, nil
}

// Path returns the log file path
func (w *Writer) Path() string {
	return w.path
}

// Keep marks the log for retention past the end of the session
func (w *Writer) Keep() {
	w.keep.Store(true)
}

// Kept reports whether the log will be retained
func (w *Writer) Kept() bool {
	return w.keep.Load()
}

// Disabled reports whether logging was disabled after a file error
func (w *Writer) Disabled() bool {
	return w.disabled.Load()
}

// Info appends an informational message
func (w *Writer) Info(msg string) error {
	return w.write(zerolog.InfoLevel, msg)
}

// Warn appends a warning
func (w *Writer) Warn(msg string) error {
	return w.write(zerolog.WarnLevel, msg)
}

// Error appends an error message
func (w *Writer) Error(msg string) error {
	return w.write(zerolog.ErrorLevel, msg)
}

func (w *Writer) write(level zerolog.Level, msg string) error {
	if w == nil {
		return ErrDisabled
	}
	if w.disabled.Load() {
		return ErrDisabled
	}
	line := Normalize(msg)
	if line == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), w.lockWait)
	defer cancel()
	if err := w.lock.Acquire(ctx, 1); err != nil {
		return ErrLockTimeout
	}
	defer w.lock.Release(1)

	// Another writer may have disabled logging while we waited
	if w.disabled.Load() {
		return ErrDisabled
	}

	w.out.err = nil
	w.logger.WithLevel(level).Msg(line)
	if err := w.out.err; err != nil {
		w.disable(err)
		return err
	}
	return nil
}

func (w *Writer) disable(err error) {
	if w.disabled.CompareAndSwap(false, true) && w.onDisable != nil {
		w.onDisable(err)
	}
}

// Close ends the session log. After a clean session end the file is
// removed unless retention was requested; otherwise it is left in place.
// It returns the path of a retained log, or "" if the log was removed.
func (w *Writer) Close(clean bool) (string, error) {
	if w == nil {
		return "", nil
	}
	if !clean || w.keep.Load() {
		if _, err := os.Stat(w.path); err != nil {
			return "", nil
		}
		return w.path, nil
	}
	if err := os.Remove(w.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return w.path, fmt.Errorf("failed to remove log file: %w", err)
	}
	return "", nil
}

// Normalize prepares a terminal message for the log: colour codes are
// stripped, the text is lower-cased and only its last non-empty line is
// kept.
func Normalize(msg string) string {
	plain := ansi.Strip(msg)
	lines := strings.Split(plain, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(strings.TrimRight(lines[i], "\r"))
		if line != "" {
			return strings.ToLower(line)
		}
	}
	return ""
}

// appendFile opens the log by path for every write so that a deleted or
// replaced file is noticed instead of writing to an unlinked inode. Write
// failures are recorded in err rather than returned, so the writer reports
// them once instead of zerolog printing to stderr.
type appendFile struct {
	path string
	err  error
}

func (a *appendFile) Write(p []byte) (int, error) {
	f, err := os.OpenFile(a.path, os.O_APPEND|os.O_WRONLY, 0)
	if err != nil {
		a.err = err
		return len(p), nil
	}
	_, err = f.Write(p)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		a.err = err
	}
	return len(p), nil
}
