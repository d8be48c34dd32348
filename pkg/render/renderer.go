// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package render batches received tokens into terminal lines.
//
// The renderer keeps one "current" visual line directly above the cursor.
// Each new token either redraws that line in place (cursor to the previous
// line, erase, rewrite) or commits it and starts a new line, so a fast byte
// stream stays readable without printing one line per byte.
package render

import (
	"strings"
	"time"

	"github.com/Thermoquad/uartterm/pkg/codec"
	"github.com/charmbracelet/x/ansi"
	"go.uber.org/atomic"
)

// Default batching thresholds
const (
	DefaultLineGap         = 70 * time.Millisecond
	DefaultMaxCharUnits    = 64
	DefaultMaxNumericUnits = 16
)

// Options configures line batching
type Options struct {
	// LineGap is the idle time after which the next token starts a new line
	LineGap time.Duration
	// MaxCharUnits is the number of characters per line in character mode
	MaxCharUnits int
	// MaxNumericUnits is the number of values per line in numeric modes
	MaxNumericUnits int
	// Header returns the text printed at the start of every new line
	Header func(now time.Time) string
	// Now returns the current time; defaults to time.Now
	Now func() time.Time
}

func (o *Options) setDefaults() {
	if o.LineGap <= 0 {
		o.LineGap = DefaultLineGap
	}
	if o.MaxCharUnits <= 0 {
		o.MaxCharUnits = DefaultMaxCharUnits
	}
	if o.MaxNumericUnits <= 0 {
		o.MaxNumericUnits = DefaultMaxNumericUnits
	}
	if o.Header == nil {
		o.Header = func(time.Time) string { return "" }
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// Renderer turns decoded tokens into terminal output. It is owned by the
// receive loop; only ForceBreak may be called from another goroutine.
type Renderer struct {
	opts Options

	header    string
	line      strings.Builder
	units     int
	lastFlush time.Time
	started   bool
	breakNext bool

	forceBreak atomic.Bool
}

// New creates a renderer
func New(opts Options) *Renderer {
	opts.setDefaults()
	return &Renderer{opts: opts}
}

// ForceBreak makes the next rendered token start a new line. The command
// interpreter calls it after writing its own output to the terminal.
func (r *Renderer) ForceBreak() {
	r.forceBreak.Store(true)
}

// BreakPending reports whether a forced break is waiting to be consumed
func (r *Renderer) BreakPending() bool {
	return r.forceBreak.Load()
}

// Line returns the text of the current visual line without its header
func (r *Renderer) Line() string {
	return r.line.String()
}

// Render consumes one token and returns the bytes to write to the terminal.
// Tokens without text produce no output but may still end the line.
func (r *Renderer) Render(tok codec.Token, m codec.Mode) string {
	now := r.opts.Now()

	if tok.Newline {
		r.breakNext = true
		r.lastFlush = now
		return ""
	}
	if tok.Text == "" {
		return ""
	}

	var out strings.Builder
	if r.startNewLine(now, m) {
		r.line.Reset()
		r.units = 0
		r.header = r.opts.Header(now)
		r.started = true
		// Return to column 0 of the blank line below the committed one
		out.WriteString(ansi.CursorPreviousLine(1))
		out.WriteString("\n")
	} else {
		out.WriteString(ansi.CursorPreviousLine(1))
		out.WriteString(ansi.EraseEntireLine)
	}

	r.line.WriteString(tok.Text)
	r.units += tok.Units
	out.WriteString(r.header)
	out.WriteString(r.line.String())
	out.WriteString("\n")

	r.lastFlush = now
	r.breakNext = tok.Invalid
	return out.String()
}

// startNewLine decides whether the current line is committed
func (r *Renderer) startNewLine(now time.Time, m codec.Mode) bool {
	// Always consume the forced break flag
	forced := r.forceBreak.CompareAndSwap(true, false)

	if !r.started || forced || r.breakNext {
		return true
	}
	if now.Sub(r.lastFlush) > r.opts.LineGap {
		return true
	}
	limit := r.opts.MaxNumericUnits
	if m.IsChar() {
		limit = r.opts.MaxCharUnits
	}
	return r.units >= limit
}
