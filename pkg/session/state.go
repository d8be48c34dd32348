// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package session

import (
	"path/filepath"

	"github.com/Thermoquad/uartterm/pkg/codec"
	"go.uber.org/atomic"
)

// Framing holds the bytes wrapped around every transmitted payload.
// A Framing value is never modified after it is published.
type Framing struct {
	Prefix   []byte
	Suffix   []byte
	Checksum *codec.Checksum
}

// State is the mutable session state shared by the command interpreter
// and the receive loop. Every field has a single writer; readers tolerate
// seeing an update slightly late, so plain atomics are sufficient.
type State struct {
	mode    atomic.Uint32
	safe    atomic.Bool
	mute    atomic.Bool
	alive   atomic.Bool
	framing atomic.Pointer[Framing]
	dump    atomic.String
	workDir atomic.String
}

func newState(workDir string) *State {
	st := &State{}
	st.mode.Store(codec.ModeChar.Pack())
	st.framing.Store(&Framing{})
	st.workDir.Store(workDir)
	return st
}

// Mode returns the active display mode
func (st *State) Mode() codec.Mode {
	return codec.UnpackMode(st.mode.Load())
}

// SetMode switches the display mode
func (st *State) SetMode(m codec.Mode) {
	st.mode.Store(m.Pack())
}

// Safe reports whether safe transmit is enabled
func (st *State) Safe() bool {
	return st.safe.Load()
}

// Muted reports whether receive rendering is suppressed
func (st *State) Muted() bool {
	return st.mute.Load()
}

// Alive reports whether the receive loop is still running
func (st *State) Alive() bool {
	return st.alive.Load()
}

// Framing returns the current transmit framing
func (st *State) Framing() *Framing {
	return st.framing.Load()
}

// updateFraming publishes a modified copy of the framing
func (st *State) updateFraming(update func(f *Framing)) *Framing {
	next := *st.framing.Load()
	update(&next)
	st.framing.Store(&next)
	return &next
}

// DumpName returns the dump file name as given to \dump, or "" if dumping
// is off
func (st *State) DumpName() string {
	return st.dump.Load()
}

// DumpPath returns the dump file resolved against the current working
// directory, or "" if dumping is off. A relative dump file follows
// \setpath.
func (st *State) DumpPath() string {
	name := st.dump.Load()
	if name == "" {
		return ""
	}
	return st.resolve(name)
}

// WorkDir returns the directory used to resolve file names
func (st *State) WorkDir() string {
	return st.workDir.Load()
}

// resolve makes name absolute against the working directory
func (st *State) resolve(name string) string {
	if expanded, err := expandHome(name); err == nil {
		name = expanded
	}
	if filepath.IsAbs(name) {
		return filepath.Clean(name)
	}
	return filepath.Join(st.WorkDir(), name)
}
