// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package session

import (
	"fmt"
	"os"
)

// receive is the receive loop. It reads the link one byte at a time until
// a read fails, and marks the receiver dead on the way out.
func (s *Session) receive(ready chan<- struct{}) {
	defer close(s.done)
	defer s.dump.close()
	defer func() {
		if r := recover(); r != nil {
			s.notify(levelError, "Something unexpected happened!")
			s.logMessage(levelError, fmt.Sprintf("receiver panic: %v", r))
			s.state.alive.Store(false)
		}
	}()

	s.state.alive.Store(true)
	close(ready)

	buf := make([]byte, 1)
	for {
		n, err := s.transport.Read(buf)
		if n > 0 {
			s.handleByte(buf[0])
		}
		if err != nil {
			if !s.closing.Load() {
				s.notify(levelError, fmt.Sprintf("Connection to %s lost!", s.opts.Device))
				s.logMessage(levelError, fmt.Sprintf("read error: %v", err))
			}
			s.state.alive.Store(false)
			return
		}
	}
}

// handleByte dumps, decodes and renders one received byte
func (s *Session) handleByte(b byte) {
	s.dumpByte(b)
	s.stats.RxBytes.Inc()

	mode := s.state.Mode()
	tok := s.decoder.DecodeByte(b, mode)
	if tok.Invalid {
		s.stats.InvalidRx.Inc()
	}
	if s.state.Muted() {
		return
	}
	s.out.WriteString(s.renderer.Render(tok, mode))
}

// dumpFile is the receive loop's handle on the dump file. It follows the
// resolved dump path and reopens whenever that path changes.
type dumpFile struct {
	path string
	f    *os.File
}

func (d *dumpFile) close() {
	if d.f != nil {
		_ = d.f.Close()
	}
	d.f = nil
	d.path = ""
}

// dumpByte appends b to the dump file. A failed write is reported and the
// file is reopened for the next byte; only a path that cannot be opened
// turns dumping off.
func (s *Session) dumpByte(b byte) {
	name := s.state.DumpName()
	path := ""
	if name != "" {
		path = s.state.resolve(name)
	}
	if path != s.dump.path {
		s.dump.close()
		if path == "" {
			return
		}
		f, err := openDump(path)
		if err != nil {
			s.disableDump(name, path, err)
			return
		}
		s.dump.f = f
		s.dump.path = path
	}
	if s.dump.f == nil {
		return
	}
	if _, err := s.dump.f.Write([]byte{b}); err != nil {
		s.dump.close()
		s.stats.DumpErrors.Inc()
		s.notify(levelError, fmt.Sprintf("Cannot dump to file %s!", path))
		s.logMessage(levelError, fmt.Sprintf("dump write error: %v", err))
		return
	}
	s.stats.DumpedBytes.Inc()
}

// disableDump turns dumping off unless the user already chose another file
func (s *Session) disableDump(name, path string, err error) {
	s.state.dump.CompareAndSwap(name, "")
	s.notify(levelError, fmt.Sprintf("Cannot write dump file %s!", path))
	s.logMessage(levelError, fmt.Sprintf("dump error: %v", err))
}

func openDump(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
}
