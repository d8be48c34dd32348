// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package session

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Thermoquad/uartterm/pkg/codec"
)

// transmit encodes a typed line under the current mode and writes it to the
// link wrapped in the current framing
func (s *Session) transmit(line string) {
	mode := s.state.Mode()
	framing := s.state.Framing()

	enc := s.encoder.EncodeLine(line, mode, s.state.Safe())
	for _, tokErr := range enc.Errors {
		s.stats.TokenErrors.Inc()
		s.report(levelError, tokenErrorMessage(tokErr))
	}
	payload := enc.Bytes()
	if len(payload) > 0 {
		s.sendFrame(payload, framing)
		s.report(levelPlain, sendStyle.Render("Send:")+" "+echo(enc, mode))
	}
	if enc.Aborted {
		s.report(levelWarn, "Safe transmit: rest of line discarded")
	}
}

// sendFrame wraps payload in prefix, checksum trailer and suffix and writes it
func (s *Session) sendFrame(payload []byte, framing *Framing) {
	frame := make([]byte, 0, len(framing.Prefix)+len(payload)+2+len(framing.Suffix))
	frame = append(frame, framing.Prefix...)
	frame = append(frame, payload...)
	if framing.Checksum != nil {
		frame = append(frame, framing.Checksum.Trailer(payload)...)
	}
	frame = append(frame, framing.Suffix...)

	s.writeBytes(frame)
}

// writeBytes writes one byte at a time so that a failed byte does not stop
// the rest of the frame
func (s *Session) writeBytes(frame []byte) {
	var failed int
	var lastErr error
	for i := range frame {
		if _, err := s.transport.Write(frame[i : i+1]); err != nil {
			failed++
			lastErr = err
			continue
		}
		s.stats.TxBytes.Inc()
	}
	if failed > 0 {
		s.stats.WriteErrors.Add(uint64(failed))
		s.report(levelError, fmt.Sprintf("Failed to write %d of %d bytes: %v", failed, len(frame), lastErr))
	}
}

// echo describes what was sent: the line itself in character mode, each
// token with its bytes otherwise
func echo(enc *codec.Encoding, m codec.Mode) string {
	if m.IsChar() {
		return strings.Join(enc.Tokens(), "")
	}
	parts := make([]string, 0, len(enc.Chunks))
	for _, c := range enc.Chunks {
		parts = append(parts, fmt.Sprintf("%s (%s)", c.Token, codec.FormatHexBytes(c.Bytes)))
	}
	return strings.Join(parts, " ")
}

func tokenErrorMessage(e *codec.TokenError) string {
	switch {
	case errors.Is(e.Err, codec.ErrNegativeValue):
		return fmt.Sprintf("%s is negative and cannot be sent!", e.Token)
	case errors.Is(e.Err, codec.ErrUnsupportedBase):
		return fmt.Sprintf("%s uses an unsupported base!", e.Token)
	default:
		return fmt.Sprintf("%s is not a valid number!", e.Token)
	}
}
