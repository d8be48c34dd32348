// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package codec

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// Token is the display form of one received byte
type Token struct {
	Text    string // Rendered text, empty while a character is incomplete
	Units   int    // Display units contained in Text (characters or numbers)
	Newline bool   // A character mode line feed was received
	Invalid bool   // Text contains bytes that did not decode as UTF-8
}

// Decoder renders received bytes one at a time. Character mode keeps a
// small amount of state to reassemble multi-byte UTF-8 sequences.
type Decoder struct {
	pending []byte
}

// NewDecoder creates a new byte decoder
func NewDecoder() *Decoder {
	return &Decoder{pending: make([]byte, 0, utf8.UTFMax)}
}

// Reset drops any partially received character
func (d *Decoder) Reset() {
	d.pending = d.pending[:0]
}

// DecodeByte renders a single received byte under the given mode
func (d *Decoder) DecodeByte(b byte, m Mode) Token {
	if !m.IsChar() {
		// Switching away from character mode abandons a partial rune
		if len(d.pending) > 0 {
			d.Reset()
		}
		return Token{Text: FormatValue(b, m) + " ", Units: 1}
	}

	if len(d.pending) == 0 {
		switch b {
		case lineFeed:
			return Token{Newline: true}
		case carriageReturn:
			return Token{}
		case horizontalTab:
			return Token{Text: "\t", Units: 1}
		}
		if b < 0x20 || b == deleteChar {
			return Token{Text: bracketHex(b), Units: 1}
		}
	}

	d.pending = append(d.pending, b)

	var tok Token
	var sb strings.Builder
	for len(d.pending) > 0 {
		if !utf8.FullRune(d.pending) {
			break
		}
		r, size := utf8.DecodeRune(d.pending)
		if r == utf8.RuneError && size <= 1 {
			sb.WriteString(bracketHex(d.pending[0]))
			tok.Invalid = true
			tok.Units++
			d.pending = d.pending[1:]
			continue
		}
		sb.Write(d.pending[:size])
		tok.Units++
		d.pending = d.pending[size:]
	}
	// Keep the backing array; shift remaining bytes to the front
	d.pending = append(d.pending[:0], d.pending...)

	tok.Text = sb.String()
	return tok
}

// FormatValue renders a byte value in the numeric base of the mode, with
// the optional hex annotation. Character mode falls back to hexadecimal.
func FormatValue(b byte, m Mode) string {
	v := uint64(b)
	var s string
	switch m.Base {
	case BaseDec:
		s = strconv.FormatUint(v, 10)
	case BaseBin:
		s = prefixBin + strconv.FormatUint(v, 2)
	default:
		s = prefixHex + strconv.FormatUint(v, 16)
	}
	if m.Annotated() {
		s += " (" + prefixHex + strconv.FormatUint(v, 16) + ")"
	}
	return s
}

// bracketHex renders an undisplayable byte
func bracketHex(b byte) string {
	const digits = "0123456789ABCDEF"
	return "[0x" + string([]byte{digits[b>>4], digits[b&0x0F]}) + "]"
}
