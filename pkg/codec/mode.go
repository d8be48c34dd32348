// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package codec

import "fmt"

// Base selects how bytes are rendered and how unprefixed tokens are parsed
type Base uint8

const (
	BaseChar Base = iota
	BaseDec
	BaseBin
	BaseHex
)

// String returns the display name of the base
func (b Base) String() string {
	switch b {
	case BaseChar:
		return "character"
	case BaseDec:
		return "decimal"
	case BaseBin:
		return "binary"
	case BaseHex:
		return "hexadecimal"
	default:
		return fmt.Sprintf("base(%d)", uint8(b))
	}
}

// Radix returns the numeric radix of the base, or 0 for character mode
func (b Base) Radix() int {
	switch b {
	case BaseDec:
		return 10
	case BaseBin:
		return 2
	case BaseHex:
		return 16
	default:
		return 0
	}
}

// Mode is the active display mode. Exactly one base is active at a time;
// AppendHex adds a parenthesised hexadecimal annotation in numeric modes.
type Mode struct {
	Base      Base
	AppendHex bool
}

// Common modes selected by the interpreter commands
var (
	ModeChar   = Mode{Base: BaseChar}
	ModeHex    = Mode{Base: BaseHex}
	ModeDec    = Mode{Base: BaseDec}
	ModeBin    = Mode{Base: BaseBin}
	ModeDecHex = Mode{Base: BaseDec, AppendHex: true}
	ModeBinHex = Mode{Base: BaseBin, AppendHex: true}
)

// IsChar reports whether the mode renders characters
func (m Mode) IsChar() bool {
	return m.Base == BaseChar
}

// Annotated reports whether a hex annotation is rendered after each value.
// The annotation never applies to character or hexadecimal modes.
func (m Mode) Annotated() bool {
	return m.AppendHex && m.Base != BaseChar && m.Base != BaseHex
}

// Pack encodes the mode into a single word for atomic storage
func (m Mode) Pack() uint32 {
	v := uint32(m.Base)
	if m.AppendHex {
		v |= 0x100
	}
	return v
}

// UnpackMode is the inverse of Mode.Pack. Unknown bases fall back to
// character mode.
func UnpackMode(v uint32) Mode {
	m := Mode{Base: Base(v & 0xFF), AppendHex: v&0x100 != 0}
	if m.Base > BaseHex {
		return ModeChar
	}
	return m
}

// String describes the mode the way the interpreter announces it
func (m Mode) String() string {
	if m.IsChar() {
		return "character"
	}
	s := m.Base.String() + " number"
	if m.Annotated() {
		s += " and hexadecimal equivalent"
	}
	return s
}

// ParseMode returns the mode selected by a command name such as "hex" or
// "dechex"
func ParseMode(name string) (Mode, error) {
	switch name {
	case "char", "c":
		return ModeChar, nil
	case "hex", "h":
		return ModeHex, nil
	case "dec":
		return ModeDec, nil
	case "bin":
		return ModeBin, nil
	case "dechex":
		return ModeDecHex, nil
	case "binhex":
		return ModeBinHex, nil
	default:
		return ModeChar, fmt.Errorf("unknown display mode %q", name)
	}
}
