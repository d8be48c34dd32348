// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package codec

import (
	"bytes"
	"errors"
	"math/big"
	"testing"
)

// ============================================================
// Mode Tests
// ============================================================

func TestModePackRoundTrip(t *testing.T) {
	modes := []Mode{ModeChar, ModeHex, ModeDec, ModeBin, ModeDecHex, ModeBinHex}
	for _, m := range modes {
		if got := UnpackMode(m.Pack()); got != m {
			t.Errorf("UnpackMode(Pack(%v)) = %v", m, got)
		}
	}
}

func TestUnpackModeUnknownBase(t *testing.T) {
	if got := UnpackMode(0x7F); got != ModeChar {
		t.Errorf("unknown base should fall back to character mode, got %v", got)
	}
}

func TestModeAnnotated(t *testing.T) {
	tests := []struct {
		mode Mode
		want bool
	}{
		{ModeChar, false},
		{Mode{Base: BaseChar, AppendHex: true}, false},
		{ModeHex, false},
		{Mode{Base: BaseHex, AppendHex: true}, false},
		{ModeDecHex, true},
		{ModeBinHex, true},
		{ModeDec, false},
	}
	for _, tt := range tests {
		if got := tt.mode.Annotated(); got != tt.want {
			t.Errorf("%v.Annotated() = %v, want %v", tt.mode, got, tt.want)
		}
	}
}

// ============================================================
// Decoder Tests
// ============================================================

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name string
		b    byte
		mode Mode
		want string
	}{
		{"hex", 0x43, ModeHex, "0x43"},
		{"hex small", 0x0A, ModeHex, "0xa"},
		{"hex zero", 0x00, ModeHex, "0x0"},
		{"decimal", 65, ModeDec, "65"},
		{"binary", 65, ModeBin, "0b1000001"},
		{"decimal with hex", 65, ModeDecHex, "65 (0x41)"},
		{"binary with hex", 5, ModeBinHex, "0b101 (0x5)"},
		{"hex annotation suppressed", 0x43, Mode{Base: BaseHex, AppendHex: true}, "0x43"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatValue(tt.b, tt.mode); got != tt.want {
				t.Errorf("FormatValue(0x%02X, %v) = %q, want %q", tt.b, tt.mode, got, tt.want)
			}
		})
	}
}

func TestDecodeByteNumeric(t *testing.T) {
	d := NewDecoder()
	tok := d.DecodeByte(0x43, ModeHex)
	if tok.Text != "0x43 " {
		t.Errorf("Text = %q, want %q", tok.Text, "0x43 ")
	}
	if tok.Units != 1 || tok.Newline || tok.Invalid {
		t.Errorf("unexpected token flags: %+v", tok)
	}
}

func TestDecodeByteCharacter(t *testing.T) {
	d := NewDecoder()
	tok := d.DecodeByte('A', ModeChar)
	if tok.Text != "A" || tok.Units != 1 {
		t.Errorf("got %+v, want Text=A Units=1", tok)
	}
}

func TestDecodeByteNewline(t *testing.T) {
	d := NewDecoder()
	tok := d.DecodeByte('\n', ModeChar)
	if !tok.Newline || tok.Text != "" {
		t.Errorf("line feed should produce an empty newline token, got %+v", tok)
	}
	tok = d.DecodeByte('\r', ModeChar)
	if tok.Newline || tok.Text != "" || tok.Units != 0 {
		t.Errorf("carriage return should be dropped, got %+v", tok)
	}
	tok = d.DecodeByte('\n', ModeHex)
	if tok.Newline || tok.Text != "0xa " {
		t.Errorf("line feed in hex mode should render as a number, got %+v", tok)
	}
}

func TestDecodeByteControl(t *testing.T) {
	d := NewDecoder()
	tok := d.DecodeByte(0x1B, ModeChar)
	if tok.Text != "[0x1B]" || tok.Invalid {
		t.Errorf("escape byte should be bracketed without marking invalid, got %+v", tok)
	}
}

func TestDecodeByteMultiByteRune(t *testing.T) {
	d := NewDecoder()
	input := []byte("é") // 0xC3 0xA9

	tok := d.DecodeByte(input[0], ModeChar)
	if tok.Text != "" || tok.Units != 0 {
		t.Fatalf("first byte of a rune should be pending, got %+v", tok)
	}
	tok = d.DecodeByte(input[1], ModeChar)
	if tok.Text != "é" || tok.Units != 1 || tok.Invalid {
		t.Errorf("got %+v, want é", tok)
	}
}

func TestDecodeByteInvalidSequence(t *testing.T) {
	d := NewDecoder()

	tok := d.DecodeByte(0xFF, ModeChar)
	if !tok.Invalid || tok.Text != "[0xFF]" {
		t.Errorf("0xFF should be invalid, got %+v", tok)
	}

	// Truncated sequence followed by ASCII
	d.DecodeByte(0xC3, ModeChar)
	tok = d.DecodeByte('A', ModeChar)
	if !tok.Invalid {
		t.Error("truncated sequence should be marked invalid")
	}
	if tok.Text != "[0xC3]A" {
		t.Errorf("Text = %q, want %q", tok.Text, "[0xC3]A")
	}
	if tok.Units != 2 {
		t.Errorf("Units = %d, want 2", tok.Units)
	}
}

func TestDecodeByteModeSwitchDropsPending(t *testing.T) {
	d := NewDecoder()
	d.DecodeByte(0xC3, ModeChar)
	d.DecodeByte(0x41, ModeHex)
	tok := d.DecodeByte('B', ModeChar)
	if tok.Text != "B" || tok.Invalid {
		t.Errorf("pending bytes should be dropped on mode switch, got %+v", tok)
	}
}

// ============================================================
// Encoder Tests
// ============================================================

func mustEncoder(t *testing.T, bits int) *Encoder {
	t.Helper()
	e, err := NewEncoder(bits)
	if err != nil {
		t.Fatalf("NewEncoder(%d): %v", bits, err)
	}
	return e
}

func TestNewEncoderDataBits(t *testing.T) {
	for _, bits := range []int{4, 9, 0} {
		if _, err := NewEncoder(bits); !errors.Is(err, ErrDataBits) {
			t.Errorf("NewEncoder(%d) error = %v, want ErrDataBits", bits, err)
		}
	}
	for bits := MinDataBits; bits <= MaxDataBits; bits++ {
		if _, err := NewEncoder(bits); err != nil {
			t.Errorf("NewEncoder(%d) unexpected error: %v", bits, err)
		}
	}
}

func TestEncodeToken(t *testing.T) {
	tests := []struct {
		name     string
		token    string
		override Base
		bits     int
		want     []byte
	}{
		{"hex default", "41", BaseHex, 8, []byte{0x41}},
		{"hex prefix", "0x41", BaseDec, 8, []byte{0x41}},
		{"upper hex prefix", "0XfF", BaseDec, 8, []byte{0xFF}},
		{"decimal override", "65", BaseDec, 8, []byte{65}},
		{"decimal prefix", "0d65", BaseHex, 8, []byte{65}},
		{"octal prefix", "0o101", BaseHex, 8, []byte{65}},
		{"binary prefix", "0b1000001", BaseHex, 8, []byte{65}},
		{"binary override", "101", BaseBin, 8, []byte{5}},
		{"zero", "0", BaseHex, 8, []byte{0}},
		{"bare 0d is hex", "0d", BaseHex, 8, []byte{0x0D}},
		{"overflow 8 bits", "0x1234", BaseHex, 8, []byte{0x12, 0x34}},
		{"overflow 7 bits", "0d200", BaseHex, 7, []byte{0x01, 0x48}},
		{"overflow 5 bits", "0b1000001", BaseHex, 5, []byte{0x02, 0x01}},
		{"fits 5 bits", "31", BaseDec, 5, []byte{31}},
		{"plus sign", "+10", BaseDec, 8, []byte{10}},
		{"negative zero", "-0", BaseDec, 8, []byte{0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := mustEncoder(t, tt.bits)
			got, err := e.EncodeToken(tt.token, tt.override)
			if err != nil {
				t.Fatalf("EncodeToken(%q): %v", tt.token, err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("EncodeToken(%q) = % X, want % X", tt.token, got, tt.want)
			}
		})
	}
}

func TestEncodeTokenErrors(t *testing.T) {
	tests := []struct {
		name     string
		token    string
		override Base
		want     error
	}{
		{"bad hex digits", "0xZZ", BaseHex, ErrInvalidToken},
		{"bad decimal", "12a", BaseDec, ErrInvalidToken},
		{"bad binary", "102", BaseBin, ErrInvalidToken},
		{"empty after prefix sign", "-", BaseDec, ErrInvalidToken},
		{"negative", "-5", BaseDec, ErrNegativeValue},
		{"negative hex", "-0x10", BaseDec, ErrNegativeValue},
		{"character base", "12", BaseChar, ErrUnsupportedBase},
	}
	e := mustEncoder(t, 8)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.EncodeToken(tt.token, tt.override)
			if !errors.Is(err, tt.want) {
				t.Fatalf("EncodeToken(%q) error = %v, want %v", tt.token, err, tt.want)
			}
			var tokErr *TokenError
			if !errors.As(err, &tokErr) || tokErr.Token != tt.token {
				t.Errorf("error should carry the token, got %v", err)
			}
		})
	}
}

func TestEncodeLineCharacter(t *testing.T) {
	e := mustEncoder(t, 8)
	enc := e.EncodeLine("hello \\ wörld", ModeChar, true)
	if got := enc.Bytes(); !bytes.Equal(got, []byte("hello \\ wörld")) {
		t.Errorf("Bytes() = %q", got)
	}
	if len(enc.Errors) != 0 {
		t.Errorf("character mode should never report token errors: %v", enc.Errors)
	}
}

func TestEncodeLineHex(t *testing.T) {
	e := mustEncoder(t, 8)
	enc := e.EncodeLine("41  42", ModeHex, false)
	if got := enc.Bytes(); !bytes.Equal(got, []byte{0x41, 0x42}) {
		t.Errorf("Bytes() = % X, want 41 42", got)
	}
	tokens := enc.Tokens()
	if len(tokens) != 2 || tokens[0] != "41" || tokens[1] != "42" {
		t.Errorf("Tokens() = %v", tokens)
	}
}

func TestEncodeLineSafeTransmit(t *testing.T) {
	e := mustEncoder(t, 8)

	safe := e.EncodeLine("0xZZ 5", ModeHex, true)
	if !safe.Aborted {
		t.Error("safe transmit should abort on the first invalid token")
	}
	if len(safe.Bytes()) != 0 {
		t.Errorf("safe transmit should send nothing after 0xZZ, got % X", safe.Bytes())
	}
	if len(safe.Errors) != 1 {
		t.Errorf("expected one error, got %d", len(safe.Errors))
	}

	unsafe := e.EncodeLine("0xZZ 5", ModeHex, false)
	if unsafe.Aborted {
		t.Error("unsafe transmit should not abort")
	}
	if got := unsafe.Bytes(); !bytes.Equal(got, []byte{5}) {
		t.Errorf("Bytes() = % X, want 05", got)
	}
	if len(unsafe.Errors) != 1 || unsafe.Errors[0].Token != "0xZZ" {
		t.Errorf("expected one error for 0xZZ, got %v", unsafe.Errors)
	}
}

func TestEncodeLineSafeKeepsEarlierTokens(t *testing.T) {
	e := mustEncoder(t, 8)
	enc := e.EncodeLine("1 2 x 3", ModeDec, true)
	if got := enc.Bytes(); !bytes.Equal(got, []byte{1, 2}) {
		t.Errorf("Bytes() = % X, want 01 02", got)
	}
}

func TestEncodeLineEmpty(t *testing.T) {
	e := mustEncoder(t, 8)
	if enc := e.EncodeLine("", ModeChar, false); len(enc.Chunks) != 0 {
		t.Errorf("empty character line should encode nothing, got %v", enc.Chunks)
	}
	if enc := e.EncodeLine("   ", ModeHex, false); len(enc.Chunks) != 0 {
		t.Errorf("blank numeric line should encode nothing, got %v", enc.Chunks)
	}
}

func TestSplitValueBigNumber(t *testing.T) {
	v, _ := new(big.Int).SetString("123456789abcdef0123456789", 16)
	chunks := SplitValue(v, 8)
	want := []byte{0x01, 0x23, 0x45, 0x67, 0x89, 0xAB, 0xCD, 0xEF, 0x01, 0x23, 0x45, 0x67, 0x89}
	if !bytes.Equal(chunks, want) {
		t.Errorf("SplitValue = % X, want % X", chunks, want)
	}
	if JoinValue(chunks, 8).Cmp(v) != 0 {
		t.Error("JoinValue should reconstruct the value")
	}
}

// ============================================================
// Framing Tests
// ============================================================

func TestParseHexBytes(t *testing.T) {
	got, err := ParseHexBytes([]string{"7E", "0x01", "ff", "0"})
	if err != nil {
		t.Fatalf("ParseHexBytes: %v", err)
	}
	if want := []byte{0x7E, 0x01, 0xFF, 0x00}; !bytes.Equal(got, want) {
		t.Errorf("ParseHexBytes = % X, want % X", got, want)
	}
}

func TestParseHexBytesErrors(t *testing.T) {
	for _, args := range [][]string{{"zz"}, {"100"}, {"01", "-1"}, {"0x"}} {
		if _, err := ParseHexBytes(args); !errors.Is(err, ErrHexArgument) {
			t.Errorf("ParseHexBytes(%v) error = %v, want ErrHexArgument", args, err)
		}
	}
}

func TestFormatHexBytes(t *testing.T) {
	if got := FormatHexBytes([]byte{0x7E, 0x0A}); got != "0x7e 0xa" {
		t.Errorf("FormatHexBytes = %q", got)
	}
}

// ============================================================
// Checksum Tests
// ============================================================

func TestChecksumKnownValues(t *testing.T) {
	tests := []struct {
		name    string
		want    uint16
		trailer []byte
	}{
		{"ccitt", 0x29B1, []byte{0x29, 0xB1}}, // Standard CRC-16-CCITT check value
		{"xmodem", 0x31C3, []byte{0x31, 0xC3}},
		{"modbus", 0x4B37, []byte{0x37, 0x4B}},
		{"kermit", 0x2189, []byte{0x89, 0x21}},
	}
	data := []byte("123456789")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := LookupChecksum(tt.name)
			if err != nil {
				t.Fatalf("LookupChecksum: %v", err)
			}
			if got := c.Sum(data); got != tt.want {
				t.Errorf("CRC mismatch: expected 0x%04X, got 0x%04X", tt.want, got)
			}
			if got := c.Trailer(data); !bytes.Equal(got, tt.trailer) {
				t.Errorf("Trailer = % X, want % X", got, tt.trailer)
			}
		})
	}
}

func TestLookupChecksumUnknown(t *testing.T) {
	if _, err := LookupChecksum("crc32"); err == nil {
		t.Error("expected error for unknown checksum")
	}
	if c, err := LookupChecksum("MODBUS"); err != nil || c.Name != "modbus" {
		t.Errorf("lookup should be case-insensitive, got %v, %v", c, err)
	}
}
