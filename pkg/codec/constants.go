// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package codec converts between raw UART bytes and their terminal form.
//
// Received bytes are rendered one at a time as characters or as numbers in
// decimal, binary or hexadecimal notation. Typed lines are converted to the
// bytes to transmit, either literally (character mode) or by parsing
// whitespace separated numeric tokens whose values may be wider than the
// configured data width.
package codec

// Data widths supported by UART framing
const (
	MinDataBits     = 5
	MaxDataBits     = 8
	DefaultDataBits = 8
)

// Numeric literal prefixes recognised on transmit tokens
const (
	prefixHex = "0x"
	prefixDec = "0d"
	prefixOct = "0o"
	prefixBin = "0b"
)

// Character mode control bytes
const (
	lineFeed       = 0x0A
	carriageReturn = 0x0D
	horizontalTab  = 0x09
	deleteChar     = 0x7F
)
