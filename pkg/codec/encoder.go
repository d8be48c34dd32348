// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package codec

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

var (
	// ErrInvalidToken is returned when a token does not parse in its base
	ErrInvalidToken = errors.New("not a valid number")
	// ErrNegativeValue is returned for tokens with a negative value
	ErrNegativeValue = errors.New("negative values cannot be sent")
	// ErrUnsupportedBase is returned if a token resolves to no known radix
	ErrUnsupportedBase = errors.New("unsupported base")
	// ErrDataBits is returned for data widths outside 5..8
	ErrDataBits = errors.New("data bits must be between 5 and 8")
)

// TokenError reports a transmit token that could not be encoded
type TokenError struct {
	Token string
	Err   error
}

func (e *TokenError) Error() string {
	return fmt.Sprintf("%s is %v", e.Token, e.Err)
}

func (e *TokenError) Unwrap() error {
	return e.Err
}

// Chunk is one successfully encoded token and the bytes it produced
type Chunk struct {
	Token string
	Bytes []byte
}

// Encoding is the result of encoding a typed line
type Encoding struct {
	Chunks  []Chunk
	Errors  []*TokenError
	Aborted bool // Safe transmit stopped at the first invalid token
}

// Bytes returns the concatenated payload of all encoded chunks
func (e *Encoding) Bytes() []byte {
	var out []byte
	for _, c := range e.Chunks {
		out = append(out, c.Bytes...)
	}
	return out
}

// Tokens returns the text of all encoded chunks
func (e *Encoding) Tokens() []string {
	tokens := make([]string, 0, len(e.Chunks))
	for _, c := range e.Chunks {
		tokens = append(tokens, c.Token)
	}
	return tokens
}

// Encoder converts typed lines into bytes to transmit
type Encoder struct {
	dataBits int
}

// NewEncoder creates an encoder for the given data width
func NewEncoder(dataBits int) (*Encoder, error) {
	if dataBits < MinDataBits || dataBits > MaxDataBits {
		return nil, fmt.Errorf("%w: got %d", ErrDataBits, dataBits)
	}
	return &Encoder{dataBits: dataBits}, nil
}

// DataBits returns the configured data width
func (e *Encoder) DataBits() int {
	return e.dataBits
}

// EncodeLine encodes a typed line under the given mode. Character mode
// sends the literal UTF-8 bytes of the line. Numeric modes parse each
// whitespace separated token; with safe set, the first invalid token
// abandons the rest of the line.
func (e *Encoder) EncodeLine(line string, m Mode, safe bool) *Encoding {
	if m.IsChar() {
		if line == "" {
			return &Encoding{}
		}
		return &Encoding{Chunks: []Chunk{{Token: line, Bytes: []byte(line)}}}
	}

	enc := &Encoding{}
	for _, token := range strings.Fields(line) {
		b, err := e.EncodeToken(token, m.Base)
		if err != nil {
			var tokErr *TokenError
			if !errors.As(err, &tokErr) {
				tokErr = &TokenError{Token: token, Err: err}
			}
			enc.Errors = append(enc.Errors, tokErr)
			if safe {
				enc.Aborted = true
				break
			}
			continue
		}
		enc.Chunks = append(enc.Chunks, Chunk{Token: token, Bytes: b})
	}
	return enc
}

// EncodeToken parses one numeric token and splits its value into bytes
// that fit the data width. A 0x, 0d, 0o or 0b prefix selects the radix,
// otherwise the override base applies.
func (e *Encoder) EncodeToken(token string, override Base) ([]byte, error) {
	v, err := ParseToken(token, override)
	if err != nil {
		return nil, err
	}
	return SplitValue(v, e.dataBits), nil
}

// ParseToken parses a numeric token into an arbitrary precision integer
func ParseToken(token string, override Base) (*big.Int, error) {
	body := token
	negative := false
	switch {
	case strings.HasPrefix(body, "-"):
		negative = true
		body = body[1:]
	case strings.HasPrefix(body, "+"):
		body = body[1:]
	}

	digits, radix := tokenRadix(body, override)
	if radix == 0 {
		return nil, &TokenError{Token: token, Err: ErrUnsupportedBase}
	}
	if digits == "" {
		return nil, &TokenError{Token: token, Err: ErrInvalidToken}
	}

	v, ok := new(big.Int).SetString(digits, radix)
	if !ok {
		return nil, &TokenError{Token: token, Err: ErrInvalidToken}
	}
	if v.Sign() < 0 || (negative && v.Sign() != 0) {
		return nil, &TokenError{Token: token, Err: ErrNegativeValue}
	}
	return v, nil
}

// tokenRadix strips a radix prefix and returns the digits and radix
func tokenRadix(token string, override Base) (string, int) {
	if len(token) > 2 {
		switch strings.ToLower(token[:2]) {
		case prefixHex:
			return token[2:], 16
		case prefixDec:
			return token[2:], 10
		case prefixOct:
			return token[2:], 8
		case prefixBin:
			return token[2:], 2
		}
	}
	return token, override.Radix()
}

// SplitValue splits a non-negative value into bytes of at most dataBits
// bits each, most significant chunk first. Concatenating the chunks as a
// base 2^dataBits number reconstructs the value.
func SplitValue(v *big.Int, dataBits int) []byte {
	if v.Sign() <= 0 {
		return []byte{0}
	}

	mask := big.NewInt(int64(1)<<uint(dataBits) - 1)
	if v.Cmp(mask) <= 0 {
		return []byte{byte(v.Uint64())}
	}

	rest := new(big.Int).Set(v)
	chunk := new(big.Int)
	var out []byte
	for rest.Sign() > 0 {
		chunk.And(rest, mask)
		out = append(out, byte(chunk.Uint64()))
		rest.Rsh(rest, uint(dataBits))
	}

	// Chunks were extracted least significant first
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// JoinValue is the inverse of SplitValue
func JoinValue(chunks []byte, dataBits int) *big.Int {
	v := new(big.Int)
	for _, c := range chunks {
		v.Lsh(v, uint(dataBits))
		v.Or(v, big.NewInt(int64(c)))
	}
	return v
}
