// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package codec

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrHexArgument is returned when a framing argument is not a hex byte
var ErrHexArgument = errors.New("arguments must be hexadecimal bytes")

// ParseHexBytes parses framing arguments such as "7E 0x01 ff" into bytes.
// Each argument must be a hexadecimal value that fits in one byte.
func ParseHexBytes(args []string) ([]byte, error) {
	out := make([]byte, 0, len(args))
	for _, arg := range args {
		digits := arg
		if len(digits) > 2 && strings.EqualFold(digits[:2], prefixHex) {
			digits = digits[2:]
		}
		v, err := strconv.ParseUint(digits, 16, 8)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrHexArgument, arg)
		}
		out = append(out, byte(v))
	}
	return out, nil
}

// FormatHexBytes renders bytes as space separated 0x values
func FormatHexBytes(data []byte) string {
	parts := make([]string, len(data))
	for i, b := range data {
		parts[i] = FormatValue(b, ModeHex)
	}
	return strings.Join(parts, " ")
}
