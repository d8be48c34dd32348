// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Thermoquad/uartterm/pkg/config"
)

// lineArgs holds settings given as positional arguments. Zero values mean
// the argument was not given.
type lineArgs struct {
	port        string
	baud        int
	dataBits    int
	stopBits    string
	parity      string
	searchRange int
}

// parseLineArgs classifies positional arguments by their value, so they can
// be given in any order:
//
//	5..8            data bits
//	1, 1.5, 2       stop bits
//	11..19          device search range
//	2000 and above  baud rate
//	n/o/e/m/s       parity (or none/odd/even/mark/space)
//	tty*            device under /dev
//
// When an argument is repeated the first occurrence wins. Unrecognized
// arguments are returned as warnings and otherwise ignored.
func parseLineArgs(args []string) (lineArgs, []string) {
	var la lineArgs
	var warnings []string

	for i := len(args) - 1; i >= 0; i-- {
		arg := args[i]
		if isNumeric(arg) {
			if !la.applyNumber(arg) {
				warnings = append(warnings, invalidArgument(arg))
			}
			continue
		}
		if parity, ok := parseParity(arg); ok {
			la.parity = parity
			continue
		}
		switch {
		case strings.HasPrefix(arg, "tty"):
			la.port = "/dev/" + arg
		case strings.HasPrefix(arg, "/dev/"):
			la.port = arg
		default:
			warnings = append(warnings, invalidArgument(arg))
		}
	}

	// Collected in reverse
	for i, j := 0, len(warnings)-1; i < j; i, j = i+1, j-1 {
		warnings[i], warnings[j] = warnings[j], warnings[i]
	}
	return la, warnings
}

func isNumeric(arg string) bool {
	if arg == "1.5" || arg == "1,5" {
		return true
	}
	if arg == "" {
		return false
	}
	for _, r := range arg {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func invalidArgument(arg string) string {
	return fmt.Sprintf("Invalid argument: %s, skipping", arg)
}

func (la *lineArgs) applyNumber(arg string) bool {
	if arg == "1.5" || arg == "1,5" {
		la.stopBits = "1.5"
		return true
	}
	n, err := strconv.Atoi(arg)
	if err != nil {
		return false
	}
	switch {
	case n > 10 && n < 20:
		la.searchRange = n
	case n >= 5 && n <= 8:
		la.dataBits = n
	case n == 1 || n == 2:
		la.stopBits = strconv.Itoa(n)
	case n > 1999:
		la.baud = n
	default:
		return false
	}
	return true
}

// parseParity accepts parity words and their first letters
func parseParity(arg string) (string, bool) {
	switch strings.ToLower(arg) {
	case "n", "no", "none":
		return "none", true
	case "o", "odd":
		return "odd", true
	case "e", "even":
		return "even", true
	case "m", "mark":
		return "mark", true
	case "s", "space":
		return "space", true
	}
	return "", false
}

// apply copies the given arguments over the serial configuration
func (la lineArgs) apply(cfg *config.SerialConfig) {
	if la.port != "" {
		cfg.Port = la.port
	}
	if la.baud != 0 {
		cfg.Baud = la.baud
	}
	if la.dataBits != 0 {
		cfg.DataBits = la.dataBits
	}
	if la.stopBits != "" {
		cfg.StopBits = la.stopBits
	}
	if la.parity != "" {
		cfg.Parity = la.parity
	}
	if la.searchRange != 0 {
		cfg.SearchRange = la.searchRange
	}
}
