// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package session

import (
	"context"
	"fmt"
	"strings"
)

const licenseText = `uartterm
Copyright (c) 2025 Kaz Walker, Thermoquad

The command line program is licensed under the GNU General Public License,
version 2 or later. The session, codec and rendering libraries are licensed
under the Apache License, Version 2.0. Both licenses come with ABSOLUTELY
NO WARRANTY; see the license texts distributed with the source code.`

func cmdHelp(s *Session, ctx context.Context, args []string) error {
	s.report(levelPlain, helpText())
	return nil
}

func cmdLicense(s *Session, ctx context.Context, args []string) error {
	s.report(levelPlain, licenseText)
	return nil
}

func helpText() string {
	var b strings.Builder
	b.WriteString("Commands:\n")
	for _, cmd := range commands {
		names := make([]string, len(cmd.names))
		for i, name := range cmd.names {
			names[i] = commandPrefix + name
		}
		usage := strings.Join(names, ", ")
		if cmd.args != "" {
			usage += " " + cmd.args
		}
		fmt.Fprintf(&b, "  %-28s %s\n", usage, cmd.help)
	}
	b.WriteString("\nAny other line is sent. In numeric modes a line is a list of numbers;\n")
	b.WriteString("0x, 0d, 0o and 0b select the base of a single number. Start a line\n")
	b.WriteString("with \\\\ to send a leading backslash.")
	return b.String()
}
