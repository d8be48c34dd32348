// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad
//
// uartterm - Interactive UART terminal
//
// A CLI tool for talking to byte-oriented serial links, showing received
// bytes as characters or numbers while sending typed data and files.

package main

import (
	"fmt"
	"os"

	"github.com/Thermoquad/uartterm/cmd"
)

func main() {
	err := cmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Exiting: %v\n", err)
	}
	os.Exit(cmd.ExitCode(err))
}
