// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package session

import (
	"bufio"
	"io"
	"strings"

	"github.com/muesli/cancelreader"
)

// console reads typed lines on its own goroutine so the interpreter can
// select between input, liveness checks and interrupts.
type console struct {
	reader cancelreader.CancelReader // nil if the input cannot be cancelled
	lines  chan string
	done   chan struct{}
}

func newConsole(in io.Reader) *console {
	c := &console{lines: make(chan string), done: make(chan struct{})}

	src := in
	// Regular files and some pipes cannot be polled; read them directly
	if cr, err := cancelreader.NewReader(in); err == nil {
		c.reader = cr
		src = cr
	}

	go c.run(src)
	return c
}

func (c *console) run(src io.Reader) {
	defer close(c.lines)

	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 0, 4096), 1024*1024)
	for scanner.Scan() {
		select {
		case c.lines <- strings.TrimRight(scanner.Text(), "\r"):
		case <-c.done:
			return
		}
	}
}

// Lines returns the channel of typed lines; it is closed at EOF
func (c *console) Lines() <-chan string {
	return c.lines
}

// Close stops a pending read where the platform allows it
func (c *console) Close() {
	close(c.done)
	if c.reader == nil {
		return
	}
	c.reader.Cancel()
}
