// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package session

import (
	"errors"
	"fmt"
)

// Process exit codes
const (
	ExitOK            = 0
	ExitConfig        = 1
	ExitTransportLost = 2
	ExitReceiverStart = 4
)

var (
	// ErrReceiverDied is returned when the receive loop stopped
	ErrReceiverDied = errors.New("receiver stopped")
	// ErrIdleTimeout is returned after a long period without console input
	ErrIdleTimeout = errors.New("idle timeout")
	// ErrReceiverStart is returned when the receive loop did not come up
	ErrReceiverStart = errors.New("receiver failed to start")

	// errInterrupted ends the session after a user interrupt
	errInterrupted = errors.New("user interrupt")
	// errConsoleClosed ends the session when console input reaches EOF
	errConsoleClosed = errors.New("console closed")
)

// ExitError carries the process exit code for a session failure
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitCode maps an error returned by the session to a process exit code
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitTransportLost
}
