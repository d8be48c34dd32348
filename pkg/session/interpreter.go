// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	commandPrefix = `\`
	escapedPrefix = `\\`
)

// errQuit is returned by the quit command
var errQuit = errors.New("quit")

// interpret runs one turn per typed line until the session ends
func (s *Session) interpret(ctx context.Context) error {
	for {
		line, err := s.readLine(ctx)
		if err != nil {
			return err
		}
		// The receiver may have died while we waited for this line
		if !s.state.Alive() {
			return s.receiverLost()
		}
		if line == "" {
			continue
		}

		s.turnOpen = true
		err = s.execute(ctx, line)
		s.turnOpen = false
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// readLine waits for the next trimmed console line while watching receiver
// liveness, the idle timeout and interrupts
func (s *Session) readLine(ctx context.Context) (string, error) {
	for {
		select {
		case <-ctx.Done():
			return "", errInterrupted
		case <-s.watchdog.Check():
			if !s.state.Alive() {
				return "", s.receiverLost()
			}
		case <-s.watchdog.Idle():
			s.report(levelError, "No input for too long, disconnecting")
			return "", &ExitError{Code: ExitTransportLost, Err: ErrIdleTimeout}
		case line, ok := <-s.console.Lines():
			if !ok {
				return "", errConsoleClosed
			}
			s.watchdog.Kick()
			return strings.TrimSpace(line), nil
		}
	}
}

func (s *Session) receiverLost() error {
	s.report(levelError, "Listener stopped, closing session")
	return &ExitError{Code: ExitTransportLost, Err: ErrReceiverDied}
}

// execute handles one non-empty line: a backslash command, or data to
// transmit. A doubled backslash sends the line with one backslash removed.
func (s *Session) execute(ctx context.Context, line string) error {
	if strings.HasPrefix(line, escapedPrefix) || !strings.HasPrefix(line, commandPrefix) {
		if strings.HasPrefix(line, escapedPrefix) {
			line = line[1:]
		}
		s.transmit(line)
		s.renderer.ForceBreak()
		return nil
	}

	s.stats.CommandsTyped.Inc()
	fields := strings.Fields(strings.TrimPrefix(line, commandPrefix))
	if len(fields) == 0 {
		s.report(levelError, "Missing command name after \\")
		s.renderer.ForceBreak()
		return nil
	}

	name, args := fields[0], fields[1:]
	cmd, ok := commandIndex[name]
	if !ok {
		s.report(levelError, fmt.Sprintf("Command \\%s does not exist!", name))
		s.renderer.ForceBreak()
		return nil
	}

	err := cmd.run(s, ctx, args)
	if !cmd.query {
		s.renderer.ForceBreak()
	}
	return err
}
