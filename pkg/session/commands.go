// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package session

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Thermoquad/uartterm/pkg/codec"
	"github.com/dustin/go-humanize"
)

// MaxRandomBytes bounds a single \rand request
const MaxRandomBytes = 1 << 20

// maxEchoBytes is the largest random payload echoed byte by byte
const maxEchoBytes = 64

// command is one backslash command of the interpreter
type command struct {
	names []string
	args  string
	help  string
	// query commands only display state and leave the receive line alone
	query bool
	run   func(s *Session, ctx context.Context, args []string) error
}

var (
	commands     []*command
	commandIndex map[string]*command
)

func init() {
	commands = []*command{
		{names: []string{"quit", "exit", "q"}, help: "End the session", run: cmdQuit},
		{names: []string{"help"}, help: "Show this help", query: true, run: cmdHelp},
		{names: []string{"license"}, help: "Show license information", query: true, run: cmdLicense},
		{names: []string{"char", "c"}, help: "Display received bytes as characters", run: modeCommand(codec.ModeChar)},
		{names: []string{"hex", "h"}, help: "Display received bytes as hexadecimal numbers", run: modeCommand(codec.ModeHex)},
		{names: []string{"dec"}, help: "Display received bytes as decimal numbers", run: modeCommand(codec.ModeDec)},
		{names: []string{"bin"}, help: "Display received bytes as binary numbers", run: modeCommand(codec.ModeBin)},
		{names: []string{"dechex"}, help: "Display decimal numbers with their hexadecimal value", run: modeCommand(codec.ModeDecHex)},
		{names: []string{"binhex"}, help: "Display binary numbers with their hexadecimal value", run: modeCommand(codec.ModeBinHex)},
		{names: []string{"safe"}, help: "Discard the rest of a line after an invalid number", run: cmdSafe},
		{names: []string{"unsafe"}, help: "Skip invalid numbers and send the rest of the line", run: cmdUnsafe},
		{names: []string{"mute"}, help: "Stop displaying received bytes", run: cmdMute},
		{names: []string{"unmute"}, help: "Display received bytes again", run: cmdUnmute},
		{names: []string{"dump"}, args: "[file]", help: "Append received bytes to a file (default " + DefaultDumpFile + ")", run: cmdDump},
		{names: []string{"nodump"}, help: "Stop dumping received bytes", run: cmdNoDump},
		{names: []string{"send", "s"}, args: "[files...]", help: "Send the contents of files", run: cmdSend},
		{names: []string{"rand", "r"}, args: "[count]", help: "Send random bytes", run: cmdRand},
		{names: []string{"getpath", "getdir"}, help: "Show the working directory", query: true, run: cmdGetPath},
		{names: []string{"setpath", "setdir"}, args: "[path]", help: "Change the working directory (empty for the start directory)", run: cmdSetPath},
		{names: []string{"pref"}, args: "[hex bytes...]", help: "Set or clear bytes sent before every line", run: cmdPrefix},
		{names: []string{"suff"}, args: "[hex bytes...]", help: "Set or clear bytes sent after every line", run: cmdSuffix},
		{names: []string{"crc"}, args: "[off|" + strings.Join(codec.ChecksumNames(), "|") + "]", help: "Append a CRC-16 after every line", run: cmdChecksum},
		{names: []string{"keeplog"}, help: "Keep the session log after exit", run: cmdKeepLog},
		{names: []string{"stats"}, help: "Show traffic statistics", query: true, run: cmdStats},
		{names: []string{"@"}, help: "Show the connected device", query: true, run: cmdDevice},
	}

	commandIndex = make(map[string]*command)
	for _, cmd := range commands {
		for _, name := range cmd.names {
			commandIndex[name] = cmd
		}
	}
}

func cmdQuit(s *Session, ctx context.Context, args []string) error {
	return errQuit
}

func modeCommand(m codec.Mode) func(*Session, context.Context, []string) error {
	return func(s *Session, ctx context.Context, args []string) error {
		s.state.SetMode(m)
		s.report(levelInfo, fmt.Sprintf("Received bytes will be printed as %s", m))
		return nil
	}
}

func cmdSafe(s *Session, ctx context.Context, args []string) error {
	s.state.safe.Store(true)
	s.report(levelInfo, "Safe transmit enabled: the rest of a line is discarded at its first invalid number")
	return nil
}

func cmdUnsafe(s *Session, ctx context.Context, args []string) error {
	s.state.safe.Store(false)
	s.report(levelInfo, "Safe transmit disabled: invalid numbers are skipped")
	return nil
}

func cmdMute(s *Session, ctx context.Context, args []string) error {
	s.state.mute.Store(true)
	if s.state.DumpPath() == "" {
		s.report(levelWarn, "Received bytes are neither displayed nor dumped")
		return nil
	}
	s.report(levelInfo, "Received bytes will not be displayed")
	return nil
}

func cmdUnmute(s *Session, ctx context.Context, args []string) error {
	s.state.mute.Store(false)
	s.report(levelInfo, "Received bytes will be displayed")
	return nil
}

func cmdDump(s *Session, ctx context.Context, args []string) error {
	name := s.opts.DefaultDump
	if len(args) > 0 {
		name = args[0]
	}
	if len(args) > 1 {
		s.report(levelWarn, "Only one dump file can be used, ignoring "+strings.Join(args[1:], " "))
	}

	path := s.resolvePath(name)
	f, err := openDump(path)
	if err != nil {
		s.report(levelError, fmt.Sprintf("Cannot open file %s!", path))
		return nil
	}
	_ = f.Close()

	s.state.dump.Store(name)
	s.report(levelSuccess, "Dumping received bytes to "+path)
	return nil
}

func cmdNoDump(s *Session, ctx context.Context, args []string) error {
	if s.state.dump.Swap("") == "" {
		s.report(levelWarn, "Received bytes are not being dumped")
		return nil
	}
	if s.state.Muted() {
		s.report(levelWarn, "Dump stopped; received bytes are now discarded while muted")
		return nil
	}
	s.report(levelInfo, "Dump stopped")
	return nil
}

func cmdSend(s *Session, ctx context.Context, args []string) error {
	if len(args) == 0 {
		s.report(levelPlain, "File name(s):")
		line, err := s.readLine(ctx)
		if err != nil {
			return err
		}
		args = strings.Fields(line)
		if len(args) == 0 {
			s.report(levelWarn, "No file given")
			return nil
		}
	}

	for _, name := range args {
		path := s.resolvePath(name)
		data, err := os.ReadFile(path)
		if err != nil {
			s.report(levelError, fmt.Sprintf("Cannot open file %s!", path))
			if s.state.Safe() {
				return nil
			}
			continue
		}
		n, err := s.transport.Write(data)
		s.stats.TxBytes.Add(uint64(n))
		if err != nil {
			s.stats.WriteErrors.Inc()
			s.report(levelError, fmt.Sprintf("Failed to send %s after %s: %v", path, humanize.Bytes(uint64(n)), err))
			continue
		}
		s.stats.FilesSent.Inc()
		s.report(levelSuccess, fmt.Sprintf("Sent %s (%s)", path, humanize.Bytes(uint64(len(data)))))
	}
	return nil
}

func cmdRand(s *Session, ctx context.Context, args []string) error {
	count := 1
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			s.report(levelError, fmt.Sprintf("%s is not a valid count!", args[0]))
			return nil
		}
		if n > MaxRandomBytes {
			s.report(levelError, fmt.Sprintf("Cannot send more than %s random bytes at once", humanize.Comma(MaxRandomBytes)))
			return nil
		}
		count = n
	}

	src := s.opts.Rand
	if src == nil {
		src = rand.Reader
	}
	buf := make([]byte, count)
	if _, err := io.ReadFull(src, buf); err != nil {
		s.report(levelError, fmt.Sprintf("Failed to generate random bytes: %v", err))
		return nil
	}
	mask := byte(0xFF >> (codec.MaxDataBits - s.encoder.DataBits()))
	for i := range buf {
		buf[i] &= mask
	}

	s.writeBytes(buf)
	if count <= maxEchoBytes {
		s.report(levelPlain, sendStyle.Render("Send:")+" "+codec.FormatHexBytes(buf))
	} else {
		s.report(levelPlain, sendStyle.Render("Send:")+" "+humanize.Comma(int64(count))+" random bytes")
	}
	return nil
}

func cmdGetPath(s *Session, ctx context.Context, args []string) error {
	s.report(levelInfo, s.state.WorkDir())
	return nil
}

func cmdSetPath(s *Session, ctx context.Context, args []string) error {
	path, err := expandPath(strings.Join(args, " "))
	if err != nil {
		s.report(levelError, err.Error())
		return nil
	}
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		s.report(levelError, fmt.Sprintf("%s is not a valid directory!", path))
		return nil
	}
	s.state.workDir.Store(path)
	s.report(levelSuccess, "Working directory is now "+path)
	return nil
}

func cmdPrefix(s *Session, ctx context.Context, args []string) error {
	return s.setFraming("Prefix", args, func(f *Framing, b []byte) { f.Prefix = b })
}

func cmdSuffix(s *Session, ctx context.Context, args []string) error {
	return s.setFraming("Suffix", args, func(f *Framing, b []byte) { f.Suffix = b })
}

func (s *Session) setFraming(what string, args []string, set func(f *Framing, b []byte)) error {
	data, err := codec.ParseHexBytes(args)
	if err != nil {
		s.report(levelError, fmt.Sprintf("%s not changed: %v", what, err))
		return nil
	}
	s.state.updateFraming(func(f *Framing) { set(f, data) })
	if len(data) == 0 {
		s.report(levelInfo, what+" cleared")
		return nil
	}
	s.report(levelSuccess, fmt.Sprintf("%s set to %s", what, codec.FormatHexBytes(data)))
	return nil
}

func cmdChecksum(s *Session, ctx context.Context, args []string) error {
	if len(args) == 0 {
		if sum := s.state.Framing().Checksum; sum != nil {
			s.report(levelInfo, "CRC: "+sum.Name)
		} else {
			s.report(levelInfo, "CRC: off")
		}
		return nil
	}
	if strings.EqualFold(args[0], "off") {
		s.state.updateFraming(func(f *Framing) { f.Checksum = nil })
		s.report(levelInfo, "CRC disabled")
		return nil
	}
	sum, err := codec.LookupChecksum(args[0])
	if err != nil {
		s.report(levelError, err.Error())
		return nil
	}
	s.state.updateFraming(func(f *Framing) { f.Checksum = sum })
	s.report(levelSuccess, "CRC set to "+sum.Name)
	return nil
}

func cmdKeepLog(s *Session, ctx context.Context, args []string) error {
	if s.logPath() == "" {
		s.report(levelWarn, "Logging is disabled")
		return nil
	}
	s.log.Keep()
	s.report(levelSuccess, "Log will be kept at "+s.log.Path())
	return nil
}

func cmdStats(s *Session, ctx context.Context, args []string) error {
	s.report(levelPlain, s.stats.Summary(s.opts.Now()))
	return nil
}

func cmdDevice(s *Session, ctx context.Context, args []string) error {
	s.report(levelInfo, s.opts.Device)
	return nil
}

// resolvePath resolves a file name against the working directory
func (s *Session) resolvePath(name string) string {
	return s.state.resolve(name)
}

// expandPath resolves a \setpath argument. Relative paths resolve against
// the process working directory, an empty path selects it.
func expandPath(path string) (string, error) {
	path, err := expandHome(path)
	if err != nil {
		return "", err
	}
	if filepath.IsAbs(path) {
		return filepath.Clean(path), nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	return filepath.Join(cwd, path), nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.New("cannot expand ~: home directory is unknown")
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
