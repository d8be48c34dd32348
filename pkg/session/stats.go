// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/atomic"
)

// Statistics tracks traffic counters for the session
type Statistics struct {
	StartTime time.Time

	// Counters
	RxBytes       atomic.Uint64
	TxBytes       atomic.Uint64
	InvalidRx     atomic.Uint64 // bytes rendered as [0xNN]
	TokenErrors   atomic.Uint64
	WriteErrors   atomic.Uint64
	FilesSent     atomic.Uint64
	DumpedBytes   atomic.Uint64
	DumpErrors    atomic.Uint64
	CommandsTyped atomic.Uint64
}

// NewStatistics creates a new statistics tracker
func NewStatistics(now time.Time) *Statistics {
	return &Statistics{StartTime: now}
}

// Rates returns the receive and transmit rates in bytes/sec
func (s *Statistics) Rates(now time.Time) (rx, tx float64) {
	elapsed := now.Sub(s.StartTime).Seconds()
	if elapsed <= 0 {
		return 0, 0
	}
	return float64(s.RxBytes.Load()) / elapsed, float64(s.TxBytes.Load()) / elapsed
}

// Summary returns a formatted statistics summary
func (s *Statistics) Summary(now time.Time) string {
	rxRate, txRate := s.Rates(now)
	elapsed := now.Sub(s.StartTime).Round(time.Second)

	var b strings.Builder
	fmt.Fprintf(&b, "=== Statistics (%s, since %s) ===\n", elapsed, humanize.RelTime(s.StartTime, now, "ago", "from now"))
	fmt.Fprintf(&b, "Received:        %10s (%s/s)\n", humanize.Bytes(s.RxBytes.Load()), humanize.Bytes(uint64(rxRate)))
	fmt.Fprintf(&b, "Sent:            %10s (%s/s)\n", humanize.Bytes(s.TxBytes.Load()), humanize.Bytes(uint64(txRate)))

	if n := s.InvalidRx.Load(); n > 0 {
		fmt.Fprintf(&b, "Invalid Rx Bytes:%10s\n", humanize.Comma(int64(n)))
	}
	if n := s.TokenErrors.Load(); n > 0 {
		fmt.Fprintf(&b, "Token Errors:    %10s\n", humanize.Comma(int64(n)))
	}
	if n := s.WriteErrors.Load(); n > 0 {
		fmt.Fprintf(&b, "Write Errors:    %10s\n", humanize.Comma(int64(n)))
	}
	if n := s.FilesSent.Load(); n > 0 {
		fmt.Fprintf(&b, "Files Sent:      %10s\n", humanize.Comma(int64(n)))
	}
	if n := s.DumpedBytes.Load(); n > 0 {
		fmt.Fprintf(&b, "Dumped:          %10s\n", humanize.Bytes(n))
	}
	if n := s.DumpErrors.Load(); n > 0 {
		fmt.Fprintf(&b, "Dump Errors:     %10s\n", humanize.Comma(int64(n)))
	}
	fmt.Fprintf(&b, "Commands:        %10s\n", humanize.Comma(int64(s.CommandsTyped.Load())))
	b.WriteString("================================")
	return b.String()
}
