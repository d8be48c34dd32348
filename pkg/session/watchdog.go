// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package session

import (
	"sync"
	"time"
)

// Watchdog wakes the interpreter periodically to check receiver liveness
// and ends the session after a long period without typed input.
type Watchdog struct {
	ticker *time.Ticker

	mu      sync.Mutex
	idle    *time.Timer
	timeout time.Duration
	expired chan struct{}
}

// NewWatchdog starts a watchdog. The idle timer is armed by the first Kick,
// so it only runs once a line has been read. A zero idle timeout disables
// the idle check.
func NewWatchdog(check, idle time.Duration) *Watchdog {
	return &Watchdog{
		ticker:  time.NewTicker(check),
		timeout: idle,
		expired: make(chan struct{}, 1),
	}
}

func (w *Watchdog) fire() {
	select {
	case w.expired <- struct{}{}:
	default:
	}
}

// Check fires once per liveness interval
func (w *Watchdog) Check() <-chan time.Time {
	return w.ticker.C
}

// Idle fires when no input arrived within the idle timeout
func (w *Watchdog) Idle() <-chan struct{} {
	return w.expired
}

// Kick arms or restarts the idle timer
func (w *Watchdog) Kick() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timeout <= 0 {
		return
	}
	if w.idle == nil {
		w.idle = time.AfterFunc(w.timeout, w.fire)
		return
	}
	w.idle.Stop()
	// Drop an expiry that raced with this input
	select {
	case <-w.expired:
	default:
	}
	w.idle.Reset(w.timeout)
}

// Stop releases the watchdog timers
func (w *Watchdog) Stop() {
	w.ticker.Stop()
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.idle != nil {
		w.idle.Stop()
	}
}
