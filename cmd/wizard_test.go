// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"testing"

	"github.com/Thermoquad/uartterm/pkg/config"
	tea "github.com/charmbracelet/bubbletea"
)

func press(t *testing.T, m wizardModel, msg tea.KeyMsg) wizardModel {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(wizardModel)
}

var enterKey = tea.KeyMsg{Type: tea.KeyEnter}

func typeText(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// ============================================================================
// Selection
// ============================================================================

func TestWizardAcceptsPreselectedSettings(t *testing.T) {
	cfg := config.Default().Serial
	cfg.Baud = 9600
	cfg.Parity = "even"

	m := newWizardModel(cfg, []string{"/dev/ttyUSB0", "/dev/ttyUSB1"})
	for i := 0; i < 5; i++ {
		m = press(t, m, enterKey)
	}

	if !m.done {
		t.Fatalf("wizard not done, at step %d", m.step)
	}
	want := config.SerialConfig{
		Port:        "/dev/ttyUSB0",
		Baud:        9600,
		DataBits:    8,
		StopBits:    "1",
		Parity:      "even",
		SearchRange: config.DefaultSearchRange,
	}
	if m.cfg != want {
		t.Errorf("cfg = %+v, want %+v", m.cfg, want)
	}
}

func TestWizardPreselectsConfiguredPort(t *testing.T) {
	cfg := config.Default().Serial
	cfg.Port = "/dev/ttyUSB1"

	m := newWizardModel(cfg, []string{"/dev/ttyUSB0", "/dev/ttyUSB1"})
	m = press(t, m, enterKey)

	if m.cfg.Port != "/dev/ttyUSB1" {
		t.Errorf("Port = %q, want /dev/ttyUSB1", m.cfg.Port)
	}
	if m.step != stepBaud {
		t.Errorf("step = %d, want %d", m.step, stepBaud)
	}
}

// ============================================================================
// Manual entry
// ============================================================================

func TestWizardManualEntry(t *testing.T) {
	m := newWizardModel(config.Default().Serial, nil)

	// With no ports the only device choice is manual entry
	m = press(t, m, enterKey)
	if !m.editing {
		t.Fatal("expected manual entry for the device")
	}
	m = press(t, m, typeText("ttyS3"))
	m = press(t, m, enterKey)
	if m.cfg.Port != "/dev/ttyS3" {
		t.Errorf("Port = %q, want /dev/ttyS3", m.cfg.Port)
	}

	m.list.Select(len(m.list.Items()) - 1)
	m = press(t, m, enterKey)
	m = press(t, m, typeText("abc"))
	m = press(t, m, enterKey)
	if m.err == "" || m.step != stepBaud {
		t.Fatalf("invalid baud accepted: step=%d err=%q", m.step, m.err)
	}

	m.input.SetValue("250000")
	m = press(t, m, enterKey)
	if m.cfg.Baud != 250000 {
		t.Errorf("Baud = %d, want 250000", m.cfg.Baud)
	}
	if m.step != stepDataBits {
		t.Errorf("step = %d, want %d", m.step, stepDataBits)
	}
}

// ============================================================================
// Cancel
// ============================================================================

func TestWizardEscape(t *testing.T) {
	m := newWizardModel(config.Default().Serial, nil)
	m = press(t, m, enterKey)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.editing || m.cancelled {
		t.Fatalf("esc while editing should leave manual entry: editing=%v cancelled=%v", m.editing, m.cancelled)
	}

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if !m.cancelled {
		t.Error("esc should cancel the wizard")
	}
	if m.View() != "" {
		t.Error("cancelled wizard should render nothing")
	}
}
