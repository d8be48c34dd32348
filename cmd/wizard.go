// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Thermoquad/uartterm/pkg/config"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.bug.st/serial/enumerator"
)

//////////////////////////////////////////////////////////////
// Steps
//////////////////////////////////////////////////////////////

type wizardStep int

const (
	stepDevice wizardStep = iota
	stepBaud
	stepDataBits
	stepParity
	stepStopBits
	stepDone
)

var stepTitles = map[wizardStep]string{
	stepDevice:   "Device",
	stepBaud:     "Baud rate",
	stepDataBits: "Data bits",
	stepParity:   "Parity",
	stepStopBits: "Stop bits",
}

var commonBauds = []int{9600, 19200, 38400, 57600, 115200, 230400, 460800, 921600}

// choice is a list entry. An empty value asks for manual entry.
type choice struct {
	label string
	value string
}

func (c choice) Title() string       { return c.label }
func (c choice) Description() string { return "" }
func (c choice) FilterValue() string { return c.label }

var otherChoice = choice{label: "Other..."}

//////////////////////////////////////////////////////////////
// Model
//////////////////////////////////////////////////////////////

// wizardModel walks through the serial line settings one step at a time
type wizardModel struct {
	cfg   config.SerialConfig
	ports []string

	step    wizardStep
	list    list.Model
	input   textinput.Model
	editing bool
	err     string

	done      bool
	cancelled bool
}

func newWizardModel(cfg config.SerialConfig, ports []string) wizardModel {
	ti := textinput.New()
	ti.CharLimit = 64
	ti.Width = 30

	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = false
	delegate.SetHeight(1)
	delegate.SetSpacing(0)
	l := list.New([]list.Item{}, delegate, 40, 14)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)

	m := wizardModel{
		cfg:   cfg,
		ports: ports,
		list:  l,
		input: ti,
	}
	m.loadStep(stepDevice)
	return m
}

// loadStep fills the list with the choices for step and selects the
// currently configured value
func (m *wizardModel) loadStep(step wizardStep) {
	m.step = step
	m.editing = false
	m.err = ""
	m.input.Blur()
	m.input.SetValue("")

	var items []list.Item
	current := ""
	manual := true
	switch step {
	case stepDevice:
		for _, p := range m.ports {
			items = append(items, choice{label: p, value: p})
		}
		current = m.cfg.Port
		m.input.Placeholder = "/dev/ttyUSB0"
	case stepBaud:
		for _, b := range commonBauds {
			items = append(items, choice{label: strconv.Itoa(b), value: strconv.Itoa(b)})
		}
		current = strconv.Itoa(m.cfg.Baud)
		m.input.Placeholder = "250000"
	case stepDataBits:
		for _, b := range []string{"8", "7", "6", "5"} {
			items = append(items, choice{label: b, value: b})
		}
		current = strconv.Itoa(m.cfg.DataBits)
		manual = false
	case stepParity:
		for _, p := range []string{"none", "odd", "even", "mark", "space"} {
			items = append(items, choice{label: p, value: p})
		}
		current = m.cfg.Parity
		manual = false
	case stepStopBits:
		for _, s := range []string{"1", "1.5", "2"} {
			items = append(items, choice{label: s, value: s})
		}
		current = m.cfg.StopBits
		manual = false
	}
	if manual {
		items = append(items, otherChoice)
	}

	m.list.Title = stepTitles[step]
	m.list.SetItems(items)
	m.list.Select(0)
	for i, item := range items {
		if item.(choice).value == current && current != "" {
			m.list.Select(i)
			break
		}
	}
}

// apply stores value for the current step and moves to the next one
func (m *wizardModel) apply(value string) error {
	value = strings.TrimSpace(value)
	switch m.step {
	case stepDevice:
		if value == "" {
			return fmt.Errorf("enter a device path")
		}
		if strings.HasPrefix(value, "tty") {
			value = "/dev/" + value
		}
		m.cfg.Port = value
	case stepBaud:
		baud, err := strconv.Atoi(value)
		if err != nil || baud <= 0 {
			return fmt.Errorf("%s is not a valid baud rate", value)
		}
		m.cfg.Baud = baud
	case stepDataBits:
		bits, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		m.cfg.DataBits = bits
	case stepParity:
		m.cfg.Parity = value
	case stepStopBits:
		m.cfg.StopBits = value
	}

	next := m.step + 1
	if next == stepDone {
		m.step = stepDone
		m.done = true
		return nil
	}
	m.loadStep(next)
	return nil
}

//////////////////////////////////////////////////////////////
// Bubble Tea Interface
//////////////////////////////////////////////////////////////

func (m wizardModel) Init() tea.Cmd {
	return nil
}

func (m wizardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		height := msg.Height - 6
		if height > 14 {
			height = 14
		}
		m.list.SetSize(msg.Width, height)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.cancelled = true
			return m, tea.Quit
		case "esc":
			if m.editing {
				m.editing = false
				m.err = ""
				m.input.Blur()
				return m, nil
			}
			m.cancelled = true
			return m, tea.Quit
		case "enter":
			return m.handleEnter()
		}
	}

	var cmd tea.Cmd
	if m.editing {
		m.input, cmd = m.input.Update(msg)
	} else {
		m.list, cmd = m.list.Update(msg)
	}
	return m, cmd
}

func (m wizardModel) handleEnter() (tea.Model, tea.Cmd) {
	value := ""
	if m.editing {
		value = m.input.Value()
	} else {
		selected, ok := m.list.SelectedItem().(choice)
		if !ok {
			return m, nil
		}
		if selected.value == "" {
			m.editing = true
			m.err = ""
			return m, m.input.Focus()
		}
		value = selected.value
	}

	if err := m.apply(value); err != nil {
		m.err = err.Error()
		return m, nil
	}
	if m.done {
		return m, tea.Quit
	}
	return m, nil
}

func (m wizardModel) View() string {
	if m.done || m.cancelled {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("uartterm connection setup"))
	b.WriteString("\n\n")
	if m.editing {
		b.WriteString(m.list.Title + ": ")
		b.WriteString(m.input.View())
		b.WriteString("\n")
	} else {
		b.WriteString(m.list.View())
		b.WriteString("\n")
	}
	if m.err != "" {
		b.WriteString(errorStyle.Render(m.err))
		b.WriteString("\n")
	}
	b.WriteString(infoStyle.Render("enter: select  esc: back/cancel  ctrl+c: cancel"))
	return b.String()
}

// runWizard asks for the line settings, starting from cfg. It reports false
// when the user cancelled.
func runWizard(cfg config.SerialConfig) (config.SerialConfig, bool, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		fmt.Println(warnStyle.Render(fmt.Sprintf("Cannot list ports: %v", err)))
	}
	names := make([]string, 0, len(ports))
	for _, p := range ports {
		names = append(names, p.Name)
	}

	final, err := tea.NewProgram(newWizardModel(cfg, names)).Run()
	if err != nil {
		return cfg, false, fmt.Errorf("wizard failed: %w", err)
	}
	m := final.(wizardModel)
	if !m.done {
		return cfg, false, nil
	}
	return m.cfg, true, nil
}
