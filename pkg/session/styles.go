// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package session

import (
	"time"

	"github.com/charmbracelet/lipgloss"
)

const timestampLayout = "2006-01-02 15:04:05.000000"

var (
	infoStyle    = lipgloss.NewStyle().Faint(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	timeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
	gotStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	sendStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)

// level selects the style and log level of a session message
type level int

const (
	levelPlain level = iota
	levelInfo
	levelSuccess
	levelWarn
	levelError
)

func (l level) render(s string) string {
	switch l {
	case levelInfo:
		return infoStyle.Render(s)
	case levelSuccess:
		return successStyle.Render(s)
	case levelWarn:
		return warnStyle.Render(s)
	case levelError:
		return errorStyle.Render(s)
	default:
		return s
	}
}

func formatTimestamp(now time.Time) string {
	return timeStyle.Render(now.Format(timestampLayout) + ":")
}
