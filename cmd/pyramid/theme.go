package main

import (
	"github.com/charmbracelet/lipgloss"

	"pyramid/internal/history"
	"pyramid/internal/transcript"
)

type uiTheme struct {
	root        lipgloss.Style
	header      lipgloss.Style
	banner      lipgloss.Style
	agentTag    lipgloss.Style
	panel       lipgloss.Style
	panelTitle  lipgloss.Style
	footer      lipgloss.Style
	status      lipgloss.Style
	errorStatus lipgloss.Style
	inputPanel  lipgloss.Style
	helpText    lipgloss.Style
	pick        lipgloss.Style
	accent      lipgloss.Style
	modal       lipgloss.Style
	errorModal  lipgloss.Style
	line        map[transcript.LineKind]lipgloss.Style
	history     history.Styles
	canvas      lipgloss.Color
}

func newTheme() uiTheme {
	pink := lipgloss.Color("#ff71ce")
	blue := lipgloss.Color("#01cdfe")
	mint := lipgloss.Color("#05ffa1")
	gold := lipgloss.Color("#ffd166")
	bg := lipgloss.Color("#120924")
	panelBg := lipgloss.Color("#1b0f35")
	text := lipgloss.Color("#f3f3ff")
	muted := lipgloss.Color("#9ca3d8")

	return uiTheme{
		root: lipgloss.NewStyle().
			Background(bg).
			Foreground(text).
			Padding(0, 1),
		header: lipgloss.NewStyle().
			Background(panelBg).
			Foreground(text).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(blue).
			Padding(0, 1),
		banner: lipgloss.NewStyle().
			Foreground(gold).
			Bold(true).
			Padding(0, 1),
		agentTag: lipgloss.NewStyle().
			Background(lipgloss.Color("#2a184a")).
			Foreground(muted).
			Padding(0, 1),
		panel: lipgloss.NewStyle().
			Background(panelBg).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(blue).
			Padding(0, 1),
		panelTitle: lipgloss.NewStyle().
			Foreground(mint).
			Bold(true),
		footer: lipgloss.NewStyle().
			Background(panelBg).
			Foreground(muted).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(pink).
			Padding(0, 1),
		status:      lipgloss.NewStyle().Foreground(blue).Bold(true),
		errorStatus: lipgloss.NewStyle().Foreground(pink).Bold(true),
		inputPanel: lipgloss.NewStyle().
			Background(panelBg).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(mint).
			Padding(0, 1),
		helpText: lipgloss.NewStyle().Foreground(muted),
		pick:     lipgloss.NewStyle().Foreground(pink).Bold(true),
		accent:   lipgloss.NewStyle().Foreground(mint).Bold(true),
		modal: lipgloss.NewStyle().
			Background(panelBg).
			BorderStyle(lipgloss.ThickBorder()).
			BorderForeground(blue).
			Padding(1, 2),
		errorModal: lipgloss.NewStyle().
			Background(panelBg).
			BorderStyle(lipgloss.ThickBorder()).
			BorderForeground(pink).
			Padding(1, 2),
		line: map[transcript.LineKind]lipgloss.Style{
			transcript.LinePlain:     lipgloss.NewStyle().Foreground(text),
			transcript.LineUser:      lipgloss.NewStyle().Foreground(mint).Bold(true),
			transcript.LineSeparator: lipgloss.NewStyle().Foreground(blue).Bold(true),
			transcript.LineError:     lipgloss.NewStyle().Foreground(pink).Bold(true),
		},
		history: history.Styles{
			Border: lipgloss.NewStyle().Foreground(muted),
			Header: lipgloss.NewStyle().Foreground(mint).Bold(true).Padding(0, 1),
			Cell:   lipgloss.NewStyle().Padding(0, 1),
		},
		canvas: bg,
	}
}
