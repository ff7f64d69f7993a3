package main

import "github.com/charmbracelet/lipgloss"

type styles struct {
	pass    lipgloss.Style
	fail    lipgloss.Style
	heading lipgloss.Style
	muted   lipgloss.Style
	winner  lipgloss.Style
}

func newStyles() styles {
	return styles{
		pass:    lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true),
		fail:    lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		heading: lipgloss.NewStyle().Bold(true),
		muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		winner:  lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true),
	}
}
