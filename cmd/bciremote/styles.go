package main

import "github.com/charmbracelet/lipgloss"

// Output styles. lipgloss drops the colors when stdout is not a terminal,
// so piped output stays plain.
var (
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	infoStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	titleStyle = lipgloss.NewStyle().Bold(true).Underline(true)
)
