package main

import "github.com/charmbracelet/lipgloss"

var (
	styleTitle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#8BC34A"))
	styleDim   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6b7280"))
	styleWarn  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFC107"))
	styleBad   = lipgloss.NewStyle().Foreground(lipgloss.Color("#e53935"))
	styleGood  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8BC34A"))
	styleBar   = lipgloss.NewStyle().Background(lipgloss.Color("#1e2a3d")).Foreground(lipgloss.Color("#f2f2f2")).Padding(0, 1)
)
