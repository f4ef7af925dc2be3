package main

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/mkalabin/calib-keeper/models"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	syncedBadge  = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Render("synced")
	pendingBadge = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Render("pending")

	passStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

func syncBadge(synced bool) string {
	if synced {
		return syncedBadge
	}
	return pendingBadge
}

func verdict(overall string) string {
	switch overall {
	case models.ResultPass:
		return passStyle.Render(overall)
	case models.ResultFail:
		return failStyle.Render(overall)
	default:
		return labelStyle.Render(overall)
	}
}
