// Package tui holds the terminal UI entry points.
package tui

import (
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/grovetools/areatrip/logging"
	"github.com/muesli/termenv"
)

// InitializeTUI forces a truecolor profile when CLICOLOR_FORCE=1 or
// COLORTERM=truecolor, so output stays styled when stdout is not a terminal.
func InitializeTUI() {
	if os.Getenv("CLICOLOR_FORCE") == "1" || os.Getenv("COLORTERM") == "truecolor" {
		lipgloss.SetColorProfile(termenv.TrueColor)
	}
}

// Run runs a program with structured logs held back until it exits, since
// writes to stderr would tear the alternate screen.
func Run(model tea.Model, opts ...tea.ProgramOption) (tea.Model, error) {
	InitializeTUI()

	release := logging.HoldGlobalOutput()
	defer release()

	return tea.NewProgram(model, opts...).Run()
}
