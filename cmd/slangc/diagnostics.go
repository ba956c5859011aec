package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/crtweb/slangcore/scheduler"
)

var (
	diagBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("203")).
			Padding(0, 1)

	diagTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203"))

	okBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("42")).
			Padding(0, 1)
)

// renderDiagnostics formats every demoted pass's compile/link failure as a
// single bordered box, per-pass lines inside, instead of raw log lines —
// the CLI's human-facing summary of a Prepare call's graceful-degradation
// fallout.
func renderDiagnostics(presetPath string, diags []scheduler.PassDiagnostic) string {
	if len(diags) == 0 {
		return okBoxStyle.Render(fmt.Sprintf("%s\nall passes compiled and linked cleanly", presetPath))
	}

	var b strings.Builder
	b.WriteString(diagTitleStyle.Render(fmt.Sprintf("%s: %d pass(es) demoted to identity passthrough", presetPath, len(diags))))
	for _, d := range diags {
		b.WriteString("\n")
		b.WriteString(scheduler.FormatPassDiagnostic(d))
	}
	return diagBoxStyle.Render(b.String())
}
