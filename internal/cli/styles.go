package cli

import (
	"github.com/charmbracelet/lipgloss"
)

// printStyles holds the styles used for console output
type printStyles struct {
	header  lipgloss.Style
	label   lipgloss.Style
	dim     lipgloss.Style
	ok      lipgloss.Style
	warn    lipgloss.Style
	alert   lipgloss.Style
	section lipgloss.Style
}

func newPrintStyles() printStyles {
	return printStyles{
		header:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		label:   lipgloss.NewStyle().Bold(true),
		dim:     lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		ok:      lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		warn:    lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		alert:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		section: lipgloss.NewStyle().Underline(true),
	}
}

// severity colors a band by its rank relative to the worst band on the
// same axis.
func (s printStyles) severity(rank, worst int) lipgloss.Style {
	switch {
	case worst <= 0 || rank <= 0:
		return s.ok
	case rank >= worst:
		return s.alert
	default:
		return s.warn
	}
}
