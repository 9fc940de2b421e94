package theme

import (
	"github.com/charmbracelet/lipgloss"
)

type Theme struct {
	Title      lipgloss.Style
	Address    lipgloss.Style
	Heading1   lipgloss.Style
	Heading2   lipgloss.Style
	Heading3   lipgloss.Style
	Link       lipgloss.Style
	ActiveLine lipgloss.Style
	Bullet     lipgloss.Style
	Quote      lipgloss.Style
	Preformat  lipgloss.Style
	MetaLabel  lipgloss.Style
	MetaValue  lipgloss.Style
	StateIdle  lipgloss.Style
	StateWarn  lipgloss.Style
	StateLoad  lipgloss.Style
}

func Default() Theme {
	cpMauve := lipgloss.Color("#cba6f7")
	cpRed := lipgloss.Color("#f38ba8")
	cpPeach := lipgloss.Color("#fab387")
	cpYellow := lipgloss.Color("#f9e2af")
	cpGreen := lipgloss.Color("#a6e3a1")
	cpTeal := lipgloss.Color("#94e2d5")
	cpSky := lipgloss.Color("#89dceb")
	cpLavender := lipgloss.Color("#b4befe")
	cpText := lipgloss.Color("#cdd6f4")
	cpSubtext0 := lipgloss.Color("#a6adc8")
	cpSubtext1 := lipgloss.Color("#bac2de")
	cpOverlay1 := lipgloss.Color("#7f849c")
	cpSurface0 := lipgloss.Color("#313244")

	return Theme{
		Title:      lipgloss.NewStyle().Bold(true).Foreground(cpMauve),
		Address:    lipgloss.NewStyle().Foreground(cpLavender).Background(cpSurface0).Padding(0, 1),
		Heading1:   lipgloss.NewStyle().Bold(true).Foreground(cpMauve),
		Heading2:   lipgloss.NewStyle().Bold(true).Foreground(cpTeal),
		Heading3:   lipgloss.NewStyle().Bold(true).Foreground(cpSky),
		Link:       lipgloss.NewStyle().Foreground(cpLavender),
		ActiveLine: lipgloss.NewStyle().Background(cpSurface0).Foreground(cpText),
		Bullet:     lipgloss.NewStyle().Foreground(cpYellow),
		Quote:      lipgloss.NewStyle().Italic(true).Foreground(cpSubtext0),
		Preformat:  lipgloss.NewStyle().Foreground(cpSubtext1),
		MetaLabel:  lipgloss.NewStyle().Foreground(cpOverlay1),
		MetaValue:  lipgloss.NewStyle().Foreground(cpSubtext1),
		StateIdle:  lipgloss.NewStyle().Foreground(cpGreen),
		StateWarn:  lipgloss.NewStyle().Foreground(cpRed),
		StateLoad:  lipgloss.NewStyle().Foreground(cpPeach),
	}
}

func (t Theme) Heading(level int) lipgloss.Style {
	switch level {
	case 1:
		return t.Heading1
	case 2:
		return t.Heading2
	default:
		return t.Heading3
	}
}

func (t Theme) RenderActiveLine(active bool, line string) string {
	if !active {
		return line
	}
	return t.ActiveLine.Render(line)
}
