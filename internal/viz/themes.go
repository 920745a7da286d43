package viz

import "github.com/charmbracelet/lipgloss"

// Theme colors the panel chrome. The canvas always shows the ink colors.
type Theme struct {
	Name    string
	Primary lipgloss.Color
	Accent  lipgloss.Color
	Muted   lipgloss.Color
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
}

var (
	ThemeWashi = Theme{
		Name:    "washi",
		Primary: lipgloss.Color("#f5efe6"),
		Accent:  lipgloss.Color("#4d66b3"), // accent ink
		Muted:   lipgloss.Color("#8a8178"),
		Success: lipgloss.Color("#7fb069"),
		Warning: lipgloss.Color("#e0a458"),
		Error:   lipgloss.Color("#c0392b"),
	}

	ThemeSumi = Theme{
		Name:    "sumi",
		Primary: lipgloss.Color("#d0d0d0"),
		Accent:  lipgloss.Color("#ffffff"),
		Muted:   lipgloss.Color("#5c5c5c"),
		Success: lipgloss.Color("#a0a0a0"),
		Warning: lipgloss.Color("#e0e0e0"),
		Error:   lipgloss.Color("#ff5555"),
	}

	ThemeIndigo = Theme{
		Name:    "indigo",
		Primary: lipgloss.Color("#9fb4ff"),
		Accent:  lipgloss.Color("#ffd166"),
		Muted:   lipgloss.Color("#4a5a8c"),
		Success: lipgloss.Color("#06d6a0"),
		Warning: lipgloss.Color("#ffd166"),
		Error:   lipgloss.Color("#ef476f"),
	}

	ThemeSepia = Theme{
		Name:    "sepia",
		Primary: lipgloss.Color("#e8c39e"),
		Accent:  lipgloss.Color("#c97b3a"),
		Muted:   lipgloss.Color("#7a5c3e"),
		Success: lipgloss.Color("#a3b18a"),
		Warning: lipgloss.Color("#ddb892"),
		Error:   lipgloss.Color("#bc4749"),
	}

	// Default theme
	CurrentTheme = ThemeWashi

	Themes = []Theme{
		ThemeWashi,
		ThemeSumi,
		ThemeIndigo,
		ThemeSepia,
	}
)

// GetTheme returns a theme by name, or the default.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeWashi
}

func SetTheme(name string) {
	CurrentTheme = GetTheme(name)
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

// NextTheme switches to the theme after the current one.
func NextTheme() {
	names := ThemeNames()
	for i, name := range names {
		if name == CurrentTheme.Name {
			SetTheme(names[(i+1)%len(names)])
			return
		}
	}
}
