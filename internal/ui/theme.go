package ui

import (
	"github.com/gdamore/tcell/v2"

	"pricewatch/internal/config"
)

// Theme is the colour set applied to the dashboard
type Theme struct {
	Background tcell.Color
	Text       tcell.Color
	Accent     tcell.Color
	Muted      tcell.Color
	Error      tcell.Color
}

var themes = map[string]Theme{
	config.ThemeLight: {
		Background: tcell.ColorWhite,
		Text:       tcell.ColorBlack,
		Accent:     tcell.ColorNavy,
		Muted:      tcell.ColorGray,
		Error:      tcell.ColorMaroon,
	},
	config.ThemeDark: {
		Background: tcell.ColorBlack,
		Text:       tcell.ColorWhite,
		Accent:     tcell.ColorGreen,
		Muted:      tcell.ColorGray,
		Error:      tcell.ColorRed,
	},
	config.ThemeNord: {
		Background: tcell.NewHexColor(0x2E3440),
		Text:       tcell.NewHexColor(0xECEFF4),
		Accent:     tcell.NewHexColor(0x88C0D0),
		Muted:      tcell.NewHexColor(0x4C566A),
		Error:      tcell.NewHexColor(0xBF616A),
	},
}

// ThemeFor returns the named theme, falling back to the default theme
func ThemeFor(name string) Theme {
	if t, ok := themes[name]; ok {
		return t
	}
	return themes[config.Defaults().Theme]
}
