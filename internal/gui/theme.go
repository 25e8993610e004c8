package gui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

// sgTheme keeps the default theme and swaps in the accent colors.
type sgTheme struct{}

var (
	accentColor  = color.NRGBA{R: 0x1C, G: 0x8C, B: 0xD9, A: 0xFF}
	successColor = color.NRGBA{R: 0x3F, G: 0xA3, B: 0x5B, A: 0xFF}
	errorColor   = color.NRGBA{R: 0xD9, G: 0x3F, B: 0x3F, A: 0xFF}
)

func (t *sgTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	switch name {
	case theme.ColorNamePrimary, theme.ColorNameFocus:
		return accentColor
	case theme.ColorNameSuccess:
		return successColor
	case theme.ColorNameError:
		return errorColor
	default:
		return theme.DefaultTheme().Color(name, variant)
	}
}

func (t *sgTheme) Font(style fyne.TextStyle) fyne.Resource {
	return theme.DefaultTheme().Font(style)
}

func (t *sgTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return theme.DefaultTheme().Icon(name)
}

func (t *sgTheme) Size(name fyne.ThemeSizeName) float32 {
	if name == theme.SizeNameHeadingText {
		return 20
	}
	return theme.DefaultTheme().Size(name)
}
