package render

import (
	"sort"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Palette is the set of colours the terminal UI is drawn with
type Palette struct {
	Name string

	Border lipgloss.Color

	Primary   lipgloss.Color // bot messages, titles
	Secondary lipgloss.Color // user messages
	Accent    lipgloss.Color // spinner, focus
	Error     lipgloss.Color

	Text    lipgloss.Color
	TextDim lipgloss.Color
	Muted   lipgloss.Color
}

// DefaultPalette is used when the configured name is unknown
const DefaultPalette = "tokyonight"

var palettes = map[string]Palette{
	"tokyonight": {
		Name:      "tokyonight",
		Border:    "#414868",
		Primary:   "#7aa2f7",
		Secondary: "#9ece6a",
		Accent:    "#bb9af7",
		Error:     "#f7768e",
		Text:      "#c0caf5",
		TextDim:   "#565f89",
		Muted:     "#3b4261",
	},
	"catppuccin": {
		Name:      "catppuccin",
		Border:    "#45475a",
		Primary:   "#89b4fa",
		Secondary: "#a6e3a1",
		Accent:    "#cba6f7",
		Error:     "#f38ba8",
		Text:      "#cdd6f4",
		TextDim:   "#6c7086",
		Muted:     "#45475a",
	},
	"nord": {
		Name:      "nord",
		Border:    "#4c566a",
		Primary:   "#88c0d0",
		Secondary: "#a3be8c",
		Accent:    "#b48ead",
		Error:     "#bf616a",
		Text:      "#eceff4",
		TextDim:   "#7b88a1",
		Muted:     "#4c566a",
	},
	"light": {
		Name:      "light",
		Border:    "#c9ced6",
		Primary:   "#5a3fc0",
		Secondary: "#1a7f37",
		Accent:    "#8250df",
		Error:     "#cf222e",
		Text:      "#1f2328",
		TextDim:   "#59636e",
		Muted:     "#818b98",
	},
}

var (
	paletteMu sync.RWMutex
	current   = palettes[DefaultPalette]
)

// LookupPalette returns the palette called name
func LookupPalette(name string) (Palette, bool) {
	p, ok := palettes[name]
	return p, ok
}

// SetPalette makes name the active palette. It reports false, leaving the
// active palette unchanged, when name is unknown.
func SetPalette(name string) bool {
	p, ok := palettes[name]
	if !ok {
		return false
	}
	paletteMu.Lock()
	current = p
	paletteMu.Unlock()
	return true
}

// CurrentPalette returns the active palette
func CurrentPalette() Palette {
	paletteMu.RLock()
	defer paletteMu.RUnlock()
	return current
}

// PaletteNames lists the known palettes in alphabetical order
func PaletteNames() []string {
	names := make([]string, 0, len(palettes))
	for name := range palettes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
