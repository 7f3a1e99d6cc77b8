// Package card turns stored greetings into what a presenter shows: the
// theme catalog and the defaults applied at render time.
package card

import (
	"image/color"
	"sort"
)

// DefaultTheme is used when a greeting's theme is blank or unknown.
const DefaultTheme = "pink"

// Theme is one entry of the closed theme catalog.
type Theme struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	// Gradient holds the from/via/to stops of the page background.
	Gradient [3]string `json:"gradient"`
	// CardBg is the card surface color, alpha included.
	CardBg string `json:"cardBg"`
	Border string `json:"border"`
	Text   string `json:"text"`
	Accent string `json:"accent"`
	Button string `json:"button"`
}

// Themes is the catalog, keyed by theme key.
var Themes = map[string]Theme{
	"pink": {
		Key:      "pink",
		Name:     "Pink Romance",
		Gradient: [3]string{"#f9a8d4", "#fbcfe8", "#fda4af"},
		CardBg:   "#ffffffcc",
		Border:   "#f9a8d4",
		Text:     "#9d174d",
		Accent:   "#db2777",
		Button:   "#ec4899",
	},
	"purple": {
		Key:      "purple",
		Name:     "Purple Dream",
		Gradient: [3]string{"#d8b4fe", "#ddd6fe", "#f0abfc"},
		CardBg:   "#ffffffcc",
		Border:   "#d8b4fe",
		Text:     "#6b21a8",
		Accent:   "#9333ea",
		Button:   "#a855f7",
	},
	"red": {
		Key:      "red",
		Name:     "Red Passion",
		Gradient: [3]string{"#fca5a5", "#fda4af", "#f9a8d4"},
		CardBg:   "#ffffffcc",
		Border:   "#fca5a5",
		Text:     "#991b1b",
		Accent:   "#dc2626",
		Button:   "#ef4444",
	},
	"pastel": {
		Key:      "pastel",
		Name:     "Pastel Love",
		Gradient: [3]string{"#ffe4e6", "#ccfbf1", "#dbeafe"},
		CardBg:   "#ffffffe6",
		Border:   "#99f6e4",
		Text:     "#1f2937",
		Accent:   "#0d9488",
		Button:   "#14b8a6",
	},
}

// ThemeKeys returns the catalog keys in a stable order.
func ThemeKeys() []string {
	keys := make([]string, 0, len(Themes))
	for k := range Themes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ThemeFor returns the theme for key, or the default theme.
func ThemeFor(key string) Theme {
	if t, ok := Themes[key]; ok {
		return t
	}
	return Themes[DefaultTheme]
}

// IsTheme reports whether key names a catalog theme.
func IsTheme(key string) bool {
	_, ok := Themes[key]
	return ok
}

// ParseHex converts #rrggbb or #rrggbbaa into a color. Malformed input
// yields opaque black.
func ParseHex(s string) color.NRGBA {
	c := color.NRGBA{A: 0xff}
	if len(s) == 0 || s[0] != '#' {
		return c
	}
	s = s[1:]
	if len(s) != 6 && len(s) != 8 {
		return c
	}
	var v [4]uint8
	v[3] = 0xff
	for i := 0; i < len(s)/2; i++ {
		hi, ok1 := hexVal(s[2*i])
		lo, ok2 := hexVal(s[2*i+1])
		if !ok1 || !ok2 {
			return color.NRGBA{A: 0xff}
		}
		v[i] = hi<<4 | lo
	}
	return color.NRGBA{R: v[0], G: v[1], B: v[2], A: v[3]}
}

func hexVal(b byte) (uint8, bool) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', true
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10, true
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10, true
	}
	return 0, false
}
