package annotate

import (
	"image/color"
	"unicode/utf16"

	"github.com/lucasb-eyer/go-colorful"
)

// DefaultLabel is the one label with a fixed color
const DefaultLabel = "default"

const (
	hueSaturation = 0.7
	hueLightness  = 0.5
)

var defaultColor = color.RGBA{R: 34, G: 197, B: 94, A: 255}

// ColorOf returns the stable overlay color for a label. It is a pure function
// of the label string.
func ColorOf(label string) color.RGBA {
	if label == DefaultLabel {
		return defaultColor
	}
	r, g, b := colorful.Hsl(float64(Hue(label)), hueSaturation, hueLightness).RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// Hue folds the label into [0,360). The shift wraps at 32 bits while the
// running sum does not, so the accumulator is 64-bit.
func Hue(label string) int {
	var hash int64
	for _, unit := range utf16.Encode([]rune(label)) {
		hash = int64(unit) + (int64(int32(hash)<<5) - hash)
	}
	hue := hash % 360
	if hue < 0 {
		hue = -hue
	}
	return int(hue)
}

// Hex formats a color as #rrggbb
func Hex(c color.RGBA) string {
	cf, _ := colorful.MakeColor(c)
	return cf.Hex()
}
