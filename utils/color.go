package utils

import (
	"fmt"
	"image/color"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// HexToRGBA converts a hex color string (#rgb or #rrggbb, the hash is optional)
// into an opaque color.NRGBA.
func HexToRGBA(hex string) (color.NRGBA, error) {
	if !strings.HasPrefix(hex, "#") {
		hex = "#" + hex
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid hex color %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 0xff}, nil
}
