package faceseg

import (
	"fmt"
	"image/color"
	"math"

	"github.com/esimov/faceseg/curve"
	"github.com/esimov/faceseg/utils"
)

// DefaultFaceCropSize is the side of the square per-face crops.
const DefaultFaceCropSize = 512

// OutlineStyle selects how the face outline points are joined.
type OutlineStyle int

const (
	// SmoothOutline joins the points with a chain of Bézier curves.
	SmoothOutline OutlineStyle = iota
	// PolylineOutline joins the points with straight segments.
	PolylineOutline
)

// Palette holds the debug overlay colors as hex strings.
type Palette struct {
	Box   string
	Path  string
	Point string
}

// DefaultPalette draws red boxes, pink outlines and green landmark dots.
var DefaultPalette = Palette{
	Box:   "#ff0000",
	Path:  "#ff2d55",
	Point: "#00ff00",
}

// Config selects which outputs a Process call computes and how.
// It is passed by value and never modified by the processor.
type Config struct {
	DrawDebugImage           bool
	DrawFacesImage           bool
	DrawCutoutFacesImage     bool
	DrawFacesInBoundingBoxes bool
	DrawLandmarksImage       bool

	// FaceCropSize is the side of every per-face crop. Zero means DefaultFaceCropSize.
	FaceCropSize int
	// ContractionFactor controls the curvature of smooth outlines.
	ContractionFactor float64
	Outline           OutlineStyle
	Orientation       Orientation
	Palette           Palette
}

// DefaultConfig returns a configuration with every image output disabled,
// the default crop size, contraction factor and palette.
func DefaultConfig() Config {
	return Config{
		FaceCropSize:      DefaultFaceCropSize,
		ContractionFactor: curve.DefaultContraction,
		Palette:           DefaultPalette,
	}
}

// Validate checks the configuration values.
func (c Config) Validate() error {
	k := c.ContractionFactor
	if k < 0 || math.IsNaN(k) || math.IsInf(k, 0) {
		return fmt.Errorf("%w: contraction factor %v must be a finite value >= 0", ErrInvalidConfig, k)
	}
	if c.FaceCropSize < 0 {
		return fmt.Errorf("%w: face crop size %d must not be negative", ErrInvalidConfig, c.FaceCropSize)
	}
	for _, hex := range []string{c.Palette.Box, c.Palette.Path, c.Palette.Point} {
		if hex == "" {
			continue
		}
		if _, err := utils.HexToRGBA(hex); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}
	return nil
}

func (c Config) cropSize() int {
	if c.FaceCropSize == 0 {
		return DefaultFaceCropSize
	}
	return c.FaceCropSize
}

// colors resolves the palette, falling back to the default for unset entries.
// Validate must have succeeded.
func (c Config) colors() (box, path, point color.Color) {
	pick := func(hex, def string) color.Color {
		if hex == "" {
			hex = def
		}
		col, _ := utils.HexToRGBA(hex)
		return col
	}
	return pick(c.Palette.Box, DefaultPalette.Box),
		pick(c.Palette.Path, DefaultPalette.Path),
		pick(c.Palette.Point, DefaultPalette.Point)
}

func (c Config) anyImage() bool {
	return c.DrawDebugImage || c.DrawFacesImage || c.DrawCutoutFacesImage ||
		c.DrawFacesInBoundingBoxes || c.DrawLandmarksImage
}
