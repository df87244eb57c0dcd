package curve

import (
	"errors"
	"math"
)

// DefaultContraction is the contraction factor used by NewBuilder.
const DefaultContraction = 0.5

var (
	// ErrNoPoints is returned when a path is requested for an empty point sequence.
	ErrNoPoints = errors.New("curve: at least one point is required")
	// ErrNegativeContraction is returned for a negative or non finite contraction factor.
	ErrNegativeContraction = errors.New("curve: contraction factor must be a finite value >= 0")
)

// Builder fits a smooth chain of Bézier segments through an ordered point
// sequence. The curve passes exactly through every input point; the control
// points of each interior point lie on the line parallel to the chord joining
// the neighbouring midpoints, at a distance proportional to ContractionFactor.
// A factor of zero produces straight segments.
type Builder struct {
	ContractionFactor float64
}

// NewBuilder returns a Builder using DefaultContraction.
func NewBuilder() *Builder {
	return &Builder{ContractionFactor: DefaultContraction}
}

// Build returns the smooth path through points.
// One point yields a zero length line, two points a straight line.
func (b *Builder) Build(points []Point) (*Path, error) {
	k := b.ContractionFactor
	if k < 0 || math.IsNaN(k) || math.IsInf(k, 0) {
		return nil, ErrNegativeContraction
	}
	if len(points) == 0 {
		return nil, ErrNoPoints
	}

	path := NewPath()
	path.MoveTo(points[0])

	switch len(points) {
	case 1:
		path.LineTo(points[0])
		return path, nil
	case 2:
		path.LineTo(points[1])
		return path, nil
	}

	last := len(points) - 1
	prev := points[0]

	var prevCtrl1 Point
	for i, pt := range points {
		if i == 0 {
			continue
		}
		prevMid := path.CurrentPoint().Mid(prev)
		mid := prev.Mid(pt)
		dist := prevMid.Dist(mid)
		angle := obliqueAngle(mid, prevMid)

		offset := Point{
			X: math.Cos(angle) * dist * k * 0.5,
			Y: math.Sin(angle) * dist * k * 0.5,
		}
		prevCtrl2 := prev.Sub(offset)
		ctrl1 := prev.Add(offset)

		switch {
		case i == 1:
			path.QuadTo(prev, prevCtrl2)
		case i < last:
			path.CubeTo(prev, prevCtrl1, prevCtrl2)
		default:
			path.CubeTo(prev, prevCtrl1, prevCtrl2)
			path.QuadTo(pt, ctrl1)
		}

		prevCtrl1 = ctrl1
		prev = pt
	}
	return path, nil
}

// Polyline returns the closed polygon through points built from straight segments.
func Polyline(points []Point) (*Path, error) {
	if len(points) == 0 {
		return nil, ErrNoPoints
	}
	path := NewPath()
	path.MoveTo(points[0])
	for _, pt := range points[1:] {
		path.LineTo(pt)
	}
	path.Close()
	return path, nil
}

// obliqueAngle returns the direction, in radians, of the travel from prevMid to mid.
func obliqueAngle(mid, prevMid Point) float64 {
	switch {
	case mid.X > prevMid.X:
		return math.Atan((prevMid.Y - mid.Y) / (prevMid.X - mid.X))
	case mid.X < prevMid.X:
		return math.Pi + math.Atan((prevMid.Y-mid.Y)/(prevMid.X-mid.X))
	case mid.Y >= prevMid.Y:
		return math.Pi / 2
	}
	return -math.Pi / 2
}
