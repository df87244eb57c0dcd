package faceseg

import (
	"image"
	"math"

	"github.com/esimov/faceseg/curve"
)

// NormalizedPoint is a point in [0,1]x[0,1] with the origin at the bottom-left
// corner of its reference frame. Landmarks are expressed relative to their
// face bounding box, bounding boxes relative to the whole image.
type NormalizedPoint struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
}

// ImagePoint is a point in pixel units. Depending on the consumer the origin
// is either the bottom-left (face paths) or top-left (bounding boxes) corner.
type ImagePoint = curve.Point

// Rect is an axis aligned rectangle given by its origin corner and size.
// It is used both for normalized and for pixel space boxes.
type Rect struct {
	X      float64 `json:"x" msgpack:"x"`
	Y      float64 `json:"y" msgpack:"y"`
	Width  float64 `json:"width" msgpack:"width"`
	Height float64 `json:"height" msgpack:"height"`
}

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Integral returns the smallest integer rectangle containing r.
func (r Rect) Integral() image.Rectangle {
	return image.Rect(
		int(math.Floor(r.X)),
		int(math.Floor(r.Y)),
		int(math.Ceil(r.X+r.Width)),
		int(math.Ceil(r.Y+r.Height)),
	)
}

// ToImagePoint maps a landmark point, normalized to its face box, to pixel
// coordinates of an image of the given size. The bottom-left origin is kept.
func ToImagePoint(p NormalizedPoint, face Rect, size image.Point) ImagePoint {
	w, h := float64(size.X), float64(size.Y)
	return ImagePoint{
		X: face.X*w + p.X*face.Width*w,
		Y: face.Y*h + p.Y*face.Height*h,
	}
}

// ToImagePoints maps every point of pts with ToImagePoint.
func ToImagePoints(pts []NormalizedPoint, face Rect, size image.Point) []ImagePoint {
	out := make([]ImagePoint, len(pts))
	for i, p := range pts {
		out[i] = ToImagePoint(p, face, size)
	}
	return out
}

// ToImageRect converts a normalized bounding box to pixel units and flips it
// to a top-left origin, ready to be used on raster images.
func ToImageRect(box Rect, size image.Point) Rect {
	w, h := float64(size.X), float64(size.Y)
	r := Rect{
		X:      box.X * w,
		Y:      box.Y * h,
		Width:  box.Width * w,
		Height: box.Height * h,
	}
	r.Y = h - r.Y - r.Height
	return r
}

// PointAlongLine extends the segment a->b beyond b by the length of the
// segment itself, i.e. it returns the reflection of a through b.
// Coincident points return b unchanged.
func PointAlongLine(a, b NormalizedPoint) NormalizedPoint {
	dx, dy := a.X-b.X, a.Y-b.Y
	dist := math.Hypot(dx, dy)
	if dist == 0 {
		return b
	}
	return NormalizedPoint{
		X: b.X - dx/dist*dist,
		Y: b.Y - dy/dist*dist,
	}
}
