// Package curve builds vector outlines from ordered point sequences.
//
// A Path is a plain list of drawing commands (move, line, quadratic and cubic
// Bézier segments, close) which can be replayed onto any rasterizer exposing
// the classic path construction methods.
package curve

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Point is a 2D point in pixel space.
type Point struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Add returns p+q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Sub returns p-q.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Mul returns p scaled by k.
func (p Point) Mul(k float64) Point { return Point{p.X * k, p.Y * k} }

// Dist returns the euclidean distance between p and q.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Mid returns the point halfway between p and q.
func (p Point) Mid(q Point) Point {
	return Point{(p.X + q.X) / 2, (p.Y + q.Y) / 2}
}

// Op identifies the kind of a path segment.
type Op uint8

const (
	MoveTo Op = iota
	LineTo
	QuadTo
	CubeTo
	Close
)

func (op Op) String() string {
	switch op {
	case MoveTo:
		return "move"
	case LineTo:
		return "line"
	case QuadTo:
		return "quad"
	case CubeTo:
		return "cube"
	case Close:
		return "close"
	}
	return "unknown"
}

// Segment is a single drawing command. Pts holds the control points
// followed by the end point; unused entries are zero.
//
//	MoveTo, LineTo: Pts[0] = end
//	QuadTo:         Pts[0] = control, Pts[1] = end
//	CubeTo:         Pts[0] = control1, Pts[1] = control2, Pts[2] = end
type Segment struct {
	Op  Op
	Pts [3]Point
}

// End returns the point the segment finishes on.
// For Close it returns the zero point; use Path.CurrentPoint instead.
func (s Segment) End() Point {
	switch s.Op {
	case QuadTo:
		return s.Pts[1]
	case CubeTo:
		return s.Pts[2]
	case Close:
		return Point{}
	}
	return s.Pts[0]
}

// Path is an ordered list of segments describing one or more subpaths.
type Path struct {
	segs    []Segment
	start   Point
	current Point
}

// NewPath returns an empty path.
func NewPath() *Path {
	return &Path{}
}

// MoveTo starts a new subpath at pt.
func (p *Path) MoveTo(pt Point) {
	p.segs = append(p.segs, Segment{Op: MoveTo, Pts: [3]Point{pt}})
	p.start, p.current = pt, pt
}

// LineTo adds a straight segment to pt.
func (p *Path) LineTo(pt Point) {
	p.segs = append(p.segs, Segment{Op: LineTo, Pts: [3]Point{pt}})
	p.current = pt
}

// QuadTo adds a quadratic Bézier segment ending at pt.
func (p *Path) QuadTo(pt, ctrl Point) {
	p.segs = append(p.segs, Segment{Op: QuadTo, Pts: [3]Point{ctrl, pt}})
	p.current = pt
}

// CubeTo adds a cubic Bézier segment ending at pt.
func (p *Path) CubeTo(pt, ctrl1, ctrl2 Point) {
	p.segs = append(p.segs, Segment{Op: CubeTo, Pts: [3]Point{ctrl1, ctrl2, pt}})
	p.current = pt
}

// Close closes the current subpath with a straight line back to its start.
func (p *Path) Close() {
	p.segs = append(p.segs, Segment{Op: Close})
	p.current = p.start
}

// CurrentPoint returns the end point of the last segment.
func (p *Path) CurrentPoint() Point {
	return p.current
}

// Segments returns a copy of the path segments.
func (p *Path) Segments() []Segment {
	segs := make([]Segment, len(p.segs))
	copy(segs, p.segs)
	return segs
}

// Len returns the number of segments.
func (p *Path) Len() int {
	return len(p.segs)
}

// Bounds returns the min and max corners of the box enclosing all segment
// points, control points included.
func (p *Path) Bounds() (lo, hi Point) {
	if len(p.segs) == 0 {
		return
	}
	lo = Point{math.Inf(1), math.Inf(1)}
	hi = Point{math.Inf(-1), math.Inf(-1)}
	for _, s := range p.segs {
		var n int
		switch s.Op {
		case MoveTo, LineTo:
			n = 1
		case QuadTo:
			n = 2
		case CubeTo:
			n = 3
		}
		for _, pt := range s.Pts[:n] {
			lo.X, lo.Y = math.Min(lo.X, pt.X), math.Min(lo.Y, pt.Y)
			hi.X, hi.Y = math.Max(hi.X, pt.X), math.Max(hi.Y, pt.Y)
		}
	}
	return
}

// Drawer is implemented by rasterizers which accept path construction commands,
// for example *gg.Context.
type Drawer interface {
	MoveTo(x, y float64)
	LineTo(x, y float64)
	QuadraticTo(x1, y1, x2, y2 float64)
	CubicTo(x1, y1, x2, y2, x3, y3 float64)
	ClosePath()
}

// Replay issues the path commands on d.
func (p *Path) Replay(d Drawer) {
	for _, s := range p.segs {
		switch s.Op {
		case MoveTo:
			d.MoveTo(s.Pts[0].X, s.Pts[0].Y)
		case LineTo:
			d.LineTo(s.Pts[0].X, s.Pts[0].Y)
		case QuadTo:
			d.QuadraticTo(s.Pts[0].X, s.Pts[0].Y, s.Pts[1].X, s.Pts[1].Y)
		case CubeTo:
			d.CubicTo(s.Pts[0].X, s.Pts[0].Y, s.Pts[1].X, s.Pts[1].Y, s.Pts[2].X, s.Pts[2].Y)
		case Close:
			d.ClosePath()
		}
	}
}

// SVG returns the path as SVG path data, e.g. "M 10 10 L 20 20 Z".
func (p *Path) SVG() string {
	var sb strings.Builder
	for i, s := range p.segs {
		if i > 0 {
			sb.WriteByte(' ')
		}
		switch s.Op {
		case MoveTo:
			sb.WriteString("M " + fmtPts(s.Pts[:1]))
		case LineTo:
			sb.WriteString("L " + fmtPts(s.Pts[:1]))
		case QuadTo:
			sb.WriteString("Q " + fmtPts(s.Pts[:2]))
		case CubeTo:
			sb.WriteString("C " + fmtPts(s.Pts[:3]))
		case Close:
			sb.WriteString("Z")
		}
	}
	return sb.String()
}

// MarshalText encodes the path as SVG path data.
func (p *Path) MarshalText() ([]byte, error) {
	return []byte(p.SVG()), nil
}

func (p *Path) String() string {
	return fmt.Sprintf("Path(%d segments)", len(p.segs))
}

func fmtPts(pts []Point) string {
	parts := make([]string, 0, len(pts)*2)
	for _, pt := range pts {
		parts = append(parts,
			strconv.FormatFloat(pt.X, 'f', -1, 64),
			strconv.FormatFloat(pt.Y, 'f', -1, 64),
		)
	}
	return strings.Join(parts, " ")
}
