package curve

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertPoint(t *testing.T, want, got Point) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, 1e-9, "x of %v", got)
	assert.InDelta(t, want.Y, got.Y, 1e-9, "y of %v", got)
}

func TestBuilder_Preconditions(t *testing.T) {
	assert := assert.New(t)

	_, err := NewBuilder().Build(nil)
	assert.ErrorIs(err, ErrNoPoints)

	for _, k := range []float64{-0.1, math.NaN(), math.Inf(1)} {
		b := &Builder{ContractionFactor: k}
		_, err = b.Build([]Point{Pt(0, 0), Pt(1, 1), Pt(2, 0)})
		assert.ErrorIs(err, ErrNegativeContraction, "factor %v", k)
	}
}

func TestBuilder_Degenerate(t *testing.T) {
	b := NewBuilder()

	path, err := b.Build([]Point{Pt(3, 4)})
	require.NoError(t, err)
	segs := path.Segments()
	require.Len(t, segs, 2)
	assert.Equal(t, MoveTo, segs[0].Op)
	assert.Equal(t, LineTo, segs[1].Op)
	assertPoint(t, Pt(3, 4), segs[1].End())

	path, err = b.Build([]Point{Pt(0, 0), Pt(10, 5)})
	require.NoError(t, err)
	segs = path.Segments()
	require.Len(t, segs, 2)
	assert.Equal(t, LineTo, segs[1].Op)
	assertPoint(t, Pt(10, 5), segs[1].End())
}

func TestBuilder_ThreeCollinearPoints(t *testing.T) {
	path, err := NewBuilder().Build([]Point{Pt(0, 0), Pt(10, 0), Pt(20, 0)})
	require.NoError(t, err)

	segs := path.Segments()
	require.Len(t, segs, 4)

	assert.Equal(t, []Op{MoveTo, QuadTo, CubeTo, QuadTo},
		[]Op{segs[0].Op, segs[1].Op, segs[2].Op, segs[3].Op})

	// Leading zero length quad back onto the first point.
	assertPoint(t, Pt(-1.25, 0), segs[1].Pts[0])
	assertPoint(t, Pt(0, 0), segs[1].End())

	assertPoint(t, Pt(1.25, 0), segs[2].Pts[0])
	assertPoint(t, Pt(7.5, 0), segs[2].Pts[1])
	assertPoint(t, Pt(10, 0), segs[2].End())

	assertPoint(t, Pt(12.5, 0), segs[3].Pts[0])
	assertPoint(t, Pt(20, 0), segs[3].End())
	assertPoint(t, Pt(20, 0), path.CurrentPoint())
}

func TestBuilder_PassesThroughEveryPoint(t *testing.T) {
	var points []Point
	for i := 0; i < 12; i++ {
		a := float64(i) / 11 * math.Pi
		points = append(points, Pt(100+80*math.Cos(a), 100-60*math.Sin(a)))
	}

	for _, k := range []float64{0, 0.5, 1.5} {
		path, err := (&Builder{ContractionFactor: k}).Build(points)
		require.NoError(t, err)

		segs := path.Segments()
		require.Len(t, segs, len(points)+1)

		ends := []Point{segs[0].End()}
		for _, s := range segs[2:] {
			ends = append(ends, s.End())
		}
		require.Len(t, ends, len(points))
		for i := range points {
			assertPoint(t, points[i], ends[i])
		}
	}
}

func TestBuilder_ZeroContractionIsStraight(t *testing.T) {
	points := []Point{Pt(0, 0), Pt(10, 10), Pt(20, 0), Pt(30, 10)}
	path, err := (&Builder{ContractionFactor: 0}).Build(points)
	require.NoError(t, err)

	for _, s := range path.Segments() {
		if s.Op != CubeTo {
			continue
		}
		// Both control points collapse onto the segment anchors.
		assert.True(t, s.Pts[0] == points[0] || s.Pts[0] == points[1] || s.Pts[0] == points[2])
		assert.Equal(t, s.Pts[1], s.End())
	}
}

func TestObliqueAngle(t *testing.T) {
	assert := assert.New(t)

	assert.InDelta(0, obliqueAngle(Pt(10, 0), Pt(0, 0)), 1e-9)
	assert.InDelta(math.Pi, obliqueAngle(Pt(0, 0), Pt(10, 0)), 1e-9)
	assert.InDelta(math.Pi/4, obliqueAngle(Pt(10, 10), Pt(0, 0)), 1e-9)
	assert.InDelta(math.Pi/2, obliqueAngle(Pt(0, 10), Pt(0, 0)), 1e-9)
	assert.InDelta(-math.Pi/2, obliqueAngle(Pt(0, -10), Pt(0, 0)), 1e-9)
	assert.InDelta(math.Pi/2, obliqueAngle(Pt(3, 3), Pt(3, 3)), 1e-9)
}

func TestPolyline(t *testing.T) {
	_, err := Polyline(nil)
	assert.ErrorIs(t, err, ErrNoPoints)

	path, err := Polyline([]Point{Pt(0, 0), Pt(10, 0), Pt(10, 10)})
	require.NoError(t, err)
	assert.Equal(t, "M 0 0 L 10 0 L 10 10 Z", path.SVG())
	assertPoint(t, Pt(0, 0), path.CurrentPoint())

	lo, hi := path.Bounds()
	assertPoint(t, Pt(0, 0), lo)
	assertPoint(t, Pt(10, 10), hi)
}

type recorder struct {
	ops []string
}

func (r *recorder) MoveTo(x, y float64) { r.ops = append(r.ops, "M") }
func (r *recorder) LineTo(x, y float64) { r.ops = append(r.ops, "L") }
func (r *recorder) QuadraticTo(x1, y1, x2, y2 float64) { r.ops = append(r.ops, "Q") }
func (r *recorder) CubicTo(x1, y1, x2, y2, x3, y3 float64) { r.ops = append(r.ops, "C") }
func (r *recorder) ClosePath() { r.ops = append(r.ops, "Z") }

func TestPath_Replay(t *testing.T) {
	path, err := NewBuilder().Build([]Point{Pt(0, 0), Pt(5, 5), Pt(10, 0), Pt(15, 5)})
	require.NoError(t, err)
	path.Close()

	rec := &recorder{}
	path.Replay(rec)
	assert.Equal(t, []string{"M", "Q", "C", "C", "Q", "Z"}, rec.ops)

	text, err := path.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, path.SVG(), string(text))
}
