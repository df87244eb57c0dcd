package faceseg

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/esimov/faceseg/curve"
)

func TestOutline_RaisesForehead(t *testing.T) {
	assert := assert.New(t)
	size := image.Pt(200, 200)

	points, err := BuildOutline(testObservation(centeredBox), size)
	require.NoError(t, err)
	require.Len(t, points, contourPoints+3)

	first := points[0]
	assert.InDelta(55.0, first.X, 1e-9)
	assert.InDelta(110.0, first.Y, 1e-9)
	assert.Equal(first, points[len(points)-1])

	// (0.95, 0.6) reflected through (0.8, 0.75) and (0.05, 0.6) through (0.2, 0.75).
	raisedLeft, raisedRight := points[contourPoints], points[contourPoints+1]
	assert.InDelta(50+0.65*100, raisedLeft.X, 1e-9)
	assert.InDelta(50+0.9*100, raisedLeft.Y, 1e-9)
	assert.InDelta(50+0.35*100, raisedRight.X, 1e-9)
	assert.InDelta(50+0.9*100, raisedRight.Y, 1e-9)
}

func TestOutline_MissingGroups(t *testing.T) {
	for _, region := range []Region{FaceContour, LeftEyebrow, RightEyebrow} {
		t.Run(string(region), func(t *testing.T) {
			obs := testObservation(centeredBox)
			delete(obs.Landmarks, region)
			_, err := BuildOutline(obs, image.Pt(100, 100))
			assert.ErrorIs(t, err, ErrObservationMissingData)

			obs = testObservation(centeredBox)
			obs.Landmarks[region] = []NormalizedPoint{}
			_, err = BuildOutline(obs, image.Pt(100, 100))
			assert.ErrorIs(t, err, ErrObservationMissingData)
		})
	}

	_, err := BuildOutline(FaceObservation{BoundingBox: centeredBox}, image.Pt(100, 100))
	assert.ErrorIs(t, err, ErrObservationMissingData)
}

func TestOutline_SingleContourPoint(t *testing.T) {
	obs := testObservation(centeredBox)
	obs.Landmarks[FaceContour] = []NormalizedPoint{{0.5, 0.1}}

	points, err := BuildOutline(obs, image.Pt(100, 100))
	require.NoError(t, err)
	assert.Len(t, points, 4)
	assert.Equal(t, points[0], points[3])
}

func TestOutline_KeepsDegenerateLastContourPoint(t *testing.T) {
	assert := assert.New(t)
	obs := testObservation(centeredBox)
	contour := obs.Landmarks[FaceContour]
	contour[len(contour)-1] = NormalizedPoint{}

	points, err := BuildOutline(obs, image.Pt(200, 200))
	require.NoError(t, err)
	require.Len(t, points, contourPoints+3)

	// (0, 0) maps to the box origin and stays in the loop.
	assert.Equal(curve.Pt(50, 50), points[contourPoints-1])

	// (0, 0) reflected through the outer left eyebrow point (0.8, 0.75).
	raisedLeft := points[contourPoints]
	assert.InDelta(50+1.6*100, raisedLeft.X, 1e-9)
	assert.InDelta(50+1.5*100, raisedLeft.Y, 1e-9)
}

func TestOutline_BuildPathStyles(t *testing.T) {
	points, err := BuildOutline(testObservation(centeredBox), image.Pt(200, 200))
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.Outline = PolylineOutline
	poly, err := buildPath(points, cfg)
	require.NoError(t, err)
	segs := poly.Segments()
	assert.Len(t, segs, len(points)+1)
	assert.Equal(t, curve.MoveTo, segs[0].Op)
	assert.Equal(t, curve.Close, segs[len(segs)-1].Op)

	smooth, err := buildPath(points, DefaultConfig())
	require.NoError(t, err)
	for _, s := range smooth.Segments()[1:] {
		assert.NotEqual(t, curve.LineTo, s.Op)
	}
	assert.Equal(t, points[len(points)-1], smooth.CurrentPoint())
}
