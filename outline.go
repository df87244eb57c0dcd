package faceseg

import (
	"fmt"
	"image"

	"github.com/esimov/faceseg/curve"
)

// BuildOutline returns the closed point loop outlining the face, forehead
// included, in pixel units with a bottom-left origin.
//
// Detectors stop the face contour at the eyebrows, so two synthetic points
// are raised above the brows by reflecting the contour ends through the outer
// eyebrow points. The loop is the contour followed by the raised left point,
// the raised right point and the first contour point again.
func BuildOutline(obs FaceObservation, size image.Point) ([]ImagePoint, error) {
	contour, ok := obs.Group(FaceContour)
	if !ok {
		return nil, fmt.Errorf("%w: no %s points", ErrObservationMissingData, FaceContour)
	}
	leftBrow, ok := obs.Group(LeftEyebrow)
	if !ok {
		return nil, fmt.Errorf("%w: no %s points", ErrObservationMissingData, LeftEyebrow)
	}
	rightBrow, ok := obs.Group(RightEyebrow)
	if !ok {
		return nil, fmt.Errorf("%w: no %s points", ErrObservationMissingData, RightEyebrow)
	}

	first, last := contour[0], contour[len(contour)-1]
	raisedLeft := PointAlongLine(last, leftBrow[0])
	raisedRight := PointAlongLine(first, rightBrow[0])

	loop := make([]NormalizedPoint, 0, len(contour)+3)
	loop = append(loop, contour...)
	loop = append(loop, raisedLeft, raisedRight, first)

	return ToImagePoints(loop, obs.BoundingBox, size), nil
}

// buildPath joins the outline points according to the configured style.
func buildPath(points []ImagePoint, cfg Config) (*curve.Path, error) {
	if cfg.Outline == PolylineOutline {
		return curve.Polyline(points)
	}
	b := curve.Builder{ContractionFactor: cfg.ContractionFactor}
	return b.Build(points)
}
