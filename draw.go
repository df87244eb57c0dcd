package faceseg

import (
	"image"
	"image/color"

	"github.com/fogleman/gg"

	"github.com/esimov/faceseg/curve"
	"github.com/esimov/faceseg/imop"
)

const (
	// The debug stroke width is proportional to the face box height:
	// a 530px tall face gets a 10px wide line.
	refBoxHeight = 530.0
	refLineWidth = 10.0

	landmarkDotRadius = 5.0
)

// landmarkImageRegions are the groups drawn on the landmarks image.
// The nose outline and the median line are left out.
var landmarkImageRegions = []Region{
	FaceContour,
	NoseCrest,
	InnerLips,
	OuterLips,
	LeftEyebrow,
	LeftEye,
	LeftPupil,
	RightEyebrow,
	RightEye,
	RightPupil,
}

var (
	maskColor     = color.White
	landmarkColor = color.White
	landmarkBg    = color.Black
)

// strokeWidth returns the debug line width used for a face box.
func strokeWidth(box Rect) float64 {
	return box.Height * refLineWidth / refBoxHeight
}

// drawDebugImage draws the face boxes, outlines and outline points on a
// transparent layer and composites it over a copy of src.
func drawDebugImage(src *image.NRGBA, md Metadata, cfg Config) (*image.NRGBA, error) {
	n := len(md.BoundingBoxes)
	if len(md.FacePaths) != n || len(md.Landmarks) != n {
		return nil, variantErrorf(DebugVariant,
			"%d bounding boxes, %d face paths and %d landmark sets don't match",
			n, len(md.FacePaths), len(md.Landmarks))
	}
	boxColor, pathColor, pointColor := cfg.colors()

	b := src.Bounds()
	c := newBlankCanvas(b.Dx(), b.Dy(), nil)
	widths := make([]float64, n)
	for i, box := range md.BoundingBoxes {
		widths[i] = strokeWidth(box)
		c.appendRect(box)
		c.stroke(widths[i], boxColor)
	}

	c.flip()
	for i, path := range md.FacePaths {
		c.appendPath(path)
		c.stroke(widths[i], pathColor)
	}
	for i, points := range md.Landmarks {
		for _, p := range points {
			c.dot(p, widths[i], pointColor)
		}
	}
	return imop.Over(src, c.image()), nil
}

// drawFacesImage keeps the face regions of src and clears everything else.
// The mask is the whole frame plus every face path filled with the even-odd
// rule, so the faces end up as holes of the cleared area. Where two faces
// overlap the overlap counts twice and is cleared as well.
func drawFacesImage(src *image.NRGBA, paths []*curve.Path) *image.NRGBA {
	b := src.Bounds()
	mask := newBlankCanvas(b.Dx(), b.Dy(), nil)
	mask.flip()
	mask.appendRect(Rect{Width: mask.width, Height: mask.height})
	for _, path := range paths {
		mask.appendPath(path)
	}
	mask.fill(gg.FillRuleEvenOdd, maskColor)

	return imop.Erase(src, mask.image())
}

// drawCutoutImage clears the face regions of src and keeps the rest.
func drawCutoutImage(src *image.NRGBA, paths []*curve.Path) *image.NRGBA {
	b := src.Bounds()
	mask := newBlankCanvas(b.Dx(), b.Dy(), nil)
	mask.flip()
	for _, path := range paths {
		mask.appendPath(path)
		mask.fill(gg.FillRuleWinding, maskColor)
	}

	return imop.Erase(src, mask.image())
}

// drawLandmarksImage draws every landmark of every face as a white dot on a black canvas.
func drawLandmarksImage(size image.Point, observations []FaceObservation) *image.NRGBA {
	c := newBlankCanvas(size.X, size.Y, landmarkBg)
	c.flip()
	for _, obs := range observations {
		for _, region := range landmarkImageRegions {
			for _, p := range obs.Landmarks[region] {
				c.dot(ToImagePoint(p, obs.BoundingBox, size), landmarkDotRadius, landmarkColor)
			}
		}
	}
	return c.image()
}
