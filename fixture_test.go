package faceseg

import (
	"image"
	"image/color"
	"image/draw"
	"math"
)

const contourPoints = 17

// testObservation returns a face whose contour is the lower half of an
// ellipse running from the image-left temple, below the chin, to the
// image-right temple. Eyebrows start with their outer point.
func testObservation(box Rect) FaceObservation {
	contour := make([]NormalizedPoint, contourPoints)
	for i := range contour {
		theta := math.Pi + float64(i)*math.Pi/float64(contourPoints-1)
		contour[i] = NormalizedPoint{
			X: 0.5 + 0.45*math.Cos(theta),
			Y: 0.6 + 0.58*math.Sin(theta),
		}
	}
	return FaceObservation{
		BoundingBox: box,
		Landmarks: Landmarks{
			FaceContour:  contour,
			RightEyebrow: {{0.2, 0.75}, {0.3, 0.8}, {0.4, 0.78}},
			LeftEyebrow:  {{0.8, 0.75}, {0.7, 0.8}, {0.6, 0.78}},
			LeftPupil:    {{0.65, 0.68}},
			RightPupil:   {{0.35, 0.68}},
		},
	}
}

var centeredBox = Rect{X: 0.25, Y: 0.25, Width: 0.5, Height: 0.5}

func staticDetector(obs ...FaceObservation) Detector {
	return DetectorFunc(func(*image.NRGBA, Orientation) ([]FaceObservation, error) {
		return obs, nil
	})
}

func newOpaqueImage(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{c}, image.Point{}, draw.Src)
	return img
}

var gray = color.NRGBA{R: 128, G: 128, B: 128, A: 255}
