package faceseg

import "image"

// Region names a landmark group of a face observation.
type Region string

const (
	FaceContour  Region = "faceContour"
	LeftEyebrow  Region = "leftEyebrow"
	RightEyebrow Region = "rightEyebrow"
	LeftEye      Region = "leftEye"
	RightEye     Region = "rightEye"
	LeftPupil    Region = "leftPupil"
	RightPupil   Region = "rightPupil"
	OuterLips    Region = "outerLips"
	InnerLips    Region = "innerLips"
	Nose         Region = "nose"
	NoseCrest    Region = "noseCrest"
	MedianLine   Region = "medianLine"
)

// Landmarks maps a region to its points, normalized to the face bounding box.
type Landmarks map[Region][]NormalizedPoint

// FaceObservation is a single detected face as reported by a Detector.
// BoundingBox is normalized to the image, with a bottom-left origin.
type FaceObservation struct {
	BoundingBox Rect      `json:"boundingBox" msgpack:"boundingBox"`
	Landmarks   Landmarks `json:"landmarks,omitempty" msgpack:"landmarks,omitempty"`
}

// Group returns the points of region r. The second value is false when the
// group is missing or empty.
func (o FaceObservation) Group(r Region) ([]NormalizedPoint, bool) {
	pts, ok := o.Landmarks[r]
	return pts, ok && len(pts) > 0
}

// Orientation describes how the raw pixel buffer relates to the upright image.
type Orientation int

const (
	Up Orientation = iota
	Right
	Down
	Left
)

// Code returns the EXIF orientation tag value.
func (o Orientation) Code() uint32 {
	switch o {
	case Right:
		return 6
	case Down:
		return 3
	case Left:
		return 8
	}
	return 1
}

// Angle returns the in-plane rotation of upright faces in the raw buffer,
// as a fraction of a full turn.
func (o Orientation) Angle() float64 {
	switch o {
	case Right:
		return 0.25
	case Down:
		return 0.5
	case Left:
		return 0.75
	}
	return 0
}

func (o Orientation) String() string {
	switch o {
	case Right:
		return "right"
	case Down:
		return "down"
	case Left:
		return "left"
	}
	return "up"
}

// ParseOrientation returns the orientation named s. Unknown names map to Up.
func ParseOrientation(s string) Orientation {
	switch s {
	case "right":
		return Right
	case "down":
		return Down
	case "left":
		return Left
	}
	return Up
}

// Detector finds faces and their landmarks in an image.
// Implementations must be safe for concurrent use.
type Detector interface {
	Detect(img *image.NRGBA, orientation Orientation) ([]FaceObservation, error)
}

// DetectorFunc adapts an ordinary function to the Detector interface.
type DetectorFunc func(img *image.NRGBA, orientation Orientation) ([]FaceObservation, error)

// Detect calls f(img, orientation).
func (f DetectorFunc) Detect(img *image.NRGBA, orientation Orientation) ([]FaceObservation, error) {
	return f(img, orientation)
}
