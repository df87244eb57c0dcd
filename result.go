package faceseg

import (
	"image"

	"github.com/esimov/faceseg/curve"
)

// Metadata describes the faces found in one image.
// All slices are index aligned and have FaceCount entries.
type Metadata struct {
	FaceCount int `json:"faceCount"`
	// BoundingBoxes are in pixel units with a top-left origin.
	BoundingBoxes []Rect `json:"boundingBoxes"`
	// Landmarks are the outline points in pixel units with a bottom-left origin.
	Landmarks [][]ImagePoint `json:"landmarks"`
	// FacePaths are the closed face outlines, same frame as Landmarks.
	FacePaths []*curve.Path `json:"facePaths"`
}

// Result is the outcome of a successful Process call.
// Images are nil unless requested by the configuration. Every image is
// freshly allocated and owned by the caller.
type Result struct {
	Metadata Metadata

	DebugImage           *image.NRGBA
	FacesImage           *image.NRGBA
	CutoutFacesImage     *image.NRGBA
	LandmarksImage       *image.NRGBA
	FacesInBoundingBoxes []*image.NRGBA

	// Errors holds the non fatal *VariantError values, in variant order.
	Errors []error
}

// NoFaces returns the result of an image without faces.
func NoFaces() *Result {
	return &Result{}
}

// Outcome is delivered on the channel returned by Processor.ProcessAsync.
// Exactly one of Result and Err is set.
type Outcome struct {
	Result *Result
	Err    error
}
