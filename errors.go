package faceseg

import (
	"errors"
	"fmt"
)

var (
	// ErrImageConversionFailed is returned when the input can't be turned into the detector pixel format.
	ErrImageConversionFailed = errors.New("failed to convert the provided image to the detector pixel format")
	// ErrVisionRequestFailed is returned when the landmark detector fails.
	ErrVisionRequestFailed = errors.New("face landmark request failed, can't get the face observations")
	// ErrObservationMissingData is returned when an observation lacks the groups needed to build a face path.
	ErrObservationMissingData = errors.New("face observation is missing the data needed to build a face path")
	// ErrDrawFacesInBoxesFailed is wrapped by every VariantError.
	ErrDrawFacesInBoxesFailed = errors.New("drawing output image failed")
	// ErrInvalidConfig is returned for a configuration which fails validation.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Variant identifies one of the output images.
type Variant string

const (
	DebugVariant     Variant = "debug"
	FacesVariant     Variant = "faces"
	CutoutVariant    Variant = "cutout"
	CropsVariant     Variant = "crops"
	LandmarksVariant Variant = "landmarks"
)

// VariantError reports a non fatal failure computing a single output variant.
// The remaining variants are still delivered.
type VariantError struct {
	Variant Variant
	Reason  string
}

func (e *VariantError) Error() string {
	return fmt.Sprintf("draw %s image: %s", e.Variant, e.Reason)
}

// Unwrap makes errors.Is(err, ErrDrawFacesInBoxesFailed) hold.
func (e *VariantError) Unwrap() error {
	return ErrDrawFacesInBoxesFailed
}

func variantErrorf(v Variant, format string, args ...any) *VariantError {
	return &VariantError{Variant: v, Reason: fmt.Sprintf(format, args...)}
}
