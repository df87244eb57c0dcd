package faceseg

import (
	"image"

	"github.com/disintegration/imaging"
	"golang.org/x/sync/errgroup"
)

// drawFacesInBoundingBoxes cuts every face box out of the faces-only image and
// stretches it to a size x size square. The output keeps one image per face,
// in face order; a face whose box falls outside the image gets a transparent
// placeholder and a VariantError.
func drawFacesInBoundingBoxes(boxes []Rect, pathCount int, faces *image.NRGBA, size int) ([]*image.NRGBA, []error) {
	if len(boxes) != pathCount {
		return nil, []error{variantErrorf(CropsVariant,
			"observation count %d doesn't match face path count %d", len(boxes), pathCount)}
	}
	if faces == nil {
		return nil, []error{variantErrorf(CropsVariant, "can't draw segmented faces image")}
	}

	crops := make([]*image.NRGBA, len(boxes))
	errs := make([]error, len(boxes))

	var g errgroup.Group
	for i, box := range boxes {
		i, box := i, box
		g.Go(func() error {
			rect := box.Integral().Intersect(faces.Bounds())
			if rect.Empty() {
				errs[i] = variantErrorf(CropsVariant,
					"failed to crop segmented image to bounding box %v of face %d", box.Integral(), i)
				crops[i] = image.NewNRGBA(image.Rect(0, 0, size, size))
				return nil
			}
			crops[i] = imaging.Resize(imaging.Crop(faces, rect), size, size, imaging.Lanczos)
			return nil
		})
	}
	_ = g.Wait()

	var failed []error
	for _, err := range errs {
		if err != nil {
			failed = append(failed, err)
		}
	}
	return crops, failed
}
