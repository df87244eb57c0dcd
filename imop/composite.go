// Package imop implements the Porter-Duff composition operations the face
// compositor mixes layers with. The image/draw core package offers
// source-over only for premultiplied images and no destination-out at all.
//
// DstOut punches face shaped holes into a photo: a rasterized coverage mask
// is composited over the photo, which is kept only where the mask is
// transparent. Partially covered mask pixels produce partially transparent
// output pixels, so anti-aliased edges are preserved. SrcOver lays the debug
// overlay on top of the photo.
package imop

import (
	"fmt"
	"image"
	"math"

	"github.com/esimov/faceseg/utils"
)

// Op is a Porter-Duff composition operator.
type Op string

const (
	SrcOver Op = "src_over"
	DstOut  Op = "dst_out"
)

// factors returns the Porter-Duff fractions of the source and backdrop
// contributing to the result for the given source and backdrop alphas.
func (op Op) factors(as float64) (fa, fb float64, err error) {
	switch op {
	case SrcOver:
		return 1, 1 - as, nil
	case DstOut:
		return 0, 1 - as, nil
	}
	return 0, 0, fmt.Errorf("unsupported composite operation: %q", op)
}

// Draw composites src onto the dst backdrop with op and returns the result
// as a new image with the bounds of dst. Pixels outside src are treated as
// transparent. src and dst are left untouched.
func Draw(op Op, src, dst *image.NRGBA) (*image.NRGBA, error) {
	if _, _, err := op.factors(0); err != nil {
		return nil, err
	}
	out := image.NewNRGBA(dst.Bounds())
	rowSize := 4 * dst.Rect.Dx()
	for y := dst.Rect.Min.Y; y < dst.Rect.Max.Y; y++ {
		di := dst.PixOffset(dst.Rect.Min.X, y)
		oi := out.PixOffset(out.Rect.Min.X, y)
		copy(out.Pix[oi:oi+rowSize], dst.Pix[di:di+rowSize])
	}

	rect := dst.Bounds().Intersect(src.Bounds())
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		si := src.PixOffset(rect.Min.X, y)
		oi := out.PixOffset(rect.Min.X, y)

		for x := rect.Min.X; x < rect.Max.X; x++ {
			s := src.Pix[si : si+4 : si+4]
			o := out.Pix[oi : oi+4 : oi+4]

			as := float64(s[3]) / 255
			ab := float64(o[3]) / 255
			fa, fb, _ := op.factors(as)

			// Premultiplied result, converted back to straight alpha.
			ao := as*fa + ab*fb
			if ao <= 0 {
				o[0], o[1], o[2], o[3] = 0, 0, 0, 0
			} else {
				for c := 0; c < 3; c++ {
					cs := float64(s[c]) / 255
					cb := float64(o[c]) / 255
					o[c] = toUint8((as*fa*cs + ab*fb*cb) / ao)
				}
				o[3] = toUint8(ao)
			}

			si += 4
			oi += 4
		}
	}
	return out, nil
}

// Erase returns a copy of dst where every pixel has been cleared in
// proportion to the alpha coverage of mask.
func Erase(dst, mask *image.NRGBA) *image.NRGBA {
	out, _ := Draw(DstOut, mask, dst)
	return out
}

// Over returns a copy of dst with layer composited on top of it.
func Over(dst, layer *image.NRGBA) *image.NRGBA {
	out, _ := Draw(SrcOver, layer, dst)
	return out
}

func toUint8(v float64) uint8 {
	return uint8(math.Round(utils.Clamp(v, 0, 1) * 255))
}
