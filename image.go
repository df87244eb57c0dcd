package faceseg

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/image/bmp"

	"github.com/esimov/faceseg/utils"
)

// SupportedExtensions lists the image file extensions accepted as input.
var SupportedExtensions = []string{".jpg", ".jpeg", ".png", ".bmp", ".gif"}

// toNRGBA validates img and converts it into the pixel format handed to the
// detector and the compositor. It fails with ErrImageConversionFailed for a
// nil or empty image.
func toNRGBA(img image.Image) (*image.NRGBA, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", ErrImageConversionFailed)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: empty image bounds %v", ErrImageConversionFailed, img.Bounds())
	}
	return imgToNRGBA(img), nil
}

// imgToNRGBA converts any image type to *image.NRGBA with min-point at (0, 0).
// The result never aliases the source pixels.
func imgToNRGBA(img image.Image) *image.NRGBA {
	srcBounds := img.Bounds()
	srcMinX := srcBounds.Min.X
	srcMinY := srcBounds.Min.Y

	dstBounds := srcBounds.Sub(srcBounds.Min)
	dstW := dstBounds.Dx()
	dstH := dstBounds.Dy()
	dst := image.NewNRGBA(dstBounds)

	switch src := img.(type) {
	case *image.NRGBA:
		rowSize := dstW * 4
		for dstY := 0; dstY < dstH; dstY++ {
			di := dst.PixOffset(0, dstY)
			si := src.PixOffset(srcMinX, srcMinY+dstY)
			copy(dst.Pix[di:di+rowSize], src.Pix[si:si+rowSize])
		}
	case *image.YCbCr:
		for dstY := 0; dstY < dstH; dstY++ {
			di := dst.PixOffset(0, dstY)
			for dstX := 0; dstX < dstW; dstX++ {
				srcX := srcMinX + dstX
				srcY := srcMinY + dstY
				siy := src.YOffset(srcX, srcY)
				sic := src.COffset(srcX, srcY)
				r, g, b := color.YCbCrToRGB(src.Y[siy], src.Cb[sic], src.Cr[sic])
				dst.Pix[di+0] = r
				dst.Pix[di+1] = g
				dst.Pix[di+2] = b
				dst.Pix[di+3] = 0xff
				di += 4
			}
		}
	default:
		for dstY := 0; dstY < dstH; dstY++ {
			di := dst.PixOffset(0, dstY)
			for dstX := 0; dstX < dstW; dstX++ {
				c := color.NRGBAModel.Convert(img.At(srcMinX+dstX, srcMinY+dstY)).(color.NRGBA)
				dst.Pix[di+0] = c.R
				dst.Pix[di+1] = c.G
				dst.Pix[di+2] = c.B
				dst.Pix[di+3] = c.A
				di += 4
			}
		}
	}

	return dst
}

// DecodeImage decodes any registered image format.
// Decoding failures are reported as ErrImageConversionFailed.
func DecodeImage(r io.Reader) (image.Image, error) {
	img, err := imaging.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageConversionFailed, err)
	}
	return img, nil
}

// EncodeImage encodes img into w using the format implied by the file
// extension ext. An empty extension means PNG, the only lossless format
// keeping the transparent face masks.
func EncodeImage(w io.Writer, ext string, img image.Image) error {
	switch strings.ToLower(ext) {
	case "", ".png":
		return imaging.Encode(w, img, imaging.PNG)
	case ".jpg", ".jpeg":
		return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(100))
	case ".bmp":
		return bmp.Encode(w, img)
	default:
		return errors.New("unsupported image format")
	}
}

// IsSupportedExtension reports whether the file name has an accepted image extension.
func IsSupportedExtension(name string) bool {
	return utils.Contains(SupportedExtensions, strings.ToLower(filepath.Ext(name)))
}
