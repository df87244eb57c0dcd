package faceseg

import (
	"bytes"
	"image"
	"image/color"
	"image/color/palette"
	"image/draw"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/esimov/faceseg/utils"
)

func TestImage_ToNRGBARejectsEmptyInput(t *testing.T) {
	assert := assert.New(t)

	_, err := toNRGBA(nil)
	assert.ErrorIs(err, ErrImageConversionFailed)

	_, err = toNRGBA(image.NewNRGBA(image.Rect(0, 0, 0, 10)))
	assert.ErrorIs(err, ErrImageConversionFailed)

	img, err := toNRGBA(image.NewGray(image.Rect(2, 2, 6, 5)))
	assert.NoError(err)
	assert.Equal(image.Rect(0, 0, 4, 3), img.Bounds())
}

func TestImage_ImgToNRGBADoesNotAlias(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	dst := imgToNRGBA(src)
	dst.Pix[0] = 0xff
	assert.Equal(t, uint8(0), src.Pix[0])
}

func TestImage_EncodeDecode(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 8, 6))
	draw.Draw(img, img.Bounds(), &image.Uniform{color.NRGBA{R: 10, G: 20, B: 30, A: 255}}, image.Point{}, draw.Src)

	for _, ext := range []string{"", ".png", ".jpg", ".bmp"} {
		t.Run("ext"+ext, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, EncodeImage(&buf, ext, img))

			decoded, err := DecodeImage(&buf)
			require.NoError(t, err)
			assert.Equal(t, img.Bounds(), decoded.Bounds())
		})
	}

	assert.Error(t, EncodeImage(&bytes.Buffer{}, ".tiff", img))

	_, err := DecodeImage(bytes.NewReader([]byte("definitely not an image")))
	assert.ErrorIs(t, err, ErrImageConversionFailed)
}

func TestImage_IsSupportedExtension(t *testing.T) {
	assert := assert.New(t)

	assert.True(IsSupportedExtension("faces/portrait.JPG"))
	assert.True(IsSupportedExtension("group.png"))
	assert.False(IsSupportedExtension("landmarks.json"))
}

func TestImage_ImgToNRGBA(t *testing.T) {
	rect := image.Rect(-1, -1, 15, 15)
	colors := palette.Plan9
	testCases := []struct {
		name string
		img  image.Image
	}{
		{
			name: "NRGBA",
			img:  makeNRGBAImage(rect, colors),
		},
		{
			name: "Gray",
			img:  makeGrayImage(rect, colors),
		},
		{
			name: "YCbCr-444",
			img:  makeYCbCrImage(rect, colors, image.YCbCrSubsampleRatio444),
		},
		{
			name: "YCbCr-422",
			img:  makeYCbCrImage(rect, colors, image.YCbCrSubsampleRatio422),
		},
		{
			name: "YCbCr-420",
			img:  makeYCbCrImage(rect, colors, image.YCbCrSubsampleRatio420),
		},
		{
			name: "YCbCr-440",
			img:  makeYCbCrImage(rect, colors, image.YCbCrSubsampleRatio440),
		},
		{
			name: "YCbCr-410",
			img:  makeYCbCrImage(rect, colors, image.YCbCrSubsampleRatio410),
		},
		{
			name: "YCbCr-411",
			img:  makeYCbCrImage(rect, colors, image.YCbCrSubsampleRatio411),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := tc.img.Bounds()
			got := imgToNRGBA(tc.img)
			require.Equal(t, image.Rect(0, 0, r.Dx(), r.Dy()), got.Bounds())

			for y := r.Min.Y; y < r.Max.Y; y++ {
				buf := readRow(got, y-r.Min.Y)
				wantBuf := readRow(tc.img, y)
				if !compareBytes(buf, wantBuf, 1) {
					t.Errorf("converted horizontal line (y=%d): got %v want %v", y, buf, wantBuf)
				}
			}
			for x := r.Min.X; x < r.Max.X; x++ {
				buf := readColumn(got, x-r.Min.X)
				wantBuf := readColumn(tc.img, x)
				if !compareBytes(buf, wantBuf, 1) {
					t.Errorf("converted vertical line (x=%d): got %v want %v", x, buf, wantBuf)
				}
			}
		})
	}
}

func makeYCbCrImage(rect image.Rectangle, colors []color.Color, sr image.YCbCrSubsampleRatio) *image.YCbCr {
	img := image.NewYCbCr(rect, sr)
	j := 0
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			iy := img.YOffset(x, y)
			ic := img.COffset(x, y)
			c := color.NRGBAModel.Convert(colors[j]).(color.NRGBA)
			img.Y[iy], img.Cb[ic], img.Cr[ic] = color.RGBToYCbCr(c.R, c.G, c.B)
			j++
		}
	}
	return img
}

func makeNRGBAImage(rect image.Rectangle, colors []color.Color) *image.NRGBA {
	img := image.NewNRGBA(rect)
	fillDrawImage(img, colors)
	return img
}

func makeGrayImage(rect image.Rectangle, colors []color.Color) *image.Gray {
	img := image.NewGray(rect)
	fillDrawImage(img, colors)
	return img
}

func fillDrawImage(img draw.Image, colors []color.Color) {
	colorsNRGBA := make([]color.NRGBA, len(colors))
	for i, c := range colors {
		nrgba := color.NRGBAModel.Convert(c).(color.NRGBA)
		nrgba.A = uint8(i % 256)
		colorsNRGBA[i] = nrgba
	}
	rect := img.Bounds()
	i := 0
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			img.Set(x, y, colorsNRGBA[i])
			i++
		}
	}
}

func readRow(img image.Image, y int) []uint8 {
	row := make([]byte, img.Bounds().Dx()*4)
	i := 0
	for x := img.Bounds().Min.X; x < img.Bounds().Max.X; x++ {
		c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
		row[i+0] = c.R
		row[i+1] = c.G
		row[i+2] = c.B
		row[i+3] = c.A
		i += 4
	}
	return row
}

func readColumn(img image.Image, x int) []uint8 {
	column := make([]byte, img.Bounds().Dy()*4)
	i := 0
	for y := img.Bounds().Min.Y; y < img.Bounds().Max.Y; y++ {
		c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
		column[i+0] = c.R
		column[i+1] = c.G
		column[i+2] = c.B
		column[i+3] = c.A
		i += 4
	}
	return column
}

func compareBytes(a, b []uint8, delta int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		if utils.Abs(int(a[i])-int(b[i])) > delta {
			return false
		}
	}
	return true
}
