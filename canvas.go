package faceseg

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/fogleman/gg"

	"github.com/esimov/faceseg/curve"
)

// canvas is a thin wrapper over a gg drawing context. Rectangles are given in
// the raster frame (top-left origin); after flip paths and points are given
// in the bottom-left frame used by the face outlines.
type canvas struct {
	dc     *gg.Context
	width  float64
	height float64
}

// newBlankCanvas returns a w x h canvas filled with bg.
// A nil bg leaves the canvas transparent.
func newBlankCanvas(w, h int, bg color.Color) *canvas {
	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	if bg != nil {
		draw.Draw(rgba, rgba.Bounds(), &image.Uniform{bg}, image.Point{}, draw.Src)
	}
	return newCanvasForRGBA(rgba)
}

func newCanvasForRGBA(rgba *image.RGBA) *canvas {
	return &canvas{
		dc:     gg.NewContextForRGBA(rgba),
		width:  float64(rgba.Bounds().Dx()),
		height: float64(rgba.Bounds().Dy()),
	}
}

// flip moves the origin to the bottom-left corner with the y axis pointing up.
func (c *canvas) flip() {
	c.dc.Translate(0, c.height)
	c.dc.Scale(1, -1)
}

func (c *canvas) appendPath(p *curve.Path) {
	p.Replay(c.dc)
}

func (c *canvas) appendRect(r Rect) {
	c.dc.DrawRectangle(r.X, r.Y, r.Width, r.Height)
}

// fill fills the current path with col and clears it.
func (c *canvas) fill(rule gg.FillRule, col color.Color) {
	c.dc.SetFillRule(rule)
	c.dc.SetColor(col)
	c.dc.Fill()
}

// stroke strokes the current path with col and clears it.
func (c *canvas) stroke(width float64, col color.Color) {
	c.dc.SetLineWidth(width)
	c.dc.SetLineJoinRound()
	c.dc.SetColor(col)
	c.dc.Stroke()
}

func (c *canvas) dot(center ImagePoint, radius float64, col color.Color) {
	c.dc.DrawCircle(center.X, center.Y, radius)
	c.fill(gg.FillRuleWinding, col)
}

func (c *canvas) image() *image.NRGBA {
	return imgToNRGBA(c.dc.Image())
}
