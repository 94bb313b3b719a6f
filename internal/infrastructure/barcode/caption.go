package barcode

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const captionGap = 2

// compose draws bars (and the caption when enabled) on a white canvas
func compose(bars image.Image, value string, opts Options) *image.RGBA {
	barBounds := bars.Bounds()
	width := barBounds.Dx() + 2*opts.Margin
	height := barBounds.Dy() + 2*opts.Margin

	var caption *image.RGBA
	var captionRect image.Rectangle
	if opts.DisplayValue {
		caption = renderCaption(value)
		scale := float64(opts.FontSize) / float64(caption.Bounds().Dy())
		cw := int(float64(caption.Bounds().Dx()) * scale)
		width = max(width, cw+2*opts.Margin)
		height += captionGap + opts.FontSize
		top := opts.Margin + barBounds.Dy() + captionGap
		left := (width - cw) / 2
		captionRect = image.Rect(left, top, left+cw, top+opts.FontSize)
	}

	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)

	left := (width - barBounds.Dx()) / 2
	barRect := image.Rect(left, opts.Margin, left+barBounds.Dx(), opts.Margin+barBounds.Dy())
	draw.Draw(canvas, barRect, bars, barBounds.Min, draw.Src)

	if caption != nil {
		draw.NearestNeighbor.Scale(canvas, captionRect, caption, caption.Bounds(), draw.Over, nil)
	}
	return canvas
}

// renderCaption draws value in the 7x13 bitmap face on a transparent image
func renderCaption(value string) *image.RGBA {
	face := basicfont.Face7x13
	metrics := face.Metrics()
	w := font.MeasureString(face, value).Ceil()
	h := (metrics.Ascent + metrics.Descent).Ceil()

	img := image.NewRGBA(image.Rect(0, 0, max(w, 1), h))
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.Black),
		Face: face,
		Dot:  fixed.Point26_6{X: 0, Y: metrics.Ascent},
	}
	d.DrawString(value)
	return img
}
