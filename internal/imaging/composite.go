package imaging

import (
	"image"
	"image/color"
)

// Strip lays the rasters out left to right on an opaque canvas. The canvas is
// sized from the first member: width w0*len(members), height h0. Each member
// is pasted at the cumulative width of the members before it; pixels falling
// outside the canvas are clipped and alpha is dropped, not composited.
func Strip(members []*Raster) *image.RGBA {
	if len(members) == 0 {
		return image.NewRGBA(image.Rect(0, 0, 0, 0))
	}
	first := members[0]
	canvas := image.NewRGBA(image.Rect(0, 0, first.Width*len(members), first.Height))
	for i := 3; i < len(canvas.Pix); i += 4 {
		canvas.Pix[i] = 0xff
	}

	offset := 0
	for _, m := range members {
		paste(canvas, m, offset)
		offset += m.Width
	}
	return canvas
}

func paste(canvas *image.RGBA, r *Raster, offset int) {
	b := canvas.Bounds()
	for y := 0; y < r.Height && y < b.Max.Y; y++ {
		for x := 0; x < r.Width; x++ {
			cx := offset + x
			if cx >= b.Max.X {
				break
			}
			p := (y*r.Width + x) * r.Channels
			var c color.RGBA
			if r.Channels < 3 {
				g := r.Pix[p]
				c = color.RGBA{R: g, G: g, B: g, A: 0xff}
			} else {
				c = color.RGBA{R: r.Pix[p], G: r.Pix[p+1], B: r.Pix[p+2], A: 0xff}
			}
			canvas.SetRGBA(cx, y, c)
		}
	}
}
