package imaging

import (
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"io"
	"os"

	"sketchdataset/internal/core/domain"
)

// Raster is a decoded pixel buffer, row-major with interleaved 8-bit samples:
// Pix[(y*Width+x)*Channels+c].
type Raster struct {
	Width    int
	Height   int
	Channels int
	Pix      []uint8
}

// Size returns the raster's pixel size.
func (r *Raster) Size() domain.Size {
	return domain.Size{Width: r.Width, Height: r.Height}
}

// At returns the sample of channel c at (x, y).
func (r *Raster) At(x, y, c int) uint8 {
	return r.Pix[(y*r.Width+x)*r.Channels+c]
}

// Load opens and decodes the image at path.
func Load(path string) (*Raster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrDecode, path, err)
	}
	defer f.Close()

	r, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrDecode, path, err)
	}
	return r, nil
}

// Decode reads an encoded image and converts it to a Raster.
func Decode(r io.Reader) (*Raster, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, err
	}
	return FromImage(img), nil
}

// FromImage converts img to a Raster. The channel count follows the source
// colour model: 1 for grey, 3 for colour without alpha, 4 with alpha.
func FromImage(img image.Image) *Raster {
	b := img.Bounds()
	r := &Raster{
		Width:    b.Dx(),
		Height:   b.Dy(),
		Channels: channelsOf(img),
	}
	r.Pix = make([]uint8, r.Width*r.Height*r.Channels)

	if src, ok := img.(*image.NRGBA); ok && r.Channels == 4 {
		for y := 0; y < r.Height; y++ {
			row := src.Pix[y*src.Stride : y*src.Stride+r.Width*4]
			copy(r.Pix[y*r.Width*4:], row)
		}
		return r
	}

	// 16-bit samples are big-endian; keep the high byte of the stored value.
	if src, ok := img.(*image.NRGBA64); ok {
		i := 0
		for y := 0; y < r.Height; y++ {
			row := src.Pix[y*src.Stride : y*src.Stride+r.Width*8]
			for j := 0; j < len(row); j += 2 {
				r.Pix[i] = row[j]
				i++
			}
		}
		return r
	}

	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			px := img.At(x, y)
			switch r.Channels {
			case 1:
				r.Pix[i] = color.GrayModel.Convert(px).(color.Gray).Y
			default:
				c := color.NRGBAModel.Convert(px).(color.NRGBA)
				r.Pix[i] = c.R
				r.Pix[i+1] = c.G
				r.Pix[i+2] = c.B
				if r.Channels == 4 {
					r.Pix[i+3] = c.A
				}
			}
			i += r.Channels
		}
	}
	return r
}

func channelsOf(img image.Image) int {
	switch m := img.(type) {
	case *image.Gray, *image.Gray16:
		return 1
	case *image.RGBA, *image.RGBA64, *image.YCbCr, *image.CMYK:
		return 3
	case *image.NRGBA, *image.NRGBA64:
		return 4
	case *image.Paletted:
		for _, c := range m.Palette {
			if _, _, _, a := c.RGBA(); a != 0xffff {
				return 4
			}
		}
		return 3
	default:
		return 4
	}
}
