package imaging

// DefaultThreshold is the MSE below which two artboards count as the same.
const DefaultThreshold = 500.0

// Comparator decides whether two rasters show the same artboard.
type Comparator struct {
	Threshold float64
}

// NewComparator returns a comparator using DefaultThreshold.
func NewComparator() Comparator {
	return Comparator{Threshold: DefaultThreshold}
}

// Similar reports whether MSE(a, b) is strictly below the threshold.
func (c Comparator) Similar(a, b *Raster) bool {
	return MSE(a, b) < c.Threshold
}

// Similar compares with DefaultThreshold.
func Similar(a, b *Raster) bool {
	return NewComparator().Similar(a, b)
}

// MSE is the mean squared error over the largest top-left region both
// rasters share: the minimum of each dimension and of the channel count.
// Images that differ only in an alpha channel are compared on colour alone.
// An empty overlap has MSE 0.
func MSE(a, b *Raster) float64 {
	h := min(a.Height, b.Height)
	w := min(a.Width, b.Width)
	ch := min(a.Channels, b.Channels)
	if h == 0 || w == 0 || ch == 0 {
		return 0
	}

	var sum float64
	for y := 0; y < h; y++ {
		ra := y * a.Width * a.Channels
		rb := y * b.Width * b.Channels
		for x := 0; x < w; x++ {
			pa := ra + x*a.Channels
			pb := rb + x*b.Channels
			for c := 0; c < ch; c++ {
				d := float64(a.Pix[pa+c]) - float64(b.Pix[pb+c])
				sum += d * d
			}
		}
	}
	return sum / float64(h*w*ch)
}
