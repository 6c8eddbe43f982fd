//go:build !gocv

package align

import (
	"image"
	"math"
)

// warp resamples src through t.Inverse onto a width x height canvas.
func warp(src *image.Gray, t *Transform, width, height int) (*image.Gray, error) {
	dst := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		row := dst.Pix[y*dst.Stride : y*dst.Stride+width]
		for x := range row {
			sx, sy := project(&t.Inverse, float64(x), float64(y))
			row[x] = bilinear(src, sx, sy)
		}
	}
	return dst, nil
}

// bilinear samples src at a fractional position. Neighbours outside the
// image count as black.
func bilinear(src *image.Gray, x, y float64) uint8 {
	if math.IsNaN(x) || math.IsNaN(y) {
		return 0
	}
	b := src.Bounds()
	if x < -1 || y < -1 || x >= float64(b.Dx()) || y >= float64(b.Dy()) {
		return 0
	}

	x0, y0 := int(math.Floor(x)), int(math.Floor(y))
	fx, fy := x-float64(x0), y-float64(y0)

	at := func(px, py int) float64 {
		if px < 0 || py < 0 || px >= b.Dx() || py >= b.Dy() {
			return 0
		}
		return float64(src.Pix[py*src.Stride+px])
	}

	top := at(x0, y0)*(1-fx) + at(x0+1, y0)*fx
	bot := at(x0, y0+1)*(1-fx) + at(x0+1, y0+1)*fx
	v := top*(1-fy) + bot*fy
	return uint8(math.Min(255, math.Max(0, math.Round(v))))
}
