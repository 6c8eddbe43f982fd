//go:build !gocv

package imaging

import (
	"image"
	"math"

	"github.com/anthonynsimon/bild/histogram"
	"github.com/disintegration/imaging"
)

func adaptiveThreshold(src *image.Gray, blockSize int, bias float64) *image.Gray {
	mean := GaussianBlur(src, blockSize)

	b := src.Bounds()
	out := image.NewGray(b)
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			i := y*src.Stride + x
			if float64(src.Pix[i]) <= float64(mean.Pix[y*mean.Stride+x])-bias {
				out.Pix[y*out.Stride+x] = 255
			}
		}
	}
	return out
}

func equalizeCLAHE(src *image.Gray, clipLimit float64, tiles int) *image.Gray {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()

	tileW := w / tiles
	tileH := h / tiles

	luts := make([][256]uint8, tiles*tiles)
	for ty := 0; ty < tiles; ty++ {
		for tx := 0; tx < tiles; tx++ {
			x0, y0 := tx*tileW, ty*tileH
			x1, y1 := x0+tileW, y0+tileH
			if tx == tiles-1 {
				x1 = w
			}
			if ty == tiles-1 {
				y1 = h
			}
			rect := image.Rect(x0, y0, x1, y1).Add(b.Min)
			hist := histogram.NewRGBAHistogram(imaging.Crop(src, rect)).R.Bins
			luts[ty*tiles+tx] = clippedLUT(hist, rect.Dx()*rect.Dy(), clipLimit)
		}
	}

	out := image.NewGray(b)
	invW := 1 / float64(tileW)
	invH := 1 / float64(tileH)
	for y := 0; y < h; y++ {
		tyf := float64(y)*invH - 0.5
		ty1 := int(math.Floor(tyf))
		ty2 := ty1 + 1
		ya := tyf - float64(ty1)
		ty1 = clamp(ty1, 0, tiles-1)
		ty2 = clamp(ty2, 0, tiles-1)

		for x := 0; x < w; x++ {
			txf := float64(x)*invW - 0.5
			tx1 := int(math.Floor(txf))
			tx2 := tx1 + 1
			xa := txf - float64(tx1)
			tx1 = clamp(tx1, 0, tiles-1)
			tx2 = clamp(tx2, 0, tiles-1)

			v := src.Pix[y*src.Stride+x]
			top := float64(luts[ty1*tiles+tx1][v])*(1-xa) + float64(luts[ty1*tiles+tx2][v])*xa
			bot := float64(luts[ty2*tiles+tx1][v])*(1-xa) + float64(luts[ty2*tiles+tx2][v])*xa
			out.Pix[y*out.Stride+x] = uint8(clamp(int(math.Round(top*(1-ya)+bot*ya)), 0, 255))
		}
	}
	return out
}

// clippedLUT turns one tile histogram into an equalization lookup table.
func clippedLUT(hist []int, area int, clipLimit float64) [256]uint8 {
	var lut [256]uint8
	if area == 0 {
		return lut
	}

	limit := int(clipLimit * float64(area) / 256)
	if limit < 1 {
		limit = 1
	}

	bins := make([]int, 256)
	excess := 0
	for i, n := range hist {
		if n > limit {
			excess += n - limit
			n = limit
		}
		bins[i] = n
	}

	batch := excess / 256
	residual := excess - batch*256
	for i := range bins {
		bins[i] += batch
	}
	if residual > 0 {
		step := 256 / residual
		if step < 1 {
			step = 1
		}
		for i := 0; i < 256 && residual > 0; i += step {
			bins[i]++
			residual--
		}
	}

	scale := 255.0 / float64(area)
	sum := 0
	for i, n := range bins {
		sum += n
		lut[i] = uint8(clamp(int(math.Round(float64(sum)*scale)), 0, 255))
	}
	return lut
}
