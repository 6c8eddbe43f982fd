package grading

import (
	"image"
	"math"

	"gonum.org/v1/gonum/stat"
)

// FillScore measures how dark a bubble's interior is on a rectified sheet.
//
// Only pixels whose centers lie within innerScale*Radius of the bubble
// center are sampled, which keeps the printed outline out of the average.
// The score is 1 - mean/255: 0 for blank paper, 1 for solid ink.
//
// A circle that encloses no pixel of the sheet is reported as a
// *DegenerateBubbleError rather than scored.
func FillScore(sheet *image.Gray, b Bubble, innerScale float64) (float64, error) {
	r := b.Radius * innerScale
	if r <= 0 || math.IsNaN(r) {
		return 0, &DegenerateBubbleError{Bubble: b}
	}

	bounds := sheet.Bounds()
	cx, cy := b.Center.X, b.Center.Y
	x0 := max(bounds.Min.X, int(math.Ceil(cx-r)))
	x1 := min(bounds.Max.X-1, int(math.Floor(cx+r)))
	y0 := max(bounds.Min.Y, int(math.Ceil(cy-r)))
	y1 := min(bounds.Max.Y-1, int(math.Floor(cy+r)))

	samples := make([]float64, 0, int(math.Pi*r*r)+4)
	r2 := r * r
	for y := y0; y <= y1; y++ {
		dy := float64(y) - cy
		for x := x0; x <= x1; x++ {
			dx := float64(x) - cx
			if dx*dx+dy*dy <= r2 {
				samples = append(samples, float64(sheet.GrayAt(x, y).Y))
			}
		}
	}

	if len(samples) == 0 {
		return 0, &DegenerateBubbleError{Bubble: b}
	}

	return 1 - stat.Mean(samples, nil)/255, nil
}
