//go:build gocv

package detection

import (
	"image"
	"math"

	"gocv.io/x/gocv"

	"github.com/ironsheep/omr-grader/internal/geom"
)

// approximate hands the Douglas-Peucker simplification to OpenCV's
// approxPolyDP. Boundary points are pixel centers, so rounding is exact.
func approximate(pts []geom.Point, epsilon float64) []geom.Point {
	if len(pts) <= 2 {
		return append([]geom.Point(nil), pts...)
	}

	in := make([]image.Point, len(pts))
	for i, p := range pts {
		in[i] = image.Pt(int(math.Round(p.X)), int(math.Round(p.Y)))
	}
	curve := gocv.NewPointVectorFromPoints(in)
	defer curve.Close()

	approx := gocv.ApproxPolyDP(curve, epsilon, true)
	defer approx.Close()

	out := make([]geom.Point, 0, approx.Size())
	for _, p := range approx.ToPoints() {
		out = append(out, geom.Point{X: float64(p.X), Y: float64(p.Y)})
	}
	return out
}
