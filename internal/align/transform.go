package align

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/ironsheep/omr-grader/internal/geom"
)

// ErrSingularTransform is returned when four correspondences do not define
// an invertible perspective transform, typically because three fiducials
// are collinear.
var ErrSingularTransform = errors.New("perspective transform is singular")

// Transform is a planar homography between photo and sheet coordinates.
//
// Both matrices are row-major 3x3 with the bottom-right entry normalized
// to 1. Forward maps photo to sheet; Inverse maps sheet to photo.
type Transform struct {
	Forward [9]float64 `json:"forward"`
	Inverse [9]float64 `json:"inverse"`
}

// NewTransform solves for the homography that maps src[i] onto dst[i].
//
// Each correspondence contributes two rows of the usual 8x8 direct linear
// system with h33 fixed to 1:
//
//	u = (h11 x + h12 y + h13) / (h31 x + h32 y + 1)
//	v = (h21 x + h22 y + h23) / (h31 x + h32 y + 1)
func NewTransform(src Corners, dst [4]geom.SheetPoint) (*Transform, error) {
	if collinearTriple(src[:]) {
		return nil, fmt.Errorf("%w: three source corners are collinear", ErrSingularTransform)
	}

	A := mat.NewDense(8, 8, nil)
	B := mat.NewVecDense(8, nil)

	for i := 0; i < 4; i++ {
		x, y := src[i].X, src[i].Y
		u, v := dst[i].X, dst[i].Y

		A.SetRow(i*2, []float64{x, y, 1, 0, 0, 0, -u * x, -u * y})
		B.SetVec(i*2, u)

		A.SetRow(i*2+1, []float64{0, 0, 0, x, y, 1, -v * x, -v * y})
		B.SetVec(i*2+1, v)
	}

	var h mat.VecDense
	if err := h.SolveVec(A, B); err != nil && !acceptableCondition(err) {
		return nil, fmt.Errorf("%w: %v", ErrSingularTransform, err)
	}

	t := &Transform{}
	for i := 0; i < 8; i++ {
		t.Forward[i] = h.AtVec(i)
	}
	t.Forward[8] = 1

	fwd := mat.NewDense(3, 3, t.Forward[:])
	var inv mat.Dense
	if err := inv.Inverse(fwd); err != nil && !acceptableCondition(err) {
		return nil, fmt.Errorf("%w: %v", ErrSingularTransform, err)
	}

	scale := inv.At(2, 2)
	if scale == 0 {
		return nil, ErrSingularTransform
	}
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			t.Inverse[r*3+c] = inv.At(r, c) / scale
		}
	}

	for _, v := range append(t.Forward[:], t.Inverse[:]...) {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, ErrSingularTransform
		}
	}

	return t, nil
}

// acceptableCondition reports whether err is only gonum's ill-conditioning
// warning with a finite condition number; the solution is still usable.
func acceptableCondition(err error) bool {
	var c mat.Condition
	return errors.As(err, &c) && !math.IsInf(float64(c), 1)
}

// collinearTriple reports whether any three of the points lie on one line.
func collinearTriple(pts []geom.Point) bool {
	for i := 0; i < len(pts); i++ {
		for j := i + 1; j < len(pts); j++ {
			for k := j + 1; k < len(pts); k++ {
				a, b, c := pts[i], pts[j], pts[k]
				cross := (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
				if math.Abs(cross) < 1e-6 {
					return true
				}
			}
		}
	}
	return false
}

func project(m *[9]float64, x, y float64) (float64, float64) {
	w := m[6]*x + m[7]*y + m[8]
	return (m[0]*x + m[1]*y + m[2]) / w, (m[3]*x + m[4]*y + m[5]) / w
}

// ToSheet maps a photo point into sheet coordinates.
func (t *Transform) ToSheet(p geom.Point) geom.SheetPoint {
	x, y := project(&t.Forward, p.X, p.Y)
	return geom.SheetPoint{X: x, Y: y}
}

// ToSource maps a sheet point back into photo coordinates.
func (t *Transform) ToSource(p geom.SheetPoint) geom.Point {
	x, y := project(&t.Inverse, p.X, p.Y)
	return geom.Point{X: x, Y: y}
}
