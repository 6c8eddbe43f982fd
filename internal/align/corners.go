package align

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ironsheep/omr-grader/internal/geom"
)

// ErrDegenerateCorners is returned when four fiducials cannot be given four
// distinct corner roles.
var ErrDegenerateCorners = errors.New("fiducials do not form four distinct corners")

// Corner indexes a role in Corners.
type Corner int

const (
	TopLeft Corner = iota
	TopRight
	BottomRight
	BottomLeft
)

var cornerNames = [...]string{"top-left", "top-right", "bottom-right", "bottom-left"}

func (c Corner) String() string {
	if c < TopLeft || c > BottomLeft {
		return fmt.Sprintf("Corner(%d)", int(c))
	}
	return cornerNames[c]
}

// Corners holds fiducial centers in role order: TL, TR, BR, BL.
type Corners [4]geom.Point

// At returns the point playing role c.
func (cs Corners) At(c Corner) geom.Point {
	return cs[c]
}

// OrderCorners assigns a corner role to each of exactly four points.
//
// Roles follow from position only:
//
//	top-left     smallest x+y
//	bottom-right largest x+y
//	top-right    smallest y-x
//	bottom-left  largest y-x
//
// The points are sorted by (x, y) first and the first extreme in that order
// wins a tie, so the result never depends on the order of the input. When
// the four picks are not four distinct points (including coincident inputs)
// the error wraps ErrDegenerateCorners.
func OrderCorners(pts []geom.Point) (Corners, error) {
	var cs Corners
	if len(pts) != 4 {
		return cs, fmt.Errorf("%w: need 4 points, got %d", ErrDegenerateCorners, len(pts))
	}

	sorted := append([]geom.Point(nil), pts...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].X != sorted[j].X {
			return sorted[i].X < sorted[j].X
		}
		return sorted[i].Y < sorted[j].Y
	})

	for i := 1; i < len(sorted); i++ {
		if sorted[i] == sorted[i-1] {
			return cs, fmt.Errorf("%w: duplicate point %v", ErrDegenerateCorners, sorted[i])
		}
	}

	sum := func(p geom.Point) float64 { return p.X + p.Y }
	diff := func(p geom.Point) float64 { return p.Y - p.X }

	picks := [4]int{
		TopLeft:     argExtreme(sorted, sum, false),
		TopRight:    argExtreme(sorted, diff, false),
		BottomRight: argExtreme(sorted, sum, true),
		BottomLeft:  argExtreme(sorted, diff, true),
	}

	seen := make(map[int]Corner, 4)
	for role, idx := range picks {
		if prev, dup := seen[idx]; dup {
			return cs, fmt.Errorf("%w: %v is both %s and %s",
				ErrDegenerateCorners, sorted[idx], prev, Corner(role))
		}
		seen[idx] = Corner(role)
		cs[role] = sorted[idx]
	}

	return cs, nil
}

// argExtreme returns the index of the first minimum (or maximum) of key.
func argExtreme(pts []geom.Point, key func(geom.Point) float64, max bool) int {
	best := 0
	for i := 1; i < len(pts); i++ {
		v, b := key(pts[i]), key(pts[best])
		if (max && v > b) || (!max && v < b) {
			best = i
		}
	}
	return best
}
