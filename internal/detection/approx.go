//go:build !gocv

package detection

import (
	"math"

	"github.com/ironsheep/omr-grader/internal/geom"
)

func approximate(pts []geom.Point, epsilon float64) []geom.Point {
	return approxPolyClosed(pts, epsilon)
}

// approxPolyClosed simplifies a closed polygon with Douglas-Peucker.
//
// The ring is split at two mutually distant points, which are always kept,
// and each half is simplified as an open chain.
func approxPolyClosed(pts []geom.Point, epsilon float64) []geom.Point {
	n := len(pts)
	if n <= 2 {
		return append([]geom.Point(nil), pts...)
	}

	a := farthestFrom(pts, 0)
	b := farthestFrom(pts, a)
	if a == b {
		return []geom.Point{pts[a]}
	}

	chain := func(from, to int) []geom.Point {
		out := make([]geom.Point, 0, n)
		for i := from; ; i = (i + 1) % n {
			out = append(out, pts[i])
			if i == to {
				break
			}
		}
		return out
	}

	first := simplify(chain(a, b), epsilon)
	second := simplify(chain(b, a), epsilon)

	out := make([]geom.Point, 0, len(first)+len(second)-2)
	out = append(out, first[:len(first)-1]...)
	out = append(out, second[:len(second)-1]...)
	return out
}

func farthestFrom(pts []geom.Point, i int) int {
	best, bestD := i, -1.0
	for j, p := range pts {
		if d := p.Distance(pts[i]); d > bestD {
			best, bestD = j, d
		}
	}
	return best
}

// simplify runs Douglas-Peucker on an open chain, keeping both endpoints.
func simplify(pts []geom.Point, epsilon float64) []geom.Point {
	if len(pts) <= 2 {
		return pts
	}

	first, last := pts[0], pts[len(pts)-1]
	idx, maxD := 0, 0.0
	for i := 1; i < len(pts)-1; i++ {
		if d := segmentDistance(pts[i], first, last); d > maxD {
			idx, maxD = i, d
		}
	}

	if maxD <= epsilon {
		return []geom.Point{first, last}
	}

	left := simplify(pts[:idx+1], epsilon)
	right := simplify(pts[idx:], epsilon)
	return append(append([]geom.Point(nil), left[:len(left)-1]...), right...)
}

// segmentDistance is the distance from p to the line through a and b, or to
// a itself when a and b coincide.
func segmentDistance(p, a, b geom.Point) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	l := math.Hypot(dx, dy)
	if l == 0 {
		return p.Distance(a)
	}
	return math.Abs(dy*p.X-dx*p.Y+b.X*a.Y-b.Y*a.X) / l
}
