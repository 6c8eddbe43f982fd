package detection

import "github.com/ironsheep/omr-grader/internal/geom"

// signedArea is the shoelace area of a closed polygon. It is positive for
// polygons traced clockwise on screen (y down).
func signedArea(pts []geom.Point) float64 {
	n := len(pts)
	if n < 3 {
		return 0
	}
	var s float64
	for i := 0; i < n; i++ {
		p, q := pts[i], pts[(i+1)%n]
		s += p.X*q.Y - q.X*p.Y
	}
	return s / 2
}

// arcLength sums the segment lengths of a polyline, closing it when closed is set.
func arcLength(pts []geom.Point, closed bool) float64 {
	n := len(pts)
	if n < 2 {
		return 0
	}
	var l float64
	for i := 1; i < n; i++ {
		l += pts[i-1].Distance(pts[i])
	}
	if closed {
		l += pts[n-1].Distance(pts[0])
	}
	return l
}
