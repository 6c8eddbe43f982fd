package detection

import (
	"image"
	"math"

	"github.com/ironsheep/omr-grader/internal/geom"
)

// Contour is the outer boundary of one 8-connected foreground component.
type Contour struct {
	// Points is the boundary in tracing order (clockwise on screen), one entry
	// per boundary pixel center, in image coordinates.
	Points []geom.Point

	// Bounds is the bounding box of the component (Max exclusive).
	Bounds image.Rectangle

	// Pixels is the number of foreground pixels in the component.
	Pixels int

	sumX, sumY float64
}

// Area is the polygon area enclosed by the boundary (shoelace formula).
// A one-pixel-wide line or a single pixel has zero area.
func (c *Contour) Area() float64 {
	return math.Abs(signedArea(c.Points))
}

// Perimeter is the length of the closed boundary polygon.
func (c *Contour) Perimeter() float64 {
	return arcLength(c.Points, true)
}

// Centroid returns the center of mass of the boundary polygon, computed from
// its first-order moments. Degenerate polygons fall back to the mean of the
// component's pixels.
func (c *Contour) Centroid() geom.Point {
	pts := c.Points
	a := signedArea(pts)
	if math.Abs(a) < 1e-9 {
		return geom.Point{X: c.sumX / float64(c.Pixels), Y: c.sumY / float64(c.Pixels)}
	}

	var cx, cy float64
	n := len(pts)
	for i := 0; i < n; i++ {
		p, q := pts[i], pts[(i+1)%n]
		cross := p.X*q.Y - q.X*p.Y
		cx += (p.X + q.X) * cross
		cy += (p.Y + q.Y) * cross
	}
	return geom.Point{X: cx / (6 * a), Y: cy / (6 * a)}
}

// Approximate simplifies the closed boundary with the Douglas-Peucker
// algorithm. No boundary point lies farther than epsilon from the result.
func (c *Contour) Approximate(epsilon float64) []geom.Point {
	return approximate(c.Points, epsilon)
}

// FindExternalContours returns the outer boundary of every foreground
// component that is not enclosed by another component.
//
// Foreground is any non-zero pixel. Components are 8-connected; background
// is 4-connected, so a component sitting inside the hole of a ring (a mark
// inside a box, say) is treated as nested and skipped.
//
// # Algorithm
//
// Built with the gocv tag, OpenCV's findContours in external mode does the
// work. Otherwise:
//
//  1. Flood the background from the image border to find the outside
//  2. Label foreground components with an iterative flood fill
//  3. Keep components touching the outside or the image edge
//  4. Trace each kept component's boundary with Moore-neighbour tracing,
//     starting from its first pixel in raster order
//
// Contours are returned in raster order of their first pixel.
func FindExternalContours(binary *image.Gray) []*Contour {
	return findContours(binary)
}
