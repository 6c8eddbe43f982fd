//go:build !gocv

package detection

import (
	"image"

	"github.com/ironsheep/omr-grader/internal/geom"
)

func findContours(binary *image.Gray) []*Contour {
	b := binary.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil
	}

	fg := make([]bool, w*h)
	for y := 0; y < h; y++ {
		row := binary.Pix[y*binary.Stride : y*binary.Stride+w]
		for x, v := range row {
			fg[y*w+x] = v != 0
		}
	}

	outside := floodOutside(fg, w, h)
	labels := make([]int32, w*h)
	contours := make([]*Contour, 0)
	next := int32(0)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			if !fg[i] || labels[i] != 0 {
				continue
			}
			next++
			c, external := floodFill(fg, outside, labels, next, x, y, w, h)
			if !external {
				continue
			}
			c.Points = traceBoundary(fg, x, y, w, h, b.Min)
			c.Bounds = c.Bounds.Add(b.Min)
			c.sumX += float64(b.Min.X * c.Pixels)
			c.sumY += float64(b.Min.Y * c.Pixels)
			contours = append(contours, c)
		}
	}

	return contours
}

// floodOutside marks the background reachable from the image border through
// 4-connected background pixels.
func floodOutside(fg []bool, w, h int) []bool {
	outside := make([]bool, w*h)
	stack := make([]int, 0, 2*(w+h))

	push := func(x, y int) {
		i := y*w + x
		if !fg[i] && !outside[i] {
			outside[i] = true
			stack = append(stack, i)
		}
	}
	for x := 0; x < w; x++ {
		push(x, 0)
		push(x, h-1)
	}
	for y := 0; y < h; y++ {
		push(0, y)
		push(w-1, y)
	}

	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := i%w, i/w
		if x > 0 {
			push(x-1, y)
		}
		if x < w-1 {
			push(x+1, y)
		}
		if y > 0 {
			push(x, y-1)
		}
		if y < h-1 {
			push(x, y+1)
		}
	}
	return outside
}

// floodFill labels one 8-connected component starting at (startX, startY).
//
// Uses an explicit stack rather than recursion so large blobs cannot
// overflow the goroutine stack. The component is external when any of its
// pixels lies on the image edge or 4-touches the outside background.
func floodFill(fg, outside []bool, labels []int32, label int32, startX, startY, w, h int) (*Contour, bool) {
	c := &Contour{Bounds: image.Rect(startX, startY, startX+1, startY+1)}
	external := false

	stack := []image.Point{{X: startX, Y: startY}}
	labels[startY*w+startX] = label

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		c.Pixels++
		c.sumX += float64(p.X)
		c.sumY += float64(p.Y)
		c.Bounds = c.Bounds.Union(image.Rect(p.X, p.Y, p.X+1, p.Y+1))

		if p.X == 0 || p.Y == 0 || p.X == w-1 || p.Y == h-1 {
			external = true
		}

		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				nx, ny := p.X+dx, p.Y+dy
				if nx < 0 || nx >= w || ny < 0 || ny >= h {
					continue
				}
				j := ny*w + nx
				if !fg[j] {
					if (dx == 0 || dy == 0) && outside[j] {
						external = true
					}
					continue
				}
				if labels[j] == 0 {
					labels[j] = label
					stack = append(stack, image.Point{X: nx, Y: ny})
				}
			}
		}
	}

	return c, external
}

// Clockwise neighbour offsets with y pointing down: E, SE, S, SW, W, NW, N, NE.
var moore = [8]image.Point{
	{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1},
}

func mooreIndex(d image.Point) int {
	for i, m := range moore {
		if m == d {
			return i
		}
	}
	return -1
}

// traceBoundary walks the outer boundary of the component whose first pixel
// in raster order is (sx, sy). The walk ends when it re-enters the start
// pixel heading for the same second pixel (Jacob's stopping criterion).
func traceBoundary(fg []bool, sx, sy, w, h int, origin image.Point) []geom.Point {
	isFG := func(p image.Point) bool {
		return p.X >= 0 && p.X < w && p.Y >= 0 && p.Y < h && fg[p.Y*w+p.X]
	}
	toGeom := func(p image.Point) geom.Point {
		return geom.Point{X: float64(p.X + origin.X), Y: float64(p.Y + origin.Y)}
	}

	start := image.Point{X: sx, Y: sy}
	points := []geom.Point{toGeom(start)}

	// The raster-first pixel always has background to its west.
	cur, back := start, 4
	var second image.Point
	limit := 4*w*h + 8

	for step := 0; step < limit; step++ {
		found := false
		var next image.Point
		var nextBack int
		for i := 1; i <= 8; i++ {
			cand := cur.Add(moore[(back+i)%8])
			if isFG(cand) {
				prev := cur.Add(moore[(back+i-1)%8])
				next, nextBack = cand, mooreIndex(prev.Sub(cand))
				found = true
				break
			}
		}
		if !found {
			return points // isolated pixel
		}

		if step == 0 {
			second = next
		} else if cur == start && next == second {
			break
		}

		cur, back = next, nextBack
		points = append(points, toGeom(cur))
	}

	// The walk re-appends the start pixel before it detects the loop.
	if len(points) > 1 && points[len(points)-1] == points[0] {
		points = points[:len(points)-1]
	}
	return points
}
