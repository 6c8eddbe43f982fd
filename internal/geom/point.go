// Package geom defines the two coordinate spaces used by the grader.
//
// Point is a position in the source photo, in pixels. SheetPoint is a
// position on the canonical (rectified) sheet. They are distinct types so a
// detection coordinate can never be used as a template coordinate by
// accident; the only conversion between them lives in package align.
package geom

import (
	"fmt"
	"math"
)

// Point is a location in source-image pixel coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance returns the Euclidean distance between p and q.
func (p Point) Distance(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

func (p Point) String() string {
	return fmt.Sprintf("(%.1f,%.1f)", p.X, p.Y)
}

// SheetPoint is a location in canonical sheet coordinates.
type SheetPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance returns the Euclidean distance between p and q.
func (p SheetPoint) Distance(q SheetPoint) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

func (p SheetPoint) String() string {
	return fmt.Sprintf("[%.1f,%.1f]", p.X, p.Y)
}
