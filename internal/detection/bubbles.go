package detection

import (
	"image"
	"math"
	"sort"

	"github.com/ironsheep/omr-grader/internal/geom"
)

// BubbleParams configures automatic bubble discovery.
type BubbleParams struct {
	MinArea        float64 `json:"min_area"`        // exclusive, px²
	MaxArea        float64 `json:"max_area"`        // exclusive, px²
	MinCircularity float64 `json:"min_circularity"` // 4πA/P², 1.0 for a perfect disc
}

// DefaultBubbleParams matches bubbles printed at roughly 200 DPI.
func DefaultBubbleParams() BubbleParams {
	return BubbleParams{MinArea: 200, MaxArea: 2000, MinCircularity: 0.6}
}

// BubbleCandidate is a roughly circular outline found on a binary map.
type BubbleCandidate struct {
	// Center is the center of the bounding box.
	Center geom.Point `json:"center"`

	// Radius is half the larger bounding box side.
	Radius float64 `json:"radius"`

	Area        float64 `json:"area"`
	Circularity float64 `json:"circularity"`
}

// DetectBubbles lists round outlines that could be answer bubbles.
//
// It is an authoring aid for building templates from a blank, rectified
// sheet: it reports positions only and makes no filled/empty decision.
// Strokes of text and long lines are rejected by the circularity test;
// solid squares score π/4 and still pass, so corner markers of bubble size
// show up in the list.
//
// Results are sorted top-to-bottom, then left-to-right.
func DetectBubbles(binary *image.Gray, p BubbleParams) []BubbleCandidate {
	out := make([]BubbleCandidate, 0)

	for _, c := range FindExternalContours(binary) {
		area := c.Area()
		if area <= p.MinArea || area >= p.MaxArea {
			continue
		}

		perimeter := c.Perimeter()
		if perimeter == 0 {
			continue
		}

		circularity := 4 * math.Pi * area / (perimeter * perimeter)
		if circularity < p.MinCircularity {
			continue
		}

		w, h := c.Bounds.Dx(), c.Bounds.Dy()
		out = append(out, BubbleCandidate{
			Center: geom.Point{
				X: float64(c.Bounds.Min.X + w/2),
				Y: float64(c.Bounds.Min.Y + h/2),
			},
			Radius:      float64(max(w, h) / 2),
			Area:        area,
			Circularity: circularity,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Center.Y != out[j].Center.Y {
			return out[i].Center.Y < out[j].Center.Y
		}
		return out[i].Center.X < out[j].Center.X
	})

	return out
}
