package detection

import (
	"fmt"
	"image"
	"math"

	"github.com/ironsheep/omr-grader/internal/config"
	"github.com/ironsheep/omr-grader/internal/geom"
)

// FiducialCount is the number of corner markers every sheet carries.
const FiducialCount = 4

// Fiducial is one accepted corner marker.
type Fiducial struct {
	// Center is the first-moment centroid of the marker outline.
	Center geom.Point `json:"center"`

	// Area is the area enclosed by the outer boundary in square pixels.
	Area float64 `json:"area"`

	// Vertices is the simplified quadrilateral, in tracing order.
	Vertices []geom.Point `json:"vertices"`
}

// FiducialCountError is returned when a sheet does not show exactly four
// corner markers. Found is the number of candidates that passed the filters.
type FiducialCountError struct {
	Found      int
	Candidates []geom.Point
}

func (e *FiducialCountError) Error() string {
	return fmt.Sprintf("expected %d fiducials, found %d", FiducialCount, e.Found)
}

// FindFiducials returns every external contour that looks like a corner
// marker: its area lies strictly between cfg.MinArea and cfg.MaxArea and
// its outline simplifies to exactly four vertices at a tolerance of
// cfg.EpsilonPercent of its perimeter.
//
// Candidates come back in raster order of their topmost pixel.
func FindFiducials(binary *image.Gray, cfg config.Fiducials) []Fiducial {
	found := make([]Fiducial, 0, FiducialCount)

	for _, c := range FindExternalContours(binary) {
		area := c.Area()
		if area <= cfg.MinArea || area >= cfg.MaxArea {
			continue
		}

		approx := c.Approximate(cfg.EpsilonPercent * c.Perimeter())
		if len(approx) != 4 {
			continue
		}

		found = append(found, Fiducial{
			Center:   c.Centroid(),
			Area:     area,
			Vertices: approx,
		})
	}

	return found
}

// LocateFiducials returns the centers of the four corner markers on a
// binary sheet map (255 = ink). Any other number of candidates is reported
// as a *FiducialCountError, never silently accepted.
//
// The returned order carries no meaning; align.OrderCorners assigns roles.
func LocateFiducials(binary *image.Gray, cfg config.Fiducials) ([]geom.Point, error) {
	found := FindFiducials(binary, cfg)

	centers := make([]geom.Point, len(found))
	for i, f := range found {
		centers[i] = f.Center
	}

	if len(found) != FiducialCount {
		return nil, &FiducialCountError{Found: len(found), Candidates: centers}
	}

	for _, p := range centers {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) {
			return nil, fmt.Errorf("fiducial centroid is not finite: %v", p)
		}
	}

	return centers, nil
}
