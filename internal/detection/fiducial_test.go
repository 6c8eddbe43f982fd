package detection

import (
	"errors"
	"sort"
	"testing"

	"github.com/ironsheep/omr-grader/internal/config"
	"github.com/ironsheep/omr-grader/internal/geom"
)

func pt(v [2]float64) geom.Point {
	return geom.Point{X: v[0], Y: v[1]}
}

func sortedPoints(pts []geom.Point) []geom.Point {
	out := append([]geom.Point(nil), pts...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].X != out[j].X {
			return out[i].X < out[j].X
		}
		return out[i].Y < out[j].Y
	})
	return out
}

func TestLocateFiducials_FourSquares(t *testing.T) {
	img := newBinary(400, 500)
	fillSquare(img, 20, 20, 40)
	fillSquare(img, 340, 30, 40)
	fillSquare(img, 330, 440, 40)
	fillSquare(img, 25, 430, 40)

	// Clutter that must be ignored: a bubble, a thin rule, a large box, a speck.
	fillDisc(img, 200, 250, 15)
	fillSquare(img, 100, 100, 2)
	for x := 80; x < 300; x++ {
		img.Pix[300*img.Stride+x] = 255
	}
	fillSquare(img, 150, 350, 70)

	got, err := LocateFiducials(img, config.Default().Fiducials)
	if err != nil {
		t.Fatalf("LocateFiducials failed: %v", err)
	}

	want := []geom.Point{{X: 39.5, Y: 39.5}, {X: 44.5, Y: 449.5}, {X: 349.5, Y: 459.5}, {X: 359.5, Y: 49.5}}
	got = sortedPoints(got)
	for i := range want {
		if got[i].Distance(want[i]) > 1e-6 {
			t.Errorf("fiducial %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestLocateFiducials_HollowMarkers(t *testing.T) {
	// Adaptive thresholding hollows out large solid markers.
	img := newBinary(300, 300)
	drawRing(img, 10, 10, 50, 6)
	drawRing(img, 240, 10, 50, 6)
	drawRing(img, 240, 240, 50, 6)
	drawRing(img, 10, 240, 50, 6)

	got, err := LocateFiducials(img, config.Default().Fiducials)
	if err != nil {
		t.Fatalf("LocateFiducials failed: %v", err)
	}
	got = sortedPoints(got)
	if got[0].Distance(geom.Point{X: 34.5, Y: 34.5}) > 1e-6 {
		t.Errorf("first marker center = %v, want (34.5,34.5)", got[0])
	}
}

func TestLocateFiducials_WrongCount(t *testing.T) {
	tests := []struct {
		name    string
		squares [][2]int
		want    int
	}{
		{"none", nil, 0},
		{"three", [][2]int{{20, 20}, {300, 20}, {20, 300}}, 3},
		{"five", [][2]int{{20, 20}, {300, 20}, {20, 300}, {300, 300}, {160, 160}}, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := newBinary(400, 400)
			for _, s := range tt.squares {
				fillSquare(img, s[0], s[1], 40)
			}

			_, err := LocateFiducials(img, config.Default().Fiducials)
			var fce *FiducialCountError
			if !errors.As(err, &fce) {
				t.Fatalf("expected *FiducialCountError, got %v", err)
			}
			if fce.Found != tt.want {
				t.Errorf("Found = %d, want %d", fce.Found, tt.want)
			}
			if len(fce.Candidates) != tt.want {
				t.Errorf("Candidates has %d entries, want %d", len(fce.Candidates), tt.want)
			}
		})
	}
}

func TestFindFiducials_AreaBandIsExclusive(t *testing.T) {
	img := newBinary(200, 100)
	fillSquare(img, 10, 10, 40) // area 1521

	cfg := config.Default().Fiducials
	cfg.MaxArea = 1521
	if got := FindFiducials(img, cfg); len(got) != 0 {
		t.Errorf("area equal to MaxArea accepted")
	}

	cfg = config.Default().Fiducials
	cfg.MinArea = 1521
	if got := FindFiducials(img, cfg); len(got) != 0 {
		t.Errorf("area equal to MinArea accepted")
	}

	cfg.MinArea = 1520
	got := FindFiducials(img, cfg)
	if len(got) != 1 || len(got[0].Vertices) != 4 {
		t.Fatalf("expected one quadrilateral, got %+v", got)
	}
	if got[0].Area != 1521 {
		t.Errorf("Area = %f, want 1521", got[0].Area)
	}
}

func TestFiducialCountError_Message(t *testing.T) {
	err := &FiducialCountError{Found: 2}
	if got, want := err.Error(), "expected 4 fiducials, found 2"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
