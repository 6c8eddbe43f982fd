//go:build !gocv

package detection

import (
	"image"
	"testing"
)

func TestFindExternalContours_Square(t *testing.T) {
	img := newBinary(200, 200)
	fillSquare(img, 100, 100, 40)

	contours := FindExternalContours(img)
	if len(contours) != 1 {
		t.Fatalf("expected 1 contour, got %d", len(contours))
	}
	c := contours[0]

	if c.Pixels != 1600 {
		t.Errorf("Pixels = %d, want 1600", c.Pixels)
	}
	if c.Bounds != image.Rect(100, 100, 140, 140) {
		t.Errorf("Bounds = %v", c.Bounds)
	}
	if len(c.Points) != 156 {
		t.Errorf("boundary has %d points, want 156", len(c.Points))
	}
	if !approxEqual(c.Area(), 1521, 1e-9) {
		t.Errorf("Area = %f, want 1521", c.Area())
	}
	if !approxEqual(c.Perimeter(), 156, 1e-9) {
		t.Errorf("Perimeter = %f, want 156", c.Perimeter())
	}
	if signedArea(c.Points) <= 0 {
		t.Error("boundary should be traced clockwise")
	}

	center := c.Centroid()
	if !approxEqual(center.X, 119.5, 1e-9) || !approxEqual(center.Y, 119.5, 1e-9) {
		t.Errorf("Centroid = %v, want (119.5,119.5)", center)
	}

	if v := c.Approximate(0.02 * c.Perimeter()); len(v) != 4 {
		t.Errorf("square simplified to %d vertices, want 4", len(v))
	}
}

func TestFindExternalContours_SinglePixel(t *testing.T) {
	img := newBinary(10, 10)
	img.Pix[5*img.Stride+3] = 255

	contours := FindExternalContours(img)
	if len(contours) != 1 {
		t.Fatalf("expected 1 contour, got %d", len(contours))
	}
	c := contours[0]
	if len(c.Points) != 1 || c.Area() != 0 {
		t.Errorf("points=%d area=%f, want 1 point and zero area", len(c.Points), c.Area())
	}
	if p := c.Centroid(); p.X != 3 || p.Y != 5 {
		t.Errorf("Centroid = %v, want (3,5)", p)
	}
}

func TestFindExternalContours_TwoPixelLine(t *testing.T) {
	img := newBinary(10, 10)
	img.Pix[2*img.Stride+2] = 255
	img.Pix[2*img.Stride+3] = 255

	c := FindExternalContours(img)[0]
	if len(c.Points) != 2 {
		t.Errorf("boundary has %d points, want 2", len(c.Points))
	}
	if p := c.Centroid(); p.X != 2.5 || p.Y != 2 {
		t.Errorf("Centroid = %v, want (2.5,2)", p)
	}
}

func TestFindExternalContours_SkipsNested(t *testing.T) {
	img := newBinary(200, 200)
	drawRing(img, 50, 50, 80, 4)
	fillSquare(img, 80, 80, 10) // inside the ring's hole
	fillSquare(img, 150, 150, 10)

	contours := FindExternalContours(img)
	if len(contours) != 2 {
		t.Fatalf("expected 2 external contours, got %d", len(contours))
	}
	if contours[0].Bounds != image.Rect(50, 50, 130, 130) {
		t.Errorf("first contour should be the ring, got %v", contours[0].Bounds)
	}
	if contours[1].Bounds != image.Rect(150, 150, 160, 160) {
		t.Errorf("second contour should be the free square, got %v", contours[1].Bounds)
	}
}

func TestFindExternalContours_TouchingEdge(t *testing.T) {
	img := newBinary(50, 50)
	fillSquare(img, 0, 0, 10)
	fillSquare(img, 40, 40, 10)

	if got := len(FindExternalContours(img)); got != 2 {
		t.Errorf("expected 2 contours touching the edges, got %d", got)
	}
}

func TestFindExternalContours_DiagonalConnectivity(t *testing.T) {
	img := newBinary(20, 20)
	for i := 2; i < 12; i++ {
		img.Pix[i*img.Stride+i] = 255
	}

	if got := len(FindExternalContours(img)); got != 1 {
		t.Errorf("diagonal pixels should form one component, got %d", got)
	}
}

func TestFindExternalContours_SubImageOffset(t *testing.T) {
	full := newBinary(100, 100)
	fillSquare(full, 60, 60, 20)
	sub := full.SubImage(image.Rect(50, 50, 100, 100)).(*image.Gray)

	c := FindExternalContours(sub)
	if len(c) != 1 {
		t.Fatalf("expected 1 contour, got %d", len(c))
	}
	if p := c[0].Centroid(); !approxEqual(p.X, 69.5, 1e-9) || !approxEqual(p.Y, 69.5, 1e-9) {
		t.Errorf("Centroid = %v, want coordinates of the parent image", p)
	}
}

func TestFindExternalContours_Empty(t *testing.T) {
	if got := FindExternalContours(newBinary(30, 30)); len(got) != 0 {
		t.Errorf("blank map produced %d contours", len(got))
	}
	if got := FindExternalContours(newBinary(0, 0)); got != nil {
		t.Errorf("zero-size map produced %v", got)
	}
}

func TestApproximate_Diamond(t *testing.T) {
	img := newBinary(100, 100)
	fillDiamond(img, 50, 50, 25)

	c := FindExternalContours(img)[0]
	if !approxEqual(c.Area(), 1250, 1e-9) {
		t.Errorf("Area = %f, want 1250", c.Area())
	}
	if p := c.Centroid(); !approxEqual(p.X, 50, 1e-9) || !approxEqual(p.Y, 50, 1e-9) {
		t.Errorf("Centroid = %v, want (50,50)", p)
	}
	if v := c.Approximate(0.02 * c.Perimeter()); len(v) != 4 {
		t.Errorf("diamond simplified to %d vertices, want 4", len(v))
	}
}

func TestApproximate_DiscIsNotQuadrilateral(t *testing.T) {
	img := newBinary(100, 100)
	fillDisc(img, 50, 50, 15)

	c := FindExternalContours(img)[0]
	if v := c.Approximate(0.02 * c.Perimeter()); len(v) <= 4 {
		t.Errorf("disc simplified to %d vertices, want more than 4", len(v))
	}
}

func TestSegmentDistance(t *testing.T) {
	tests := []struct {
		name    string
		p, a, b [2]float64
		want    float64
	}{
		{"on line", [2]float64{5, 0}, [2]float64{0, 0}, [2]float64{10, 0}, 0},
		{"above horizontal", [2]float64{5, 3}, [2]float64{0, 0}, [2]float64{10, 0}, 3},
		{"beside vertical", [2]float64{-4, 7}, [2]float64{0, 0}, [2]float64{0, 10}, 4},
		{"coincident ends", [2]float64{3, 4}, [2]float64{0, 0}, [2]float64{0, 0}, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := segmentDistance(pt(tt.p), pt(tt.a), pt(tt.b))
			if !approxEqual(got, tt.want, 1e-9) {
				t.Errorf("segmentDistance = %f, want %f", got, tt.want)
			}
		})
	}
}
