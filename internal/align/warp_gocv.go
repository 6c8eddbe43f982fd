//go:build gocv

package align

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// warp hands the resampling to OpenCV's warpPerspective with the forward
// matrix; OpenCV inverts it internally.
func warp(src *image.Gray, t *Transform, width, height int) (*image.Gray, error) {
	b := src.Bounds()
	pix := make([]byte, b.Dx()*b.Dy())
	for y := 0; y < b.Dy(); y++ {
		copy(pix[y*b.Dx():(y+1)*b.Dx()], src.Pix[y*src.Stride:y*src.Stride+b.Dx()])
	}

	in, err := gocv.NewMatFromBytes(b.Dy(), b.Dx(), gocv.MatTypeCV8UC1, pix)
	if err != nil {
		return nil, fmt.Errorf("failed to wrap source image: %w", err)
	}
	defer in.Close()

	m := gocv.NewMatWithSize(3, 3, gocv.MatTypeCV64F)
	defer m.Close()
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			m.SetDoubleAt(r, c, t.Forward[r*3+c])
		}
	}

	out := gocv.NewMat()
	defer out.Close()
	gocv.WarpPerspective(in, &out, m, image.Pt(width, height))

	dst := image.NewGray(image.Rect(0, 0, width, height))
	copy(dst.Pix, out.ToBytes())
	return dst, nil
}
