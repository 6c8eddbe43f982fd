package detection

import (
	"image"
	"math"
)

// newBinary creates an empty width x height binary map.
func newBinary(width, height int) *image.Gray {
	return image.NewGray(image.Rect(0, 0, width, height))
}

// fillSquare marks a size x size block of ink with its top-left at (x, y).
func fillSquare(img *image.Gray, x, y, size int) {
	for j := y; j < y+size; j++ {
		for i := x; i < x+size; i++ {
			img.Pix[j*img.Stride+i] = 255
		}
	}
}

// drawRing marks the border of a size x size square, thick pixels wide.
func drawRing(img *image.Gray, x, y, size, thick int) {
	for j := y; j < y+size; j++ {
		for i := x; i < x+size; i++ {
			if i < x+thick || i >= x+size-thick || j < y+thick || j >= y+size-thick {
				img.Pix[j*img.Stride+i] = 255
			}
		}
	}
}

// fillDisc marks every pixel within radius r of (cx, cy).
func fillDisc(img *image.Gray, cx, cy, r int) {
	for j := cy - r; j <= cy+r; j++ {
		for i := cx - r; i <= cx+r; i++ {
			if (i-cx)*(i-cx)+(j-cy)*(j-cy) <= r*r {
				img.Pix[j*img.Stride+i] = 255
			}
		}
	}
}

// fillDiamond marks every pixel with |x-cx| + |y-cy| <= r.
func fillDiamond(img *image.Gray, cx, cy, r int) {
	for j := cy - r; j <= cy+r; j++ {
		for i := cx - r; i <= cx+r; i++ {
			if abs(i-cx)+abs(j-cy) <= r {
				img.Pix[j*img.Stride+i] = 255
			}
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}
