//go:build gocv

package imaging

import (
	"image"

	"gocv.io/x/gocv"
)

func adaptiveThreshold(src *image.Gray, blockSize int, bias float64) *image.Gray {
	in, err := matFromGray(src)
	if err != nil {
		return image.NewGray(src.Bounds())
	}
	defer in.Close()

	out := gocv.NewMat()
	defer out.Close()
	gocv.AdaptiveThreshold(in, &out, 255, gocv.AdaptiveThresholdGaussian, gocv.ThresholdBinaryInv, blockSize, float32(bias))
	return grayFromMat(out, src.Bounds())
}

func equalizeCLAHE(src *image.Gray, clipLimit float64, tiles int) *image.Gray {
	in, err := matFromGray(src)
	if err != nil {
		return cloneGray(src)
	}
	defer in.Close()

	clahe := gocv.NewCLAHEWithParams(clipLimit, image.Pt(tiles, tiles))
	defer clahe.Close()

	out := gocv.NewMat()
	defer out.Close()
	clahe.Apply(in, &out)
	return grayFromMat(out, src.Bounds())
}

// matFromGray copies src into a single-channel Mat, dropping any stride
// padding.
func matFromGray(src *image.Gray) (gocv.Mat, error) {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	pix := make([]byte, w*h)
	for y := 0; y < h; y++ {
		copy(pix[y*w:(y+1)*w], src.Pix[y*src.Stride:y*src.Stride+w])
	}
	return gocv.NewMatFromBytes(h, w, gocv.MatTypeCV8UC1, pix)
}

// grayFromMat copies a single-channel Mat into a gray map with bounds b.
func grayFromMat(m gocv.Mat, b image.Rectangle) *image.Gray {
	out := image.NewGray(b)
	copy(out.Pix, m.ToBytes())
	return out
}
