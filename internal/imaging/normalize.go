package imaging

import (
	"image"
	"math"

	"github.com/anthonynsimon/bild/convolution"
	"github.com/disintegration/imaging"

	"github.com/ironsheep/omr-grader/internal/config"
)

// Normalized holds the two maps every later stage reads.
type Normalized struct {
	// Gray is the luminance of the source, unfiltered. Fill scores are
	// measured on it after rectification.
	Gray *image.Gray

	// Binary marks dark ink as 255 and paper as 0. Marker detection runs on it.
	Binary *image.Gray
}

// Normalize converts a decoded photo into its grayscale and binary maps.
//
// # Pipeline
//
//  1. Luminance: ITU-R BT.601 weights (0.299*R + 0.587*G + 0.114*B)
//  2. Gaussian blur with a BlurKernel x BlurKernel kernel
//  3. Optional CLAHE to flatten uneven lighting
//  4. Adaptive threshold, inverted so that ink is foreground
//
// The source image is never modified.
func Normalize(img image.Image, cfg config.Normalize) *Normalized {
	gray := ToGray(img)

	smoothed := GaussianBlur(gray, cfg.BlurKernel)
	if cfg.EqualizeCLAHE {
		smoothed = EqualizeCLAHE(smoothed, cfg.ClipLimit, cfg.TileGrid)
	}

	return &Normalized{
		Gray:   gray,
		Binary: AdaptiveThreshold(smoothed, cfg.BlockSize, cfg.Bias),
	}
}

// ToGray returns the luminance of img as a new *image.Gray with its origin at (0,0).
func ToGray(img image.Image) *image.Gray {
	lum := imaging.Grayscale(img)
	b := lum.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		src := lum.Pix[y*lum.Stride : y*lum.Stride+b.Dx()*4]
		dst := out.Pix[y*out.Stride : y*out.Stride+b.Dx()]
		for x := range dst {
			dst[x] = src[x*4]
		}
	}
	return out
}

// gaussianKernel builds a normalized 1-D Gaussian kernel of odd length size.
//
// Sigma follows the rule OpenCV uses when sigma is left at zero:
//
//	sigma = 0.3*((size-1)*0.5 - 1) + 0.8
//
// so a 5-tap kernel has sigma 1.1 and a 25-tap kernel sigma 4.1.
func gaussianKernel(size int) convolution.Matrix {
	sigma := 0.3*(float64(size-1)*0.5-1) + 0.8
	k := convolution.NewKernel(size, 1)
	c := float64(size / 2)
	for i := 0; i < size; i++ {
		d := float64(i) - c
		k.Matrix[i] = math.Exp(-(d * d) / (2 * sigma * sigma))
	}
	return k.Normalized()
}

// GaussianBlur smooths src with a separable size x size Gaussian.
// Borders replicate the edge pixels. A size of 1 returns a copy.
func GaussianBlur(src *image.Gray, size int) *image.Gray {
	if size <= 1 {
		return cloneGray(src)
	}
	k := gaussianKernel(size)
	opts := &convolution.Options{Bias: 0, Wrap: false, KeepAlpha: true}

	pass := convolution.Convolve(src, k, opts)
	pass = convolution.Convolve(pass, k.Transposed(), opts)
	return redChannel(pass)
}

// AdaptiveThreshold binarizes src against a Gaussian-weighted local mean.
//
// A pixel becomes foreground (255) when its value is at most mean-bias, where
// mean is taken over a blockSize x blockSize neighbourhood. Dark marks on
// light paper therefore come out white regardless of the overall exposure.
// Built with the gocv tag this is OpenCV's adaptiveThreshold with the same
// parameters.
func AdaptiveThreshold(src *image.Gray, blockSize int, bias float64) *image.Gray {
	return adaptiveThreshold(src, blockSize, bias)
}

// EqualizeCLAHE applies contrast-limited adaptive histogram equalization.
//
// The image is divided into tiles x tiles regions. Each region's histogram is
// clipped at clipLimit times its mean bin height, the clipped excess is
// spread evenly over all bins, and the resulting cumulative distribution
// becomes that region's lookup table. Pixels blend the tables of the four
// nearest region centers bilinearly, which removes tile seams. Built with
// the gocv tag the equalization is OpenCV's CLAHE.
//
// Images smaller than the tile grid are returned as a copy.
func EqualizeCLAHE(src *image.Gray, clipLimit float64, tiles int) *image.Gray {
	b := src.Bounds()
	if tiles < 1 || b.Dx() < tiles || b.Dy() < tiles {
		return cloneGray(src)
	}
	return equalizeCLAHE(src, clipLimit, tiles)
}

// redChannel copies the R channel of an RGBA produced by bild into a gray map.
func redChannel(src *image.RGBA) *image.Gray {
	b := src.Bounds()
	out := image.NewGray(b)
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			out.Pix[y*out.Stride+x] = src.Pix[y*src.Stride+x*4]
		}
	}
	return out
}

func cloneGray(src *image.Gray) *image.Gray {
	b := src.Bounds()
	out := image.NewGray(b)
	for y := 0; y < b.Dy(); y++ {
		copy(out.Pix[y*out.Stride:y*out.Stride+b.Dx()], src.Pix[y*src.Stride:y*src.Stride+b.Dx()])
	}
	return out
}

// clamp constrains an integer value to the range [min, max].
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
