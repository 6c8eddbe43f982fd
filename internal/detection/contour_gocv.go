//go:build gocv

package detection

import (
	"image"
	"image/color"
	"sort"

	"gocv.io/x/gocv"

	"github.com/ironsheep/omr-grader/internal/geom"
)

func findContours(binary *image.Gray) []*Contour {
	b := binary.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil
	}

	pix := make([]byte, w*h)
	for y := 0; y < h; y++ {
		row := binary.Pix[y*binary.Stride : y*binary.Stride+w]
		for x, v := range row {
			if v != 0 {
				pix[y*w+x] = 255
			}
		}
	}
	src, err := gocv.NewMatFromBytes(h, w, gocv.MatTypeCV8UC1, pix)
	if err != nil {
		return nil
	}
	defer src.Close()

	found := gocv.FindContours(src, gocv.RetrievalExternal, gocv.ChainApproxNone)
	defer found.Close()

	contours := make([]*Contour, 0, found.Size())
	for i := 0; i < found.Size(); i++ {
		raw := found.At(i).ToPoints()
		if len(raw) == 0 {
			continue
		}
		rect := gocv.BoundingRect(found.At(i))

		c := &Contour{
			Points: make([]geom.Point, len(raw)),
			Bounds: rect.Add(b.Min),
		}
		for j, p := range raw {
			c.Points[j] = geom.Point{X: float64(p.X + b.Min.X), Y: float64(p.Y + b.Min.Y)}
		}
		c.Pixels, c.sumX, c.sumY = componentMoments(src, raw, rect)
		c.sumX += float64(b.Min.X * c.Pixels)
		c.sumY += float64(b.Min.Y * c.Pixels)
		contours = append(contours, c)
	}

	// OpenCV starts each chain at the component's first pixel in raster order.
	sort.Slice(contours, func(i, j int) bool {
		p, q := contours[i].Points[0], contours[j].Points[0]
		if p.Y != q.Y {
			return p.Y < q.Y
		}
		return p.X < q.X
	})
	return contours
}

// componentMoments counts the foreground pixels inside one external
// contour and sums their coordinates. Holes are excluded by masking the
// filled outline with the source.
func componentMoments(src gocv.Mat, outline []image.Point, rect image.Rectangle) (pixels int, sumX, sumY float64) {
	shifted := make([]image.Point, len(outline))
	for i, p := range outline {
		shifted[i] = p.Sub(rect.Min)
	}
	pv := gocv.NewPointsVectorFromPoints([][]image.Point{shifted})
	defer pv.Close()

	mask := gocv.Zeros(rect.Dy(), rect.Dx(), gocv.MatTypeCV8UC1)
	defer mask.Close()
	gocv.DrawContours(&mask, pv, 0, color.RGBA{R: 255, G: 255, B: 255, A: 255}, -1)

	roi := src.Region(rect)
	defer roi.Close()
	gocv.BitwiseAnd(mask, roi, &mask)

	m := gocv.Moments(mask, true)
	pixels = int(m["m00"] + 0.5)
	sumX = m["m10"] + float64(rect.Min.X)*m["m00"]
	sumY = m["m01"] + float64(rect.Min.Y)*m["m00"]
	return pixels, sumX, sumY
}
