package grading

import (
	"image"

	"github.com/ironsheep/omr-grader/internal/config"
	"github.com/ironsheep/omr-grader/internal/geom"
)

// newSheet creates a width x height sheet of blank paper.
func newSheet(width, height int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, width, height))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	return img
}

// paintBubble fills the disc of b with intensity v.
func paintBubble(img *image.Gray, b Bubble, v uint8) {
	cx, cy, r := b.Center.X, b.Center.Y, b.Radius
	for y := int(cy - r); y <= int(cy+r); y++ {
		for x := int(cx - r); x <= int(cx+r); x++ {
			dx, dy := float64(x)-cx, float64(y)-cy
			if dx*dx+dy*dy <= r*r && image.Pt(x, y).In(img.Bounds()) {
				img.Pix[y*img.Stride+x] = v
			}
		}
	}
}

// gridTemplate builds questions Q1..Qn with options A..D, 60px apart.
func gridTemplate(n int) Template {
	t := make(Template, n)
	for i := 0; i < n; i++ {
		q := "Q" + itoa(i+1)
		t[q] = make(map[string]Bubble, 4)
		for j, opt := range []string{"A", "B", "C", "D"} {
			t[q][opt] = Bubble{
				Center: geom.SheetPoint{X: float64(50 + 60*j), Y: float64(50 + 60*i)},
				Radius: 18,
			}
		}
	}
	return t
}

func itoa(v int) string {
	if v < 10 {
		return string(rune('0' + v))
	}
	return itoa(v/10) + string(rune('0'+v%10))
}

func scoring() config.Scoring {
	return config.Default().Scoring
}
