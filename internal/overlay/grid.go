package overlay

import (
	"fmt"
	"image"
	"image/draw"

	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// DefaultGridColor is used when Grid is given an empty color.
const DefaultGridColor = "#ff0000"

// Grid draws a coordinate grid every spacing pixels over a color copy of
// img. With labels set, each intersection is tagged with its "x,y" so that
// bubble centers can be read off a rectified sheet when authoring a
// template.
func Grid(img image.Image, spacing int, labels bool, hex string) (*image.NRGBA, error) {
	if spacing < 1 {
		return nil, fmt.Errorf("grid spacing must be positive, got %d", spacing)
	}
	if hex == "" {
		hex = DefaultGridColor
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return nil, fmt.Errorf("invalid grid color %q: %w", hex, err)
	}
	line := toNRGBA(c)

	out := imaging.Clone(img)
	b := out.Bounds()

	for x := b.Min.X + spacing; x < b.Max.X; x += spacing {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			out.SetNRGBA(x, y, line)
		}
	}
	for y := b.Min.Y + spacing; y < b.Max.Y; y += spacing {
		for x := b.Min.X; x < b.Max.X; x++ {
			out.SetNRGBA(x, y, line)
		}
	}

	if labels {
		face := basicfont.Face7x13
		for y := b.Min.Y + spacing; y < b.Max.Y; y += spacing {
			for x := b.Min.X + spacing; x < b.Max.X; x += spacing {
				drawLabel(out, face, x+2, y+2, fmt.Sprintf("%d,%d", x, y))
			}
		}
	}

	return out, nil
}

// drawLabel writes white text on a black box whose top-left corner is (x, y).
func drawLabel(img *image.NRGBA, face font.Face, x, y int, text string) {
	w := font.MeasureString(face, text).Ceil()
	m := face.Metrics()
	h := (m.Ascent + m.Descent).Ceil()

	box := image.Rect(x, y, x+w+2, y+h+2).Intersect(img.Bounds())
	draw.Draw(img, box, image.Black, image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.White,
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(x + 1), Y: fixed.I(y+1) + m.Ascent},
	}
	d.DrawString(text)
}
