// Package overlay draws graded results on top of the rectified sheet and
// writes the picture to disk.
//
// Bubbles are stroked by annotation class:
//
//	correct-marked     green, 3px
//	incorrect-marked   red, 3px
//	missed-correct     green, 2px
//	ambiguous-correct  yellow, 3px
//	marked             blue, 2px (no answer key)
//
// Files are written to a temporary name in the destination directory and
// renamed into place, so a failed write never leaves a partial image behind.
package overlay

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/ironsheep/omr-grader/internal/geom"
	"github.com/ironsheep/omr-grader/internal/grading"
)

// Stroke is how one annotation class is outlined.
type Stroke struct {
	Color colorful.Color
	Width float64
}

// Palette maps each annotation class to its stroke.
var Palette = map[grading.Class]Stroke{
	grading.CorrectMarked:    {Color: mustHex("#00ff00"), Width: 3},
	grading.IncorrectMarked:  {Color: mustHex("#ff0000"), Width: 3},
	grading.MissedCorrect:    {Color: mustHex("#00ff00"), Width: 2},
	grading.AmbiguousCorrect: {Color: mustHex("#ffff00"), Width: 3},
	grading.Marked:           {Color: mustHex("#1e90ff"), Width: 2},
}

var (
	captionColor = mustHex("#c71585")
	markerColor  = mustHex("#ff8c00")
)

func mustHex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic(fmt.Sprintf("overlay: bad palette color %q: %v", s, err))
	}
	return c
}

func toNRGBA(c colorful.Color) color.NRGBA {
	r, g, b := c.Clamped().RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}

// Render draws res's annotations and a caption onto a color copy of sheet.
// The sheet itself is not modified.
func Render(sheet image.Image, res *grading.Result) *image.NRGBA {
	out := imaging.Clone(sheet)

	for _, a := range res.Annotations() {
		s, ok := Palette[a.Class]
		if !ok {
			continue
		}
		strokeCircle(out, a.Bubble.Center.X, a.Bubble.Center.Y, a.Bubble.Radius, s.Width, toNRGBA(s.Color))
	}

	drawCaption(out, caption(res))
	return out
}

func caption(res *grading.Result) string {
	blank, amb := res.Count()
	text := fmt.Sprintf("%d questions, %d blank, %d ambiguous", res.Total(), blank, amb)
	if res.Score != nil {
		text = fmt.Sprintf("Score %d/%d, %d blank, %d ambiguous", *res.Score, res.Total(), blank, amb)
	}
	if res.SheetID != "" {
		text = res.SheetID + "  " + text
	}
	return text
}

// MarkPoints draws a cross and ring over each point on a color copy of img.
// It is used to show where fiducials were found.
func MarkPoints(img image.Image, pts []geom.Point, radius float64) *image.NRGBA {
	out := imaging.Clone(img)
	c := toNRGBA(markerColor)
	for _, p := range pts {
		strokeCircle(out, p.X, p.Y, radius, 3, c)
		for d := -radius; d <= radius; d++ {
			setPixel(out, int(math.Round(p.X+d)), int(math.Round(p.Y)), c)
			setPixel(out, int(math.Round(p.X)), int(math.Round(p.Y+d)), c)
		}
	}
	return out
}

// strokeCircle paints every pixel whose distance from (cx, cy) is within
// width/2 of r.
func strokeCircle(img *image.NRGBA, cx, cy, r, width float64, c color.NRGBA) {
	inner, outer := r-width/2, r+width/2
	if inner < 0 {
		inner = 0
	}
	in2, out2 := inner*inner, outer*outer

	b := img.Bounds()
	x0 := max(b.Min.X, int(math.Floor(cx-outer)))
	x1 := min(b.Max.X-1, int(math.Ceil(cx+outer)))
	y0 := max(b.Min.Y, int(math.Floor(cy-outer)))
	y1 := min(b.Max.Y-1, int(math.Ceil(cy+outer)))

	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			dx, dy := float64(x)-cx, float64(y)-cy
			if d2 := dx*dx + dy*dy; d2 >= in2 && d2 <= out2 {
				img.SetNRGBA(x, y, c)
			}
		}
	}
}

func setPixel(img *image.NRGBA, x, y int, c color.NRGBA) {
	if image.Pt(x, y).In(img.Bounds()) {
		img.SetNRGBA(x, y, c)
	}
}

// drawCaption writes text on a white band in the top-left corner.
func drawCaption(img *image.NRGBA, text string) {
	face := basicfont.Face7x13
	w := font.MeasureString(face, text).Ceil() + 16
	band := image.Rect(0, 0, w, 24).Intersect(img.Bounds())
	draw.Draw(img, band, image.White, image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(toNRGBA(captionColor)),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(8), Y: fixed.I(17)},
	}
	d.DrawString(text)
}

// Write saves img to path, choosing the format from the extension.
//
// The image is encoded to a temporary file next to path and renamed over
// it; on any failure the temporary file is removed and path is untouched.
func Write(path string, img image.Image) (err error) {
	if _, ferr := imaging.FormatFromFilename(path); ferr != nil {
		return fmt.Errorf("unsupported overlay format %s: %w", filepath.Ext(path), ferr)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".overlay-*"+filepath.Ext(path))
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()

	defer func() {
		if err != nil {
			os.Remove(tmpPath)
		}
	}()

	if err := imaging.Save(img, tmpPath); err != nil {
		return fmt.Errorf("failed to encode overlay: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to move overlay into place: %w", err)
	}
	return nil
}

// Save renders res on sheet and writes it to path.
func Save(path string, sheet image.Image, res *grading.Result) error {
	return Write(path, Render(sheet, res))
}
