package overlay

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/omr-grader/internal/config"
	"github.com/ironsheep/omr-grader/internal/geom"
	"github.com/ironsheep/omr-grader/internal/grading"
)

// gradedSheet builds a two-question sheet: Q1 marked correctly, Q2 marked
// wrongly, Q3 left blank.
func gradedSheet(t *testing.T, key grading.AnswerKey) (*image.Gray, grading.Template, *grading.Result) {
	t.Helper()

	tmpl := grading.Template{}
	for i, q := range []string{"Q1", "Q2", "Q3"} {
		tmpl[q] = map[string]grading.Bubble{}
		for j, opt := range []string{"A", "B"} {
			tmpl[q][opt] = grading.Bubble{
				Center: geom.SheetPoint{X: float64(60 + 80*j), Y: float64(60 + 80*i)},
				Radius: 20,
			}
		}
	}

	sheet := image.NewGray(image.Rect(0, 0, 240, 280))
	for i := range sheet.Pix {
		sheet.Pix[i] = 255
	}
	for _, b := range []grading.Bubble{tmpl["Q1"]["A"], tmpl["Q2"]["B"]} {
		for y := int(b.Center.Y) - 15; y <= int(b.Center.Y)+15; y++ {
			for x := int(b.Center.X) - 15; x <= int(b.Center.X)+15; x++ {
				sheet.Pix[y*sheet.Stride+x] = 0
			}
		}
	}

	e, err := grading.NewEngine(tmpl, key, config.Default().Scoring)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	res, err := e.Grade(sheet)
	if err != nil {
		t.Fatalf("Grade failed: %v", err)
	}
	return sheet, tmpl, res
}

func rgb(c color.Color) [3]uint8 {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return [3]uint8{n.R, n.G, n.B}
}

func TestRender_ClassColors(t *testing.T) {
	sheet, tmpl, res := gradedSheet(t, grading.AnswerKey{"Q1": "A", "Q2": "A", "Q3": "B"})
	out := Render(sheet, res)

	ringPixel := func(q, opt string) [3]uint8 {
		b := tmpl[q][opt]
		return rgb(out.At(int(b.Center.X+b.Radius), int(b.Center.Y)))
	}

	tests := []struct {
		name   string
		q, opt string
		want   [3]uint8
	}{
		{"correct marked", "Q1", "A", [3]uint8{0, 255, 0}},
		{"incorrect marked", "Q2", "B", [3]uint8{255, 0, 0}},
		{"missed correct", "Q3", "B", [3]uint8{0, 255, 0}},
		{"unannotated", "Q1", "B", [3]uint8{255, 255, 255}},
		{"key answer on wrong row", "Q2", "A", [3]uint8{255, 255, 255}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ringPixel(tt.q, tt.opt); got != tt.want {
				t.Errorf("%s/%s ring = %v, want %v", tt.q, tt.opt, got, tt.want)
			}
		})
	}

	if rgb(sheet.At(80, 60)) != [3]uint8{255, 255, 255} {
		t.Error("source sheet was modified")
	}
}

func TestRender_AmbiguousIsYellow(t *testing.T) {
	tmpl := grading.Template{"Q1": {
		"A": {Center: geom.SheetPoint{X: 50, Y: 50}, Radius: 20},
		"B": {Center: geom.SheetPoint{X: 130, Y: 50}, Radius: 20},
	}}
	sheet := image.NewGray(image.Rect(0, 0, 200, 100))
	for i := range sheet.Pix {
		sheet.Pix[i] = 255
	}
	for y := 35; y <= 65; y++ {
		for x := 35; x <= 145; x++ {
			sheet.Pix[y*sheet.Stride+x] = 0
		}
	}

	e, err := grading.NewEngine(tmpl, grading.AnswerKey{"Q1": "B"}, config.Default().Scoring)
	if err != nil {
		t.Fatal(err)
	}
	res, err := e.Grade(sheet)
	if err != nil {
		t.Fatal(err)
	}
	if res.Selections["Q1"] != grading.Ambiguous {
		t.Fatalf("expected ambiguous row, got %s", res.Selections["Q1"])
	}

	out := Render(sheet, res)
	if got := rgb(out.At(150, 50)); got != [3]uint8{255, 255, 0} {
		t.Errorf("ambiguous ring = %v, want yellow", got)
	}
}

func TestCaption(t *testing.T) {
	_, _, keyed := gradedSheet(t, grading.AnswerKey{"Q1": "A", "Q2": "A", "Q3": "B"})
	if got := caption(keyed); !strings.HasPrefix(got, "Score 1/3") {
		t.Errorf("caption = %q", got)
	}

	_, _, unkeyed := gradedSheet(t, nil)
	if got := caption(unkeyed); !strings.HasPrefix(got, "3 questions") {
		t.Errorf("caption = %q", got)
	}
}

func TestMarkPoints(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 100, 100))
	out := MarkPoints(img, []geom.Point{{X: 50, Y: 50}, {X: 98, Y: 2}}, 10)

	if got := rgb(out.At(50, 50)); got != [3]uint8{255, 140, 0} {
		t.Errorf("marker center = %v, want dark orange", got)
	}
	if got := rgb(out.At(20, 80)); got != [3]uint8{0, 0, 0} {
		t.Errorf("unmarked pixel = %v, want black", got)
	}
}

func TestWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "graded.png")
	sheet, _, res := gradedSheet(t, grading.AnswerKey{"Q1": "A", "Q2": "A", "Q3": "B"})

	if err := Save(path, sheet, res); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	img, err := imaging.Open(path)
	if err != nil {
		t.Fatalf("overlay not readable: %v", err)
	}
	if img.Bounds().Dx() != 240 || img.Bounds().Dy() != 280 {
		t.Errorf("overlay bounds = %v", img.Bounds())
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("expected only the overlay in %s, found %d entries", dir, len(entries))
	}
}

func TestWrite_Failures(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 10, 10))

	t.Run("unsupported extension", func(t *testing.T) {
		dir := t.TempDir()
		if err := Write(filepath.Join(dir, "graded.xyz"), img); err == nil {
			t.Error("expected error for unsupported extension")
		}
		if entries, _ := os.ReadDir(dir); len(entries) != 0 {
			t.Errorf("left %d files behind", len(entries))
		}
	})

	t.Run("missing directory", func(t *testing.T) {
		if err := Write(filepath.Join(t.TempDir(), "nope", "graded.png"), img); err == nil {
			t.Error("expected error for missing directory")
		}
	})

	t.Run("destination is a directory", func(t *testing.T) {
		dir := t.TempDir()
		target := filepath.Join(dir, "graded.png")
		if err := os.Mkdir(target, 0o755); err != nil {
			t.Fatal(err)
		}
		if err := Write(target, img); err == nil {
			t.Error("expected error when renaming over a directory")
		}
		entries, _ := os.ReadDir(dir)
		if len(entries) != 1 {
			t.Errorf("temp file not cleaned up: %d entries", len(entries))
		}
	})
}
