package grading

import (
	"errors"
	"image"
	"math"
	"testing"

	"github.com/ironsheep/omr-grader/internal/geom"
)

func TestFillScore(t *testing.T) {
	bubble := Bubble{Center: geom.SheetPoint{X: 50, Y: 50}, Radius: 18}

	tests := []struct {
		name  string
		paint func(*image.Gray)
		want  float64
	}{
		{"blank paper", func(*image.Gray) {}, 0},
		{"solid ink", func(img *image.Gray) { paintBubble(img, bubble, 0) }, 1},
		{"half-tone pencil", func(img *image.Gray) { paintBubble(img, bubble, 153) }, 0.4},
		{"printed outline only", func(img *image.Gray) {
			paintBubble(img, bubble, 0)
			paintBubble(img, Bubble{Center: bubble.Center, Radius: 15}, 255)
		}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sheet := newSheet(100, 100)
			tt.paint(sheet)

			got, err := FillScore(sheet, bubble, 0.80)
			if err != nil {
				t.Fatalf("FillScore failed: %v", err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("FillScore = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestFillScore_DoesNotModifySheet(t *testing.T) {
	sheet := newSheet(40, 40)
	before := append([]uint8(nil), sheet.Pix...)

	if _, err := FillScore(sheet, Bubble{Center: geom.SheetPoint{X: 20, Y: 20}, Radius: 10}, 0.8); err != nil {
		t.Fatal(err)
	}
	for i := range before {
		if sheet.Pix[i] != before[i] {
			t.Fatal("sheet was modified")
		}
	}
}

func TestFillScore_PartiallyOffSheet(t *testing.T) {
	sheet := newSheet(40, 40)
	for i := range sheet.Pix {
		sheet.Pix[i] = 0
	}

	got, err := FillScore(sheet, Bubble{Center: geom.SheetPoint{X: 0, Y: 0}, Radius: 10}, 0.8)
	if err != nil {
		t.Fatalf("FillScore failed: %v", err)
	}
	if got != 1 {
		t.Errorf("FillScore = %f, want 1 from the in-sheet quarter", got)
	}
}

func TestFillScore_Degenerate(t *testing.T) {
	sheet := newSheet(40, 40)

	tests := []struct {
		name   string
		bubble Bubble
		scale  float64
	}{
		{"off sheet", Bubble{Center: geom.SheetPoint{X: -100, Y: -100}, Radius: 10}, 0.8},
		{"between pixel centers", Bubble{Center: geom.SheetPoint{X: 10.5, Y: 10.5}, Radius: 0.5}, 0.8},
		{"zero radius", Bubble{Center: geom.SheetPoint{X: 10, Y: 10}, Radius: 0}, 0.8},
		{"zero scale", Bubble{Center: geom.SheetPoint{X: 10, Y: 10}, Radius: 10}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FillScore(sheet, tt.bubble, tt.scale)
			var dbe *DegenerateBubbleError
			if !errors.As(err, &dbe) {
				t.Fatalf("expected *DegenerateBubbleError, got %v", err)
			}
			if dbe.Bubble != tt.bubble {
				t.Errorf("error carries %+v, want %+v", dbe.Bubble, tt.bubble)
			}
		})
	}
}
