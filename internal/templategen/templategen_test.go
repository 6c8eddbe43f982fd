package templategen

import (
	"errors"
	"testing"

	"github.com/ironsheep/omr-grader/internal/geom"
)

func referenceLayout() Layout {
	l := DefaultLayout()
	l.FirstOption = geom.SheetPoint{X: 300, Y: 900}
	l.SecondOption = geom.SheetPoint{X: 360, Y: 901}
	l.NextQuestion = geom.SheetPoint{X: 299, Y: 960}
	l.NextColumn = geom.SheetPoint{X: 700, Y: 905}
	return l
}

func TestGenerate_ReferenceGrid(t *testing.T) {
	tmpl, err := Generate(referenceLayout())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if len(tmpl) != 60 {
		t.Fatalf("expected 60 questions, got %d", len(tmpl))
	}

	tests := []struct {
		q, opt string
		x, y   float64
	}{
		{"Q1", "A", 300, 900},
		{"Q1", "B", 360, 900},
		{"Q1", "D", 480, 900},
		{"Q2", "A", 300, 960},
		{"Q15", "A", 300, 1740},
		{"Q16", "A", 700, 900},
		{"Q16", "C", 820, 900},
		{"Q60", "D", 1680, 1740},
	}

	for _, tt := range tests {
		b, ok := tmpl[tt.q][tt.opt]
		if !ok {
			t.Errorf("%s/%s missing", tt.q, tt.opt)
			continue
		}
		want := geom.SheetPoint{X: tt.x, Y: tt.y}
		if b.Center.Distance(want) > 1e-9 {
			t.Errorf("%s/%s at %v, want %v", tt.q, tt.opt, b.Center, want)
		}
		if b.Radius != 18 {
			t.Errorf("%s/%s radius %v, want 18", tt.q, tt.opt, b.Radius)
		}
	}

	if qs := tmpl.Questions(); qs[0] != "Q1" || qs[59] != "Q60" {
		t.Errorf("question order starts %s and ends %s", qs[0], qs[59])
	}
}

func TestGenerate_CustomShape(t *testing.T) {
	l := referenceLayout()
	l.Columns = 1
	l.RowsPerColumn = 3
	l.Options = []string{"T", "F"}
	l.QuestionPrefix = "item"
	l.FirstQuestionNo = 10

	tmpl, err := Generate(l)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	for _, q := range []string{"item10", "item11", "item12"} {
		if len(tmpl[q]) != 2 {
			t.Errorf("%s has %d options, want 2", q, len(tmpl[q]))
		}
	}
}

func TestGenerate_InvalidLayout(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Layout)
	}{
		{"zero radius", func(l *Layout) { l.Radius = 0 }},
		{"no columns", func(l *Layout) { l.Columns = 0 }},
		{"no rows", func(l *Layout) { l.RowsPerColumn = 0 }},
		{"no options", func(l *Layout) { l.Options = nil }},
		{"duplicate options", func(l *Layout) { l.Options = []string{"A", "A"} }},
		{"zero option spacing", func(l *Layout) { l.SecondOption.X = l.FirstOption.X }},
		{"zero row spacing", func(l *Layout) { l.NextQuestion.Y = l.FirstOption.Y }},
		{"zero column spacing", func(l *Layout) { l.NextColumn.X = l.FirstOption.X }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := referenceLayout()
			tt.mutate(&l)
			if _, err := Generate(l); !errors.Is(err, ErrInvalidLayout) {
				t.Errorf("expected ErrInvalidLayout, got %v", err)
			}
		})
	}
}
