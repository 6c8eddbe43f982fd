// Package templategen derives a bubble grid template from a handful of
// reference points clicked on a blank rectified sheet.
//
// The sheet layout is assumed to be a regular grid: questions run down
// columns, options run across each question row, and all bubbles share one
// radius. Four points pin that grid down:
//
//	FirstOption   center of question 1, first option
//	SecondOption  center of question 1, second option
//	NextQuestion  center of question 2, first option
//	NextColumn    center of the first option of the first question in
//	              column 2
//
// Only the horizontal offset of NextColumn is used; columns are assumed to
// start at the same height.
package templategen

import (
	"errors"
	"fmt"
	"math"

	"github.com/ironsheep/omr-grader/internal/geom"
	"github.com/ironsheep/omr-grader/internal/grading"
)

// Layout describes the grid to generate.
type Layout struct {
	FirstOption  geom.SheetPoint `json:"first_option"`
	SecondOption geom.SheetPoint `json:"second_option"`
	NextQuestion geom.SheetPoint `json:"next_question"`
	NextColumn   geom.SheetPoint `json:"next_column"`

	Radius          float64  `json:"radius"`
	Columns         int      `json:"columns"`
	RowsPerColumn   int      `json:"rows_per_column"`
	Options         []string `json:"options"`
	QuestionPrefix  string   `json:"question_prefix"`
	FirstQuestionNo int      `json:"first_question_no"`
}

// DefaultLayout returns the reference sheet's grid shape: four columns of
// fifteen questions with options A to D and 18px bubbles. The reference
// points still have to be filled in.
func DefaultLayout() Layout {
	return Layout{
		Radius:          18,
		Columns:         4,
		RowsPerColumn:   15,
		Options:         []string{"A", "B", "C", "D"},
		QuestionPrefix:  "Q",
		FirstQuestionNo: 1,
	}
}

// ErrInvalidLayout wraps every layout validation failure.
var ErrInvalidLayout = errors.New("invalid layout")

// Validate checks the grid shape and that the reference points define
// non-degenerate spacings.
func (l Layout) Validate() error {
	var errs []error
	if l.Radius <= 0 || math.IsNaN(l.Radius) {
		errs = append(errs, fmt.Errorf("radius must be positive, got %g", l.Radius))
	}
	if l.Columns < 1 {
		errs = append(errs, fmt.Errorf("columns must be at least 1, got %d", l.Columns))
	}
	if l.RowsPerColumn < 1 {
		errs = append(errs, fmt.Errorf("rows per column must be at least 1, got %d", l.RowsPerColumn))
	}
	if len(l.Options) == 0 {
		errs = append(errs, errors.New("at least one option label is required"))
	}
	seen := make(map[string]bool, len(l.Options))
	for _, o := range l.Options {
		if o == "" || seen[o] {
			errs = append(errs, fmt.Errorf("option labels must be unique and non-empty: %q", o))
		}
		seen[o] = true
	}
	if len(l.Options) > 1 && l.SecondOption.X == l.FirstOption.X {
		errs = append(errs, errors.New("first and second option share an x coordinate"))
	}
	if l.RowsPerColumn > 1 && l.NextQuestion.Y == l.FirstOption.Y {
		errs = append(errs, errors.New("first and next question share a y coordinate"))
	}
	if l.Columns > 1 && l.NextColumn.X == l.FirstOption.X {
		errs = append(errs, errors.New("first and next column share an x coordinate"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidLayout, errors.Join(errs...))
	}
	return nil
}

// Generate lays out Columns x RowsPerColumn questions, numbering them down
// each column and then across. The result passes grading.Template.Validate.
func Generate(l Layout) (grading.Template, error) {
	if err := l.Validate(); err != nil {
		return nil, err
	}

	dx := l.SecondOption.X - l.FirstOption.X
	dy := l.NextQuestion.Y - l.FirstOption.Y
	colDX := l.NextColumn.X - l.FirstOption.X

	t := make(grading.Template, l.Columns*l.RowsPerColumn)
	n := l.FirstQuestionNo
	for col := 0; col < l.Columns; col++ {
		x0 := l.FirstOption.X + float64(col)*colDX
		for row := 0; row < l.RowsPerColumn; row++ {
			y := l.FirstOption.Y + float64(row)*dy
			opts := make(map[string]grading.Bubble, len(l.Options))
			for i, label := range l.Options {
				opts[label] = grading.Bubble{
					Center: geom.SheetPoint{X: x0 + float64(i)*dx, Y: y},
					Radius: l.Radius,
				}
			}
			t[fmt.Sprintf("%s%d", l.QuestionPrefix, n)] = opts
			n++
		}
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}
