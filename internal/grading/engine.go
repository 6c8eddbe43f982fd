package grading

import (
	"errors"
	"fmt"
	"image"

	"github.com/ironsheep/omr-grader/internal/config"
)

// Result is the outcome of grading one sheet. It is not modified after
// Engine.Grade returns it.
type Result struct {
	// SheetID is the text read from the header box, when one is configured.
	SheetID string `json:"sheet_id,omitempty"`

	// Questions lists every template question in natural order.
	Questions []string `json:"questions"`

	Selections map[string]Selection          `json:"selections"`
	Fills      map[string]map[string]float64 `json:"fills"`

	// Score counts selections equal to the key. Nil when ungraded.
	Score *int `json:"score,omitempty"`

	template Template
	key      AnswerKey
}

// Total is the number of questions on the sheet.
func (r *Result) Total() int {
	return len(r.Questions)
}

// Keyed reports whether the result was scored against an answer key.
func (r *Result) Keyed() bool {
	return r.key != nil
}

// Expected returns the key's answer for q, or "" when the result is unkeyed.
func (r *Result) Expected(q string) string {
	return r.key[q]
}

// Count returns how many questions resolved to Blank and to Ambiguous.
func (r *Result) Count() (blank, ambiguous int) {
	for _, s := range r.Selections {
		switch s {
		case Blank:
			blank++
		case Ambiguous:
			ambiguous++
		}
	}
	return blank, ambiguous
}

// Annotations lists the bubbles to draw, question by question in natural
// order and option by option in label order. Bubbles with no class are
// omitted. Without an answer key only the selected bubbles are reported,
// as Marked.
func (r *Result) Annotations() []Annotation {
	out := make([]Annotation, 0, len(r.Questions))
	for _, q := range r.Questions {
		sel := r.Selections[q]
		for _, opt := range r.template.Options(q) {
			var class Class
			if r.key != nil {
				class = Classify(sel, opt, r.key[q])
			} else if sel.IsMark() && string(sel) == opt {
				class = Marked
			}
			if class == None {
				continue
			}
			out = append(out, Annotation{
				Question: q,
				Option:   opt,
				Bubble:   r.template[q][opt],
				Class:    class,
			})
		}
	}
	return out
}

// Engine grades rectified sheets against one template and optional key.
// It holds no per-sheet state and is safe for concurrent use.
type Engine struct {
	template Template
	key      AnswerKey
	cfg      config.Scoring
}

// NewEngine validates the template and, when key is non-nil, checks that
// key and template describe the same questions.
func NewEngine(t Template, key AnswerKey, cfg config.Scoring) (*Engine, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if key != nil {
		if err := key.CheckAgainst(t); err != nil {
			return nil, err
		}
	}
	return &Engine{template: t, key: key, cfg: cfg}, nil
}

// Template returns the template the engine grades against.
func (e *Engine) Template() Template {
	return e.template
}

// Grade measures every bubble of the template on sheet, resolves each
// question and, when the engine has a key, scores the result.
//
// Any bubble that cannot be sampled fails the whole sheet; a Result always
// covers every question.
func (e *Engine) Grade(sheet *image.Gray) (*Result, error) {
	questions := e.template.Questions()
	res := &Result{
		Questions:  questions,
		Selections: make(map[string]Selection, len(questions)),
		Fills:      make(map[string]map[string]float64, len(questions)),
		template:   e.template,
		key:        e.key,
	}

	for _, q := range questions {
		fills := make(map[string]float64, len(e.template[q]))
		for _, opt := range e.template.Options(q) {
			f, err := FillScore(sheet, e.template[q][opt], e.cfg.InnerScale)
			if err != nil {
				var dbe *DegenerateBubbleError
				if errors.As(err, &dbe) {
					dbe.Question, dbe.Option = q, opt
				}
				return nil, err
			}
			fills[opt] = f
		}

		sel, err := ResolveRow(fills, e.cfg)
		if err != nil {
			return nil, fmt.Errorf("question %s: %w", q, err)
		}
		res.Fills[q] = fills
		res.Selections[q] = sel
	}

	if e.key != nil {
		score := 0
		for _, q := range questions {
			if sel := res.Selections[q]; sel.IsMark() && string(sel) == e.key[q] {
				score++
			}
		}
		res.Score = &score
	}

	return res, nil
}
