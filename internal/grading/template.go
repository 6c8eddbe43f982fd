package grading

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"sort"

	"github.com/ironsheep/omr-grader/internal/geom"
)

// Bubble is one printed answer target in sheet coordinates.
type Bubble struct {
	Center geom.SheetPoint
	Radius float64
}

// MarshalJSON encodes a bubble as [x, y, radius].
func (b Bubble) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]float64{b.Center.X, b.Center.Y, b.Radius})
}

// UnmarshalJSON decodes a bubble from [x, y, radius].
func (b *Bubble) UnmarshalJSON(data []byte) error {
	var v []float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("bubble must be [x, y, radius]: %w", err)
	}
	if len(v) != 3 {
		return fmt.Errorf("bubble must be [x, y, radius], got %d numbers", len(v))
	}
	*b = Bubble{Center: geom.SheetPoint{X: v[0], Y: v[1]}, Radius: v[2]}
	return nil
}

func (b Bubble) validate() error {
	for _, v := range []float64{b.Center.X, b.Center.Y, b.Radius} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("non-finite coordinate in %v", b)
		}
	}
	if b.Radius <= 0 {
		return fmt.Errorf("radius must be positive, got %g", b.Radius)
	}
	return nil
}

// Template maps question id to option label to bubble.
//
// The JSON form is
//
//	{"Q1": {"A": [x, y, r], "B": [x, y, r]}, "Q2": {...}}
type Template map[string]map[string]Bubble

// LoadTemplate reads and validates a template file.
func LoadTemplate(path string) (Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template: %w", err)
	}
	t, err := ParseTemplate(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// ParseTemplate decodes and validates template JSON.
//
// Duplicate question ids and duplicate option labels within a question are
// rejected instead of silently keeping the last one.
func ParseTemplate(data []byte) (Template, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	t := make(Template)

	err := decodeObject(dec, func(q string) error {
		if _, dup := t[q]; dup {
			return fmt.Errorf("duplicate question %q", q)
		}
		opts := make(map[string]Bubble)
		err := decodeObject(dec, func(label string) error {
			if _, dup := opts[label]; dup {
				return fmt.Errorf("question %s: duplicate option %q", q, label)
			}
			var b Bubble
			if err := dec.Decode(&b); err != nil {
				return fmt.Errorf("question %s option %s: %w", q, label, err)
			}
			opts[label] = b
			return nil
		})
		if err != nil {
			return err
		}
		t[q] = opts
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTemplate, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after template", ErrInvalidTemplate)
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// decodeObject walks one JSON object, calling fn with each key while the
// decoder is positioned at the key's value.
func decodeObject(dec *json.Decoder, fn func(key string) error) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("expected object, got %v", tok)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected key, got %v", tok)
		}
		if err := fn(key); err != nil {
			return err
		}
	}
	_, err = dec.Token()
	return err
}

// Validate checks that the template has at least one question, every
// question has at least one option and every bubble is finite with a
// positive radius.
func (t Template) Validate() error {
	if len(t) == 0 {
		return fmt.Errorf("%w: no questions", ErrInvalidTemplate)
	}
	for _, q := range t.Questions() {
		opts := t[q]
		if q == "" {
			return fmt.Errorf("%w: empty question id", ErrInvalidTemplate)
		}
		if len(opts) == 0 {
			return fmt.Errorf("%w: question %s has no options", ErrInvalidTemplate, q)
		}
		for _, label := range t.Options(q) {
			if label == "" {
				return fmt.Errorf("%w: question %s has an empty option label", ErrInvalidTemplate, q)
			}
			if err := opts[label].validate(); err != nil {
				return fmt.Errorf("%w: question %s option %s: %v", ErrInvalidTemplate, q, label, err)
			}
		}
	}
	return nil
}

// Questions returns the question ids in natural order.
func (t Template) Questions() []string {
	ids := make([]string, 0, len(t))
	for q := range t {
		ids = append(ids, q)
	}
	sortNatural(ids)
	return ids
}

// Options returns the option labels of question q in ascending order.
func (t Template) Options(q string) []string {
	labels := make([]string, 0, len(t[q]))
	for label := range t[q] {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// Save writes the template as indented JSON.
func (t Template) Save(path string) error {
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode template: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write template: %w", err)
	}
	return nil
}
