package grading

import (
	"encoding/json"
	"fmt"
	"os"
)

// AnswerKey maps question id to the correct option label.
type AnswerKey map[string]string

// LoadAnswerKey reads an answer key file of the form {"Q1": "A", ...}.
func LoadAnswerKey(path string) (AnswerKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read answer key: %w", err)
	}
	k, err := ParseAnswerKey(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return k, nil
}

// ParseAnswerKey decodes answer key JSON. It rejects empty keys and empty
// labels; checking against a template is left to CheckAgainst.
func ParseAnswerKey(data []byte) (AnswerKey, error) {
	var k AnswerKey
	if err := json.Unmarshal(data, &k); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}
	if len(k) == 0 {
		return nil, fmt.Errorf("%w: no entries", ErrInvalidKey)
	}
	for q, label := range k {
		if label == "" {
			return nil, fmt.Errorf("%w: question %s has an empty answer", ErrInvalidKey, q)
		}
	}
	return k, nil
}

// CheckAgainst verifies that k and t cover exactly the same questions and
// that every answer names an option the template prints.
//
// The first question (in natural order) found in only one of them is
// reported as a *MissingKeyEntryError.
func (k AnswerKey) CheckAgainst(t Template) error {
	for _, q := range t.Questions() {
		if _, ok := k[q]; !ok {
			return &MissingKeyEntryError{Question: q, Side: MissingFromKey}
		}
	}

	extra := make([]string, 0)
	for q := range k {
		if _, ok := t[q]; !ok {
			extra = append(extra, q)
		}
	}
	if len(extra) > 0 {
		sortNatural(extra)
		return &MissingKeyEntryError{Question: extra[0], Side: MissingFromTemplate}
	}

	for _, q := range t.Questions() {
		if _, ok := t[q][k[q]]; !ok {
			return fmt.Errorf("%w: question %s answer %q is not an option", ErrInvalidKey, q, k[q])
		}
	}
	return nil
}
