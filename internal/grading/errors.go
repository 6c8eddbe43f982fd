package grading

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTemplate wraps every template validation failure.
	ErrInvalidTemplate = errors.New("invalid template")

	// ErrInvalidKey wraps every answer key validation failure.
	ErrInvalidKey = errors.New("invalid answer key")

	// ErrEmptyRow is returned when a question has no options to resolve.
	ErrEmptyRow = errors.New("question has no options")
)

// DegenerateBubbleError reports a bubble whose sampling circle encloses no
// pixel of the sheet.
type DegenerateBubbleError struct {
	Question string
	Option   string
	Bubble   Bubble
}

func (e *DegenerateBubbleError) Error() string {
	if e.Question == "" {
		return fmt.Sprintf("bubble at %v radius %.1f samples no pixels", e.Bubble.Center, e.Bubble.Radius)
	}
	return fmt.Sprintf("bubble %s/%s at %v radius %.1f samples no pixels",
		e.Question, e.Option, e.Bubble.Center, e.Bubble.Radius)
}

// Side names the input that lacks a question.
type Side string

const (
	MissingFromKey      Side = "answer key"
	MissingFromTemplate Side = "template"
)

// MissingKeyEntryError reports a question present in only one of the
// template and the answer key.
type MissingKeyEntryError struct {
	Question string
	Side     Side
}

func (e *MissingKeyEntryError) Error() string {
	return fmt.Sprintf("question %s is missing from the %s", e.Question, e.Side)
}
