package grading

// Class is how the overlay should draw one bubble.
type Class string

const (
	None             Class = ""
	CorrectMarked    Class = "correct-marked"
	IncorrectMarked  Class = "incorrect-marked"
	MissedCorrect    Class = "missed-correct"
	AmbiguousCorrect Class = "ambiguous-correct"

	// Marked is used for selected bubbles when no answer key is present.
	Marked Class = "marked"
)

// Classify decides the annotation of one option given the question's
// selection and its correct answer. Exactly one class applies to every
// (selection, option, answer) triple.
func Classify(sel Selection, option, answer string) Class {
	switch {
	case sel.IsMark() && string(sel) == option && option == answer:
		return CorrectMarked
	case sel.IsMark() && string(sel) == option:
		return IncorrectMarked
	case sel == Blank && option == answer:
		return MissedCorrect
	case sel == Ambiguous && option == answer:
		return AmbiguousCorrect
	default:
		return None
	}
}

// Annotation is one bubble the overlay should draw.
type Annotation struct {
	Question string `json:"question"`
	Option   string `json:"option"`
	Bubble   Bubble `json:"bubble"`
	Class    Class  `json:"class"`
}
