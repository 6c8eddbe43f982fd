package grading

import (
	"math"
	"sort"

	"github.com/ironsheep/omr-grader/internal/config"
)

// Selection is the outcome for one question: an option label, Blank or
// Ambiguous.
type Selection string

const (
	// Blank means no option was dark enough to count as a mark.
	Blank Selection = "BLANK"

	// Ambiguous means the two darkest options were too close to call.
	Ambiguous Selection = "AMBIG"
)

// IsMark reports whether s names an option.
func (s Selection) IsMark() bool {
	return s != Blank && s != Ambiguous && s != ""
}

// ResolveRow picks the Selection for one question from its fills.
//
// Options are ranked by fill, highest first, with equal fills ordered by
// label. If the top fill is below cfg.MinFill the row is Blank. Otherwise,
// if it leads the runner-up by less than cfg.Margin the row is Ambiguous.
// A question with a single option has no runner-up and is never Ambiguous.
func ResolveRow(fills map[string]float64, cfg config.Scoring) (Selection, error) {
	if len(fills) == 0 {
		return "", ErrEmptyRow
	}

	labels := make([]string, 0, len(fills))
	for label := range fills {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		fi, fj := fills[labels[i]], fills[labels[j]]
		if fi != fj {
			return fi > fj
		}
		return labels[i] < labels[j]
	})

	top := fills[labels[0]]
	second := math.Inf(-1)
	if len(labels) > 1 {
		second = fills[labels[1]]
	}

	if top < cfg.MinFill {
		return Blank, nil
	}
	if top-second < cfg.Margin {
		return Ambiguous, nil
	}
	return Selection(labels[0]), nil
}
