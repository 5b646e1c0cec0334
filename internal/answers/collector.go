package answers

import (
	"github.com/brightpath/attempt-service/internal/models"
)

// InteractionKind names the ways a learner can act on a question.
type InteractionKind string

const (
	// InteractionSelect picks a single option, last write wins.
	InteractionSelect InteractionKind = "select"
	// InteractionToggle flips membership of an option in a multi-select.
	InteractionToggle InteractionKind = "toggle"
	// InteractionInput replaces the free-text value.
	InteractionInput InteractionKind = "input"
	// InteractionAssign maps a left matching item to a right item; an empty
	// Right unsets the entry.
	InteractionAssign InteractionKind = "assign"
	// InteractionMove moves the ordering item at From to position To.
	InteractionMove InteractionKind = "move"
)

// KnownInteractionKinds lists every kind Apply dispatches on.
var KnownInteractionKinds = []InteractionKind{
	InteractionSelect,
	InteractionToggle,
	InteractionInput,
	InteractionAssign,
	InteractionMove,
}

func (k InteractionKind) IsKnown() bool {
	for _, known := range KnownInteractionKinds {
		if k == known {
			return true
		}
	}
	return false
}

type Interaction struct {
	Kind   InteractionKind `json:"kind" validate:"required,interaction_kind"`
	Option string          `json:"option,omitempty"`
	Text   string          `json:"text,omitempty"`
	Left   string          `json:"left,omitempty"`
	Right  string          `json:"right,omitempty"`
	From   int             `json:"from,omitempty"`
	To     int             `json:"to,omitempty"`
}

type applyFunc func(models.Question, models.AnswerValue, Interaction) models.AnswerValue

// collectors routes by question type. Unlisted types fall back to free-text
// handling.
var collectors = map[models.QuestionType]applyFunc{
	models.MultipleChoice: applySingleSelect,
	models.TrueFalse:      applySingleSelect,
	models.MultiSelect:    applyToggle,
	models.Numeric:        applyFreeText,
	models.FillInBlank:    applyFreeText,
	models.ShortAnswer:    applyFreeText,
	models.Essay:          applyFreeText,
	models.Matching:       applyAssign,
	models.Ordering:       applyMove,
}

// Apply produces the next answer value for one question in response to one
// interaction. It is pure: the current value is never mutated, so state for
// other questions cannot be disturbed by dispatch.
func Apply(q models.Question, current models.AnswerValue, in Interaction) models.AnswerValue {
	collect, ok := collectors[q.Type]
	if !ok {
		collect = applyFreeText
	}
	return collect(q, current, in)
}

func applySingleSelect(_ models.Question, current models.AnswerValue, in Interaction) models.AnswerValue {
	if in.Kind != InteractionSelect {
		return current
	}
	return models.TextAnswer(in.Option)
}

func applyToggle(_ models.Question, current models.AnswerValue, in Interaction) models.AnswerValue {
	if in.Kind != InteractionToggle {
		return current
	}

	next := make([]string, 0, len(current.List)+1)
	removed := false
	for _, item := range current.List {
		if item == in.Option {
			removed = true
			continue
		}
		next = append(next, item)
	}
	if !removed {
		next = append(next, in.Option)
	}
	return models.ListAnswer(next)
}

func applyFreeText(_ models.Question, current models.AnswerValue, in Interaction) models.AnswerValue {
	if in.Kind != InteractionInput {
		return current
	}
	return models.TextAnswer(in.Text)
}

func applyAssign(_ models.Question, current models.AnswerValue, in Interaction) models.AnswerValue {
	if in.Kind != InteractionAssign || in.Left == "" {
		return current
	}

	next := make(map[string]string, len(current.Pairs)+1)
	for left, right := range current.Pairs {
		next[left] = right
	}
	if in.Right == "" {
		delete(next, in.Left)
	} else {
		next[in.Left] = in.Right
	}
	return models.PairAnswer(next)
}

// applyMove seeds the working order from the question's item list on first
// touch, then moves the item at From to To, preserving the relative order of
// everything else.
func applyMove(q models.Question, current models.AnswerValue, in Interaction) models.AnswerValue {
	if in.Kind != InteractionMove {
		return current
	}

	order := current.List
	if current.IsNone() || len(order) == 0 {
		order = DecodeOrderItems(q.OptionSpec)
	}

	from, to := in.From, in.To
	if from < 0 || from >= len(order) {
		return models.ListAnswer(append([]string(nil), order...))
	}
	if to < 0 {
		to = 0
	}
	if to >= len(order) {
		to = len(order) - 1
	}

	next := make([]string, 0, len(order))
	next = append(next, order[:from]...)
	next = append(next, order[from+1:]...)
	moved := order[from]
	next = append(next[:to], append([]string{moved}, next[to:]...)...)
	return models.ListAnswer(next)
}
