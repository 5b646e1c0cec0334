package models

// AnswerKind tags the in-memory shape of a learner's answer. The untyped wire
// shape never leaves the answers codec; everything past that boundary works
// with AnswerValue.
type AnswerKind string

const (
	// AnswerNone means the learner has not touched the question. Distinct
	// from an explicit empty string or empty list.
	AnswerNone AnswerKind = "none"
	AnswerText AnswerKind = "text"
	AnswerList AnswerKind = "list"
	AnswerPair AnswerKind = "pairs"
)

// AnswerValue is the tagged union over the closed set of answer shapes.
// Exactly the field matching Kind is meaningful.
type AnswerValue struct {
	Kind  AnswerKind        `json:"kind"`
	Text  string            `json:"text,omitempty"`
	List  []string          `json:"list,omitempty"`
	Pairs map[string]string `json:"pairs,omitempty"`
}

// NoAnswer is the canonical "unanswered" sentinel.
func NoAnswer() AnswerValue {
	return AnswerValue{Kind: AnswerNone}
}

func TextAnswer(text string) AnswerValue {
	return AnswerValue{Kind: AnswerText, Text: text}
}

func ListAnswer(items []string) AnswerValue {
	return AnswerValue{Kind: AnswerList, List: items}
}

func PairAnswer(pairs map[string]string) AnswerValue {
	return AnswerValue{Kind: AnswerPair, Pairs: pairs}
}

func (v AnswerValue) IsNone() bool {
	return v.Kind == AnswerNone
}

// Equal reports semantic equality: list order matters, pair insertion order
// does not.
func (v AnswerValue) Equal(other AnswerValue) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case AnswerText:
		return v.Text == other.Text
	case AnswerList:
		if len(v.List) != len(other.List) {
			return false
		}
		for i := range v.List {
			if v.List[i] != other.List[i] {
				return false
			}
		}
		return true
	case AnswerPair:
		if len(v.Pairs) != len(other.Pairs) {
			return false
		}
		for left, right := range v.Pairs {
			if other.Pairs[left] != right {
				return false
			}
		}
		return true
	default:
		return true
	}
}
