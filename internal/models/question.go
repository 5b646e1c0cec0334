package models

import (
	"gorm.io/datatypes"
)

type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
	MultiSelect    QuestionType = "multi_select"
	TrueFalse      QuestionType = "true_false"
	Numeric        QuestionType = "numeric"
	FillInBlank    QuestionType = "fill_in_blank"
	ShortAnswer    QuestionType = "short_answer"
	Essay          QuestionType = "essay"
	Matching       QuestionType = "matching"
	Ordering       QuestionType = "ordering"
)

// KnownQuestionTypes lists every type the collector dispatches on.
// Anything else falls back to free-text handling.
var KnownQuestionTypes = []QuestionType{
	MultipleChoice,
	MultiSelect,
	TrueFalse,
	Numeric,
	FillInBlank,
	ShortAnswer,
	Essay,
	Matching,
	Ordering,
}

func (t QuestionType) IsKnown() bool {
	for _, known := range KnownQuestionTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Question is one assessable unit inside an attempt. OptionSpec is the raw
// backend payload whose shape depends on Type; it is only ever interpreted
// through the answers codec.
type Question struct {
	ID         string         `json:"questionId"`
	Order      int            `json:"order"`
	Type       QuestionType   `json:"type"`
	Difficulty string         `json:"difficulty,omitempty"`
	Prompt     string         `json:"prompt"`
	OptionSpec datatypes.JSON `json:"optionSpec,omitempty"`
	Points     float64        `json:"points"`
}

// Section groups questions and carries its own display order. Section order
// is preserved when flattening for navigation.
type Section struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Order        int        `json:"order"`
	Instructions string     `json:"instructions,omitempty"`
	Questions    []Question `json:"questions"`
}

type AssessmentInfo struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	Type             string `json:"type,omitempty"`
	TimeLimitMinutes int    `json:"timeLimitMinutes"`
	Instructions     string `json:"instructions,omitempty"`
}
