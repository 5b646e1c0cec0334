package models

import (
	"encoding/json"
	"sort"
	"time"
)

type AttemptStatus string

const (
	AttemptStatusInProgress AttemptStatus = "in_progress"
	AttemptStatusSubmitted  AttemptStatus = "submitted"
)

type AttemptEndReason string

const (
	AttemptEndReasonManual  AttemptEndReason = "manual"
	AttemptEndReasonTimeout AttemptEndReason = "timeout"
)

// StartAttemptPayload is the backend's response to a start-attempt call. It is
// cached verbatim, keyed by AttemptID, to support refresh-resume.
type StartAttemptPayload struct {
	AttemptID  string         `json:"attemptId"`
	Status     AttemptStatus  `json:"status"`
	StartedAt  time.Time      `json:"startedAt"`
	Assessment AssessmentInfo `json:"assessment"`
	Sections   []Section      `json:"sections"`
}

// TimeLimitSeconds derives the attempt time limit; 0 means untimed.
func (p *StartAttemptPayload) TimeLimitSeconds() int {
	return p.Assessment.TimeLimitMinutes * 60
}

// FlattenQuestions returns all questions across sections, sections ordered by
// their Order field and questions ordered within each section. The input
// payload is not mutated.
func (p *StartAttemptPayload) FlattenQuestions() []Question {
	sections := make([]Section, len(p.Sections))
	copy(sections, p.Sections)
	sort.SliceStable(sections, func(i, j int) bool {
		return sections[i].Order < sections[j].Order
	})

	var questions []Question
	for _, sec := range sections {
		qs := make([]Question, len(sec.Questions))
		copy(qs, sec.Questions)
		sort.SliceStable(qs, func(i, j int) bool {
			return qs[i].Order < qs[j].Order
		})
		questions = append(questions, qs...)
	}
	return questions
}

// SaveAnswerRequest carries one encoded answer to the backend.
type SaveAnswerRequest struct {
	AttemptID  string          `json:"attemptId"`
	QuestionID string          `json:"questionId"`
	Value      json.RawMessage `json:"value"`
}

// SubmitAttemptRequest terminates an attempt. EndReason distinguishes a
// learner-initiated submit from a timer-driven one.
type SubmitAttemptRequest struct {
	AttemptID string           `json:"attemptId"`
	EndReason AttemptEndReason `json:"endReason"`
}

// ===== REVIEW =====

// ReviewPayload is the backend's graded view of a finished attempt.
type ReviewPayload struct {
	Attempt    ReviewAttempt   `json:"attempt"`
	Assessment AssessmentInfo  `json:"assessment"`
	Sections   []ReviewSection `json:"sections"`
}

type ReviewAttempt struct {
	AttemptID   string        `json:"attemptId"`
	Status      AttemptStatus `json:"status"`
	TotalScore  float64       `json:"totalScore"`
	MaxScore    float64       `json:"maxScore"`
	SubmittedAt *time.Time    `json:"submittedAt,omitempty"`
}

type ReviewSection struct {
	ID        string           `json:"id"`
	Title     string           `json:"title"`
	Order     int              `json:"order"`
	Questions []ReviewQuestion `json:"questions"`
}

// ReviewQuestion carries the graded answer for one question. IsCorrect is nil
// for ungraded answers (essays awaiting manual review); CorrectAnswer is nil
// when the backend withholds it.
type ReviewQuestion struct {
	Question
	Answer        json.RawMessage `json:"answer,omitempty"`
	IsCorrect     *bool           `json:"isCorrect,omitempty"`
	CorrectAnswer json.RawMessage `json:"correctAnswer,omitempty"`
	Explanation   string          `json:"explanation,omitempty"`
	Score         *float64        `json:"score,omitempty"`
}
