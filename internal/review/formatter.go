package review

import (
	"sort"

	"github.com/brightpath/attempt-service/internal/answers"
	"github.com/brightpath/attempt-service/internal/models"
)

// Verdict is the correctness badge for one question. VerdictUngraded means
// the backend sent no correctness flag (essays awaiting manual review) and
// must render with no badge, never as incorrect.
type Verdict string

const (
	VerdictCorrect   Verdict = "correct"
	VerdictIncorrect Verdict = "incorrect"
	VerdictUngraded  Verdict = "ungraded"
)

// QuestionReview is the display-ready form of one graded question.
type QuestionReview struct {
	QuestionID       string              `json:"questionId"`
	Type             models.QuestionType `json:"type"`
	Prompt           string              `json:"prompt"`
	Points           float64             `json:"points"`
	Score            *float64            `json:"score,omitempty"`
	Answered         bool                `json:"answered"`
	LearnerAnswer    string              `json:"learnerAnswer"`
	CorrectAnswer    string              `json:"correctAnswer,omitempty"`
	HasCorrectAnswer bool                `json:"hasCorrectAnswer"`
	Verdict          Verdict             `json:"verdict"`
	Explanation      string              `json:"explanation,omitempty"`
}

type SectionReview struct {
	ID        string           `json:"id"`
	Title     string           `json:"title"`
	Questions []QuestionReview `json:"questions"`
}

type AttemptReview struct {
	AttemptID  string          `json:"attemptId"`
	Title      string          `json:"title"`
	TotalScore float64         `json:"totalScore"`
	MaxScore   float64         `json:"maxScore"`
	Sections   []SectionReview `json:"sections"`
}

// Format converts a graded attempt into display-ready strings, reusing the
// answers codec for both the learner's value and the correct answer. It is
// total: any payload shape yields some rendering.
func Format(payload *models.ReviewPayload) *AttemptReview {
	out := &AttemptReview{
		AttemptID:  payload.Attempt.AttemptID,
		Title:      payload.Assessment.Title,
		TotalScore: payload.Attempt.TotalScore,
		MaxScore:   payload.Attempt.MaxScore,
	}

	sections := make([]models.ReviewSection, len(payload.Sections))
	copy(sections, payload.Sections)
	sort.SliceStable(sections, func(i, j int) bool {
		return sections[i].Order < sections[j].Order
	})

	for _, sec := range sections {
		formatted := SectionReview{ID: sec.ID, Title: sec.Title}
		for _, q := range sec.Questions {
			formatted.Questions = append(formatted.Questions, formatQuestion(q))
		}
		out.Sections = append(out.Sections, formatted)
	}
	return out
}

func formatQuestion(q models.ReviewQuestion) QuestionReview {
	learner := answers.DecodeAnswer(q.Type, q.Answer)

	review := QuestionReview{
		QuestionID:    q.ID,
		Type:          q.Type,
		Prompt:        q.Prompt,
		Points:        q.Points,
		Score:         q.Score,
		Answered:      answers.HasAnswerValue(learner),
		LearnerAnswer: answers.FormatAnswerForDisplay(learner, q.OptionSpec),
		Explanation:   q.Explanation,
		Verdict:       VerdictUngraded,
	}

	if q.IsCorrect != nil {
		if *q.IsCorrect {
			review.Verdict = VerdictCorrect
		} else {
			review.Verdict = VerdictIncorrect
		}
	}

	// Omit the correct-answer line entirely when the backend withheld it.
	if len(q.CorrectAnswer) > 0 {
		correct := answers.DecodeAnswer(q.Type, q.CorrectAnswer)
		if answers.HasAnswerValue(correct) {
			review.CorrectAnswer = answers.FormatAnswerForDisplay(correct, q.OptionSpec)
			review.HasCorrectAnswer = true
		}
	}
	return review
}
