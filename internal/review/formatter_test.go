package review

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightpath/attempt-service/internal/models"
)

func boolPtr(b bool) *bool { return &b }
func floatPtr(f float64) *float64 { return &f }

func reviewPayload() *models.ReviewPayload {
	return &models.ReviewPayload{
		Attempt: models.ReviewAttempt{
			AttemptID:  "att-9",
			Status:     models.AttemptStatusSubmitted,
			TotalScore: 3,
			MaxScore:   5,
		},
		Assessment: models.AssessmentInfo{ID: "asm-9", Title: "Geography Check"},
		Sections: []models.ReviewSection{
			{
				ID:    "s2",
				Title: "Essays",
				Order: 2,
				Questions: []models.ReviewQuestion{
					{
						Question: models.Question{ID: "q3", Type: models.Essay, Prompt: "Discuss", Points: 2},
						Answer:   json.RawMessage(`"Rivers shape borders."`),
						// No IsCorrect and no CorrectAnswer: awaiting manual grading.
					},
				},
			},
			{
				ID:    "s1",
				Title: "Basics",
				Order: 1,
				Questions: []models.ReviewQuestion{
					{
						Question: models.Question{
							ID:         "q1",
							Type:       models.MultipleChoice,
							Prompt:     "Capital of the UK?",
							Points:     1,
							OptionSpec: []byte(`[{"id":"a","text":"Paris"},{"id":"b","text":"London"}]`),
						},
						Answer:        json.RawMessage(`"b"`),
						IsCorrect:     boolPtr(true),
						CorrectAnswer: json.RawMessage(`"b"`),
						Score:         floatPtr(1),
					},
					{
						Question: models.Question{
							ID:         "q2",
							Type:       models.Matching,
							Prompt:     "Match the sounds",
							Points:     2,
							OptionSpec: []byte(`{"pairs":[{"left":"Cat","right":"Meow"},{"left":"Dog","right":"Bark"}]}`),
						},
						Answer:        json.RawMessage(`{"Cat":"Bark","Dog":"Meow"}`),
						IsCorrect:     boolPtr(false),
						CorrectAnswer: json.RawMessage(`{"Cat":"Meow","Dog":"Bark"}`),
						Score:         floatPtr(0),
					},
				},
			},
		},
	}
}

func TestFormatOrdersSectionsAndScores(t *testing.T) {
	out := Format(reviewPayload())

	assert.Equal(t, "att-9", out.AttemptID)
	assert.Equal(t, "Geography Check", out.Title)
	assert.Equal(t, 3.0, out.TotalScore)
	assert.Equal(t, 5.0, out.MaxScore)

	require.Len(t, out.Sections, 2)
	assert.Equal(t, "Basics", out.Sections[0].Title)
	assert.Equal(t, "Essays", out.Sections[1].Title)
}

func TestFormatResolvesOptionLabels(t *testing.T) {
	out := Format(reviewPayload())
	q1 := out.Sections[0].Questions[0]

	assert.True(t, q1.Answered)
	assert.Equal(t, "London", q1.LearnerAnswer)
	assert.Equal(t, VerdictCorrect, q1.Verdict)
	assert.True(t, q1.HasCorrectAnswer)
	assert.Equal(t, "London", q1.CorrectAnswer)
	require.NotNil(t, q1.Score)
	assert.Equal(t, 1.0, *q1.Score)
}

func TestFormatRendersMatchingPairs(t *testing.T) {
	out := Format(reviewPayload())
	q2 := out.Sections[0].Questions[1]

	assert.Equal(t, "Cat -> Bark, Dog -> Meow", q2.LearnerAnswer)
	assert.Equal(t, VerdictIncorrect, q2.Verdict)
	assert.Equal(t, "Cat -> Meow, Dog -> Bark", q2.CorrectAnswer)
}

func TestUngradedQuestionGetsNoVerdict(t *testing.T) {
	out := Format(reviewPayload())
	essay := out.Sections[1].Questions[0]

	// Missing IsCorrect must never read as incorrect.
	assert.Equal(t, VerdictUngraded, essay.Verdict)
	assert.Equal(t, "Rivers shape borders.", essay.LearnerAnswer)
	assert.True(t, essay.Answered)

	// Withheld correct answer means no correct-answer line at all.
	assert.False(t, essay.HasCorrectAnswer)
	assert.Empty(t, essay.CorrectAnswer)
}

func TestFormatUnansweredQuestion(t *testing.T) {
	payload := reviewPayload()
	payload.Sections[1].Questions[0].Answer = nil
	out := Format(payload)

	essay := out.Sections[1].Questions[0]
	assert.False(t, essay.Answered)
	assert.Empty(t, essay.LearnerAnswer)
	assert.Equal(t, VerdictUngraded, essay.Verdict)
}

func TestFormatToleratesEmptyPayload(t *testing.T) {
	out := Format(&models.ReviewPayload{})
	assert.Empty(t, out.Sections)
	assert.Zero(t, out.TotalScore)
}

func TestWriteXLSX(t *testing.T) {
	out := Format(reviewPayload())

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(out, &buf))

	// xlsx files are zip archives; checking the magic bytes is enough of a
	// smoke test without parsing the workbook back.
	require.Greater(t, buf.Len(), 4)
	assert.Equal(t, []byte{'P', 'K'}, buf.Bytes()[:2])
}
