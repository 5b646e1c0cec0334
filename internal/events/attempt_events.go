package events

import (
	"time"

	"github.com/ThreeDotsLabs/watermill"
)

// EventType names the attempt lifecycle events this service emits.
type EventType string

const (
	EventAttemptStarted    EventType = "attempt.started"
	EventAttemptResumed    EventType = "attempt.resumed"
	EventAnswerSaveFailed  EventType = "attempt.answer_save_failed"
	EventAttemptSubmitted  EventType = "attempt.submitted"
	EventAttemptExpired    EventType = "attempt.expired"
	EventAttemptTimeWarned EventType = "attempt.time_warning"
)

// AttemptEvent is the envelope for all lifecycle events.
type AttemptEvent struct {
	ID           string         `json:"id"`
	Type         EventType      `json:"type"`
	Timestamp    time.Time      `json:"timestamp"`
	Source       string         `json:"source"`
	AttemptID    string         `json:"attempt_id"`
	AssessmentID string         `json:"assessment_id,omitempty"`
	LearnerID    string         `json:"learner_id,omitempty"`
	Data         map[string]any `json:"data,omitempty"`
}

// NewAttemptEvent fills the envelope fields that are the same for every
// event.
func NewAttemptEvent(eventType EventType, attemptID, assessmentID, learnerID string) *AttemptEvent {
	return &AttemptEvent{
		ID:           watermill.NewUUID(),
		Type:         eventType,
		Timestamp:    time.Now().UTC(),
		Source:       "attempt-service",
		AttemptID:    attemptID,
		AssessmentID: assessmentID,
		LearnerID:    learnerID,
	}
}

func (e *AttemptEvent) WithData(key string, value any) *AttemptEvent {
	if e.Data == nil {
		e.Data = make(map[string]any)
	}
	e.Data[key] = value
	return e
}
