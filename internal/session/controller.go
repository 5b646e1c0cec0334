package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/brightpath/attempt-service/internal/answers"
	"github.com/brightpath/attempt-service/internal/cache"
	"github.com/brightpath/attempt-service/internal/events"
	"github.com/brightpath/attempt-service/internal/models"
	"github.com/brightpath/attempt-service/internal/utils"
)

// State is the attempt session lifecycle. Transitions only move forward:
// hydrating -> ready -> submitting -> submitted, with error reachable from
// hydrating. A failed manual submit falls back from submitting to ready so
// the learner can retry.
type State string

const (
	StateHydrating  State = "hydrating"
	StateReady      State = "ready"
	StateSubmitting State = "submitting"
	StateSubmitted  State = "submitted"
	StateError      State = "error"
)

const autoSubmitTimeout = 30 * time.Second

// Config wires a Session's collaborators. Gateway and Logger are required;
// Cache and Events may be nil (no resume support, no lifecycle events).
type Config struct {
	Gateway        Gateway
	Cache          cache.AttemptCache
	Events         events.Publisher
	Logger         utils.Logger
	WarningSeconds int
}

// Session coordinates one learner's run through an assessment: hydration with
// cache-first resume, per-question autosave, timer-driven auto-submit and
// manual submit, with the two submit triggers racing through a single guarded
// path.
type Session struct {
	mu sync.Mutex

	state     State
	errMsg    string
	saveErr   string
	learnerID string
	owner     string

	attempt   *models.StartAttemptPayload
	questions []models.Question
	answerSet map[string]models.AnswerValue
	index     int
	endReason models.AttemptEndReason

	timer *Timer

	gateway Gateway
	cache   cache.AttemptCache
	events  events.Publisher
	logger  utils.Logger
	warnAt  int

	saves sync.WaitGroup
}

func New(cfg Config) *Session {
	warnAt := cfg.WarningSeconds
	if warnAt <= 0 {
		warnAt = DefaultWarningSeconds
	}
	return &Session{
		state:     StateHydrating,
		owner:     watermill.NewUUID(),
		answerSet: make(map[string]models.AnswerValue),
		gateway:   cfg.Gateway,
		cache:     cfg.Cache,
		events:    cfg.Events,
		logger:    cfg.Logger,
		warnAt:    warnAt,
	}
}

// ===== HYDRATION =====

// Hydrate loads the attempt. When resumeAttemptID names a cached snapshot
// that is still in progress, it is reused without a network call; otherwise a
// fresh start-attempt call is made and its response cached for future resume.
// Failure here is terminal for the session.
func (s *Session) Hydrate(ctx context.Context, assessmentID, resumeAttemptID, learnerID string) error {
	s.mu.Lock()
	if s.state != StateHydrating {
		s.mu.Unlock()
		return fmt.Errorf("cannot hydrate from state %s", s.state)
	}
	s.learnerID = learnerID
	s.mu.Unlock()

	if resumeAttemptID != "" {
		if snapshot := s.loadSnapshot(ctx, resumeAttemptID); snapshot != nil {
			s.logger.Info("Resuming attempt from cached snapshot",
				"attempt_id", snapshot.AttemptID,
				"assessment_id", snapshot.Assessment.ID)
			s.adopt(snapshot)
			s.publish(events.NewAttemptEvent(events.EventAttemptResumed, snapshot.AttemptID, snapshot.Assessment.ID, learnerID))
			return nil
		}
	}

	snapshot, err := s.gateway.StartAttempt(ctx, assessmentID, learnerID)
	if err != nil {
		message := "could not start the attempt"
		s.mu.Lock()
		s.state = StateError
		s.errMsg = message
		s.mu.Unlock()
		s.logger.LogError(err, "Failed to start attempt", "assessment_id", assessmentID)
		return &HydrationError{AssessmentID: assessmentID, Message: message, Err: err}
	}

	if s.cache != nil {
		if err := s.cache.Put(ctx, snapshot.AttemptID, snapshot); err != nil {
			s.logger.LogError(err, "Failed to cache attempt snapshot", "attempt_id", snapshot.AttemptID)
		}
	}

	s.logger.Info("Started attempt",
		"attempt_id", snapshot.AttemptID,
		"assessment_id", snapshot.Assessment.ID,
		"learner_id", learnerID,
		"time_limit_seconds", snapshot.TimeLimitSeconds())
	s.adopt(snapshot)
	s.publish(events.NewAttemptEvent(events.EventAttemptStarted, snapshot.AttemptID, snapshot.Assessment.ID, learnerID))
	return nil
}

// loadSnapshot fetches and re-validates a cached snapshot. Submitted or
// missing snapshots yield nil, sending the caller down the fresh-start path.
func (s *Session) loadSnapshot(ctx context.Context, attemptID string) *models.StartAttemptPayload {
	if s.cache == nil {
		return nil
	}

	snapshot, err := s.cache.Get(ctx, attemptID)
	if err != nil {
		if err != cache.ErrNotFound {
			s.logger.LogError(err, "Failed to read attempt snapshot", "attempt_id", attemptID)
		}
		return nil
	}
	if snapshot.Status != models.AttemptStatusInProgress {
		s.logger.Warn("Cached snapshot is no longer in progress, starting fresh",
			"attempt_id", attemptID, "status", snapshot.Status)
		return nil
	}

	if claimed, err := s.cache.Claim(ctx, attemptID, s.owner); err != nil {
		s.logger.LogError(err, "Failed to claim attempt", "attempt_id", attemptID)
	} else if !claimed {
		// Another session holds this attempt. Autosave stays last-write-wins,
		// so resuming anyway matches the accepted cross-tab semantics.
		s.logger.Warn("Attempt already claimed by another session", "attempt_id", attemptID)
	}
	return snapshot
}

func (s *Session) adopt(snapshot *models.StartAttemptPayload) {
	s.mu.Lock()
	s.attempt = snapshot
	s.questions = snapshot.FlattenQuestions()
	s.index = 0
	s.state = StateReady

	// The deadline is fixed at StartedAt + limit. Resuming continues the
	// original clock rather than restarting it.
	limit := snapshot.TimeLimitSeconds()
	remaining := remainingSeconds(limit, snapshot.StartedAt)
	overdue := limit > 0 && remaining == 0
	learnerID := s.learnerID

	if overdue {
		s.timer = NewExpiredTimer(s.warnAt)
	} else {
		s.timer = NewTimer(remaining, s.warnAt, s.onTimerExpired)
		s.timer.OnWarning(func() {
			s.publish(events.NewAttemptEvent(events.EventAttemptTimeWarned,
				snapshot.AttemptID, snapshot.Assessment.ID, learnerID))
		})
	}
	s.mu.Unlock()

	// The deadline passed while the learner was away; submit with the
	// timeout reason instead of handing out a fresh clock.
	if overdue {
		s.onTimerExpired()
		return
	}

	// Arm only after the payload is adopted so the countdown cannot race
	// hydration.
	s.timer.Arm()
}

// remainingSeconds derives the live countdown from the attempt's fixed
// deadline. 0 means the deadline already passed on a timed attempt, or that
// the attempt is untimed when limit is 0. A zero StartedAt falls back to the
// full limit.
func remainingSeconds(limit int, startedAt time.Time) int {
	if limit <= 0 {
		return 0
	}
	if startedAt.IsZero() {
		return limit
	}
	deadline := startedAt.Add(time.Duration(limit) * time.Second)
	left := int(time.Until(deadline).Round(time.Second).Seconds())
	if left < 0 {
		return 0
	}
	if left > limit {
		return limit
	}
	return left
}

// ===== ANSWERING =====

// Answer applies one interaction to one question, updates local state
// synchronously, then fires an autosave that is never awaited. A save failure
// surfaces through LastSaveError without rolling back the local value.
func (s *Session) Answer(questionID string, in answers.Interaction) (models.AnswerValue, error) {
	s.mu.Lock()
	switch s.state {
	case StateReady:
	case StateSubmitted, StateSubmitting:
		s.mu.Unlock()
		return models.NoAnswer(), ErrAttemptAlreadySubmitted
	default:
		s.mu.Unlock()
		return models.NoAnswer(), ErrAttemptNotActive
	}

	question, ok := s.findQuestion(questionID)
	if !ok {
		s.mu.Unlock()
		return models.NoAnswer(), ErrQuestionNotFound
	}

	current, ok := s.answerSet[questionID]
	if !ok {
		current = models.NoAnswer()
	}
	next := answers.Apply(question, current, in)
	s.answerSet[questionID] = next

	attemptID := s.attempt.AttemptID
	assessmentID := s.attempt.Assessment.ID
	learnerID := s.learnerID
	s.mu.Unlock()

	encoded := answers.EncodeAnswer(next)
	s.saves.Add(1)
	go func() {
		defer s.saves.Done()
		ctx, cancel := context.WithTimeout(context.Background(), autoSubmitTimeout)
		defer cancel()

		err := s.gateway.SaveAnswer(ctx, models.SaveAnswerRequest{
			AttemptID:  attemptID,
			QuestionID: questionID,
			Value:      encoded,
		})
		if err == nil {
			return
		}

		s.mu.Lock()
		s.saveErr = "your last answer could not be saved"
		s.mu.Unlock()
		s.logger.LogError(err, "Autosave failed",
			"attempt_id", attemptID, "question_id", questionID)
		s.publish(events.NewAttemptEvent(events.EventAnswerSaveFailed, attemptID, assessmentID, learnerID).
			WithData("question_id", questionID))
	}()

	return next, nil
}

// Flush waits for in-flight autosaves. Used on shutdown and in tests; normal
// operation never blocks on saves.
func (s *Session) Flush() {
	s.saves.Wait()
}

// ===== NAVIGATION =====

// GoTo moves to the question at index, clamped to the valid range. Pure
// client-side state, never blocks on the network.
func (s *Session) GoTo(index int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 {
		index = 0
	}
	if max := len(s.questions) - 1; index > max {
		index = max
	}
	if index < 0 {
		index = 0
	}
	s.index = index
	return s.index
}

func (s *Session) Next() int { return s.GoTo(s.CurrentIndex() + 1) }
func (s *Session) Prev() int { return s.GoTo(s.CurrentIndex() - 1) }

func (s *Session) CurrentIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

// CurrentQuestion returns the question at the cursor and the learner's value
// for it.
func (s *Session) CurrentQuestion() (models.Question, models.AnswerValue, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index < 0 || s.index >= len(s.questions) {
		return models.Question{}, models.NoAnswer(), false
	}
	question := s.questions[s.index]
	value, ok := s.answerSet[question.ID]
	if !ok {
		value = models.NoAnswer()
	}
	return question, value, true
}

func (s *Session) Questions() []models.Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Question, len(s.questions))
	copy(out, s.questions)
	return out
}

func (s *Session) AnswerFor(questionID string) models.AnswerValue {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.answerSet[questionID]
	if !ok {
		return models.NoAnswer()
	}
	return value
}

// AnsweredCount counts questions the learner has actually touched, using the
// codec's canonical unanswered test.
func (s *Session) AnsweredCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, value := range s.answerSet {
		if answers.HasAnswerValue(value) {
			count++
		}
	}
	return count
}

// ===== SUBMIT =====

// Submit is the learner-initiated submit. A failure leaves the session in
// ready so submit can be retried.
func (s *Session) Submit(ctx context.Context) error {
	return s.submit(ctx, models.AttemptEndReasonManual)
}

// submit is the single path both triggers funnel through. The state check
// under the lock, not button disablement, is what guarantees at most one
// network submit: the first caller moves ready -> submitting and every later
// caller sees a terminal or in-flight state and backs off.
func (s *Session) submit(ctx context.Context, reason models.AttemptEndReason) error {
	s.mu.Lock()
	switch s.state {
	case StateSubmitted, StateSubmitting:
		s.mu.Unlock()
		return nil
	case StateReady:
		s.state = StateSubmitting
	default:
		s.mu.Unlock()
		return ErrAttemptNotActive
	}
	attemptID := s.attempt.AttemptID
	assessmentID := s.attempt.Assessment.ID
	learnerID := s.learnerID
	s.mu.Unlock()

	err := s.gateway.SubmitAttempt(ctx, models.SubmitAttemptRequest{
		AttemptID: attemptID,
		EndReason: reason,
	})
	if err != nil {
		s.mu.Lock()
		s.state = StateReady
		s.mu.Unlock()
		s.logger.LogError(err, "Submit failed", "attempt_id", attemptID, "end_reason", reason)
		return fmt.Errorf("%w: %v", ErrSubmitFailed, err)
	}

	s.mu.Lock()
	s.state = StateSubmitted
	s.endReason = reason
	s.attempt.Status = models.AttemptStatusSubmitted
	timer := s.timer
	s.mu.Unlock()

	if timer != nil {
		timer.Cancel()
	}
	if s.cache != nil {
		if err := s.cache.Delete(context.WithoutCancel(ctx), attemptID); err != nil {
			s.logger.LogError(err, "Failed to drop attempt snapshot", "attempt_id", attemptID)
		}
	}

	s.logger.Info("Attempt submitted", "attempt_id", attemptID, "end_reason", reason)
	s.publish(events.NewAttemptEvent(events.EventAttemptSubmitted, attemptID, assessmentID, learnerID).
		WithData("end_reason", string(reason)))
	return nil
}

// onTimerExpired is the auto-submit trigger. Its failure is swallowed: the
// learner still has the manual submit available, and a second error banner
// from a background process helps nobody.
func (s *Session) onTimerExpired() {
	s.mu.Lock()
	attempt := s.attempt
	learnerID := s.learnerID
	s.mu.Unlock()
	if attempt == nil {
		return
	}

	s.logger.Info("Attempt time expired, auto-submitting", "attempt_id", attempt.AttemptID)
	s.publish(events.NewAttemptEvent(events.EventAttemptExpired, attempt.AttemptID, attempt.Assessment.ID, learnerID))

	ctx, cancel := context.WithTimeout(context.Background(), autoSubmitTimeout)
	defer cancel()
	if err := s.submit(ctx, models.AttemptEndReasonTimeout); err != nil {
		s.logger.LogError(err, "Auto-submit failed", "attempt_id", attempt.AttemptID)
	}
}

// ===== STATE INSPECTION =====

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Attempt() *models.StartAttemptPayload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempt
}

func (s *Session) Timer() *Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer
}

// LastSaveError returns the non-blocking autosave error banner, empty when
// saves are healthy.
func (s *Session) LastSaveError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveErr
}

func (s *Session) ClearSaveError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveErr = ""
}

// ErrorMessage is set when the session reached the terminal error state.
func (s *Session) ErrorMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

// Close tears the session down: the timer stops so a stray late expiry cannot
// fire. In-flight autosaves are deliberately left running.
func (s *Session) Close() {
	s.mu.Lock()
	timer := s.timer
	s.mu.Unlock()
	if timer != nil {
		timer.Cancel()
	}
}

func (s *Session) findQuestion(questionID string) (models.Question, bool) {
	for _, q := range s.questions {
		if q.ID == questionID {
			return q, true
		}
	}
	return models.Question{}, false
}

func (s *Session) publish(event *events.AttemptEvent) {
	if s.events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.events.PublishAttemptEvent(ctx, event); err != nil {
		s.logger.LogError(err, "Failed to publish attempt event", "event_type", event.Type)
	}
}
