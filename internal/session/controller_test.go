package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightpath/attempt-service/internal/answers"
	"github.com/brightpath/attempt-service/internal/cache"
	"github.com/brightpath/attempt-service/internal/events"
	"github.com/brightpath/attempt-service/internal/models"
	"github.com/brightpath/attempt-service/internal/utils"
)

// mockGateway counts calls and can be told to fail or stall per operation.
type mockGateway struct {
	mu sync.Mutex

	startCalls  int
	saveCalls   int
	submitCalls int

	payload   *models.StartAttemptPayload
	startErr  error
	saveErr   error
	submitErr error

	saveReqs    []models.SaveAnswerRequest
	submitReqs  []models.SubmitAttemptRequest
	submitDelay time.Duration
}

func (m *mockGateway) StartAttempt(_ context.Context, _, _ string) (*models.StartAttemptPayload, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startCalls++
	if m.startErr != nil {
		return nil, m.startErr
	}
	snapshot := *m.payload
	return &snapshot, nil
}

func (m *mockGateway) SaveAnswer(_ context.Context, req models.SaveAnswerRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveCalls++
	m.saveReqs = append(m.saveReqs, req)
	return m.saveErr
}

func (m *mockGateway) SubmitAttempt(_ context.Context, req models.SubmitAttemptRequest) error {
	m.mu.Lock()
	delay := m.submitDelay
	m.submitCalls++
	m.submitReqs = append(m.submitReqs, req)
	err := m.submitErr
	m.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	return err
}

func (m *mockGateway) FetchReview(_ context.Context, _ string) (*models.ReviewPayload, error) {
	return &models.ReviewPayload{}, nil
}

func (m *mockGateway) counts() (start, save, submit int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.startCalls, m.saveCalls, m.submitCalls
}

func testLogger() utils.Logger {
	return utils.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func startPayload() *models.StartAttemptPayload {
	return &models.StartAttemptPayload{
		AttemptID: "att-1",
		Status:    models.AttemptStatusInProgress,
		StartedAt: time.Now(),
		Assessment: models.AssessmentInfo{
			ID:               "asm-1",
			Title:            "Unit 3 Quiz",
			TimeLimitMinutes: 1,
		},
		Sections: []models.Section{
			{ID: "s2", Order: 2, Questions: []models.Question{
				{ID: "q3", Order: 1, Type: models.ShortAnswer, Prompt: "Explain"},
			}},
			{ID: "s1", Order: 1, Questions: []models.Question{
				{ID: "q2", Order: 2, Type: models.MultiSelect, OptionSpec: []byte(`["a","b"]`)},
				{ID: "q1", Order: 1, Type: models.MultipleChoice, OptionSpec: []byte(`["Paris","London"]`)},
			}},
		},
	}
}

func newTestSession(gw *mockGateway, c cache.AttemptCache, pub events.Publisher) *Session {
	return New(Config{
		Gateway: gw,
		Cache:   c,
		Events:  pub,
		Logger:  testLogger(),
	})
}

func TestHydrateFreshAttempt(t *testing.T) {
	gw := &mockGateway{payload: startPayload()}
	mem := cache.NewMemoryCache(time.Hour)
	pub := events.NewMockPublisher()
	s := newTestSession(gw, mem, pub)
	defer s.Close()

	require.NoError(t, s.Hydrate(context.Background(), "asm-1", "", "learner-1"))
	assert.Equal(t, StateReady, s.State())

	// Sections flatten in section order, questions in question order.
	questions := s.Questions()
	require.Len(t, questions, 3)
	assert.Equal(t, "q1", questions[0].ID)
	assert.Equal(t, "q2", questions[1].ID)
	assert.Equal(t, "q3", questions[2].ID)

	// The response was cached for refresh-resume.
	cached, err := mem.Get(context.Background(), "att-1")
	require.NoError(t, err)
	assert.Equal(t, "att-1", cached.AttemptID)

	published := pub.PublishedEvents()
	require.Len(t, published, 1)
	assert.Equal(t, events.EventAttemptStarted, published[0].Type)
}

func TestResumeFromCacheSkipsNetwork(t *testing.T) {
	original := startPayload()
	mem := cache.NewMemoryCache(time.Hour)
	require.NoError(t, mem.Put(context.Background(), original.AttemptID, original))

	gw := &mockGateway{payload: startPayload()}
	s := newTestSession(gw, mem, events.NewMockPublisher())
	defer s.Close()

	require.NoError(t, s.Hydrate(context.Background(), "asm-1", "att-1", "learner-1"))

	starts, _, _ := gw.counts()
	assert.Equal(t, 0, starts, "resume must not call start attempt")
	assert.Equal(t, StateReady, s.State())

	// Question and section ordering is identical to the original response.
	want := original.FlattenQuestions()
	got := s.Questions()
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].ID, got[i].ID)
	}
}

func TestResumeContinuesOriginalClock(t *testing.T) {
	original := startPayload()
	original.StartedAt = time.Now().Add(-45 * time.Second)
	mem := cache.NewMemoryCache(time.Hour)
	require.NoError(t, mem.Put(context.Background(), original.AttemptID, original))

	gw := &mockGateway{payload: startPayload()}
	s := newTestSession(gw, mem, events.NewMockPublisher())
	defer s.Close()

	require.NoError(t, s.Hydrate(context.Background(), "asm-1", "att-1", "learner-1"))
	assert.Equal(t, StateReady, s.State())

	// 45 of the 60 seconds are spent; a refresh must not hand back a full
	// clock.
	timer := s.Timer()
	require.False(t, timer.Untimed())
	assert.LessOrEqual(t, timer.Remaining(), 15)
	assert.GreaterOrEqual(t, timer.Remaining(), 13)
}

func TestResumePastDeadlineAutoSubmits(t *testing.T) {
	original := startPayload()
	original.StartedAt = time.Now().Add(-2 * time.Minute)
	mem := cache.NewMemoryCache(time.Hour)
	require.NoError(t, mem.Put(context.Background(), original.AttemptID, original))

	gw := &mockGateway{payload: startPayload()}
	pub := events.NewMockPublisher()
	s := newTestSession(gw, mem, pub)
	defer s.Close()

	require.NoError(t, s.Hydrate(context.Background(), "asm-1", "att-1", "learner-1"))

	// The one-minute limit ran out while the learner was away.
	assert.Equal(t, StateSubmitted, s.State())
	assert.True(t, s.Timer().Expired())

	starts, _, submits := gw.counts()
	assert.Equal(t, 0, starts)
	require.Equal(t, 1, submits)

	gw.mu.Lock()
	reason := gw.submitReqs[0].EndReason
	gw.mu.Unlock()
	assert.Equal(t, models.AttemptEndReasonTimeout, reason)

	var sawExpired bool
	for _, e := range pub.PublishedEvents() {
		if e.Type == events.EventAttemptExpired {
			sawExpired = true
		}
	}
	assert.True(t, sawExpired)
}

func TestResumeDiscardsSubmittedSnapshot(t *testing.T) {
	stale := startPayload()
	stale.Status = models.AttemptStatusSubmitted
	mem := cache.NewMemoryCache(time.Hour)
	require.NoError(t, mem.Put(context.Background(), stale.AttemptID, stale))

	gw := &mockGateway{payload: startPayload()}
	s := newTestSession(gw, mem, events.NewMockPublisher())
	defer s.Close()

	require.NoError(t, s.Hydrate(context.Background(), "asm-1", "att-1", "learner-1"))

	starts, _, _ := gw.counts()
	assert.Equal(t, 1, starts, "stale snapshot must fall through to a fresh start")
}

func TestHydrateFailureIsTerminal(t *testing.T) {
	gw := &mockGateway{startErr: errors.New("backend down")}
	s := newTestSession(gw, cache.NewMemoryCache(time.Hour), events.NewMockPublisher())

	err := s.Hydrate(context.Background(), "asm-1", "", "learner-1")
	require.Error(t, err)

	var hydrationErr *HydrationError
	require.ErrorAs(t, err, &hydrationErr)
	assert.Equal(t, StateError, s.State())
	assert.NotEmpty(t, s.ErrorMessage())
}

func TestAnswerUpdatesLocallyAndAutosaves(t *testing.T) {
	gw := &mockGateway{payload: startPayload()}
	s := newTestSession(gw, cache.NewMemoryCache(time.Hour), events.NewMockPublisher())
	defer s.Close()
	require.NoError(t, s.Hydrate(context.Background(), "asm-1", "", "learner-1"))

	value, err := s.Answer("q1", answers.Interaction{Kind: answers.InteractionSelect, Option: "London"})
	require.NoError(t, err)
	assert.Equal(t, models.TextAnswer("London"), value)
	assert.Equal(t, models.TextAnswer("London"), s.AnswerFor("q1"))
	assert.Equal(t, 1, s.AnsweredCount())

	s.Flush()
	_, saves, _ := gw.counts()
	require.Equal(t, 1, saves)

	gw.mu.Lock()
	req := gw.saveReqs[0]
	gw.mu.Unlock()
	assert.Equal(t, "att-1", req.AttemptID)
	assert.Equal(t, "q1", req.QuestionID)
	assert.JSONEq(t, `"London"`, string(req.Value))
}

func TestAutosaveFailureIsNonBlocking(t *testing.T) {
	gw := &mockGateway{payload: startPayload(), saveErr: errors.New("save rejected")}
	pub := events.NewMockPublisher()
	s := newTestSession(gw, cache.NewMemoryCache(time.Hour), pub)
	defer s.Close()
	require.NoError(t, s.Hydrate(context.Background(), "asm-1", "", "learner-1"))

	_, err := s.Answer("q1", answers.Interaction{Kind: answers.InteractionSelect, Option: "Paris"})
	require.NoError(t, err, "a failing save must not block answering")
	s.Flush()

	// Local value is the source of truth, not rolled back.
	assert.Equal(t, models.TextAnswer("Paris"), s.AnswerFor("q1"))
	assert.NotEmpty(t, s.LastSaveError())

	// The learner can keep working.
	_, err = s.Answer("q2", answers.Interaction{Kind: answers.InteractionToggle, Option: "a"})
	require.NoError(t, err)
	s.Flush()

	var sawFailure bool
	for _, e := range pub.PublishedEvents() {
		if e.Type == events.EventAnswerSaveFailed {
			sawFailure = true
		}
	}
	assert.True(t, sawFailure)

	s.ClearSaveError()
	assert.Empty(t, s.LastSaveError())
}

func TestSubmitIsIdempotent(t *testing.T) {
	gw := &mockGateway{payload: startPayload()}
	s := newTestSession(gw, cache.NewMemoryCache(time.Hour), events.NewMockPublisher())
	defer s.Close()
	require.NoError(t, s.Hydrate(context.Background(), "asm-1", "", "learner-1"))

	require.NoError(t, s.Submit(context.Background()))
	assert.Equal(t, StateSubmitted, s.State())

	// A second submit, as from a late timer fire, is a no-op.
	require.NoError(t, s.Submit(context.Background()))

	_, _, submits := gw.counts()
	assert.Equal(t, 1, submits)
}

func TestConcurrentSubmitsIssueOneCall(t *testing.T) {
	gw := &mockGateway{payload: startPayload(), submitDelay: 50 * time.Millisecond}
	s := newTestSession(gw, cache.NewMemoryCache(time.Hour), events.NewMockPublisher())
	defer s.Close()
	require.NoError(t, s.Hydrate(context.Background(), "asm-1", "", "learner-1"))

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Submit(context.Background())
		}()
	}
	wg.Wait()

	_, _, submits := gw.counts()
	assert.Equal(t, 1, submits)
	assert.Equal(t, StateSubmitted, s.State())
}

func TestManualSubmitFailureIsRetryable(t *testing.T) {
	gw := &mockGateway{payload: startPayload(), submitErr: errors.New("backend hiccup")}
	s := newTestSession(gw, cache.NewMemoryCache(time.Hour), events.NewMockPublisher())
	defer s.Close()
	require.NoError(t, s.Hydrate(context.Background(), "asm-1", "", "learner-1"))

	err := s.Submit(context.Background())
	require.ErrorIs(t, err, ErrSubmitFailed)
	assert.Equal(t, StateReady, s.State(), "failed submit falls back to ready")

	gw.mu.Lock()
	gw.submitErr = nil
	gw.mu.Unlock()

	require.NoError(t, s.Submit(context.Background()))
	assert.Equal(t, StateSubmitted, s.State())
}

func TestAutoSubmitOnExpiry(t *testing.T) {
	gw := &mockGateway{payload: startPayload()}
	pub := events.NewMockPublisher()
	s := newTestSession(gw, cache.NewMemoryCache(time.Hour), pub)
	defer s.Close()
	require.NoError(t, s.Hydrate(context.Background(), "asm-1", "", "learner-1"))

	timer := s.Timer()
	require.NotNil(t, timer)
	require.False(t, timer.Untimed())

	// Drive the one-minute countdown to zero; expiry fires the submit path.
	for i := 0; i < 60; i++ {
		timer.tick()
	}

	assert.Equal(t, StateSubmitted, s.State())
	_, _, submits := gw.counts()
	assert.Equal(t, 1, submits)

	gw.mu.Lock()
	reason := gw.submitReqs[0].EndReason
	gw.mu.Unlock()
	assert.Equal(t, models.AttemptEndReasonTimeout, reason)

	// A manual submit after auto-submit stays a no-op.
	require.NoError(t, s.Submit(context.Background()))
	_, _, submits = gw.counts()
	assert.Equal(t, 1, submits)

	var sawExpired, sawWarning bool
	for _, e := range pub.PublishedEvents() {
		switch e.Type {
		case events.EventAttemptExpired:
			sawExpired = true
		case events.EventAttemptTimeWarned:
			sawWarning = true
		}
	}
	assert.True(t, sawExpired)
	assert.True(t, sawWarning, "the countdown crossed the warning threshold before expiring")
}

func TestAutoSubmitFailureIsSwallowed(t *testing.T) {
	gw := &mockGateway{payload: startPayload(), submitErr: errors.New("backend hiccup")}
	s := newTestSession(gw, cache.NewMemoryCache(time.Hour), events.NewMockPublisher())
	defer s.Close()
	require.NoError(t, s.Hydrate(context.Background(), "asm-1", "", "learner-1"))

	timer := s.Timer()
	for i := 0; i < 60; i++ {
		timer.tick()
	}

	// The failure is absorbed and the learner can still submit manually.
	assert.Equal(t, StateReady, s.State())

	gw.mu.Lock()
	gw.submitErr = nil
	gw.mu.Unlock()
	require.NoError(t, s.Submit(context.Background()))
	assert.Equal(t, StateSubmitted, s.State())
}

func TestUntimedAttemptNeverAutoSubmits(t *testing.T) {
	payload := startPayload()
	payload.Assessment.TimeLimitMinutes = 0
	gw := &mockGateway{payload: payload}
	s := newTestSession(gw, cache.NewMemoryCache(time.Hour), events.NewMockPublisher())
	defer s.Close()
	require.NoError(t, s.Hydrate(context.Background(), "asm-1", "", "learner-1"))

	timer := s.Timer()
	require.True(t, timer.Untimed())
	for i := 0; i < 100000; i++ {
		timer.tick()
	}

	assert.Equal(t, StateReady, s.State())
	_, _, submits := gw.counts()
	assert.Equal(t, 0, submits)
}

func TestAnswerAfterSubmitIsRejected(t *testing.T) {
	gw := &mockGateway{payload: startPayload()}
	s := newTestSession(gw, cache.NewMemoryCache(time.Hour), events.NewMockPublisher())
	defer s.Close()
	require.NoError(t, s.Hydrate(context.Background(), "asm-1", "", "learner-1"))
	require.NoError(t, s.Submit(context.Background()))

	_, err := s.Answer("q1", answers.Interaction{Kind: answers.InteractionSelect, Option: "Paris"})
	assert.ErrorIs(t, err, ErrAttemptAlreadySubmitted)
}

func TestNavigationIsPureAndClamped(t *testing.T) {
	gw := &mockGateway{payload: startPayload()}
	s := newTestSession(gw, cache.NewMemoryCache(time.Hour), events.NewMockPublisher())
	defer s.Close()
	require.NoError(t, s.Hydrate(context.Background(), "asm-1", "", "learner-1"))

	assert.Equal(t, 1, s.Next())
	assert.Equal(t, 2, s.Next())
	assert.Equal(t, 2, s.Next(), "next clamps at the last question")
	assert.Equal(t, 1, s.Prev())
	assert.Equal(t, 0, s.GoTo(-5))

	// Navigation alone never touches the network.
	starts, saves, submits := gw.counts()
	assert.Equal(t, 1, starts)
	assert.Equal(t, 0, saves)
	assert.Equal(t, 0, submits)
}

func TestAnswersAreIsolatedPerQuestion(t *testing.T) {
	gw := &mockGateway{payload: startPayload()}
	s := newTestSession(gw, cache.NewMemoryCache(time.Hour), events.NewMockPublisher())
	defer s.Close()
	require.NoError(t, s.Hydrate(context.Background(), "asm-1", "", "learner-1"))

	_, err := s.Answer("q1", answers.Interaction{Kind: answers.InteractionSelect, Option: "London"})
	require.NoError(t, err)
	_, err = s.Answer("q2", answers.Interaction{Kind: answers.InteractionToggle, Option: "b"})
	require.NoError(t, err)
	_, err = s.Answer("q3", answers.Interaction{Kind: answers.InteractionInput, Text: "because"})
	require.NoError(t, err)

	assert.Equal(t, models.TextAnswer("London"), s.AnswerFor("q1"))
	assert.Equal(t, []string{"b"}, s.AnswerFor("q2").List)
	assert.Equal(t, models.TextAnswer("because"), s.AnswerFor("q3"))
	s.Flush()
}
