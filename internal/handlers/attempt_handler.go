package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/brightpath/attempt-service/internal/answers"
	"github.com/brightpath/attempt-service/internal/models"
	"github.com/brightpath/attempt-service/internal/session"
	"github.com/brightpath/attempt-service/internal/utils"
)

type AttemptHandler struct {
	BaseHandler
	manager   *session.Manager
	validator *utils.Validator
}

func NewAttemptHandler(manager *session.Manager, validator *utils.Validator, logger utils.Logger) *AttemptHandler {
	return &AttemptHandler{
		BaseHandler: NewBaseHandler(logger),
		manager:     manager,
		validator:   validator,
	}
}

// ===== REQUEST / RESPONSE SHAPES =====

type StartAttemptRequest struct {
	AssessmentID    string `json:"assessment_id" validate:"required"`
	ResumeAttemptID string `json:"resume_attempt_id"`
}

type AnswerRequest struct {
	QuestionID  string              `json:"question_id" validate:"required"`
	Interaction answers.Interaction `json:"interaction" validate:"required"`
}

type NavigateRequest struct {
	Index int `json:"index" validate:"min=0"`
}

// SessionView is the state a client polls between interactions.
type SessionView struct {
	AttemptID     string                `json:"attemptId"`
	State         session.State         `json:"state"`
	Assessment    models.AssessmentInfo `json:"assessment"`
	CurrentIndex  int                   `json:"currentIndex"`
	TotalCount    int                   `json:"totalCount"`
	AnsweredCount int                   `json:"answeredCount"`
	TimeDisplay   string                `json:"timeDisplay"`
	TimeRemaining int                   `json:"timeRemaining"`
	TimeWarning   bool                  `json:"timeWarning"`
	Untimed       bool                  `json:"untimed"`
	SaveError     string                `json:"saveError,omitempty"`
}

func sessionView(s *session.Session) SessionView {
	attempt := s.Attempt()
	timer := s.Timer()

	view := SessionView{
		State:         s.State(),
		CurrentIndex:  s.CurrentIndex(),
		TotalCount:    len(s.Questions()),
		AnsweredCount: s.AnsweredCount(),
		SaveError:     s.LastSaveError(),
	}
	if attempt != nil {
		view.AttemptID = attempt.AttemptID
		view.Assessment = attempt.Assessment
	}
	if timer != nil {
		view.TimeDisplay = timer.Display()
		view.TimeRemaining = timer.Remaining()
		view.TimeWarning = timer.Warning()
		view.Untimed = timer.Untimed()
	}
	return view
}

// ===== HANDLERS =====

// Start begins or resumes an attempt session
// @Summary Start attempt
// @Description Starts a new attempt or resumes a cached one
// @Tags attempts
// @Accept json
// @Produce json
// @Param request body StartAttemptRequest true "Start data"
// @Success 200 {object} SuccessResponse{data=SessionView}
// @Failure 400 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /attempts/start [post]
func (h *AttemptHandler) Start(c *gin.Context) {
	var req StartAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		h.handleSessionError(c, err)
		return
	}

	h.LogRequest(c, "Starting attempt session",
		"assessment_id", req.AssessmentID,
		"resume_attempt_id", req.ResumeAttemptID)

	s, err := h.manager.Open(c.Request.Context(), req.AssessmentID, req.ResumeAttemptID, LearnerID(c))
	if err != nil {
		h.handleSessionError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Attempt session ready",
		Data:    sessionView(s),
	})
}

// Get returns the current session view
// @Summary Get attempt session
// @Tags attempts
// @Produce json
// @Param attempt_id path string true "Attempt ID"
// @Success 200 {object} SessionView
// @Failure 404 {object} ErrorResponse
// @Router /attempts/{attempt_id} [get]
func (h *AttemptHandler) Get(c *gin.Context) {
	s, ok := h.manager.Get(c.Param("attempt_id"))
	if !ok {
		h.handleSessionError(c, session.ErrAttemptNotFound)
		return
	}
	c.JSON(http.StatusOK, sessionView(s))
}

// Question returns the question at the cursor with the learner's value
// @Summary Current question
// @Tags attempts
// @Produce json
// @Param attempt_id path string true "Attempt ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Router /attempts/{attempt_id}/question [get]
func (h *AttemptHandler) Question(c *gin.Context) {
	s, ok := h.manager.Get(c.Param("attempt_id"))
	if !ok {
		h.handleSessionError(c, session.ErrAttemptNotFound)
		return
	}

	question, value, ok := s.CurrentQuestion()
	if !ok {
		h.handleSessionError(c, session.ErrQuestionNotFound)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"question": question,
		"value":    value,
		"answered": answers.HasAnswerValue(value),
		"options":  answers.DecodeOptions(question.OptionSpec),
	})
}

// Answer applies one interaction to one question
// @Summary Answer question
// @Description Applies an interaction; the save to the backend is fire-and-forget
// @Tags attempts
// @Accept json
// @Produce json
// @Param attempt_id path string true "Attempt ID"
// @Param request body AnswerRequest true "Interaction"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /attempts/{attempt_id}/answers [post]
func (h *AttemptHandler) Answer(c *gin.Context) {
	s, ok := h.manager.Get(c.Param("attempt_id"))
	if !ok {
		h.handleSessionError(c, session.ErrAttemptNotFound)
		return
	}

	var req AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		h.handleSessionError(c, err)
		return
	}

	value, err := s.Answer(req.QuestionID, req.Interaction)
	if err != nil {
		h.handleSessionError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"value":     value,
		"saveError": s.LastSaveError(),
	})
}

// Navigate moves the question cursor
// @Summary Navigate
// @Tags attempts
// @Accept json
// @Produce json
// @Param attempt_id path string true "Attempt ID"
// @Param request body NavigateRequest true "Target index"
// @Success 200 {object} SessionView
// @Failure 404 {object} ErrorResponse
// @Router /attempts/{attempt_id}/navigate [post]
func (h *AttemptHandler) Navigate(c *gin.Context) {
	s, ok := h.manager.Get(c.Param("attempt_id"))
	if !ok {
		h.handleSessionError(c, session.ErrAttemptNotFound)
		return
	}

	var req NavigateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	s.GoTo(req.Index)
	c.JSON(http.StatusOK, sessionView(s))
}

// Submit terminates the attempt
// @Summary Submit attempt
// @Description Submits the attempt; idempotent once submitted
// @Tags attempts
// @Produce json
// @Param attempt_id path string true "Attempt ID"
// @Success 200 {object} SuccessResponse{data=SessionView}
// @Failure 404 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /attempts/{attempt_id}/submit [post]
func (h *AttemptHandler) Submit(c *gin.Context) {
	attemptID := c.Param("attempt_id")
	s, ok := h.manager.Get(attemptID)
	if !ok {
		h.handleSessionError(c, session.ErrAttemptNotFound)
		return
	}

	h.LogRequest(c, "Submitting attempt", "attempt_id", attemptID)

	if err := s.Submit(c.Request.Context()); err != nil {
		h.handleSessionError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Attempt submitted",
		Data:    sessionView(s),
	})
}
