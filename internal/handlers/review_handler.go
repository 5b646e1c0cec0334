package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/brightpath/attempt-service/internal/review"
	"github.com/brightpath/attempt-service/internal/session"
	"github.com/brightpath/attempt-service/internal/utils"
)

type ReviewHandler struct {
	BaseHandler
	gateway session.Gateway
}

func NewReviewHandler(gateway session.Gateway, logger utils.Logger) *ReviewHandler {
	return &ReviewHandler{
		BaseHandler: NewBaseHandler(logger),
		gateway:     gateway,
	}
}

// Get returns the formatted review for a submitted attempt
// @Summary Attempt review
// @Tags review
// @Produce json
// @Param attempt_id path string true "Attempt ID"
// @Success 200 {object} review.AttemptReview
// @Failure 404 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /attempts/{attempt_id}/review [get]
func (h *ReviewHandler) Get(c *gin.Context) {
	attemptID := c.Param("attempt_id")
	h.LogRequest(c, "Fetching attempt review", "attempt_id", attemptID)

	payload, err := h.gateway.FetchReview(c.Request.Context(), attemptID)
	if err != nil {
		h.handleSessionError(c, err)
		return
	}

	c.JSON(http.StatusOK, review.Format(payload))
}

// Export streams the review as an xlsx workbook
// @Summary Export attempt review
// @Tags review
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param attempt_id path string true "Attempt ID"
// @Success 200 {file} binary
// @Failure 404 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /attempts/{attempt_id}/review/export [get]
func (h *ReviewHandler) Export(c *gin.Context) {
	attemptID := c.Param("attempt_id")
	h.LogRequest(c, "Exporting attempt review", "attempt_id", attemptID)

	payload, err := h.gateway.FetchReview(c.Request.Context(), attemptID)
	if err != nil {
		h.handleSessionError(c, err)
		return
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=review-%s.xlsx", attemptID))

	if err := review.WriteXLSX(review.Format(payload), c.Writer); err != nil {
		h.logger.LogError(err, "Failed to stream review export", "attempt_id", attemptID)
	}
}
