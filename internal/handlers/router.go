package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/brightpath/attempt-service/internal/session"
	"github.com/brightpath/attempt-service/internal/utils"
)

type HandlerManager struct {
	attemptHandler *AttemptHandler
	reviewHandler  *ReviewHandler
	logger         utils.Logger
}

func NewHandlerManager(
	manager *session.Manager,
	gateway session.Gateway,
	validator *utils.Validator,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		attemptHandler: NewAttemptHandler(manager, validator, logger),
		reviewHandler:  NewReviewHandler(gateway, logger),
		logger:         logger,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", HealthCheck)

	v1 := router.Group("/api/v1")
	v1.Use(AuthMiddleware(hm.logger))
	{
		attempts := v1.Group("/attempts")
		{
			attempts.POST("/start", hm.attemptHandler.Start)
			attempts.GET("/:attempt_id", hm.attemptHandler.Get)
			attempts.GET("/:attempt_id/question", hm.attemptHandler.Question)
			attempts.POST("/:attempt_id/answers", hm.attemptHandler.Answer)
			attempts.POST("/:attempt_id/navigate", hm.attemptHandler.Navigate)
			attempts.POST("/:attempt_id/submit", hm.attemptHandler.Submit)
			attempts.GET("/:attempt_id/review", hm.reviewHandler.Get)
			attempts.GET("/:attempt_id/review/export", hm.reviewHandler.Export)
		}
	}
}
