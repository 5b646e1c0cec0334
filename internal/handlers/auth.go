package handlers

import (
	"net/http"
	"strings"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/gin-gonic/gin"

	"github.com/brightpath/attempt-service/internal/utils"
)

const learnerIDKey = "learner_id"

// AuthMiddleware resolves the learner identity from a casdoor bearer token.
// The identity provider stays opaque: only the token subject is used, as the
// learner id forwarded to the grading backend.
func AuthMiddleware(logger utils.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Missing bearer token",
			})
			return
		}

		claims, err := casdoorsdk.ParseJwtToken(token)
		if err != nil {
			logger.Warn("Rejected invalid token", "error", err.Error())
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Invalid token",
			})
			return
		}

		learnerID := claims.Id
		if learnerID == "" {
			learnerID = claims.Name
		}
		c.Set(learnerIDKey, learnerID)
		c.Next()
	}
}

// LearnerID returns the authenticated learner id, empty when unauthenticated.
func LearnerID(c *gin.Context) string {
	if id, ok := c.Get(learnerIDKey); ok {
		if s, ok := id.(string); ok {
			return s
		}
	}
	return ""
}
