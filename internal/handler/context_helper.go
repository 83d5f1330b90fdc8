package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable/internal/middleware"
	"github.com/noah-isme/sma-timetable/internal/models"
	appErrors "github.com/noah-isme/sma-timetable/pkg/errors"
	"github.com/noah-isme/sma-timetable/pkg/response"
)

// requireActor returns the id of the authenticated user recorded in job and
// audit fields. Without verified claims it writes a 401 and returns false.
func requireActor(c *gin.Context) (string, bool) {
	if value, exists := c.Get(middleware.ContextUserKey); exists {
		if claims, ok := value.(*models.JWTClaims); ok && claims.UserID != "" {
			return claims.UserID, true
		}
	}
	response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "authentication required"))
	return "", false
}
