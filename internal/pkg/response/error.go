package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nekogravitycat/cage-booking-backend/internal/pkg/apperror"
	"github.com/sirupsen/logrus"
)

// ErrorResponse defines the JSON structure for error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Error sends a JSON error response.
// It checks if the error is an AppError to determine the status code.
// If it's not an AppError, it defaults to 500 Internal Server Error.
func Error(c *gin.Context, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		if len(appErr.Details) == 0 {
			c.JSON(appErr.Code, ErrorResponse{Error: appErr.Message})
			return
		}
		body := gin.H{"error": appErr.Message}
		for k, v := range appErr.Details {
			body[k] = v
		}
		c.JSON(appErr.Code, body)
		return
	}

	// Unknown errors are logged, never exposed
	_ = c.Error(err)
	logrus.WithError(err).WithField("path", c.FullPath()).Error("unhandled error")
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}
