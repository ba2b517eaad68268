package middleware

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/princinho/toursbackend/apperrors"
	"github.com/princinho/toursbackend/logger"
)

// ErrorHandler renders the last error a handler reported with c.Error.
// Development responses carry the error and the stack. In production only
// operational messages reach the client.
func ErrorHandler(production bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		appErr := apperrors.Normalize(c.Errors.Last().Err)
		log := logger.FromContext(c.Request.Context())
		if !appErr.Operational || appErr.HTTPCode >= http.StatusInternalServerError {
			log.Error("request failed",
				"path", c.Request.URL.Path,
				"code", appErr.Code,
				"error", appErr.Error(),
			)
		}

		if !production {
			body := gin.H{
				"status":  appErr.Status(),
				"message": appErr.Message,
				"error":   appErr.Error(),
			}
			if stack := appErr.Stack(); stack != "" {
				body["stack"] = stack
			}
			c.JSON(appErr.HTTPCode, body)
			return
		}

		if !appErr.Operational {
			c.JSON(http.StatusInternalServerError, gin.H{
				"status":  "error",
				"message": "Something went very wrong!",
			})
			return
		}
		c.JSON(appErr.HTTPCode, gin.H{
			"status":  appErr.Status(),
			"message": appErr.Message,
		})
	}
}

// Recovery turns a panic into an unexpected error for ErrorHandler. It must
// be registered after ErrorHandler.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		c.Error(apperrors.Unexpected(fmt.Errorf("panic: %v", recovered)))
		c.Abort()
	})
}

// NotFound answers unknown routes through the error boundary.
func NotFound() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Error(apperrors.NotFound(fmt.Sprintf("Can't find %s on this server!", c.Request.URL.Path)))
		c.Abort()
	}
}
