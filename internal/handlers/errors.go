package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gridbase/gridbase/pkg/apperrors"
	"github.com/gridbase/gridbase/pkg/logger"
)

// writeError renders an error as JSON. AppErrors carry their own status and a
// client-safe message; anything else becomes an opaque 500.
func writeError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.Code, gin.H{"error": appErr.Message})
		return
	}
	logger.Error("request failed", "path", c.FullPath(), "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}
