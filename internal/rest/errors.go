package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/inkpress/inkpress/blog/domain"
	"github.com/rs/zerolog/log"
)

// writeError maps the domain taxonomy onto HTTP statuses for mutation
// paths. Validation failures carry the field message; dependency failures
// are logged and surfaced as retryable.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, domain.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": "permission denied"})
	default:
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "temporary failure, please retry"})
	}
}

// writeReadError maps errors for read paths. A policy denial is
// indistinguishable from a missing post so draft existence never leaks.
func writeReadError(c *gin.Context, err error) {
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrPermissionDenied) {
		c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
		return
	}
	writeError(c, err)
}
