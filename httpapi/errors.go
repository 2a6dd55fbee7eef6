package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"macrotrack/lookup"
	"macrotrack/recipe"
	"macrotrack/resolver"
	"macrotrack/tracker"
)

var errBadRequest = errors.New("invalid request body")

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	var statusErr *lookup.StatusError
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, resolver.ErrEmptyRecipe),
		errors.Is(err, recipe.ErrMissingName),
		errors.Is(err, recipe.ErrNoIngredients),
		errors.Is(err, recipe.ErrBadIngredient),
		errors.Is(err, tracker.ErrInvalidTarget),
		errors.Is(err, lookup.ErrEmptyTerm):
		return http.StatusBadRequest
	case errors.Is(err, resolver.ErrStale):
		return http.StatusConflict
	case errors.Is(err, lookup.ErrBusy):
		return http.StatusServiceUnavailable
	case errors.Is(err, lookup.ErrNoStructuredData),
		errors.Is(err, lookup.ErrMalformedResponse),
		errors.As(err, &statusErr):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		slog.Error("HTTP: Request failed", "path", c.FullPath(), "status", status, "error", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
