package handlers

import (
	"errors"
	"net/http"

	"auction-market/internal/domain"

	"github.com/labstack/echo/v4"
)

// writeError translates domain errors to HTTP. Rule violations carry their
// own user-facing message; invariant violations are a generic 500 because
// the client was never supposed to reach them.
func writeError(c echo.Context, err error) error {
	var re *domain.RuleError
	switch {
	case errors.As(err, &re):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": re.Message})
	case errors.Is(err, domain.ErrNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": "auction not found"})
	default:
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}
