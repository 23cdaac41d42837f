package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/marketplace/internal/store"
)

// fail logs err at the level its status deserves and converts it into the
// HTTP error returned to the browser.
func fail(l *slog.Logger, event string, err error) error {
	status, msg := statusOf(err)
	if status >= http.StatusInternalServerError {
		l.Error(event, "status", status, "error", err)
	} else {
		l.Warn(event, "status", status, "reason", msg, "error", err)
	}
	return echo.NewHTTPError(status, msg)
}

func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, store.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, store.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid email or password"
	case errors.Is(err, store.ErrNotAuthenticated):
		return http.StatusUnauthorized, "login required"
	case errors.Is(err, store.ErrForbidden):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, store.ErrEmailTaken):
		return http.StatusConflict, "email already in use"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
