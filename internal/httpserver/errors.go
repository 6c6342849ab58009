package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/blog_dashboard/internal/repo"
	"github.com/Skotchmaster/blog_dashboard/internal/service"
)

// messages holds the client-facing text for errors whose wording depends
// on the operation.
type messages struct {
	Unauthorized string
	Forbidden    string
	NotFound     string
}

func toHTTPError(l *slog.Logger, event string, err error, msgs messages) *echo.HTTPError {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		l.Warn(event, "status", http.StatusBadRequest, "reason", "validation failed", "fields", verr.Fields)
		return echo.NewHTTPError(http.StatusBadRequest, echo.Map{
			"message": "validation failed",
			"errors":  verr.Fields,
		})
	case errors.Is(err, repo.ErrUsernameTaken):
		return echo.NewHTTPError(http.StatusBadRequest, "Username already exists")
	case errors.Is(err, repo.ErrEmailTaken):
		return echo.NewHTTPError(http.StatusBadRequest, "Email already registered")
	case errors.Is(err, service.ErrConflict):
		return echo.NewHTTPError(http.StatusBadRequest, "User already exists")
	case errors.Is(err, service.ErrUnauthorized) && msgs.Unauthorized != "":
		return echo.NewHTTPError(http.StatusUnauthorized, msgs.Unauthorized)
	case errors.Is(err, service.ErrForbidden) && msgs.Forbidden != "":
		return echo.NewHTTPError(http.StatusForbidden, msgs.Forbidden)
	case errors.Is(err, service.ErrNotFound) && msgs.NotFound != "":
		return echo.NewHTTPError(http.StatusNotFound, msgs.NotFound)
	default:
		l.Error(event, "status", http.StatusInternalServerError, "reason", "internal server error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
}
