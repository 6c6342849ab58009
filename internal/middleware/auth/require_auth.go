package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/blog_dashboard/internal/logging"
	"github.com/Skotchmaster/blog_dashboard/internal/models"
	"github.com/Skotchmaster/blog_dashboard/internal/service"
)

const userKey = "current_user"

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// RequireAuth resolves the Authorization: Bearer header to a user and
// stores it on the context for CurrentUser.
func RequireAuth(a Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			l := logging.FromContext(ctx).With("middleware", "require_auth")

			token, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				l.Warn("auth_failed", "status", 401, "reason", "missing bearer token")
				return unauthorized(c, "Not authenticated")
			}

			user, err := a.Authenticate(ctx, token)
			if err != nil {
				switch {
				case errors.Is(err, service.ErrUnauthorized):
					l.Warn("auth_failed", "status", 401, "reason", "invalid token", "error", err)
					return unauthorized(c, "Invalid token")
				case errors.Is(err, service.ErrNotFound):
					l.Warn("auth_failed", "status", 404, "reason", "user not found")
					return echo.NewHTTPError(http.StatusNotFound, "User not found")
				default:
					l.Error("auth_failed", "status", 500, "error", err)
					return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
				}
			}

			c.Set(userKey, user)
			return next(c)
		}
	}
}

func CurrentUser(c echo.Context) (*models.User, bool) {
	user, ok := c.Get(userKey).(*models.User)
	return user, ok && user != nil
}

// bearerToken accepts the scheme in any case.
func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(c echo.Context, msg string) error {
	c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
	return echo.NewHTTPError(http.StatusUnauthorized, msg)
}
