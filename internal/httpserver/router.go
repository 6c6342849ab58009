package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/blog_dashboard/internal/logging"
	authmw "github.com/Skotchmaster/blog_dashboard/internal/middleware/auth"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	AuthHandler *AuthHTTP
	PostHandler *PostHTTP
	Auth        authmw.Authenticator
	DB          Pinger
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"message": "Blog Management Dashboard API running"})
	})
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", ready(d.DB))

	requireAuth := authmw.RequireAuth(d.Auth)

	e.POST("/auth/register", d.AuthHandler.Register)
	e.POST("/auth/login", d.AuthHandler.Login)

	e.GET("/posts", d.PostHandler.List)
	e.GET("/posts/search", d.PostHandler.Search)
	e.GET("/posts/me", d.PostHandler.Mine, requireAuth)
	e.POST("/posts", d.PostHandler.Create, requireAuth)
	e.PUT("/posts/:id", d.PostHandler.Update, requireAuth)
	e.DELETE("/posts/:id", d.PostHandler.Delete, requireAuth)
}

func ready(db Pinger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			logging.FromContext(ctx).Warn("readiness_failed", "status", 503, "error", err)
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unavailable"})
		}
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	}
}
