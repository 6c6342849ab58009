package httpserver

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/blog_dashboard/internal/logging"
	authmw "github.com/Skotchmaster/blog_dashboard/internal/middleware/auth"
	"github.com/Skotchmaster/blog_dashboard/internal/models"
	"github.com/Skotchmaster/blog_dashboard/internal/service"
	"github.com/Skotchmaster/blog_dashboard/internal/transport"
	"github.com/Skotchmaster/blog_dashboard/internal/util"
)

type PostHTTP struct {
	Svc *service.PostService
}

var (
	updateMessages = messages{NotFound: "Post not found", Forbidden: "Not authorized to edit this post"}
	deleteMessages = messages{NotFound: "Post not found", Forbidden: "Not authorized to delete this post"}
)

func currentUser(c echo.Context) (*models.User, error) {
	user, ok := authmw.CurrentUser(c)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "Not authenticated")
	}
	return user, nil
}

func parsePostID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid post id")
	}
	return uint(id), nil
}

func (h *PostHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "post_create")

	user, err := currentUser(c)
	if err != nil {
		return err
	}

	var req transport.PostRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("create_post_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	view, err := h.Svc.Create(ctx, user, req)
	if err != nil {
		return toHTTPError(l, "create_post_error", err, messages{})
	}
	return c.JSON(http.StatusCreated, view)
}

func (h *PostHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "post_list")

	posts, err := h.Svc.List(ctx)
	if err != nil {
		return toHTTPError(l, "list_posts_error", err, messages{})
	}
	return c.JSON(http.StatusOK, posts)
}

func (h *PostHTTP) Mine(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "post_mine")

	user, err := currentUser(c)
	if err != nil {
		return err
	}

	posts, err := h.Svc.ListByAuthor(ctx, user.ID)
	if err != nil {
		return toHTTPError(l, "list_my_posts_error", err, messages{})
	}
	return c.JSON(http.StatusOK, posts)
}

func (h *PostHTTP) Search(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "post_search")

	page, err := util.ParsePage(c.QueryParam("page"), c.QueryParam("size"))
	if err != nil {
		l.Warn("search_error", "status", 400, "reason", "bad paging", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	res, err := h.Svc.Search(ctx, c.QueryParam("q"), page.Number, page.Size)
	if err != nil {
		return toHTTPError(l, "search_error", err, messages{})
	}
	return c.JSON(http.StatusOK, res)
}

func (h *PostHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "post_update")

	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := parsePostID(c)
	if err != nil {
		return err
	}

	var req transport.PostRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("update_post_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	view, err := h.Svc.Update(ctx, id, user, req)
	if err != nil {
		return toHTTPError(l, "update_post_error", err, updateMessages)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *PostHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "post_delete")

	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := parsePostID(c)
	if err != nil {
		return err
	}

	if err := h.Svc.Delete(ctx, id, user.ID); err != nil {
		return toHTTPError(l, "delete_post_error", err, deleteMessages)
	}
	return c.NoContent(http.StatusNoContent)
}
