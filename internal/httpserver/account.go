package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/marketplace/internal/logging"
	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/store"
	"github.com/Skotchmaster/marketplace/internal/transport"
)

// Searcher runs full-text catalog queries. from and size are an offset and
// a page length.
type Searcher interface {
	Search(ctx context.Context, q string, category models.Category, from, size int) (int64, []models.Product, error)
}

type MarketHTTP struct {
	Store *store.Store
	// Index is optional; without it /search filters the catalog in memory.
	Index Searcher
}

func (h *MarketHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "account.register")

	var req models.NewUser
	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	user, err := h.Store.Register(ctx, req)
	if err != nil {
		return fail(l, "register_error", err)
	}

	l.Info("register_success", "user_id", user.ID)
	return c.JSON(http.StatusCreated, transport.User(user))
}

func (h *MarketHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "account.login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	user, err := h.Store.Login(ctx, req.Email, req.Password)
	if err != nil {
		return fail(l, "login_error", err)
	}

	l.Info("login_success", "user_id", user.ID)
	return c.JSON(http.StatusOK, transport.User(user))
}

func (h *MarketHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "account.logout")

	if err := h.Store.Logout(ctx); err != nil {
		return fail(l, "logout_error", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *MarketHTTP) Me(c echo.Context) error {
	user, ok := h.Store.CurrentUser()
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "login required")
	}
	return c.JSON(http.StatusOK, transport.User(user))
}

func (h *MarketHTTP) UpdateMe(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "account.update_me")

	var req models.ProfileUpdate
	if err := c.Bind(&req); err != nil {
		l.Warn("update_profile_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	user, err := h.Store.UpdateProfile(ctx, req)
	if err != nil {
		return fail(l, "update_profile_error", err)
	}

	l.Info("update_profile_success", "user_id", user.ID)
	return c.JSON(http.StatusOK, transport.User(user))
}

func (h *MarketHTTP) MyListings(c echo.Context) error {
	if _, ok := h.Store.CurrentUser(); !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "login required")
	}
	listings := h.Store.MyListings()
	return c.JSON(http.StatusOK, map[string]any{
		"data":  transport.Products(listings),
		"value": h.Store.ListingsValue(),
	})
}

func (h *MarketHTTP) Users(c echo.Context) error {
	return c.JSON(http.StatusOK, transport.Users(h.Store.Users()))
}

func (h *MarketHTTP) Categories(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"categories": models.Categories,
		"conditions": models.Conditions,
	})
}
