package httpserver

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/marketplace/internal/logging"
	"github.com/Skotchmaster/marketplace/internal/transport"
)

func (h *MarketHTTP) GetCart(c echo.Context) error {
	return c.JSON(http.StatusOK, transport.Cart(h.Store.CartItems()))
}

func (h *MarketHTTP) AddToCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add_to_cart")

	var req transport.AddToCartRequest
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.ProductID) == "" {
		l.Warn("add_to_cart_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "product_id is required")
	}

	line, err := h.Store.AddToCartByID(ctx, req.ProductID)
	if err != nil {
		return fail(l, "add_to_cart_error", err)
	}

	l.Info("add_to_cart_success", "product_id", req.ProductID, "quantity", line.Quantity)
	return c.JSON(http.StatusOK, transport.Cart(h.Store.CartItems()))
}

func (h *MarketHTTP) RemoveFromCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove_from_cart")

	if err := h.Store.RemoveFromCart(ctx, c.Param("id")); err != nil {
		return fail(l, "remove_from_cart_error", err)
	}
	return c.JSON(http.StatusOK, transport.Cart(h.Store.CartItems()))
}

func (h *MarketHTTP) ClearCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.clear_cart")

	if err := h.Store.ClearCart(ctx); err != nil {
		return fail(l, "clear_cart_error", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *MarketHTTP) Checkout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.checkout")

	purchases, err := h.Store.CompletePurchase(ctx)
	if err != nil {
		return fail(l, "checkout_error", err)
	}
	if len(purchases) == 0 {
		l.Info("checkout_noop", "reason", "empty cart")
		return c.JSON(http.StatusOK, map[string]any{"purchases": []any{}})
	}

	l.Info("checkout_success", "lines", len(purchases))
	return c.JSON(http.StatusCreated, map[string]any{"purchases": transport.Purchases(purchases)})
}

// Purchases lists the signed-in buyer's history, newest first.
func (h *MarketHTTP) Purchases(c echo.Context) error {
	if _, ok := h.Store.CurrentUser(); !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "login required")
	}
	return c.JSON(http.StatusOK, map[string]any{
		"data":  transport.Purchases(h.Store.MyPurchases()),
		"total": h.Store.TotalSpent(),
	})
}
