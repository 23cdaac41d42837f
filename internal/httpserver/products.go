package httpserver

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/marketplace/internal/logging"
	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/transport"
	"github.com/Skotchmaster/marketplace/internal/util"
)

// categoryParam reads ?category=. Empty and "all" mean no filter.
func categoryParam(c echo.Context) (models.Category, error) {
	raw := strings.TrimSpace(c.QueryParam("category"))
	if raw == "" || strings.EqualFold(raw, "all") {
		return "", nil
	}
	return models.ParseCategory(raw)
}

func (h *MarketHTTP) GetProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_products")

	category, err := categoryParam(c)
	if err != nil {
		l.Warn("get_products_error", "status", 400, "reason", "unknown category", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	items := h.Store.Feed(models.FeedFilter{Query: c.QueryParam("q"), Category: category})
	total := int64(len(items))

	return c.JSON(http.StatusOK, map[string]any{
		"data": transport.Products(util.Window(items, offset, limit)),
		"meta": transport.Meta(page, offset, limit, total),
	})
}

func (h *MarketHTTP) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_product")

	id := c.Param("id")
	p, ok := h.Store.Product(id)
	if !ok {
		l.Warn("get_product_error", "status", 404, "reason", "product with this id does not exist", "product_id", id)
		return echo.NewHTTPError(http.StatusNotFound, "product not found")
	}
	return c.JSON(http.StatusOK, transport.Product(p))
}

func (h *MarketHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.create_product")

	var req models.NewProduct
	if err := c.Bind(&req); err != nil {
		l.Warn("create_product_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	p, err := h.Store.AddProduct(ctx, req)
	if err != nil {
		return fail(l, "create_product_error", err)
	}

	l.Info("create_product_success", "product_id", p.ID)
	return c.JSON(http.StatusCreated, transport.Product(p))
}

func (h *MarketHTTP) PatchProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.patch_product")

	var req models.ProductUpdate
	if err := c.Bind(&req); err != nil {
		l.Warn("patch_product_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	id := c.Param("id")
	p, err := h.Store.UpdateProduct(ctx, id, req)
	if err != nil {
		return fail(l, "patch_product_error", err)
	}
	if p == nil {
		l.Warn("patch_product_error", "status", 404, "reason", "product not found", "product_id", id)
		return echo.NewHTTPError(http.StatusNotFound, "product not found")
	}

	l.Info("patch_product_success", "product_id", id)
	return c.JSON(http.StatusOK, transport.Product(*p))
}

func (h *MarketHTTP) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.delete_product")

	id := c.Param("id")
	deleted, err := h.Store.DeleteProduct(ctx, id)
	if err != nil {
		return fail(l, "delete_product_error", err)
	}
	if !deleted {
		l.Warn("delete_product_error", "status", 404, "reason", "product not found", "product_id", id)
		return echo.NewHTTPError(http.StatusNotFound, "product not found")
	}

	l.Info("delete_product_success", "product_id", id)
	return c.NoContent(http.StatusNoContent)
}

// Search asks the search index first and falls back to the in-memory feed
// filter when no index is configured or the index call fails.
func (h *MarketHTTP) Search(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.search")

	q := strings.TrimSpace(c.QueryParam("q"))
	if q == "" {
		l.Warn("search_error", "status", 400, "reason", "empty query")
		return echo.NewHTTPError(http.StatusBadRequest, "query is required")
	}
	category, err := categoryParam(c)
	if err != nil {
		l.Warn("search_error", "status", 400, "reason", "unknown category", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	from, size := util.Calculate(page, size)

	if h.Index != nil {
		total, products, err := h.Index.Search(ctx, q, category, from, size)
		if err == nil {
			return c.JSON(http.StatusOK, map[string]any{
				"total":    total,
				"products": transport.Products(products),
				"source":   "index",
			})
		}
		l.Warn("search_index_error", "reason", "falling back to catalog filter", "error", err)
	}

	items := h.Store.Feed(models.FeedFilter{Query: q, Category: category})
	return c.JSON(http.StatusOK, map[string]any{
		"total":    len(items),
		"products": transport.Products(util.Window(items, from, size)),
		"source":   "catalog",
	})
}
