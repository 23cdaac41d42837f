package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/repo"
	"github.com/Skotchmaster/marketplace/internal/store"
)

type testEnv struct {
	e     *echo.Echo
	store *store.Store
	repo  *repo.MemoryRepo
}

func newTestEnv(t *testing.T, index Searcher) *testEnv {
	t.Helper()

	r := repo.NewMemory()
	s, err := store.New(context.Background(), r)
	require.NoError(t, err)

	e := echo.New()
	Register(e, &Deps{Market: &MarketHTTP{Store: s, Index: index}})
	return &testEnv{e: e, store: s, repo: r}
}

func (env *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func (env *testEnv) register(t *testing.T, email, username string) map[string]any {
	t.Helper()
	rec := env.do(t, http.MethodPost, "/api/v1/register", map[string]any{
		"email": email, "password": "secret", "username": username,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[map[string]any](t, rec)
}

func (env *testEnv) createProduct(t *testing.T, title, price, category string) models.Product {
	t.Helper()
	rec := env.do(t, http.MethodPost, "/api/v1/products", map[string]any{
		"title": title, "price": price, "category": category,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[models.Product](t, rec)
}

func TestHealth(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/health/live", nil).Code)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/health/ready", nil).Code)
}

func TestAccountFlow(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/api/v1/me", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	user := env.register(t, "a@x.com", "alice")
	assert.NotContains(t, user, "password")
	assert.Equal(t, models.DefaultAvatarURL, user["avatar"])

	rec = env.do(t, http.MethodPost, "/api/v1/register", map[string]any{
		"email": "A@x.com", "password": "x", "username": "again",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/register", map[string]any{"email": "b@x.com"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPatch, "/api/v1/me", map[string]any{"bio": "collector"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "collector", decode[map[string]any](t, rec)["bio"])

	rec = env.do(t, http.MethodPost, "/api/v1/logout", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodGet, "/api/v1/me", nil).Code)

	rec = env.do(t, http.MethodPost, "/api/v1/login", map[string]any{"email": "a@x.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/login", map[string]any{"email": "a@x.com", "password": "secret"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, user["id"], decode[map[string]any](t, rec)["id"])

	users := decode[[]map[string]any](t, env.do(t, http.MethodGet, "/api/v1/users", nil))
	require.Len(t, users, 1)
	assert.NotContains(t, users[0], "password")
}

func TestProductLifecycle(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/api/v1/products", map[string]any{"title": "x", "price": "1", "category": "Books"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	env.register(t, "a@x.com", "alice")
	p := env.createProduct(t, "Camera", "80.00", "electronics")
	assert.Equal(t, models.CategoryElectronics, p.Category)
	assert.Equal(t, models.DefaultImageURL, p.Image)
	assert.Equal(t, "alice", p.SellerName)

	rec = env.do(t, http.MethodPost, "/api/v1/products", map[string]any{"title": "x", "price": "1", "category": "Weapons"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/products/"+p.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Camera", decode[models.Product](t, rec).Title)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/v1/products/nope", nil).Code)

	rec = env.do(t, http.MethodPatch, "/api/v1/products/"+p.ID, map[string]any{"price": "75.5"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[models.Product](t, rec).Price.Equal(decimal.RequireFromString("75.5")))
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodPatch, "/api/v1/products/nope", map[string]any{"title": "y"}).Code)

	listings := decode[map[string]any](t, env.do(t, http.MethodGet, "/api/v1/me/listings", nil))
	assert.Len(t, listings["data"], 1)

	env.register(t, "b@x.com", "bob")
	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodDelete, "/api/v1/products/"+p.ID, nil).Code)

	_, err := env.store.Login(context.Background(), "a@x.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, "/api/v1/products/"+p.ID, nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodDelete, "/api/v1/products/"+p.ID, nil).Code)
}

func TestGetProducts_FilterAndPaginate(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	env.register(t, "a@x.com", "alice")
	for _, title := range []string{"Vintage lamp", "Vintage radio", "Road bike"} {
		env.createProduct(t, title, "10", "Other")
	}

	type page struct {
		Data []models.Product `json:"data"`
		Meta struct {
			Total   int64 `json:"total"`
			HasNext bool  `json:"has_next"`
		} `json:"meta"`
	}

	got := decode[page](t, env.do(t, http.MethodGet, "/api/v1/products?q=vintage&size=1", nil))
	require.Len(t, got.Data, 1)
	assert.Equal(t, "Vintage radio", got.Data[0].Title, "newest first")
	assert.EqualValues(t, 2, got.Meta.Total)
	assert.True(t, got.Meta.HasNext)

	got = decode[page](t, env.do(t, http.MethodGet, "/api/v1/products?category=All", nil))
	assert.Len(t, got.Data, 3)

	got = decode[page](t, env.do(t, http.MethodGet, "/api/v1/products?category=Books", nil))
	assert.Empty(t, got.Data)

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/v1/products?category=Weapons", nil).Code)
}

func TestCartAndCheckout(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	env.register(t, "a@x.com", "alice")
	p := env.createProduct(t, "P1", "10.00", "Other")

	rec := env.do(t, http.MethodPost, "/api/v1/cart", map[string]any{"product_id": p.ID})
	assert.Equal(t, http.StatusForbidden, rec.Code, "own listing")

	env.register(t, "b@x.com", "bob")
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/api/v1/cart", map[string]any{}).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodPost, "/api/v1/cart", map[string]any{"product_id": "nope"}).Code)

	for i := 0; i < 2; i++ {
		rec = env.do(t, http.MethodPost, "/api/v1/cart", map[string]any{"product_id": p.ID})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	type cart struct {
		Items []struct {
			Quantity int `json:"quantity"`
		} `json:"items"`
		Count int             `json:"count"`
		Total decimal.Decimal `json:"total"`
	}
	c := decode[cart](t, env.do(t, http.MethodGet, "/api/v1/cart", nil))
	require.Len(t, c.Items, 1)
	assert.Equal(t, 2, c.Items[0].Quantity)
	assert.Equal(t, 2, c.Count)
	assert.True(t, c.Total.Equal(decimal.NewFromInt(20)))

	rec = env.do(t, http.MethodPost, "/api/v1/cart/checkout", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	out := decode[struct {
		Purchases []models.Purchase `json:"purchases"`
	}](t, rec)
	require.Len(t, out.Purchases, 1)
	assert.True(t, out.Purchases[0].TotalPrice.Equal(decimal.RequireFromString("20.00")))

	rec = env.do(t, http.MethodPost, "/api/v1/cart/checkout", nil)
	assert.Equal(t, http.StatusOK, rec.Code, "empty cart checkout is a no-op")

	history := decode[map[string]any](t, env.do(t, http.MethodGet, "/api/v1/purchases", nil))
	assert.Len(t, history["data"], 1)
	assert.Equal(t, "20", history["total"])
}

func TestCart_RemoveAndClear(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	env.register(t, "a@x.com", "alice")
	p1 := env.createProduct(t, "P1", "1", "Other")
	p2 := env.createProduct(t, "P2", "2", "Other")
	env.register(t, "b@x.com", "bob")
	env.do(t, http.MethodPost, "/api/v1/cart", map[string]any{"product_id": p1.ID})
	env.do(t, http.MethodPost, "/api/v1/cart", map[string]any{"product_id": p2.ID})

	rec := env.do(t, http.MethodDelete, "/api/v1/cart/"+p1.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, env.store.CartItems(), 1)

	assert.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, "/api/v1/cart", nil).Code)
	assert.Empty(t, env.store.CartItems())
}

func TestPersistFailureIs500(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	env.repo.FailNext(errors.New("disk full"))
	rec := env.do(t, http.MethodPost, "/api/v1/register", map[string]any{
		"email": "a@x.com", "password": "secret", "username": "alice",
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Empty(t, env.store.Users())
}

type stubSearcher struct {
	products []models.Product
	err      error
	calls    int
}

func (s *stubSearcher) Search(_ context.Context, _ string, _ models.Category, _, _ int) (int64, []models.Product, error) {
	s.calls++
	if s.err != nil {
		return 0, nil, s.err
	}
	return int64(len(s.products)), s.products, nil
}

func TestSearch(t *testing.T) {
	t.Parallel()

	index := &stubSearcher{products: []models.Product{{ID: "from-index", Title: "Camera"}}}
	env := newTestEnv(t, index)
	env.register(t, "a@x.com", "alice")
	env.createProduct(t, "Camera body", "100", "Electronics")

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/v1/search", nil).Code)

	got := decode[map[string]any](t, env.do(t, http.MethodGet, "/api/v1/search?q=camera", nil))
	assert.Equal(t, "index", got["source"])
	assert.Equal(t, 1, index.calls)

	index.err = errors.New("cluster red")
	got = decode[map[string]any](t, env.do(t, http.MethodGet, "/api/v1/search?q=camera", nil))
	assert.Equal(t, "catalog", got["source"])
	assert.EqualValues(t, 1, got["total"])
}

func TestSearch_WithoutIndex(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	got := decode[map[string]any](t, env.do(t, http.MethodGet, "/api/v1/search?q=anything", nil))
	assert.Equal(t, "catalog", got["source"])
	assert.EqualValues(t, 0, got["total"])
}

func TestCategories(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	got := decode[map[string][]string](t, env.do(t, http.MethodGet, "/api/v1/categories", nil))
	assert.Len(t, got["categories"], len(models.Categories))
	assert.Contains(t, got["categories"], "Home & Garden")
	assert.Contains(t, got["conditions"], "Like New")
}

func TestPaging_HugePageIsEmptyNotError(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	env.register(t, "a@x.com", "alice")
	env.createProduct(t, "Vintage lamp", "10", "Other")

	for _, path := range []string{
		"/api/v1/products?page=922337203685477582&size=10",
		"/api/v1/search?q=vintage&page=922337203685477582&size=10",
	} {
		rec := env.do(t, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, rec.Code, path)
		body := decode[map[string]any](t, rec)
		if data, ok := body["data"]; ok {
			assert.Empty(t, data, path)
		} else {
			assert.Empty(t, body["products"], path)
		}
	}
}
