package transport

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/marketplace/internal/models"
)

func TestUser_DropsPassword(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(User(models.User{ID: "u1", Email: "a@x.com", Password: "hunter2", Username: "alice"}))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hunter2")
	assert.NotContains(t, string(data), "password")
	assert.Contains(t, string(data), models.DefaultAvatarURL)
}

func TestProduct_DefaultImage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, models.DefaultImageURL, Product(models.Product{}).Image)
	assert.Equal(t, "x.png", Product(models.Product{Image: "x.png"}).Image)
}

func TestCart(t *testing.T) {
	t.Parallel()

	resp := Cart([]models.CartItem{
		{Product: models.Product{ID: "a", Price: decimal.RequireFromString("0.10")}, Quantity: 3},
		{Product: models.Product{ID: "b", Price: decimal.RequireFromString("0.20")}, Quantity: 1},
	})
	assert.Equal(t, 4, resp.Count)
	assert.True(t, resp.Total.Equal(decimal.RequireFromString("0.5")))
	require.Len(t, resp.Items, 2)
	assert.True(t, resp.Items[0].Subtotal.Equal(decimal.RequireFromString("0.3")))

	empty := Cart(nil)
	assert.Empty(t, empty.Items)
	assert.True(t, empty.Total.IsZero())
}

func TestMeta(t *testing.T) {
	t.Parallel()

	m := Meta(2, 10, 10, 25)
	assert.EqualValues(t, 3, m.TotalPages)
	assert.True(t, m.HasPrev)
	assert.True(t, m.HasNext)

	last := Meta(3, 20, 10, 25)
	assert.False(t, last.HasNext)
}
