package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCategory(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      string
		want    Category
		wantErr bool
	}{
		{name: "exact", in: "Books", want: CategoryBooks},
		{name: "case insensitive", in: "home & garden", want: CategoryHomeGarden},
		{name: "padded", in: "  Electronics ", want: CategoryElectronics},
		{name: "unknown", in: "Weapons", wantErr: true},
		{name: "empty", in: "", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseCategory(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnknownCategory)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCategory_UnmarshalJSONKeepsUnknown(t *testing.T) {
	t.Parallel()

	var p NewProduct
	require.NoError(t, json.Unmarshal([]byte(`{"title":"x","price":"1.50","category":"toys & games"}`), &p))
	assert.Equal(t, CategoryToys, p.Category)
	assert.True(t, p.Price.Equal(decimal.RequireFromString("1.5")))

	require.NoError(t, json.Unmarshal([]byte(`{"category":"nope"}`), &p))
	assert.Equal(t, Category("nope"), p.Category)
	assert.False(t, p.Category.Valid())
}

func TestCartItem_Subtotal(t *testing.T) {
	t.Parallel()

	item := CartItem{Product: Product{Price: decimal.RequireFromString("0.10")}, Quantity: 3}
	assert.True(t, item.Subtotal().Equal(decimal.RequireFromString("0.30")))
}

func TestProfileUpdate_ApplyOnlySetFields(t *testing.T) {
	t.Parallel()

	bio := "collector"
	u := User{ID: "u1", Email: "a@x.com", Username: "alice", Bio: "old"}
	got := ProfileUpdate{Bio: &bio}.Apply(u)

	assert.Equal(t, "collector", got.Bio)
	assert.Equal(t, "a@x.com", got.Email)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, "u1", got.ID)
}
