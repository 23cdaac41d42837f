package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/repo"
)

func (s *Store) addLine(st *repo.State, product models.Product) (models.CartItem, Change, error) {
	if st.CurrentUser == nil {
		return models.CartItem{}, Change{}, ErrNotAuthenticated
	}
	if product.ID == "" {
		return models.CartItem{}, Change{}, fmt.Errorf("product id is required: %w", ErrValidation)
	}
	if product.SellerID == st.CurrentUser.ID {
		return models.CartItem{}, Change{}, fmt.Errorf("cannot buy your own listing: %w", ErrForbidden)
	}

	now := s.now()
	var line models.CartItem
	if i := cartIndex(st.CartItems, product.ID); i >= 0 {
		st.CartItems[i].Quantity++
		line = st.CartItems[i]
	} else {
		line = models.CartItem{Product: product, Quantity: 1, AddedAt: now}
		st.CartItems = append(st.CartItems, line)
	}
	return line, Change{
		Kind:      ChangeCartUpdated,
		Keys:      []repo.Key{repo.KeyCartItems},
		At:        now,
		UserID:    st.CurrentUser.ID,
		ProductID: product.ID,
	}, nil
}

// AddToCart adds one unit of product. A product already in the cart has its
// quantity raised; otherwise a new line captures product as it is now.
func (s *Store) AddToCart(ctx context.Context, product models.Product) (models.CartItem, error) {
	var out models.CartItem
	err := s.mutate(ctx, "add_to_cart", func(st *repo.State) (Change, error) {
		line, ch, err := s.addLine(st, product)
		out = line
		return ch, err
	})
	return out, err
}

// AddToCartByID is AddToCart for a listing looked up in the catalog.
func (s *Store) AddToCartByID(ctx context.Context, productID string) (models.CartItem, error) {
	var out models.CartItem
	err := s.mutate(ctx, "add_to_cart", func(st *repo.State) (Change, error) {
		if st.CurrentUser == nil {
			return Change{}, ErrNotAuthenticated
		}
		i := productIndex(st.Products, productID)
		if i < 0 {
			return Change{}, fmt.Errorf("product %s: %w", productID, ErrNotFound)
		}
		line, ch, err := s.addLine(st, st.Products[i])
		out = line
		return ch, err
	})
	return out, err
}

// RemoveFromCart drops the whole line for productID.
func (s *Store) RemoveFromCart(ctx context.Context, productID string) error {
	return s.mutate(ctx, "remove_from_cart", func(st *repo.State) (Change, error) {
		if st.CurrentUser == nil {
			return Change{}, ErrNotAuthenticated
		}
		i := cartIndex(st.CartItems, productID)
		if i < 0 {
			return Change{}, nil
		}
		items := make([]models.CartItem, 0, len(st.CartItems)-1)
		items = append(items, st.CartItems[:i]...)
		st.CartItems = append(items, st.CartItems[i+1:]...)
		return Change{
			Kind:      ChangeCartUpdated,
			Keys:      []repo.Key{repo.KeyCartItems},
			At:        s.now(),
			UserID:    st.CurrentUser.ID,
			ProductID: productID,
		}, nil
	})
}

func (s *Store) ClearCart(ctx context.Context) error {
	return s.mutate(ctx, "clear_cart", func(st *repo.State) (Change, error) {
		if len(st.CartItems) == 0 {
			return Change{}, nil
		}
		st.CartItems = nil
		ch := Change{Kind: ChangeCartCleared, Keys: []repo.Key{repo.KeyCartItems}, At: s.now()}
		if st.CurrentUser != nil {
			ch.UserID = st.CurrentUser.ID
		}
		return ch, nil
	})
}

// CompletePurchase turns every cart line into a purchase and empties the
// cart. History and cart are written in one save, so either all lines become
// purchases or none do. An empty cart returns no purchases and no error.
func (s *Store) CompletePurchase(ctx context.Context) ([]models.Purchase, error) {
	var out []models.Purchase
	err := s.mutate(ctx, "complete_purchase", func(st *repo.State) (Change, error) {
		if st.CurrentUser == nil {
			return Change{}, ErrNotAuthenticated
		}
		if len(st.CartItems) == 0 {
			return Change{}, nil
		}

		checkoutID := s.newID()
		if checkoutID == "" {
			checkoutID = uuid.NewString()
		}
		now := s.now()
		buyer := st.CurrentUser.ID

		purchases := make([]models.Purchase, 0, len(st.CartItems))
		for _, line := range st.CartItems {
			purchases = append(purchases, models.Purchase{
				ID:           checkoutID + "-" + line.Product.ID,
				Product:      line.Product,
				Quantity:     line.Quantity,
				TotalPrice:   line.Product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))),
				PurchaseDate: now,
				BuyerID:      buyer,
			})
		}

		st.Purchases = append(append([]models.Purchase(nil), purchases...), st.Purchases...)
		st.CartItems = nil
		out = purchases
		return Change{
			Kind:      ChangePurchaseCompleted,
			Keys:      []repo.Key{repo.KeyPurchases, repo.KeyCartItems},
			At:        now,
			UserID:    buyer,
			Purchases: purchases,
		}, nil
	})
	return out, err
}
