package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/Skotchmaster/marketplace/internal/models"
	"github.com/Skotchmaster/marketplace/internal/repo"
)

func validateListing(p models.Product) (models.Product, error) {
	p.Title = strings.TrimSpace(p.Title)
	if p.Title == "" {
		return p, fmt.Errorf("title is required: %w", ErrValidation)
	}
	if p.Price.IsNegative() {
		return p, fmt.Errorf("price cannot be negative: %w", ErrValidation)
	}
	category, err := models.ParseCategory(string(p.Category))
	if err != nil {
		return p, fmt.Errorf("%v: %w", err, ErrValidation)
	}
	p.Category = category
	if strings.TrimSpace(string(p.Condition)) == "" {
		p.Condition = models.ConditionGood
	}
	return p, nil
}

// sellerOf returns the current user if they can act as a seller.
func sellerOf(st *repo.State) (models.User, error) {
	if st.CurrentUser == nil {
		return models.User{}, ErrNotAuthenticated
	}
	if userIndex(st.Users, st.CurrentUser.ID) < 0 {
		return models.User{}, fmt.Errorf("current user is not in the directory: %w", ErrNotAuthenticated)
	}
	return *st.CurrentUser, nil
}

// AddProduct lists a product for the current user. New listings go first.
func (s *Store) AddProduct(ctx context.Context, in models.NewProduct) (models.Product, error) {
	var out models.Product
	err := s.mutate(ctx, "add_product", func(st *repo.State) (Change, error) {
		seller, err := sellerOf(st)
		if err != nil {
			return Change{}, err
		}

		p, err := validateListing(models.Product{
			Title:       in.Title,
			Description: strings.TrimSpace(in.Description),
			Price:       in.Price,
			Category:    in.Category,
			Condition:   in.Condition,
			Image:       strings.TrimSpace(in.Image),
		})
		if err != nil {
			return Change{}, err
		}

		id, err := s.freshID(func(id string) bool { return productIndex(st.Products, id) >= 0 })
		if err != nil {
			return Change{}, err
		}
		now := s.now()
		p.ID = id
		p.SellerID = seller.ID
		p.SellerName = seller.Username
		p.DatePosted = now

		st.Products = append([]models.Product{p}, st.Products...)
		out = p
		return Change{
			Kind:      ChangeProductCreated,
			Keys:      []repo.Key{repo.KeyProducts},
			At:        now,
			UserID:    seller.ID,
			ProductID: p.ID,
			Product:   &p,
		}, nil
	})
	return out, err
}

// ownedListing resolves id for the current user. A missing listing yields -1
// and no error.
func ownedListing(st *repo.State, id string) (int, error) {
	if st.CurrentUser == nil {
		return -1, ErrNotAuthenticated
	}
	i := productIndex(st.Products, id)
	if i < 0 {
		return -1, nil
	}
	if st.Products[i].SellerID != st.CurrentUser.ID {
		return -1, fmt.Errorf("listing %s belongs to another seller: %w", id, ErrForbidden)
	}
	return i, nil
}

// UpdateProduct merges upd into the listing. It returns nil when no listing
// has this id.
func (s *Store) UpdateProduct(ctx context.Context, id string, upd models.ProductUpdate) (*models.Product, error) {
	var out *models.Product
	err := s.mutate(ctx, "update_product", func(st *repo.State) (Change, error) {
		i, err := ownedListing(st, id)
		if err != nil || i < 0 {
			return Change{}, err
		}

		p, err := validateListing(upd.Apply(st.Products[i]))
		if err != nil {
			return Change{}, err
		}
		st.Products[i] = p
		out = &p
		return Change{
			Kind:      ChangeProductUpdated,
			Keys:      []repo.Key{repo.KeyProducts},
			At:        s.now(),
			UserID:    p.SellerID,
			ProductID: p.ID,
			Product:   &p,
		}, nil
	})
	return out, err
}

// DeleteProduct removes the listing and reports whether it existed.
func (s *Store) DeleteProduct(ctx context.Context, id string) (bool, error) {
	var deleted bool
	err := s.mutate(ctx, "delete_product", func(st *repo.State) (Change, error) {
		i, err := ownedListing(st, id)
		if err != nil || i < 0 {
			return Change{}, err
		}

		removed := st.Products[i]
		products := make([]models.Product, 0, len(st.Products)-1)
		products = append(products, st.Products[:i]...)
		st.Products = append(products, st.Products[i+1:]...)
		deleted = true
		return Change{
			Kind:      ChangeProductDeleted,
			Keys:      []repo.Key{repo.KeyProducts},
			At:        s.now(),
			UserID:    removed.SellerID,
			ProductID: removed.ID,
			Product:   &removed,
		}, nil
	})
	return deleted, err
}
