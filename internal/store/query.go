package store

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/marketplace/internal/models"
)

// MatchesFeed reports whether p passes f: the query is a case-insensitive
// substring of the title or description, and the category matches when set.
func MatchesFeed(p models.Product, f models.FeedFilter) bool {
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	q := strings.ToLower(strings.TrimSpace(f.Query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.Title), q) ||
		strings.Contains(strings.ToLower(p.Description), q)
}

// Feed returns catalog entries matching f, newest first.
func (s *Store) Feed(f models.FeedFilter) []models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Product, 0, len(s.state.Products))
	for _, p := range s.state.Products {
		if MatchesFeed(p, f) {
			out = append(out, p)
		}
	}
	return out
}

func (s *Store) MyListings() []models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.CurrentUser == nil {
		return nil
	}
	var out []models.Product
	for _, p := range s.state.Products {
		if p.SellerID == s.state.CurrentUser.ID {
			out = append(out, p)
		}
	}
	return out
}

func (s *Store) MyPurchases() []models.Purchase {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.CurrentUser == nil {
		return nil
	}
	var out []models.Purchase
	for _, p := range s.state.Purchases {
		if p.BuyerID == s.state.CurrentUser.ID {
			out = append(out, p)
		}
	}
	return out
}

func (s *Store) CartTotal() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := decimal.Zero
	for _, line := range s.state.CartItems {
		total = total.Add(line.Subtotal())
	}
	return total
}

// CartCount is the number of units in the cart, not the number of lines.
func (s *Store) CartCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, line := range s.state.CartItems {
		n += line.Quantity
	}
	return n
}

func (s *Store) ListingsValue() decimal.Decimal {
	total := decimal.Zero
	for _, p := range s.MyListings() {
		total = total.Add(p.Price)
	}
	return total
}

func (s *Store) TotalSpent() decimal.Decimal {
	total := decimal.Zero
	for _, p := range s.MyPurchases() {
		total = total.Add(p.TotalPrice)
	}
	return total
}
