package transport

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/marketplace/internal/models"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AddToCartRequest struct {
	ProductID string `json:"product_id"`
}

// UserResponse is a user as shown to the browser; the password never leaves
// the server.
type UserResponse struct {
	ID       string    `json:"id"`
	Email    string    `json:"email"`
	Username string    `json:"username"`
	FullName string    `json:"fullName,omitempty"`
	Bio      string    `json:"bio,omitempty"`
	Location string    `json:"location,omitempty"`
	Avatar   string    `json:"avatar"`
	JoinDate time.Time `json:"joinDate"`
}

func User(u models.User) UserResponse {
	avatar := u.Avatar
	if avatar == "" {
		avatar = models.DefaultAvatarURL
	}
	return UserResponse{
		ID:       u.ID,
		Email:    u.Email,
		Username: u.Username,
		FullName: u.FullName,
		Bio:      u.Bio,
		Location: u.Location,
		Avatar:   avatar,
		JoinDate: u.JoinDate,
	}
}

func Users(in []models.User) []UserResponse {
	out := make([]UserResponse, len(in))
	for i, u := range in {
		out[i] = User(u)
	}
	return out
}

// Product fills in the placeholder image for listings posted without one.
func Product(p models.Product) models.Product {
	if p.Image == "" {
		p.Image = models.DefaultImageURL
	}
	return p
}

func Products(in []models.Product) []models.Product {
	out := make([]models.Product, len(in))
	for i, p := range in {
		out[i] = Product(p)
	}
	return out
}

type CartLine struct {
	Product  models.Product  `json:"product"`
	Quantity int             `json:"quantity"`
	Subtotal decimal.Decimal `json:"subtotal"`
	AddedAt  time.Time       `json:"addedAt"`
}

type CartResponse struct {
	Items []CartLine      `json:"items"`
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
}

func Cart(items []models.CartItem) CartResponse {
	resp := CartResponse{Items: make([]CartLine, len(items)), Total: decimal.Zero}
	for i, it := range items {
		sub := it.Subtotal()
		resp.Items[i] = CartLine{
			Product:  Product(it.Product),
			Quantity: it.Quantity,
			Subtotal: sub,
			AddedAt:  it.AddedAt,
		}
		resp.Count += it.Quantity
		resp.Total = resp.Total.Add(sub)
	}
	return resp
}

func Purchases(in []models.Purchase) []models.Purchase {
	out := make([]models.Purchase, len(in))
	for i, p := range in {
		p.Product = Product(p.Product)
		out[i] = p
	}
	return out
}

type PageMeta struct {
	Page       int   `json:"page"`
	Size       int   `json:"size"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
	HasPrev    bool  `json:"has_prev"`
	HasNext    bool  `json:"has_next"`
}

func Meta(page, offset, limit int, total int64) PageMeta {
	if page < 1 {
		page = 1
	}
	return PageMeta{
		Page:       page,
		Size:       limit,
		Total:      total,
		TotalPages: (total + int64(limit) - 1) / int64(limit),
		HasPrev:    page > 1,
		HasNext:    int64(offset+limit) < total,
	}
}
