package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	DefaultAvatarURL = "https://images.unsplash.com/photo-1472099645785-5658abf4ff4e?w=100&h=100&fit=crop&crop=face"
	DefaultImageURL  = "https://images.unsplash.com/photo-1560472354-b33ff0c44a43?w=600&h=600&fit=crop"
)

type User struct {
	ID       string    `json:"id"`
	Email    string    `json:"email"`
	Password string    `json:"password"`
	Username string    `json:"username"`
	FullName string    `json:"fullName,omitempty"`
	Bio      string    `json:"bio,omitempty"`
	Location string    `json:"location,omitempty"`
	Avatar   string    `json:"avatar,omitempty"`
	JoinDate time.Time `json:"joinDate"`
}

type Product struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    Category        `json:"category"`
	Condition   Condition       `json:"condition"`
	Image       string          `json:"image,omitempty"`
	SellerID    string          `json:"sellerId"`
	SellerName  string          `json:"sellerName"`
	DatePosted  time.Time       `json:"datePosted"`
}

// CartItem embeds a snapshot of the product taken when it was first added.
type CartItem struct {
	Product  Product   `json:"product"`
	Quantity int       `json:"quantity"`
	AddedAt  time.Time `json:"addedAt"`
}

func (c CartItem) Subtotal() decimal.Decimal {
	return c.Product.Price.Mul(decimal.NewFromInt(int64(c.Quantity)))
}

type Purchase struct {
	ID           string          `json:"id"`
	Product      Product         `json:"product"`
	Quantity     int             `json:"quantity"`
	TotalPrice   decimal.Decimal `json:"totalPrice"`
	PurchaseDate time.Time       `json:"purchaseDate"`
	BuyerID      string          `json:"buyerId"`
}

// NewUser is the registration form. Id and join date are assigned by the store.
type NewUser struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
	Bio      string `json:"bio"`
	Location string `json:"location"`
	Avatar   string `json:"avatar"`
}

// ProfileUpdate carries only the fields being changed.
type ProfileUpdate struct {
	Email    *string `json:"email,omitempty"`
	Password *string `json:"password,omitempty"`
	Username *string `json:"username,omitempty"`
	FullName *string `json:"fullName,omitempty"`
	Bio      *string `json:"bio,omitempty"`
	Location *string `json:"location,omitempty"`
	Avatar   *string `json:"avatar,omitempty"`
}

func (u ProfileUpdate) Apply(user User) User {
	if u.Email != nil {
		user.Email = *u.Email
	}
	if u.Password != nil {
		user.Password = *u.Password
	}
	if u.Username != nil {
		user.Username = *u.Username
	}
	if u.FullName != nil {
		user.FullName = *u.FullName
	}
	if u.Bio != nil {
		user.Bio = *u.Bio
	}
	if u.Location != nil {
		user.Location = *u.Location
	}
	if u.Avatar != nil {
		user.Avatar = *u.Avatar
	}
	return user
}

type NewProduct struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    Category        `json:"category"`
	Condition   Condition       `json:"condition"`
	Image       string          `json:"image"`
}

type ProductUpdate struct {
	Title       *string          `json:"title,omitempty"`
	Description *string          `json:"description,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Category    *Category        `json:"category,omitempty"`
	Condition   *Condition       `json:"condition,omitempty"`
	Image       *string          `json:"image,omitempty"`
}

func (u ProductUpdate) Apply(p Product) Product {
	if u.Title != nil {
		p.Title = *u.Title
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.Price != nil {
		p.Price = *u.Price
	}
	if u.Category != nil {
		p.Category = *u.Category
	}
	if u.Condition != nil {
		p.Condition = *u.Condition
	}
	if u.Image != nil {
		p.Image = *u.Image
	}
	return p
}

// FeedFilter narrows the catalog the way the browse view does: a text query
// matched against title and description, and an optional category.
type FeedFilter struct {
	Query    string
	Category Category
}
