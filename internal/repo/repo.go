package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Skotchmaster/marketplace/internal/models"
)

// Key names one independently persisted slot.
type Key string

const (
	KeyCurrentUser Key = "current-user"
	KeyUsers       Key = "users"
	KeyProducts    Key = "products"
	KeyCartItems   Key = "cart-items"
	KeyPurchases   Key = "purchases"
)

var Keys = []Key{KeyCurrentUser, KeyUsers, KeyProducts, KeyCartItems, KeyPurchases}

var ErrUnknownKey = errors.New("unknown slot key")

// State is everything the application persists.
type State struct {
	CurrentUser *models.User
	Users       []models.User
	Products    []models.Product
	CartItems   []models.CartItem
	Purchases   []models.Purchase
}

// Clone returns a deep enough copy that slices can be mutated independently.
func (s State) Clone() State {
	out := State{
		Users:     append([]models.User(nil), s.Users...),
		Products:  append([]models.Product(nil), s.Products...),
		CartItems: append([]models.CartItem(nil), s.CartItems...),
		Purchases: append([]models.Purchase(nil), s.Purchases...),
	}
	if s.CurrentUser != nil {
		u := *s.CurrentUser
		out.CurrentUser = &u
	}
	return out
}

// Repository mirrors State into durable storage. Save commits every named
// key or none of them.
type Repository interface {
	Load(ctx context.Context) (State, error)
	Save(ctx context.Context, st State, keys ...Key) error
	Close() error
}

func encodeSlot(st State, key Key) ([]byte, error) {
	var v any
	switch key {
	case KeyCurrentUser:
		v = st.CurrentUser
	case KeyUsers:
		v = nonNil(st.Users)
	case KeyProducts:
		v = nonNil(st.Products)
	case KeyCartItems:
		v = nonNil(st.CartItems)
	case KeyPurchases:
		v = nonNil(st.Purchases)
	default:
		return nil, fmt.Errorf("%s: %w", key, ErrUnknownKey)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", key, err)
	}
	return data, nil
}

func decodeSlot(st *State, key Key, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	var err error
	switch key {
	case KeyCurrentUser:
		err = json.Unmarshal(data, &st.CurrentUser)
	case KeyUsers:
		err = json.Unmarshal(data, &st.Users)
	case KeyProducts:
		err = json.Unmarshal(data, &st.Products)
	case KeyCartItems:
		err = json.Unmarshal(data, &st.CartItems)
	case KeyPurchases:
		err = json.Unmarshal(data, &st.Purchases)
	default:
		return fmt.Errorf("%s: %w", key, ErrUnknownKey)
	}
	if err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func encodeSlots(st State, keys []Key) (map[Key][]byte, error) {
	out := make(map[Key][]byte, len(keys))
	for _, k := range keys {
		data, err := encodeSlot(st, k)
		if err != nil {
			return nil, err
		}
		out[k] = data
	}
	return out, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
