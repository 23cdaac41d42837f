package mykafka

import (
	"context"

	"github.com/Skotchmaster/marketplace/internal/logging"
	"github.com/Skotchmaster/marketplace/internal/store"
)

type Publisher interface {
	PublishEvent(ctx context.Context, key string, event any) error
}

// Event turns a committed store change into the message published for it.
// The key groups events of one product, or of one user when no product is
// involved.
func Event(ch store.Change) (key string, event map[string]any) {
	event = map[string]any{
		"type": string(ch.Kind),
		"at":   ch.At,
	}
	if ch.UserID != "" {
		event["userID"] = ch.UserID
	}
	key = ch.UserID

	if ch.ProductID != "" {
		event["productID"] = ch.ProductID
		key = ch.ProductID
	}
	if ch.Product != nil {
		event["title"] = ch.Product.Title
		event["price"] = ch.Product.Price.String()
		event["category"] = string(ch.Product.Category)
		event["sellerID"] = ch.Product.SellerID
	}

	if len(ch.Purchases) > 0 {
		items := make([]map[string]any, 0, len(ch.Purchases))
		for _, p := range ch.Purchases {
			items = append(items, map[string]any{
				"purchaseID": p.ID,
				"productID":  p.Product.ID,
				"quantity":   p.Quantity,
				"totalPrice": p.TotalPrice.String(),
			})
		}
		event["items"] = items
	}
	return key, event
}

// Forward publishes every change of s to p until the returned func is called.
func Forward(ctx context.Context, s *store.Store, p Publisher) (stop func()) {
	l := logging.Component(ctx, "mykafka.forward")
	return s.Subscribe(func(ch store.Change) {
		key, event := Event(ch)
		if err := p.PublishEvent(ctx, key, event); err != nil {
			l.Error("publish_event_error", "type", ch.Kind, "error", err)
			return
		}
		l.Debug("publish_event_success", "type", ch.Kind, "key", key)
	})
}
