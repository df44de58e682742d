package events

import (
	"time"

	"github.com/pankajkarki11/swoo-cart-sync/internal/store"
)

// EventEnvelope is the shared header on every published cart event.
type EventEnvelope struct {
	EventName    string    `json:"eventName"`
	EventVersion int       `json:"eventVersion"`
	EventID      string    `json:"eventId"`
	Producer     string    `json:"producer"`
	OccurredAt   time.Time `json:"occurredAt"`
}

// CartLine is the wire form of one cart line inside an event payload.
type CartLine struct {
	ProductID string  `json:"productId"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

type CartUpdatedPayload struct {
	UserID     string     `json:"userId,omitempty"`
	Items      []CartLine `json:"items"`
	ItemCount  int        `json:"itemCount"`
	TotalValue float64    `json:"totalValue"`
	Version    uint64     `json:"version"`
}

type CartUpdatedEvent struct {
	EventEnvelope
	Payload CartUpdatedPayload `json:"payload"`
}

type CartSyncedPayload struct {
	UserID    string `json:"userId,omitempty"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
	ItemCount int    `json:"itemCount"`
	Version   uint64 `json:"version"`
}

type CartSyncedEvent struct {
	EventEnvelope
	Payload CartSyncedPayload `json:"payload"`
}

func cartLines(snap store.Snapshot) []CartLine {
	lines := make([]CartLine, 0, len(snap.Cart))
	for _, it := range snap.Cart {
		lines = append(lines, CartLine{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     it.Price.Value(),
		})
	}
	return lines
}
