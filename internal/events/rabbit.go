package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/pankajkarki11/swoo-cart-sync/internal/store"
)

// Dial connects to RabbitMQ.
func Dial(url string) (*amqp.Connection, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}
	return conn, nil
}

// RabbitPublisher emits cart events on a topic exchange. It satisfies the
// store's Publisher port; failures bubble up only as log lines there.
type RabbitPublisher struct {
	ch       *amqp.Channel
	producer string
}

func NewRabbitPublisher(conn *amqp.Connection, producer string) (*RabbitPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := declareEventsExchange(ch); err != nil {
		return nil, fmt.Errorf("declare events exchange: %w", err)
	}
	if producer == "" {
		producer = "cart-sync"
	}
	return &RabbitPublisher{ch: ch, producer: producer}, nil
}

func (p *RabbitPublisher) Close() error {
	return p.ch.Close()
}

func (p *RabbitPublisher) PublishCartUpdated(ctx context.Context, snap store.Snapshot) error {
	ev := CartUpdatedEvent{
		EventEnvelope: p.envelope("CartUpdated"),
		Payload: CartUpdatedPayload{
			UserID:     snap.UserID,
			Items:      cartLines(snap),
			ItemCount:  snap.Stats.ItemCount,
			TotalValue: snap.Stats.TotalValue,
			Version:    snap.Version,
		},
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal CartUpdated: %w", err)
	}
	return p.publishJSON(ctx, CartUpdatedRoutingKey, body)
}

func (p *RabbitPublisher) PublishCartSynced(ctx context.Context, snap store.Snapshot, syncErr error) error {
	payload := CartSyncedPayload{
		UserID:    snap.UserID,
		Success:   syncErr == nil,
		ItemCount: snap.Stats.ItemCount,
		Version:   snap.Version,
	}
	if syncErr != nil {
		payload.Error = syncErr.Error()
	}
	ev := CartSyncedEvent{
		EventEnvelope: p.envelope("CartSynced"),
		Payload:       payload,
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal CartSynced: %w", err)
	}
	return p.publishJSON(ctx, CartSyncedRoutingKey, body)
}

func (p *RabbitPublisher) envelope(name string) EventEnvelope {
	return EventEnvelope{
		EventName:    name,
		EventVersion: 1,
		EventID:      uuid.NewString(),
		Producer:     p.producer,
		OccurredAt:   time.Now().UTC(),
	}
}

func (p *RabbitPublisher) publishJSON(ctx context.Context, routingKey string, body []byte) error {
	pubCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return p.ch.PublishWithContext(
		pubCtx,
		EventsExchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}
