// Package events announces placed orders to other systems over AMQP.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// OrderCreatedType is the AMQP message type of OrderCreated.
const OrderCreatedType = "order.created"

// OrderCreated is published once an order is stored.
type OrderCreated struct {
	OrderID       uint      `json:"order_id"`
	DisplayID     string    `json:"display_id"`
	Total         string    `json:"total"`
	PaymentMethod string    `json:"payment_method"`
	City          string    `json:"city"`
	DeliveryDate  string    `json:"delivery_date"`
	Lines         int       `json:"lines"`
	CreatedAt     time.Time `json:"created_at"`
}

// Publisher sends order events.
type Publisher interface {
	PublishOrderCreated(ctx context.Context, ev OrderCreated) error
	Close() error
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishOrderCreated(context.Context, OrderCreated) error { return nil }
func (NopPublisher) Close() error                                           { return nil }

// AMQPPublisher publishes persistent JSON messages to a durable fanout exchange.
type AMQPPublisher struct {
	conn     *amqp.Connection
	mu       sync.Mutex
	ch       *amqp.Channel
	exchange string
}

// NewAMQPPublisher dials url and declares exchange.
func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("events: dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("events: channel: %w", err)
	}
	if err := ch.ExchangeDeclare(
		exchange,
		amqp.ExchangeFanout,
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("events: declare %q: %w", exchange, err)
	}
	return &AMQPPublisher{conn: conn, ch: ch, exchange: exchange}, nil
}

// Publishing builds the AMQP message for ev.
func Publishing(ev OrderCreated) (amqp.Publishing, error) {
	body, err := json.Marshal(ev)
	if err != nil {
		return amqp.Publishing{}, err
	}
	return amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		Timestamp:    ev.CreatedAt,
		ContentType:  "application/json",
		Type:         OrderCreatedType,
		MessageId:    ev.DisplayID,
		Body:         body,
	}, nil
}

func (p *AMQPPublisher) PublishOrderCreated(ctx context.Context, ev OrderCreated) error {
	msg, err := Publishing(ev)
	if err != nil {
		return fmt.Errorf("events: encode: %w", err)
	}
	// channels are not safe for concurrent publishing
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ch.PublishWithContext(ctx,
		p.exchange,
		"",
		false, // mandatory
		false, // immediate
		msg,
	)
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ch.Close(); err != nil {
		_ = p.conn.Close()
		return err
	}
	return p.conn.Close()
}
