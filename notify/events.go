package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

const OrderEventsExchange = "order_events"

// OrderEvent is published on every order creation and status change.
type OrderEvent struct {
	Type       string    `json:"type"`
	TenantID   string    `json:"tenant_id"`
	OrderID    string    `json:"order_id"`
	Status     string    `json:"status"`
	Total      float64   `json:"total"`
	OccurredAt time.Time `json:"occurred_at"`
}

// RoutingKey is "order.<type>", e.g. order.created or order.confirmado.
func (e OrderEvent) RoutingKey() string {
	return "order." + e.Type
}

type EventPublisher interface {
	Publish(ctx context.Context, event OrderEvent) error
}

// NopPublisher drops events.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, OrderEvent) error { return nil }

// RabbitPublisher publishes order events to a durable topic exchange.
type RabbitPublisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	mu      sync.Mutex
	log     *logrus.Entry
}

func NewRabbitPublisher(url string, log *logrus.Entry) (*RabbitPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq: dial: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("rabbitmq: channel: %w", err)
	}
	err = channel.ExchangeDeclare(
		OrderEventsExchange, // name
		"topic",             // type
		true,                // durable
		false,               // auto-deleted
		false,               // internal
		false,               // no-wait
		nil,                 // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("rabbitmq: declare exchange: %w", err)
	}
	log.Info("connected to rabbitmq")
	return &RabbitPublisher{conn: conn, channel: channel, log: log}, nil
}

func (p *RabbitPublisher) Publish(ctx context.Context, event OrderEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.channel.PublishWithContext(ctx,
		OrderEventsExchange, // exchange
		event.RoutingKey(),  // routing key
		false,               // mandatory
		false,               // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Timestamp:    event.OccurredAt,
			Body:         body,
		})
}

func (p *RabbitPublisher) Close() {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}
