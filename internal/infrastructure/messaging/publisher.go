package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	amqp "github.com/streadway/amqp"
)

// Event routing keys.
const (
	OrderCreated   = "order.created"
	TradeProposed  = "trade.proposed"
	TradeAccepted  = "trade.accepted"
	TradeRejected  = "trade.rejected"
	TradeCancelled = "trade.cancelled"
)

// Exchange is the topic exchange all marketplace events go to.
const Exchange = "wardrobe.events"

// Publisher sends domain events. Publishing is best effort: callers log failures and carry on.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload interface{}) error
}

// Nop drops every event. Used when RABBITMQ_URL is unset and in tests.
type Nop struct{}

func (Nop) Publish(context.Context, string, interface{}) error { return nil }

// Recorder keeps published events in memory for assertions.
type Recorder struct {
	mu     sync.Mutex
	Events []Recorded
}

type Recorded struct {
	RoutingKey string
	Payload    interface{}
}

func (r *Recorder) Publish(_ context.Context, key string, payload interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, Recorded{RoutingKey: key, Payload: payload})
	return nil
}

func (r *Recorder) Keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]string, 0, len(r.Events))
	for _, e := range r.Events {
		keys = append(keys, e.RoutingKey)
	}
	return keys
}

// Rabbit publishes JSON events to a durable topic exchange.
type Rabbit struct {
	conn *amqp.Connection
	mu   sync.Mutex
	ch   *amqp.Channel
}

// Dial connects to RabbitMQ and declares the events exchange.
func Dial(url string) (*Rabbit, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(Exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", Exchange, err)
	}
	log.Info().Str("exchange", Exchange).Msg("RabbitMQ publisher connected")
	return &Rabbit{conn: conn, ch: ch}, nil
}

func (r *Rabbit) Publish(_ context.Context, routingKey string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", routingKey, err)
	}
	// amqp channels are not safe for concurrent publishes.
	r.mu.Lock()
	defer r.mu.Unlock()
	err = r.ch.Publish(Exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", routingKey, err)
	}
	return nil
}

func (r *Rabbit) Close() error {
	var errs []error
	if err := r.ch.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close channel: %w", err))
	}
	if err := r.conn.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close connection: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("rabbitmq close: %v", errs)
	}
	return nil
}
