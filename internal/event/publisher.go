package event

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"digitalmaturity/internal/logger"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher emits domain events
type Publisher interface {
	Publish(ctx context.Context, e *Event) error
	Close() error
}

// RabbitPublisher publishes JSON events to a durable topic exchange. With an
// empty URI it is disabled and every Publish is a no-op.
type RabbitPublisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	enabled  bool
	log      *logger.Logger
	mu       sync.Mutex
}

// NewRabbitPublisher connects and declares the exchange
func NewRabbitPublisher(uri, exchange string, log *logger.Logger) (*RabbitPublisher, error) {
	if log == nil {
		log = logger.Nop()
	}
	if uri == "" {
		log.Warn("RabbitMQ URI is empty, event publishing is disabled")
		return &RabbitPublisher{enabled: false, log: log}, nil
	}

	conn, err := amqp.Dial(uri)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}
	err = ch.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	return &RabbitPublisher{
		conn:     conn,
		channel:  ch,
		exchange: exchange,
		enabled:  true,
		log:      log,
	}, nil
}

// Enabled reports whether events reach a broker
func (p *RabbitPublisher) Enabled() bool {
	return p.enabled
}

func (p *RabbitPublisher) Publish(ctx context.Context, e *Event) error {
	if !p.enabled {
		p.log.Debug("event publishing disabled, skipping", "type", e.Type)
		return nil
	}

	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// amqp channels are not safe for concurrent publishing
	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.channel.PublishWithContext(
		pubCtx,
		p.exchange, // exchange
		e.Type,     // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    e.ID,
			Timestamp:    e.OccurredAt,
			Type:         e.Type,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	p.log.Debug("published event", "type", e.Type, "id", e.ID)
	return nil
}

func (p *RabbitPublisher) Close() error {
	if !p.enabled {
		return nil
	}
	if err := p.channel.Close(); err != nil {
		return err
	}
	return p.conn.Close()
}
