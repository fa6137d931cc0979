package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"roombook/config"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

const exchangeKind = "topic"

type Publisher interface {
	PublishJSON(ctx context.Context, routingKey string, value any) error
	Close() error
}

type publisherImpl struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

// New dials the broker and declares a durable topic exchange.
func New(config *config.Config) (Publisher, error) {
	url := config.RabbitMQ.URL
	exchange := config.RabbitMQ.Exchange

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()

		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, exchangeKind, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()

		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	log.Info().Str("exchange", exchange).Msg("RabbitMQ publisher initialized")

	return &publisherImpl{conn: conn, ch: ch, exchange: exchange}, nil
}

// PublishJSON publishes a persistent JSON message. amqp channels are not safe
// for concurrent publishing, so calls are serialized.
func (p *publisherImpl) PublishJSON(ctx context.Context, routingKey string, value any) error {
	body, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		log.Error().Err(err).Str("routingKey", routingKey).Msg("Failed to publish message to RabbitMQ.")

		return fmt.Errorf("publish message: %w", err)
	}

	return nil
}

func (p *publisherImpl) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}

	if p.conn != nil {
		return p.conn.Close() //nolint:wrapcheck
	}

	return nil
}
