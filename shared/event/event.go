// Package event publishes domain events to the configured broker.
package event

//go:generate go run go.uber.org/mock/mockgen -source=./event.go -destination=./mocks/event_mock.go -package=mocks

import (
	"context"
	"fmt"
	"roombook/config"
	"roombook/infras/kafka"
	"roombook/infras/rabbitmq"
	"roombook/shared/constant"

	"github.com/rs/zerolog/log"
)

type Message struct {
	// Key groups messages that must stay ordered, e.g. one booking id.
	Key   string
	Value any
	// Headers travel as Kafka record headers. RabbitMQ ignores them.
	Headers map[string]string
}

type Publisher interface {
	Publish(ctx context.Context, topic string, messages ...Message) error
}

// New selects the broker named by EVENT_BROKER. Unknown names fall back to
// the no-op publisher.
func New(cfg *config.Config) (Publisher, func(), error) {
	switch cfg.Event.Broker {
	case constant.EventBrokerKafka:
		client := kafka.New(cfg)

		return &kafkaPublisher{client: client}, closer("kafka", client.Close), nil
	case constant.EventBrokerRabbitMQ:
		publisher, err := rabbitmq.New(cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create rabbitmq publisher: %w", err)
		}

		return &rabbitPublisher{publisher: publisher}, closer("rabbitmq", publisher.Close), nil
	case constant.EventBrokerNone, constant.Empty:
	default:
		log.Warn().Str("broker", cfg.Event.Broker).Msg("Unknown event broker, events are discarded")
	}

	return NewNoop(), func() {}, nil
}

func closer(name string, closeFn func() error) func() {
	return func() {
		if err := closeFn(); err != nil {
			log.Error().Err(err).Str("broker", name).Msg("Failed to close event publisher")
		}
	}
}

type kafkaPublisher struct {
	client kafka.Client
}

func (p *kafkaPublisher) Publish(ctx context.Context, topic string, messages ...Message) error {
	msgs := make([]kafka.Message, len(messages))
	for i, msg := range messages {
		msgs[i] = kafka.Message{Key: msg.Key, Value: msg.Value, Headers: msg.Headers}
	}

	return p.client.SendMessages(ctx, topic, msgs...) //nolint:wrapcheck
}

type rabbitPublisher struct {
	publisher rabbitmq.Publisher
}

// Publish uses the topic as routing key. The message key is carried inside
// the value, so it is not repeated on the wire.
func (p *rabbitPublisher) Publish(ctx context.Context, topic string, messages ...Message) error {
	for _, msg := range messages {
		if err := p.publisher.PublishJSON(ctx, topic, msg.Value); err != nil {
			return fmt.Errorf("failed to publish %s: %w", msg.Key, err)
		}
	}

	return nil
}

type noopPublisher struct{}

func NewNoop() Publisher {
	return noopPublisher{}
}

func (noopPublisher) Publish(_ context.Context, topic string, messages ...Message) error {
	log.Debug().Str("topic", topic).Int("count", len(messages)).Msg("event broker disabled, dropping messages")

	return nil
}
