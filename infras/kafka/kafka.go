// Package kafka writes JSON messages to Kafka topics.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"roombook/config"
	"slices"
	"time"

	"github.com/rs/zerolog/log"
	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl/plain"
)

const (
	writeTimeout      = 10 * time.Second
	headerContentType = "content-type"
	contentTypeJSON   = "application/json"
)

// Message is keyed for partitioning. Value is encoded as JSON.
type Message struct {
	Key     string
	Value   any
	Headers map[string]string
}

// Encode renders m as a kafka-go message. Headers are sorted so the wire
// form is stable.
func (m Message) Encode(topic string) (kafkaGo.Message, error) {
	value, err := json.Marshal(m.Value)
	if err != nil {
		return kafkaGo.Message{}, fmt.Errorf("failed to encode message %q as JSON: %w", m.Key, err)
	}

	headers := []kafkaGo.Header{{Key: headerContentType, Value: []byte(contentTypeJSON)}}
	for _, key := range slices.Sorted(maps.Keys(m.Headers)) {
		headers = append(headers, kafkaGo.Header{Key: key, Value: []byte(m.Headers[key])})
	}

	return kafkaGo.Message{
		Topic:   topic,
		Key:     []byte(m.Key),
		Value:   value,
		Headers: headers,
	}, nil
}

type Client interface {
	SendMessages(ctx context.Context, topic string, messages ...Message) (err error)
	Close() error
}

type writerClient struct {
	writer *kafkaGo.Writer
}

// New builds a single writer shared by every topic. The topic is set per
// message, so one connection pool serves all publishers.
func New(cfg *config.Config) Client {
	transport := &kafkaGo.Transport{}

	if sasl := cfg.Kafka.SASL; sasl.Username != "" {
		transport.SASL = plain.Mechanism{Username: sasl.Username, Password: sasl.Password}
	}

	log.Info().Strs("brokers", cfg.Kafka.Brokers).Msg("Kafka writer initialized")

	return &writerClient{writer: &kafkaGo.Writer{
		Addr:                   kafkaGo.TCP(cfg.Kafka.Brokers...),
		Transport:              transport,
		Balancer:               &kafkaGo.Hash{},
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafkaGo.RequireOne,
		WriteTimeout:           writeTimeout,
	}}
}

// SendMessages writes synchronously and keys each message so that events of
// one booking stay ordered within a partition. Nothing is written when one
// message cannot be encoded.
func (k *writerClient) SendMessages(ctx context.Context, topic string, messages ...Message) error {
	if len(messages) == 0 {
		return nil
	}

	encoded := make([]kafkaGo.Message, len(messages))

	for i, message := range messages {
		msg, err := message.Encode(topic)
		if err != nil {
			return err
		}

		encoded[i] = msg
	}

	if err := k.writer.WriteMessages(ctx, encoded...); err != nil {
		log.Error().Err(err).Str("topic", topic).Int("count", len(encoded)).Msg("Failed to write Kafka messages")

		return fmt.Errorf("failed to send message to Kafka: %w", err)
	}

	log.Debug().Str("topic", topic).Int("count", len(encoded)).Msg("Kafka messages written")

	return nil
}

func (k *writerClient) Close() error {
	return k.writer.Close() //nolint:wrapcheck
}
