package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// MessageWriter is the part of kafka.Writer the publisher uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher publishes changes to a Kafka topic.
type KafkaPublisher struct {
	writer MessageWriter
}

var _ Publisher = (*KafkaPublisher)(nil)

// NewKafkaWriter creates a writer that hashes message keys onto partitions.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           50 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
}

// NewKafkaPublisher wraps w.
func NewKafkaPublisher(w MessageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: w}
}

// Publish writes changes keyed by company id.
func (p *KafkaPublisher) Publish(ctx context.Context, changes ...Change) error {
	if len(changes) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(changes))
	for _, c := range changes {
		value, err := c.Encode()
		if err != nil {
			return fmt.Errorf("failed to encode change: %w", err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(c.Company),
			Value: value,
			Time:  c.At,
		})
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("failed to publish changes: %w", err)
	}
	return nil
}

// Close flushes and closes the writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// MessageReader is the part of kafka.Reader the subscriber uses.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NewKafkaReader creates a consumer group reader for topic.
func NewKafkaReader(brokers []string, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 1 << 20,
	})
}

// Handler receives decoded changes.
type Handler func(ctx context.Context, c Change) error

// Subscriber hands changes from a topic to a handler.
type Subscriber struct {
	reader MessageReader
	log    zerolog.Logger
}

// NewSubscriber wraps r.
func NewSubscriber(r MessageReader, log zerolog.Logger) *Subscriber {
	return &Subscriber{reader: r, log: log}
}

// Run consumes until ctx is cancelled. Messages that fail to decode are
// logged and committed; handler errors are logged and the message is still
// committed so one bad change cannot stall the partition.
func (s *Subscriber) Run(ctx context.Context, handle Handler) error {
	for {
		msg, err := s.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("failed to fetch change: %w", err)
		}

		change, err := Decode(msg.Value)
		if err != nil {
			s.log.Warn().Err(err).Int64("offset", msg.Offset).Msg("skipping undecodable change")
		} else if err := handle(ctx, change); err != nil {
			s.log.Error().Err(err).Str("change_id", change.ID).Msg("change handler failed")
		}

		if err := s.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("failed to commit change: %w", err)
		}
	}
}

// Close closes the reader.
func (s *Subscriber) Close() error {
	return s.reader.Close()
}
