// Package eventbus publishes committed ledger events to downstream consumers.
package eventbus

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/ArowuTest/daily-lotto-settlement/internal/models"
)

const kafkaWriteTimeout = 10 * time.Second

// Publisher delivers events after the transaction that produced them committed.
type Publisher interface {
	Publish(ctx context.Context, events []*models.LedgerEvent) error
	Close() error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, []*models.LedgerEvent) error { return nil }
func (Nop) Close() error                                         { return nil }

// KafkaPublisher writes events as JSON, keyed by game-day so a day's events stay ordered.
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher creates a publisher for topic on brokers.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers:      brokers,
		Topic:        topic,
		Balancer:     kafka.CRC32Balancer{},
		WriteTimeout: kafkaWriteTimeout,
	})
	return &KafkaPublisher{writer: writer}
}

func (p *KafkaPublisher) Publish(ctx context.Context, events []*models.LedgerEvent) error {
	if len(events) == 0 {
		return nil
	}
	msgs, err := Encode(events)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, kafkaWriteTimeout)
	defer cancel()
	return p.writer.WriteMessages(ctx, msgs...)
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Encode converts events to Kafka messages.
func Encode(events []*models.LedgerEvent) ([]kafka.Message, error) {
	msgs := make([]kafka.Message, 0, len(events))
	for _, e := range events {
		value, err := json.Marshal(e)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(strconv.FormatInt(e.Day, 10)),
			Value: value,
			Time:  e.CreatedAt,
			Headers: []kafka.Header{
				{Key: "type", Value: []byte(e.Type)},
			},
		})
	}
	return msgs, nil
}
