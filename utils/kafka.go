package utils

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
)

// EventWriter publishes JSON payloads keyed by an entity id.
type EventWriter interface {
	WriteJSON(ctx context.Context, key string, v any) error
	Close() error
}

type kafkaWriter struct {
	w *kafka.Writer
}

// NewKafkaWriter returns a synchronous, leader-acked writer for topic.
func NewKafkaWriter(brokers []string, topic string) EventWriter {
	return &kafkaWriter{w: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
	}}
}

func (kw *kafkaWriter) WriteJSON(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return kw.w.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: b, Time: time.Now()})
}

func (kw *kafkaWriter) Close() error { return kw.w.Close() }
