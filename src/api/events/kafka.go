package events

import (
	"context"
	"encoding/json"
	"time"

	kgo "github.com/segmentio/kafka-go"
)

// Kafka writes events as JSON messages keyed by entity id, so every change
// to one document lands on the same partition.
type Kafka struct {
	w *kgo.Writer
}

func NewKafka(brokers []string, topic string) *Kafka {
	return &Kafka{w: &kgo.Writer{
		Addr:                   kgo.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kgo.Hash{},
		RequiredAcks:           kgo.RequireOne,
		BatchTimeout:           50 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}}
}

func (k *Kafka) Publish(ctx context.Context, ev Event) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return k.w.WriteMessages(ctx, kgo.Message{Key: []byte(ev.EntityID), Value: b, Time: ev.At})
}

func (k *Kafka) Close() error { return k.w.Close() }
