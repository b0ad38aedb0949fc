package kafka

import (
	"log/slog"

	"github.com/segmentio/kafka-go"
)

// NewProducer initializes and returns a new Kafka writer (producer).
func NewProducer(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
		// Acknowledge once the leader has written. Writes are asynchronous
		// so a slow broker never stalls a running match.
		RequiredAcks: kafka.RequireOne,
		Async:        true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				slog.Error("Kafka async write failed", "error", err)
			}
		},
	}
}
