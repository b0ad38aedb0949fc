package events

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/segmentio/kafka-go"
)

// MatchStartedEvent is published when both participants have joined a
// room and the match begins.
type MatchStartedEvent struct {
	MatchID string   `json:"matchID"`
	Players []string `json:"players"`
}

// MatchEndedEvent is published when a match reaches its terminal state.
type MatchEndedEvent struct {
	MatchID string `json:"matchID"`
	Winner  string `json:"winner"`
	Score   [2]int `json:"score"`
	Reason  string `json:"reason"`
}

// Publisher emits match lifecycle events to Kafka for downstream
// consumers (stats, notifications). Publishing is fire-and-forget; the
// match never waits on the broker.
type Publisher struct {
	writer *kafka.Writer
}

func NewPublisher(writer *kafka.Writer) *Publisher {
	return &Publisher{writer: writer}
}

func (p *Publisher) MatchStarted(ctx context.Context, matchID string, players [2]string) {
	p.publish(ctx, matchID, MatchStartedEvent{
		MatchID: matchID,
		Players: players[:],
	})
}

func (p *Publisher) MatchEnded(ctx context.Context, matchID, winner string, score [2]int, reason string) {
	p.publish(ctx, matchID, MatchEndedEvent{
		MatchID: matchID,
		Winner:  winner,
		Score:   score,
		Reason:  reason,
	})
}

func (p *Publisher) publish(ctx context.Context, key string, event interface{}) {
	value, err := json.Marshal(event)
	if err != nil {
		slog.Error("Failed to marshal match event", "matchID", key, "error", err)
		return
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: value,
	})
	if err != nil {
		slog.Error("Failed to publish match event", "matchID", key, "error", err)
	}
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
