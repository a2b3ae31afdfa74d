// Package eventbus carries the engine's in-process domain events over a
// watermill gochannel pub/sub. The submission path publishes an event after a
// score is persisted; the stats module subscribes and recomputes the player's
// aggregates off the request path.
package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"

	"github.com/nipaa-droid/nipaa-web-sub000/app/modules/score/domain"
)

// Topics.
const (
	// TopicScoreSubmitted carries ScoreSubmitted events.
	TopicScoreSubmitted = "score.submitted"
	// TopicScoreInvalidated carries ScoreInvalidated events.
	TopicScoreInvalidated = "score.invalidated"
)

// ScoreSubmitted is published after a submission has been persisted with a
// resolved status.
type ScoreSubmitted struct {
	ScoreID     int64                   `json:"score_id"`
	PlayerID    int64                   `json:"player_id"`
	Mode        domain.GameMode         `json:"mode"`
	MapHash     string                  `json:"map_hash"`
	Status      domain.SubmissionStatus `json:"status"`
	SubmittedAt time.Time               `json:"submitted_at"`
}

// ScoreInvalidated is published after replay cross-validation removed a
// score.
type ScoreInvalidated struct {
	ScoreID  int64           `json:"score_id"`
	PlayerID int64           `json:"player_id"`
	Mode     domain.GameMode `json:"mode"`
	MapHash  string          `json:"map_hash"`
	Reason   string          `json:"reason"`
}

// Bus wraps a gochannel pub/sub with typed publish/subscribe helpers.
// Subscribers receive message copies detached from the publisher's context,
// so published messages carry no context of their own.
type Bus struct {
	pubSub *gochannel.GoChannel
	logger *slog.Logger
}

// New builds an in-process bus.
func New(logger *slog.Logger) *Bus {
	return &Bus{
		pubSub: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: 64,
		}, watermill.NewSlogLogger(logger)),
		logger: logger,
	}
}

// PublishScoreSubmitted emits one ScoreSubmitted event.
func (b *Bus) PublishScoreSubmitted(ctx context.Context, ev ScoreSubmitted) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal score submitted event: %w", err)
	}
	msg := message.NewMessage(uuid.NewString(), payload)
	if err := b.pubSub.Publish(TopicScoreSubmitted, msg); err != nil {
		return fmt.Errorf("failed to publish %s: %w", TopicScoreSubmitted, err)
	}
	return nil
}

// PublishScoreInvalidated emits one ScoreInvalidated event.
func (b *Bus) PublishScoreInvalidated(ctx context.Context, ev ScoreInvalidated) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal score invalidated event: %w", err)
	}
	msg := message.NewMessage(uuid.NewString(), payload)
	if err := b.pubSub.Publish(TopicScoreInvalidated, msg); err != nil {
		return fmt.Errorf("failed to publish %s: %w", TopicScoreInvalidated, err)
	}
	return nil
}

// SubscribeScoreSubmitted returns the ScoreSubmitted message stream.
func (b *Bus) SubscribeScoreSubmitted(ctx context.Context) (<-chan *message.Message, error) {
	ch, err := b.pubSub.Subscribe(ctx, TopicScoreSubmitted)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", TopicScoreSubmitted, err)
	}
	return ch, nil
}

// SubscribeScoreInvalidated returns the ScoreInvalidated message stream.
func (b *Bus) SubscribeScoreInvalidated(ctx context.Context) (<-chan *message.Message, error) {
	ch, err := b.pubSub.Subscribe(ctx, TopicScoreInvalidated)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", TopicScoreInvalidated, err)
	}
	return ch, nil
}

// DecodeScoreSubmitted unmarshals a ScoreSubmitted event from a message.
func DecodeScoreSubmitted(msg *message.Message) (ScoreSubmitted, error) {
	var ev ScoreSubmitted
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		return ScoreSubmitted{}, fmt.Errorf("failed to decode score submitted event: %w", err)
	}
	return ev, nil
}

// DecodeScoreInvalidated unmarshals a ScoreInvalidated event from a message.
func DecodeScoreInvalidated(msg *message.Message) (ScoreInvalidated, error) {
	var ev ScoreInvalidated
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		return ScoreInvalidated{}, fmt.Errorf("failed to decode score invalidated event: %w", err)
	}
	return ev, nil
}

// Close shuts the underlying pub/sub down.
func (b *Bus) Close() error {
	return b.pubSub.Close()
}
