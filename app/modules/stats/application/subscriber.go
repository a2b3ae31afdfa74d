package statsservice

import (
	"context"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/nipaa-droid/nipaa-web-sub000/app/eventbus"
)

// RunSubscriber consumes score events and recomputes the affected player's
// aggregates until ctx is cancelled. Stats are read-mostly and tolerate this
// running behind the request path.
func (s *StatsService) RunSubscriber(ctx context.Context, bus *eventbus.Bus) error {
	submitted, err := bus.SubscribeScoreSubmitted(ctx)
	if err != nil {
		return err
	}
	invalidated, err := bus.SubscribeScoreInvalidated(ctx)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case msg, ok := <-submitted:
			if !ok {
				return nil
			}
			s.handleSubmitted(msg)

		case msg, ok := <-invalidated:
			if !ok {
				return nil
			}
			s.handleInvalidated(msg)
		}
	}
}

func (s *StatsService) handleSubmitted(msg *message.Message) {
	defer msg.Ack()
	ev, err := eventbus.DecodeScoreSubmitted(msg)
	if err != nil {
		s.logger.Error("Dropping undecodable score submitted event", slog.Any("error", err))
		return
	}
	if _, err := s.RecomputeStats(msg.Context(), ev.PlayerID, ev.Mode, true); err != nil {
		s.logger.Error("Stats recomputation after submission failed",
			slog.Int64("player_id", ev.PlayerID),
			slog.Any("error", err),
		)
	}
}

func (s *StatsService) handleInvalidated(msg *message.Message) {
	defer msg.Ack()
	ev, err := eventbus.DecodeScoreInvalidated(msg)
	if err != nil {
		s.logger.Error("Dropping undecodable score invalidated event", slog.Any("error", err))
		return
	}
	if _, err := s.RecomputeStats(msg.Context(), ev.PlayerID, ev.Mode, false); err != nil {
		s.logger.Error("Stats recomputation after invalidation failed",
			slog.Int64("player_id", ev.PlayerID),
			slog.Any("error", err),
		)
	}
}
