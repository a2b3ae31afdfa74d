package api

import (
	"context"
	"io"
	"log/slog"

	replayservice "github.com/nipaa-droid/nipaa-web-sub000/app/modules/replay/application"
	scoreservice "github.com/nipaa-droid/nipaa-web-sub000/app/modules/score/application"
	"github.com/nipaa-droid/nipaa-web-sub000/app/modules/score/domain"
	scoredb "github.com/nipaa-droid/nipaa-web-sub000/app/modules/score/infrastructure/repositories"
	statsdb "github.com/nipaa-droid/nipaa-web-sub000/app/modules/stats/infrastructure/repositories"
)

type fakeSubmitter struct {
	SubmitScoreFunc func(ctx context.Context, raw string, player domain.Player) (scoreservice.SubmitResult, error)
}

func (f *fakeSubmitter) SubmitScore(ctx context.Context, raw string, player domain.Player) (scoreservice.SubmitResult, error) {
	if f.SubmitScoreFunc != nil {
		return f.SubmitScoreFunc(ctx, raw, player)
	}
	return scoreservice.SubmitResult{}, nil
}

type fakeValidator struct {
	ValidateReplayFunc func(ctx context.Context, scoreID int64, rawReplay []byte) (replayservice.ValidateResult, error)
}

func (f *fakeValidator) ValidateReplay(ctx context.Context, scoreID int64, rawReplay []byte) (replayservice.ValidateResult, error) {
	if f.ValidateReplayFunc != nil {
		return f.ValidateReplayFunc(ctx, scoreID, rawReplay)
	}
	return replayservice.ValidateResult{}, nil
}

type fakeStats struct {
	RecomputeStatsFunc func(ctx context.Context, playerID int64, mode domain.GameMode, countPlay bool) (*statsdb.PlayerStats, error)
	GetStatsFunc       func(ctx context.Context, playerID int64, mode domain.GameMode) (*statsdb.PlayerStats, error)
	GlobalRankFunc     func(ctx context.Context, playerID int64, mode domain.GameMode) (int, error)
	MapLeaderboardFunc func(ctx context.Context, mapHash string, limit int) ([]scoredb.Score, error)
}

func (f *fakeStats) RecomputeStats(ctx context.Context, playerID int64, mode domain.GameMode, countPlay bool) (*statsdb.PlayerStats, error) {
	if f.RecomputeStatsFunc != nil {
		return f.RecomputeStatsFunc(ctx, playerID, mode, countPlay)
	}
	return &statsdb.PlayerStats{PlayerID: playerID, Mode: mode, Accuracy: 1}, nil
}

func (f *fakeStats) GetStats(ctx context.Context, playerID int64, mode domain.GameMode) (*statsdb.PlayerStats, error) {
	if f.GetStatsFunc != nil {
		return f.GetStatsFunc(ctx, playerID, mode)
	}
	return &statsdb.PlayerStats{PlayerID: playerID, Mode: mode, Accuracy: 1}, nil
}

func (f *fakeStats) GlobalRank(ctx context.Context, playerID int64, mode domain.GameMode) (int, error) {
	if f.GlobalRankFunc != nil {
		return f.GlobalRankFunc(ctx, playerID, mode)
	}
	return 1, nil
}

func (f *fakeStats) MapLeaderboard(ctx context.Context, mapHash string, limit int) ([]scoredb.Score, error) {
	if f.MapLeaderboardFunc != nil {
		return f.MapLeaderboardFunc(ctx, mapHash, limit)
	}
	return nil, nil
}

type testDeps struct {
	submitter *fakeSubmitter
	validator *fakeValidator
	stats     *fakeStats
	playing   *scoreservice.PlayingRegistry
}

func newTestHandler() (*Handler, *testDeps) {
	deps := &testDeps{
		submitter: &fakeSubmitter{},
		validator: &fakeValidator{},
		stats:     &fakeStats{},
		playing:   scoreservice.NewPlayingRegistry(),
	}
	h := NewHandler(deps.submitter, deps.validator, deps.stats, deps.playing,
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	return h, deps
}
