package statsservice

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/nipaa-droid/nipaa-web-sub000/app/modules/score/domain"
	scoredb "github.com/nipaa-droid/nipaa-web-sub000/app/modules/score/infrastructure/repositories"
	statsdb "github.com/nipaa-droid/nipaa-web-sub000/app/modules/stats/infrastructure/repositories"
)

// ------------------------
// Fake Score Repository
// ------------------------

// FakeScoreRepository covers the read side the stats service consumes.
type FakeScoreRepository struct {
	trace []string

	FindPlayerBestScoresFunc            func(ctx context.Context, db bun.IDB, playerID int64, mode domain.GameMode, metric domain.Metric, limit int) ([]scoredb.Score, error)
	FindMapLeaderboardFunc              func(ctx context.Context, db bun.IDB, mapHash string, metric domain.Metric, limit int) ([]scoredb.Score, error)
	CountScoresWithMetricAtLeastFunc    func(ctx context.Context, db bun.IDB, mapHash string, metric domain.Metric, value float64, excludingID int64) (int, error)
	SumScoreValuesFunc                  func(ctx context.Context, db bun.IDB, playerID int64, mode domain.GameMode) (int64, error)
	CountPlayersWithScoreSumAtLeastFunc func(ctx context.Context, db bun.IDB, mode domain.GameMode, value int64, excludingPlayerID int64) (int, error)
}

func NewFakeScoreRepository() *FakeScoreRepository {
	return &FakeScoreRepository{trace: []string{}}
}

func (f *FakeScoreRepository) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakeScoreRepository) Trace() []string {
	return f.trace
}

func (f *FakeScoreRepository) FindPlayerBestScores(ctx context.Context, db bun.IDB, playerID int64, mode domain.GameMode, metric domain.Metric, limit int) ([]scoredb.Score, error) {
	f.record("FindPlayerBestScores")
	if f.FindPlayerBestScoresFunc != nil {
		return f.FindPlayerBestScoresFunc(ctx, db, playerID, mode, metric, limit)
	}
	return nil, nil
}

func (f *FakeScoreRepository) FindMapLeaderboard(ctx context.Context, db bun.IDB, mapHash string, metric domain.Metric, limit int) ([]scoredb.Score, error) {
	f.record("FindMapLeaderboard")
	if f.FindMapLeaderboardFunc != nil {
		return f.FindMapLeaderboardFunc(ctx, db, mapHash, metric, limit)
	}
	return nil, nil
}

func (f *FakeScoreRepository) CountScoresWithMetricAtLeast(ctx context.Context, db bun.IDB, mapHash string, metric domain.Metric, value float64, excludingID int64) (int, error) {
	f.record("CountScoresWithMetricAtLeast")
	if f.CountScoresWithMetricAtLeastFunc != nil {
		return f.CountScoresWithMetricAtLeastFunc(ctx, db, mapHash, metric, value, excludingID)
	}
	return 0, nil
}

func (f *FakeScoreRepository) SumScoreValues(ctx context.Context, db bun.IDB, playerID int64, mode domain.GameMode) (int64, error) {
	f.record("SumScoreValues")
	if f.SumScoreValuesFunc != nil {
		return f.SumScoreValuesFunc(ctx, db, playerID, mode)
	}
	return 0, nil
}

func (f *FakeScoreRepository) CountPlayersWithScoreSumAtLeast(ctx context.Context, db bun.IDB, mode domain.GameMode, value int64, excludingPlayerID int64) (int, error) {
	f.record("CountPlayersWithScoreSumAtLeast")
	if f.CountPlayersWithScoreSumAtLeastFunc != nil {
		return f.CountPlayersWithScoreSumAtLeastFunc(ctx, db, mode, value, excludingPlayerID)
	}
	return 0, nil
}

func (f *FakeScoreRepository) CreateScore(ctx context.Context, db bun.IDB, score *scoredb.Score) error {
	f.record("CreateScore")
	return nil
}

func (f *FakeScoreRepository) FindScoreByID(ctx context.Context, db bun.IDB, id int64) (*scoredb.Score, error) {
	f.record("FindScoreByID")
	return nil, scoredb.ErrNotFound
}

func (f *FakeScoreRepository) FindBestScore(ctx context.Context, db bun.IDB, playerID int64, mapHash string, forUpdate bool) (*scoredb.Score, error) {
	f.record("FindBestScore")
	return nil, scoredb.ErrNotFound
}

func (f *FakeScoreRepository) FindNextBestScore(ctx context.Context, db bun.IDB, playerID int64, mapHash string, metric domain.Metric, excludingID int64) (*scoredb.Score, error) {
	f.record("FindNextBestScore")
	return nil, scoredb.ErrNotFound
}

func (f *FakeScoreRepository) UpdateScoreStatus(ctx context.Context, db bun.IDB, id int64, status domain.SubmissionStatus) error {
	f.record("UpdateScoreStatus")
	return nil
}

func (f *FakeScoreRepository) UpdateScorePerformance(ctx context.Context, db bun.IDB, id int64, performance float64) error {
	f.record("UpdateScorePerformance")
	return nil
}

func (f *FakeScoreRepository) SaveReplay(ctx context.Context, db bun.IDB, id int64, replay []byte) error {
	f.record("SaveReplay")
	return nil
}

func (f *FakeScoreRepository) DeleteScore(ctx context.Context, db bun.IDB, id int64) error {
	f.record("DeleteScore")
	return nil
}

// ------------------------
// Fake Stats Repository
// ------------------------

type FakeStatsRepository struct {
	trace        []string
	upserted     []*statsdb.PlayerStats
	upsertDeltas []int

	GetStatsFunc                           func(ctx context.Context, db bun.IDB, playerID int64, mode domain.GameMode) (*statsdb.PlayerStats, error)
	UpsertStatsFunc                        func(ctx context.Context, db bun.IDB, stats *statsdb.PlayerStats, playCountDelta int) error
	CountPlayersWithPerformanceAtLeastFunc func(ctx context.Context, db bun.IDB, mode domain.GameMode, value float64, excludingPlayerID int64) (int, error)
}

func NewFakeStatsRepository() *FakeStatsRepository {
	return &FakeStatsRepository{trace: []string{}}
}

func (f *FakeStatsRepository) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakeStatsRepository) Trace() []string {
	return f.trace
}

func (f *FakeStatsRepository) GetStats(ctx context.Context, db bun.IDB, playerID int64, mode domain.GameMode) (*statsdb.PlayerStats, error) {
	f.record("GetStats")
	if f.GetStatsFunc != nil {
		return f.GetStatsFunc(ctx, db, playerID, mode)
	}
	return nil, statsdb.ErrNotFound
}

func (f *FakeStatsRepository) UpsertStats(ctx context.Context, db bun.IDB, stats *statsdb.PlayerStats, playCountDelta int) error {
	f.record("UpsertStats")
	f.upserted = append(f.upserted, stats)
	f.upsertDeltas = append(f.upsertDeltas, playCountDelta)
	if f.UpsertStatsFunc != nil {
		return f.UpsertStatsFunc(ctx, db, stats, playCountDelta)
	}
	return nil
}

func (f *FakeStatsRepository) CountPlayersWithPerformanceAtLeast(ctx context.Context, db bun.IDB, mode domain.GameMode, value float64, excludingPlayerID int64) (int, error) {
	f.record("CountPlayersWithPerformanceAtLeast")
	if f.CountPlayersWithPerformanceAtLeastFunc != nil {
		return f.CountPlayersWithPerformanceAtLeastFunc(ctx, db, mode, value, excludingPlayerID)
	}
	return 0, nil
}

// ------------------------
// Test service assembly
// ------------------------

type testDeps struct {
	scoreRepo *FakeScoreRepository
	statsRepo *FakeStatsRepository
	now       time.Time
}

func newTestService(metric domain.Metric) (*StatsService, *testDeps) {
	deps := &testDeps{
		scoreRepo: NewFakeScoreRepository(),
		statsRepo: NewFakeStatsRepository(),
		now:       time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	svc := &StatsService{
		scoreRepo: deps.scoreRepo,
		statsRepo: deps.statsRepo,
		metric:    metric,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		tracer:    noop.NewTracerProvider().Tracer("test"),
		now:       func() time.Time { return deps.now },
	}
	return svc, deps
}
