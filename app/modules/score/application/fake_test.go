package scoreservice

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/nipaa-droid/nipaa-web-sub000/app/eventbus"
	"github.com/nipaa-droid/nipaa-web-sub000/app/modules/beatmap"
	"github.com/nipaa-droid/nipaa-web-sub000/app/modules/mods"
	"github.com/nipaa-droid/nipaa-web-sub000/app/modules/score/domain"
	scoredb "github.com/nipaa-droid/nipaa-web-sub000/app/modules/score/infrastructure/repositories"
)

// ------------------------
// Fake Score Repository
// ------------------------

type FakeScoreRepository struct {
	trace []string

	CreateScoreFunc                     func(ctx context.Context, db bun.IDB, score *scoredb.Score) error
	FindScoreByIDFunc                   func(ctx context.Context, db bun.IDB, id int64) (*scoredb.Score, error)
	FindBestScoreFunc                   func(ctx context.Context, db bun.IDB, playerID int64, mapHash string, forUpdate bool) (*scoredb.Score, error)
	FindNextBestScoreFunc               func(ctx context.Context, db bun.IDB, playerID int64, mapHash string, metric domain.Metric, excludingID int64) (*scoredb.Score, error)
	UpdateScoreStatusFunc               func(ctx context.Context, db bun.IDB, id int64, status domain.SubmissionStatus) error
	UpdateScorePerformanceFunc          func(ctx context.Context, db bun.IDB, id int64, performance float64) error
	SaveReplayFunc                      func(ctx context.Context, db bun.IDB, id int64, replay []byte) error
	DeleteScoreFunc                     func(ctx context.Context, db bun.IDB, id int64) error
	FindPlayerBestScoresFunc            func(ctx context.Context, db bun.IDB, playerID int64, mode domain.GameMode, metric domain.Metric, limit int) ([]scoredb.Score, error)
	FindMapLeaderboardFunc              func(ctx context.Context, db bun.IDB, mapHash string, metric domain.Metric, limit int) ([]scoredb.Score, error)
	CountScoresWithMetricAtLeastFunc    func(ctx context.Context, db bun.IDB, mapHash string, metric domain.Metric, value float64, excludingID int64) (int, error)
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

func (f *FakeScoreRepository) CreateScore(ctx context.Context, db bun.IDB, score *scoredb.Score) error {
	f.record("CreateScore")
	if f.CreateScoreFunc != nil {
		return f.CreateScoreFunc(ctx, db, score)
	}
	score.ID = 1
	return nil
}

func (f *FakeScoreRepository) FindScoreByID(ctx context.Context, db bun.IDB, id int64) (*scoredb.Score, error) {
	f.record("FindScoreByID")
	if f.FindScoreByIDFunc != nil {
		return f.FindScoreByIDFunc(ctx, db, id)
	}
	return nil, scoredb.ErrNotFound
}

func (f *FakeScoreRepository) FindBestScore(ctx context.Context, db bun.IDB, playerID int64, mapHash string, forUpdate bool) (*scoredb.Score, error) {
	f.record("FindBestScore")
	if f.FindBestScoreFunc != nil {
		return f.FindBestScoreFunc(ctx, db, playerID, mapHash, forUpdate)
	}
	return nil, scoredb.ErrNotFound
}

func (f *FakeScoreRepository) FindNextBestScore(ctx context.Context, db bun.IDB, playerID int64, mapHash string, metric domain.Metric, excludingID int64) (*scoredb.Score, error) {
	f.record("FindNextBestScore")
	if f.FindNextBestScoreFunc != nil {
		return f.FindNextBestScoreFunc(ctx, db, playerID, mapHash, metric, excludingID)
	}
	return nil, scoredb.ErrNotFound
}

func (f *FakeScoreRepository) UpdateScoreStatus(ctx context.Context, db bun.IDB, id int64, status domain.SubmissionStatus) error {
	f.record("UpdateScoreStatus")
	if f.UpdateScoreStatusFunc != nil {
		return f.UpdateScoreStatusFunc(ctx, db, id, status)
	}
	return nil
}

func (f *FakeScoreRepository) UpdateScorePerformance(ctx context.Context, db bun.IDB, id int64, performance float64) error {
	f.record("UpdateScorePerformance")
	if f.UpdateScorePerformanceFunc != nil {
		return f.UpdateScorePerformanceFunc(ctx, db, id, performance)
	}
	return nil
}

func (f *FakeScoreRepository) SaveReplay(ctx context.Context, db bun.IDB, id int64, replay []byte) error {
	f.record("SaveReplay")
	if f.SaveReplayFunc != nil {
		return f.SaveReplayFunc(ctx, db, id, replay)
	}
	return nil
}

func (f *FakeScoreRepository) DeleteScore(ctx context.Context, db bun.IDB, id int64) error {
	f.record("DeleteScore")
	if f.DeleteScoreFunc != nil {
		return f.DeleteScoreFunc(ctx, db, id)
	}
	return nil
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
	return 0, nil
}

func (f *FakeScoreRepository) CountPlayersWithScoreSumAtLeast(ctx context.Context, db bun.IDB, mode domain.GameMode, value int64, excludingPlayerID int64) (int, error) {
	f.record("CountPlayersWithScoreSumAtLeast")
	if f.CountPlayersWithScoreSumAtLeastFunc != nil {
		return f.CountPlayersWithScoreSumAtLeastFunc(ctx, db, mode, value, excludingPlayerID)
	}
	return 0, nil
}

// ------------------------
// Fake collaborators
// ------------------------

// fakeTxRunner invokes fn directly with a zero bun.Tx; the fake repository
// ignores the handle.
type fakeTxRunner struct {
	RunInTxFunc func(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context, tx bun.Tx) error) error
}

func (f *fakeTxRunner) RunInTx(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context, tx bun.Tx) error) error {
	if f.RunInTxFunc != nil {
		return f.RunInTxFunc(ctx, opts, fn)
	}
	return fn(ctx, bun.Tx{})
}

type fakeBeatmaps struct {
	LookupFunc func(ctx context.Context, md5 string) (*beatmap.Info, error)
}

func (f *fakeBeatmaps) Lookup(ctx context.Context, md5 string) (*beatmap.Info, error) {
	if f.LookupFunc != nil {
		return f.LookupFunc(ctx, md5)
	}
	return nil, beatmap.ErrNotFound
}

type fakePerfCalculator struct {
	CalculateFunc func(ctx context.Context, diff beatmap.Difficulty, set mods.ModSet, speed, accuracyFraction float64, maxCombo int, tapPenalty float64) (float64, error)
}

func (f *fakePerfCalculator) Calculate(ctx context.Context, diff beatmap.Difficulty, set mods.ModSet, speed, accuracyFraction float64, maxCombo int, tapPenalty float64) (float64, error) {
	if f.CalculateFunc != nil {
		return f.CalculateFunc(ctx, diff, set, speed, accuracyFraction, maxCombo, tapPenalty)
	}
	return 100, nil
}

type fakePublisher struct {
	published []eventbus.ScoreSubmitted

	PublishScoreSubmittedFunc func(ctx context.Context, ev eventbus.ScoreSubmitted) error
}

func (f *fakePublisher) PublishScoreSubmitted(ctx context.Context, ev eventbus.ScoreSubmitted) error {
	if f.PublishScoreSubmittedFunc != nil {
		return f.PublishScoreSubmittedFunc(ctx, ev)
	}
	f.published = append(f.published, ev)
	return nil
}

// ------------------------
// Test service assembly
// ------------------------

type testDeps struct {
	repo      *FakeScoreRepository
	tx        *fakeTxRunner
	beatmaps  *fakeBeatmaps
	playing   *PlayingRegistry
	perf      *fakePerfCalculator
	publisher *fakePublisher
	now       time.Time
}

func newTestService(cfg Config) (*ScoreService, *testDeps) {
	deps := &testDeps{
		repo:      NewFakeScoreRepository(),
		tx:        &fakeTxRunner{},
		beatmaps:  &fakeBeatmaps{},
		playing:   NewPlayingRegistry(),
		perf:      &fakePerfCalculator{},
		publisher: &fakePublisher{},
		now:       time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	svc := &ScoreService{
		repo:      deps.repo,
		tx:        deps.tx,
		beatmaps:  deps.beatmaps,
		playing:   deps.playing,
		perf:      deps.perf,
		publisher: deps.publisher,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		tracer:    noop.NewTracerProvider().Tracer("test"),
		cfg:       cfg,
		now:       func() time.Time { return deps.now },
	}
	return svc, deps
}
