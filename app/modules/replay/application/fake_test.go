package replayservice

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/nipaa-droid/nipaa-web-sub000/app/eventbus"
	"github.com/nipaa-droid/nipaa-web-sub000/app/modules/beatmap"
	"github.com/nipaa-droid/nipaa-web-sub000/app/modules/mods"
	"github.com/nipaa-droid/nipaa-web-sub000/app/modules/replay"
	"github.com/nipaa-droid/nipaa-web-sub000/app/modules/score/domain"
	scoredb "github.com/nipaa-droid/nipaa-web-sub000/app/modules/score/infrastructure/repositories"
)

// ------------------------
// Fake Score Repository
// ------------------------

// FakeScoreRepository covers the slice of the score repository the replay
// service touches; the remaining methods are inert defaults.
type FakeScoreRepository struct {
	trace []string

	FindScoreByIDFunc          func(ctx context.Context, db bun.IDB, id int64) (*scoredb.Score, error)
	UpdateScorePerformanceFunc func(ctx context.Context, db bun.IDB, id int64, performance float64) error
	SaveReplayFunc             func(ctx context.Context, db bun.IDB, id int64, replay []byte) error
	DeleteScoreFunc            func(ctx context.Context, db bun.IDB, id int64) error
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

func (f *FakeScoreRepository) FindScoreByID(ctx context.Context, db bun.IDB, id int64) (*scoredb.Score, error) {
	f.record("FindScoreByID")
	if f.FindScoreByIDFunc != nil {
		return f.FindScoreByIDFunc(ctx, db, id)
	}
	return nil, scoredb.ErrNotFound
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

func (f *FakeScoreRepository) CreateScore(ctx context.Context, db bun.IDB, score *scoredb.Score) error {
	f.record("CreateScore")
	return nil
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

func (f *FakeScoreRepository) FindPlayerBestScores(ctx context.Context, db bun.IDB, playerID int64, mode domain.GameMode, metric domain.Metric, limit int) ([]scoredb.Score, error) {
	f.record("FindPlayerBestScores")
	return nil, nil
}

func (f *FakeScoreRepository) FindMapLeaderboard(ctx context.Context, db bun.IDB, mapHash string, metric domain.Metric, limit int) ([]scoredb.Score, error) {
	f.record("FindMapLeaderboard")
	return nil, nil
}

func (f *FakeScoreRepository) CountScoresWithMetricAtLeast(ctx context.Context, db bun.IDB, mapHash string, metric domain.Metric, value float64, excludingID int64) (int, error) {
	f.record("CountScoresWithMetricAtLeast")
	return 0, nil
}

func (f *FakeScoreRepository) SumScoreValues(ctx context.Context, db bun.IDB, playerID int64, mode domain.GameMode) (int64, error) {
	f.record("SumScoreValues")
	return 0, nil
}

func (f *FakeScoreRepository) CountPlayersWithScoreSumAtLeast(ctx context.Context, db bun.IDB, mode domain.GameMode, value int64, excludingPlayerID int64) (int, error) {
	f.record("CountPlayersWithScoreSumAtLeast")
	return 0, nil
}

// ------------------------
// Fake collaborators
// ------------------------

type fakeBeatmaps struct {
	LookupFunc func(ctx context.Context, md5 string) (*beatmap.Info, error)
}

func (f *fakeBeatmaps) Lookup(ctx context.Context, md5 string) (*beatmap.Info, error) {
	if f.LookupFunc != nil {
		return f.LookupFunc(ctx, md5)
	}
	return nil, beatmap.ErrNotFound
}

type fakeAnalyzer struct {
	AnalyzeFunc func(ctx context.Context, raw []byte, info *beatmap.Info) (*replay.Analysis, error)
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, raw []byte, info *beatmap.Info) (*replay.Analysis, error) {
	if f.AnalyzeFunc != nil {
		return f.AnalyzeFunc(ctx, raw, info)
	}
	return nil, nil
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

type fakePromoter struct {
	calls []int64

	PromoteNextBestFunc func(ctx context.Context, playerID int64, mapHash string, excludingID int64) error
}

func (f *fakePromoter) PromoteNextBest(ctx context.Context, playerID int64, mapHash string, excludingID int64) error {
	f.calls = append(f.calls, excludingID)
	if f.PromoteNextBestFunc != nil {
		return f.PromoteNextBestFunc(ctx, playerID, mapHash, excludingID)
	}
	return nil
}

type fakePublisher struct {
	invalidated []eventbus.ScoreInvalidated
}

func (f *fakePublisher) PublishScoreInvalidated(_ context.Context, ev eventbus.ScoreInvalidated) error {
	f.invalidated = append(f.invalidated, ev)
	return nil
}

// ------------------------
// Test service assembly
// ------------------------

type testDeps struct {
	repo      *FakeScoreRepository
	beatmaps  *fakeBeatmaps
	analyzer  *fakeAnalyzer
	perf      *fakePerfCalculator
	promoter  *fakePromoter
	publisher *fakePublisher
}

func newTestService() (*ReplayService, *testDeps) {
	deps := &testDeps{
		repo:      NewFakeScoreRepository(),
		beatmaps:  &fakeBeatmaps{},
		analyzer:  &fakeAnalyzer{},
		perf:      &fakePerfCalculator{},
		promoter:  &fakePromoter{},
		publisher: &fakePublisher{},
	}
	svc := &ReplayService{
		repo:      deps.repo,
		beatmaps:  deps.beatmaps,
		analyzer:  deps.analyzer,
		perf:      deps.perf,
		promoter:  deps.promoter,
		publisher: deps.publisher,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		tracer:    noop.NewTracerProvider().Tracer("test"),
		tol:       DefaultTolerances(),
		now:       time.Now,
	}
	return svc, deps
}
