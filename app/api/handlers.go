// Package api exposes the engine over HTTP. Handlers are thin: they parse
// transport concerns (headers, path params, bodies) and delegate to the
// services. Authentication happens upstream; the authenticated player arrives
// in trusted headers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	replayservice "github.com/nipaa-droid/nipaa-web-sub000/app/modules/replay/application"
	scoreservice "github.com/nipaa-droid/nipaa-web-sub000/app/modules/score/application"
	"github.com/nipaa-droid/nipaa-web-sub000/app/modules/score/domain"
	scoredb "github.com/nipaa-droid/nipaa-web-sub000/app/modules/score/infrastructure/repositories"
	statsservice "github.com/nipaa-droid/nipaa-web-sub000/app/modules/stats/application"
	statsdb "github.com/nipaa-droid/nipaa-web-sub000/app/modules/stats/infrastructure/repositories"
	"github.com/nipaa-droid/nipaa-web-sub000/app/shared/accuracy"
)

// maxReplayBytes bounds replay upload size.
const maxReplayBytes = 4 << 20

// ScoreSubmitter is the submission slice of the score service.
type ScoreSubmitter interface {
	SubmitScore(ctx context.Context, raw string, player domain.Player) (scoreservice.SubmitResult, error)
}

// ReplayValidator is the replay upload slice of the replay service.
type ReplayValidator interface {
	ValidateReplay(ctx context.Context, scoreID int64, rawReplay []byte) (replayservice.ValidateResult, error)
}

// StatsProvider is the query slice of the stats service.
type StatsProvider interface {
	RecomputeStats(ctx context.Context, playerID int64, mode domain.GameMode, countPlay bool) (*statsdb.PlayerStats, error)
	GetStats(ctx context.Context, playerID int64, mode domain.GameMode) (*statsdb.PlayerStats, error)
	GlobalRank(ctx context.Context, playerID int64, mode domain.GameMode) (int, error)
	MapLeaderboard(ctx context.Context, mapHash string, limit int) ([]scoredb.Score, error)
}

// Handler bundles the services behind the HTTP surface.
type Handler struct {
	scores  ScoreSubmitter
	replays ReplayValidator
	stats   StatsProvider
	playing *scoreservice.PlayingRegistry
	logger  *slog.Logger
}

// NewHandler wires the HTTP handler.
func NewHandler(
	scores ScoreSubmitter,
	replays ReplayValidator,
	stats StatsProvider,
	playing *scoreservice.PlayingRegistry,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		scores:  scores,
		replays: replays,
		stats:   stats,
		playing: playing,
		logger:  logger,
	}
}

// player reads the authenticated player from the trusted proxy headers.
func player(r *http.Request) (domain.Player, bool) {
	id, err := strconv.ParseInt(r.Header.Get("X-Player-ID"), 10, 64)
	name := r.Header.Get("X-Player-Name")
	if err != nil || id <= 0 || name == "" {
		return domain.Player{}, false
	}
	return domain.Player{ID: id, Name: name}, true
}

type errorBody struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// SubmitScore handles POST /submit with the raw submission payload as body.
func (h *Handler) SubmitScore(w http.ResponseWriter, r *http.Request) {
	p, ok := player(r)
	if !ok {
		respondJSON(w, http.StatusUnauthorized, errorBody{Error: "UNAUTHENTICATED"})
		return
	}

	raw, err := io.ReadAll(io.LimitReader(r.Body, 4096))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "UNREADABLE_BODY"})
		return
	}

	result, err := h.scores.SubmitScore(r.Context(), string(raw), p)
	if err != nil {
		respondJSON(w, http.StatusInternalServerError, errorBody{Error: "INTERNAL"})
		return
	}
	if result.IsFailure() {
		respondJSON(w, http.StatusUnprocessableEntity, errorBody{
			Error:  string(result.Failure.Code),
			Detail: result.Failure.Detail,
		})
		return
	}

	// The async subscriber also recomputes, but the response carries fresh
	// numbers so the client never sees its own play missing.
	stats, err := h.stats.RecomputeStats(r.Context(), p.ID, domain.ModeStandard, false)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Stats recomputation for response failed",
			slog.Int64("player_id", p.ID),
			slog.Any("error", err),
		)
		respondJSON(w, http.StatusInternalServerError, errorBody{Error: "INTERNAL"})
		return
	}
	rank, err := h.stats.GlobalRank(r.Context(), p.ID, domain.ModeStandard)
	if err != nil && !errors.Is(err, statsservice.ErrPlayerNotFound) {
		respondJSON(w, http.StatusInternalServerError, errorBody{Error: "INTERNAL"})
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"score":        result.Success,
		"play_count":   stats.PlayCount,
		"accuracy":     accuracy.PercentToDroidUnits(accuracy.ToPercent(stats.Accuracy)),
		"performance":  stats.Performance,
		"ranked_score": stats.RankedScore,
		"global_rank":  rank,
	})
}

// Ping handles POST /ping, registering the map the player is about to play.
func (h *Handler) Ping(w http.ResponseWriter, r *http.Request) {
	p, ok := player(r)
	if !ok {
		respondJSON(w, http.StatusUnauthorized, errorBody{Error: "UNAUTHENTICATED"})
		return
	}

	var body struct {
		MapHash string `json:"map_hash"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.MapHash == "" {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "MISSING_MAP_HASH"})
		return
	}

	h.playing.Set(p.ID, body.MapHash)
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// UploadReplay handles POST /replay/{scoreID} with the raw replay as body.
func (h *Handler) UploadReplay(w http.ResponseWriter, r *http.Request) {
	scoreID, err := strconv.ParseInt(chi.URLParam(r, "scoreID"), 10, 64)
	if err != nil || scoreID <= 0 {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "INVALID_SCORE_ID"})
		return
	}

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxReplayBytes))
	if err != nil || len(raw) == 0 {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "UNREADABLE_BODY"})
		return
	}

	result, err := h.replays.ValidateReplay(r.Context(), scoreID, raw)
	if err != nil {
		respondJSON(w, http.StatusInternalServerError, errorBody{Error: "INTERNAL"})
		return
	}
	if result.IsFailure() {
		status := http.StatusUnprocessableEntity
		if result.Failure.Code == replayservice.RejectionScoreNotFound {
			status = http.StatusNotFound
		}
		respondJSON(w, status, errorBody{
			Error:  string(result.Failure.Code),
			Detail: result.Failure.Detail,
		})
		return
	}
	respondJSON(w, http.StatusOK, result.Success)
}

// MapLeaderboard handles GET /leaderboard/{mapHash}.
func (h *Handler) MapLeaderboard(w http.ResponseWriter, r *http.Request) {
	mapHash := chi.URLParam(r, "mapHash")
	if mapHash == "" {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "MISSING_MAP_HASH"})
		return
	}

	limit := 50
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 100 {
		limit = v
	}

	scores, err := h.stats.MapLeaderboard(r.Context(), mapHash, limit)
	if err != nil {
		respondJSON(w, http.StatusInternalServerError, errorBody{Error: "INTERNAL"})
		return
	}
	respondJSON(w, http.StatusOK, scores)
}

// PlayerStats handles GET /player/{playerID}/stats.
func (h *Handler) PlayerStats(w http.ResponseWriter, r *http.Request) {
	playerID, err := strconv.ParseInt(chi.URLParam(r, "playerID"), 10, 64)
	if err != nil || playerID <= 0 {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "INVALID_PLAYER_ID"})
		return
	}

	stats, err := h.stats.GetStats(r.Context(), playerID, domain.ModeStandard)
	if err != nil {
		respondJSON(w, http.StatusInternalServerError, errorBody{Error: "INTERNAL"})
		return
	}

	rank, err := h.stats.GlobalRank(r.Context(), playerID, domain.ModeStandard)
	if err != nil {
		if errors.Is(err, statsservice.ErrPlayerNotFound) {
			rank = 0
		} else {
			respondJSON(w, http.StatusInternalServerError, errorBody{Error: "INTERNAL"})
			return
		}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"stats":       stats,
		"global_rank": rank,
	})
}
