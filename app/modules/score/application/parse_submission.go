package scoreservice

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/nipaa-droid/nipaa-web-sub000/app/modules/beatmap"
	"github.com/nipaa-droid/nipaa-web-sub000/app/modules/mods"
	"github.com/nipaa-droid/nipaa-web-sub000/app/modules/score/domain"
	scoredb "github.com/nipaa-droid/nipaa-web-sub000/app/modules/score/infrastructure/repositories"
)

// submissionFieldCount is the exact number of space-separated fields in a raw
// submission payload.
const submissionFieldCount = 14

// Field positions in the raw payload.
const (
	fieldMods = iota
	fieldScoreValue
	fieldMaxCombo
	fieldGrade
	fieldGeki
	field300
	fieldKatu
	field100
	field50
	fieldMiss
	fieldReserved1
	fieldTimestamp
	fieldReserved2
	fieldPlayerName
)

// parseSubmission validates a raw submission string against the authenticated
// player and produces an unpersisted candidate with status FAILED, plus the
// resolved beatmap. A non-nil rejection means the client sent bad data; a
// non-nil error means the engine itself failed.
func (s *ScoreService) parseSubmission(ctx context.Context, raw string, player domain.Player) (*scoredb.Score, *beatmap.Info, *SubmissionRejection, error) {
	fields := strings.Split(raw, " ")
	if len(fields) != submissionFieldCount {
		return nil, nil, &SubmissionRejection{
			Code:   RejectionMalformedPayload,
			Detail: fmt.Sprintf("expected %d fields, got %d", submissionFieldCount, len(fields)),
		}, nil
	}

	decoded, err := mods.Decode(fields[fieldMods])
	if err != nil {
		return nil, nil, &SubmissionRejection{Code: RejectionIncompatibleMods, Detail: err.Error()}, nil
	}
	if !decoded.Mods.Compatible() {
		return nil, nil, &SubmissionRejection{Code: RejectionIncompatibleMods, Detail: decoded.Mods.String()}, nil
	}
	if !decoded.Mods.Ranked() {
		return nil, nil, &SubmissionRejection{Code: RejectionUnrankedMods, Detail: decoded.Mods.String()}, nil
	}

	if !mods.ValidSpeed(decoded.CustomSpeed) {
		return nil, nil, &SubmissionRejection{
			Code:   RejectionInvalidCustomSpeed,
			Detail: strconv.FormatFloat(decoded.CustomSpeed, 'f', 2, 64),
		}, nil
	}

	submittedAt, ok := parseEpochMillis(fields[fieldTimestamp])
	if !ok || s.now().Sub(submittedAt) > s.cfg.FreshnessWindow {
		return nil, nil, &SubmissionRejection{Code: RejectionStaleSubmission, Detail: fields[fieldTimestamp]}, nil
	}

	if fields[fieldPlayerName] != player.Name {
		return nil, nil, &SubmissionRejection{Code: RejectionPlayerMismatch}, nil
	}

	mapHash, ok := s.playing.Lookup(player.ID)
	if !ok {
		return nil, nil, &SubmissionRejection{Code: RejectionNotPlaying}, nil
	}

	info, err := s.beatmaps.Lookup(ctx, mapHash)
	if err != nil {
		if errors.Is(err, beatmap.ErrNotFound) {
			return nil, nil, &SubmissionRejection{Code: RejectionBeatmapNotFound, Detail: mapHash}, nil
		}
		return nil, nil, nil, fmt.Errorf("beatmap lookup for submission: %w", err)
	}
	if !info.Status.Submittable() {
		return nil, nil, &SubmissionRejection{
			Code:   RejectionBeatmapNotSubmittable,
			Detail: info.Status.String(),
		}, nil
	}

	ints, badField := parseIntFields(fields, fieldScoreValue, fieldMaxCombo, fieldGeki, field300, fieldKatu, field100, field50, fieldMiss)
	if badField >= 0 {
		return nil, nil, &SubmissionRejection{
			Code:   RejectionInvalidNumericField,
			Detail: fmt.Sprintf("field %d: %q", badField, fields[badField]),
		}, nil
	}

	grade, ok := domain.ParseGrade(fields[fieldGrade])
	if !ok {
		return nil, nil, &SubmissionRejection{Code: RejectionInvalidGrade, Detail: fields[fieldGrade]}, nil
	}

	candidate := &scoredb.Score{
		PlayerID:    player.ID,
		PlayerName:  player.Name,
		MapHash:     mapHash,
		Mode:        domain.ModeStandard,
		Value:       ints[fieldScoreValue],
		Hit300:      int(ints[field300]),
		Hit100:      int(ints[field100]),
		Hit50:       int(ints[field50]),
		HitMiss:     int(ints[fieldMiss]),
		HitGeki:     int(ints[fieldGeki]),
		HitKatu:     int(ints[fieldKatu]),
		MaxCombo:    int(ints[fieldMaxCombo]),
		Mods:        mods.Encode(decoded.Mods, decoded.CustomSpeed),
		Speed:       decoded.CustomSpeed,
		Grade:       grade,
		Status:      domain.StatusFailed,
		SubmittedAt: submittedAt,
	}

	performance, err := s.perf.Calculate(ctx, info.Difficulty, decoded.Mods, decoded.CustomSpeed, candidate.AccuracyFraction(), candidate.MaxCombo, 0)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("performance calculation: %w", err)
	}
	if math.IsNaN(performance) || math.IsInf(performance, 0) || performance < 0 {
		performance = 0
	}
	candidate.Performance = performance

	return candidate, info, nil, nil
}

// parseEpochMillis reads an epoch timestamp in milliseconds (seconds are
// accepted for older clients and normalized).
func parseEpochMillis(field string) (time.Time, bool) {
	v, err := strconv.ParseInt(field, 10, 64)
	if err != nil || v <= 0 {
		return time.Time{}, false
	}
	// Values that look like seconds get scaled up.
	if v < 1e12 {
		v *= 1000
	}
	return time.UnixMilli(v), true
}

// parseIntFields parses the given positions as int64, returning the index of
// the first bad field or -1.
func parseIntFields(fields []string, positions ...int) (map[int]int64, int) {
	out := make(map[int]int64, len(positions))
	for _, pos := range positions {
		v, err := strconv.ParseInt(fields[pos], 10, 64)
		if err != nil {
			return nil, pos
		}
		out[pos] = v
	}
	return out, -1
}
