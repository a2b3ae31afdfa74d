// Package processor is the HTTP client for the external difficulty processor,
// the sidecar that owns difficulty math and replay binary decoding. The
// engine treats both as black boxes behind this client.
package processor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/nipaa-droid/nipaa-web-sub000/app/modules/beatmap"
	"github.com/nipaa-droid/nipaa-web-sub000/app/modules/mods"
	"github.com/nipaa-droid/nipaa-web-sub000/app/modules/replay"
)

// Client calls the processor. It satisfies the performance calculator and
// replay analyzer interfaces of the score and replay services.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient builds a processor client against baseURL. A nil client gets a
// default with a request timeout.
func NewClient(baseURL string, client *http.Client) *Client {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{baseURL: baseURL, client: client}
}

type performanceRequest struct {
	Difficulty beatmap.Difficulty `json:"difficulty"`
	Mods       string             `json:"mods"`
	Accuracy   float64            `json:"accuracy"`
	MaxCombo   int                `json:"max_combo"`
	TapPenalty float64            `json:"tap_penalty"`
}

type performanceResponse struct {
	Performance float64 `json:"performance"`
}

// Calculate asks the processor for the performance value of one play.
func (c *Client) Calculate(ctx context.Context, diff beatmap.Difficulty, set mods.ModSet, speed, accuracyFraction float64, maxCombo int, tapPenalty float64) (float64, error) {
	body, err := json.Marshal(performanceRequest{
		Difficulty: diff,
		Mods:       mods.Encode(set, speed),
		Accuracy:   accuracyFraction,
		MaxCombo:   maxCombo,
		TapPenalty: tapPenalty,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to marshal performance request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/performance", bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("failed to build performance request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("performance calculation failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("performance calculation: unexpected status %d", resp.StatusCode)
	}

	var out performanceResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("failed to decode performance response: %w", err)
	}
	return out.Performance, nil
}

type hitResultPayload struct {
	Value int  `json:"value"`
	Miss  bool `json:"miss"`
}

type analysisPayload struct {
	PlayerName string             `json:"player_name"`
	Version    int                `json:"version"`
	Mods       string             `json:"mods"`
	ForcedAR   *float64           `json:"forced_ar"`
	Accuracy   float64            `json:"accuracy"`
	MaxCombo   int                `json:"max_combo"`
	Geki       int                `json:"geki"`
	Katu       int                `json:"katu"`
	TapPenalty float64            `json:"tap_penalty"`
	HitObjects []hitResultPayload `json:"hit_objects"`
	RecordedAt time.Time          `json:"recorded_at"`
}

// Analyze hands raw replay bytes to the processor and returns the structured
// analysis. Any decode failure on the processor side comes back as an error,
// which the replay service treats as a rejection.
func (c *Client) Analyze(ctx context.Context, raw []byte, info *beatmap.Info) (*replay.Analysis, error) {
	u := fmt.Sprintf("%s/replay/analyze?md5=%s", c.baseURL, url.QueryEscape(info.MD5))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to build replay analysis request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("replay analysis failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("replay analysis: unexpected status %d", resp.StatusCode)
	}

	var payload analysisPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode replay analysis response: %w", err)
	}

	decoded, err := mods.Decode(payload.Mods)
	if err != nil {
		return nil, fmt.Errorf("replay analysis carries unknown mods %q: %w", payload.Mods, err)
	}

	hits := make([]replay.HitResult, len(payload.HitObjects))
	for i, h := range payload.HitObjects {
		hits[i] = replay.HitResult{Value: h.Value, Miss: h.Miss}
	}

	return &replay.Analysis{
		PlayerName: payload.PlayerName,
		Version:    payload.Version,
		Mods:       decoded.Mods,
		Speed:      decoded.CustomSpeed,
		ForcedAR:   payload.ForcedAR,
		Accuracy:   payload.Accuracy,
		MaxCombo:   payload.MaxCombo,
		Geki:       payload.Geki,
		Katu:       payload.Katu,
		TapPenalty: payload.TapPenalty,
		HitObjects: hits,
		RecordedAt: payload.RecordedAt,
	}, nil
}
