package beatmap

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// HTTPProvider fetches beatmap metadata from the upstream metadata service
// over HTTP. It satisfies Provider and is normally placed behind a Cache.
type HTTPProvider struct {
	baseURL string
	client  *http.Client
}

// NewHTTPProvider builds a provider against baseURL. A nil client gets a
// default with a request timeout.
func NewHTTPProvider(baseURL string, client *http.Client) *HTTPProvider {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPProvider{baseURL: baseURL, client: client}
}

// Fetch looks up a beatmap by its file MD5. A 404 from upstream maps to
// ErrNotFound; any other non-200 is a transient error.
func (p *HTTPProvider) Fetch(ctx context.Context, md5 string) (*Info, error) {
	u := fmt.Sprintf("%s/beatmaps/lookup?md5=%s", p.baseURL, url.QueryEscape(md5))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build beatmap lookup request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("beatmap lookup for %s failed: %w", md5, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, ErrNotFound
	default:
		return nil, fmt.Errorf("beatmap lookup for %s: unexpected status %d", md5, resp.StatusCode)
	}

	var info Info
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode beatmap metadata for %s: %w", md5, err)
	}
	if info.MD5 == "" {
		info.MD5 = md5
	}
	return &info, nil
}
