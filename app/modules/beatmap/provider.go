package beatmap

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Provider.Fetch and Cache.Lookup when no beatmap
// matches the hash. The cache stores it as a negative entry.
var ErrNotFound = errors.New("beatmap not found")

// Provider fetches beatmap metadata from the upstream source. Fetch may block
// and is expected to be idempotent; failures other than ErrNotFound are
// transient and are not cached.
type Provider interface {
	Fetch(ctx context.Context, md5 string) (*Info, error)
}
