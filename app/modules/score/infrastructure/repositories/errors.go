package scoredb

import "errors"

var (
	// ErrNotFound reports that no score row matched the lookup. Callers map
	// it to their own rejection or fallback; it is not a failure by itself.
	ErrNotFound = errors.New("score not found")

	// ErrNoRowsAffected reports an update or delete whose predicate matched
	// nothing, usually a score removed by a concurrent invalidation.
	ErrNoRowsAffected = errors.New("no rows affected")
)
