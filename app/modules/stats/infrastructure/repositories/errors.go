package statsdb

import "errors"

// ErrNotFound indicates no statistics row exists for the (player, mode) pair.
// Callers decide whether that is a fresh player or a reportable condition.
var ErrNotFound = errors.New("player stats not found")
