package scoreservice

import (
	"sync"
	"time"
)

// PlayingRegistry tracks which map each player is currently playing, as
// reported by the client's ping endpoint. The submission parser consults it
// to bind a submission to a map hash, since the payload itself carries none.
type PlayingRegistry struct {
	mu      sync.RWMutex
	playing map[int64]playingEntry
	now     func() time.Time
}

type playingEntry struct {
	mapHash string
	setAt   time.Time
}

// NewPlayingRegistry builds an empty registry.
func NewPlayingRegistry() *PlayingRegistry {
	return &PlayingRegistry{
		playing: make(map[int64]playingEntry),
		now:     time.Now,
	}
}

// Set records that the player is playing the given map.
func (p *PlayingRegistry) Set(playerID int64, mapHash string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playing[playerID] = playingEntry{mapHash: mapHash, setAt: p.now()}
}

// Lookup returns the map the player is currently playing, if any.
func (p *PlayingRegistry) Lookup(playerID int64) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	entry, ok := p.playing[playerID]
	if !ok || entry.mapHash == "" {
		return "", false
	}
	return entry.mapHash, true
}

// Clear drops the player's entry, e.g. on logout.
func (p *PlayingRegistry) Clear(playerID int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.playing, playerID)
}
