package memory

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// SessionStateRepository keeps per-session runtime state that does not
// belong in Postgres: the turn lock serializing concurrent submissions
// and the last follow-up suggestions.
type SessionStateRepository struct {
	locks *cache.Cache
	state *cache.Cache
	mu    sync.Mutex
}

type SessionState struct {
	LastFollowUps []string
	LastTurnAt    time.Time
}

func NewSessionStateRepository() *SessionStateRepository {
	// Locks never expire; an evicted lock would break serialization.
	// Runtime state is disposable and ages out.
	return &SessionStateRepository{
		locks: cache.New(cache.NoExpiration, cache.NoExpiration),
		state: cache.New(1*time.Hour, 10*time.Minute),
	}
}

// Lock returns the mutex serializing turns for one session, creating
// it on first use.
func (r *SessionStateRepository) Lock(sessionID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()

	if x, found := r.locks.Get(sessionID); found {
		return x.(*sync.Mutex)
	}
	m := &sync.Mutex{}
	r.locks.Set(sessionID, m, cache.NoExpiration)
	return m
}

func (r *SessionStateRepository) SaveState(sessionID string, state *SessionState) {
	r.state.Set(sessionID, state, cache.DefaultExpiration)
}

func (r *SessionStateRepository) GetState(sessionID string) (*SessionState, bool) {
	if x, found := r.state.Get(sessionID); found {
		return x.(*SessionState), true
	}
	return nil, false
}

func (r *SessionStateRepository) Delete(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.locks.Delete(sessionID)
	r.state.Delete(sessionID)
}
