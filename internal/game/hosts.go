package game

import (
	"sync"

	"github.com/google/uuid"
)

// HostRegistry tracks the live host connection per game code. It is
// process-local: hosts are singleton per game and the mutex must be cheap,
// unlike the player mutex which lives in the store so reconnects can land on
// another instance.
type HostRegistry struct {
	mu    sync.Mutex
	hosts map[string]string // game code -> connection token
}

func NewHostRegistry() *HostRegistry {
	return &HostRegistry{hosts: make(map[string]string)}
}

// Acquire claims the host slot for code. Returns the connection token and
// true on success, or false when another host is already live.
func (r *HostRegistry) Acquire(code string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.hosts[code]; taken {
		return "", false
	}
	token := uuid.NewString()
	r.hosts[code] = token
	return token, true
}

// Release frees the host slot only if token still owns it, so a stale
// cleanup cannot evict a newer host.
func (r *HostRegistry) Release(code, token string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.hosts[code] == token {
		delete(r.hosts, code)
	}
}

// Held reports whether a host is currently live for code.
func (r *HostRegistry) Held(code string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, taken := r.hosts[code]
	return taken
}
