package handler

import "sync"

// ModelOverrides is the ephemeral per-chat model selection. It is not
// persisted and is lost on restart.
type ModelOverrides struct {
	mu sync.RWMutex
	m  map[int64]string
}

func NewModelOverrides() *ModelOverrides {
	return &ModelOverrides{m: make(map[int64]string)}
}

func (o *ModelOverrides) Get(chatID int64) (string, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	model, ok := o.m[chatID]
	return model, ok
}

func (o *ModelOverrides) Set(chatID int64, model string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.m[chatID] = model
}

// RequestGuard serializes processing per chat: while one request is in
// flight, further messages from the same chat are rejected instead of
// interleaving history reads and writes.
type RequestGuard struct {
	mu   sync.Mutex
	busy map[int64]bool
}

func NewRequestGuard() *RequestGuard {
	return &RequestGuard{busy: make(map[int64]bool)}
}

// Acquire marks a chat busy. Returns false if a request is already active.
func (g *RequestGuard) Acquire(chatID int64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.busy[chatID] {
		return false
	}
	g.busy[chatID] = true
	return true
}

func (g *RequestGuard) Release(chatID int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.busy, chatID)
}
