package services

import (
	"sync"

	"atelier/internal/models"
)

// PendingOrderTracker holds the resumable pointer to an in-flight order.
// Get is side-effect-free; Set and Clear are the only mutators. The HTTP
// layer provides a cookie-backed implementation so the pointer survives full
// page reloads and is implicitly shared across tabs; MemoryTracker serves
// service-level tests.
type PendingOrderTracker interface {
	Get() (models.ResumeToken, bool)
	Set(token models.ResumeToken)
	Clear()
}

// MemoryTracker is an in-memory PendingOrderTracker.
type MemoryTracker struct {
	mu    sync.RWMutex
	token models.ResumeToken
}

// NewMemoryTracker creates an empty tracker.
func NewMemoryTracker() *MemoryTracker {
	return &MemoryTracker{}
}

// Get returns the tracked token, if any.
func (t *MemoryTracker) Get() (models.ResumeToken, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.token, t.token.Valid()
}

// Set stores the token.
func (t *MemoryTracker) Set(token models.ResumeToken) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.token = token
}

// Clear drops the token.
func (t *MemoryTracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.token = models.ResumeToken{}
}
