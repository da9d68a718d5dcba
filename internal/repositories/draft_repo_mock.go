package repositories

import (
	"sync"

	"atelier/internal/models"
)

// MockDraftRepository is an in-memory implementation of DraftRepository.
type MockDraftRepository struct {
	drafts map[string]models.OrderDraft
	mu     sync.RWMutex
}

// NewMockDraftRepository creates a new instance of MockDraftRepository.
func NewMockDraftRepository() *MockDraftRepository {
	return &MockDraftRepository{
		drafts: make(map[string]models.OrderDraft),
	}
}

// Get returns the draft for a session, or an empty draft if none exists.
func (r *MockDraftRepository) Get(sessionID string) (*models.OrderDraft, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	draft, ok := r.drafts[sessionID]
	if !ok {
		return &models.OrderDraft{SessionID: sessionID}, nil
	}
	return &draft, nil
}

// Save upserts the full draft.
func (r *MockDraftRepository) Save(draft *models.OrderDraft) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.drafts[draft.SessionID] = *draft
	return nil
}

// Delete removes the draft for a session.
func (r *MockDraftRepository) Delete(sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.drafts, sessionID)
	return nil
}
