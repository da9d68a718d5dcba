package repositories

import (
	"fmt"

	"atelier/internal/models"

	"gorm.io/gorm"
)

// DraftRepository defines the interface for checkout draft persistence.
// The draft is written after every accepted step so a reload resumes at the
// correct one.
type DraftRepository interface {
	Get(sessionID string) (*models.OrderDraft, error)
	Save(draft *models.OrderDraft) error
	Delete(sessionID string) error
}

// GORMDraftRepository is a GORM implementation of DraftRepository.
type GORMDraftRepository struct {
	db *gorm.DB
}

// NewGORMDraftRepository creates a new instance of GORMDraftRepository.
func NewGORMDraftRepository(db *gorm.DB) *GORMDraftRepository {
	return &GORMDraftRepository{
		db: db,
	}
}

// Get retrieves the draft for a session. A missing draft is not an error:
// an empty draft at step 1 is returned instead.
func (r *GORMDraftRepository) Get(sessionID string) (*models.OrderDraft, error) {
	var draft models.OrderDraft
	if err := r.db.First(&draft, "session_id = ?", sessionID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return &models.OrderDraft{SessionID: sessionID}, nil
		}
		return nil, fmt.Errorf("failed to get draft for session %s: %w", sessionID, err)
	}
	return &draft, nil
}

// Save upserts the full draft.
func (r *GORMDraftRepository) Save(draft *models.OrderDraft) error {
	if err := r.db.Save(draft).Error; err != nil {
		return fmt.Errorf("failed to save draft for session %s: %w", draft.SessionID, err)
	}
	return nil
}

// Delete removes the draft for a session.
func (r *GORMDraftRepository) Delete(sessionID string) error {
	if err := r.db.Delete(&models.OrderDraft{}, "session_id = ?", sessionID).Error; err != nil {
		return fmt.Errorf("failed to delete draft for session %s: %w", sessionID, err)
	}
	return nil
}
