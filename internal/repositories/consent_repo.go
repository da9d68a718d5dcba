package repositories

import (
	"fmt"
	"sync"

	"atelier/internal/models"

	"gorm.io/gorm"
)

// ConsentRepository defines the interface for per-session consent records.
type ConsentRepository interface {
	Get(sessionID string) (*models.ConsentRecord, error)
	Save(record *models.ConsentRecord) error
}

// GORMConsentRepository is a GORM implementation of ConsentRepository.
type GORMConsentRepository struct {
	db *gorm.DB
}

// NewGORMConsentRepository creates a new instance of GORMConsentRepository.
func NewGORMConsentRepository(db *gorm.DB) *GORMConsentRepository {
	return &GORMConsentRepository{
		db: db,
	}
}

// Get returns the consent record for a session. A session without a record
// has consented to nothing beyond the necessary category.
func (r *GORMConsentRepository) Get(sessionID string) (*models.ConsentRecord, error) {
	var record models.ConsentRecord
	if err := r.db.First(&record, "session_id = ?", sessionID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return &models.ConsentRecord{SessionID: sessionID}, nil
		}
		return nil, fmt.Errorf("failed to get consent for session %s: %w", sessionID, err)
	}
	return &record, nil
}

// Save upserts the consent record.
func (r *GORMConsentRepository) Save(record *models.ConsentRecord) error {
	if err := r.db.Save(record).Error; err != nil {
		return fmt.Errorf("failed to save consent for session %s: %w", record.SessionID, err)
	}
	return nil
}

// MockConsentRepository is an in-memory implementation of ConsentRepository.
type MockConsentRepository struct {
	records map[string]models.ConsentRecord
	mu      sync.RWMutex
}

// NewMockConsentRepository creates a new instance of MockConsentRepository.
func NewMockConsentRepository() *MockConsentRepository {
	return &MockConsentRepository{
		records: make(map[string]models.ConsentRecord),
	}
}

// Get returns the consent record for a session, defaulting to none granted.
func (r *MockConsentRepository) Get(sessionID string) (*models.ConsentRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.records[sessionID]
	if !ok {
		return &models.ConsentRecord{SessionID: sessionID}, nil
	}
	return &record, nil
}

// Save upserts the consent record.
func (r *MockConsentRepository) Save(record *models.ConsentRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.records[record.SessionID] = *record
	return nil
}
