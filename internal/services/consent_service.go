package services

import (
	"fmt"
	"log"
	"sync"

	"atelier/internal/events"
	"atelier/internal/models"
	"atelier/internal/repositories"
)

// ConsentService is the gate in front of every third-party, cookie-setting
// integration. While a category is blocked the dependent control is replaced
// by a consent-request affordance and the underlying script is never
// registered as loaded.
type ConsentService struct {
	repo repositories.ConsentRepository
	bus  *events.Bus

	mu      sync.Mutex
	scripts map[string]bool // sessionID + "|" + url -> loaded
}

// NewConsentService creates a new ConsentService.
func NewConsentService(repo repositories.ConsentRepository, bus *events.Bus) *ConsentService {
	return &ConsentService{
		repo:    repo,
		bus:     bus,
		scripts: make(map[string]bool),
	}
}

// Get returns the persisted consent record for a session.
func (s *ConsentService) Get(sessionID string) (*models.ConsentRecord, error) {
	return s.repo.Get(sessionID)
}

// Allowed reports whether the category is granted for the session. The
// necessary category is always on.
func (s *ConsentService) Allowed(sessionID string, category models.ConsentCategory) bool {
	record, err := s.repo.Get(sessionID)
	if err != nil {
		log.Printf("failed to read consent for session %s: %v", sessionID, err)
		return false
	}
	return record.Allows(category)
}

// Require returns a ConsentRequiredError when the category is blocked. This
// is a gated precondition, not a failure: callers surface a grant path.
func (s *ConsentService) Require(sessionID string, category models.ConsentCategory) error {
	if !s.Allowed(sessionID, category) {
		return &models.ConsentRequiredError{Category: category}
	}
	return nil
}

// Grant enables the given categories for the session and broadcasts the
// change so gated UI can swap the affordance for the real control.
func (s *ConsentService) Grant(sessionID string, categories ...models.ConsentCategory) error {
	record, err := s.repo.Get(sessionID)
	if err != nil {
		return err
	}
	for _, category := range categories {
		switch category {
		case models.ConsentFunctional:
			record.Functional = true
		case models.ConsentAnalytics:
			record.Analytics = true
		case models.ConsentTargeting:
			record.Targeting = true
		}
	}
	if err := s.repo.Save(record); err != nil {
		return err
	}
	s.bus.Publish(events.Event{Type: events.ConsentChanged, SessionID: sessionID, Consent: "selected"})
	return nil
}

// GrantAll enables every category at once.
func (s *ConsentService) GrantAll(sessionID string) error {
	record, err := s.repo.Get(sessionID)
	if err != nil {
		return err
	}
	record.Functional = true
	record.Analytics = true
	record.Targeting = true
	if err := s.repo.Save(record); err != nil {
		return err
	}
	s.bus.Publish(events.Event{Type: events.ConsentChanged, SessionID: sessionID, Consent: "all"})
	return nil
}

// Revoke disables a category and returns the first-party cookie prefixes to
// expire. Third-party cookies are outside our control; they are logged as
// unmanageable and the revocation is still broadcast for any provider
// consent API listening on the bus.
func (s *ConsentService) Revoke(sessionID string, category models.ConsentCategory) ([]string, error) {
	if category == models.ConsentNecessary {
		return nil, fmt.Errorf("the %s category cannot be revoked", category)
	}

	record, err := s.repo.Get(sessionID)
	if err != nil {
		return nil, err
	}
	switch category {
	case models.ConsentFunctional:
		record.Functional = false
	case models.ConsentAnalytics:
		record.Analytics = false
	case models.ConsentTargeting:
		record.Targeting = false
	}
	if err := s.repo.Save(record); err != nil {
		return nil, err
	}

	s.unloadScripts(sessionID)
	log.Printf("consent revoked for %s/%s; third-party cookies are unmanageable, signaling providers", sessionID, category)
	s.bus.Publish(events.Event{Type: events.ConsentRevoked, SessionID: sessionID, Category: string(category)})
	return models.CookiePrefixes[category], nil
}

// EnsureLoaded marks a gated script as loaded for the session. The load is
// idempotent: re-entrant grant events never register the same script twice.
// It returns true only on the first load.
func (s *ConsentService) EnsureLoaded(sessionID string, category models.ConsentCategory, scriptURL string) (bool, error) {
	if err := s.Require(sessionID, category); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	key := sessionID + "|" + scriptURL
	if s.scripts[key] {
		return false, nil
	}
	s.scripts[key] = true
	return true, nil
}

// Loaded reports whether the script is currently registered for the session.
func (s *ConsentService) Loaded(sessionID string, scriptURL string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scripts[sessionID+"|"+scriptURL]
}

func (s *ConsentService) unloadScripts(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prefix := sessionID + "|"
	for key := range s.scripts {
		if len(key) > len(prefix) && key[:len(prefix)] == prefix {
			delete(s.scripts, key)
		}
	}
}
