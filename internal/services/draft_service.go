package services

import (
	"fmt"

	"atelier/internal/models"
	"atelier/internal/repositories"

	"github.com/go-playground/validator/v10"
)

// DraftService accumulates buyer input across the sequential checkout steps.
// A rejected submit leaves the stored draft untouched; an accepted one is
// persisted immediately so a reload resumes at the derived step.
type DraftService struct {
	repo     repositories.DraftRepository
	validate *validator.Validate
}

// NewDraftService creates a new DraftService.
func NewDraftService(repo repositories.DraftRepository) *DraftService {
	return &DraftService{
		repo:     repo,
		validate: validator.New(),
	}
}

// Get returns the current draft for a session (empty at step 1 if none).
func (s *DraftService) Get(sessionID string) (*models.OrderDraft, error) {
	return s.repo.Get(sessionID)
}

// SubmitMeasurements stores the measurements step. All fields are required;
// a partial submission is rejected without touching the draft.
func (s *DraftService) SubmitMeasurements(sessionID string, m models.Measurements) (*models.OrderDraft, error) {
	if err := s.validate.Struct(m); err != nil {
		return nil, &models.ValidationError{Fields: m.MissingFields()}
	}

	draft, err := s.repo.Get(sessionID)
	if err != nil {
		return nil, err
	}
	draft.Measurements = m
	if err := s.repo.Save(draft); err != nil {
		return nil, fmt.Errorf("failed to persist measurements: %w", err)
	}
	return draft, nil
}

// SubmitDelivery stores the delivery step. Previously completed steps are
// never discarded; each step is additive.
func (s *DraftService) SubmitDelivery(sessionID string, d models.DeliveryDetails) (*models.OrderDraft, error) {
	if err := s.validate.Struct(d); err != nil {
		missing := d.MissingFields()
		if len(missing) == 0 {
			// Present but malformed (e.g. a bad email) still names the field.
			for _, fieldErr := range err.(validator.ValidationErrors) {
				missing = append(missing, fieldErr.Field())
			}
		}
		return nil, &models.ValidationError{Fields: missing}
	}

	draft, err := s.repo.Get(sessionID)
	if err != nil {
		return nil, err
	}
	draft.Delivery = d
	if err := s.repo.Save(draft); err != nil {
		return nil, fmt.Errorf("failed to persist delivery details: %w", err)
	}
	return draft, nil
}

// Reset clears every step and forces the flow back to step 1.
func (s *DraftService) Reset(sessionID string) error {
	return s.repo.Delete(sessionID)
}
