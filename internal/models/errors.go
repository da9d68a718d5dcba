package models

import (
	"fmt"
	"strings"
)

// ValidationError reports required fields that were missing from a request.
// It is raised before any network call is made.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required fields: %s", strings.Join(e.Fields, ", "))
}

// NetworkError wraps a failed or non-2xx call to a collaborator. It is
// retryable: the caller may simply try again, and no checkout state is
// discarded because of it.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network failure during %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ProviderError reports a failure signaled by the payment provider itself,
// distinct from transport failures: the provider's own UI or API already ran.
type ProviderError struct {
	Provider ProviderName
	Code     string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s reported %s: %v", e.Provider, e.Code, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// ConsentRequiredError is not a failure: the operation is gated on a consent
// category the user has not granted. The caller should offer a grant path.
type ConsentRequiredError struct {
	Category ConsentCategory
}

func (e *ConsentRequiredError) Error() string {
	return fmt.Sprintf("consent required for category %s", e.Category)
}
