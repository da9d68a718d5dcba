package providers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"atelier/internal/models"
)

// CheckoutRequest carries everything a provider needs to open a payment.
// The provider mints the order identifier; we never generate it ourselves.
type CheckoutRequest struct {
	Amount      float64
	Currency    string
	Email       string
	Description string
}

// CaptureResult is the outcome of finalizing an approved payment, with the
// provider's vocabulary already mapped onto the canonical status set.
type CaptureResult struct {
	Status          models.OrderStatus
	RawStatus       string
	AlreadyCaptured bool
}

// Provider is the uniform three-operation contract every payment provider
// implements. Implementations are plain REST clients; the provider's
// browser SDKs stay out of scope.
type Provider interface {
	Name() models.ProviderName
	CreateOrder(ctx context.Context, req CheckoutRequest) (string, error)
	Capture(ctx context.Context, orderID string) (CaptureResult, error)
	Cancel(ctx context.Context, orderID string, reason string) error
}

// Config holds the connection settings shared by the provider clients.
type Config struct {
	BaseURL string
	APIKey  string
	Secret  string
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 15 * time.Second}
}

// Registry holds the configured providers. Exactly one is selected at
// checkout start and recorded on the order.
type Registry struct {
	providers map[models.ProviderName]Provider
}

// NewRegistry creates a registry from the given providers.
func NewRegistry(list ...Provider) *Registry {
	r := &Registry{providers: make(map[models.ProviderName]Provider)}
	for _, p := range list {
		r.providers[p.Name()] = p
	}
	return r
}

// Get returns the provider registered under the given name.
func (r *Registry) Get(name models.ProviderName) (Provider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("unknown payment provider: %s", name)
	}
	return p, nil
}
