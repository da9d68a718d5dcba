package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"

	"atelier/internal/models"
)

// StripeClient talks to the Stripe PaymentIntents REST API. Stripe expects
// form-encoded request bodies and amounts in minor units.
type StripeClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewStripeClient creates a Stripe client from the given config.
func NewStripeClient(cfg Config) *StripeClient {
	return &StripeClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		http:    newHTTPClient(),
	}
}

// Name returns the provider tag.
func (c *StripeClient) Name() models.ProviderName {
	return models.ProviderStripe
}

type stripeIntentResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Error  *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// CreateOrder opens a PaymentIntent and returns its identifier.
func (c *StripeClient) CreateOrder(ctx context.Context, req CheckoutRequest) (string, error) {
	form := url.Values{}
	form.Set("amount", fmt.Sprintf("%d", int64(math.Round(req.Amount*100))))
	form.Set("currency", strings.ToLower(req.Currency))
	form.Set("description", req.Description)
	form.Set("receipt_email", req.Email)

	var resp stripeIntentResponse
	if err := c.do(ctx, "/v1/payment_intents", form, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", &models.ProviderError{Provider: c.Name(), Code: "empty_intent_id",
			Err: fmt.Errorf("stripe returned no intent id")}
	}
	return resp.ID, nil
}

// Capture confirms the PaymentIntent. An intent that already succeeded maps
// to a completed capture rather than an error.
func (c *StripeClient) Capture(ctx context.Context, orderID string) (CaptureResult, error) {
	var resp stripeIntentResponse
	err := c.do(ctx, "/v1/payment_intents/"+orderID+"/capture", url.Values{}, &resp)
	if err != nil {
		if provErr, ok := err.(*models.ProviderError); ok && provErr.Code == "payment_intent_unexpected_state" {
			return CaptureResult{Status: models.StatusCompleted, RawStatus: "succeeded", AlreadyCaptured: true}, nil
		}
		return CaptureResult{}, err
	}
	return CaptureResult{Status: mapStripeStatus(resp.Status), RawStatus: resp.Status}, nil
}

// Cancel voids the PaymentIntent with the given reason.
func (c *StripeClient) Cancel(ctx context.Context, orderID string, reason string) error {
	form := url.Values{}
	form.Set("cancellation_reason", reason)

	var resp stripeIntentResponse
	if err := c.do(ctx, "/v1/payment_intents/"+orderID+"/cancel", form, &resp); err != nil {
		return err
	}
	return nil
}

func mapStripeStatus(status string) models.OrderStatus {
	switch status {
	case "requires_payment_method", "requires_confirmation", "requires_capture", "processing":
		return models.StatusPaymentPending
	case "requires_action":
		return models.StatusPayerActionRequired
	case "succeeded":
		return models.StatusCompleted
	case "canceled":
		return models.StatusCanceled
	default:
		return models.StatusPaymentPending
	}
}

func (c *StripeClient) do(ctx context.Context, path string, form url.Values, out *stripeIntentResponse) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path,
		strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build stripe request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return &models.NetworkError{Op: "stripe " + path, Err: err}
	}
	defer httpResp.Body.Close()

	payload, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return &models.NetworkError{Op: "stripe " + path, Err: err}
	}

	if httpResp.StatusCode >= 400 {
		var parsed stripeIntentResponse
		if json.Unmarshal(payload, &parsed) == nil && parsed.Error != nil {
			return &models.ProviderError{Provider: c.Name(), Code: parsed.Error.Code,
				Err: fmt.Errorf("%s", parsed.Error.Message)}
		}
		return &models.NetworkError{Op: "stripe " + path,
			Err: fmt.Errorf("unexpected HTTP %d: %s", httpResp.StatusCode, payload)}
	}

	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("failed to decode stripe response: %w", err)
	}
	return nil
}
