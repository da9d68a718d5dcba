package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"atelier/internal/models"
)

// MollieClient talks to the Mollie Payments v2 REST API.
type MollieClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewMollieClient creates a Mollie client from the given config.
func NewMollieClient(cfg Config) *MollieClient {
	return &MollieClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		http:    newHTTPClient(),
	}
}

// Name returns the provider tag.
func (c *MollieClient) Name() models.ProviderName {
	return models.ProviderMollie
}

type molliePaymentResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

// CreateOrder opens a Mollie payment and returns its identifier.
func (c *MollieClient) CreateOrder(ctx context.Context, req CheckoutRequest) (string, error) {
	body := map[string]interface{}{
		"amount": map[string]string{
			"currency": req.Currency,
			"value":    fmt.Sprintf("%.2f", req.Amount),
		},
		"description": req.Description,
	}

	var resp molliePaymentResponse
	if err := c.do(ctx, http.MethodPost, "/v2/payments", body, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", &models.ProviderError{Provider: c.Name(), Code: "empty_payment_id",
			Err: fmt.Errorf("mollie returned no payment id")}
	}
	return resp.ID, nil
}

// Capture fetches the payment; Mollie settles payments itself, so a capture
// here is a status read. A payment already paid is simply reported paid.
func (c *MollieClient) Capture(ctx context.Context, orderID string) (CaptureResult, error) {
	var resp molliePaymentResponse
	if err := c.do(ctx, http.MethodGet, "/v2/payments/"+orderID, nil, &resp); err != nil {
		return CaptureResult{}, err
	}
	result := CaptureResult{Status: mapMollieStatus(resp.Status), RawStatus: resp.Status}
	result.AlreadyCaptured = resp.Status == "paid"
	return result, nil
}

// Cancel cancels a cancelable Mollie payment.
func (c *MollieClient) Cancel(ctx context.Context, orderID string, reason string) error {
	var resp molliePaymentResponse
	if err := c.do(ctx, http.MethodDelete, "/v2/payments/"+orderID, nil, &resp); err != nil {
		return err
	}
	return nil
}

func mapMollieStatus(status string) models.OrderStatus {
	switch status {
	case "open":
		return models.StatusPayerActionRequired
	case "pending":
		return models.StatusPaymentPending
	case "authorized":
		return models.StatusApproved
	case "paid":
		return models.StatusCompleted
	case "canceled", "failed":
		return models.StatusCanceled
	case "expired":
		return models.StatusVoided
	default:
		return models.StatusPaymentPending
	}
}

func (c *MollieClient) do(ctx context.Context, method, path string, body interface{}, out *molliePaymentResponse) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal mollie request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build mollie request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return &models.NetworkError{Op: "mollie " + path, Err: err}
	}
	defer httpResp.Body.Close()

	payload, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return &models.NetworkError{Op: "mollie " + path, Err: err}
	}

	if httpResp.StatusCode >= 400 {
		var parsed molliePaymentResponse
		if json.Unmarshal(payload, &parsed) == nil && parsed.Title != "" {
			return &models.ProviderError{Provider: c.Name(), Code: parsed.Title,
				Err: fmt.Errorf("%s", parsed.Detail)}
		}
		return &models.NetworkError{Op: "mollie " + path,
			Err: fmt.Errorf("unexpected HTTP %d: %s", httpResp.StatusCode, payload)}
	}

	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("failed to decode mollie response: %w", err)
	}
	return nil
}
