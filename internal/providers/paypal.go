package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"

	"atelier/internal/models"
)

// PayPalClient talks to the PayPal Orders v2 REST API.
type PayPalClient struct {
	baseURL  string
	clientID string
	secret   string
	http     *http.Client
}

// NewPayPalClient creates a PayPal client from the given config.
func NewPayPalClient(cfg Config) *PayPalClient {
	return &PayPalClient{
		baseURL:  cfg.BaseURL,
		clientID: cfg.APIKey,
		secret:   cfg.Secret,
		http:     newHTTPClient(),
	}
}

// Name returns the provider tag.
func (c *PayPalClient) Name() models.ProviderName {
	return models.ProviderPayPal
}

type paypalOrderResponse struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Details []struct {
		Issue string `json:"issue"`
	} `json:"details"`
}

// CreateOrder opens a PayPal order and returns its identifier.
func (c *PayPalClient) CreateOrder(ctx context.Context, req CheckoutRequest) (string, error) {
	body := map[string]interface{}{
		"intent": "CAPTURE",
		"purchase_units": []map[string]interface{}{
			{
				"description": req.Description,
				"amount": map[string]string{
					"currency_code": req.Currency,
					"value":         fmt.Sprintf("%.2f", req.Amount),
				},
			},
		},
	}

	var resp paypalOrderResponse
	if err := c.do(ctx, http.MethodPost, "/v2/checkout/orders", body, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", &models.ProviderError{Provider: c.Name(), Code: "empty_order_id",
			Err: fmt.Errorf("paypal returned no order id")}
	}
	return resp.ID, nil
}

// Capture finalizes an approved PayPal order. A second capture of the same
// order returns ORDER_ALREADY_CAPTURED, which is treated as success so two
// tabs racing on the same order both see a completed payment.
func (c *PayPalClient) Capture(ctx context.Context, orderID string) (CaptureResult, error) {
	var resp paypalOrderResponse
	err := c.do(ctx, http.MethodPost, "/v2/checkout/orders/"+orderID+"/capture", nil, &resp)
	if err != nil {
		if provErr, ok := err.(*models.ProviderError); ok && provErr.Code == "ORDER_ALREADY_CAPTURED" {
			return CaptureResult{Status: models.StatusCompleted, RawStatus: "COMPLETED", AlreadyCaptured: true}, nil
		}
		return CaptureResult{}, err
	}
	return CaptureResult{Status: mapPayPalStatus(resp.Status), RawStatus: resp.Status}, nil
}

// Cancel is a no-op against PayPal: unapproved orders expire server-side.
// The cancellation note lives on our own order record.
func (c *PayPalClient) Cancel(ctx context.Context, orderID string, reason string) error {
	log.Printf("paypal order %s canceled by buyer (%s); order left to expire", orderID, reason)
	return nil
}

func mapPayPalStatus(status string) models.OrderStatus {
	switch status {
	case "CREATED", "SAVED":
		return models.StatusPaymentPending
	case "PAYER_ACTION_REQUIRED":
		return models.StatusPayerActionRequired
	case "APPROVED":
		return models.StatusApproved
	case "COMPLETED":
		return models.StatusCompleted
	case "VOIDED":
		return models.StatusVoided
	default:
		return models.StatusPaymentPending
	}
}

func (c *PayPalClient) do(ctx context.Context, method, path string, body interface{}, out *paypalOrderResponse) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal paypal request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build paypal request: %w", err)
	}
	httpReq.SetBasicAuth(c.clientID, c.secret)
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return &models.NetworkError{Op: "paypal " + path, Err: err}
	}
	defer httpResp.Body.Close()

	payload, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return &models.NetworkError{Op: "paypal " + path, Err: err}
	}

	if httpResp.StatusCode >= 400 {
		var parsed paypalOrderResponse
		if json.Unmarshal(payload, &parsed) == nil && len(parsed.Details) > 0 {
			return &models.ProviderError{Provider: c.Name(), Code: parsed.Details[0].Issue,
				Err: fmt.Errorf("paypal returned HTTP %d", httpResp.StatusCode)}
		}
		return &models.NetworkError{Op: "paypal " + path,
			Err: fmt.Errorf("unexpected HTTP %d: %s", httpResp.StatusCode, payload)}
	}

	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("failed to decode paypal response: %w", err)
	}
	return nil
}
