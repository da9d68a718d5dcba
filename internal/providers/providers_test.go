package providers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"atelier/internal/models"
	"atelier/internal/providers"

	"github.com/stretchr/testify/assert"
)

func TestPayPal_CreateAndCapture(t *testing.T) {
	var createCalls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v2/checkout/orders":
			createCalls++
			user, pass, ok := r.BasicAuth()
			assert.True(t, ok)
			assert.Equal(t, "client-id", user)
			assert.Equal(t, "client-secret", pass)

			var body map[string]interface{}
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "CAPTURE", body["intent"])

			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"id":"5O190127TN364715T","status":"CREATED"}`))
		case "/v2/checkout/orders/5O190127TN364715T/capture":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"id":"5O190127TN364715T","status":"COMPLETED"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := providers.NewPayPalClient(providers.Config{
		BaseURL: server.URL, APIKey: "client-id", Secret: "client-secret",
	})

	orderID, err := client.CreateOrder(context.Background(), providers.CheckoutRequest{
		Amount: 149.00, Currency: "EUR", Email: "a@b.com", Description: "atelier order",
	})
	assert.NoError(t, err)
	assert.Equal(t, "5O190127TN364715T", orderID)
	assert.Equal(t, 1, createCalls)

	result, err := client.Capture(context.Background(), orderID)
	assert.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, result.Status)
}

func TestPayPal_AlreadyCapturedIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"details":[{"issue":"ORDER_ALREADY_CAPTURED"}]}`))
	}))
	defer server.Close()

	client := providers.NewPayPalClient(providers.Config{BaseURL: server.URL})

	// Two tabs racing on the same order both see a completed payment.
	result, err := client.Capture(context.Background(), "ord-1")
	assert.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, result.Status)
	assert.True(t, result.AlreadyCaptured)
}

func TestPayPal_NetworkFailure(t *testing.T) {
	client := providers.NewPayPalClient(providers.Config{BaseURL: "http://127.0.0.1:1"})

	_, err := client.CreateOrder(context.Background(), providers.CheckoutRequest{
		Amount: 10, Currency: "EUR",
	})
	var networkErr *models.NetworkError
	assert.ErrorAs(t, err, &networkErr)
}

func TestStripe_CreateSendsMinorUnitsForm(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payment_intents", r.URL.Path)
		assert.Equal(t, "Bearer sk_test_123", r.Header.Get("Authorization"))
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))

		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "14900", r.PostForm.Get("amount"))
		assert.Equal(t, "eur", r.PostForm.Get("currency"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"pi_123","status":"requires_action"}`))
	}))
	defer server.Close()

	client := providers.NewStripeClient(providers.Config{BaseURL: server.URL, APIKey: "sk_test_123"})

	orderID, err := client.CreateOrder(context.Background(), providers.CheckoutRequest{
		Amount: 149.00, Currency: "EUR", Email: "a@b.com",
	})
	assert.NoError(t, err)
	assert.Equal(t, "pi_123", orderID)
}

func TestStripe_StatusMapping(t *testing.T) {
	cases := map[string]models.OrderStatus{
		"requires_action": models.StatusPayerActionRequired,
		"processing":      models.StatusPaymentPending,
		"succeeded":       models.StatusCompleted,
		"canceled":        models.StatusCanceled,
	}

	for raw, want := range cases {
		t.Run(raw, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`{"id":"pi_123","status":"` + raw + `"}`))
			}))
			defer server.Close()

			client := providers.NewStripeClient(providers.Config{BaseURL: server.URL})
			result, err := client.Capture(context.Background(), "pi_123")
			assert.NoError(t, err)
			assert.Equal(t, want, result.Status)
		})
	}
}

func TestStripe_ProviderErrorSurfacesCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"error":{"code":"card_declined","message":"Your card was declined."}}`))
	}))
	defer server.Close()

	client := providers.NewStripeClient(providers.Config{BaseURL: server.URL})
	_, err := client.CreateOrder(context.Background(), providers.CheckoutRequest{Amount: 10, Currency: "EUR"})

	var providerErr *models.ProviderError
	assert.ErrorAs(t, err, &providerErr)
	assert.Equal(t, "card_declined", providerErr.Code)
	assert.Equal(t, models.ProviderStripe, providerErr.Provider)
}

func TestMollie_StatusMapping(t *testing.T) {
	cases := map[string]models.OrderStatus{
		"open":       models.StatusPayerActionRequired,
		"pending":    models.StatusPaymentPending,
		"authorized": models.StatusApproved,
		"paid":       models.StatusCompleted,
		"canceled":   models.StatusCanceled,
		"expired":    models.StatusVoided,
	}

	for raw, want := range cases {
		t.Run(raw, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "Bearer live_key", r.Header.Get("Authorization"))
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`{"id":"tr_abc","status":"` + raw + `"}`))
			}))
			defer server.Close()

			client := providers.NewMollieClient(providers.Config{BaseURL: server.URL, APIKey: "live_key"})
			result, err := client.Capture(context.Background(), "tr_abc")
			assert.NoError(t, err)
			assert.Equal(t, want, result.Status)
			assert.Equal(t, raw == "paid", result.AlreadyCaptured)
		})
	}
}

func TestMollie_Create(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/payments", r.URL.Path)

		var body map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		amount := body["amount"].(map[string]interface{})
		assert.Equal(t, "149.00", amount["value"])
		assert.Equal(t, "EUR", amount["currency"])

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"tr_abc","status":"open"}`))
	}))
	defer server.Close()

	client := providers.NewMollieClient(providers.Config{BaseURL: server.URL})
	orderID, err := client.CreateOrder(context.Background(), providers.CheckoutRequest{
		Amount: 149.00, Currency: "EUR",
	})
	assert.NoError(t, err)
	assert.Equal(t, "tr_abc", orderID)
}

func TestRegistry_UnknownProvider(t *testing.T) {
	registry := providers.NewRegistry(providers.NewMollieClient(providers.Config{}))

	_, err := registry.Get(models.ProviderMollie)
	assert.NoError(t, err)

	_, err = registry.Get("klarna")
	assert.ErrorContains(t, err, "unknown payment provider")
}
