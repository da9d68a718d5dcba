package services_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"atelier/internal/events"
	"atelier/internal/models"
	"atelier/internal/providers"
	"atelier/internal/repositories"
	"atelier/internal/services"

	"github.com/stretchr/testify/assert"
)

// stubProvider is a controllable Provider implementation that counts calls,
// so tests can assert that validation and tracker reuse gate the network.
type stubProvider struct {
	name          models.ProviderName
	createCalls   int
	captureCalls  int
	cancelCalls   int
	nextOrderID   string
	captureStatus models.OrderStatus
	createErr     error
	captureErr    error
}

func (p *stubProvider) Name() models.ProviderName {
	return p.name
}

func (p *stubProvider) CreateOrder(_ context.Context, _ providers.CheckoutRequest) (string, error) {
	p.createCalls++
	if p.createErr != nil {
		return "", p.createErr
	}
	if p.nextOrderID == "" {
		return fmt.Sprintf("ord-%d", p.createCalls), nil
	}
	return p.nextOrderID, nil
}

func (p *stubProvider) Capture(_ context.Context, _ string) (providers.CaptureResult, error) {
	p.captureCalls++
	if p.captureErr != nil {
		return providers.CaptureResult{}, p.captureErr
	}
	return providers.CaptureResult{Status: p.captureStatus, RawStatus: string(p.captureStatus)}, nil
}

func (p *stubProvider) Cancel(_ context.Context, _ string, _ string) error {
	p.cancelCalls++
	return nil
}

// flakyOrderRepo wraps the in-memory order repository and fails the next
// GetByID with the given error, simulating a transient storage outage.
type flakyOrderRepo struct {
	*repositories.MockOrderRepository
	nextGetErr error
}

func (r *flakyOrderRepo) GetByID(id string) (*models.Order, error) {
	if err := r.nextGetErr; err != nil {
		r.nextGetErr = nil
		return nil, err
	}
	return r.MockOrderRepository.GetByID(id)
}

type checkoutFixture struct {
	service  *services.CheckoutService
	provider *stubProvider
	orders   *flakyOrderRepo
	carts    *repositories.MockCartRepository
	drafts   *repositories.MockDraftRepository
	consent  *services.ConsentService
	tracker  *services.MemoryTracker
}

func newCheckoutFixture(t *testing.T) *checkoutFixture {
	t.Helper()

	bus := events.NewBus()
	orders := &flakyOrderRepo{MockOrderRepository: repositories.NewMockOrderRepository()}
	carts := repositories.NewMockCartRepository()
	drafts := repositories.NewMockDraftRepository()
	consent := services.NewConsentService(repositories.NewMockConsentRepository(), bus)
	provider := &stubProvider{name: models.ProviderPayPal, captureStatus: models.StatusCompleted}

	service := services.NewCheckoutService(orders, carts, drafts,
		providers.NewRegistry(provider), consent, nil, bus)

	return &checkoutFixture{
		service:  service,
		provider: provider,
		orders:   orders,
		carts:    carts,
		drafts:   drafts,
		consent:  consent,
		tracker:  services.NewMemoryTracker(),
	}
}

func (f *checkoutFixture) readySession(t *testing.T, sessionID string) {
	t.Helper()

	assert.NoError(t, f.consent.GrantAll(sessionID))
	assert.NoError(t, f.carts.Upsert(&models.CartItem{
		SessionID: sessionID, ItemID: "prod-1", Name: "Linen Wrap Dress",
		Price: 149.00, Quantity: 1, Color: "ivory",
	}))
	assert.NoError(t, f.drafts.Save(&models.OrderDraft{
		SessionID:    sessionID,
		Measurements: models.Measurements{Height: 180, Chest: 100, Waist: 80, Hips: 95},
		Delivery: models.DeliveryDetails{
			FullName: "A B", Address: "X", City: "Y", PostalCode: "12345",
			Country: "DE", Email: "a@b.com", Phone: "123",
		},
	}))
}

func TestCreateOrder_ReusesTrackedNonTerminalOrder(t *testing.T) {
	f := newCheckoutFixture(t)
	f.readySession(t, "sess-1")

	assert.NoError(t, f.orders.Create(&models.Order{
		ID: "ord-X", SessionID: "sess-1", Provider: models.ProviderPayPal,
		Status: models.StatusPaymentPending,
	}))
	f.tracker.Set(models.ResumeToken{OrderID: "ord-X"})

	orderID, err := f.service.CreateOrder(context.Background(), "sess-1", f.tracker, models.ProviderPayPal)

	assert.NoError(t, err)
	assert.Equal(t, "ord-X", orderID)
	assert.Equal(t, 0, f.provider.createCalls, "a tracked non-terminal order must be reused without a network call")
}

func TestCreateOrder_TransientLookupFailureKeepsTracker(t *testing.T) {
	f := newCheckoutFixture(t)
	f.readySession(t, "sess-1")

	assert.NoError(t, f.orders.Create(&models.Order{
		ID: "ord-X", SessionID: "sess-1", Provider: models.ProviderPayPal,
		Status: models.StatusPaymentPending,
	}))
	f.tracker.Set(models.ResumeToken{OrderID: "ord-X"})
	f.orders.nextGetErr = errors.New("driver: bad connection")

	_, err := f.service.CreateOrder(context.Background(), "sess-1", f.tracker, models.ProviderPayPal)

	var networkErr *models.NetworkError
	assert.ErrorAs(t, err, &networkErr, "a transient lookup failure is retryable, not a stale pointer")
	assert.Equal(t, 0, f.provider.createCalls, "no fresh order may be created while the tracked one is undecided")
	token, tracked := f.tracker.Get()
	assert.True(t, tracked)
	assert.Equal(t, "ord-X", token.OrderID)

	// The outage passes; the retry lands back on the same order.
	orderID, err := f.service.CreateOrder(context.Background(), "sess-1", f.tracker, models.ProviderPayPal)
	assert.NoError(t, err)
	assert.Equal(t, "ord-X", orderID)
	assert.Equal(t, 0, f.provider.createCalls)
}

func TestReconcile_TransientLookupFailureKeepsTracker(t *testing.T) {
	f := newCheckoutFixture(t)
	f.readySession(t, "sess-1")

	orderID, err := f.service.CreateOrder(context.Background(), "sess-1", f.tracker, models.ProviderPayPal)
	assert.NoError(t, err)
	f.orders.nextGetErr = errors.New("driver: bad connection")

	_, err = f.service.Reconcile(context.Background(), "sess-1", f.tracker)

	var networkErr *models.NetworkError
	assert.ErrorAs(t, err, &networkErr)
	token, tracked := f.tracker.Get()
	assert.True(t, tracked, "only a fetched not-found may drop the pointer")
	assert.Equal(t, orderID, token.OrderID)
}

func TestCreateOrder_DoubleSubmitYieldsOneOrder(t *testing.T) {
	f := newCheckoutFixture(t)
	f.readySession(t, "sess-1")

	first, err := f.service.CreateOrder(context.Background(), "sess-1", f.tracker, models.ProviderPayPal)
	assert.NoError(t, err)

	second, err := f.service.CreateOrder(context.Background(), "sess-1", f.tracker, models.ProviderPayPal)
	assert.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, f.provider.createCalls)
}

func TestCreateOrder_ValidationGatesNetwork(t *testing.T) {
	f := newCheckoutFixture(t)
	assert.NoError(t, f.consent.GrantAll("sess-1"))
	assert.NoError(t, f.carts.Upsert(&models.CartItem{
		SessionID: "sess-1", ItemID: "prod-1", Price: 149.00, Quantity: 1,
	}))
	assert.NoError(t, f.drafts.Save(&models.OrderDraft{
		SessionID:    "sess-1",
		Measurements: models.Measurements{Height: 180, Chest: 100, Waist: 80, Hips: 95},
		Delivery: models.DeliveryDetails{
			FullName: "A B", Address: "X", City: "Y", PostalCode: "12345",
			Country: "DE", Phone: "123", // email missing
		},
	}))

	_, err := f.service.CreateOrder(context.Background(), "sess-1", f.tracker, models.ProviderPayPal)

	var validationErr *models.ValidationError
	assert.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Fields, "email")
	assert.Equal(t, 0, f.provider.createCalls, "validation failures must never reach the network")
	_, tracked := f.tracker.Get()
	assert.False(t, tracked)
}

func TestCreateOrder_BlockedConsentGatesProvider(t *testing.T) {
	f := newCheckoutFixture(t)
	// Cart and draft are complete, but targeting consent was never granted.
	assert.NoError(t, f.carts.Upsert(&models.CartItem{
		SessionID: "sess-1", ItemID: "prod-1", Price: 149.00, Quantity: 1,
	}))
	assert.NoError(t, f.drafts.Save(&models.OrderDraft{
		SessionID:    "sess-1",
		Measurements: models.Measurements{Height: 180, Chest: 100, Waist: 80, Hips: 95},
		Delivery: models.DeliveryDetails{
			FullName: "A B", Address: "X", City: "Y", PostalCode: "12345",
			Country: "DE", Email: "a@b.com", Phone: "123",
		},
	}))

	_, err := f.service.CreateOrder(context.Background(), "sess-1", f.tracker, models.ProviderPayPal)

	var consentErr *models.ConsentRequiredError
	assert.ErrorAs(t, err, &consentErr)
	assert.Equal(t, models.ConsentTargeting, consentErr.Category)
	assert.Equal(t, 0, f.provider.createCalls)
}

func TestCreateOrder_NetworkFailureIsRetryable(t *testing.T) {
	f := newCheckoutFixture(t)
	f.readySession(t, "sess-1")
	f.provider.createErr = &models.NetworkError{Op: "paypal /v2/checkout/orders", Err: errors.New("connection refused")}

	_, err := f.service.CreateOrder(context.Background(), "sess-1", f.tracker, models.ProviderPayPal)
	var networkErr *models.NetworkError
	assert.ErrorAs(t, err, &networkErr)
	_, tracked := f.tracker.Get()
	assert.False(t, tracked, "a failed creation must not leave a dangling tracker entry")

	// Retry succeeds and tracks the fresh order.
	f.provider.createErr = nil
	orderID, err := f.service.CreateOrder(context.Background(), "sess-1", f.tracker, models.ProviderPayPal)
	assert.NoError(t, err)
	token, tracked := f.tracker.Get()
	assert.True(t, tracked)
	assert.Equal(t, orderID, token.OrderID)
}

func TestCapture_SuccessClearsCartThenTracker(t *testing.T) {
	f := newCheckoutFixture(t)
	f.readySession(t, "sess-1")

	orderID, err := f.service.CreateOrder(context.Background(), "sess-1", f.tracker, models.ProviderPayPal)
	assert.NoError(t, err)

	status, err := f.service.Capture(context.Background(), "sess-1", f.tracker, orderID)
	assert.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, status)

	items, _ := f.carts.GetItems("sess-1")
	assert.Empty(t, items, "the cart must be cleared on terminal success")
	_, tracked := f.tracker.Get()
	assert.False(t, tracked, "the tracker must be cleared on terminal success")

	stored, err := f.orders.GetByID(orderID)
	assert.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, stored.Status)
}

func TestCapture_NetworkFailureLeavesOrderResumable(t *testing.T) {
	f := newCheckoutFixture(t)
	f.readySession(t, "sess-1")

	orderID, err := f.service.CreateOrder(context.Background(), "sess-1", f.tracker, models.ProviderPayPal)
	assert.NoError(t, err)

	f.provider.captureErr = &models.NetworkError{Op: "paypal capture", Err: errors.New("timeout")}
	_, err = f.service.Capture(context.Background(), "sess-1", f.tracker, orderID)
	assert.Error(t, err)

	token, tracked := f.tracker.Get()
	assert.True(t, tracked)
	assert.Equal(t, orderID, token.OrderID)

	stored, err := f.orders.GetByID(orderID)
	assert.NoError(t, err)
	assert.False(t, stored.Status.IsTerminal(), "a failed capture must leave the order non-terminal")
}

func TestCancel_PreservesTracker(t *testing.T) {
	f := newCheckoutFixture(t)
	f.readySession(t, "sess-1")

	orderID, err := f.service.CreateOrder(context.Background(), "sess-1", f.tracker, models.ProviderPayPal)
	assert.NoError(t, err)

	redirect := f.service.Cancel(context.Background(), orderID, "changed my mind")
	assert.Equal(t, "/orders/"+orderID, redirect)

	token, tracked := f.tracker.Get()
	assert.True(t, tracked, "a mid-provider cancel is resumable; the tracker must survive")
	assert.Equal(t, orderID, token.OrderID)

	stored, err := f.orders.GetByID(orderID)
	assert.NoError(t, err)
	assert.Equal(t, "changed my mind", stored.CancelReason)
}

func TestCheckInteraction(t *testing.T) {
	f := newCheckoutFixture(t)
	f.readySession(t, "sess-1")

	orderID, err := f.service.CreateOrder(context.Background(), "sess-1", f.tracker, models.ProviderPayPal)
	assert.NoError(t, err)

	result := f.service.CheckInteraction(orderID)
	assert.True(t, result.Exists)
	assert.True(t, result.Created)
	assert.True(t, result.HasEmail)

	assert.False(t, f.service.CheckInteraction("nope").Exists)
}

func TestReconcile_TerminalStatuses(t *testing.T) {
	cases := []struct {
		status models.OrderStatus
		state  services.ReconcileState
	}{
		{models.StatusCanceled, services.ReconcileCanceled},
		{models.StatusVoided, services.ReconcileCanceled},
		{models.StatusCompleted, services.ReconcileCompleted},
		{models.StatusApproved, services.ReconcileCompleted},
	}

	for _, tc := range cases {
		t.Run(string(tc.status), func(t *testing.T) {
			f := newCheckoutFixture(t)
			f.readySession(t, "sess-1")

			orderID, err := f.service.CreateOrder(context.Background(), "sess-1", f.tracker, models.ProviderPayPal)
			assert.NoError(t, err)
			assert.NoError(t, f.service.ApplyWebhook(orderID, tc.status))

			outcome, err := f.service.Reconcile(context.Background(), "sess-1", f.tracker)
			assert.NoError(t, err)
			assert.Equal(t, tc.state, outcome.State)
			assert.Equal(t, orderID, outcome.OrderID)

			_, tracked := f.tracker.Get()
			assert.False(t, tracked, "terminal statuses must clear the tracker")

			if tc.state == services.ReconcileCompleted {
				items, _ := f.carts.GetItems("sess-1")
				assert.Empty(t, items)
			}
		})
	}
}

func TestReconcile_PayerActionRequiredResumes(t *testing.T) {
	f := newCheckoutFixture(t)
	f.readySession(t, "sess-1")

	orderID, err := f.service.CreateOrder(context.Background(), "sess-1", f.tracker, models.ProviderPayPal)
	assert.NoError(t, err)
	assert.NoError(t, f.service.ApplyWebhook(orderID, models.StatusPayerActionRequired))

	outcome, err := f.service.Reconcile(context.Background(), "sess-1", f.tracker)
	assert.NoError(t, err)
	assert.Equal(t, services.ReconcileResume, outcome.State)
	assert.Equal(t, orderID, outcome.OrderID)

	token, tracked := f.tracker.Get()
	assert.True(t, tracked, "a resumable order keeps its tracker entry")
	assert.Equal(t, orderID, token.OrderID)
}

func TestReconcile_NothingTracked(t *testing.T) {
	f := newCheckoutFixture(t)

	outcome, err := f.service.Reconcile(context.Background(), "sess-1", f.tracker)
	assert.NoError(t, err)
	assert.Equal(t, services.ReconcileNone, outcome.State)
}

func TestReconcile_StalePointerIsDropped(t *testing.T) {
	f := newCheckoutFixture(t)
	f.tracker.Set(models.ResumeToken{OrderID: "gone"})

	outcome, err := f.service.Reconcile(context.Background(), "sess-1", f.tracker)
	assert.NoError(t, err)
	assert.Equal(t, services.ReconcileNone, outcome.State)
	_, tracked := f.tracker.Get()
	assert.False(t, tracked)
}

func TestCreateOrder_AfterTerminalReconciliationCreatesFresh(t *testing.T) {
	f := newCheckoutFixture(t)
	f.readySession(t, "sess-1")

	first, err := f.service.CreateOrder(context.Background(), "sess-1", f.tracker, models.ProviderPayPal)
	assert.NoError(t, err)
	assert.NoError(t, f.service.ApplyWebhook(first, models.StatusCanceled))

	// The cart was not consumed by the canceled order; a new attempt may
	// create a fresh order now that the tracked one is terminal.
	second, err := f.service.CreateOrder(context.Background(), "sess-1", f.tracker, models.ProviderPayPal)
	assert.NoError(t, err)
	assert.NotEqual(t, first, second)
	assert.Equal(t, 2, f.provider.createCalls)
}
