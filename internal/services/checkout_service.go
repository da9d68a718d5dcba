package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"atelier/internal/events"
	"atelier/internal/models"
	"atelier/internal/providers"
	"atelier/internal/repositories"
)

// QueuePublisher publishes messages to a named queue. Satisfied by the
// rabbitmq client; checkout events and email jobs go through it best-effort.
type QueuePublisher interface {
	Publish(queue string, body []byte) error
}

// ReconcileState is the outcome category of resuming a tracked order.
type ReconcileState string

const (
	ReconcileNone       ReconcileState = "none"       // nothing tracked, fresh checkout
	ReconcileCompleted  ReconcileState = "completed"  // order done, cart and tracker cleared
	ReconcileCanceled   ReconcileState = "canceled"   // order canceled, start-new affordance
	ReconcileResume     ReconcileState = "resume"     // payer action pending on the same order
	ReconcileProcessing ReconcileState = "processing" // in-progress, show status view
)

// ReconcileOutcome tells the caller how to render checkout for a tracked order.
type ReconcileOutcome struct {
	State   ReconcileState `json:"state"`
	OrderID string         `json:"order_id,omitempty"`
	Order   *models.Order  `json:"order,omitempty"`
}

// InteractionResult answers whether a cancel is worth recording for an order.
type InteractionResult struct {
	Exists   bool `json:"exists"`
	Created  bool `json:"created"`
	HasEmail bool `json:"has_email"`
}

// CheckoutService drives the order/payment lifecycle: idempotent order
// creation against the pending-order tracker, capture with ordered cleanup,
// best-effort cancellation, and status reconciliation.
type CheckoutService struct {
	orderRepo repositories.OrderRepository
	cartRepo  repositories.CartRepository
	draftRepo repositories.DraftRepository
	registry  *providers.Registry
	consent   *ConsentService
	queue     QueuePublisher
	bus       *events.Bus
	currency  string
}

// NewCheckoutService creates a new CheckoutService.
func NewCheckoutService(
	orderRepo repositories.OrderRepository,
	cartRepo repositories.CartRepository,
	draftRepo repositories.DraftRepository,
	registry *providers.Registry,
	consent *ConsentService,
	queue QueuePublisher,
	bus *events.Bus,
) *CheckoutService {
	return &CheckoutService{
		orderRepo: orderRepo,
		cartRepo:  cartRepo,
		draftRepo: draftRepo,
		registry:  registry,
		consent:   consent,
		queue:     queue,
		bus:       bus,
		currency:  "EUR",
	}
}

// CreateOrder creates a provisional order with the selected provider, or
// reuses the tracked one. The tracker check runs before any network call:
// double-clicks, reloads and provider retries all land on the same order id.
func (s *CheckoutService) CreateOrder(ctx context.Context, sessionID string, tracker PendingOrderTracker, providerName models.ProviderName) (string, error) {
	if err := s.consent.Require(sessionID, models.ConsentTargeting); err != nil {
		return "", err
	}

	// Reuse a tracked non-terminal order. Only a fetched terminal status, a
	// definitively unknown id or an explicit reset permits creating a fresh
	// one; a transient lookup failure keeps the pointer and is retryable.
	if token, ok := tracker.Get(); ok {
		existing, err := s.orderRepo.GetByID(token.OrderID)
		switch {
		case err == nil && !existing.Status.IsTerminal():
			return existing.ID, nil
		case err == nil:
			tracker.Clear()
		case errors.Is(err, repositories.ErrOrderNotFound):
			// Stale pointer, fall through and create fresh.
			tracker.Clear()
		default:
			return "", &models.NetworkError{Op: "order lookup", Err: err}
		}
	}

	cart, err := s.cartRepo.GetItems(sessionID)
	if err != nil {
		return "", fmt.Errorf("failed to load cart: %w", err)
	}
	draft, err := s.draftRepo.Get(sessionID)
	if err != nil {
		return "", fmt.Errorf("failed to load checkout draft: %w", err)
	}

	if missing := collectMissingFields(cart, draft); len(missing) > 0 {
		return "", &models.ValidationError{Fields: missing}
	}

	provider, err := s.registry.Get(providerName)
	if err != nil {
		return "", err
	}

	total := models.CartTotal(cart)
	orderID, err := provider.CreateOrder(ctx, providers.CheckoutRequest{
		Amount:      total,
		Currency:    s.currency,
		Email:       draft.Delivery.Email,
		Description: fmt.Sprintf("atelier order for %s", draft.Delivery.FullName),
	})
	if err != nil {
		// Creation failures are retryable; nothing was tracked yet.
		return "", err
	}

	order := &models.Order{
		ID:           orderID,
		SessionID:    sessionID,
		Provider:     providerName,
		Status:       models.StatusPaymentPending,
		Items:        snapshotCart(orderID, cart),
		TotalAmount:  total,
		Email:        draft.Delivery.Email,
		Measurements: draft.Measurements,
		Delivery:     draft.Delivery,
	}
	if err := s.orderRepo.Create(order); err != nil {
		return "", fmt.Errorf("failed to persist order %s: %w", orderID, err)
	}

	tracker.Set(models.ResumeToken{OrderID: orderID})
	s.publishEvent("order_created", map[string]interface{}{
		"orderID": orderID,
		"total":   total,
	})
	return orderID, nil
}

// Capture finalizes an approved payment. Cleanup is strictly ordered:
// capture, persist status, clear cart, clear tracker. A failure anywhere
// leaves the resume breadcrumb in place for later reconciliation.
func (s *CheckoutService) Capture(ctx context.Context, sessionID string, tracker PendingOrderTracker, orderID string) (models.OrderStatus, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return "", fmt.Errorf("unknown order %s: %w", orderID, err)
	}

	provider, err := s.registry.Get(order.Provider)
	if err != nil {
		return "", err
	}

	result, err := provider.Capture(ctx, orderID)
	if err != nil {
		// Non-terminal on our side; the user may retry or the reconciler
		// will pick the order up later.
		return "", err
	}

	if err := s.orderRepo.UpdateStatus(orderID, result.Status); err != nil {
		return "", err
	}
	s.bus.Publish(events.Event{Type: events.OrderStatusMoved, SessionID: sessionID,
		OrderID: orderID, Status: string(result.Status)})

	if result.Status.IsSuccess() {
		if err := s.cartRepo.Clear(sessionID); err != nil {
			// Keep the tracker: the success is not durably confirmed on our
			// side until the cart is gone.
			return result.Status, fmt.Errorf("payment captured but cart clear failed: %w", err)
		}
		if err := s.draftRepo.Delete(sessionID); err != nil {
			log.Printf("failed to clear draft for session %s: %v", sessionID, err)
		}
		tracker.Clear()
		s.publishEvent("order_completed", map[string]interface{}{"orderID": orderID})
	}
	return result.Status, nil
}

// Cancel records a buyer-side cancellation. The provider call and the note
// are both best-effort; the tracker is never cleared here, because a
// mid-provider cancel is resumable with the same order id. The returned path
// is the order-status view the user is sent to.
func (s *CheckoutService) Cancel(ctx context.Context, orderID string, reason string) string {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		log.Printf("cancel for unknown order %s: %v", orderID, err)
		return "/orders/" + orderID
	}

	if provider, provErr := s.registry.Get(order.Provider); provErr == nil {
		if cancelErr := provider.Cancel(ctx, orderID, reason); cancelErr != nil {
			log.Printf("provider cancel for order %s failed: %v", orderID, cancelErr)
		}
	}

	if noteErr := s.orderRepo.RecordCancellation(orderID, reason); noteErr != nil {
		log.Printf("failed to record cancellation for order %s: %v", orderID, noteErr)
	}
	return "/orders/" + orderID
}

// CheckInteraction reports whether an order exists and carries a buyer email,
// which decides whether a cancel note is worth recording.
func (s *CheckoutService) CheckInteraction(orderID string) InteractionResult {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return InteractionResult{}
	}
	return InteractionResult{
		Exists:   true,
		Created:  order.Status == models.StatusPaymentPending,
		HasEmail: order.Email != "",
	}
}

// GetOrder returns the full order record.
func (s *CheckoutService) GetOrder(orderID string) (*models.Order, error) {
	return s.orderRepo.GetByID(orderID)
}

// ListOrders returns the order history of a session, completed and canceled
// orders included.
func (s *CheckoutService) ListOrders(sessionID string) ([]models.Order, error) {
	return s.orderRepo.GetBySession(sessionID)
}

// Reconcile fetches the authoritative status of the tracked order and
// branches on it. It runs before any payment UI decision so a resumable
// order is never shadowed by a fresh create button. The tracker is cleared
// only on a fetched terminal status, never on a client-assumed cancel.
func (s *CheckoutService) Reconcile(ctx context.Context, sessionID string, tracker PendingOrderTracker) (ReconcileOutcome, error) {
	token, ok := tracker.Get()
	if !ok {
		return ReconcileOutcome{State: ReconcileNone}, nil
	}

	order, err := s.orderRepo.GetByID(token.OrderID)
	if err != nil {
		if errors.Is(err, repositories.ErrOrderNotFound) {
			// Stale pointer; drop it and start fresh.
			tracker.Clear()
			return ReconcileOutcome{State: ReconcileNone}, nil
		}
		// Transient failure: keep the pointer, the next fetch decides.
		return ReconcileOutcome{}, &models.NetworkError{Op: "order lookup", Err: err}
	}

	switch {
	case order.Status == models.StatusCanceled || order.Status == models.StatusVoided:
		tracker.Clear()
		return ReconcileOutcome{State: ReconcileCanceled, OrderID: order.ID, Order: order}, nil
	case order.Status.IsSuccess():
		if err := s.cartRepo.Clear(sessionID); err != nil {
			return ReconcileOutcome{}, fmt.Errorf("failed to clear cart: %w", err)
		}
		if err := s.draftRepo.Delete(sessionID); err != nil {
			log.Printf("failed to clear draft for session %s: %v", sessionID, err)
		}
		tracker.Clear()
		return ReconcileOutcome{State: ReconcileCompleted, OrderID: order.ID, Order: order}, nil
	case order.Status == models.StatusPayerActionRequired:
		return ReconcileOutcome{State: ReconcileResume, OrderID: order.ID, Order: order}, nil
	default:
		return ReconcileOutcome{State: ReconcileProcessing, OrderID: order.ID, Order: order}, nil
	}
}

// ApplyWebhook applies a provider-reported status transition. Last write
// wins on the status column; the tracker side is reconciled on next fetch.
func (s *CheckoutService) ApplyWebhook(orderID string, status models.OrderStatus) error {
	if err := s.orderRepo.UpdateStatus(orderID, status); err != nil {
		return err
	}
	s.bus.Publish(events.Event{Type: events.OrderStatusMoved, OrderID: orderID, Status: string(status)})
	return nil
}

// publishEvent puts a lifecycle event on the checkout_events queue; the kind
// field distinguishes the variants for downstream consumers.
func (s *CheckoutService) publishEvent(kind string, payload map[string]interface{}) {
	if s.queue == nil {
		return
	}
	payload["kind"] = kind
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("failed to marshal %s event: %v", kind, err)
		return
	}
	if err := s.queue.Publish("checkout_events", body); err != nil {
		log.Printf("warning: failed to publish %s event: %v", kind, err)
	}
}

func collectMissingFields(cart []models.CartItem, draft *models.OrderDraft) []string {
	var missing []string
	if len(cart) == 0 {
		missing = append(missing, "cart")
	}
	missing = append(missing, draft.Measurements.MissingFields()...)
	missing = append(missing, draft.Delivery.MissingFields()...)
	return missing
}

func snapshotCart(orderID string, cart []models.CartItem) []models.OrderItem {
	items := make([]models.OrderItem, 0, len(cart))
	for _, line := range cart {
		items = append(items, models.OrderItem{
			OrderID:  orderID,
			ItemID:   line.ItemID,
			Name:     line.Name,
			Price:    line.Price,
			Quantity: line.Quantity,
			Image:    line.Image,
			Color:    line.Color,
		})
	}
	return items
}
