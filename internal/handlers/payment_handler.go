package handlers

import (
	"errors"
	"log"

	"atelier/internal/models"
	"atelier/internal/services"

	"github.com/gofiber/fiber/v2"
)

// PaymentHandler handles HTTP requests for the order/payment lifecycle.
type PaymentHandler struct {
	service *services.CheckoutService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(service *services.CheckoutService) *PaymentHandler {
	return &PaymentHandler{
		service: service,
	}
}

// RegisterRoutes registers the payment routes with the Fiber app.
func (h *PaymentHandler) RegisterRoutes(router fiber.Router) {
	paymentRoutes := router.Group("/payments")
	paymentRoutes.Post("/", h.HandleCreateOrder)
	paymentRoutes.Get("/", h.HandleListOrders)
	paymentRoutes.Get("/resume", h.HandleResume)
	paymentRoutes.Get("/:id", h.HandleGetOrder)
	paymentRoutes.Post("/:id/capture", h.HandleCapture)
	paymentRoutes.Post("/:id/check-interaction", h.HandleCheckInteraction)
	paymentRoutes.Post("/:id/update-canceled", h.HandleUpdateCanceled)
}

// CreateOrderRequest selects the provider for this checkout. Cart and draft
// are server-side state keyed by the session.
type CreateOrderRequest struct {
	Provider models.ProviderName `json:"provider"`
}

// HandleCreateOrder creates a provisional order, or returns the tracked one.
func (h *PaymentHandler) HandleCreateOrder(c *fiber.Ctx) error {
	var req CreateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if req.Provider == "" {
		req.Provider = models.ProviderPayPal
	}

	tracker := newCookieTracker(c)
	orderID, err := h.service.CreateOrder(c.Context(), sessionID(c), tracker, req.Provider)
	if err != nil {
		return respondCheckoutError(c, "Could not create order", err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": orderID})
}

// HandleCapture finalizes an approved payment.
func (h *PaymentHandler) HandleCapture(c *fiber.Ctx) error {
	orderID := c.Params("id")
	tracker := newCookieTracker(c)
	status, err := h.service.Capture(c.Context(), sessionID(c), tracker, orderID)
	if err != nil {
		return respondCheckoutError(c, "Payment failed", err)
	}
	return c.JSON(fiber.Map{"status": status})
}

// HandleCheckInteraction reports whether a cancel is worth recording.
func (h *PaymentHandler) HandleCheckInteraction(c *fiber.Ctx) error {
	return c.JSON(h.service.CheckInteraction(c.Params("id")))
}

// HandleListOrders returns the order history of the session.
func (h *PaymentHandler) HandleListOrders(c *fiber.Ctx) error {
	orders, err := h.service.ListOrders(sessionID(c))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve orders",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{"orders": orders})
}

// HandleGetOrder returns the full order record.
func (h *PaymentHandler) HandleGetOrder(c *fiber.Ctx) error {
	orderID := c.Params("id")
	order, err := h.service.GetOrder(orderID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Order not found",
			"error":   err.Error(),
		})
	}
	return c.JSON(order)
}

// HandleUpdateCanceled records a best-effort cancellation note. The user is
// always redirected to the order-status view; a failed note never blocks.
func (h *PaymentHandler) HandleUpdateCanceled(c *fiber.Ctx) error {
	var body struct {
		Reason string `json:"reason"`
	}
	if err := c.BodyParser(&body); err != nil {
		log.Printf("unreadable cancel body for order %s: %v", c.Params("id"), err)
	}
	redirect := h.service.Cancel(c.Context(), c.Params("id"), body.Reason)
	return c.JSON(fiber.Map{"redirect": redirect})
}

// HandleResume reconciles a tracked order before any payment UI renders.
func (h *PaymentHandler) HandleResume(c *fiber.Ctx) error {
	tracker := newCookieTracker(c)
	outcome, err := h.service.Reconcile(c.Context(), sessionID(c), tracker)
	if err != nil {
		return respondCheckoutError(c, "Could not reconcile order status", err)
	}
	return c.JSON(outcome)
}

// respondCheckoutError maps the error taxonomy onto HTTP responses:
// validation never reached the network (400), consent is a gated
// precondition with a grant path (403), network failures are retryable
// (502), provider failures are surfaced distinctly (402).
func respondCheckoutError(c *fiber.Ctx, message string, err error) error {
	var validationErr *models.ValidationError
	if errors.As(err, &validationErr) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": message,
			"error":   validationErr.Error(),
			"fields":  validationErr.Fields,
		})
	}

	var consentErr *models.ConsentRequiredError
	if errors.As(err, &consentErr) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message":  "Consent required",
			"category": consentErr.Category,
		})
	}

	var networkErr *models.NetworkError
	if errors.As(err, &networkErr) {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"message":   message,
			"error":     networkErr.Error(),
			"retryable": true,
		})
	}

	var providerErr *models.ProviderError
	if errors.As(err, &providerErr) {
		return c.Status(fiber.StatusPaymentRequired).JSON(fiber.Map{
			"message":  message,
			"error":    providerErr.Error(),
			"provider": providerErr.Provider,
		})
	}

	log.Printf("checkout error: %v", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": message,
		"error":   err.Error(),
	})
}
