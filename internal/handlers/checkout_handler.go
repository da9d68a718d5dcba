package handlers

import (
	"atelier/internal/models"
	"atelier/internal/services"

	"github.com/gofiber/fiber/v2"
)

// CheckoutHandler handles the sequential draft steps of the checkout flow.
type CheckoutHandler struct {
	drafts *services.DraftService
}

// NewCheckoutHandler creates a new CheckoutHandler.
func NewCheckoutHandler(drafts *services.DraftService) *CheckoutHandler {
	return &CheckoutHandler{
		drafts: drafts,
	}
}

// RegisterRoutes registers the checkout draft routes with the Fiber app.
func (h *CheckoutHandler) RegisterRoutes(router fiber.Router) {
	checkoutRoutes := router.Group("/checkout")
	checkoutRoutes.Get("/", h.HandleGetDraft)
	checkoutRoutes.Post("/measurements", h.HandleSubmitMeasurements)
	checkoutRoutes.Post("/delivery", h.HandleSubmitDelivery)
	checkoutRoutes.Post("/reset", h.HandleReset)
}

// HandleGetDraft returns the draft and the derived step so a reload lands on
// the right form.
func (h *CheckoutHandler) HandleGetDraft(c *fiber.Ctx) error {
	draft, err := h.drafts.Get(sessionID(c))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not load checkout draft",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{"draft": draft, "step": draft.Step()})
}

// HandleSubmitMeasurements stores the measurements step.
func (h *CheckoutHandler) HandleSubmitMeasurements(c *fiber.Ctx) error {
	var m models.Measurements
	if err := c.BodyParser(&m); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	draft, err := h.drafts.SubmitMeasurements(sessionID(c), m)
	if err != nil {
		return respondCheckoutError(c, "Could not save measurements", err)
	}
	return c.JSON(fiber.Map{"draft": draft, "step": draft.Step()})
}

// HandleSubmitDelivery stores the delivery step.
func (h *CheckoutHandler) HandleSubmitDelivery(c *fiber.Ctx) error {
	var d models.DeliveryDetails
	if err := c.BodyParser(&d); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	draft, err := h.drafts.SubmitDelivery(sessionID(c), d)
	if err != nil {
		return respondCheckoutError(c, "Could not save delivery details", err)
	}
	return c.JSON(fiber.Map{"draft": draft, "step": draft.Step()})
}

// HandleReset clears the draft and, as an explicit user action, the pending
// order pointer. This is one of the two places the tracker may be cleared.
func (h *CheckoutHandler) HandleReset(c *fiber.Ctx) error {
	if err := h.drafts.Reset(sessionID(c)); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not reset checkout",
			"error":   err.Error(),
		})
	}
	newCookieTracker(c).Clear()
	return c.JSON(fiber.Map{"message": "Checkout reset", "step": 1})
}
