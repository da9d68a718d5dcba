package handlers

import (
	"atelier/internal/models"
	"atelier/internal/services"

	"github.com/gofiber/fiber/v2"
)

// CartHandler handles HTTP requests for the shopping cart.
type CartHandler struct {
	service *services.CartService
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(service *services.CartService) *CartHandler {
	return &CartHandler{
		service: service,
	}
}

// RegisterRoutes registers the cart routes with the Fiber app.
func (h *CartHandler) RegisterRoutes(router fiber.Router) {
	cartRoutes := router.Group("/cart")
	cartRoutes.Get("/", h.HandleGetCart)
	cartRoutes.Post("/", h.HandleAddItem)
	cartRoutes.Post("/merge", h.HandleMerge)
	cartRoutes.Patch("/:itemId", h.HandleUpdateQuantity)
	cartRoutes.Delete("/:itemId", h.HandleRemoveItem)
	cartRoutes.Delete("/", h.HandleClear)
}

// HandleMerge folds the guest cart cookie's lines into the authenticated
// user's cart. Login does this automatically; this endpoint covers sessions
// that were already authenticated when the guest cart was filled elsewhere.
func (h *CartHandler) HandleMerge(c *fiber.Ctx) error {
	session := sessionContext(c)
	if !session.Authenticated() {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Authentication required to merge carts",
		})
	}
	guestSession := c.Cookies(sessionCookie)
	if guestSession == "" || guestSession == session.UserID {
		return c.JSON(fiber.Map{"message": "Nothing to merge"})
	}
	if err := h.service.Merge(guestSession, session.UserID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not merge carts",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{"message": "Carts merged"})
}

// HandleGetCart returns the cart lines and total.
func (h *CartHandler) HandleGetCart(c *fiber.Ctx) error {
	items, err := h.service.GetItems(sessionID(c))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve cart",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{"items": items, "total": models.CartTotal(items)})
}

// HandleAddItem adds a line to the cart.
func (h *CartHandler) HandleAddItem(c *fiber.Ctx) error {
	var item models.CartItem
	if err := c.BodyParser(&item); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.service.AddItem(sessionID(c), item); err != nil {
		return respondCheckoutError(c, "Could not add cart item", err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Item added to cart"})
}

// HandleUpdateQuantity changes the quantity of a line; zero removes it.
func (h *CartHandler) HandleUpdateQuantity(c *fiber.Ctx) error {
	var body struct {
		Quantity int `json:"quantity"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.service.UpdateQuantity(sessionID(c), c.Params("itemId"), body.Quantity); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Could not update cart item",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{"message": "Cart updated"})
}

// HandleRemoveItem deletes a line from the cart.
func (h *CartHandler) HandleRemoveItem(c *fiber.Ctx) error {
	if err := h.service.RemoveItem(sessionID(c), c.Params("itemId")); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Could not remove cart item",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{"message": "Item removed from cart"})
}

// HandleClear empties the cart.
func (h *CartHandler) HandleClear(c *fiber.Ctx) error {
	if err := h.service.Clear(sessionID(c)); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not clear cart",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{"message": "Cart cleared"})
}
