package handlers

import (
	"atelier/internal/services"

	"github.com/gofiber/fiber/v2"
)

// FavoriteHandler handles HTTP requests for the wishlist.
type FavoriteHandler struct {
	service *services.FavoriteService
}

// NewFavoriteHandler creates a new FavoriteHandler.
func NewFavoriteHandler(service *services.FavoriteService) *FavoriteHandler {
	return &FavoriteHandler{
		service: service,
	}
}

// RegisterRoutes registers the wishlist routes with the Fiber app. These
// routes sit behind the auth middleware: favorites belong to a user account.
func (h *FavoriteHandler) RegisterRoutes(router fiber.Router) {
	favoriteRoutes := router.Group("/favorites")
	favoriteRoutes.Get("/", h.HandleList)
	favoriteRoutes.Post("/", h.HandleAdd)
	favoriteRoutes.Delete("/:productId", h.HandleRemove)
}

// HandleList returns the user's wishlist.
func (h *FavoriteHandler) HandleList(c *fiber.Ctx) error {
	favorites, err := h.service.List(sessionID(c))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve favorites",
			"error":   err.Error(),
		})
	}
	return c.JSON(favorites)
}

// HandleAdd stores a wishlist entry.
func (h *FavoriteHandler) HandleAdd(c *fiber.Ctx) error {
	var body struct {
		ProductID string `json:"product_id"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.service.Add(sessionID(c), body.ProductID); err != nil {
		return respondCheckoutError(c, "Could not add favorite", err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Added to favorites"})
}

// HandleRemove deletes a wishlist entry.
func (h *FavoriteHandler) HandleRemove(c *fiber.Ctx) error {
	if err := h.service.Remove(sessionID(c), c.Params("productId")); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Could not remove favorite",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{"message": "Removed from favorites"})
}
