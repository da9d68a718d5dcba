package handlers

import (
	"strings"
	"time"

	"atelier/internal/models"
	"atelier/internal/services"

	"github.com/gofiber/fiber/v2"
)

// ConsentHandler handles HTTP requests for the cookie-consent gate.
type ConsentHandler struct {
	service *services.ConsentService
}

// NewConsentHandler creates a new ConsentHandler.
func NewConsentHandler(service *services.ConsentService) *ConsentHandler {
	return &ConsentHandler{
		service: service,
	}
}

// RegisterRoutes registers the consent routes with the Fiber app.
func (h *ConsentHandler) RegisterRoutes(router fiber.Router) {
	consentRoutes := router.Group("/consent")
	consentRoutes.Get("/", h.HandleGet)
	consentRoutes.Post("/grant", h.HandleGrant)
	consentRoutes.Post("/revoke", h.HandleRevoke)
	consentRoutes.Post("/scripts", h.HandleLoadScript)
	consentRoutes.Get("/scripts", h.HandleScriptStatus)
}

// HandleGet returns the session's consent record.
func (h *ConsentHandler) HandleGet(c *fiber.Ctx) error {
	record, err := h.service.Get(sessionID(c))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not load consent record",
			"error":   err.Error(),
		})
	}
	return c.JSON(record)
}

// GrantRequest grants either everything or a selected set of categories.
type GrantRequest struct {
	Consent    string                   `json:"consent"` // "all" grants every category
	Categories []models.ConsentCategory `json:"categories"`
}

// HandleGrant enables consent categories for the session.
func (h *ConsentHandler) HandleGrant(c *fiber.Ctx) error {
	var req GrantRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	session := sessionID(c)
	var err error
	if req.Consent == "all" {
		err = h.service.GrantAll(session)
	} else {
		err = h.service.Grant(session, req.Categories...)
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not store consent",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{"message": "Consent stored"})
}

// RevokeRequest names the category to revoke.
type RevokeRequest struct {
	Category models.ConsentCategory `json:"category"`
}

// HandleRevoke disables a category and actively expires the first-party
// cookies written under it, matched by enumerated prefix against the cookies
// the request carried.
func (h *ConsentHandler) HandleRevoke(c *fiber.Ctx) error {
	var req RevokeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	prefixes, err := h.service.Revoke(sessionID(c), req.Category)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Could not revoke consent",
			"error":   err.Error(),
		})
	}

	purged := expireCookiesByPrefix(c, prefixes)
	return c.JSON(fiber.Map{"message": "Consent revoked", "purged_cookies": purged})
}

// LoadScriptRequest names a gated third-party script and its category.
type LoadScriptRequest struct {
	Category models.ConsentCategory `json:"category"`
	URL      string                 `json:"url"`
}

// HandleLoadScript registers a consent-gated script for the session. The
// registration is idempotent: a re-entrant grant event asking for the same
// URL again reports loaded=false instead of injecting it twice. A blocked
// category answers 403 with the category to request.
func (h *ConsentHandler) HandleLoadScript(c *fiber.Ctx) error {
	var req LoadScriptRequest
	if err := c.BodyParser(&req); err != nil || req.URL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
		})
	}

	loaded, err := h.service.EnsureLoaded(sessionID(c), req.Category, req.URL)
	if err != nil {
		return respondCheckoutError(c, "Could not load script", err)
	}
	return c.JSON(fiber.Map{"loaded": loaded})
}

// HandleScriptStatus reports whether a script is currently registered.
func (h *ConsentHandler) HandleScriptStatus(c *fiber.Ctx) error {
	url := c.Query("url")
	if url == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Query parameter 'url' is required",
		})
	}
	return c.JSON(fiber.Map{"active": h.service.Loaded(sessionID(c), url)})
}

func expireCookiesByPrefix(c *fiber.Ctx, prefixes []string) []string {
	var purged []string
	c.Request().Header.VisitAllCookie(func(key, _ []byte) {
		name := string(key)
		for _, prefix := range prefixes {
			if strings.HasPrefix(name, prefix) {
				c.Cookie(&fiber.Cookie{
					Name:    name,
					Value:   "",
					Path:    "/",
					Expires: time.Now().Add(-time.Hour),
				})
				purged = append(purged, name)
				break
			}
		}
	})
	return purged
}
