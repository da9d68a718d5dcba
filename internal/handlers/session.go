package handlers

import (
	"time"

	"atelier/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	sessionCookie      = "checkoutSession"
	pendingOrderCookie = "pendingOrderId"

	// The pending-order cookie must outlive an abandoned provider checkout
	// so it can be resumed days later.
	pendingOrderTTL = 7 * 24 * time.Hour
	sessionTTL      = 30 * 24 * time.Hour
)

// sessionContext resolves the caller's identity: the authenticated user when
// a token was presented, otherwise a durable guest session cookie (minted on
// first use).
func sessionContext(c *fiber.Ctx) models.SessionContext {
	ctx := models.SessionContext{}
	if userID, ok := c.Locals("user_id").(string); ok && userID != "" {
		ctx.UserID = userID
		ctx.SessionID = userID
		ctx.Username, _ = c.Locals("username").(string)
		return ctx
	}

	if existing := c.Cookies(sessionCookie); existing != "" {
		ctx.SessionID = existing
		return ctx
	}
	minted := uuid.New().String()
	c.Cookie(&fiber.Cookie{
		Name:    sessionCookie,
		Value:   minted,
		Path:    "/",
		Expires: time.Now().Add(sessionTTL),
	})
	ctx.SessionID = minted
	return ctx
}

// sessionID is the key the session-scoped repositories are addressed by.
func sessionID(c *fiber.Ctx) string {
	return sessionContext(c).SessionID
}

// cookieTracker is the cookie-backed PendingOrderTracker: the order pointer
// lives in a first-party cookie readable before any script runs, so a
// provider redirect landing on a fresh page load still finds it. Being a
// cookie it is implicitly shared across tabs.
type cookieTracker struct {
	c *fiber.Ctx
}

func newCookieTracker(c *fiber.Ctx) cookieTracker {
	return cookieTracker{c: c}
}

// Get reads the tracked order id. Reading never mutates anything.
func (t cookieTracker) Get() (models.ResumeToken, bool) {
	value := t.c.Cookies(pendingOrderCookie)
	token := models.ResumeToken{OrderID: value}
	return token, token.Valid()
}

// Set writes the pointer with a multi-day expiry on path /.
func (t cookieTracker) Set(token models.ResumeToken) {
	t.c.Cookie(&fiber.Cookie{
		Name:    pendingOrderCookie,
		Value:   token.OrderID,
		Path:    "/",
		Expires: time.Now().Add(pendingOrderTTL),
	})
}

// Clear expires the cookie.
func (t cookieTracker) Clear() {
	t.c.Cookie(&fiber.Cookie{
		Name:    pendingOrderCookie,
		Value:   "",
		Path:    "/",
		Expires: time.Now().Add(-time.Hour),
	})
}
