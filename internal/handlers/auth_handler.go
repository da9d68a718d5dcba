package handlers

import (
	"fmt"
	"log"
	"strings"

	"atelier/internal/models"
	"atelier/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles HTTP requests for authentication and the account
// lifecycle (register, verify, soft-delete, restore).
type AuthHandler struct {
	authService *services.AuthService
	cartService *services.CartService
	validate    *validator.Validate
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService, cartService *services.CartService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		cartService: cartService,
		validate:    validator.New(),
	}
}

// RegisterRoutes registers the authentication routes with the Fiber app.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	authRoutes := router.Group("/auth")
	authRoutes.Post("/register", h.HandleRegister)
	authRoutes.Post("/login", h.HandleLogin)
	authRoutes.Get("/verify/:token", h.HandleVerify)
	authRoutes.Post("/restore", h.HandleRestore)
}

// RegisterProtectedRoutes registers the routes that need a valid token.
func (h *AuthHandler) RegisterProtectedRoutes(router fiber.Router) {
	authRoutes := router.Group("/auth")
	authRoutes.Post("/logout", h.HandleLogout)
	authRoutes.Post("/refresh", h.HandleRefresh)
	authRoutes.Delete("/account", h.HandleDeleteAccount)
}

// HandleRegister handles new user registration.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var user models.User
	if err := c.BodyParser(&user); err != nil {
		log.Printf("Error parsing register request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.validate.Struct(user); err != nil {
		validationErrors := err.(validator.ValidationErrors)
		errorMessages := make(map[string]string)
		for _, e := range validationErrors {
			errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  errorMessages,
		})
	}

	if err := h.authService.RegisterUser(&user); err != nil {
		log.Printf("Error registering user: %v", err)
		if strings.Contains(err.Error(), "already taken") || strings.Contains(err.Error(), "already registered") {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"message": "Registration failed",
				"error":   err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not register user",
			"error":   err.Error(),
		})
	}

	user.Password = ""
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User registered successfully, verification email queued",
		"user":    user,
	})
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// HandleLogin handles user login, issues a JWT token, and merges the guest
// cart into the user's cart.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.validate.Struct(req); err != nil {
		validationErrors := err.(validator.ValidationErrors)
		errorMessages := make(map[string]string)
		for _, e := range validationErrors {
			errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  errorMessages,
		})
	}

	token, err := h.authService.LoginUser(req.Username, req.Password)
	if err != nil {
		log.Printf("Error during login for user %s: %v", req.Username, err)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Authentication failed",
			"error":   err.Error(),
		})
	}

	// The cart merge only happens after authentication; failure is logged
	// but does not block the login.
	if guestSession := c.Cookies(sessionCookie); guestSession != "" {
		if claims, claimsErr := h.authService.ValidateToken(token); claimsErr == nil {
			if userID, ok := claims["user_id"].(string); ok {
				if mergeErr := h.cartService.Merge(guestSession, userID); mergeErr != nil {
					log.Printf("cart merge failed for user %s: %v", userID, mergeErr)
				}
			}
		}
	}

	return c.JSON(fiber.Map{
		"message": "Login successful",
		"token":   token,
	})
}

// HandleVerify confirms an email-verification token.
func (h *AuthHandler) HandleVerify(c *fiber.Ctx) error {
	if err := h.authService.VerifyEmail(c.Params("token")); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Verification failed",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{"message": "Email verified"})
}

// HandleRefresh rotates the caller's token before it expires.
func (h *AuthHandler) HandleRefresh(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Authorization header format must be 'Bearer <token>'",
		})
	}

	refreshed, err := h.authService.RefreshToken(parts[1])
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Could not refresh token",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{"token": refreshed})
}

// HandleLogout broadcasts the logout to every session of the user.
func (h *AuthHandler) HandleLogout(c *fiber.Ctx) error {
	if userID, ok := c.Locals("user_id").(string); ok {
		h.authService.Logout(userID)
	}
	return c.JSON(fiber.Map{"message": "Logged out"})
}

// HandleDeleteAccount soft-deletes the authenticated account.
func (h *AuthHandler) HandleDeleteAccount(c *fiber.Ctx) error {
	userID, ok := c.Locals("user_id").(string)
	if !ok || userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Authentication required",
		})
	}
	if err := h.authService.DeleteAccount(userID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not delete account",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{"message": "Account deleted; it can be restored by email"})
}

// RestoreRequest identifies the soft-deleted account to bring back.
type RestoreRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// HandleRestore reactivates a soft-deleted account.
func (h *AuthHandler) HandleRestore(c *fiber.Ctx) error {
	var req RestoreRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"error":   err.Error(),
		})
	}
	if err := h.authService.RestoreAccount(req.Email); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Restore failed",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{"message": "Account restored"})
}
