package services

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"atelier/internal/events"
	"atelier/internal/models"
	"atelier/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const emailQueue = "email_jobs"

// AuthService handles authentication and the account lifecycle: register,
// email verification, soft-delete and restore. Auth changes are broadcast on
// the event bus so other sessions of the same user stay in sync.
type AuthService struct {
	userRepo   repositories.UserRepository
	queue      QueuePublisher
	bus        *events.Bus
	jwtSecret  []byte
	tokenDurat time.Duration
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, queue QueuePublisher, bus *events.Bus, jwtSecret string) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		queue:      queue,
		bus:        bus,
		jwtSecret:  []byte(jwtSecret),
		tokenDurat: 24 * time.Hour,
	}
}

// RegisterUser registers a new user, hashes their password, and queues a
// verification email. The email backend is an external collaborator; we only
// publish the job.
func (s *AuthService) RegisterUser(user *models.User) error {
	if existingUser, err := s.userRepo.GetByUsername(user.Username); err == nil && existingUser != nil {
		return fmt.Errorf("username '%s' already taken", user.Username)
	}
	if existingUser, err := s.userRepo.GetByEmail(user.Email); err == nil && existingUser != nil {
		return fmt.Errorf("email '%s' already registered", user.Email)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.Password = string(hashedPassword)
	user.VerificationToken = uuid.New().String()
	user.EmailVerified = false

	if err := s.userRepo.Create(user); err != nil {
		return fmt.Errorf("failed to register user: %w", err)
	}

	s.queueEmail(user.Email, "verify", user.VerificationToken)
	return nil
}

// VerifyEmail marks the account verified when the token matches.
func (s *AuthService) VerifyEmail(token string) error {
	user, err := s.userRepo.GetByVerificationToken(token)
	if err != nil {
		return fmt.Errorf("invalid verification token")
	}
	user.EmailVerified = true
	user.VerificationToken = ""
	if err := s.userRepo.Update(user); err != nil {
		return fmt.Errorf("failed to mark email verified: %w", err)
	}
	return nil
}

// LoginUser authenticates a user and returns a JWT token if successful.
func (s *AuthService) LoginUser(username, password string) (string, error) {
	user, err := s.userRepo.GetByUsername(username)
	if err != nil {
		// Do not reveal whether the username exists.
		return "", fmt.Errorf("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", fmt.Errorf("invalid credentials")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"exp":      time.Now().Add(s.tokenDurat).Unix(),
		"iat":      time.Now().Unix(),
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	s.bus.Publish(events.Event{Type: events.AuthChanged, UserID: user.ID})
	return tokenString, nil
}

// RefreshToken exchanges a still-valid token for a fresh one with a renewed
// expiry. The start and completion are broadcast so concurrent requests in
// other sessions can hold off instead of racing the rotation.
func (s *AuthService) RefreshToken(tokenString string) (string, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return "", err
	}

	userID, _ := claims["user_id"].(string)
	username, _ := claims["username"].(string)
	s.bus.Publish(events.Event{Type: events.RefreshStarted, UserID: userID})

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  userID,
		"username": username,
		"exp":      time.Now().Add(s.tokenDurat).Unix(),
		"iat":      time.Now().Unix(),
	})
	refreshed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate refreshed token: %w", err)
	}

	s.bus.Publish(events.Event{Type: events.RefreshComplete, UserID: userID})
	return refreshed, nil
}

// Logout broadcasts the logout so every open session drops its state.
func (s *AuthService) Logout(userID string) {
	s.bus.Publish(events.Event{Type: events.LogoutBroadcast, UserID: userID})
}

// DeleteAccount soft-deletes the account. The row survives and can be
// restored; a restore email with instructions is queued.
func (s *AuthService) DeleteAccount(userID string) error {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return fmt.Errorf("failed to load user %s: %w", userID, err)
	}
	if err := s.userRepo.SoftDelete(userID); err != nil {
		return err
	}
	s.queueEmail(user.Email, "account_deleted", "")
	s.bus.Publish(events.Event{Type: events.LogoutBroadcast, UserID: userID})
	return nil
}

// RestoreAccount reactivates a soft-deleted account by email.
func (s *AuthService) RestoreAccount(email string) error {
	if err := s.userRepo.Restore(email); err != nil {
		return err
	}
	s.queueEmail(email, "account_restored", "")
	return nil
}

// ValidateToken parses and validates a JWT token, returning the claims if valid.
func (s *AuthService) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})

	if err != nil {
		log.Printf("Token validation error: %v", err)
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}

func (s *AuthService) queueEmail(to, kind, token string) {
	if s.queue == nil {
		return
	}
	body, err := json.Marshal(map[string]string{"to": to, "kind": kind, "token": token})
	if err != nil {
		log.Printf("failed to marshal %s email job: %v", kind, err)
		return
	}
	if err := s.queue.Publish(emailQueue, body); err != nil {
		log.Printf("warning: failed to queue %s email for %s: %v", kind, to, err)
	}
}
