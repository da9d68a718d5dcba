package services_test

import (
	"encoding/json"
	"testing"

	"atelier/internal/events"
	"atelier/internal/models"
	"atelier/internal/repositories"
	"atelier/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockQueuePublisher is a testify mock for the queue publisher.
type MockQueuePublisher struct {
	mock.Mock
}

func (m *MockQueuePublisher) Publish(queue string, body []byte) error {
	args := m.Called(queue, body)
	return args.Error(0)
}

func newAuthService(queue services.QueuePublisher) (*services.AuthService, *repositories.MockUserRepository, *events.Bus) {
	bus := events.NewBus()
	userRepo := repositories.NewMockUserRepository()
	return services.NewAuthService(userRepo, queue, bus, "test_jwt_secret"), userRepo, bus
}

func TestAuthService_RegisterHashesPasswordAndQueuesVerification(t *testing.T) {
	mockQueue := new(MockQueuePublisher)
	mockQueue.On("Publish", "email_jobs", mock.Anything).Return(nil).Once()
	service, userRepo, _ := newAuthService(mockQueue)

	user := &models.User{Username: "ada", Email: "ada@example.com", Password: "secret123"}
	assert.NoError(t, service.RegisterUser(user))

	stored, err := userRepo.GetByUsername("ada")
	assert.NoError(t, err)
	assert.NotEqual(t, "secret123", stored.Password, "the password must be hashed")
	assert.False(t, stored.EmailVerified)
	assert.NotEmpty(t, stored.VerificationToken)

	mockQueue.AssertExpectations(t)
	call := mockQueue.Calls[0]
	var job map[string]string
	assert.NoError(t, json.Unmarshal(call.Arguments.Get(1).([]byte), &job))
	assert.Equal(t, "verify", job["kind"])
	assert.Equal(t, "ada@example.com", job["to"])
}

func TestAuthService_DuplicateRegistrationRejected(t *testing.T) {
	mockQueue := new(MockQueuePublisher)
	mockQueue.On("Publish", mock.Anything, mock.Anything).Return(nil)
	service, _, _ := newAuthService(mockQueue)

	assert.NoError(t, service.RegisterUser(&models.User{
		Username: "ada", Email: "ada@example.com", Password: "secret123",
	}))

	err := service.RegisterUser(&models.User{
		Username: "ada", Email: "other@example.com", Password: "secret123",
	})
	assert.ErrorContains(t, err, "already taken")

	err = service.RegisterUser(&models.User{
		Username: "grace", Email: "ada@example.com", Password: "secret123",
	})
	assert.ErrorContains(t, err, "already registered")
}

func TestAuthService_VerifyEmail(t *testing.T) {
	mockQueue := new(MockQueuePublisher)
	mockQueue.On("Publish", mock.Anything, mock.Anything).Return(nil)
	service, userRepo, _ := newAuthService(mockQueue)

	user := &models.User{Username: "ada", Email: "ada@example.com", Password: "secret123"}
	assert.NoError(t, service.RegisterUser(user))
	stored, _ := userRepo.GetByUsername("ada")

	assert.NoError(t, service.VerifyEmail(stored.VerificationToken))

	verified, _ := userRepo.GetByUsername("ada")
	assert.True(t, verified.EmailVerified)
	assert.Empty(t, verified.VerificationToken)

	assert.Error(t, service.VerifyEmail("bogus"))
}

func TestAuthService_LoginIssuesValidToken(t *testing.T) {
	mockQueue := new(MockQueuePublisher)
	mockQueue.On("Publish", mock.Anything, mock.Anything).Return(nil)
	service, _, bus := newAuthService(mockQueue)
	sub := bus.Subscribe()

	assert.NoError(t, service.RegisterUser(&models.User{
		Username: "ada", Email: "ada@example.com", Password: "secret123",
	}))

	token, err := service.LoginUser("ada", "secret123")
	assert.NoError(t, err)

	claims, err := service.ValidateToken(token)
	assert.NoError(t, err)
	assert.Equal(t, "ada", claims["username"])

	event := <-sub
	assert.Equal(t, events.AuthChanged, event.Type)

	_, err = service.LoginUser("ada", "wrong")
	assert.ErrorContains(t, err, "invalid credentials")
	_, err = service.LoginUser("nobody", "secret123")
	assert.ErrorContains(t, err, "invalid credentials")
}

func TestAuthService_RefreshToken(t *testing.T) {
	mockQueue := new(MockQueuePublisher)
	mockQueue.On("Publish", mock.Anything, mock.Anything).Return(nil)
	service, _, bus := newAuthService(mockQueue)

	assert.NoError(t, service.RegisterUser(&models.User{
		Username: "ada", Email: "ada@example.com", Password: "secret123",
	}))
	token, err := service.LoginUser("ada", "secret123")
	assert.NoError(t, err)

	sub := bus.Subscribe()
	refreshed, err := service.RefreshToken(token)
	assert.NoError(t, err)

	claims, err := service.ValidateToken(refreshed)
	assert.NoError(t, err)
	assert.Equal(t, "ada", claims["username"])

	first := <-sub
	assert.Equal(t, events.RefreshStarted, first.Type)
	second := <-sub
	assert.Equal(t, events.RefreshComplete, second.Type)

	_, err = service.RefreshToken("garbage")
	assert.Error(t, err)
}

func TestAuthService_SoftDeleteAndRestore(t *testing.T) {
	mockQueue := new(MockQueuePublisher)
	mockQueue.On("Publish", mock.Anything, mock.Anything).Return(nil)
	service, userRepo, bus := newAuthService(mockQueue)

	user := &models.User{Username: "ada", Email: "ada@example.com", Password: "secret123"}
	assert.NoError(t, service.RegisterUser(user))
	stored, _ := userRepo.GetByUsername("ada")

	sub := bus.Subscribe()
	assert.NoError(t, service.DeleteAccount(stored.ID))

	event := <-sub
	assert.Equal(t, events.LogoutBroadcast, event.Type)

	// The deleted account is invisible to login.
	_, err := service.LoginUser("ada", "secret123")
	assert.Error(t, err)

	assert.NoError(t, service.RestoreAccount("ada@example.com"))
	_, err = service.LoginUser("ada", "secret123")
	assert.NoError(t, err)

	assert.Error(t, service.RestoreAccount("never@example.com"))
}
