package services_test

import (
	"fmt"
	"testing"

	"atelier/internal/models"
	"atelier/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockProductRepository is a testify mock of repositories.ProductRepository.
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) GetAll() ([]models.Product, error) {
	args := m.Called()
	return args.Get(0).([]models.Product), args.Error(1)
}

func (m *MockProductRepository) GetByID(id string) (*models.Product, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductRepository) Create(product *models.Product) error {
	args := m.Called(product)
	return args.Error(0)
}

func (m *MockProductRepository) Update(product *models.Product) error {
	args := m.Called(product)
	return args.Error(0)
}

func (m *MockProductRepository) Delete(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

func TestProductService_GetAllProducts(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo)

	expectedProducts := []models.Product{
		{ID: "1", Name: "Linen Wrap Dress", Price: 149.0, Color: "ivory", Stock: 12},
		{ID: "2", Name: "Wool Overcoat", Price: 320.0, Color: "camel", Stock: 6},
	}

	mockRepo.On("GetAll").Return(expectedProducts, nil).Once()

	products, err := service.GetAllProducts()

	assert.NoError(t, err)
	assert.Len(t, products, 2)
	assert.Equal(t, expectedProducts, products)
	mockRepo.AssertExpectations(t)
}

func TestProductService_GetProductByID(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo)

	expectedProduct := &models.Product{ID: "1", Name: "Linen Wrap Dress", Price: 149.0, Stock: 12}

	mockRepo.On("GetByID", "1").Return(expectedProduct, nil).Once()
	product, err := service.GetProductByID("1")
	assert.NoError(t, err)
	assert.Equal(t, expectedProduct, product)
	mockRepo.AssertExpectations(t)

	mockRepo.On("GetByID", "99").Return(nil, fmt.Errorf("product with ID 99 not found")).Once()
	product, err = service.GetProductByID("99")
	assert.Error(t, err)
	assert.Nil(t, product)
	assert.Contains(t, err.Error(), "not found")
	mockRepo.AssertExpectations(t)
}

func TestProductService_CreateProduct(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo)

	newProduct := &models.Product{Name: "Silk Scarf", Price: 59.0, Color: "burgundy", Stock: 40}

	mockRepo.On("Create", newProduct).Return(nil).Once()
	assert.NoError(t, service.CreateProduct(newProduct))
	mockRepo.AssertExpectations(t)

	mockRepo.On("Create", newProduct).Return(fmt.Errorf("database error")).Once()
	err := service.CreateProduct(newProduct)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "database error")
	mockRepo.AssertExpectations(t)
}

func TestProductService_DeleteProduct(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo)

	mockRepo.On("Delete", "1").Return(nil).Once()
	assert.NoError(t, service.DeleteProduct("1"))
	mockRepo.AssertExpectations(t)

	mockRepo.On("Delete", "99").Return(fmt.Errorf("product with ID 99 not found for deletion")).Once()
	err := service.DeleteProduct("99")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found for deletion")
	mockRepo.AssertExpectations(t)
}
