package services_test

import (
	"testing"

	"atelier/internal/models"
	"atelier/internal/repositories"
	"atelier/internal/services"

	"github.com/stretchr/testify/assert"
)

func TestCartService_AddAndUpdate(t *testing.T) {
	service := services.NewCartService(repositories.NewMockCartRepository())

	assert.NoError(t, service.AddItem("sess-1", models.CartItem{
		ItemID: "prod-1", Name: "Linen Wrap Dress", Price: 149.00, Quantity: 1, Color: "ivory",
	}))
	assert.NoError(t, service.UpdateQuantity("sess-1", "prod-1", 3))

	items, err := service.GetItems("sess-1")
	assert.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Quantity)
	assert.Equal(t, 447.00, models.CartTotal(items))

	// Quantity zero removes the line.
	assert.NoError(t, service.UpdateQuantity("sess-1", "prod-1", 0))
	items, _ = service.GetItems("sess-1")
	assert.Empty(t, items)
}

func TestCartService_AddValidation(t *testing.T) {
	service := services.NewCartService(repositories.NewMockCartRepository())

	err := service.AddItem("sess-1", models.CartItem{ItemID: "", Quantity: 0})
	var validationErr *models.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestCartService_MergeSumsMatchingLines(t *testing.T) {
	service := services.NewCartService(repositories.NewMockCartRepository())

	assert.NoError(t, service.AddItem("guest", models.CartItem{
		ItemID: "prod-1", Price: 149.00, Quantity: 2, Color: "ivory",
	}))
	assert.NoError(t, service.AddItem("guest", models.CartItem{
		ItemID: "prod-2", Price: 320.00, Quantity: 1, Color: "camel",
	}))
	assert.NoError(t, service.AddItem("user-1", models.CartItem{
		ItemID: "prod-1", Price: 149.00, Quantity: 1, Color: "ivory",
	}))

	assert.NoError(t, service.Merge("guest", "user-1"))

	userItems, err := service.GetItems("user-1")
	assert.NoError(t, err)
	assert.Len(t, userItems, 2)
	for _, line := range userItems {
		if line.ItemID == "prod-1" {
			assert.Equal(t, 3, line.Quantity, "matching lines sum their quantities")
		}
	}

	guestItems, _ := service.GetItems("guest")
	assert.Empty(t, guestItems, "the guest cart is emptied after the merge")
}

func TestCartService_MergeEmptyGuestCartIsNoOp(t *testing.T) {
	service := services.NewCartService(repositories.NewMockCartRepository())

	assert.NoError(t, service.AddItem("user-1", models.CartItem{
		ItemID: "prod-1", Price: 149.00, Quantity: 1,
	}))
	assert.NoError(t, service.Merge("guest", "user-1"))

	items, _ := service.GetItems("user-1")
	assert.Len(t, items, 1)
}
