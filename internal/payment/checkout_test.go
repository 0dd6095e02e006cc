package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-foodcourt/internal/models"
)

func TestMinorUnits(t *testing.T) {
	cases := []struct {
		price    float64
		expected int64
	}{
		{9.995, 1000},
		{9.994, 999},
		{10.00, 1000},
		{0.1, 10},
		{19.99, 1999},
		{0, 0},
		{2.5, 250},
		{129.955, 12996},
	}

	for _, c := range cases {
		assert.Equal(t, c.expected, MinorUnits(c.price), "price %v", c.price)
	}
}

func validCheckoutRequest() *models.CheckoutRequest {
	return &models.CheckoutRequest{
		OrderID: 42,
		Items: []models.CheckoutItem{
			{Name: "Chicken Rice", Quantity: 2, Price: 5.50},
			{Name: "Iced Tea", Quantity: 1, Price: 1.80},
		},
		CustomerInfo: &models.CustomerInfo{Name: "Jamie", Email: "jamie@example.com"},
		TotalAmount:  &models.TotalAmount{Subtotal: 12.80, ShippingFee: 2.50, Total: 15.30},
	}
}

func TestBuildLineItemsAppendsShippingLine(t *testing.T) {
	req := validCheckoutRequest()

	items := BuildLineItems(req, "usd")
	require.Len(t, items, 3)

	assert.Equal(t, "Chicken Rice", *items[0].PriceData.ProductData.Name)
	assert.Equal(t, int64(550), *items[0].PriceData.UnitAmount)
	assert.Equal(t, int64(2), *items[0].Quantity)

	shipping := items[2]
	assert.Equal(t, "Shipping fee", *shipping.PriceData.ProductData.Name)
	assert.Equal(t, int64(250), *shipping.PriceData.UnitAmount)
	assert.Equal(t, int64(1), *shipping.Quantity)
}

func TestBuildLineItemsOmitsZeroShipping(t *testing.T) {
	req := validCheckoutRequest()
	req.TotalAmount.ShippingFee = 0

	items := BuildLineItems(req, "usd")
	require.Len(t, items, 2)
	for _, item := range items {
		assert.NotEqual(t, "Shipping fee", *item.PriceData.ProductData.Name)
	}
}

func TestBuildLineItemsHalfCentRounding(t *testing.T) {
	req := validCheckoutRequest()
	req.Items = []models.CheckoutItem{{Name: "Combo", Quantity: 1, Price: 9.995}}
	req.TotalAmount.ShippingFee = 0

	items := BuildLineItems(req, "usd")
	require.Len(t, items, 1)
	assert.Equal(t, int64(1000), *items[0].PriceData.UnitAmount)
}

func TestValidateCheckoutRequest(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*models.CheckoutRequest)
		wantErr error
	}{
		{"valid", func(r *models.CheckoutRequest) {}, nil},
		{"missing order id", func(r *models.CheckoutRequest) { r.OrderID = 0 }, ErrMissingOrderID},
		{"no items", func(r *models.CheckoutRequest) { r.Items = nil }, ErrNoItems},
		{"nil customer", func(r *models.CheckoutRequest) { r.CustomerInfo = nil }, ErrMissingCustomer},
		{"empty email", func(r *models.CheckoutRequest) { r.CustomerInfo.Email = "" }, ErrMissingCustomer},
		{"nil total", func(r *models.CheckoutRequest) { r.TotalAmount = nil }, ErrInvalidTotal},
		{"zero total", func(r *models.CheckoutRequest) { r.TotalAmount.Total = 0 }, ErrInvalidTotal},
		{"negative total", func(r *models.CheckoutRequest) { r.TotalAmount.Total = -1 }, ErrInvalidTotal},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			req := validCheckoutRequest()
			c.mutate(req)

			err := ValidateCheckoutRequest(req)
			if c.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, c.wantErr)
				assert.True(t, IsValidationError(err))
			}
		})
	}
}
