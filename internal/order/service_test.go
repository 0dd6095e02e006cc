package order

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ms-foodcourt/internal/kafka"
	"ms-foodcourt/internal/logger"
	"ms-foodcourt/internal/models"
)

type MockDB struct {
	mock.Mock
}

func (m *MockDB) CreateOrderWithItems(order *models.Order, items []models.OrderItem) error {
	args := m.Called(order, items)
	if args.Error(0) == nil {
		order.ID = 101
	}
	return args.Error(0)
}

func (m *MockDB) GetOrderByID(id int64) (*models.Order, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockDB) GetOrderWithItems(id int64) (*models.OrderWithItems, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.OrderWithItems), args.Error(1)
}

func (m *MockDB) GetOrdersByUser(userID int64) ([]models.Order, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *MockDB) UpdateOrder(order models.Order) error {
	args := m.Called(order)
	return args.Error(0)
}

func (m *MockDB) GetProductsByIDs(ids []int64) ([]models.Product, error) {
	args := m.Called(ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Product), args.Error(1)
}

func (m *MockDB) GetCouponByCode(code string) (*models.Coupon, error) {
	args := m.Called(code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Coupon), args.Error(1)
}

func (m *MockDB) IncrementCouponUsage(couponID int64) error {
	args := m.Called(couponID)
	return args.Error(0)
}

type MockEvents struct {
	mock.Mock
}

func (m *MockEvents) PublishOrderEvent(topic string, event models.OrderEvent) error {
	args := m.Called(topic, event)
	return args.Error(0)
}

func newTestOrderService(db *MockDB, events EventPublisher) *OrderService {
	return NewOrderService(db, events, Config{
		ShippingFee:     2.50,
		FreeShippingMin: 50,
		PickupSecret:    "test-secret",
	}, logger.NewLogger("order-test"))
}

func catalogProducts() []models.Product {
	return []models.Product{
		{ID: 1, Name: "Chicken Rice", Price: 5.50, Stock: 10, Available: true},
		{ID: 2, Name: "Iced Tea", Price: 1.80, Stock: 20, Available: true},
	}
}

func placeRequest() models.PlaceOrderRequest {
	return models.PlaceOrderRequest{
		AddressID: 4,
		Items: []models.PlaceOrderItem{
			{ProductID: 1, Quantity: 2},
			{ProductID: 2, Quantity: 1},
		},
	}
}

func TestPlaceOrderComputesTotals(t *testing.T) {
	db := new(MockDB)
	events := new(MockEvents)
	db.On("GetProductsByIDs", []int64{1, 2}).Return(catalogProducts(), nil)
	db.On("CreateOrderWithItems", mock.Anything, mock.Anything).Return(nil)
	events.On("PublishOrderEvent", kafka.TopicOrderCreated, mock.Anything).Return(nil)

	svc := newTestOrderService(db, events)
	result, err := svc.PlaceOrder(7, placeRequest())
	require.NoError(t, err)

	assert.InDelta(t, 12.80, result.Order.Subtotal, 0.001)
	assert.InDelta(t, 2.50, result.Order.ShippingFee, 0.001)
	assert.InDelta(t, 15.30, result.Order.Total, 0.001)
	assert.Equal(t, models.OrderStatusCreated, result.Order.Status)
	assert.Equal(t, models.PaymentStatusPending, result.Order.PaymentStatus)
	assert.Equal(t, int64(7), result.Order.UserID)
	require.Len(t, result.Items, 2)
	assert.Equal(t, "Chicken Rice", result.Items[0].Name)
	assert.InDelta(t, 5.50, result.Items[0].Price, 0.001)
	db.AssertExpectations(t)
	events.AssertExpectations(t)
}

func TestPlaceOrderFreeShippingAboveThreshold(t *testing.T) {
	db := new(MockDB)
	products := catalogProducts()
	products[0].Price = 30
	db.On("GetProductsByIDs", mock.Anything).Return(products, nil)
	db.On("CreateOrderWithItems", mock.Anything, mock.Anything).Return(nil)

	svc := newTestOrderService(db, nil)
	result, err := svc.PlaceOrder(7, placeRequest())
	require.NoError(t, err)

	assert.InDelta(t, 61.80, result.Order.Subtotal, 0.001)
	assert.Zero(t, result.Order.ShippingFee)
}

func TestPlaceOrderAppliesCoupon(t *testing.T) {
	db := new(MockDB)
	db.On("GetProductsByIDs", mock.Anything).Return(catalogProducts(), nil)
	db.On("GetCouponByCode", "SAVE10").Return(&models.Coupon{
		ID:         9,
		Code:       "SAVE10",
		Type:       models.CouponPercentage,
		Percentage: 10,
		Active:     true,
		ActiveFrom: time.Now().Add(-time.Hour),
		ExpiresAt:  time.Now().Add(time.Hour),
	}, nil)
	db.On("CreateOrderWithItems", mock.Anything, mock.Anything).Return(nil)
	db.On("IncrementCouponUsage", int64(9)).Return(nil)

	req := placeRequest()
	req.CouponCode = "SAVE10"

	svc := newTestOrderService(db, nil)
	result, err := svc.PlaceOrder(7, req)
	require.NoError(t, err)

	assert.InDelta(t, 1.28, result.Order.Discount, 0.001)
	assert.InDelta(t, 14.02, result.Order.Total, 0.001)
	db.AssertExpectations(t)
}

func TestPlaceOrderRejectsExpiredCoupon(t *testing.T) {
	db := new(MockDB)
	db.On("GetProductsByIDs", mock.Anything).Return(catalogProducts(), nil)
	db.On("GetCouponByCode", "OLD").Return(&models.Coupon{
		Code:       "OLD",
		Type:       models.CouponPercentage,
		Percentage: 10,
		Active:     true,
		ActiveFrom: time.Now().Add(-48 * time.Hour),
		ExpiresAt:  time.Now().Add(-24 * time.Hour),
	}, nil)

	req := placeRequest()
	req.CouponCode = "OLD"

	svc := newTestOrderService(db, nil)
	_, err := svc.PlaceOrder(7, req)
	assert.ErrorIs(t, err, ErrInvalidCoupon)
	db.AssertNotCalled(t, "CreateOrderWithItems", mock.Anything, mock.Anything)
}

func TestPlaceOrderValidation(t *testing.T) {
	svc := newTestOrderService(new(MockDB), nil)

	_, err := svc.PlaceOrder(7, models.PlaceOrderRequest{AddressID: 4})
	assert.ErrorIs(t, err, ErrEmptyOrder)

	req := placeRequest()
	req.AddressID = 0
	_, err = svc.PlaceOrder(7, req)
	assert.ErrorIs(t, err, ErrInvalidAddress)

	req = placeRequest()
	req.Items[0].Quantity = 0
	_, err = svc.PlaceOrder(7, req)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestPlaceOrderRejectsUnavailableProduct(t *testing.T) {
	db := new(MockDB)
	products := catalogProducts()
	products[0].Available = false
	db.On("GetProductsByIDs", mock.Anything).Return(products, nil)

	svc := newTestOrderService(db, nil)
	_, err := svc.PlaceOrder(7, placeRequest())
	assert.ErrorIs(t, err, ErrProductUnavailable)
}

func TestPlaceOrderRejectsInsufficientStock(t *testing.T) {
	db := new(MockDB)
	products := catalogProducts()
	products[0].Stock = 1
	db.On("GetProductsByIDs", mock.Anything).Return(products, nil)

	svc := newTestOrderService(db, nil)
	_, err := svc.PlaceOrder(7, placeRequest())
	assert.ErrorIs(t, err, ErrProductUnavailable)
}

func TestPlaceOrderSurvivesPublishFailure(t *testing.T) {
	db := new(MockDB)
	events := new(MockEvents)
	db.On("GetProductsByIDs", mock.Anything).Return(catalogProducts(), nil)
	db.On("CreateOrderWithItems", mock.Anything, mock.Anything).Return(nil)
	events.On("PublishOrderEvent", mock.Anything, mock.Anything).Return(assert.AnError)

	svc := newTestOrderService(db, events)
	_, err := svc.PlaceOrder(7, placeRequest())
	assert.NoError(t, err)
}

func TestMarkPaidUpdatesOrder(t *testing.T) {
	db := new(MockDB)
	events := new(MockEvents)
	db.On("GetOrderByID", int64(101)).Return(&models.Order{
		ID:            101,
		OrderNumber:   "ord_1",
		UserID:        7,
		Status:        models.OrderStatusCreated,
		PaymentStatus: models.PaymentStatusPending,
	}, nil)
	db.On("UpdateOrder", mock.MatchedBy(func(o models.Order) bool {
		return o.PaymentStatus == models.PaymentStatusPaid &&
			o.PaymentID == "pi_1" &&
			o.Status == models.OrderStatusPreparing
	})).Return(nil)
	events.On("PublishOrderEvent", kafka.TopicOrderPaid, mock.Anything).Return(nil)

	svc := newTestOrderService(db, events)
	require.NoError(t, svc.MarkPaid(101, "pi_1"))
	db.AssertExpectations(t)
	events.AssertExpectations(t)
}

func TestMarkPaidIsIdempotent(t *testing.T) {
	db := new(MockDB)
	db.On("GetOrderByID", int64(101)).Return(&models.Order{
		ID:            101,
		PaymentStatus: models.PaymentStatusPaid,
		PaymentID:     "pi_1",
	}, nil)

	svc := newTestOrderService(db, nil)
	require.NoError(t, svc.MarkPaid(101, "pi_2"))
	db.AssertNotCalled(t, "UpdateOrder", mock.Anything)
}

func TestMarkPaymentFailedNeverDowngradesPaidOrder(t *testing.T) {
	db := new(MockDB)
	db.On("GetOrderByID", int64(101)).Return(&models.Order{
		ID:            101,
		PaymentStatus: models.PaymentStatusPaid,
	}, nil)

	svc := newTestOrderService(db, nil)
	require.NoError(t, svc.MarkPaymentFailed(101))
	db.AssertNotCalled(t, "UpdateOrder", mock.Anything)
}

func TestMarkPaymentFailedUpdatesPendingOrder(t *testing.T) {
	db := new(MockDB)
	db.On("GetOrderByID", int64(101)).Return(&models.Order{
		ID:            101,
		PaymentStatus: models.PaymentStatusPending,
	}, nil)
	db.On("UpdateOrder", mock.MatchedBy(func(o models.Order) bool {
		return o.PaymentStatus == models.PaymentStatusFailed
	})).Return(nil)

	svc := newTestOrderService(db, nil)
	require.NoError(t, svc.MarkPaymentFailed(101))
	db.AssertExpectations(t)
}

func TestCancelOrder(t *testing.T) {
	db := new(MockDB)
	events := new(MockEvents)
	db.On("GetOrderByID", int64(101)).Return(&models.Order{
		ID:            101,
		UserID:        7,
		Status:        models.OrderStatusCreated,
		PaymentStatus: models.PaymentStatusPending,
	}, nil)
	db.On("UpdateOrder", mock.MatchedBy(func(o models.Order) bool {
		return o.Status == models.OrderStatusCancelled
	})).Return(nil)
	events.On("PublishOrderEvent", kafka.TopicOrderCancelled, mock.Anything).Return(nil)

	svc := newTestOrderService(db, events)
	require.NoError(t, svc.CancelOrder(101, 7))
	db.AssertExpectations(t)
}

func TestCancelOrderRejectsPaidOrder(t *testing.T) {
	db := new(MockDB)
	db.On("GetOrderByID", int64(101)).Return(&models.Order{
		ID:            101,
		UserID:        7,
		Status:        models.OrderStatusPreparing,
		PaymentStatus: models.PaymentStatusPaid,
	}, nil)

	svc := newTestOrderService(db, nil)
	assert.ErrorIs(t, svc.CancelOrder(101, 7), ErrNotCancellable)
}

func TestCancelOrderRejectsForeignOrder(t *testing.T) {
	db := new(MockDB)
	db.On("GetOrderByID", int64(101)).Return(&models.Order{ID: 101, UserID: 8}, nil)

	svc := newTestOrderService(db, nil)
	assert.ErrorIs(t, svc.CancelOrder(101, 7), ErrNotOwner)
}

func TestAdvanceStatusTransitions(t *testing.T) {
	db := new(MockDB)
	db.On("GetOrderByID", int64(101)).Return(&models.Order{
		ID:     101,
		Status: models.OrderStatusPreparing,
	}, nil)
	db.On("UpdateOrder", mock.MatchedBy(func(o models.Order) bool {
		return o.Status == models.OrderStatusDelivering
	})).Return(nil)

	svc := newTestOrderService(db, nil)
	require.NoError(t, svc.AdvanceStatus(101, models.OrderStatusDelivering))
	db.AssertExpectations(t)
}

func TestAdvanceStatusRejectsSkippedStep(t *testing.T) {
	db := new(MockDB)
	db.On("GetOrderByID", int64(101)).Return(&models.Order{
		ID:     101,
		Status: models.OrderStatusCreated,
	}, nil)

	svc := newTestOrderService(db, nil)
	assert.ErrorIs(t, svc.AdvanceStatus(101, models.OrderStatusDelivering), ErrInvalidTransition)
	db.AssertNotCalled(t, "UpdateOrder", mock.Anything)
}

func TestPickupQRRequiresPaidOrder(t *testing.T) {
	db := new(MockDB)
	db.On("GetOrderByID", int64(101)).Return(&models.Order{
		ID:            101,
		UserID:        7,
		PaymentStatus: models.PaymentStatusPending,
	}, nil)

	svc := newTestOrderService(db, nil)
	_, err := svc.PickupQR(101, 7)
	assert.ErrorIs(t, err, ErrNotPaid)
}

func TestPickupQRForPaidOrder(t *testing.T) {
	db := new(MockDB)
	db.On("GetOrderByID", int64(101)).Return(&models.Order{
		ID:            101,
		OrderNumber:   "ord_1",
		UserID:        7,
		Total:         15.30,
		PaymentStatus: models.PaymentStatusPaid,
	}, nil)

	svc := newTestOrderService(db, nil)
	qrBytes, err := svc.PickupQR(101, 7)
	require.NoError(t, err)
	assert.NotEmpty(t, qrBytes)
}
