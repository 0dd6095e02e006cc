package order

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ms-foodcourt/internal/kafka"
	"ms-foodcourt/internal/logger"
	"ms-foodcourt/internal/models"
	"ms-foodcourt/internal/order/qr"
	"ms-foodcourt/internal/utils"
)

var (
	ErrEmptyOrder         = errors.New("order must contain at least one item")
	ErrInvalidAddress     = errors.New("a delivery address is required")
	ErrInvalidQuantity    = errors.New("item quantity must be positive")
	ErrProductUnavailable = errors.New("product is not available")
	ErrInvalidCoupon      = errors.New("invalid coupon")
	ErrNotOwner           = errors.New("order belongs to another user")
	ErrNotCancellable     = errors.New("order can no longer be cancelled")
	ErrInvalidTransition  = errors.New("invalid order status transition")
	ErrNotPaid            = errors.New("order is not paid")
)

// DB is the persistence surface the order service depends on.
type DB interface {
	CreateOrderWithItems(order *models.Order, items []models.OrderItem) error
	GetOrderByID(id int64) (*models.Order, error)
	GetOrderWithItems(id int64) (*models.OrderWithItems, error)
	GetOrdersByUser(userID int64) ([]models.Order, error)
	UpdateOrder(order models.Order) error
	GetProductsByIDs(ids []int64) ([]models.Product, error)
	GetCouponByCode(code string) (*models.Coupon, error)
	IncrementCouponUsage(couponID int64) error
}

// EventPublisher streams order lifecycle events. A nil publisher disables
// streaming without touching call sites.
type EventPublisher interface {
	PublishOrderEvent(topic string, event models.OrderEvent) error
}

type Config struct {
	ShippingFee     float64
	FreeShippingMin float64
	PickupSecret    string
}

type OrderService struct {
	DB     DB
	Events EventPublisher
	QR     *qr.QRGenerator
	Logger *logger.Logger
	cfg    Config
}

func NewOrderService(db DB, events EventPublisher, cfg Config, log *logger.Logger) *OrderService {
	return &OrderService{
		DB:     db,
		Events: events,
		QR:     qr.NewQRGenerator(cfg.PickupSecret),
		Logger: log,
		cfg:    cfg,
	}
}

// PlaceOrder validates the request against live catalog state, snapshots
// prices into order items, applies the coupon and creates the order in
// pending-payment state.
func (s *OrderService) PlaceOrder(userID int64, req models.PlaceOrderRequest) (*models.OrderWithItems, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyOrder
	}
	if req.AddressID <= 0 {
		return nil, ErrInvalidAddress
	}

	ids := make([]int64, 0, len(req.Items))
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: product %d", ErrInvalidQuantity, item.ProductID)
		}
		ids = append(ids, item.ProductID)
	}

	products, err := s.DB.GetProductsByIDs(ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	byID := make(map[int64]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	var subtotal float64
	items := make([]models.OrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		product, ok := byID[item.ProductID]
		if !ok || !product.Available {
			return nil, fmt.Errorf("%w: product %d", ErrProductUnavailable, item.ProductID)
		}
		if int64(product.Stock) < item.Quantity {
			return nil, fmt.Errorf("%w: product %d", ErrProductUnavailable, item.ProductID)
		}
		items = append(items, models.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			Quantity:  item.Quantity,
			Price:     product.Price,
		})
		subtotal += product.Price * float64(item.Quantity)
	}

	shipping := s.cfg.ShippingFee
	if s.cfg.FreeShippingMin > 0 && subtotal >= s.cfg.FreeShippingMin {
		shipping = 0
	}

	var discount float64
	var coupon *models.Coupon
	if req.CouponCode != "" {
		coupon, err = s.DB.GetCouponByCode(req.CouponCode)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidCoupon, req.CouponCode)
		}
		result, err := ValidateCoupon(coupon, subtotal)
		if err != nil {
			return nil, err
		}
		if !result.IsValid {
			return nil, fmt.Errorf("%w: %s", ErrInvalidCoupon, result.Reason)
		}
		discount = result.DiscountAmount
	}

	total := subtotal + shipping - discount
	if total < 0 {
		total = 0
	}

	order := &models.Order{
		OrderNumber:   utils.GenerateOrderNumber(),
		UserID:        userID,
		AddressID:     req.AddressID,
		Status:        models.OrderStatusCreated,
		PaymentStatus: models.PaymentStatusPending,
		Subtotal:      subtotal,
		ShippingFee:   shipping,
		Discount:      discount,
		Total:         total,
		CouponCode:    req.CouponCode,
		CreatedAt:     time.Now(),
	}

	if err := s.DB.CreateOrderWithItems(order, items); err != nil {
		return nil, err
	}

	if coupon != nil {
		if err := s.DB.IncrementCouponUsage(coupon.ID); err != nil {
			s.Logger.Warn("ORDER", fmt.Sprintf("Failed to record usage of coupon %s: %v", coupon.Code, err))
		}
	}

	s.Logger.LogOrder("CREATE", order.OrderNumber,
		fmt.Sprintf("Order placed by user %d, total %.2f", userID, total))
	s.publishEvent(kafka.TopicOrderCreated, "created", order)

	return &models.OrderWithItems{Order: *order, Items: items}, nil
}

// MarkPaid records a successful payment. Marking an already paid order is
// a logged no-op so webhook retries stay harmless.
func (s *OrderService) MarkPaid(orderID int64, paymentID string) error {
	order, err := s.DB.GetOrderByID(orderID)
	if err != nil {
		return err
	}

	if order.PaymentStatus == models.PaymentStatusPaid {
		s.Logger.LogOrder("PAYMENT", order.OrderNumber, "Order already marked as paid, skipping")
		return nil
	}

	order.PaymentStatus = models.PaymentStatusPaid
	order.PaymentID = paymentID
	if order.Status == models.OrderStatusCreated {
		order.Status = models.OrderStatusPreparing
	}

	if err := s.DB.UpdateOrder(*order); err != nil {
		return err
	}

	s.Logger.LogOrder("PAYMENT", order.OrderNumber, fmt.Sprintf("Order paid via %s", paymentID))
	s.publishEvent(kafka.TopicOrderPaid, "paid", order)
	return nil
}

// MarkPaymentFailed records an expired or failed payment attempt. A paid
// order is never downgraded: success wins over a late failure signal.
func (s *OrderService) MarkPaymentFailed(orderID int64) error {
	order, err := s.DB.GetOrderByID(orderID)
	if err != nil {
		return err
	}

	if order.PaymentStatus == models.PaymentStatusPaid {
		s.Logger.Warn("ORDER",
			fmt.Sprintf("Ignoring payment failure for already paid order %s", order.OrderNumber))
		return nil
	}
	if order.PaymentStatus == models.PaymentStatusFailed {
		return nil
	}

	order.PaymentStatus = models.PaymentStatusFailed
	if err := s.DB.UpdateOrder(*order); err != nil {
		return err
	}

	s.Logger.LogOrder("PAYMENT", order.OrderNumber, "Payment marked as failed")
	return nil
}

// CancelOrder cancels an unpaid, not-yet-prepared order owned by the user.
func (s *OrderService) CancelOrder(orderID, userID int64) error {
	order, err := s.DB.GetOrderByID(orderID)
	if err != nil {
		return err
	}
	if order.UserID != userID {
		return ErrNotOwner
	}
	if order.PaymentStatus == models.PaymentStatusPaid || order.Status != models.OrderStatusCreated {
		return ErrNotCancellable
	}

	order.Status = models.OrderStatusCancelled
	if err := s.DB.UpdateOrder(*order); err != nil {
		return err
	}

	s.Logger.LogOrder("CANCEL", order.OrderNumber, fmt.Sprintf("Cancelled by user %d", userID))
	s.publishEvent(kafka.TopicOrderCancelled, "cancelled", order)
	return nil
}

var statusTransitions = map[string]string{
	models.OrderStatusCreated:    models.OrderStatusPreparing,
	models.OrderStatusPreparing:  models.OrderStatusDelivering,
	models.OrderStatusDelivering: models.OrderStatusCompleted,
}

// AdvanceStatus moves an order one step along the fulfilment pipeline.
func (s *OrderService) AdvanceStatus(orderID int64, next string) error {
	order, err := s.DB.GetOrderByID(orderID)
	if err != nil {
		return err
	}

	if statusTransitions[order.Status] != next {
		return fmt.Errorf("%w: %s → %s", ErrInvalidTransition, order.Status, next)
	}

	order.Status = next
	if err := s.DB.UpdateOrder(*order); err != nil {
		return err
	}

	s.Logger.LogOrder("STATUS", order.OrderNumber, fmt.Sprintf("Status advanced to %s", next))
	return nil
}

func (s *OrderService) GetOrder(orderID, userID int64) (*models.OrderWithItems, error) {
	order, err := s.DB.GetOrderWithItems(orderID)
	if err != nil {
		return nil, err
	}
	if order.Order.UserID != userID {
		return nil, ErrNotOwner
	}
	return order, nil
}

func (s *OrderService) ListUserOrders(userID int64) ([]models.Order, error) {
	return s.DB.GetOrdersByUser(userID)
}

// PickupQR issues an encrypted pickup pass for a paid order.
func (s *OrderService) PickupQR(orderID, userID int64) ([]byte, error) {
	order, err := s.DB.GetOrderByID(orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, ErrNotOwner
	}
	if order.PaymentStatus != models.PaymentStatusPaid {
		return nil, ErrNotPaid
	}

	return s.QR.GenerateEncryptedQR(qr.PickupPass{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		Total:       order.Total,
		IssuedAt:    time.Now(),
	})
}

func (s *OrderService) publishEvent(topic, eventType string, order *models.Order) {
	if s.Events == nil {
		return
	}
	event := models.OrderEvent{
		EventID:   uuid.NewString(),
		Type:      eventType,
		OrderID:   order.ID,
		UserID:    order.UserID,
		Total:     order.Total,
		Timestamp: time.Now(),
	}
	if err := s.Events.PublishOrderEvent(topic, event); err != nil {
		s.Logger.Warn("KAFKA", fmt.Sprintf("Failed to publish %s event for order %d: %v", eventType, order.ID, err))
	}
}
