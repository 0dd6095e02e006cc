package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Order status lifecycle: created → preparing → delivering → completed,
// or cancelled. Payment status transitions independently via webhook.
const (
	OrderStatusCreated    = "created"
	OrderStatusPreparing  = "preparing"
	OrderStatusDelivering = "delivering"
	OrderStatusCompleted  = "completed"
	OrderStatusCancelled  = "cancelled"
)

const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
	PaymentStatusFailed  = "failed"
)

type Order struct {
	bun.BaseModel `bun:"table:orders"`

	ID            int64     `bun:"id,pk,autoincrement" json:"id"`
	OrderNumber   string    `bun:"order_number,unique,notnull" json:"order_number"`
	UserID        int64     `bun:"user_id,notnull" json:"user_id"`
	AddressID     int64     `bun:"address_id,notnull" json:"address_id"`
	Status        string    `bun:"status,notnull" json:"status"`
	PaymentStatus string    `bun:"payment_status,notnull" json:"payment_status"`
	PaymentID     string    `bun:"payment_id,nullzero" json:"payment_id,omitempty"`
	Subtotal      float64   `bun:"subtotal,notnull" json:"subtotal"`
	ShippingFee   float64   `bun:"shipping_fee,notnull,default:0" json:"shipping_fee"`
	Discount      float64   `bun:"discount,notnull,default:0" json:"discount"`
	Total         float64   `bun:"total,notnull" json:"total"`
	CouponCode    string    `bun:"coupon_code,nullzero" json:"coupon_code,omitempty"`
	CreatedAt     time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt     time.Time `bun:"updated_at,nullzero" json:"updated_at,omitempty"`
}

type OrderItem struct {
	bun.BaseModel `bun:"table:order_items"`

	ID        int64   `bun:"id,pk,autoincrement" json:"id"`
	OrderID   int64   `bun:"order_id,notnull" json:"order_id"`
	ProductID int64   `bun:"product_id,notnull" json:"product_id"`
	Name      string  `bun:"name,notnull" json:"name"`
	Quantity  int64   `bun:"quantity,notnull" json:"quantity"`
	Price     float64 `bun:"price,notnull" json:"price"`
}

type OrderWithItems struct {
	Order Order       `json:"order"`
	Items []OrderItem `json:"items"`
}

type PlaceOrderRequest struct {
	AddressID  int64            `json:"address_id"`
	CouponCode string           `json:"coupon_code,omitempty"`
	Items      []PlaceOrderItem `json:"items"`
}

type PlaceOrderItem struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

// OrderEvent is the Kafka payload for order lifecycle events. EventID is
// unique per publish so consumers can dedup redeliveries.
type OrderEvent struct {
	EventID   string    `json:"event_id"`
	Type      string    `json:"type"`
	OrderID   int64     `json:"order_id"`
	UserID    int64     `json:"user_id"`
	Total     float64   `json:"total"`
	Timestamp time.Time `json:"timestamp"`
}
