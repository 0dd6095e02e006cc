package models

// CheckoutRequest carries everything the payment gateway needs to build a
// hosted checkout session for an order.
type CheckoutRequest struct {
	OrderID      int64          `json:"order_id"`
	Items        []CheckoutItem `json:"items"`
	CustomerInfo *CustomerInfo  `json:"customer_info"`
	TotalAmount  *TotalAmount   `json:"total_amount"`
}

type CheckoutItem struct {
	Name     string  `json:"name"`
	Quantity int64   `json:"quantity"`
	Price    float64 `json:"price"`
}

type CustomerInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type TotalAmount struct {
	Subtotal    float64 `json:"subtotal"`
	ShippingFee float64 `json:"shipping_fee"`
	Discount    float64 `json:"discount"`
	Total       float64 `json:"total"`
}

type CheckoutSessionResponse struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}
