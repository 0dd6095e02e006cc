package payment

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"

	"ms-foodcourt/internal/config"
	"ms-foodcourt/internal/logger"
	"ms-foodcourt/internal/models"
)

var (
	ErrStripeAPIError         = errors.New("stripe API error")
	ErrStripeClientInitFailed = errors.New("failed to initialize Stripe client")

	ErrMissingOrderID  = errors.New("order_id is required")
	ErrNoItems         = errors.New("at least one item is required")
	ErrMissingCustomer = errors.New("customer info with email is required")
	ErrInvalidTotal    = errors.New("total amount must be positive")
)

// IsValidationError reports whether err is a client-input problem that maps
// to a 4xx response rather than a gateway failure.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrMissingOrderID) ||
		errors.Is(err, ErrNoItems) ||
		errors.Is(err, ErrMissingCustomer) ||
		errors.Is(err, ErrInvalidTotal)
}

// Service bridges internal orders to Stripe hosted checkout sessions and
// reconciles payment state from webhook events.
type Service struct {
	client        *client.API
	cfg           config.StripeConfig
	storefrontURL string
	orders        OrderMarker
	log           *logger.Logger
}

func NewService(cfg config.StripeConfig, storefrontURL string, orders OrderMarker, log *logger.Logger) (*Service, error) {
	if cfg.SecretKey == "" {
		log.Error("STRIPE", "STRIPE_SECRET_KEY environment variable not set")
		return nil, ErrStripeClientInitFailed
	}

	sc := client.New(cfg.SecretKey, nil)
	log.Info("STRIPE", "Stripe client initialized successfully")

	return &Service{
		client:        sc,
		cfg:           cfg,
		storefrontURL: storefrontURL,
		orders:        orders,
		log:           log,
	}, nil
}

// MinorUnits converts a price to the processor's minor-currency-unit integer
// representation, rounding half up. Going through decimal recovers the
// shortest decimal representation of the float, so 9.995 becomes 1000
// rather than 999.
func MinorUnits(amount float64) int64 {
	return decimal.NewFromFloat(amount).
		Mul(decimal.NewFromInt(100)).
		Round(0).
		IntPart()
}

// BuildLineItems constructs the checkout line-item list for a request. A
// synthetic shipping line is appended only when the shipping fee is
// strictly positive.
func BuildLineItems(req *models.CheckoutRequest, currency string) []*stripe.CheckoutSessionLineItemParams {
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(req.Items)+1)
	for _, item := range req.Items {
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Name),
				},
				UnitAmount: stripe.Int64(MinorUnits(item.Price)),
			},
			Quantity: stripe.Int64(item.Quantity),
		})
	}

	if req.TotalAmount != nil && req.TotalAmount.ShippingFee > 0 {
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String("Shipping fee"),
				},
				UnitAmount: stripe.Int64(MinorUnits(req.TotalAmount.ShippingFee)),
			},
			Quantity: stripe.Int64(1),
		})
	}

	return lineItems
}

// ValidateCheckoutRequest rejects requests missing any required component.
func ValidateCheckoutRequest(req *models.CheckoutRequest) error {
	if req.OrderID <= 0 {
		return ErrMissingOrderID
	}
	if len(req.Items) == 0 {
		return ErrNoItems
	}
	if req.CustomerInfo == nil || req.CustomerInfo.Email == "" {
		return ErrMissingCustomer
	}
	if req.TotalAmount == nil || req.TotalAmount.Total <= 0 {
		return ErrInvalidTotal
	}
	return nil
}

// CreateCheckoutSession requests a hosted checkout session for an order.
// The redirect URLs embed the order identifier; the success URL also embeds
// the session identifier for post-payment verification.
func (s *Service) CreateCheckoutSession(ctx context.Context, req *models.CheckoutRequest) (*models.CheckoutSessionResponse, error) {
	if err := ValidateCheckoutRequest(req); err != nil {
		s.log.Warn("CHECKOUT", fmt.Sprintf("Rejected checkout request: %v", err))
		return nil, err
	}

	s.log.LogPayment("SESSION", strconv.FormatInt(req.OrderID, 10),
		fmt.Sprintf("Creating checkout session for %d items, total %.2f", len(req.Items), req.TotalAmount.Total))

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:         BuildLineItems(req, s.cfg.Currency),
		CustomerEmail:     stripe.String(req.CustomerInfo.Email),
		ClientReferenceID: stripe.String(strconv.FormatInt(req.OrderID, 10)),
		SuccessURL: stripe.String(fmt.Sprintf("%s/order/%d/success?session_id={CHECKOUT_SESSION_ID}",
			s.storefrontURL, req.OrderID)),
		CancelURL: stripe.String(fmt.Sprintf("%s/order/%d/cancel", s.storefrontURL, req.OrderID)),
	}
	params.Context = ctx
	params.AddMetadata("order_id", strconv.FormatInt(req.OrderID, 10))

	session, err := s.client.CheckoutSessions.New(params)
	if err != nil {
		s.log.Error("STRIPE", fmt.Sprintf("Failed to create checkout session for order %d: %v", req.OrderID, err))
		return nil, fmt.Errorf("%w: %v", ErrStripeAPIError, err)
	}

	s.log.LogPayment("SESSION", strconv.FormatInt(req.OrderID, 10),
		fmt.Sprintf("Created checkout session %s", session.ID))

	return &models.CheckoutSessionResponse{
		SessionID: session.ID,
		URL:       session.URL,
	}, nil
}
