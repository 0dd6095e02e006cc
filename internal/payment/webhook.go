package payment

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

// OrderMarker is the order-mutation collaborator driven by webhook events.
// Implementations must tolerate at-least-once delivery: marking an already
// paid order as paid is a no-op.
type OrderMarker interface {
	MarkPaid(orderID int64, paymentID string) error
	MarkPaymentFailed(orderID int64) error
}

// WebhookError carries both a sanitized message for the webhook response
// and the internal detail for logs.
type WebhookError struct {
	Category      string
	StatusCode    int
	PublicError   string
	InternalError string
	OriginalErr   error
}

func (e *WebhookError) Error() string {
	if e.OriginalErr != nil {
		return fmt.Sprintf("%s: %s: %v", e.Category, e.InternalError, e.OriginalErr)
	}
	return fmt.Sprintf("%s: %s", e.Category, e.InternalError)
}

func (e *WebhookError) Unwrap() error { return e.OriginalErr }

func newWebhookError(category string, status int, public, internal string, err error) *WebhookError {
	return &WebhookError{
		Category:      category,
		StatusCode:    status,
		PublicError:   public,
		InternalError: internal,
		OriginalErr:   err,
	}
}

// HandleWebhook verifies a webhook payload against the endpoint secret and
// dispatches recognized event types to the order collaborator. Unrecognized
// event types are acknowledged without side effects. No order mutation ever
// happens before the signature check passes.
func (s *Service) HandleWebhook(payload []byte, signature string) error {
	if s.cfg.WebhookSecret == "" {
		s.log.Error("WEBHOOK", "STRIPE_WEBHOOK_SECRET environment variable not set")
		return newWebhookError("configuration", http.StatusInternalServerError,
			"Webhook processing unavailable", "webhook secret not configured", nil)
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, s.cfg.WebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		s.log.Warn("WEBHOOK", fmt.Sprintf("Signature verification failed: %v", err))
		return newWebhookError("verification", http.StatusBadRequest,
			"Invalid webhook signature", "signature verification failed", err)
	}

	switch event.Type {
	case "checkout.session.completed":
		return s.handleSessionCompleted(event)
	case "checkout.session.expired":
		return s.handleSessionExpired(event)
	default:
		s.log.Info("WEBHOOK", fmt.Sprintf("Ignoring event type %s", event.Type))
		return nil
	}
}

func (s *Service) handleSessionCompleted(event stripe.Event) error {
	session, orderID, werr := s.parseSessionEvent(event)
	if werr != nil {
		return werr
	}

	paymentID := session.ID
	if session.PaymentIntent != nil {
		paymentID = session.PaymentIntent.ID
	}

	if err := s.orders.MarkPaid(orderID, paymentID); err != nil {
		s.log.Error("WEBHOOK", fmt.Sprintf("Failed to mark order %d as paid: %v", orderID, err))
		return newWebhookError("processing", http.StatusInternalServerError,
			"Failed to process payment confirmation", "order update failed", err)
	}

	s.log.LogPayment("WEBHOOK", strconv.FormatInt(orderID, 10),
		fmt.Sprintf("Order marked as paid via session %s", session.ID))
	return nil
}

func (s *Service) handleSessionExpired(event stripe.Event) error {
	session, orderID, werr := s.parseSessionEvent(event)
	if werr != nil {
		return werr
	}

	if err := s.orders.MarkPaymentFailed(orderID); err != nil {
		s.log.Error("WEBHOOK", fmt.Sprintf("Failed to mark order %d payment as failed: %v", orderID, err))
		return newWebhookError("processing", http.StatusInternalServerError,
			"Failed to process payment expiry", "order update failed", err)
	}

	s.log.LogPayment("WEBHOOK", strconv.FormatInt(orderID, 10),
		fmt.Sprintf("Order payment marked failed, session %s expired", session.ID))
	return nil
}

func (s *Service) parseSessionEvent(event stripe.Event) (*stripe.CheckoutSession, int64, *WebhookError) {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		s.log.Error("WEBHOOK", fmt.Sprintf("Failed to parse %s payload: %v", event.Type, err))
		return nil, 0, newWebhookError("parsing", http.StatusInternalServerError,
			"Malformed event payload", "session payload unmarshal failed", err)
	}

	ref := session.Metadata["order_id"]
	if ref == "" {
		ref = session.ClientReferenceID
	}
	orderID, err := strconv.ParseInt(ref, 10, 64)
	if err != nil || orderID <= 0 {
		s.log.Error("WEBHOOK", fmt.Sprintf("Session %s carries no usable order reference (%q)", session.ID, ref))
		return nil, 0, newWebhookError("parsing", http.StatusInternalServerError,
			"Malformed event payload", "missing order reference", err)
	}

	return &session, orderID, nil
}
