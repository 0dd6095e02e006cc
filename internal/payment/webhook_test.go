package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ms-foodcourt/internal/config"
	"ms-foodcourt/internal/logger"
)

const testWebhookSecret = "whsec_test_secret"

type MockOrderMarker struct {
	mock.Mock
}

func (m *MockOrderMarker) MarkPaid(orderID int64, paymentID string) error {
	args := m.Called(orderID, paymentID)
	return args.Error(0)
}

func (m *MockOrderMarker) MarkPaymentFailed(orderID int64) error {
	args := m.Called(orderID)
	return args.Error(0)
}

func newTestService(t *testing.T, orders OrderMarker) *Service {
	t.Helper()
	svc, err := NewService(config.StripeConfig{
		SecretKey:     "sk_test_key",
		WebhookSecret: testWebhookSecret,
		Currency:      "usd",
	}, "http://localhost:3000", orders, logger.NewLogger("payment-test"))
	require.NoError(t, err)
	return svc
}

// signPayload produces a Stripe-Signature header value for the payload,
// using the t=<unix>,v1=<hmac-sha256(t.payload)> scheme.
func signPayload(payload []byte, secret string) string {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", ts)
	mac.Write(payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func sessionEventPayload(eventType string, orderID int64) []byte {
	return []byte(fmt.Sprintf(`{
		"id": "evt_test_1",
		"object": "event",
		"api_version": "2025-03-31",
		"type": %q,
		"data": {
			"object": {
				"id": "cs_test_1",
				"object": "checkout.session",
				"client_reference_id": "%d",
				"metadata": {"order_id": "%d"},
				"payment_intent": "pi_test_1"
			}
		}
	}`, eventType, orderID, orderID))
}

func TestWebhookCompletedMarksOrderPaid(t *testing.T) {
	orders := new(MockOrderMarker)
	orders.On("MarkPaid", int64(42), "pi_test_1").Return(nil)
	svc := newTestService(t, orders)

	payload := sessionEventPayload("checkout.session.completed", 42)
	err := svc.HandleWebhook(payload, signPayload(payload, testWebhookSecret))

	assert.NoError(t, err)
	orders.AssertExpectations(t)
}

func TestWebhookExpiredMarksPaymentFailed(t *testing.T) {
	orders := new(MockOrderMarker)
	orders.On("MarkPaymentFailed", int64(42)).Return(nil)
	svc := newTestService(t, orders)

	payload := sessionEventPayload("checkout.session.expired", 42)
	err := svc.HandleWebhook(payload, signPayload(payload, testWebhookSecret))

	assert.NoError(t, err)
	orders.AssertExpectations(t)
}

func TestWebhookInvalidSignatureMutatesNothing(t *testing.T) {
	orders := new(MockOrderMarker)
	svc := newTestService(t, orders)

	payload := sessionEventPayload("checkout.session.completed", 42)
	err := svc.HandleWebhook(payload, signPayload(payload, "whsec_wrong_secret"))

	var werr *WebhookError
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, "verification", werr.Category)
	assert.Equal(t, http.StatusBadRequest, werr.StatusCode)
	orders.AssertNotCalled(t, "MarkPaid", mock.Anything, mock.Anything)
	orders.AssertNotCalled(t, "MarkPaymentFailed", mock.Anything)
}

func TestWebhookMissingSignatureHeader(t *testing.T) {
	orders := new(MockOrderMarker)
	svc := newTestService(t, orders)

	payload := sessionEventPayload("checkout.session.completed", 42)
	err := svc.HandleWebhook(payload, "")

	var werr *WebhookError
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, http.StatusBadRequest, werr.StatusCode)
	orders.AssertNotCalled(t, "MarkPaid", mock.Anything, mock.Anything)
}

func TestWebhookUnknownEventTypeIsAcknowledged(t *testing.T) {
	orders := new(MockOrderMarker)
	svc := newTestService(t, orders)

	payload := []byte(`{"id":"evt_test_2","object":"event","type":"invoice.paid","data":{"object":{}}}`)
	err := svc.HandleWebhook(payload, signPayload(payload, testWebhookSecret))

	assert.NoError(t, err)
	orders.AssertNotCalled(t, "MarkPaid", mock.Anything, mock.Anything)
	orders.AssertNotCalled(t, "MarkPaymentFailed", mock.Anything)
}

func TestWebhookCollaboratorFailureIsProcessingError(t *testing.T) {
	orders := new(MockOrderMarker)
	orders.On("MarkPaid", int64(42), "pi_test_1").Return(assert.AnError)
	svc := newTestService(t, orders)

	payload := sessionEventPayload("checkout.session.completed", 42)
	err := svc.HandleWebhook(payload, signPayload(payload, testWebhookSecret))

	var werr *WebhookError
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, "processing", werr.Category)
	assert.Equal(t, http.StatusInternalServerError, werr.StatusCode)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestWebhookMissingOrderReference(t *testing.T) {
	orders := new(MockOrderMarker)
	svc := newTestService(t, orders)

	payload := []byte(`{
		"id": "evt_test_3",
		"object": "event",
		"type": "checkout.session.completed",
		"data": {"object": {"id": "cs_test_2", "object": "checkout.session"}}
	}`)
	err := svc.HandleWebhook(payload, signPayload(payload, testWebhookSecret))

	var werr *WebhookError
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, "parsing", werr.Category)
	orders.AssertNotCalled(t, "MarkPaid", mock.Anything, mock.Anything)
}
