package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-foodcourt/internal/logger"
	"ms-foodcourt/internal/models"
	"ms-foodcourt/internal/payment"
	"ms-foodcourt/internal/payment/handlers"
)

type stubCheckout struct {
	session    *models.CheckoutSessionResponse
	sessionErr error
	webhookErr error
}

func (s *stubCheckout) CreateCheckoutSession(ctx context.Context, req *models.CheckoutRequest) (*models.CheckoutSessionResponse, error) {
	return s.session, s.sessionErr
}

func (s *stubCheckout) HandleWebhook(payload []byte, signature string) error {
	return s.webhookErr
}

func setupRouter(checkout *stubCheckout) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := handlers.NewStripeHandler(checkout, logger.NewLogger("handler-test"))

	r := gin.New()
	r.POST("/api/payment/create-checkout-session", handler.CreateCheckoutSession)
	r.POST("/api/payment/webhook", handler.Webhook)
	return r
}

func TestWebhookReportsWebhookErrorStatus(t *testing.T) {
	checkout := &stubCheckout{webhookErr: &payment.WebhookError{
		Category:      "verification",
		StatusCode:    http.StatusBadRequest,
		PublicError:   "Invalid webhook signature",
		InternalError: "signature verification failed",
	}}
	r := setupRouter(checkout)

	req := httptest.NewRequest("POST", "/api/payment/webhook", bytes.NewBufferString("{}"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Invalid webhook signature", body["error"])
}

func TestWebhookUnwrapsNestedWebhookError(t *testing.T) {
	// The status mapping must hold even when the service wraps the error
	// with extra context on its way up.
	werr := &payment.WebhookError{
		Category:      "processing",
		StatusCode:    http.StatusInternalServerError,
		PublicError:   "Failed to process payment confirmation",
		InternalError: "order update failed",
	}
	checkout := &stubCheckout{webhookErr: fmt.Errorf("dispatch: %w", werr)}
	r := setupRouter(checkout)

	req := httptest.NewRequest("POST", "/api/payment/webhook", bytes.NewBufferString("{}"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Failed to process payment confirmation", body["error"])
}

func TestWebhookAcknowledgesSuccess(t *testing.T) {
	r := setupRouter(&stubCheckout{})

	req := httptest.NewRequest("POST", "/api/payment/webhook", bytes.NewBufferString("{}"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"received":true}`, w.Body.String())
}

func TestCreateCheckoutSessionValidationError(t *testing.T) {
	r := setupRouter(&stubCheckout{sessionErr: payment.ErrNoItems})

	payload, err := json.Marshal(models.CheckoutRequest{OrderID: 7})
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/api/payment/create-checkout-session", bytes.NewBuffer(payload))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
