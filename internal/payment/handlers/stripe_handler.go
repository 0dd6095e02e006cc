package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"ms-foodcourt/internal/logger"
	"ms-foodcourt/internal/models"
	"ms-foodcourt/internal/payment"
	"ms-foodcourt/internal/utils"
)

// CheckoutService is what the HTTP layer needs from the payment service.
type CheckoutService interface {
	CreateCheckoutSession(ctx context.Context, req *models.CheckoutRequest) (*models.CheckoutSessionResponse, error)
	HandleWebhook(payload []byte, signature string) error
}

type StripeHandler struct {
	checkout CheckoutService
	logger   *logger.Logger
}

func NewStripeHandler(checkout CheckoutService, log *logger.Logger) *StripeHandler {
	return &StripeHandler{checkout: checkout, logger: log}
}

// CreateCheckoutSession handles POST /api/payment/create-checkout-session.
func (h *StripeHandler) CreateCheckoutSession(c *gin.Context) {
	var req models.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}

	result, err := h.checkout.CreateCheckoutSession(c.Request.Context(), &req)
	if err != nil {
		if payment.IsValidationError(err) {
			c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid checkout request", err.Error()))
			return
		}
		h.logger.Error("STRIPE", fmt.Sprintf("Checkout session creation failed: %v", err))
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse("Payment processing failed", "unable to create checkout session"))
		return
	}

	c.JSON(http.StatusOK, utils.SuccessResponse("Checkout session created", result))
}

// Webhook handles POST /api/payment/webhook. Internal failure detail never
// leaks into the response body.
func (h *StripeHandler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unable to read request body"})
		return
	}

	if err := h.checkout.HandleWebhook(payload, c.GetHeader("Stripe-Signature")); err != nil {
		var werr *payment.WebhookError
		if errors.As(err, &werr) {
			h.logger.Error("WEBHOOK", werr.Error())
			c.JSON(werr.StatusCode, gin.H{"error": werr.PublicError})
			return
		}
		h.logger.Error("WEBHOOK", fmt.Sprintf("Unexpected webhook failure: %v", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Webhook processing failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

// Health handles GET /health for the payment service.
func (h *StripeHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "payment-service"})
}
