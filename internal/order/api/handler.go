package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"ms-foodcourt/internal/auth"
	"ms-foodcourt/internal/logger"
	"ms-foodcourt/internal/models"
	"ms-foodcourt/internal/order"
	"ms-foodcourt/internal/order/db"
	"ms-foodcourt/internal/utils"
)

type OrderHandler struct {
	Service *order.OrderService
	Logger  *logger.Logger
}

func NewOrderHandler(service *order.OrderService, log *logger.Logger) *OrderHandler {
	return &OrderHandler{Service: service, Logger: log}
}

func (h *OrderHandler) Routes(r chi.Router) {
	r.Post("/", h.PlaceOrder)
	r.Get("/", h.ListOrders)
	r.Get("/{id}", h.GetOrder)
	r.Post("/{id}/cancel", h.CancelOrder)
	r.Get("/{id}/pickup-qr", h.PickupQR)
}

// AdminRoutes expose fulfilment controls to the back office.
func (h *OrderHandler) AdminRoutes(r chi.Router) {
	r.Post("/{id}/status", h.AdvanceStatus)
}

// InternalRoutes are the payment-service callbacks, guarded by the shared
// internal token middleware at mount time.
func (h *OrderHandler) InternalRoutes(r chi.Router) {
	r.Post("/{id}/mark-paid", h.MarkPaid)
	r.Post("/{id}/mark-failed", h.MarkPaymentFailed)
}

func (h *OrderHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req models.PlaceOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}

	result, err := h.Service.PlaceOrder(userID, req)
	if err != nil {
		h.writeOrderError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, utils.SuccessResponse("Order placed", result))
}

func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	orders, err := h.Service.ListUserOrders(userID)
	if err != nil {
		h.Logger.Error("ORDER", fmt.Sprintf("Failed to list orders for user %d: %v", userID, err))
		writeJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Failed to load orders", ""))
		return
	}

	writeJSON(w, http.StatusOK, utils.SuccessResponse("Orders loaded", orders))
}

func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r)
	if !ok {
		return
	}

	result, err := h.Service.GetOrder(orderID, auth.UserID(r.Context()))
	if err != nil {
		h.writeOrderError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, utils.SuccessResponse("Order loaded", result))
}

func (h *OrderHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.Service.CancelOrder(orderID, auth.UserID(r.Context())); err != nil {
		h.writeOrderError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, utils.SuccessResponse("Order cancelled", nil))
}

func (h *OrderHandler) PickupQR(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r)
	if !ok {
		return
	}

	qrBytes, err := h.Service.PickupQR(orderID, auth.UserID(r.Context()))
	if err != nil {
		h.writeOrderError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(qrBytes)
}

func (h *OrderHandler) AdvanceStatus(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r)
	if !ok {
		return
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Status == "" {
		writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", "status is required"))
		return
	}

	if err := h.Service.AdvanceStatus(orderID, body.Status); err != nil {
		h.writeOrderError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, utils.SuccessResponse("Order status updated", nil))
}

func (h *OrderHandler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r)
	if !ok {
		return
	}

	var body struct {
		PaymentID string `json:"payment_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}

	if err := h.Service.MarkPaid(orderID, body.PaymentID); err != nil {
		h.writeOrderError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, utils.SuccessResponse("Order marked as paid", nil))
}

func (h *OrderHandler) MarkPaymentFailed(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.Service.MarkPaymentFailed(orderID); err != nil {
		h.writeOrderError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, utils.SuccessResponse("Payment marked as failed", nil))
}

func (h *OrderHandler) writeOrderError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, db.ErrOrderNotFound):
		writeJSON(w, http.StatusNotFound, utils.ErrorResponse("Order not found", ""))
	case errors.Is(err, order.ErrNotOwner):
		writeJSON(w, http.StatusForbidden, utils.ErrorResponse("Order belongs to another user", ""))
	case errors.Is(err, order.ErrEmptyOrder),
		errors.Is(err, order.ErrInvalidAddress),
		errors.Is(err, order.ErrInvalidQuantity),
		errors.Is(err, order.ErrProductUnavailable),
		errors.Is(err, order.ErrInvalidCoupon),
		errors.Is(err, order.ErrNotCancellable),
		errors.Is(err, order.ErrInvalidTransition),
		errors.Is(err, order.ErrNotPaid),
		errors.Is(err, db.ErrInsufficientStock):
		writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid order request", err.Error()))
	default:
		h.Logger.Error("ORDER", fmt.Sprintf("Unexpected order error: %v", err))
		writeJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Order processing failed", ""))
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid order id", ""))
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
