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
	"ms-foodcourt/internal/review"
	"ms-foodcourt/internal/utils"
)

type ReviewHandler struct {
	Service *review.ReviewService
	Logger  *logger.Logger
}

func NewReviewHandler(service *review.ReviewService, log *logger.Logger) *ReviewHandler {
	return &ReviewHandler{Service: service, Logger: log}
}

// Routes mounts authenticated review and like endpoints. The product param
// is named {id} to share the tree position with the catalog routes.
func (h *ReviewHandler) Routes(r chi.Router) {
	r.Put("/products/{id}/review", h.UpsertReview)
	r.Post("/products/{id}/like", h.ToggleLike)
}

// PublicRoutes mounts read-only endpoints that need no authentication.
func (h *ReviewHandler) PublicRoutes(r chi.Router) {
	r.Get("/products/{id}/reviews", h.ListReviews)
}

func (h *ReviewHandler) UpsertReview(w http.ResponseWriter, r *http.Request) {
	productID, ok := productParam(w, r)
	if !ok {
		return
	}

	var body struct {
		Rating  int    `json:"rating"`
		Comment string `json:"comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}

	result, err := h.Service.UpsertReview(r.Context(), auth.UserID(r.Context()), productID, body.Rating, body.Comment)
	if err != nil {
		if errors.Is(err, review.ErrInvalidRating) {
			writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid review", err.Error()))
			return
		}
		h.Logger.Error("REVIEW", fmt.Sprintf("Failed to save review for product %d: %v", productID, err))
		writeJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Failed to save review", ""))
		return
	}

	writeJSON(w, http.StatusOK, utils.SuccessResponse("Review saved", result))
}

func (h *ReviewHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	productID, ok := productParam(w, r)
	if !ok {
		return
	}

	update, err := h.Service.ToggleLike(r.Context(), auth.UserID(r.Context()), productID)
	if err != nil {
		h.Logger.Error("REVIEW", fmt.Sprintf("Failed to toggle like for product %d: %v", productID, err))
		writeJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Failed to toggle like", ""))
		return
	}

	writeJSON(w, http.StatusOK, utils.SuccessResponse("Like updated", update))
}

func (h *ReviewHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	productID, ok := productParam(w, r)
	if !ok {
		return
	}

	reviews, err := h.Service.ListReviews(productID)
	if err != nil {
		h.Logger.Error("REVIEW", fmt.Sprintf("Failed to list reviews for product %d: %v", productID, err))
		writeJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Failed to load reviews", ""))
		return
	}

	writeJSON(w, http.StatusOK, utils.SuccessResponse("Reviews loaded", reviews))
}

func productParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid product id", ""))
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
