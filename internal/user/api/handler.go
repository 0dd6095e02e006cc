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
	"ms-foodcourt/internal/user"
	"ms-foodcourt/internal/user/db"
	"ms-foodcourt/internal/utils"
)

type UserHandler struct {
	Service *user.UserService
	Logger  *logger.Logger
}

func NewUserHandler(service *user.UserService, log *logger.Logger) *UserHandler {
	return &UserHandler{Service: service, Logger: log}
}

func (h *UserHandler) Routes(r chi.Router) {
	r.Get("/profile", h.GetProfile)
	r.Put("/profile", h.UpdateProfile)
	r.Get("/preferences", h.GetPreferences)
	r.Put("/preferences", h.UpdatePreferences)
	r.Get("/addresses", h.ListAddresses)
	r.Post("/addresses", h.AddAddress)
	r.Delete("/addresses/{id}", h.DeleteAddress)
}

func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.Service.GetProfile(auth.UserID(r.Context()))
	if err != nil {
		h.writeUserError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, utils.SuccessResponse("Profile loaded", profile))
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var body struct {
		FullName string `json:"full_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}

	profile, err := h.Service.UpdateProfile(auth.UserID(r.Context()), body.FullName)
	if err != nil {
		h.writeUserError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, utils.SuccessResponse("Profile updated", profile))
}

func (h *UserHandler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	prefs, err := h.Service.GetPreferences(auth.UserID(r.Context()))
	if err != nil {
		h.writeUserError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, utils.SuccessResponse("Preferences loaded", prefs))
}

func (h *UserHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var prefs models.Preferences
	if err := json.NewDecoder(r.Body).Decode(&prefs); err != nil {
		writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}

	if err := h.Service.UpdatePreferences(auth.UserID(r.Context()), prefs); err != nil {
		h.writeUserError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, utils.SuccessResponse("Preferences updated", prefs))
}

func (h *UserHandler) ListAddresses(w http.ResponseWriter, r *http.Request) {
	addresses, err := h.Service.ListAddresses(auth.UserID(r.Context()))
	if err != nil {
		h.writeUserError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, utils.SuccessResponse("Addresses loaded", addresses))
}

func (h *UserHandler) AddAddress(w http.ResponseWriter, r *http.Request) {
	var address models.Address
	if err := json.NewDecoder(r.Body).Decode(&address); err != nil {
		writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}

	created, err := h.Service.AddAddress(auth.UserID(r.Context()), address)
	if err != nil {
		h.writeUserError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, utils.SuccessResponse("Address added", created))
}

func (h *UserHandler) DeleteAddress(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid address id", ""))
		return
	}

	if err := h.Service.DeleteAddress(auth.UserID(r.Context()), id); err != nil {
		h.writeUserError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, utils.SuccessResponse("Address deleted", nil))
}

func (h *UserHandler) writeUserError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, db.ErrUserNotFound), errors.Is(err, db.ErrAddressNotFound):
		writeJSON(w, http.StatusNotFound, utils.ErrorResponse("Not found", err.Error()))
	case errors.Is(err, user.ErrInvalidAddress):
		writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request", err.Error()))
	default:
		h.Logger.Error("USER", fmt.Sprintf("Unexpected user error: %v", err))
		writeJSON(w, http.StatusInternalServerError, utils.ErrorResponse("User operation failed", ""))
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
