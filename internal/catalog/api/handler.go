package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"ms-foodcourt/internal/catalog"
	"ms-foodcourt/internal/catalog/db"
	"ms-foodcourt/internal/logger"
	"ms-foodcourt/internal/models"
	"ms-foodcourt/internal/utils"
)

type CatalogHandler struct {
	Service *catalog.CatalogService
	Logger  *logger.Logger
}

func NewCatalogHandler(service *catalog.CatalogService, log *logger.Logger) *CatalogHandler {
	return &CatalogHandler{Service: service, Logger: log}
}

// PublicRoutes serves browse endpoints without authentication.
func (h *CatalogHandler) PublicRoutes(r chi.Router) {
	r.Get("/products", h.ListProducts)
	r.Get("/products/{id}", h.GetProduct)
	r.Get("/categories", h.ListCategories)
	r.Get("/banners", h.ListBanners)
}

// AdminRoutes serves catalog mutations; mount behind auth middleware.
func (h *CatalogHandler) AdminRoutes(r chi.Router) {
	r.Post("/products", h.CreateProduct)
	r.Put("/products/{id}", h.UpdateProduct)
	r.Delete("/products/{id}", h.DeleteProduct)
	r.Post("/categories", h.CreateCategory)
	r.Delete("/categories/{id}", h.DeleteCategory)
	r.Post("/banners", h.CreateBanner)
	r.Delete("/banners/{id}", h.DeleteBanner)
	r.Post("/banners/bulk-delete", h.BulkDeleteBanners)
}

func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	filter := db.ProductFilter{
		Search:        r.URL.Query().Get("search"),
		OnlyAvailable: r.URL.Query().Get("available") == "true",
	}
	if v, err := strconv.ParseInt(r.URL.Query().Get("category_id"), 10, 64); err == nil {
		filter.CategoryID = v
	}
	if v, err := strconv.ParseInt(r.URL.Query().Get("store_id"), 10, 64); err == nil {
		filter.StoreID = v
	}

	products, err := h.Service.ListProducts(filter)
	if err != nil {
		h.Logger.Error("CATALOG", fmt.Sprintf("Failed to list products: %v", err))
		writeJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Failed to load products", ""))
		return
	}

	writeJSON(w, http.StatusOK, utils.SuccessResponse("Products loaded", products))
}

func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	product, err := h.Service.GetProduct(id)
	if err != nil {
		h.writeCatalogError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, utils.SuccessResponse("Product loaded", product))
}

func (h *CatalogHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var product models.Product
	if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
		writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}

	if err := h.Service.CreateProduct(&product); err != nil {
		h.writeCatalogError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, utils.SuccessResponse("Product created", product))
}

func (h *CatalogHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var product models.Product
	if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
		writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}
	product.ID = id

	if err := h.Service.UpdateProduct(&product); err != nil {
		h.writeCatalogError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, utils.SuccessResponse("Product updated", product))
}

func (h *CatalogHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.Service.DeleteProduct(id); err != nil {
		h.writeCatalogError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, utils.SuccessResponse("Product deleted", nil))
}

func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.Service.ListCategories()
	if err != nil {
		h.Logger.Error("CATALOG", fmt.Sprintf("Failed to list categories: %v", err))
		writeJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Failed to load categories", ""))
		return
	}

	writeJSON(w, http.StatusOK, utils.SuccessResponse("Categories loaded", categories))
}

func (h *CatalogHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var category models.Category
	if err := json.NewDecoder(r.Body).Decode(&category); err != nil {
		writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}

	if err := h.Service.CreateCategory(&category); err != nil {
		h.writeCatalogError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, utils.SuccessResponse("Category created", category))
}

func (h *CatalogHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.Service.DeleteCategory(id); err != nil {
		h.writeCatalogError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, utils.SuccessResponse("Category deleted", nil))
}

func (h *CatalogHandler) ListBanners(w http.ResponseWriter, r *http.Request) {
	onlyActive := r.URL.Query().Get("all") != "true"

	banners, err := h.Service.ListBanners(onlyActive)
	if err != nil {
		h.Logger.Error("CATALOG", fmt.Sprintf("Failed to list banners: %v", err))
		writeJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Failed to load banners", ""))
		return
	}

	writeJSON(w, http.StatusOK, utils.SuccessResponse("Banners loaded", banners))
}

func (h *CatalogHandler) CreateBanner(w http.ResponseWriter, r *http.Request) {
	var banner models.Banner
	if err := json.NewDecoder(r.Body).Decode(&banner); err != nil {
		writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}

	if err := h.Service.CreateBanner(&banner); err != nil {
		h.writeCatalogError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, utils.SuccessResponse("Banner created", banner))
}

func (h *CatalogHandler) DeleteBanner(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.Service.DeleteBanner(id); err != nil {
		h.writeCatalogError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, utils.SuccessResponse("Banner deleted", nil))
}

func (h *CatalogHandler) BulkDeleteBanners(w http.ResponseWriter, r *http.Request) {
	var body struct {
		IDs []int64 `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request body", err.Error()))
		return
	}
	if len(body.IDs) == 0 {
		writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("No banner ids provided", ""))
		return
	}

	result := h.Service.BulkDeleteBanners(body.IDs)
	writeJSON(w, http.StatusOK, utils.SuccessResponse("Bulk delete finished", result))
}

func (h *CatalogHandler) writeCatalogError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, db.ErrProductNotFound),
		errors.Is(err, db.ErrCategoryNotFound),
		errors.Is(err, db.ErrBannerNotFound):
		writeJSON(w, http.StatusNotFound, utils.ErrorResponse("Not found", err.Error()))
	case errors.Is(err, catalog.ErrInvalidProduct),
		errors.Is(err, catalog.ErrInvalidCategory),
		errors.Is(err, catalog.ErrInvalidBanner):
		writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid request", err.Error()))
	default:
		h.Logger.Error("CATALOG", fmt.Sprintf("Unexpected catalog error: %v", err))
		writeJSON(w, http.StatusInternalServerError, utils.ErrorResponse("Catalog operation failed", ""))
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, utils.ErrorResponse("Invalid id", ""))
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
