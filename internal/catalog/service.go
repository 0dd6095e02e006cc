package catalog

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"ms-foodcourt/internal/catalog/db"
	"ms-foodcourt/internal/logger"
	"ms-foodcourt/internal/models"
)

var (
	ErrInvalidProduct  = errors.New("product requires a name and a positive price")
	ErrInvalidCategory = errors.New("category requires a name")
	ErrInvalidBanner   = errors.New("banner requires a title and an image URL")
)

// DB is the persistence surface the catalog service depends on.
type DB interface {
	ListProducts(filter db.ProductFilter) ([]models.Product, error)
	GetProductByID(id int64) (*models.Product, error)
	InsertProduct(product *models.Product) error
	UpdateProduct(product *models.Product) error
	DeleteProduct(id int64) error
	ListCategories() ([]models.Category, error)
	InsertCategory(category *models.Category) error
	DeleteCategory(id int64) error
	ListBanners(onlyActive bool) ([]models.Banner, error)
	InsertBanner(banner *models.Banner) error
	DeleteBanner(id int64) error
}

type CatalogService struct {
	DB     DB
	Logger *logger.Logger
}

func NewCatalogService(db DB, log *logger.Logger) *CatalogService {
	return &CatalogService{DB: db, Logger: log}
}

func (s *CatalogService) ListProducts(filter db.ProductFilter) ([]models.Product, error) {
	return s.DB.ListProducts(filter)
}

func (s *CatalogService) GetProduct(id int64) (*models.Product, error) {
	return s.DB.GetProductByID(id)
}

func (s *CatalogService) CreateProduct(product *models.Product) error {
	if product.Name == "" || product.Price <= 0 {
		return ErrInvalidProduct
	}
	if err := s.DB.InsertProduct(product); err != nil {
		return err
	}
	s.Logger.Info("CATALOG", fmt.Sprintf("Product %d (%s) created", product.ID, product.Name))
	return nil
}

func (s *CatalogService) UpdateProduct(product *models.Product) error {
	if product.Name == "" || product.Price <= 0 {
		return ErrInvalidProduct
	}
	return s.DB.UpdateProduct(product)
}

func (s *CatalogService) DeleteProduct(id int64) error {
	return s.DB.DeleteProduct(id)
}

func (s *CatalogService) ListCategories() ([]models.Category, error) {
	return s.DB.ListCategories()
}

func (s *CatalogService) CreateCategory(category *models.Category) error {
	if category.Name == "" {
		return ErrInvalidCategory
	}
	return s.DB.InsertCategory(category)
}

func (s *CatalogService) DeleteCategory(id int64) error {
	return s.DB.DeleteCategory(id)
}

func (s *CatalogService) ListBanners(onlyActive bool) ([]models.Banner, error) {
	return s.DB.ListBanners(onlyActive)
}

func (s *CatalogService) CreateBanner(banner *models.Banner) error {
	if banner.Title == "" || banner.ImageURL == "" {
		return ErrInvalidBanner
	}
	return s.DB.InsertBanner(banner)
}

func (s *CatalogService) DeleteBanner(id int64) error {
	return s.DB.DeleteBanner(id)
}

// BulkDeleteResult aggregates the outcome of a fan-out delete.
type BulkDeleteResult struct {
	Deleted []int64 `json:"deleted"`
	Failed  []int64 `json:"failed"`
}

// BulkDeleteBanners deletes the given banners concurrently and reports
// which deletions succeeded. One failed banner never aborts the rest.
func (s *CatalogService) BulkDeleteBanners(ids []int64) BulkDeleteResult {
	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		result BulkDeleteResult
	)

	for _, id := range ids {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			err := s.DB.DeleteBanner(id)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				s.Logger.Warn("CATALOG", fmt.Sprintf("Failed to delete banner %d: %v", id, err))
				result.Failed = append(result.Failed, id)
				return
			}
			result.Deleted = append(result.Deleted, id)
		}(id)
	}
	wg.Wait()

	sort.Slice(result.Deleted, func(i, j int) bool { return result.Deleted[i] < result.Deleted[j] })
	sort.Slice(result.Failed, func(i, j int) bool { return result.Failed[i] < result.Failed[j] })
	return result
}
