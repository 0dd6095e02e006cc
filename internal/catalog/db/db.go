package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"

	"ms-foodcourt/internal/models"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrBannerNotFound   = errors.New("banner not found")
)

type DBLayer struct {
	DB *bun.DB
}

func NewDBLayer(db *bun.DB) *DBLayer {
	return &DBLayer{DB: db}
}

// ProductFilter narrows product listings. Zero values mean "no filter".
type ProductFilter struct {
	CategoryID    int64
	StoreID       int64
	Search        string
	OnlyAvailable bool
}

func (d *DBLayer) ListProducts(filter ProductFilter) ([]models.Product, error) {
	ctx := context.Background()
	var products []models.Product

	q := d.DB.NewSelect().Model(&products)
	if filter.CategoryID > 0 {
		q = q.Where("category_id = ?", filter.CategoryID)
	}
	if filter.StoreID > 0 {
		q = q.Where("store_id = ?", filter.StoreID)
	}
	if filter.Search != "" {
		q = q.Where("name ILIKE ?", "%"+filter.Search+"%")
	}
	if filter.OnlyAvailable {
		q = q.Where("available = TRUE")
	}

	if err := q.Order("name ASC").Scan(ctx); err != nil {
		return nil, err
	}
	return products, nil
}

func (d *DBLayer) GetProductByID(id int64) (*models.Product, error) {
	ctx := context.Background()
	product := new(models.Product)
	err := d.DB.NewSelect().Model(product).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return product, nil
}

func (d *DBLayer) InsertProduct(product *models.Product) error {
	ctx := context.Background()
	_, err := d.DB.NewInsert().Model(product).Exec(ctx)
	return err
}

func (d *DBLayer) UpdateProduct(product *models.Product) error {
	ctx := context.Background()
	product.UpdatedAt = time.Now()
	res, err := d.DB.NewUpdate().Model(product).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (d *DBLayer) DeleteProduct(id int64) error {
	ctx := context.Background()
	res, err := d.DB.NewDelete().Model((*models.Product)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (d *DBLayer) ListCategories() ([]models.Category, error) {
	ctx := context.Background()
	var categories []models.Category
	if err := d.DB.NewSelect().Model(&categories).Order("name ASC").Scan(ctx); err != nil {
		return nil, err
	}
	return categories, nil
}

func (d *DBLayer) InsertCategory(category *models.Category) error {
	ctx := context.Background()
	_, err := d.DB.NewInsert().Model(category).Exec(ctx)
	return err
}

func (d *DBLayer) DeleteCategory(id int64) error {
	ctx := context.Background()
	res, err := d.DB.NewDelete().Model((*models.Category)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

func (d *DBLayer) ListBanners(onlyActive bool) ([]models.Banner, error) {
	ctx := context.Background()
	var banners []models.Banner

	q := d.DB.NewSelect().Model(&banners)
	if onlyActive {
		q = q.Where("active = TRUE")
	}
	if err := q.Order("position ASC").Scan(ctx); err != nil {
		return nil, err
	}
	return banners, nil
}

func (d *DBLayer) InsertBanner(banner *models.Banner) error {
	ctx := context.Background()
	_, err := d.DB.NewInsert().Model(banner).Exec(ctx)
	return err
}

func (d *DBLayer) DeleteBanner(id int64) error {
	ctx := context.Background()
	res, err := d.DB.NewDelete().Model((*models.Banner)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrBannerNotFound
	}
	return nil
}
