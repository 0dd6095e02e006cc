package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"

	"ms-foodcourt/internal/models"
)

var ErrReviewNotFound = errors.New("review not found")

type DBLayer struct {
	DB *bun.DB
}

func NewDBLayer(db *bun.DB) *DBLayer {
	return &DBLayer{DB: db}
}

func (d *DBLayer) GetReviewByUserAndProduct(userID, productID int64) (*models.Review, error) {
	ctx := context.Background()
	review := new(models.Review)
	err := d.DB.NewSelect().Model(review).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReviewNotFound
	}
	if err != nil {
		return nil, err
	}
	return review, nil
}

func (d *DBLayer) InsertReview(review *models.Review) error {
	ctx := context.Background()
	_, err := d.DB.NewInsert().Model(review).Exec(ctx)
	return err
}

func (d *DBLayer) UpdateReview(review *models.Review) error {
	ctx := context.Background()
	review.UpdatedAt = time.Now()
	_, err := d.DB.NewUpdate().Model(review).WherePK().Exec(ctx)
	return err
}

func (d *DBLayer) ListReviewsByProduct(productID int64) ([]models.Review, error) {
	ctx := context.Background()
	var reviews []models.Review
	err := d.DB.NewSelect().Model(&reviews).
		Where("product_id = ?", productID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return reviews, nil
}

// RecomputeRating recalculates the rating aggregates for a product from
// its review rows.
func (d *DBLayer) RecomputeRating(productID int64) (float64, int, error) {
	ctx := context.Background()
	var agg struct {
		Avg   sql.NullFloat64 `bun:"avg_rating"`
		Count int             `bun:"num_reviews"`
	}
	err := d.DB.NewSelect().
		Model((*models.Review)(nil)).
		ColumnExpr("AVG(rating) AS avg_rating").
		ColumnExpr("COUNT(*) AS num_reviews").
		Where("product_id = ?", productID).
		Scan(ctx, &agg)
	if err != nil {
		return 0, 0, err
	}
	return agg.Avg.Float64, agg.Count, nil
}

func (d *DBLayer) UpdateProductRating(productID int64, rating float64, numReviews int) error {
	ctx := context.Background()
	_, err := d.DB.NewUpdate().
		Model((*models.Product)(nil)).
		Set("rating = ?", rating).
		Set("num_reviews = ?", numReviews).
		Where("id = ?", productID).
		Exec(ctx)
	return err
}

func (d *DBLayer) GetLike(userID, productID int64) (*models.ProductLike, error) {
	ctx := context.Background()
	like := new(models.ProductLike)
	err := d.DB.NewSelect().Model(like).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return like, nil
}

func (d *DBLayer) InsertLike(like *models.ProductLike) error {
	ctx := context.Background()
	_, err := d.DB.NewInsert().Model(like).Exec(ctx)
	return err
}

func (d *DBLayer) DeleteLike(userID, productID int64) error {
	ctx := context.Background()
	_, err := d.DB.NewDelete().
		Model((*models.ProductLike)(nil)).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Exec(ctx)
	return err
}

func (d *DBLayer) CountLikes(productID int64) (int, error) {
	ctx := context.Background()
	return d.DB.NewSelect().
		Model((*models.ProductLike)(nil)).
		Where("product_id = ?", productID).
		Count(ctx)
}

func (d *DBLayer) UpdateProductLikeCount(productID int64, likeCount int) error {
	ctx := context.Background()
	_, err := d.DB.NewUpdate().
		Model((*models.Product)(nil)).
		Set("like_count = ?", likeCount).
		Where("id = ?", productID).
		Exec(ctx)
	return err
}
