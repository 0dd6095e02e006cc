package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"ms-foodcourt/internal/logger"
	"ms-foodcourt/internal/models"
)

type reviewKey struct {
	UserID    int64
	ProductID int64
}

// DuplicateReviewIDs returns the IDs of review rows to delete so that each
// (user, product) pair keeps exactly one row: the newest by created_at,
// with the higher id winning a timestamp tie.
func DuplicateReviewIDs(reviews []models.Review) []int64 {
	keep := make(map[reviewKey]models.Review)
	var doomed []int64

	for _, review := range reviews {
		key := reviewKey{UserID: review.UserID, ProductID: review.ProductID}
		current, seen := keep[key]
		if !seen {
			keep[key] = review
			continue
		}

		if newerThan(review, current) {
			doomed = append(doomed, current.ID)
			keep[key] = review
		} else {
			doomed = append(doomed, review.ID)
		}
	}

	return doomed
}

func newerThan(a, b models.Review) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

// ReviewDeduplication deletes duplicate (user, product) review rows and
// adds a composite index over the pair for the lookup path. The index is
// deliberately non-unique: uniqueness is enforced by the application's
// upsert, and fresh schemas carry a unique constraint from day one.
type ReviewDeduplication struct{}

func (ReviewDeduplication) Name() string { return "deduplicate_reviews" }

func (ReviewDeduplication) Up(ctx context.Context, db *bun.DB, log *logger.Logger) error {
	var reviews []models.Review
	if err := db.NewSelect().Model(&reviews).Scan(ctx); err != nil {
		return fmt.Errorf("failed to read reviews: %w", err)
	}

	doomed := DuplicateReviewIDs(reviews)
	if len(doomed) > 0 {
		if _, err := db.NewDelete().
			Model((*models.Review)(nil)).
			Where("id IN (?)", bun.In(doomed)).
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to delete duplicate reviews: %w", err)
		}
	}
	log.Info("MIGRATION", fmt.Sprintf("Removed %d duplicate reviews", len(doomed)))

	if _, err := db.ExecContext(ctx,
		"CREATE INDEX IF NOT EXISTS reviews_user_product_idx ON reviews (user_id, product_id)"); err != nil {
		return fmt.Errorf("failed to create reviews index: %w", err)
	}

	return nil
}

// Down drops the index only; deleted duplicates stay deleted.
func (ReviewDeduplication) Down(ctx context.Context, db *bun.DB, log *logger.Logger) error {
	_, err := db.ExecContext(ctx, "DROP INDEX IF EXISTS reviews_user_product_idx")
	return err
}
