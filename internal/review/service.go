package review

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ms-foodcourt/internal/logger"
	"ms-foodcourt/internal/models"
	"ms-foodcourt/internal/review/db"
)

var ErrInvalidRating = errors.New("rating must be between 1 and 5")

// DB is the persistence surface the review service depends on.
type DB interface {
	GetReviewByUserAndProduct(userID, productID int64) (*models.Review, error)
	InsertReview(review *models.Review) error
	UpdateReview(review *models.Review) error
	ListReviewsByProduct(productID int64) ([]models.Review, error)
	RecomputeRating(productID int64) (float64, int, error)
	UpdateProductRating(productID int64, rating float64, numReviews int) error
	GetLike(userID, productID int64) (*models.ProductLike, error)
	InsertLike(like *models.ProductLike) error
	DeleteLike(userID, productID int64) error
	CountLikes(productID int64) (int, error)
	UpdateProductLikeCount(productID int64, likeCount int) error
}

// Publisher pushes aggregate updates to product rooms. Delivery is best
// effort: a publish failure never rolls back the write it describes.
type Publisher interface {
	PublishReviewUpdate(ctx context.Context, productID int64, update models.ReviewUpdate) error
	PublishRatingUpdate(ctx context.Context, productID int64, update models.RatingUpdate) error
	PublishLikeUpdate(ctx context.Context, productID int64, update models.LikeUpdate) error
}

type ReviewService struct {
	DB       DB
	Realtime Publisher
	Logger   *logger.Logger
}

func NewReviewService(db DB, realtime Publisher, log *logger.Logger) *ReviewService {
	return &ReviewService{DB: db, Realtime: realtime, Logger: log}
}

// UpsertReview writes the user's review for a product, replacing any
// earlier one, then recomputes and broadcasts the product's rating
// aggregates.
func (s *ReviewService) UpsertReview(ctx context.Context, userID, productID int64, rating int, comment string) (*models.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}

	review, err := s.DB.GetReviewByUserAndProduct(userID, productID)
	switch {
	case err == nil:
		review.Rating = rating
		review.Comment = comment
		if err := s.DB.UpdateReview(review); err != nil {
			return nil, err
		}
	case errors.Is(err, db.ErrReviewNotFound):
		review = &models.Review{
			UserID:    userID,
			ProductID: productID,
			Rating:    rating,
			Comment:   comment,
			CreatedAt: time.Now(),
		}
		if err := s.DB.InsertReview(review); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	avg, count, err := s.DB.RecomputeRating(productID)
	if err != nil {
		return nil, err
	}
	if err := s.DB.UpdateProductRating(productID, avg, count); err != nil {
		return nil, err
	}

	s.broadcast(ctx, productID, func() error {
		return s.Realtime.PublishReviewUpdate(ctx, productID, models.ReviewUpdate{
			ReviewID:  review.ID,
			ProductID: productID,
			UserID:    userID,
			Rating:    rating,
			Comment:   comment,
		})
	})
	s.broadcast(ctx, productID, func() error {
		return s.Realtime.PublishRatingUpdate(ctx, productID, models.RatingUpdate{
			Rating:     avg,
			NumReviews: count,
		})
	})

	s.Logger.Info("REVIEW", fmt.Sprintf("User %d reviewed product %d: %d stars", userID, productID, rating))
	return review, nil
}

// ToggleLike flips the user's like on a product and broadcasts the new
// aggregate count together with the toggling user's like state.
func (s *ReviewService) ToggleLike(ctx context.Context, userID, productID int64) (*models.LikeUpdate, error) {
	existing, err := s.DB.GetLike(userID, productID)
	if err != nil {
		return nil, err
	}

	isLiked := existing == nil
	if isLiked {
		err = s.DB.InsertLike(&models.ProductLike{
			UserID:    userID,
			ProductID: productID,
			CreatedAt: time.Now(),
		})
	} else {
		err = s.DB.DeleteLike(userID, productID)
	}
	if err != nil {
		return nil, err
	}

	count, err := s.DB.CountLikes(productID)
	if err != nil {
		return nil, err
	}
	if err := s.DB.UpdateProductLikeCount(productID, count); err != nil {
		return nil, err
	}

	update := &models.LikeUpdate{IsLiked: isLiked, LikeCount: count}
	s.broadcast(ctx, productID, func() error {
		return s.Realtime.PublishLikeUpdate(ctx, productID, *update)
	})

	return update, nil
}

func (s *ReviewService) ListReviews(productID int64) ([]models.Review, error) {
	return s.DB.ListReviewsByProduct(productID)
}

func (s *ReviewService) broadcast(ctx context.Context, productID int64, publish func() error) {
	if s.Realtime == nil {
		return
	}
	if err := publish(); err != nil {
		s.Logger.Warn("REALTIME", fmt.Sprintf("Failed to broadcast update for product %d: %v", productID, err))
	}
}
