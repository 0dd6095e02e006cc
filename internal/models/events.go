package models

// Event names pushed to product rooms over the realtime channel.
const (
	EventProductReviewUpdate = "product-review-update"
	EventProductRatingUpdate = "product-rating-update"
	EventProductLikeUpdate   = "product-like-update"
)

type RatingUpdate struct {
	Rating     float64 `json:"rating"`
	NumReviews int     `json:"numReviews"`
}

type LikeUpdate struct {
	IsLiked   bool `json:"isLiked"`
	LikeCount int  `json:"likeCount"`
}

type ReviewUpdate struct {
	ReviewID  int64  `json:"reviewId"`
	ProductID int64  `json:"productId"`
	UserID    int64  `json:"userId"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment,omitempty"`
}
