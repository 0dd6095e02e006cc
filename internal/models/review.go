package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Review holds at most one row per (user, product) pair. The uniqueness
// constraint is enforced by the schema; the dedup migration repairs data
// that predates it.
type Review struct {
	bun.BaseModel `bun:"table:reviews"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	UserID    int64     `bun:"user_id,notnull" json:"user_id"`
	ProductID int64     `bun:"product_id,notnull" json:"product_id"`
	Rating    int       `bun:"rating,notnull" json:"rating"`
	Comment   string    `bun:"comment,nullzero" json:"comment,omitempty"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,nullzero" json:"updated_at,omitempty"`
}

// ProductLike is a user's like toggle on a product. The product's
// like_count aggregate is recomputed from these rows on every toggle.
type ProductLike struct {
	bun.BaseModel `bun:"table:product_likes"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	UserID    int64     `bun:"user_id,notnull" json:"user_id"`
	ProductID int64     `bun:"product_id,notnull" json:"product_id"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}
