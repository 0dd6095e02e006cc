package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Product struct {
	bun.BaseModel `bun:"table:products"`

	ID          int64   `bun:"id,pk,autoincrement" json:"id"`
	StoreID     int64   `bun:"store_id,notnull" json:"store_id"`
	CategoryID  int64   `bun:"category_id,notnull" json:"category_id"`
	Name        string  `bun:"name,notnull" json:"name"`
	Description string  `bun:"description,nullzero" json:"description,omitempty"`
	Price       float64 `bun:"price,notnull" json:"price"`
	Stock       int     `bun:"stock,notnull,default:0" json:"stock"`
	ImageURL    string  `bun:"image_url,nullzero" json:"image_url,omitempty"`
	Available   bool    `bun:"available,notnull,default:true" json:"available"`

	// Rating/like aggregates are recomputed server-side on review and like
	// writes and broadcast to subscribed clients.
	Rating     float64 `bun:"rating,notnull,default:0" json:"rating"`
	NumReviews int     `bun:"num_reviews,notnull,default:0" json:"num_reviews"`
	LikeCount  int     `bun:"like_count,notnull,default:0" json:"like_count"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,nullzero" json:"updated_at,omitempty"`
}

type Category struct {
	bun.BaseModel `bun:"table:categories"`

	ID       int64  `bun:"id,pk,autoincrement" json:"id"`
	Name     string `bun:"name,unique,notnull" json:"name"`
	ImageURL string `bun:"image_url,nullzero" json:"image_url,omitempty"`
}

type Banner struct {
	bun.BaseModel `bun:"table:banners"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	Title     string    `bun:"title,notnull" json:"title"`
	ImageURL  string    `bun:"image_url,notnull" json:"image_url"`
	TargetURL string    `bun:"target_url,nullzero" json:"target_url,omitempty"`
	Position  int       `bun:"position,notnull,default:0" json:"position"`
	Active    bool      `bun:"active,notnull,default:true" json:"active"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}
