package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Address struct {
	bun.BaseModel `bun:"table:addresses"`

	ID         int64     `bun:"id,pk,autoincrement" json:"id"`
	UserID     int64     `bun:"user_id,notnull" json:"user_id"`
	Label      string    `bun:"label,nullzero" json:"label,omitempty"`
	Street     string    `bun:"street,notnull" json:"street"`
	City       string    `bun:"city,notnull" json:"city"`
	PostalCode string    `bun:"postal_code,nullzero" json:"postal_code,omitempty"`
	Phone      string    `bun:"phone,nullzero" json:"phone,omitempty"`
	IsDefault  bool      `bun:"is_default,notnull,default:false" json:"is_default"`
	CreatedAt  time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}
