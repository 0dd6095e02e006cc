package models

import (
	"time"

	"github.com/uptrace/bun"
)

type CouponType string

const (
	CouponPercentage CouponType = "percentage"
	CouponFlatOff    CouponType = "flat_off"
)

type Coupon struct {
	bun.BaseModel `bun:"table:coupons"`

	ID           int64      `bun:"id,pk,autoincrement" json:"id"`
	Code         string     `bun:"code,unique,notnull" json:"code"`
	Type         CouponType `bun:"type,notnull" json:"type"`
	Percentage   float64    `bun:"percentage,notnull,default:0" json:"percentage"`
	Amount       float64    `bun:"amount,notnull,default:0" json:"amount"`
	MinSpend     float64    `bun:"min_spend,notnull,default:0" json:"min_spend"`
	MaxDiscount  float64    `bun:"max_discount,notnull,default:0" json:"max_discount"`
	MaxUsage     int        `bun:"max_usage,notnull,default:0" json:"max_usage"`
	CurrentUsage int        `bun:"current_usage,notnull,default:0" json:"current_usage"`
	Active       bool       `bun:"active,notnull,default:true" json:"active"`
	ActiveFrom   time.Time  `bun:"active_from,notnull" json:"active_from"`
	ExpiresAt    time.Time  `bun:"expires_at,notnull" json:"expires_at"`
}
