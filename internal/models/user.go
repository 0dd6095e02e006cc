package models

import (
	"encoding/json"
	"time"

	"github.com/uptrace/bun"
)

type User struct {
	bun.BaseModel `bun:"table:users"`

	ID          int64     `bun:"id,pk,autoincrement" json:"id"`
	Subject     string    `bun:"subject,unique,notnull" json:"-"`
	Email       string    `bun:"email,unique,notnull" json:"email"`
	FullName    string    `bun:"full_name,notnull" json:"full_name"`
	Role        string    `bun:"role,notnull,default:'customer'" json:"role"`
	StoreID     int64     `bun:"store_id,nullzero" json:"store_id,omitempty"`
	Preferences string    `bun:"preferences" json:"-"`
	CreatedAt   time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt   time.Time `bun:"updated_at,nullzero" json:"updated_at,omitempty"`
}

// Preferences is the denormalized per-user preference blob. After the
// consolidation migration it is the sole source of truth for preference
// data; the legacy user_preferences table no longer exists.
type Preferences struct {
	FavoriteCategories  []string                `json:"favoriteCategories"`
	DietaryRestrictions []string                `json:"dietaryRestrictions"`
	TastePreferences    TastePreferences        `json:"tastePreferences"`
	Notifications       NotificationPreferences `json:"notifications"`
}

type TastePreferences struct {
	Spicy bool `json:"spicy"`
	Sweet bool `json:"sweet"`
	Salty bool `json:"salty"`
	Sour  bool `json:"sour"`
}

type NotificationPreferences struct {
	OrderUpdates bool `json:"orderUpdates"`
	Promotions   bool `json:"promotions"`
}

func DefaultPreferences() Preferences {
	return Preferences{
		FavoriteCategories:  []string{},
		DietaryRestrictions: []string{},
		Notifications: NotificationPreferences{
			OrderUpdates: true,
		},
	}
}

// ParsePreferences decodes the stored blob, falling back to the default
// structure when the column is empty or unreadable.
func (u *User) ParsePreferences() Preferences {
	if u.Preferences == "" {
		return DefaultPreferences()
	}
	var prefs Preferences
	if err := json.Unmarshal([]byte(u.Preferences), &prefs); err != nil {
		return DefaultPreferences()
	}
	if prefs.FavoriteCategories == nil {
		prefs.FavoriteCategories = []string{}
	}
	if prefs.DietaryRestrictions == nil {
		prefs.DietaryRestrictions = []string{}
	}
	return prefs
}
