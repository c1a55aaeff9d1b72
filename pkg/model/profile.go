package model

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Profile is a company member.
type Profile struct {
	ID               string          `gorm:"column:id;primaryKey" json:"id"`
	CompanyID        string          `gorm:"column:company_id;not null" json:"company_id"`
	Login            string          `gorm:"column:login;not null" json:"login"`
	DisplayName      string          `gorm:"column:display_name" json:"display_name"`
	AvatarURL        string          `gorm:"column:avatar_url" json:"avatar_url"`
	Bio              string          `gorm:"column:bio" json:"bio"`
	Role             Role            `gorm:"column:role;not null" json:"role"`
	Coins            decimal.Decimal `gorm:"column:coins;type:numeric(12,2)" json:"coins"`
	XP               int             `gorm:"column:xp" json:"xp"`
	Level            int             `gorm:"column:level" json:"level"`
	CurrentStreak    int             `gorm:"column:current_streak" json:"current_streak"`
	LongestStreak    int             `gorm:"column:longest_streak" json:"longest_streak"`
	LastActivityDate *time.Time      `gorm:"column:last_activity_date;type:date" json:"last_activity_date"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Profile) TableName() string {
	return "profiles"
}

// Credential stores the bcrypt hash of a profile's API key.
type Credential struct {
	ProfileID    string         `gorm:"column:profile_id;primaryKey"`
	APIKeyHash   []byte         `gorm:"column:api_key_hash;type:bytea;not null"`
	RestrictedTo pq.StringArray `gorm:"column:restricted_to;type:text[]"`
	Expiration   *time.Time     `gorm:"column:expiration"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (Credential) TableName() string {
	return "credentials"
}

// IsExpired reports whether the credential has an expiration in the past.
func (c *Credential) IsExpired() bool {
	if c.Expiration == nil {
		return false
	}
	return time.Now().After(*c.Expiration)
}
