package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Level maps an xp threshold to a level number.
type Level struct {
	ID        string `gorm:"column:id;primaryKey" json:"id"`
	CompanyID string `gorm:"column:company_id;not null" json:"company_id"`
	Level     int    `gorm:"column:level;not null" json:"level"`
	Name      string `gorm:"column:name" json:"name"`
	MinXP     int    `gorm:"column:min_xp;not null" json:"min_xp"`
}

func (Level) TableName() string {
	return "levels"
}

// CoinTransaction is one entry of a profile's coin ledger. Debits are
// negative.
type CoinTransaction struct {
	ID        string          `gorm:"column:id;primaryKey" json:"id"`
	CompanyID string          `gorm:"column:company_id;not null" json:"company_id"`
	ProfileID string          `gorm:"column:profile_id;not null" json:"profile_id"`
	Amount    decimal.Decimal `gorm:"column:amount;type:numeric(12,2)" json:"amount"`
	Reason    string          `gorm:"column:reason" json:"reason"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (CoinTransaction) TableName() string {
	return "coin_transactions"
}

type Challenge struct {
	ID          string     `gorm:"column:id;primaryKey" json:"id"`
	CompanyID   string     `gorm:"column:company_id;not null" json:"company_id"`
	Title       string     `gorm:"column:title;not null" json:"title"`
	Slug        string     `gorm:"column:slug;not null" json:"slug"`
	Description string     `gorm:"column:description" json:"description"`
	CoinsReward int        `gorm:"column:coins_reward" json:"coins_reward"`
	StartsAt    *time.Time `gorm:"column:starts_at" json:"starts_at"`
	EndsAt      *time.Time `gorm:"column:ends_at" json:"ends_at"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Challenge) TableName() string {
	return "challenges"
}

// IsOpen reports whether the challenge accepts participants at t.
func (c *Challenge) IsOpen(t time.Time) bool {
	if c.StartsAt != nil && t.Before(*c.StartsAt) {
		return false
	}
	if c.EndsAt != nil && t.After(*c.EndsAt) {
		return false
	}
	return true
}

type ChallengeParticipant struct {
	ID            string     `gorm:"column:id;primaryKey" json:"id"`
	CompanyID     string     `gorm:"column:company_id;not null" json:"company_id"`
	ChallengeID   string     `gorm:"column:challenge_id;not null" json:"challenge_id"`
	ProfileID     string     `gorm:"column:profile_id;not null" json:"profile_id"`
	JoinedAt      time.Time  `gorm:"column:joined_at" json:"joined_at"`
	CompletedAt   *time.Time `gorm:"column:completed_at" json:"completed_at"`
	RewardAwarded bool       `gorm:"column:reward_awarded" json:"reward_awarded"`
}

func (ChallengeParticipant) TableName() string {
	return "challenge_participants"
}
