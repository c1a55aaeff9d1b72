package rpc

import (
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/doodlesbykumbi/community-in-go/pkg/model"
	gormstore "github.com/doodlesbykumbi/community-in-go/pkg/server/store/gorm"
)

type AwardCoinsArgs struct {
	ProfileID string          `json:"profile_id" validate:"required,uuid"`
	Amount    decimal.Decimal `json:"amount"`
	Reason    string          `json:"reason" validate:"required,max=200"`
}

func (a *AwardCoinsArgs) check() error {
	if a.Amount.IsZero() {
		return fmt.Errorf("%w: amount must not be zero", ErrInvalidArgs)
	}
	return nil
}

type BalanceResult struct {
	Balance decimal.Decimal `json:"balance"`
}

var awardCoins = define("award_coins",
	"Credit or debit a profile's coins. Debits may not overdraw the balance.",
	model.RoleAdmin,
	[]string{"profiles", "coin_transactions"},
	func(tx *gorm.DB, call *Call, args *AwardCoinsArgs) (interface{}, error) {
		balance, err := addCoins(tx, call, args.ProfileID, args.Amount, args.Reason)
		if err != nil {
			return nil, err
		}
		return &BalanceResult{Balance: balance}, nil
	})

type AwardXPArgs struct {
	ProfileID string `json:"profile_id" validate:"required,uuid"`
	Amount    int    `json:"amount" validate:"required"`
}

type XPResult struct {
	XP    int `json:"xp"`
	Level int `json:"level"`
}

var awardXP = define("award_xp",
	"Add xp to a profile and recompute its level.",
	model.RoleAdmin,
	[]string{"profiles"},
	func(tx *gorm.DB, call *Call, args *AwardXPArgs) (interface{}, error) {
		xp, level, err := addXP(tx, call, args.ProfileID, args.Amount)
		if err != nil {
			return nil, err
		}
		return &XPResult{XP: xp, Level: level}, nil
	})

var leaderboardOrder = map[string]string{
	"coins":  "coins",
	"xp":     "xp",
	"streak": "current_streak",
}

type LeaderboardArgs struct {
	Limit int    `json:"limit" validate:"min=1,max=100"`
	By    string `json:"by" validate:"oneof=coins xp streak"`
}

func (a *LeaderboardArgs) defaults() {
	if a.Limit == 0 {
		a.Limit = 10
	}
	if a.By == "" {
		a.By = "xp"
	}
}

type LeaderboardEntry struct {
	Rank          int             `gorm:"-" json:"rank"`
	ProfileID     string          `gorm:"column:id" json:"profile_id"`
	DisplayName   string          `gorm:"column:display_name" json:"display_name"`
	AvatarURL     string          `gorm:"column:avatar_url" json:"avatar_url"`
	Coins         decimal.Decimal `gorm:"column:coins" json:"coins"`
	XP            int             `gorm:"column:xp" json:"xp"`
	Level         int             `gorm:"column:level" json:"level"`
	CurrentStreak int             `gorm:"column:current_streak" json:"current_streak"`
}

// LeaderboardSQL returns the ranking statement for the given ordering.
func LeaderboardSQL(by string) string {
	return `SELECT id, display_name, avatar_url, coins, xp, level, current_streak FROM profiles ` +
		`WHERE company_id = ? ORDER BY ` + leaderboardOrder[by] + ` DESC, display_name ASC, id ASC LIMIT ?`
}

var leaderboard = define("leaderboard",
	"Rank the company's profiles by coins, xp or current streak.",
	model.RoleMember,
	nil,
	func(tx *gorm.DB, call *Call, args *LeaderboardArgs) (interface{}, error) {
		entries := []LeaderboardEntry{}
		if err := tx.Raw(LeaderboardSQL(args.By), call.company(), args.Limit).Scan(&entries).Error; err != nil {
			return nil, gormstore.Classify(err)
		}
		for i := range entries {
			entries[i].Rank = i + 1
		}
		return entries, nil
	})
