package community

import (
	"context"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/doodlesbykumbi/community-in-go/pkg/client"
	"github.com/doodlesbykumbi/community-in-go/pkg/errs"
	"github.com/doodlesbykumbi/community-in-go/pkg/model"
	"github.com/doodlesbykumbi/community-in-go/pkg/rpc"
	"github.com/doodlesbykumbi/community-in-go/pkg/validation"
)

const (
	levelsTable           = "levels"
	coinTransactionsTable = "coin_transactions"
)

// Leaderboard orderings.
const (
	ByCoins  = "coins"
	ByXP     = "xp"
	ByStreak = "streak"
)

type LevelInput struct {
	Level int    `json:"level" validate:"min=1"`
	Name  string `json:"name" validate:"max=100"`
	MinXP int    `json:"min_xp" validate:"min=0"`
}

// Levels lists the company's levels, lowest first.
func (d *Data) Levels(ctx context.Context) ([]model.Level, error) {
	return fetch(ctx, d, querySpec{
		key:     d.key(levelsTable),
		stale:   staleLong,
		failure: "Could not load levels",
	}, func(ctx context.Context) ([]model.Level, error) {
		return selectRows[model.Level](ctx, d.client.From(levelsTable).Order("level"))
	})
}

func (d *Data) CreateLevel(ctx context.Context, in LevelInput) (*model.Level, error) {
	return mutate(ctx, d, mutation{
		success:     "Level created",
		failure:     "Could not create the level",
		invalidates: []string{levelsTable},
	}, func(ctx context.Context) (*model.Level, error) {
		if err := validation.Struct(in); err != nil {
			return nil, err
		}
		return insertRow[model.Level](ctx, d, levelsTable, in)
	})
}

func (d *Data) DeleteLevel(ctx context.Context, id string) error {
	_, err := mutate(ctx, d, mutation{
		success:     "Level deleted",
		failure:     "Could not delete the level",
		invalidates: []string{levelsTable},
	}, func(ctx context.Context) (struct{}, error) {
		return deleteRow(ctx, d, levelsTable, id)
	})
	return err
}

// CoinHistory lists a profile's coin transactions, newest first.
func (d *Data) CoinHistory(ctx context.Context, profileID string, opts ListOptions) (Page[model.CoinTransaction], error) {
	return fetch(ctx, d, querySpec{
		key:     d.key(coinTransactionsTable, "profile", profileID, opts.key()),
		stale:   staleShort,
		failure: "Could not load the coin history",
	}, func(ctx context.Context) (Page[model.CoinTransaction], error) {
		return selectPage[model.CoinTransaction](ctx, d.client.From(coinTransactionsTable).
			Eq("profile_id", profileID).Order("created_at", client.Descending()), opts)
	})
}

// AwardCoins credits a profile, or debits it when amount is negative.
// Admins only.
func (d *Data) AwardCoins(ctx context.Context, profileID string, amount decimal.Decimal, reason string) (rpc.BalanceResult, error) {
	msg := fmt.Sprintf("Awarded %s coins", amount)
	if amount.IsNegative() {
		msg = fmt.Sprintf("Deducted %s coins", amount.Neg())
	}
	return mutate(ctx, d, mutation{
		success:     msg,
		failure:     "Could not update the coins",
		invalidates: []string{profilesTable, coinTransactionsTable},
	}, func(ctx context.Context) (rpc.BalanceResult, error) {
		if amount.IsZero() {
			return rpc.BalanceResult{}, errs.NewBadRequestError("Validation failed",
				errs.FieldError{Field: "amount", Error: "must not be zero"})
		}
		args := rpc.AwardCoinsArgs{ProfileID: profileID, Amount: amount, Reason: reason}
		if err := validation.Struct(args); err != nil {
			return rpc.BalanceResult{}, err
		}
		return call[rpc.BalanceResult](ctx, d, "award_coins", args)
	})
}

// AwardXP adds xp to a profile and returns its new level. Admins only.
func (d *Data) AwardXP(ctx context.Context, profileID string, amount int) (rpc.XPResult, error) {
	return mutate(ctx, d, mutation{
		success:     fmt.Sprintf("Awarded %d xp", amount),
		failure:     "Could not award xp",
		invalidates: []string{profilesTable},
	}, func(ctx context.Context) (rpc.XPResult, error) {
		args := rpc.AwardXPArgs{ProfileID: profileID, Amount: amount}
		if err := validation.Struct(args); err != nil {
			return rpc.XPResult{}, err
		}
		return call[rpc.XPResult](ctx, d, "award_xp", args)
	})
}

// RecordActivity counts today towards the caller's streak. It is silent on
// success.
func (d *Data) RecordActivity(ctx context.Context) (rpc.StreakResult, error) {
	return mutate(ctx, d, mutation{
		failure:     "Could not update your streak",
		invalidates: []string{profilesTable},
	}, func(ctx context.Context) (rpc.StreakResult, error) {
		return call[rpc.StreakResult](ctx, d, "record_activity", nil)
	})
}

// Leaderboard ranks profiles by coins, xp or streak. Zero values default to
// the top ten by xp.
func (d *Data) Leaderboard(ctx context.Context, by string, limit int) ([]rpc.LeaderboardEntry, error) {
	if by == "" {
		by = ByXP
	}
	if limit == 0 {
		limit = 10
	}
	return fetch(ctx, d, querySpec{
		key:     d.key(keyLeaderboard, by, strconv.Itoa(limit)),
		stale:   staleDefault,
		failure: "Could not load the leaderboard",
	}, func(ctx context.Context) ([]rpc.LeaderboardEntry, error) {
		args := rpc.LeaderboardArgs{By: by, Limit: limit}
		if err := validation.Struct(args); err != nil {
			return nil, err
		}
		return call[[]rpc.LeaderboardEntry](ctx, d, "leaderboard", args)
	})
}
