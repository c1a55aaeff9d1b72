package rpc

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/doodlesbykumbi/community-in-go/pkg/query"
	"github.com/doodlesbykumbi/community-in-go/pkg/schema"
	gormstore "github.com/doodlesbykumbi/community-in-go/pkg/server/store/gorm"
)

const (
	sqlAddXP      = `UPDATE profiles SET xp = GREATEST(xp + ?, 0) WHERE company_id = ? AND id = ? RETURNING xp`
	sqlLevelForXP = `SELECT COALESCE(max(level), 0) FROM levels WHERE company_id = ? AND min_xp <= ?`
	sqlSetLevel   = `UPDATE profiles SET level = ? WHERE company_id = ? AND id = ?`

	sqlAddCoins = `UPDATE profiles SET coins = coins + ? ` +
		`WHERE company_id = ? AND id = ? AND coins + ? >= 0 RETURNING coins`

	sqlInsertCoinTransaction = `INSERT INTO coin_transactions (id, company_id, profile_id, amount, reason) ` +
		`VALUES (?, ?, ?, ?, ?)`

	sqlCourseProgress = `SELECT ` +
		`(SELECT count(*) FROM lessons WHERE company_id = ? AND course_id = ?) AS total, ` +
		`(SELECT count(*) FROM lesson_progress lp JOIN lessons l ON l.id = lp.lesson_id ` +
		`WHERE lp.company_id = ? AND lp.profile_id = ? AND l.course_id = ?) AS done`
)

// existsSQL returns the statement counting the row id of table in a company.
func existsSQL(table string) string {
	return `SELECT count(*) FROM ` + query.Quote(table) +
		` WHERE ` + query.Quote(schema.TenantColumn) + ` = ? AND ` + query.Quote(schema.PrimaryKey) + ` = ?`
}

func exists(tx *gorm.DB, call *Call, table, id string) error {
	var n int64
	if err := tx.Raw(existsSQL(table), call.company(), id).Scan(&n).Error; err != nil {
		return gormstore.Classify(err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s %s", ErrNotFound, table, id)
	}
	return nil
}

// addCoins changes a profile's balance and records the transaction. The
// balance never goes negative.
func addCoins(tx *gorm.DB, call *Call, profileID string, amount decimal.Decimal, reason string) (decimal.Decimal, error) {
	var balances []struct {
		Coins decimal.Decimal `gorm:"column:coins"`
	}
	err := tx.Raw(sqlAddCoins, amount.String(), call.company(), profileID, amount.String()).Scan(&balances).Error
	if err != nil {
		return decimal.Zero, gormstore.Classify(err)
	}
	if len(balances) == 0 {
		if err := exists(tx, call, "profiles", profileID); err != nil {
			return decimal.Zero, err
		}
		return decimal.Zero, ErrInsufficientCoins
	}

	err = tx.Exec(sqlInsertCoinTransaction,
		uuid.NewString(), call.company(), profileID, amount.String(), reason).Error
	if err != nil {
		return decimal.Zero, gormstore.Classify(err)
	}
	return balances[0].Coins, nil
}

// addXP changes a profile's xp and moves it to the highest level it
// qualifies for.
func addXP(tx *gorm.DB, call *Call, profileID string, amount int) (xp, level int, err error) {
	var rows []struct {
		XP int `gorm:"column:xp"`
	}
	if err := tx.Raw(sqlAddXP, amount, call.company(), profileID).Scan(&rows).Error; err != nil {
		return 0, 0, gormstore.Classify(err)
	}
	if len(rows) == 0 {
		return 0, 0, fmt.Errorf("%w: profile %s", ErrNotFound, profileID)
	}
	xp = rows[0].XP

	if err := tx.Raw(sqlLevelForXP, call.company(), xp).Scan(&level).Error; err != nil {
		return 0, 0, gormstore.Classify(err)
	}
	if err := tx.Exec(sqlSetLevel, level, call.company(), profileID).Error; err != nil {
		return 0, 0, gormstore.Classify(err)
	}
	return xp, level, nil
}

type progress struct {
	Total int `gorm:"column:total" json:"lessons_total"`
	Done  int `gorm:"column:done" json:"lessons_done"`
}

func (p progress) complete() bool {
	return p.Total > 0 && p.Done >= p.Total
}

func courseProgress(tx *gorm.DB, call *Call, profileID, courseID string) (progress, error) {
	var p progress
	err := tx.Raw(sqlCourseProgress,
		call.company(), courseID, call.company(), profileID, courseID).Scan(&p).Error
	if err != nil {
		return progress{}, gormstore.Classify(err)
	}
	return p, nil
}

// nextStreak applies one day of activity to a streak. Activity on the same
// day changes nothing, on the following day extends the streak, and after a
// gap starts it over.
func nextStreak(current, longest int, last *time.Time, today time.Time) (int, int, bool) {
	day := truncateDay(today)
	if last != nil {
		prev := truncateDay(*last)
		switch {
		case prev.Equal(day):
			return current, longest, false
		case prev.AddDate(0, 0, 1).Equal(day):
			current++
		default:
			current = 1
		}
	} else {
		current = 1
	}
	if current > longest {
		longest = current
	}
	return current, longest, true
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// uniq drops duplicates while keeping order.
func uniq(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
