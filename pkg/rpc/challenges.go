package rpc

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/doodlesbykumbi/community-in-go/pkg/model"
	gormstore "github.com/doodlesbykumbi/community-in-go/pkg/server/store/gorm"
)

const (
	sqlChallenge = `SELECT id, coins_reward, starts_at, ends_at FROM challenges WHERE company_id = ? AND id = ?`

	sqlJoinChallenge = `INSERT INTO challenge_participants (id, company_id, challenge_id, profile_id, joined_at) ` +
		`VALUES (?, ?, ?, ?, ?) ON CONFLICT (challenge_id, profile_id) DO NOTHING`

	sqlCompleteChallenge = `UPDATE challenge_participants SET completed_at = COALESCE(completed_at, ?), reward_awarded = true ` +
		`WHERE company_id = ? AND challenge_id = ? AND profile_id = ? AND NOT reward_awarded`

	sqlIsParticipant = `SELECT count(*) FROM challenge_participants ` +
		`WHERE company_id = ? AND challenge_id = ? AND profile_id = ?`
)

func loadChallenge(tx *gorm.DB, call *Call, id string) (*model.Challenge, error) {
	var rows []struct {
		ID          string     `gorm:"column:id"`
		CoinsReward int        `gorm:"column:coins_reward"`
		StartsAt    *time.Time `gorm:"column:starts_at"`
		EndsAt      *time.Time `gorm:"column:ends_at"`
	}
	if err := tx.Raw(sqlChallenge, call.company(), id).Scan(&rows).Error; err != nil {
		return nil, gormstore.Classify(err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	r := rows[0]
	return &model.Challenge{ID: r.ID, CoinsReward: r.CoinsReward, StartsAt: r.StartsAt, EndsAt: r.EndsAt}, nil
}

type JoinChallengeArgs struct {
	ChallengeID string `json:"challenge_id" validate:"required,uuid"`
}

type JoinChallengeResult struct {
	Joined        bool `json:"joined"`
	AlreadyJoined bool `json:"already_joined"`
}

var joinChallenge = define("join_challenge",
	"Enter the caller into an open challenge.",
	model.RoleMember,
	[]string{"challenge_participants"},
	func(tx *gorm.DB, call *Call, args *JoinChallengeArgs) (interface{}, error) {
		challenge, err := loadChallenge(tx, call, args.ChallengeID)
		if err != nil {
			return nil, err
		}
		if !challenge.IsOpen(call.Now) {
			return nil, ErrChallengeClosed
		}
		res := tx.Exec(sqlJoinChallenge, uuid.NewString(), call.company(), challenge.ID, call.ProfileID, call.Now)
		if res.Error != nil {
			return nil, gormstore.Classify(res.Error)
		}
		return &JoinChallengeResult{Joined: true, AlreadyJoined: res.RowsAffected == 0}, nil
	})

type CompleteChallengeArgs struct {
	ChallengeID string `json:"challenge_id" validate:"required,uuid"`
	ProfileID   string `json:"profile_id" validate:"required,uuid"`
}

type CompleteChallengeResult struct {
	CoinsAwarded     decimal.Decimal `json:"coins_awarded"`
	AlreadyCompleted bool            `json:"already_completed"`
}

var completeChallenge = define("complete_challenge",
	"Mark a participant's challenge complete and award its coins once.",
	model.RoleModerator,
	[]string{"challenge_participants", "profiles", "coin_transactions"},
	func(tx *gorm.DB, call *Call, args *CompleteChallengeArgs) (interface{}, error) {
		challenge, err := loadChallenge(tx, call, args.ChallengeID)
		if err != nil {
			return nil, err
		}
		res := tx.Exec(sqlCompleteChallenge, call.Now, call.company(), challenge.ID, args.ProfileID)
		if res.Error != nil {
			return nil, gormstore.Classify(res.Error)
		}
		if res.RowsAffected == 0 {
			var n int64
			if err := tx.Raw(sqlIsParticipant, call.company(), challenge.ID, args.ProfileID).Scan(&n).Error; err != nil {
				return nil, gormstore.Classify(err)
			}
			if n == 0 {
				return nil, ErrNotParticipant
			}
			return &CompleteChallengeResult{CoinsAwarded: decimal.Zero, AlreadyCompleted: true}, nil
		}

		reward := decimal.NewFromInt(int64(challenge.CoinsReward))
		if reward.IsPositive() {
			if _, err := addCoins(tx, call, args.ProfileID, reward, "challenge_completed:"+challenge.ID); err != nil {
				return nil, err
			}
		}
		return &CompleteChallengeResult{CoinsAwarded: reward}, nil
	})
