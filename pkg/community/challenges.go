package community

import (
	"context"
	"time"

	"github.com/doodlesbykumbi/community-in-go/pkg/client"
	"github.com/doodlesbykumbi/community-in-go/pkg/errs"
	"github.com/doodlesbykumbi/community-in-go/pkg/model"
	"github.com/doodlesbykumbi/community-in-go/pkg/rpc"
	"github.com/doodlesbykumbi/community-in-go/pkg/validation"
)

const (
	challengesTable   = "challenges"
	participantsTable = "challenge_participants"
)

type ChallengeInput struct {
	Title       string     `json:"title" validate:"required,max=200"`
	Slug        string     `json:"slug" validate:"required,slug"`
	Description string     `json:"description" validate:"max=5000"`
	CoinsReward int        `json:"coins_reward" validate:"min=0"`
	StartsAt    *time.Time `json:"starts_at,omitempty"`
	EndsAt      *time.Time `json:"ends_at,omitempty"`
}

func (in ChallengeInput) validate() error {
	if err := validation.Struct(in); err != nil {
		return err
	}
	if in.StartsAt != nil && in.EndsAt != nil && in.EndsAt.Before(*in.StartsAt) {
		return errs.NewBadRequestError("Validation failed",
			errs.FieldError{Field: "ends_at", Error: "must be after starts_at"})
	}
	return nil
}

// Challenges lists challenges, most recently started first.
func (d *Data) Challenges(ctx context.Context) ([]model.Challenge, error) {
	return fetch(ctx, d, querySpec{
		key:     d.key(challengesTable, "list"),
		stale:   staleDefault,
		failure: "Could not load challenges",
	}, func(ctx context.Context) ([]model.Challenge, error) {
		return selectRows[model.Challenge](ctx, d.client.From(challengesTable).
			Order("starts_at", client.Descending(), client.NullsLast()).Order("title"))
	})
}

// Challenge returns the challenge with id, or nil.
func (d *Data) Challenge(ctx context.Context, id string) (*model.Challenge, error) {
	return fetch(ctx, d, querySpec{
		key:     d.key(challengesTable, "id", id),
		stale:   staleDefault,
		failure: "Could not load the challenge",
	}, func(ctx context.Context) (*model.Challenge, error) {
		return selectOne[model.Challenge](ctx, d.client.From(challengesTable).Eq("id", id))
	})
}

func (d *Data) Participants(ctx context.Context, challengeID string) ([]model.ChallengeParticipant, error) {
	return fetch(ctx, d, querySpec{
		key:     d.key(participantsTable, "challenge", challengeID),
		stale:   staleShort,
		failure: "Could not load the participants",
	}, func(ctx context.Context) ([]model.ChallengeParticipant, error) {
		return selectRows[model.ChallengeParticipant](ctx, d.client.From(participantsTable).
			Eq("challenge_id", challengeID).Order("joined_at"))
	})
}

func (d *Data) CreateChallenge(ctx context.Context, in ChallengeInput) (*model.Challenge, error) {
	return mutate(ctx, d, mutation{
		success:     "Challenge created",
		failure:     "Could not create the challenge",
		invalidates: []string{challengesTable},
	}, func(ctx context.Context) (*model.Challenge, error) {
		if err := in.validate(); err != nil {
			return nil, err
		}
		return insertRow[model.Challenge](ctx, d, challengesTable, in)
	})
}

func (d *Data) UpdateChallenge(ctx context.Context, id string, in ChallengeInput) (*model.Challenge, error) {
	return mutate(ctx, d, mutation{
		success:     "Challenge updated",
		failure:     "Could not update the challenge",
		invalidates: []string{challengesTable},
	}, func(ctx context.Context) (*model.Challenge, error) {
		if err := in.validate(); err != nil {
			return nil, err
		}
		return updateRow[model.Challenge](ctx, d, challengesTable, id, in)
	})
}

func (d *Data) DeleteChallenge(ctx context.Context, id string) error {
	_, err := mutate(ctx, d, mutation{
		success:     "Challenge deleted",
		failure:     "Could not delete the challenge",
		invalidates: []string{challengesTable, participantsTable},
	}, func(ctx context.Context) (struct{}, error) {
		return deleteRow(ctx, d, challengesTable, id)
	})
	return err
}

// JoinChallenge enters the caller into a challenge. Joining twice is not an
// error.
func (d *Data) JoinChallenge(ctx context.Context, challengeID string) (rpc.JoinChallengeResult, error) {
	res, err := mutate(ctx, d, mutation{
		failure:     "Could not join the challenge",
		invalidates: []string{participantsTable},
	}, func(ctx context.Context) (rpc.JoinChallengeResult, error) {
		return call[rpc.JoinChallengeResult](ctx, d, "join_challenge", rpc.JoinChallengeArgs{ChallengeID: challengeID})
	})
	if err != nil {
		return res, err
	}
	if res.AlreadyJoined {
		d.notify.Success(ctx, "You are already taking part in this challenge")
	} else {
		d.notify.Success(ctx, "You joined the challenge")
	}
	return res, nil
}

// CompleteChallenge marks a participant done and awards the challenge's
// coins once. Moderators only.
func (d *Data) CompleteChallenge(ctx context.Context, challengeID, profileID string) (rpc.CompleteChallengeResult, error) {
	return mutate(ctx, d, mutation{
		success:     "Challenge completed",
		failure:     "Could not complete the challenge",
		invalidates: []string{participantsTable, profilesTable, coinTransactionsTable},
	}, func(ctx context.Context) (rpc.CompleteChallengeResult, error) {
		return call[rpc.CompleteChallengeResult](ctx, d, "complete_challenge",
			rpc.CompleteChallengeArgs{ChallengeID: challengeID, ProfileID: profileID})
	})
}
