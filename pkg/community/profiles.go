package community

import (
	"context"
	"fmt"

	"github.com/doodlesbykumbi/community-in-go/pkg/client"
	"github.com/doodlesbykumbi/community-in-go/pkg/model"
	"github.com/doodlesbykumbi/community-in-go/pkg/validation"
)

const profilesTable = "profiles"

type ProfileFilter struct {
	// Search matches display names and logins, case-insensitively.
	Search string
	Role   model.Role
	ListOptions
}

// ProfileUpdate holds the profile fields a member may change. Nil fields
// are left alone.
type ProfileUpdate struct {
	DisplayName *string `json:"display_name,omitempty" validate:"omitempty,max=100"`
	AvatarURL   *string `json:"avatar_url,omitempty" validate:"omitempty,max=500"`
	Bio         *string `json:"bio,omitempty" validate:"omitempty,max=2000"`
}

// Me returns the authenticated profile.
func (d *Data) Me(ctx context.Context) (*model.Profile, error) {
	login := d.client.Login()
	if login == "" {
		return nil, client.ErrNotAuthenticated
	}
	return fetch(ctx, d, querySpec{
		key:     d.key(profilesTable, "me", login),
		stale:   staleDefault,
		failure: "Could not load your profile",
	}, func(ctx context.Context) (*model.Profile, error) {
		p, err := selectOne[model.Profile](ctx, d.client.From(profilesTable).Eq("login", login))
		if err == nil && p == nil {
			err = fmt.Errorf("profile %q: %w", login, client.ErrNoRows)
		}
		return p, err
	})
}

// Profile returns the profile with id, or nil.
func (d *Data) Profile(ctx context.Context, id string) (*model.Profile, error) {
	return fetch(ctx, d, querySpec{
		key:     d.key(profilesTable, "id", id),
		stale:   staleDefault,
		failure: "Could not load the profile",
	}, func(ctx context.Context) (*model.Profile, error) {
		return selectOne[model.Profile](ctx, d.client.From(profilesTable).Eq("id", id))
	})
}

func (d *Data) Profiles(ctx context.Context, f ProfileFilter) (Page[model.Profile], error) {
	return fetch(ctx, d, querySpec{
		key:     d.key(profilesTable, "list", f.Search, string(f.Role), f.key()),
		stale:   staleDefault,
		failure: "Could not load members",
	}, func(ctx context.Context) (Page[model.Profile], error) {
		tq := d.client.From(profilesTable).Order("display_name").Order("login")
		if f.Search != "" {
			tq.ILike("display_name", "%"+f.Search+"%")
		}
		if f.Role != "" {
			tq.Eq("role", string(f.Role))
		}
		return selectPage[model.Profile](ctx, tq, f.ListOptions)
	})
}

// UpdateMyProfile changes the authenticated profile.
func (d *Data) UpdateMyProfile(ctx context.Context, u ProfileUpdate) (*model.Profile, error) {
	return mutate(ctx, d, mutation{
		success:     "Profile updated",
		failure:     "Could not update your profile",
		invalidates: []string{profilesTable},
	}, func(ctx context.Context) (*model.Profile, error) {
		if err := validation.Struct(u); err != nil {
			return nil, err
		}
		me, err := d.Me(ctx)
		if err != nil {
			return nil, err
		}
		return updateRow[model.Profile](ctx, d, profilesTable, me.ID, u)
	})
}

// SetRole changes a profile's role. Only owners may do this.
func (d *Data) SetRole(ctx context.Context, profileID string, role model.Role) (*model.Profile, error) {
	return mutate(ctx, d, mutation{
		success:     "Role updated",
		failure:     "Could not change the role",
		invalidates: []string{profilesTable},
	}, func(ctx context.Context) (*model.Profile, error) {
		if !role.Valid() {
			return nil, fmt.Errorf("%w: %q", model.ErrUnknownRole, role)
		}
		return updateRow[model.Profile](ctx, d, profilesTable, profileID, map[string]string{"role": string(role)})
	})
}
