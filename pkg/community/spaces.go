package community

import (
	"context"

	"github.com/doodlesbykumbi/community-in-go/pkg/model"
	"github.com/doodlesbykumbi/community-in-go/pkg/validation"
)

const spacesTable = "spaces"

type SpaceInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	Slug        string `json:"slug" validate:"required,slug"`
	Description string `json:"description" validate:"max=2000"`
	Visibility  string `json:"visibility,omitempty" validate:"omitempty,oneof=public private"`
	Position    int    `json:"position" validate:"min=0"`
}

func (d *Data) Spaces(ctx context.Context) ([]model.Space, error) {
	return fetch(ctx, d, querySpec{
		key:     d.key(spacesTable, "list"),
		stale:   staleLong,
		failure: "Could not load spaces",
	}, func(ctx context.Context) ([]model.Space, error) {
		return selectRows[model.Space](ctx, d.client.From(spacesTable).Order("position").Order("name"))
	})
}

// Space returns the space with slug, or nil.
func (d *Data) Space(ctx context.Context, slug string) (*model.Space, error) {
	return fetch(ctx, d, querySpec{
		key:     d.key(spacesTable, "slug", slug),
		stale:   staleLong,
		failure: "Could not load the space",
	}, func(ctx context.Context) (*model.Space, error) {
		return selectOne[model.Space](ctx, d.client.From(spacesTable).Eq("slug", slug))
	})
}

func (d *Data) CreateSpace(ctx context.Context, in SpaceInput) (*model.Space, error) {
	return mutate(ctx, d, mutation{
		success:     "Space created",
		failure:     "Could not create the space",
		invalidates: []string{spacesTable},
	}, func(ctx context.Context) (*model.Space, error) {
		if err := validation.Struct(in); err != nil {
			return nil, err
		}
		return insertRow[model.Space](ctx, d, spacesTable, in)
	})
}

func (d *Data) UpdateSpace(ctx context.Context, id string, in SpaceInput) (*model.Space, error) {
	return mutate(ctx, d, mutation{
		success:     "Space updated",
		failure:     "Could not update the space",
		invalidates: []string{spacesTable},
	}, func(ctx context.Context) (*model.Space, error) {
		if err := validation.Struct(in); err != nil {
			return nil, err
		}
		return updateRow[model.Space](ctx, d, spacesTable, id, in)
	})
}

// DeleteSpace removes a space with its posts and comments.
func (d *Data) DeleteSpace(ctx context.Context, id string) error {
	_, err := mutate(ctx, d, mutation{
		success:     "Space deleted",
		failure:     "Could not delete the space",
		invalidates: []string{spacesTable, postsTable, commentsTable, accessGroupSpacesTable},
	}, func(ctx context.Context) (struct{}, error) {
		return deleteRow(ctx, d, spacesTable, id)
	})
	return err
}
