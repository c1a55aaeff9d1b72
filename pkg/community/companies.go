package community

import (
	"context"

	"github.com/doodlesbykumbi/community-in-go/pkg/model"
	"github.com/doodlesbykumbi/community-in-go/pkg/validation"
)

const brandingTable = "company_branding"

type BrandingInput struct {
	PrimaryColor   string `json:"primary_color" validate:"omitempty,hexcolor"`
	LogoURL        string `json:"logo_url" validate:"omitempty,url"`
	WelcomeMessage string `json:"welcome_message" validate:"max=2000"`
}

// Branding returns the company's look and feel, or nil when it was never
// set.
func (d *Data) Branding(ctx context.Context) (*model.CompanyBranding, error) {
	return fetch(ctx, d, querySpec{
		key:     d.key(brandingTable),
		stale:   staleLong,
		failure: "Could not load the company branding",
	}, func(ctx context.Context) (*model.CompanyBranding, error) {
		return selectOne[model.CompanyBranding](ctx, d.client.From(brandingTable))
	})
}

// UpdateBranding creates or replaces the company's branding.
func (d *Data) UpdateBranding(ctx context.Context, in BrandingInput) (*model.CompanyBranding, error) {
	return mutate(ctx, d, mutation{
		success:     "Branding saved",
		failure:     "Could not save the branding",
		invalidates: []string{brandingTable},
	}, func(ctx context.Context) (*model.CompanyBranding, error) {
		if err := validation.Struct(in); err != nil {
			return nil, err
		}
		existing, err := selectOne[model.CompanyBranding](ctx, d.client.From(brandingTable).Select("id"))
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return insertRow[model.CompanyBranding](ctx, d, brandingTable, in)
		}
		return updateRow[model.CompanyBranding](ctx, d, brandingTable, existing.ID, in)
	})
}
