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
	itemsTable     = "marketplace_items"
	purchasesTable = "purchases"
)

type ItemInput struct {
	Name        string          `json:"name" validate:"required,max=200"`
	Slug        string          `json:"slug" validate:"required,slug"`
	Description string          `json:"description" validate:"max=5000"`
	Price       decimal.Decimal `json:"price"`
	// Stock is unlimited when nil.
	Stock    *int   `json:"stock" validate:"omitempty,min=0"`
	Active   bool   `json:"active"`
	ImageURL string `json:"image_url" validate:"omitempty,max=500"`
}

func (in ItemInput) validate() error {
	if err := validation.Struct(in); err != nil {
		return err
	}
	if in.Price.IsNegative() {
		return errs.NewBadRequestError("Validation failed",
			errs.FieldError{Field: "price", Error: "must not be negative"})
	}
	return nil
}

// Items lists marketplace items by name. Inactive items are only returned
// when asked for.
func (d *Data) Items(ctx context.Context, inactive bool) ([]model.MarketplaceItem, error) {
	return fetch(ctx, d, querySpec{
		key:     d.key(itemsTable, "list", strconv.FormatBool(inactive)),
		stale:   staleDefault,
		failure: "Could not load the marketplace",
	}, func(ctx context.Context) ([]model.MarketplaceItem, error) {
		tq := d.client.From(itemsTable).Order("name")
		if !inactive {
			tq.Is("active", true)
		}
		return selectRows[model.MarketplaceItem](ctx, tq)
	})
}

// Item returns the item with id, or nil.
func (d *Data) Item(ctx context.Context, id string) (*model.MarketplaceItem, error) {
	return fetch(ctx, d, querySpec{
		key:     d.key(itemsTable, "id", id),
		stale:   staleShort,
		failure: "Could not load the item",
	}, func(ctx context.Context) (*model.MarketplaceItem, error) {
		return selectOne[model.MarketplaceItem](ctx, d.client.From(itemsTable).Eq("id", id))
	})
}

func (d *Data) CreateItem(ctx context.Context, in ItemInput) (*model.MarketplaceItem, error) {
	return mutate(ctx, d, mutation{
		success:     "Item created",
		failure:     "Could not create the item",
		invalidates: []string{itemsTable},
	}, func(ctx context.Context) (*model.MarketplaceItem, error) {
		if err := in.validate(); err != nil {
			return nil, err
		}
		return insertRow[model.MarketplaceItem](ctx, d, itemsTable, in)
	})
}

func (d *Data) UpdateItem(ctx context.Context, id string, in ItemInput) (*model.MarketplaceItem, error) {
	return mutate(ctx, d, mutation{
		success:     "Item updated",
		failure:     "Could not update the item",
		invalidates: []string{itemsTable},
	}, func(ctx context.Context) (*model.MarketplaceItem, error) {
		if err := in.validate(); err != nil {
			return nil, err
		}
		return updateRow[model.MarketplaceItem](ctx, d, itemsTable, id, in)
	})
}

func (d *Data) DeleteItem(ctx context.Context, id string) error {
	_, err := mutate(ctx, d, mutation{
		success:     "Item deleted",
		failure:     "Could not delete the item",
		invalidates: []string{itemsTable},
	}, func(ctx context.Context) (struct{}, error) {
		return deleteRow(ctx, d, itemsTable, id)
	})
	return err
}

// Purchase buys quantity of an item with the caller's coins. Zero buys
// one.
func (d *Data) Purchase(ctx context.Context, itemID string, quantity int) (rpc.PurchaseResult, error) {
	if quantity == 0 {
		quantity = 1
	}
	res, err := mutate(ctx, d, mutation{
		failure:     "Could not complete the purchase",
		invalidates: []string{purchasesTable, itemsTable, profilesTable, coinTransactionsTable},
	}, func(ctx context.Context) (rpc.PurchaseResult, error) {
		args := rpc.PurchaseItemArgs{ItemID: itemID, Quantity: quantity}
		if err := validation.Struct(args); err != nil {
			return rpc.PurchaseResult{}, err
		}
		return call[rpc.PurchaseResult](ctx, d, "purchase_item", args)
	})
	if err != nil {
		return res, err
	}
	d.notify.Success(ctx, fmt.Sprintf("Purchase complete. Your balance is %s coins", res.Balance))
	return res, nil
}

// MyPurchases lists the caller's purchases, newest first.
func (d *Data) MyPurchases(ctx context.Context) ([]model.Purchase, error) {
	return fetch(ctx, d, querySpec{
		key:     d.key(purchasesTable, "me"),
		stale:   staleDefault,
		failure: "Could not load your purchases",
	}, func(ctx context.Context) ([]model.Purchase, error) {
		me, err := d.Me(ctx)
		if err != nil {
			return nil, err
		}
		return selectRows[model.Purchase](ctx, d.client.From(purchasesTable).
			Eq("profile_id", me.ID).Order("created_at", client.Descending()))
	})
}

// Purchases lists every purchase in the company. Admins only.
func (d *Data) Purchases(ctx context.Context, opts ListOptions) (Page[model.Purchase], error) {
	return fetch(ctx, d, querySpec{
		key:     d.key(purchasesTable, "list", opts.key()),
		stale:   staleDefault,
		failure: "Could not load purchases",
	}, func(ctx context.Context) (Page[model.Purchase], error) {
		return selectPage[model.Purchase](ctx, d.client.From(purchasesTable).Order("created_at", client.Descending()), opts)
	})
}
