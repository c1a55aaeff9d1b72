package rpc

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/doodlesbykumbi/community-in-go/pkg/model"
	gormstore "github.com/doodlesbykumbi/community-in-go/pkg/server/store/gorm"
)

const (
	sqlItemForUpdate = `SELECT id, price, stock, active FROM marketplace_items ` +
		`WHERE company_id = ? AND id = ? FOR UPDATE`

	sqlDecrementStock = `UPDATE marketplace_items SET stock = stock - ? WHERE company_id = ? AND id = ?`

	sqlInsertPurchase = `INSERT INTO purchases (id, company_id, item_id, profile_id, quantity, unit_price, total_price) ` +
		`VALUES (?, ?, ?, ?, ?, ?, ?)`
)

type PurchaseItemArgs struct {
	ItemID   string `json:"item_id" validate:"required,uuid"`
	Quantity int    `json:"quantity" validate:"min=1,max=1000"`
}

func (a *PurchaseItemArgs) defaults() {
	if a.Quantity == 0 {
		a.Quantity = 1
	}
}

type PurchaseResult struct {
	PurchaseID string          `json:"purchase_id"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Balance    decimal.Decimal `json:"balance"`
}

var purchaseItem = define("purchase_item",
	"Buy a marketplace item with the caller's coins.",
	model.RoleMember,
	[]string{"purchases", "coin_transactions", "profiles", "marketplace_items"},
	func(tx *gorm.DB, call *Call, args *PurchaseItemArgs) (interface{}, error) {
		var items []model.MarketplaceItem
		if err := tx.Raw(sqlItemForUpdate, call.company(), args.ItemID).Scan(&items).Error; err != nil {
			return nil, gormstore.Classify(err)
		}
		if len(items) == 0 {
			return nil, ErrNotFound
		}
		item := items[0]
		if !item.Active {
			return nil, ErrItemUnavailable
		}
		if !item.InStock(args.Quantity) {
			return nil, ErrOutOfStock
		}

		total := item.Price.Mul(decimal.NewFromInt(int64(args.Quantity)))
		balance, err := addCoins(tx, call, call.ProfileID, total.Neg(), "purchase:"+item.ID)
		if err != nil {
			return nil, err
		}

		if item.Stock != nil {
			if err := tx.Exec(sqlDecrementStock, args.Quantity, call.company(), item.ID).Error; err != nil {
				return nil, gormstore.Classify(err)
			}
		}

		purchaseID := uuid.NewString()
		err = tx.Exec(sqlInsertPurchase, purchaseID, call.company(), item.ID, call.ProfileID,
			args.Quantity, item.Price.String(), total.String()).Error
		if err != nil {
			return nil, gormstore.Classify(err)
		}
		return &PurchaseResult{PurchaseID: purchaseID, TotalPrice: total, Balance: balance}, nil
	})
