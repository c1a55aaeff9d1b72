package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// MarketplaceItem is something profiles can buy with coins. A nil Stock
// means unlimited.
type MarketplaceItem struct {
	ID          string          `gorm:"column:id;primaryKey" json:"id"`
	CompanyID   string          `gorm:"column:company_id;not null" json:"company_id"`
	Name        string          `gorm:"column:name;not null" json:"name"`
	Slug        string          `gorm:"column:slug;not null" json:"slug"`
	Description string          `gorm:"column:description" json:"description"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(12,2)" json:"price"`
	Stock       *int            `gorm:"column:stock" json:"stock"`
	Active      bool            `gorm:"column:active" json:"active"`
	ImageURL    string          `gorm:"column:image_url" json:"image_url"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (MarketplaceItem) TableName() string {
	return "marketplace_items"
}

// InStock reports whether quantity units can be sold.
func (i *MarketplaceItem) InStock(quantity int) bool {
	return i.Stock == nil || *i.Stock >= quantity
}

type Purchase struct {
	ID         string          `gorm:"column:id;primaryKey" json:"id"`
	CompanyID  string          `gorm:"column:company_id;not null" json:"company_id"`
	ItemID     string          `gorm:"column:item_id;not null" json:"item_id"`
	ProfileID  string          `gorm:"column:profile_id;not null" json:"profile_id"`
	Quantity   int             `gorm:"column:quantity;not null" json:"quantity"`
	UnitPrice  decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2)" json:"unit_price"`
	TotalPrice decimal.Decimal `gorm:"column:total_price;type:numeric(12,2)" json:"total_price"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Purchase) TableName() string {
	return "purchases"
}
