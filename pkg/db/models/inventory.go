package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Inventory is the stock of one product at one shop. Version increments on
// every decrement and guards the compare-and-swap update.
type Inventory struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	ProductID    uuid.UUID       `gorm:"column:product_id;type:uuid;not null;uniqueIndex:idx_inventory_product_tenant"`
	TenantID     uuid.UUID       `gorm:"column:tenant_id;type:uuid;not null;uniqueIndex:idx_inventory_product_tenant"`
	Quantity     int             `gorm:"column:quantity;not null;default:0;check:quantity >= 0"`
	SellingPrice decimal.Decimal `gorm:"column:selling_price;type:numeric(12,2);not null;check:selling_price > 0"`
	Version      int64           `gorm:"column:version;not null;default:0"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (Inventory) TableName() string {
	return "inventory"
}

func (i *Inventory) BeforeCreate(*gorm.DB) error {
	assignID(&i.ID)
	return nil
}
