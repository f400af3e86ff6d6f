package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zepzep/zepzep-backend/pkg/enums"
)

// Tenant is a business on the marketplace. Orders reference shops by tenant id.
type Tenant struct {
	ID               uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	BusinessName     string           `gorm:"column:business_name;not null"`
	Type             enums.TenantType `gorm:"column:type;type:tenant_type;not null;default:'shop'"`
	LocationLat      *float64         `gorm:"column:location_lat;type:numeric(9,6)"`
	LocationLng      *float64         `gorm:"column:location_lng;type:numeric(9,6)"`
	SubscriptionTier string           `gorm:"column:subscription_tier;not null;default:'free'"`
	CreatedAt        time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (t *Tenant) BeforeCreate(*gorm.DB) error {
	assignID(&t.ID)
	return nil
}
