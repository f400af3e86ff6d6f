package shops

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/zepzep/zepzep-backend/pkg/db/models"
)

// ShopDTO is the public view of a shop tenant.
type ShopDTO struct {
	ID               uuid.UUID `json:"id"`
	BusinessName     string    `json:"business_name"`
	LocationLat      *float64  `json:"location_lat,omitempty"`
	LocationLng      *float64  `json:"location_lng,omitempty"`
	SubscriptionTier string    `json:"subscription_tier"`
}

func FromModel(t *models.Tenant) *ShopDTO {
	if t == nil {
		return nil
	}
	return &ShopDTO{
		ID:               t.ID,
		BusinessName:     t.BusinessName,
		LocationLat:      t.LocationLat,
		LocationLng:      t.LocationLng,
		SubscriptionTier: t.SubscriptionTier,
	}
}

// NearbyShop is a shop plus its great-circle distance from the query point.
// DistanceKm is nil when no point was given.
type NearbyShop struct {
	ShopDTO
	DistanceKm *float64 `json:"distance_km,omitempty"`
}

// InventoryItem is one product as stocked and priced by a shop.
type InventoryItem struct {
	ProductID    uuid.UUID       `json:"product_id"`
	Name         string          `json:"name"`
	Category     string          `json:"category"`
	Quantity     int             `json:"quantity"`
	SellingPrice decimal.Decimal `json:"selling_price"`
	CreatedAt    time.Time       `json:"-"`
}
