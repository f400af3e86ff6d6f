package payloads

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/zepzep/zepzep-backend/pkg/enums"
)

// OrderPlacedItem is one line of an OrderPlacedEvent.
type OrderPlacedItem struct {
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// OrderPlacedEvent is emitted when an order commits.
type OrderPlacedEvent struct {
	OrderID         uuid.UUID           `json:"order_id"`
	CustomerID      uuid.UUID           `json:"customer_id"`
	ShopID          uuid.UUID           `json:"shop_id"`
	TotalAmount     decimal.Decimal     `json:"total_amount"`
	DeliveryFee     decimal.Decimal     `json:"delivery_fee"`
	PaymentMethod   enums.PaymentMethod `json:"payment_method"`
	ZepPointsEarned int64               `json:"zep_points_earned"`
	Items           []OrderPlacedItem   `json:"items"`
}

// PointsRedeemedEvent is emitted when a redemption is recorded.
type PointsRedeemedEvent struct {
	RedemptionID    uuid.UUID `json:"redemption_id"`
	UserID          uuid.UUID `json:"user_id"`
	Points          int64     `json:"points"`
	RewardType      string    `json:"reward_type"`
	RemainingPoints int64     `json:"remaining_points"`
}

// TrustScoreChangedEvent is emitted by the refresh job when a cached score moves.
type TrustScoreChangedEvent struct {
	UserID        uuid.UUID        `json:"user_id"`
	PreviousScore decimal.Decimal  `json:"previous_score"`
	Score         decimal.Decimal  `json:"score"`
	Level         enums.TrustLevel `json:"level"`
}
