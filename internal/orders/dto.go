package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/zepzep/zepzep-backend/pkg/enums"
)

// ItemRequest is one requested line.
type ItemRequest struct {
	ProductID uuid.UUID
	Quantity  int
}

// PlaceOrderInput carries a customer's order. PaymentMethod may be blank and
// then defaults to cash.
type PlaceOrderInput struct {
	CustomerID      uuid.UUID
	ShopID          uuid.UUID
	Items           []ItemRequest
	DeliveryAddress string
	PaymentMethod   string
}

// Receipt summarizes a committed order.
type Receipt struct {
	OrderID         uuid.UUID
	TotalAmount     decimal.Decimal
	DeliveryFee     decimal.Decimal
	ZepPointsEarned int64
}

// TrackedItem is an order line as shown to the customer.
type TrackedItem struct {
	ProductID   uuid.UUID       `gorm:"column:product_id"`
	ProductName string          `gorm:"column:product_name"`
	Quantity    int             `gorm:"column:quantity"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price"`
}

// DriverContact is present once a driver is assigned.
type DriverContact struct {
	Name  string
	Phone string
}

// TrackedOrder is the tracking view of an order.
type TrackedOrder struct {
	ID              uuid.UUID
	Status          enums.OrderStatus
	ShopID          uuid.UUID
	ShopName        string
	Driver          *DriverContact
	TotalAmount     decimal.Decimal
	DeliveryFee     decimal.Decimal
	PaymentMethod   enums.PaymentMethod
	PaymentStatus   enums.PaymentStatus
	DeliveryAddress string
	CreatedAt       time.Time
	Items           []TrackedItem
	EstimatedTime   string
}
