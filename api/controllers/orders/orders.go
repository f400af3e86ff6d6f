package orders

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/zepzep/zepzep-backend/api/responses"
	"github.com/zepzep/zepzep-backend/api/validators"
	internalorders "github.com/zepzep/zepzep-backend/internal/orders"
	"github.com/zepzep/zepzep-backend/pkg/logger"
)

const placedMessage = "Order placed successfully"

type placeItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"gt=0"`
}

type placeOrderRequest struct {
	CustomerID      uuid.UUID          `json:"customer_id" validate:"required"`
	ShopID          uuid.UUID          `json:"shop_id" validate:"required"`
	Items           []placeItemRequest `json:"items" validate:"required,min=1,max=100,dive"`
	DeliveryAddress string             `json:"delivery_address" validate:"required,notblank,max=500"`
	PaymentMethod   string             `json:"payment_method,omitempty" validate:"omitempty,payment_method"`
}

type placeOrderResponse struct {
	Success         bool        `json:"success"`
	OrderID         uuid.UUID   `json:"order_id"`
	TotalAmount     json.Number `json:"total_amount"`
	DeliveryFee     json.Number `json:"delivery_fee"`
	ZepPointsEarned int64       `json:"zep_points_earned"`
	Message         string      `json:"message"`
}

// Place runs the order engine for one checkout.
func Place(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := validators.DecodeJSON[placeOrderRequest](r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := internalorders.PlaceOrderInput{
			CustomerID:      req.CustomerID,
			ShopID:          req.ShopID,
			Items:           make([]internalorders.ItemRequest, 0, len(req.Items)),
			DeliveryAddress: req.DeliveryAddress,
			PaymentMethod:   req.PaymentMethod,
		}
		for _, item := range req.Items {
			input.Items = append(input.Items, internalorders.ItemRequest{ProductID: item.ProductID, Quantity: item.Quantity})
		}

		receipt, err := svc.PlaceOrder(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteOK(w, placeOrderResponse{
			Success:         true,
			OrderID:         receipt.OrderID,
			TotalAmount:     responses.Money(receipt.TotalAmount),
			DeliveryFee:     responses.Money(receipt.DeliveryFee),
			ZepPointsEarned: receipt.ZepPointsEarned,
			Message:         placedMessage,
		})
	}
}

type trackedOrderView struct {
	ID              uuid.UUID   `json:"id"`
	Status          string      `json:"status"`
	ShopID          uuid.UUID   `json:"shop_id"`
	ShopName        string      `json:"shop_name"`
	DriverName      *string     `json:"driver_name"`
	DriverPhone     *string     `json:"driver_phone"`
	TotalAmount     json.Number `json:"total_amount"`
	DeliveryFee     json.Number `json:"delivery_fee"`
	PaymentMethod   string      `json:"payment_method"`
	PaymentStatus   string      `json:"payment_status"`
	DeliveryAddress string      `json:"delivery_address"`
	CreatedAt       time.Time   `json:"created_at"`
}

type trackedItemView struct {
	ProductID   uuid.UUID   `json:"product_id"`
	ProductName string      `json:"product_name"`
	Quantity    int         `json:"quantity"`
	UnitPrice   json.Number `json:"unit_price"`
}

type trackResponse struct {
	Order         trackedOrderView  `json:"order"`
	Items         []trackedItemView `json:"items"`
	EstimatedTime string            `json:"estimated_time"`
}

// Track returns the order with its shop, driver and frozen line prices.
func Track(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		tracked, err := svc.Track(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteOK(w, toTrackResponse(tracked))
	}
}

func toTrackResponse(t *internalorders.TrackedOrder) trackResponse {
	order := trackedOrderView{
		ID:              t.ID,
		Status:          string(t.Status),
		ShopID:          t.ShopID,
		ShopName:        t.ShopName,
		TotalAmount:     responses.Money(t.TotalAmount),
		DeliveryFee:     responses.Money(t.DeliveryFee),
		PaymentMethod:   string(t.PaymentMethod),
		PaymentStatus:   string(t.PaymentStatus),
		DeliveryAddress: t.DeliveryAddress,
		CreatedAt:       t.CreatedAt,
	}
	if t.Driver != nil {
		order.DriverName = &t.Driver.Name
		order.DriverPhone = &t.Driver.Phone
	}
	items := make([]trackedItemView, 0, len(t.Items))
	for _, item := range t.Items {
		items = append(items, trackedItemView{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   responses.Money(item.UnitPrice),
		})
	}
	return trackResponse{Order: order, Items: items, EstimatedTime: t.EstimatedTime}
}
