package orders

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	internalorders "github.com/zepzep/zepzep-backend/internal/orders"
	"github.com/zepzep/zepzep-backend/pkg/enums"
	pkgerrors "github.com/zepzep/zepzep-backend/pkg/errors"
	"github.com/zepzep/zepzep-backend/pkg/logger"
)

type stubOrders struct {
	input   internalorders.PlaceOrderInput
	receipt *internalorders.Receipt
	tracked *internalorders.TrackedOrder
	err     error
}

func (s *stubOrders) PlaceOrder(_ context.Context, input internalorders.PlaceOrderInput) (*internalorders.Receipt, error) {
	s.input = input
	return s.receipt, s.err
}

func (s *stubOrders) Track(context.Context, uuid.UUID) (*internalorders.TrackedOrder, error) {
	return s.tracked, s.err
}

func TestPlaceReturnsReceipt(t *testing.T) {
	customer, shop, product := uuid.New(), uuid.New(), uuid.New()
	orderID := uuid.New()
	svc := &stubOrders{receipt: &internalorders.Receipt{
		OrderID:         orderID,
		TotalAmount:     decimal.RequireFromString("131.48"),
		DeliveryFee:     decimal.NewFromInt(20),
		ZepPointsEarned: 13,
	}}
	body := `{"customer_id":"` + customer.String() + `","shop_id":"` + shop.String() +
		`","items":[{"product_id":"` + product.String() + `","quantity":2}],"delivery_address":"12 Vilakazi St"}`

	w := httptest.NewRecorder()
	Place(svc, logger.Nop()).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{
		"success": true,
		"order_id": "`+orderID.String()+`",
		"total_amount": 131.48,
		"delivery_fee": 20.00,
		"zep_points_earned": 13,
		"message": "Order placed successfully"
	}`, w.Body.String())
	require.Equal(t, customer, svc.input.CustomerID)
	require.Equal(t, []internalorders.ItemRequest{{ProductID: product, Quantity: 2}}, svc.input.Items)
	require.Empty(t, svc.input.PaymentMethod)
}

func TestPlaceRejectsInvalidBody(t *testing.T) {
	svc := &stubOrders{}
	body := `{"customer_id":"` + uuid.NewString() + `","shop_id":"` + uuid.NewString() + `","items":[],"delivery_address":"x"}`

	w := httptest.NewRecorder()
	Place(svc, logger.Nop()).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body)))

	require.Equal(t, http.StatusBadRequest, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "VALIDATION_ERROR", resp["code"])
	require.Contains(t, resp["details"], "items")
}

func TestPlaceMapsInsufficientStock(t *testing.T) {
	svc := &stubOrders{err: pkgerrors.New(pkgerrors.CodeInsufficientStock, "Insufficient stock for Bread").
		WithDetails(map[string]any{"available": 1, "requested": 2})}
	body := `{"customer_id":"` + uuid.NewString() + `","shop_id":"` + uuid.NewString() +
		`","items":[{"product_id":"` + uuid.NewString() + `","quantity":2}],"delivery_address":"x","payment_method":"cash"}`

	w := httptest.NewRecorder()
	Place(svc, logger.Nop()).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body)))

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), `"error":"Insufficient stock for Bread"`)
	require.Contains(t, w.Body.String(), `"code":"INSUFFICIENT_STOCK"`)
}

func trackRequest(orderID string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+orderID+"/track", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("orderId", orderID)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestTrackRendersOrderAndItems(t *testing.T) {
	orderID, productID := uuid.New(), uuid.New()
	svc := &stubOrders{tracked: &internalorders.TrackedOrder{
		ID:            orderID,
		Status:        enums.OrderStatusPending,
		ShopName:      "Corner Spaza",
		Driver:        &internalorders.DriverContact{Name: "Thabo", Phone: "+27820000000"},
		TotalAmount:   decimal.RequireFromString("57.98"),
		DeliveryFee:   decimal.NewFromInt(20),
		PaymentMethod: enums.PaymentMethodCash,
		PaymentStatus: enums.PaymentStatusPending,
		CreatedAt:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Items: []internalorders.TrackedItem{
			{ProductID: productID, ProductName: "Bread", Quantity: 2, UnitPrice: decimal.RequireFromString("18.99")},
		},
		EstimatedTime: "25-40 minutes",
	}}

	w := httptest.NewRecorder()
	Track(svc, logger.Nop()).ServeHTTP(w, trackRequest(orderID.String()))

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Order struct {
			ShopName    string  `json:"shop_name"`
			DriverName  *string `json:"driver_name"`
			TotalAmount float64 `json:"total_amount"`
		} `json:"order"`
		Items []struct {
			UnitPrice float64 `json:"unit_price"`
			Quantity  int     `json:"quantity"`
		} `json:"items"`
		EstimatedTime string `json:"estimated_time"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "Corner Spaza", resp.Order.ShopName)
	require.NotNil(t, resp.Order.DriverName)
	require.Equal(t, "Thabo", *resp.Order.DriverName)
	require.InDelta(t, 57.98, resp.Order.TotalAmount, 0.0001)
	require.Len(t, resp.Items, 1)
	require.InDelta(t, 18.99, resp.Items[0].UnitPrice, 0.0001)
	require.Equal(t, "25-40 minutes", resp.EstimatedTime)
}

func TestTrackNotFoundAndBadID(t *testing.T) {
	svc := &stubOrders{err: pkgerrors.New(pkgerrors.CodeNotFound, "Order not found")}
	w := httptest.NewRecorder()
	Track(svc, logger.Nop()).ServeHTTP(w, trackRequest(uuid.NewString()))
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Contains(t, w.Body.String(), `"error":"Order not found"`)

	w = httptest.NewRecorder()
	Track(svc, logger.Nop()).ServeHTTP(w, trackRequest("not-a-uuid"))
	require.Equal(t, http.StatusBadRequest, w.Code)
}
