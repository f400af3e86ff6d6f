package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/zepzep/zepzep-backend/internal/inventory"
	"github.com/zepzep/zepzep-backend/internal/loyalty"
	"github.com/zepzep/zepzep-backend/internal/shops"
	"github.com/zepzep/zepzep-backend/internal/users"
	"github.com/zepzep/zepzep-backend/pkg/db/models"
	"github.com/zepzep/zepzep-backend/pkg/enums"
	pkgerrors "github.com/zepzep/zepzep-backend/pkg/errors"
	"github.com/zepzep/zepzep-backend/pkg/logger"
	"github.com/zepzep/zepzep-backend/pkg/metrics"
	"github.com/zepzep/zepzep-backend/pkg/outbox"
	"github.com/zepzep/zepzep-backend/pkg/outbox/payloads"
)

const (
	defaultPlacementTimeout  = 10 * time.Second
	defaultEstimatedDelivery = "25-40 minutes"
	maxItemsPerOrder         = 100
	maxDeliveryAddressLen    = 500
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service places and tracks orders.
type Service interface {
	PlaceOrder(ctx context.Context, input PlaceOrderInput) (*Receipt, error)
	Track(ctx context.Context, orderID uuid.UUID) (*TrackedOrder, error)
}

// ServiceParams wires the order engine.
type ServiceParams struct {
	Tx                txRunner
	Orders            Repository
	Ledger            inventory.Ledger
	Users             *users.Repository
	Shops             *shops.Repository
	Outbox            outbox.Emitter
	Metrics           *metrics.OrderMetrics
	Logger            *logger.Logger
	DeliveryFee       decimal.Decimal
	PlacementTimeout  time.Duration
	EstimatedDelivery string
}

type service struct {
	tx                txRunner
	orders            Repository
	ledger            inventory.Ledger
	users             *users.Repository
	shops             *shops.Repository
	outbox            outbox.Emitter
	metrics           *metrics.OrderMetrics
	logg              *logger.Logger
	deliveryFee       decimal.Decimal
	timeout           time.Duration
	estimatedDelivery string
}

func NewService(params ServiceParams) (Service, error) {
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("inventory ledger required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if params.Shops == nil {
		return nil, fmt.Errorf("shops repository required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if params.DeliveryFee.IsNegative() {
		return nil, fmt.Errorf("delivery fee must not be negative")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	timeout := params.PlacementTimeout
	if timeout <= 0 {
		timeout = defaultPlacementTimeout
	}
	estimated := strings.TrimSpace(params.EstimatedDelivery)
	if estimated == "" {
		estimated = defaultEstimatedDelivery
	}
	return &service{
		tx:                params.Tx,
		orders:            params.Orders,
		ledger:            params.Ledger,
		users:             params.Users,
		shops:             params.Shops,
		outbox:            params.Outbox,
		metrics:           params.Metrics,
		logg:              logg,
		deliveryFee:       params.DeliveryFee,
		timeout:           timeout,
		estimatedDelivery: estimated,
	}, nil
}

// PlaceOrder reserves stock for every line, writes the order and its items,
// credits loyalty points and queues an order_placed event in one
// transaction. Any failure rolls all of it back.
func (s *service) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*Receipt, error) {
	method, err := validatePlaceOrder(&input)
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithCustomerID(ctx, input.CustomerID.String())
	ctx = s.logg.WithShopID(ctx, input.ShopID.String())

	start := time.Now()
	txCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var receipt *Receipt
	err = s.tx.WithTx(txCtx, func(tx *gorm.DB) error {
		customer, err := s.users.WithTx(tx).FindByID(txCtx, input.CustomerID)
		if err != nil {
			return users.MapLookupError(err)
		}
		if _, err := s.shops.WithTx(tx).FindShop(txCtx, input.ShopID); err != nil {
			return err
		}

		subtotal := decimal.Zero
		items := make([]models.OrderItem, 0, len(input.Items))
		for i, item := range input.Items {
			unitPrice, err := s.ledger.ReserveAndDecrement(txCtx, tx, input.ShopID, item.ProductID, item.Quantity)
			if err != nil {
				return err
			}
			line := models.OrderItem{
				LineNumber: i + 1,
				ProductID:  item.ProductID,
				Quantity:   item.Quantity,
				UnitPrice:  unitPrice,
			}
			subtotal = subtotal.Add(line.LineTotal())
			items = append(items, line)
		}
		total := subtotal.Add(s.deliveryFee)

		order := models.Order{
			CustomerID:      input.CustomerID,
			ShopID:          input.ShopID,
			Status:          enums.OrderStatusPending,
			TotalAmount:     total,
			DeliveryFee:     s.deliveryFee,
			PaymentMethod:   method,
			PaymentStatus:   enums.PaymentStatusPending,
			DeliveryAddress: input.DeliveryAddress,
		}
		repo := s.orders.WithTx(tx)
		if err := repo.CreateOrder(txCtx, &order); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		for i := range items {
			items[i].OrderID = order.ID
		}
		if err := repo.CreateOrderItems(txCtx, items); err != nil {
			return fmt.Errorf("insert order items: %w", err)
		}

		points := loyalty.PointsForTotal(total)
		if points > 0 {
			ok, err := s.users.WithTx(tx).AddPoints(txCtx, input.CustomerID, points)
			if err != nil {
				return fmt.Errorf("credit points: %w", err)
			}
			if !ok {
				return pkgerrors.New(pkgerrors.CodeUserNotFound, "User not found")
			}
		}

		if err := s.outbox.Emit(txCtx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderPlaced,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.Actor{UserID: customer.ID, Role: customer.Role},
			Data:          orderPlacedPayload(order, items, points),
		}); err != nil {
			return fmt.Errorf("emit order_placed: %w", err)
		}

		receipt = &Receipt{
			OrderID:         order.ID,
			TotalAmount:     total,
			DeliveryFee:     s.deliveryFee,
			ZepPointsEarned: points,
		}
		return nil
	})
	elapsed := time.Since(start)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			err = pkgerrors.Wrap(pkgerrors.CodeTransactionAborted, err, "order placement timed out")
		}
		err = pkgerrors.WrapStorage(pkgerrors.CodeTransactionAborted, err, "order placement aborted")
		s.metrics.ObserveFailed(elapsed, string(pkgerrors.As(err).Code()))
		s.logFailure(ctx, err)
		return nil, err
	}

	s.metrics.ObservePlaced(elapsed, receipt.ZepPointsEarned)
	logCtx := s.logg.WithOrderID(ctx, receipt.OrderID.String())
	logCtx = s.logg.WithFields(logCtx, map[string]any{
		"total_amount":      receipt.TotalAmount.StringFixed(2),
		"zep_points_earned": receipt.ZepPointsEarned,
		"duration_ms":       elapsed.Milliseconds(),
	})
	s.logg.Info(logCtx, "order.place.committed")
	return receipt, nil
}

// Track returns the order with its shop, driver and frozen line prices.
func (s *service) Track(ctx context.Context, orderID uuid.UUID) (*TrackedOrder, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}

	order, err := s.orders.FindOrder(ctx, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Order not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}

	tracked := &TrackedOrder{
		ID:              order.ID,
		Status:          order.Status,
		ShopID:          order.ShopID,
		TotalAmount:     order.TotalAmount,
		DeliveryFee:     order.DeliveryFee,
		PaymentMethod:   order.PaymentMethod,
		PaymentStatus:   order.PaymentStatus,
		DeliveryAddress: order.DeliveryAddress,
		CreatedAt:       order.CreatedAt,
		EstimatedTime:   s.estimatedDelivery,
	}

	shop, err := s.shops.FindShop(ctx, order.ShopID)
	switch {
	case err == nil:
		tracked.ShopName = shop.BusinessName
	case pkgerrors.IsCode(err, pkgerrors.CodeNotFound):
		s.logg.Warn(s.logg.WithOrderID(ctx, order.ID.String()), "order.track.shop_missing")
	default:
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shop")
	}

	if order.DriverID != nil {
		driver, err := s.users.FindByID(ctx, *order.DriverID)
		switch {
		case err == nil:
			tracked.Driver = &DriverContact{Name: driver.Name, Phone: driver.PhoneNumber}
		case errors.Is(err, gorm.ErrRecordNotFound):
			s.logg.Warn(s.logg.WithOrderID(ctx, order.ID.String()), "order.track.driver_missing")
		default:
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load driver")
		}
	}

	items, err := s.orders.FindTrackedItems(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order items")
	}
	tracked.Items = items
	return tracked, nil
}

func (s *service) logFailure(ctx context.Context, err error) {
	typed := pkgerrors.As(err)
	if typed != nil && typed.Code() != pkgerrors.CodeTransactionAborted {
		s.logg.Warn(s.logg.WithField(ctx, "code", string(typed.Code())), "order.place.rejected")
		return
	}
	s.logg.Error(ctx, "order.place.failed", err)
}

func validatePlaceOrder(input *PlaceOrderInput) (enums.PaymentMethod, error) {
	details := map[string]string{}
	if input.CustomerID == uuid.Nil {
		details["customer_id"] = "required"
	}
	if input.ShopID == uuid.Nil {
		details["shop_id"] = "required"
	}
	switch n := len(input.Items); {
	case n == 0:
		details["items"] = "at least one item is required"
	case n > maxItemsPerOrder:
		details["items"] = fmt.Sprintf("at most %d items are allowed", maxItemsPerOrder)
	}
	for i, item := range input.Items {
		if item.ProductID == uuid.Nil {
			details[fmt.Sprintf("items[%d].product_id", i)] = "required"
		}
		if item.Quantity <= 0 {
			details[fmt.Sprintf("items[%d].quantity", i)] = "must be greater than zero"
		}
	}
	input.DeliveryAddress = strings.TrimSpace(input.DeliveryAddress)
	switch {
	case input.DeliveryAddress == "":
		details["delivery_address"] = "required"
	case len(input.DeliveryAddress) > maxDeliveryAddressLen:
		details["delivery_address"] = fmt.Sprintf("must be at most %d characters", maxDeliveryAddressLen)
	}
	method, err := enums.ParsePaymentMethod(input.PaymentMethod)
	if err != nil {
		details["payment_method"] = "must be one of cash, card, wallet"
	}
	if len(details) > 0 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "invalid order request").WithDetails(details)
	}
	return method, nil
}

func orderPlacedPayload(order models.Order, items []models.OrderItem, points int64) payloads.OrderPlacedEvent {
	lines := make([]payloads.OrderPlacedItem, 0, len(items))
	for _, item := range items {
		lines = append(lines, payloads.OrderPlacedItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	return payloads.OrderPlacedEvent{
		OrderID:         order.ID,
		CustomerID:      order.CustomerID,
		ShopID:          order.ShopID,
		TotalAmount:     order.TotalAmount,
		DeliveryFee:     order.DeliveryFee,
		PaymentMethod:   order.PaymentMethod,
		ZepPointsEarned: points,
		Items:           lines,
	}
}
