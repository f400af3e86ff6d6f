package orders

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/zepzep/zepzep-backend/internal/inventory"
	"github.com/zepzep/zepzep-backend/internal/shops"
	"github.com/zepzep/zepzep-backend/internal/users"
	"github.com/zepzep/zepzep-backend/pkg/db"
	"github.com/zepzep/zepzep-backend/pkg/db/dbtest"
	"github.com/zepzep/zepzep-backend/pkg/db/models"
	"github.com/zepzep/zepzep-backend/pkg/enums"
	pkgerrors "github.com/zepzep/zepzep-backend/pkg/errors"
	"github.com/zepzep/zepzep-backend/pkg/logger"
	"github.com/zepzep/zepzep-backend/pkg/metrics"
	"github.com/zepzep/zepzep-backend/pkg/outbox"
)

type fixture struct {
	client *db.Client
	conn   *gorm.DB
	svc    Service
}

func newFixture(t *testing.T, mutate ...func(*ServiceParams)) fixture {
	t.Helper()
	return newFixtureOn(t, dbtest.Open(t), mutate...)
}

func newFixtureOn(t *testing.T, client *db.Client, mutate ...func(*ServiceParams)) fixture {
	t.Helper()
	conn := client.DB()
	ledger, err := inventory.NewLedger(inventory.NewRepository(conn), 3)
	require.NoError(t, err)

	params := ServiceParams{
		Tx:          client,
		Orders:      NewRepository(conn),
		Ledger:      ledger,
		Users:       users.NewRepository(conn),
		Shops:       shops.NewRepository(conn),
		Outbox:      outbox.NewService(outbox.NewRepository(conn), logger.Nop()),
		Metrics:     metrics.NewOrderMetrics(prometheus.NewRegistry()),
		Logger:      logger.Nop(),
		DeliveryFee: decimal.NewFromInt(20),
	}
	for _, fn := range mutate {
		fn(&params)
	}
	svc, err := NewService(params)
	require.NoError(t, err)
	return fixture{client: client, conn: conn, svc: svc}
}

func (f fixture) points(t *testing.T, userID uuid.UUID) int64 {
	t.Helper()
	var user models.User
	require.NoError(t, f.conn.Take(&user, "id = ?", userID).Error)
	return user.ZepPoints
}

func (f fixture) quantity(t *testing.T, shopID, productID uuid.UUID) int {
	t.Helper()
	var row models.Inventory
	require.NoError(t, f.conn.Take(&row, "tenant_id = ? AND product_id = ?", shopID, productID).Error)
	return row.Quantity
}

func (f fixture) count(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.conn.Model(model).Count(&n).Error)
	return n
}

func TestPlaceOrderTotalsAndPoints(t *testing.T) {
	f := newFixture(t)
	customer := dbtest.SeedCustomer(t, f.conn, 5)
	shop := dbtest.SeedShop(t, f.conn, "Mama Ngozi Store")
	bread, _ := dbtest.SeedStock(t, f.conn, shop.ID, "Bread", 10, "18.99")
	milk, _ := dbtest.SeedStock(t, f.conn, shop.ID, "Milk", 4, "24.50")

	receipt, err := f.svc.PlaceOrder(context.Background(), PlaceOrderInput{
		CustomerID: customer.ID,
		ShopID:     shop.ID,
		Items: []ItemRequest{
			{ProductID: bread.ID, Quantity: 2},
			{ProductID: milk.ID, Quantity: 3},
		},
		DeliveryAddress: "12 Main Rd",
	})
	require.NoError(t, err)

	// 2*18.99 + 3*24.50 + 20 = 131.48
	require.True(t, receipt.TotalAmount.Equal(decimal.RequireFromString("131.48")), "total %s", receipt.TotalAmount)
	require.True(t, receipt.DeliveryFee.Equal(decimal.NewFromInt(20)))
	require.EqualValues(t, 13, receipt.ZepPointsEarned)

	require.EqualValues(t, 18, f.points(t, customer.ID))
	require.Equal(t, 8, f.quantity(t, shop.ID, bread.ID))
	require.Equal(t, 1, f.quantity(t, shop.ID, milk.ID))

	var order models.Order
	require.NoError(t, f.conn.Take(&order, "id = ?", receipt.OrderID).Error)
	require.Equal(t, enums.OrderStatusPending, order.Status)
	require.Equal(t, enums.PaymentStatusPending, order.PaymentStatus)
	require.Equal(t, enums.PaymentMethodCash, order.PaymentMethod)
	require.Equal(t, "12 Main Rd", order.DeliveryAddress)

	var events []models.OutboxEvent
	require.NoError(t, f.conn.Where("aggregate_id = ?", receipt.OrderID).Find(&events).Error)
	require.Len(t, events, 1)
	require.Equal(t, enums.EventOrderPlaced, events[0].EventType)
}

func TestFailedMultiItemOrderLeavesNoTrace(t *testing.T) {
	f := newFixture(t)
	customer := dbtest.SeedCustomer(t, f.conn, 7)
	shop := dbtest.SeedShop(t, f.conn, "Rollback")
	plenty, _ := dbtest.SeedStock(t, f.conn, shop.ID, "Rice", 10, "45")
	scarce, _ := dbtest.SeedStock(t, f.conn, shop.ID, "Eggs", 1, "32")

	_, err := f.svc.PlaceOrder(context.Background(), PlaceOrderInput{
		CustomerID: customer.ID,
		ShopID:     shop.ID,
		Items: []ItemRequest{
			{ProductID: plenty.ID, Quantity: 3},
			{ProductID: scarce.ID, Quantity: 2},
		},
		DeliveryAddress: "4 Hill St",
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock), "got %v", err)
	details := pkgerrors.As(err).Details().(map[string]any)
	require.Equal(t, scarce.ID.String(), details["product_id"])

	require.Zero(t, f.count(t, &models.Order{}))
	require.Zero(t, f.count(t, &models.OrderItem{}))
	require.Zero(t, f.count(t, &models.OutboxEvent{}))
	require.Equal(t, 10, f.quantity(t, shop.ID, plenty.ID))
	require.Equal(t, 1, f.quantity(t, shop.ID, scarce.ID))
	require.EqualValues(t, 7, f.points(t, customer.ID))
}

// The sqlite pool has a single connection, so the two placements below run
// back to back. This pins the outcome, not the race; see
// TestConcurrentOrdersOnPostgres for the contended version.
func TestConcurrentOrdersForLastUnit(t *testing.T) {
	f := newFixture(t)
	shop := dbtest.SeedShop(t, f.conn, "Last One")
	product, _ := dbtest.SeedStock(t, f.conn, shop.ID, "Gas Refill", 1, "350")
	buyers := []models.User{
		dbtest.SeedCustomer(t, f.conn, 0),
		dbtest.SeedCustomer(t, f.conn, 0),
	}

	var wg sync.WaitGroup
	errs := make([]error, len(buyers))
	for i, buyer := range buyers {
		wg.Add(1)
		go func(i int, buyerID uuid.UUID) {
			defer wg.Done()
			_, errs[i] = f.svc.PlaceOrder(context.Background(), PlaceOrderInput{
				CustomerID:      buyerID,
				ShopID:          shop.ID,
				Items:           []ItemRequest{{ProductID: product.ID, Quantity: 1}},
				DeliveryAddress: "Block C",
			})
		}(i, buyer.ID)
	}
	wg.Wait()

	var successes, shortages int
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock):
			shortages++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require.Equal(t, 1, successes)
	require.Equal(t, 1, shortages)
	require.Zero(t, f.quantity(t, shop.ID, product.ID))
	require.EqualValues(t, 1, f.count(t, &models.Order{}))
}

func TestConcurrentOrdersOnPostgres(t *testing.T) {
	f := newFixtureOn(t, dbtest.OpenPostgres(t))
	shop := dbtest.SeedShop(t, f.conn, "Contended "+uuid.NewString()[:8])
	product, _ := dbtest.SeedStock(t, f.conn, shop.ID, "Gas Refill", 3, "350")

	const buyers = 12
	start := make(chan struct{})
	var wg sync.WaitGroup
	errs := make([]error, buyers)
	for i := 0; i < buyers; i++ {
		buyer := dbtest.SeedCustomer(t, f.conn, 0)
		wg.Add(1)
		go func(i int, buyerID uuid.UUID) {
			defer wg.Done()
			<-start
			_, errs[i] = f.svc.PlaceOrder(context.Background(), PlaceOrderInput{
				CustomerID:      buyerID,
				ShopID:          shop.ID,
				Items:           []ItemRequest{{ProductID: product.ID, Quantity: 1}},
				DeliveryAddress: "Block C",
			})
		}(i, buyer.ID)
	}
	close(start)
	wg.Wait()

	var successes, shortages int
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock):
			shortages++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require.Equal(t, 3, successes)
	require.Equal(t, buyers-3, shortages)
	require.Zero(t, f.quantity(t, shop.ID, product.ID))

	var placed int64
	require.NoError(t, f.conn.Model(&models.Order{}).Where("shop_id = ?", shop.ID).Count(&placed).Error)
	require.EqualValues(t, 3, placed)
}

func TestTrackReturnsFrozenPrices(t *testing.T) {
	f := newFixture(t)
	customer := dbtest.SeedCustomer(t, f.conn, 0)
	shop := dbtest.SeedShop(t, f.conn, "Frozen Prices")
	first, _ := dbtest.SeedStock(t, f.conn, shop.ID, "Sugar", 5, "30.00")
	second, _ := dbtest.SeedStock(t, f.conn, shop.ID, "Tea", 5, "12.25")
	ctx := context.Background()

	receipt, err := f.svc.PlaceOrder(ctx, PlaceOrderInput{
		CustomerID: customer.ID,
		ShopID:     shop.ID,
		Items: []ItemRequest{
			{ProductID: second.ID, Quantity: 1},
			{ProductID: first.ID, Quantity: 2},
		},
		DeliveryAddress: "Flat 9",
		PaymentMethod:   "Card",
	})
	require.NoError(t, err)

	require.NoError(t, f.conn.Model(&models.Inventory{}).
		Where("tenant_id = ?", shop.ID).
		Update("selling_price", decimal.RequireFromString("99.99")).Error)

	tracked, err := f.svc.Track(ctx, receipt.OrderID)
	require.NoError(t, err)
	require.Equal(t, receipt.OrderID, tracked.ID)
	require.Equal(t, "Frozen Prices", tracked.ShopName)
	require.Equal(t, enums.PaymentMethodCard, tracked.PaymentMethod)
	require.Nil(t, tracked.Driver)
	require.Equal(t, defaultEstimatedDelivery, tracked.EstimatedTime)
	require.True(t, tracked.TotalAmount.Equal(receipt.TotalAmount))

	require.Len(t, tracked.Items, 2)
	require.Equal(t, second.ID, tracked.Items[0].ProductID)
	require.Equal(t, "Tea", tracked.Items[0].ProductName)
	require.Equal(t, 1, tracked.Items[0].Quantity)
	require.True(t, tracked.Items[0].UnitPrice.Equal(decimal.RequireFromString("12.25")))
	require.Equal(t, first.ID, tracked.Items[1].ProductID)
	require.Equal(t, 2, tracked.Items[1].Quantity)
	require.True(t, tracked.Items[1].UnitPrice.Equal(decimal.RequireFromString("30")))
}

func TestTrackIncludesAssignedDriver(t *testing.T) {
	f := newFixture(t)
	customer := dbtest.SeedCustomer(t, f.conn, 0)
	shop := dbtest.SeedShop(t, f.conn, "Driver Shop")
	product, _ := dbtest.SeedStock(t, f.conn, shop.ID, "Bread", 5, "15")
	ctx := context.Background()

	receipt, err := f.svc.PlaceOrder(ctx, PlaceOrderInput{
		CustomerID:      customer.ID,
		ShopID:          shop.ID,
		Items:           []ItemRequest{{ProductID: product.ID, Quantity: 1}},
		DeliveryAddress: "Corner",
	})
	require.NoError(t, err)

	driver := models.User{PhoneNumber: "+27820000001", Name: "Sipho", Role: enums.UserRoleDriver, IsActive: true}
	require.NoError(t, f.conn.Create(&driver).Error)
	require.NoError(t, f.conn.Model(&models.Order{}).Where("id = ?", receipt.OrderID).Update("driver_id", driver.ID).Error)

	tracked, err := f.svc.Track(ctx, receipt.OrderID)
	require.NoError(t, err)
	require.NotNil(t, tracked.Driver)
	require.Equal(t, "Sipho", tracked.Driver.Name)
	require.Equal(t, "+27820000001", tracked.Driver.Phone)
}

func TestTrackUnknownOrder(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Track(context.Background(), uuid.New())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = f.svc.Track(context.Background(), uuid.Nil)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestPlaceOrderLookupFailures(t *testing.T) {
	f := newFixture(t)
	customer := dbtest.SeedCustomer(t, f.conn, 0)
	shop := dbtest.SeedShop(t, f.conn, "Lookups")
	product, _ := dbtest.SeedStock(t, f.conn, shop.ID, "Soap", 3, "8")
	ctx := context.Background()
	base := PlaceOrderInput{
		CustomerID:      customer.ID,
		ShopID:          shop.ID,
		Items:           []ItemRequest{{ProductID: product.ID, Quantity: 1}},
		DeliveryAddress: "Somewhere",
	}

	input := base
	input.CustomerID = uuid.New()
	_, err := f.svc.PlaceOrder(ctx, input)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUserNotFound), "got %v", err)

	input = base
	input.ShopID = uuid.New()
	_, err = f.svc.PlaceOrder(ctx, input)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "got %v", err)

	input = base
	input.Items = []ItemRequest{{ProductID: uuid.New(), Quantity: 1}}
	_, err = f.svc.PlaceOrder(ctx, input)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeProductNotFound), "got %v", err)

	require.Zero(t, f.count(t, &models.Order{}))
}

func TestPlaceOrderValidation(t *testing.T) {
	f := newFixture(t)
	id := uuid.New()
	cases := map[string]PlaceOrderInput{
		"no items":        {CustomerID: id, ShopID: id, DeliveryAddress: "x"},
		"zero quantity":   {CustomerID: id, ShopID: id, DeliveryAddress: "x", Items: []ItemRequest{{ProductID: id, Quantity: 0}}},
		"missing ids":     {DeliveryAddress: "x", Items: []ItemRequest{{ProductID: id, Quantity: 1}}},
		"bad method":      {CustomerID: id, ShopID: id, DeliveryAddress: "x", PaymentMethod: "crypto", Items: []ItemRequest{{ProductID: id, Quantity: 1}}},
		"blank address":   {CustomerID: id, ShopID: id, DeliveryAddress: "  ", Items: []ItemRequest{{ProductID: id, Quantity: 1}}},
		"missing product": {CustomerID: id, ShopID: id, DeliveryAddress: "x", Items: []ItemRequest{{Quantity: 1}}},
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.PlaceOrder(context.Background(), input)
			require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)
		})
	}
}

type blockingLedger struct{}

func (blockingLedger) ReserveAndDecrement(ctx context.Context, _ *gorm.DB, _, _ uuid.UUID, _ int) (decimal.Decimal, error) {
	<-ctx.Done()
	return decimal.Zero, ctx.Err()
}

func TestPlaceOrderTimeoutAborts(t *testing.T) {
	f := newFixture(t, func(p *ServiceParams) {
		p.Ledger = blockingLedger{}
		p.PlacementTimeout = 20 * time.Millisecond
	})
	customer := dbtest.SeedCustomer(t, f.conn, 3)
	shop := dbtest.SeedShop(t, f.conn, "Slow")

	_, err := f.svc.PlaceOrder(context.Background(), PlaceOrderInput{
		CustomerID:      customer.ID,
		ShopID:          shop.ID,
		Items:           []ItemRequest{{ProductID: uuid.New(), Quantity: 1}},
		DeliveryAddress: "Anywhere",
	})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeTransactionAborted), "got %v", err)
	require.Zero(t, f.count(t, &models.Order{}))
	require.EqualValues(t, 3, f.points(t, customer.ID))
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{})
	require.Error(t, err)
}
