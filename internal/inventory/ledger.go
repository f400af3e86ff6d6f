package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	pkgerrors "github.com/zepzep/zepzep-backend/pkg/errors"
)

// DefaultMaxCASAttempts bounds how often a lost compare-and-swap is retried.
const DefaultMaxCASAttempts = 3

// Ledger is the only writer of inventory quantities.
type Ledger interface {
	// ReserveAndDecrement removes quantity units of productID from shopID's
	// stock inside tx and returns the selling price at that moment.
	ReserveAndDecrement(ctx context.Context, tx *gorm.DB, shopID, productID uuid.UUID, quantity int) (decimal.Decimal, error)
}

type ledger struct {
	repo        Repository
	maxAttempts int
}

// NewLedger wires a ledger. maxAttempts <= 0 falls back to DefaultMaxCASAttempts.
func NewLedger(repo Repository, maxAttempts int) (Ledger, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxCASAttempts
	}
	return &ledger{repo: repo, maxAttempts: maxAttempts}, nil
}

func (l *ledger) ReserveAndDecrement(ctx context.Context, tx *gorm.DB, shopID, productID uuid.UUID, quantity int) (decimal.Decimal, error) {
	if quantity <= 0 {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be greater than zero").
			WithDetails(map[string]any{"product_id": productID.String(), "quantity": quantity})
	}

	repo := l.repo.WithTx(tx)
	var available int
	for attempt := 1; attempt <= l.maxAttempts; attempt++ {
		row, err := repo.LockRow(ctx, shopID, productID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return decimal.Zero, ProductNotFound(shopID, productID)
			}
			return decimal.Zero, fmt.Errorf("lock inventory row: %w", err)
		}

		available = row.Quantity
		if quantity > available {
			return decimal.Zero, InsufficientStock(productID, quantity, available)
		}

		ok, err := repo.CompareAndDecrement(ctx, row.ID, row.Version, quantity)
		if err != nil {
			return decimal.Zero, fmt.Errorf("decrement inventory: %w", err)
		}
		if ok {
			return row.SellingPrice, nil
		}
	}

	return decimal.Zero, InsufficientStock(productID, quantity, available)
}

// ProductNotFound is returned when a shop does not stock the product.
func ProductNotFound(shopID, productID uuid.UUID) error {
	return pkgerrors.New(pkgerrors.CodeProductNotFound, fmt.Sprintf("Product %s not found", productID)).
		WithDetails(map[string]any{
			"product_id": productID.String(),
			"shop_id":    shopID.String(),
		})
}

// InsufficientStock is returned when the request exceeds available units.
func InsufficientStock(productID uuid.UUID, requested, available int) error {
	return pkgerrors.New(pkgerrors.CodeInsufficientStock, fmt.Sprintf("Insufficient stock for product %s", productID)).
		WithDetails(map[string]any{
			"product_id": productID.String(),
			"requested":  requested,
			"available":  available,
		})
}
