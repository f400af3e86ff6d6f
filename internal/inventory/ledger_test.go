package inventory

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/zepzep/zepzep-backend/pkg/db/models"
	pkgerrors "github.com/zepzep/zepzep-backend/pkg/errors"
)

type fakeRepository struct {
	rows       []models.Inventory
	lockErr    error
	casResults []bool
	casErr     error
	lockCalls  int
	casCalls   int
}

func (f *fakeRepository) WithTx(*gorm.DB) Repository { return f }

func (f *fakeRepository) LockRow(context.Context, uuid.UUID, uuid.UUID) (*models.Inventory, error) {
	f.lockCalls++
	if f.lockErr != nil {
		return nil, f.lockErr
	}
	idx := f.lockCalls - 1
	if idx >= len(f.rows) {
		idx = len(f.rows) - 1
	}
	row := f.rows[idx]
	return &row, nil
}

func (f *fakeRepository) CompareAndDecrement(context.Context, uuid.UUID, int64, int) (bool, error) {
	f.casCalls++
	if f.casErr != nil {
		return false, f.casErr
	}
	if f.casCalls > len(f.casResults) {
		return false, nil
	}
	return f.casResults[f.casCalls-1], nil
}

func stockRow(qty int, version int64, price string) models.Inventory {
	return models.Inventory{ID: uuid.New(), Quantity: qty, Version: version, SellingPrice: decimal.RequireFromString(price)}
}

func TestReserveAndDecrement_ReturnsPriceSnapshot(t *testing.T) {
	repo := &fakeRepository{rows: []models.Inventory{stockRow(5, 0, "12.50")}, casResults: []bool{true}}
	l, err := NewLedger(repo, 3)
	require.NoError(t, err)

	price, err := l.ReserveAndDecrement(context.Background(), nil, uuid.New(), uuid.New(), 2)
	require.NoError(t, err)
	require.True(t, price.Equal(decimal.RequireFromString("12.50")))
	require.Equal(t, 1, repo.casCalls)
}

func TestReserveAndDecrement_RetriesLostCAS(t *testing.T) {
	repo := &fakeRepository{
		rows:       []models.Inventory{stockRow(5, 0, "10"), stockRow(4, 1, "10")},
		casResults: []bool{false, true},
	}
	l, err := NewLedger(repo, 3)
	require.NoError(t, err)

	_, err = l.ReserveAndDecrement(context.Background(), nil, uuid.New(), uuid.New(), 1)
	require.NoError(t, err)
	require.Equal(t, 2, repo.lockCalls)
	require.Equal(t, 2, repo.casCalls)
}

func TestReserveAndDecrement_GivesUpAfterMaxAttempts(t *testing.T) {
	repo := &fakeRepository{rows: []models.Inventory{stockRow(5, 0, "10")}}
	l, err := NewLedger(repo, 2)
	require.NoError(t, err)

	_, err = l.ReserveAndDecrement(context.Background(), nil, uuid.New(), uuid.New(), 1)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock))
	require.Equal(t, 2, repo.casCalls)
}

func TestReserveAndDecrement_InsufficientStock(t *testing.T) {
	repo := &fakeRepository{rows: []models.Inventory{stockRow(1, 0, "10")}}
	l, err := NewLedger(repo, 3)
	require.NoError(t, err)

	productID := uuid.New()
	_, err = l.ReserveAndDecrement(context.Background(), nil, uuid.New(), productID, 2)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeInsufficientStock, typed.Code())
	require.Equal(t, map[string]any{"product_id": productID.String(), "requested": 2, "available": 1}, typed.Details())
	require.Zero(t, repo.casCalls)
}

func TestReserveAndDecrement_ProductNotFound(t *testing.T) {
	repo := &fakeRepository{lockErr: gorm.ErrRecordNotFound}
	l, err := NewLedger(repo, 3)
	require.NoError(t, err)

	_, err = l.ReserveAndDecrement(context.Background(), nil, uuid.New(), uuid.New(), 1)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeProductNotFound))
}

func TestReserveAndDecrement_PropagatesStorageErrors(t *testing.T) {
	boom := errors.New("connection reset")
	repo := &fakeRepository{lockErr: boom}
	l, err := NewLedger(repo, 3)
	require.NoError(t, err)

	_, err = l.ReserveAndDecrement(context.Background(), nil, uuid.New(), uuid.New(), 1)
	require.ErrorIs(t, err, boom)
	require.Nil(t, pkgerrors.As(err))
}

func TestReserveAndDecrement_RejectsNonPositiveQuantity(t *testing.T) {
	l, err := NewLedger(&fakeRepository{}, 0)
	require.NoError(t, err)

	for _, qty := range []int{0, -3} {
		_, err := l.ReserveAndDecrement(context.Background(), nil, uuid.New(), uuid.New(), qty)
		require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "qty %d", qty)
	}
}

func TestNewLedgerRequiresRepo(t *testing.T) {
	_, err := NewLedger(nil, 3)
	require.Error(t, err)
}
