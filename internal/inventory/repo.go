package inventory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/zepzep/zepzep-backend/pkg/db/models"
)

// Repository persists per-shop stock rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	LockRow(ctx context.Context, shopID, productID uuid.UUID) (*models.Inventory, error)
	CompareAndDecrement(ctx context.Context, rowID uuid.UUID, version int64, quantity int) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an inventory repository bound to db.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// LockRow reads the row with FOR UPDATE. Dialects without row locks ignore
// the clause and rely on the version check in CompareAndDecrement.
func (r *repository) LockRow(ctx context.Context, shopID, productID uuid.UUID) (*models.Inventory, error) {
	var row models.Inventory
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND product_id = ?", shopID, productID).
		Take(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// CompareAndDecrement subtracts quantity only if the row still carries
// version and enough stock. It reports whether the row was updated.
func (r *repository) CompareAndDecrement(ctx context.Context, rowID uuid.UUID, version int64, quantity int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Inventory{}).
		Where("id = ? AND version = ? AND quantity >= ?", rowID, version, quantity).
		Updates(map[string]any{
			"quantity": gorm.Expr("quantity - ?", quantity),
			"version":  gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
