package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zepzep/zepzep-backend/pkg/db/models"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) CreateOrderItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *repository) FindOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).Take(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// FindTrackedItems returns the order's lines in request order, joined with
// the product name. Prices are the frozen order_items values.
func (r *repository) FindTrackedItems(ctx context.Context, orderID uuid.UUID) ([]TrackedItem, error) {
	var items []TrackedItem
	err := r.db.WithContext(ctx).
		Table("order_items AS oi").
		Select("oi.product_id, p.name AS product_name, oi.quantity, oi.unit_price").
		Joins("JOIN products p ON p.id = oi.product_id").
		Where("oi.order_id = ?", orderID).
		Order("oi.line_number ASC").
		Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
