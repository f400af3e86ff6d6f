package trustscore

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zepzep/zepzep-backend/pkg/db/models"
	"github.com/zepzep/zepzep-backend/pkg/enums"
)

// Repository reads delivered-order history.
type Repository interface {
	DeliveredOrders(ctx context.Context, customerID uuid.UUID) ([]DeliveredOrder, error)
	// CustomersWithDeliveries pages through customers that have at least one
	// delivered order, ordered by id and strictly after `after`.
	CustomersWithDeliveries(ctx context.Context, after uuid.UUID, limit int) ([]uuid.UUID, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) DeliveredOrders(ctx context.Context, customerID uuid.UUID) ([]DeliveredOrder, error) {
	var rows []DeliveredOrder
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("total_amount, created_at").
		Where("customer_id = ? AND status = ?", customerID, enums.OrderStatusDelivered).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) CustomersWithDeliveries(ctx context.Context, after uuid.UUID, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Distinct("customer_id").
		Where("status = ? AND customer_id > ?", enums.OrderStatusDelivered, after).
		Order("customer_id ASC").
		Limit(limit).
		Pluck("customer_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
