package shops

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zepzep/zepzep-backend/pkg/db/models"
	"github.com/zepzep/zepzep-backend/pkg/enums"
	pkgerrors "github.com/zepzep/zepzep-backend/pkg/errors"
	"github.com/zepzep/zepzep-backend/pkg/pagination"
)

// Repository reads shop tenants. Shops are not mutated by order flows.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindShop loads a tenant of type shop. Missing rows and non-shop tenants
// both surface as NOT_FOUND.
func (r *Repository) FindShop(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	var tenant models.Tenant
	err := r.db.WithContext(ctx).
		Where("id = ? AND type = ?", id, enums.TenantTypeShop).
		Take(&tenant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shop not found")
	}
	if err != nil {
		return nil, fmt.Errorf("load shop: %w", err)
	}
	return &tenant, nil
}

// ListShops returns every shop tenant, optionally only those with coordinates.
func (r *Repository) ListShops(ctx context.Context, locatedOnly bool) ([]models.Tenant, error) {
	qb := r.db.WithContext(ctx).Where("type = ?", enums.TenantTypeShop)
	if locatedOnly {
		qb = qb.Where("location_lat IS NOT NULL AND location_lng IS NOT NULL")
	}
	var tenants []models.Tenant
	if err := qb.Order("business_name").Find(&tenants).Error; err != nil {
		return nil, fmt.Errorf("list shops: %w", err)
	}
	return tenants, nil
}

type inventoryQuery struct {
	ShopID   uuid.UUID
	Category string
	Cursor   *pagination.Cursor
	Limit    int
}

// ListInventory pages through a shop's stocked products newest first.
// Limit is the raw row count, callers pass pagination.LimitWithBuffer.
func (r *Repository) ListInventory(ctx context.Context, q inventoryQuery) ([]InventoryItem, error) {
	qb := r.db.WithContext(ctx).
		Table("inventory i").
		Select("p.id AS product_id, p.name, p.category, p.created_at, i.quantity, i.selling_price").
		Joins("JOIN products p ON p.id = i.product_id").
		Where("i.tenant_id = ?", q.ShopID)
	if q.Category != "" {
		qb = qb.Where("p.category = ?", q.Category)
	}
	if q.Cursor != nil {
		qb = qb.Where("(p.created_at < ?) OR (p.created_at = ? AND p.id < ?)", q.Cursor.CreatedAt, q.Cursor.CreatedAt, q.Cursor.ID)
	}

	var rows []InventoryItem
	err := qb.Order("p.created_at DESC").Order("p.id DESC").Limit(q.Limit).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list inventory: %w", err)
	}
	return rows, nil
}
