package shops

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/zepzep/zepzep-backend/pkg/db/models"
	pkgerrors "github.com/zepzep/zepzep-backend/pkg/errors"
	"github.com/zepzep/zepzep-backend/pkg/pagination"
)

const (
	DefaultRadiusKm = 5.0
	maxNearby       = 20
	earthRadiusKm   = 6371.0
)

type shopsRepository interface {
	FindShop(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	ListShops(ctx context.Context, locatedOnly bool) ([]models.Tenant, error)
	ListInventory(ctx context.Context, q inventoryQuery) ([]InventoryItem, error)
}

// NearbyQuery locates shops around a point. A nil point lists every shop.
type NearbyQuery struct {
	Lat      *float64
	Lng      *float64
	RadiusKm float64
}

type InventoryQuery struct {
	ShopID     uuid.UUID
	Category   string
	Pagination pagination.Params
}

// Service is the read-only shop catalog.
type Service interface {
	Nearby(ctx context.Context, q NearbyQuery) ([]NearbyShop, error)
	Inventory(ctx context.Context, q InventoryQuery) (*pagination.Page[InventoryItem], error)
}

type service struct {
	repo shopsRepository
}

func NewService(repo shopsRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("shops repository required")
	}
	return &service{repo: repo}, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Nearby returns at most 20 shops strictly inside the radius, closest first.
func (s *service) Nearby(ctx context.Context, q NearbyQuery) ([]NearbyShop, error) {
	if (q.Lat == nil) != (q.Lng == nil) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "lat and lng must be provided together")
	}
	if !finite(q.RadiusKm) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "radius must be a finite number")
	}
	located := q.Lat != nil
	if located {
		// The negated comparisons also catch NaN.
		if !finite(*q.Lat) || !finite(*q.Lng) || !(math.Abs(*q.Lat) <= 90) || !(math.Abs(*q.Lng) <= 180) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "coordinates out of range")
		}
		if q.RadiusKm <= 0 {
			q.RadiusKm = DefaultRadiusKm
		}
	}

	tenants, err := s.repo.ListShops(ctx, located)
	if err != nil {
		return nil, err
	}

	shops := make([]NearbyShop, 0, len(tenants))
	for i := range tenants {
		shop := NearbyShop{ShopDTO: *FromModel(&tenants[i])}
		if located {
			d := haversineKm(*q.Lat, *q.Lng, *shop.LocationLat, *shop.LocationLng)
			if d >= q.RadiusKm {
				continue
			}
			shop.DistanceKm = &d
		}
		shops = append(shops, shop)
	}
	if !located {
		return shops, nil
	}

	sort.SliceStable(shops, func(i, j int) bool { return *shops[i].DistanceKm < *shops[j].DistanceKm })
	if len(shops) > maxNearby {
		shops = shops[:maxNearby]
	}
	return shops, nil
}

func (s *service) Inventory(ctx context.Context, q InventoryQuery) (*pagination.Page[InventoryItem], error) {
	if q.ShopID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shop id is required")
	}
	cursor, err := pagination.ParseCursor(q.Pagination.Cursor)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.FindShop(ctx, q.ShopID); err != nil {
		return nil, err
	}

	rows, err := s.repo.ListInventory(ctx, inventoryQuery{
		ShopID:   q.ShopID,
		Category: strings.TrimSpace(q.Category),
		Cursor:   cursor,
		Limit:    pagination.LimitWithBuffer(q.Pagination.Limit),
	})
	if err != nil {
		return nil, err
	}

	page := pagination.Build(rows, q.Pagination.Limit, func(item InventoryItem) pagination.Cursor {
		return pagination.Cursor{CreatedAt: item.CreatedAt, ID: item.ProductID}
	})
	return &page, nil
}

func haversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	rad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := rad(lat2 - lat1)
	dLng := rad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(lat1))*math.Cos(rad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(a)))
}
