package controllers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/zepzep/zepzep-backend/api/responses"
	"github.com/zepzep/zepzep-backend/api/validators"
	"github.com/zepzep/zepzep-backend/internal/shops"
	"github.com/zepzep/zepzep-backend/pkg/logger"
)

type shopsResponse struct {
	Shops []shops.NearbyShop `json:"shops"`
}

type inventoryItemView struct {
	ProductID    string      `json:"product_id"`
	Name         string      `json:"name"`
	Category     string      `json:"category"`
	Quantity     int         `json:"quantity"`
	SellingPrice json.Number `json:"selling_price"`
}

type inventoryResponse struct {
	Products   []inventoryItemView `json:"products"`
	NextCursor string              `json:"next_cursor,omitempty"`
}

// NearbyShops lists shops around ?lat=&lng= within ?radius= km, or every
// shop when no point is given.
func NearbyShops(svc shops.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			q   shops.NearbyQuery
			err error
		)
		if q.Lat, err = validators.ParseOptionalFloatQuery(r, "lat"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if q.Lng, err = validators.ParseOptionalFloatQuery(r, "lng"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		radius, err := validators.ParseOptionalFloatQuery(r, "radius")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if radius != nil {
			q.RadiusKm = *radius
		}

		found, err := svc.Nearby(r.Context(), q)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteOK(w, shopsResponse{Shops: found})
	}
}

// ShopInventory pages through one shop's stock, optionally by ?category=.
func ShopInventory(svc shops.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shopID, err := validators.ParseUUIDParam(r, "shopId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.Inventory(r.Context(), shops.InventoryQuery{
			ShopID:     shopID,
			Category:   strings.TrimSpace(r.URL.Query().Get("category")),
			Pagination: params,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := inventoryResponse{
			Products:   make([]inventoryItemView, 0, len(page.Items)),
			NextCursor: page.NextCursor,
		}
		for _, item := range page.Items {
			resp.Products = append(resp.Products, inventoryItemView{
				ProductID:    item.ProductID.String(),
				Name:         item.Name,
				Category:     item.Category,
				Quantity:     item.Quantity,
				SellingPrice: responses.Money(item.SellingPrice),
			})
		}
		responses.WriteOK(w, resp)
	}
}
