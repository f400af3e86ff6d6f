package dbtest

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/zepzep/zepzep-backend/pkg/db/models"
	"github.com/zepzep/zepzep-backend/pkg/enums"
)

// SeedCustomer inserts a customer with the given points balance.
func SeedCustomer(t testing.TB, conn *gorm.DB, points int64) models.User {
	t.Helper()
	user := models.User{
		PhoneNumber: "+9665" + uuid.NewString()[:8],
		Name:        "Customer",
		Role:        enums.UserRoleCustomer,
		ZepPoints:   points,
		IsActive:    true,
	}
	if err := conn.Create(&user).Error; err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	return user
}

// SeedShop inserts a shop tenant.
func SeedShop(t testing.TB, conn *gorm.DB, name string) models.Tenant {
	t.Helper()
	shop := models.Tenant{BusinessName: name, Type: enums.TenantTypeShop}
	if err := conn.Create(&shop).Error; err != nil {
		t.Fatalf("seed shop: %v", err)
	}
	return shop
}

// SeedStock inserts a product and its inventory row at shopID.
func SeedStock(t testing.TB, conn *gorm.DB, shopID uuid.UUID, name string, qty int, price string) (models.Product, models.Inventory) {
	t.Helper()
	product := models.Product{Name: name, Category: "grocery"}
	if err := conn.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	row := models.Inventory{
		ProductID:    product.ID,
		TenantID:     shopID,
		Quantity:     qty,
		SellingPrice: decimal.RequireFromString(price),
	}
	if err := conn.Create(&row).Error; err != nil {
		t.Fatalf("seed inventory: %v", err)
	}
	return product, row
}
