package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/zepzep/zepzep-backend/pkg/enums"
)

// User is a marketplace account. ZepPoints and ZepTrustScore are only written
// by order placement, redemption and the trust score refresh.
type User struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	PhoneNumber   string          `gorm:"column:phone_number;not null;uniqueIndex"`
	Name          string          `gorm:"column:name;not null"`
	Role          enums.UserRole  `gorm:"column:role;type:user_role;not null;default:'customer'"`
	ZepPoints     int64           `gorm:"column:zep_points;not null;default:0;check:zep_points >= 0"`
	ZepTrustScore decimal.Decimal `gorm:"column:zep_trust_score;type:numeric(5,2);not null;default:0"`
	IsActive      bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	assignID(&u.ID)
	return nil
}
