package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zepzep/zepzep-backend/pkg/enums"
)

type Redemption struct {
	ID         uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	UserID     uuid.UUID              `gorm:"column:user_id;type:uuid;not null;index"`
	Points     int64                  `gorm:"column:points;not null;check:points > 0"`
	RewardType string                 `gorm:"column:reward_type;not null"`
	Status     enums.RedemptionStatus `gorm:"column:status;type:redemption_status;not null;default:'pending'"`
	CreatedAt  time.Time              `gorm:"column:created_at;autoCreateTime"`
}

func (r *Redemption) BeforeCreate(*gorm.DB) error {
	assignID(&r.ID)
	return nil
}
