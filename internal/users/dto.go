package users

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/zepzep/zepzep-backend/pkg/db/models"
	"github.com/zepzep/zepzep-backend/pkg/enums"
)

// UserDTO is the profile shape returned to clients.
type UserDTO struct {
	ID            uuid.UUID       `json:"id"`
	PhoneNumber   string          `json:"phone_number"`
	Name          string          `json:"name"`
	Role          enums.UserRole  `json:"role"`
	ZepPoints     int64           `json:"zep_points"`
	ZepTrustScore decimal.Decimal `json:"zep_trust_score"`
	IsActive      bool            `json:"is_active"`
	CreatedAt     time.Time       `json:"created_at"`
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:            u.ID,
		PhoneNumber:   u.PhoneNumber,
		Name:          u.Name,
		Role:          u.Role,
		ZepPoints:     u.ZepPoints,
		ZepTrustScore: u.ZepTrustScore,
		IsActive:      u.IsActive,
		CreatedAt:     u.CreatedAt,
	}
}
