package loyalty

import (
	"time"

	"github.com/google/uuid"

	"github.com/zepzep/zepzep-backend/pkg/db/models"
	"github.com/zepzep/zepzep-backend/pkg/enums"
)

// RedeemInput is a request to spend points on a reward.
type RedeemInput struct {
	UserID     uuid.UUID
	Points     int64
	RewardType string
}

// Redemption is the recorded redemption. RemainingPoints is only set on the
// result of Redeem.
type Redemption struct {
	ID              uuid.UUID              `json:"id"`
	UserID          uuid.UUID              `json:"user_id"`
	Points          int64                  `json:"points"`
	RewardType      string                 `json:"reward_type"`
	Status          enums.RedemptionStatus `json:"status"`
	RemainingPoints int64                  `json:"remaining_points,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
}

func fromModel(row models.Redemption, remaining int64) *Redemption {
	return &Redemption{
		ID:              row.ID,
		UserID:          row.UserID,
		Points:          row.Points,
		RewardType:      row.RewardType,
		Status:          row.Status,
		RemainingPoints: remaining,
		CreatedAt:       row.CreatedAt,
	}
}
