package loyalty

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/zepzep/zepzep-backend/api/middleware"
	"github.com/zepzep/zepzep-backend/api/responses"
	"github.com/zepzep/zepzep-backend/api/validators"
	internalloyalty "github.com/zepzep/zepzep-backend/internal/loyalty"
	pkgerrors "github.com/zepzep/zepzep-backend/pkg/errors"
	"github.com/zepzep/zepzep-backend/pkg/logger"
)

type redeemRequest struct {
	UserID     uuid.UUID `json:"user_id" validate:"required"`
	Points     int64     `json:"points" validate:"gt=0"`
	RewardType string    `json:"reward_type" validate:"required,notblank,max=64"`
}

type redeemResponse struct {
	Success         bool   `json:"success"`
	Message         string `json:"message"`
	RemainingPoints int64  `json:"remaining_points"`
}

// Redeem spends a customer's Zep Points on a reward.
func Redeem(svc internalloyalty.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := validators.DecodeJSON[redeemRequest](r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		redemption, err := svc.Redeem(r.Context(), internalloyalty.RedeemInput{
			UserID:     req.UserID,
			Points:     req.Points,
			RewardType: req.RewardType,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteOK(w, redeemResponse{
			Success:         true,
			Message:         fmt.Sprintf("Redeemed %d points for %s", redemption.Points, redemption.RewardType),
			RemainingPoints: redemption.RemainingPoints,
		})
	}
}

// History lists the authenticated user's redemptions, newest first.
func History(svc internalloyalty.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserIDFromContext(r.Context())
		if userID == uuid.Nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}
		page, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		redemptions, err := svc.History(r.Context(), userID, page.Limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteOK(w, map[string]any{"redemptions": redemptions})
	}
}
