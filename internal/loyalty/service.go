package loyalty

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zepzep/zepzep-backend/internal/users"
	"github.com/zepzep/zepzep-backend/pkg/db"
	"github.com/zepzep/zepzep-backend/pkg/db/models"
	"github.com/zepzep/zepzep-backend/pkg/enums"
	pkgerrors "github.com/zepzep/zepzep-backend/pkg/errors"
	"github.com/zepzep/zepzep-backend/pkg/logger"
	"github.com/zepzep/zepzep-backend/pkg/outbox"
	"github.com/zepzep/zepzep-backend/pkg/outbox/payloads"
	"github.com/zepzep/zepzep-backend/pkg/pagination"
)

const maxRewardTypeLen = 64

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service spends loyalty points and reads back a user's redemptions.
type Service interface {
	Redeem(ctx context.Context, input RedeemInput) (*Redemption, error)
	History(ctx context.Context, userID uuid.UUID, limit int) ([]Redemption, error)
}

// ServiceParams wires the loyalty service.
type ServiceParams struct {
	Tx          txRunner
	Users       *users.Repository
	Redemptions Repository
	Outbox      outbox.Emitter
	Logger      *logger.Logger
}

type service struct {
	tx          txRunner
	users       *users.Repository
	redemptions Repository
	outbox      outbox.Emitter
	logg        *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if params.Redemptions == nil {
		return nil, fmt.Errorf("redemptions repository required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		tx:          params.Tx,
		users:       params.Users,
		redemptions: params.Redemptions,
		outbox:      params.Outbox,
		logg:        logg,
	}, nil
}

// Redeem debits points and records a pending redemption in one transaction.
// The user row stays locked until commit so concurrent redemptions queue.
func (s *service) Redeem(ctx context.Context, input RedeemInput) (*Redemption, error) {
	input.RewardType = strings.TrimSpace(input.RewardType)
	if err := validateRedeem(input); err != nil {
		return nil, err
	}

	var result *Redemption
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := s.users.WithTx(tx)
		user, err := userRepo.FindByIDForUpdate(ctx, input.UserID)
		if err != nil {
			return users.MapLookupError(err)
		}
		if user.ZepPoints < input.Points {
			return InsufficientPoints(input.Points, user.ZepPoints)
		}

		ok, err := userRepo.DeductPoints(ctx, input.UserID, input.Points)
		if err != nil {
			if db.IsCheckViolation(err, "") {
				return InsufficientPoints(input.Points, user.ZepPoints)
			}
			return fmt.Errorf("deduct points: %w", err)
		}
		if !ok {
			return InsufficientPoints(input.Points, user.ZepPoints)
		}

		row := models.Redemption{
			UserID:     input.UserID,
			Points:     input.Points,
			RewardType: input.RewardType,
			Status:     enums.RedemptionStatusPending,
		}
		if err := s.redemptions.WithTx(tx).Create(ctx, &row); err != nil {
			return fmt.Errorf("insert redemption: %w", err)
		}

		remaining := user.ZepPoints - input.Points
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPointsRedeemed,
			AggregateType: enums.AggregateRedemption,
			AggregateID:   row.ID,
			Actor:         &outbox.Actor{UserID: input.UserID, Role: user.Role},
			Data: payloads.PointsRedeemedEvent{
				RedemptionID:    row.ID,
				UserID:          input.UserID,
				Points:          input.Points,
				RewardType:      input.RewardType,
				RemainingPoints: remaining,
			},
		}); err != nil {
			return fmt.Errorf("emit points_redeemed: %w", err)
		}

		result = fromModel(row, remaining)
		return nil
	})
	if err != nil {
		return nil, pkgerrors.WrapStorage(pkgerrors.CodeTransactionAborted, err, "redemption aborted")
	}

	logCtx := s.logg.WithUserID(ctx, input.UserID.String())
	logCtx = s.logg.WithFields(logCtx, map[string]any{
		"redemption_id": result.ID.String(),
		"points":        input.Points,
		"reward_type":   input.RewardType,
	})
	s.logg.Info(logCtx, "loyalty.redeem.completed")
	return result, nil
}

// History lists the user's redemptions, newest first.
func (s *service) History(ctx context.Context, userID uuid.UUID, limit int) ([]Redemption, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid redemption history request").
			WithDetails(map[string]string{"user_id": "required"})
	}
	rows, err := s.redemptions.ListByUser(ctx, userID, pagination.NormalizeLimit(limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list redemptions")
	}
	out := make([]Redemption, 0, len(rows))
	for _, row := range rows {
		out = append(out, *fromModel(row, 0))
	}
	return out, nil
}

func validateRedeem(input RedeemInput) error {
	details := map[string]string{}
	if input.UserID == uuid.Nil {
		details["user_id"] = "required"
	}
	if input.Points <= 0 {
		details["points"] = "must be greater than zero"
	}
	switch {
	case input.RewardType == "":
		details["reward_type"] = "required"
	case len(input.RewardType) > maxRewardTypeLen:
		details["reward_type"] = fmt.Sprintf("must be at most %d characters", maxRewardTypeLen)
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid redemption request").WithDetails(details)
	}
	return nil
}
