package trustscore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/zepzep/zepzep-backend/internal/users"
	"github.com/zepzep/zepzep-backend/pkg/enums"
	pkgerrors "github.com/zepzep/zepzep-backend/pkg/errors"
	"github.com/zepzep/zepzep-backend/pkg/logger"
	"github.com/zepzep/zepzep-backend/pkg/metrics"
	"github.com/zepzep/zepzep-backend/pkg/outbox"
	"github.com/zepzep/zepzep-backend/pkg/outbox/payloads"
)

const defaultRefreshBatch = 200

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service computes trust scores and refreshes the cached value on users.
type Service interface {
	Compute(ctx context.Context, customerID uuid.UUID) (*Result, error)
	RefreshAll(ctx context.Context, batchSize int) (int, error)
}

type ServiceParams struct {
	Tx      txRunner
	Repo    Repository
	Users   *users.Repository
	Outbox  outbox.Emitter
	Metrics *metrics.TrustScoreMetrics
	Logger  *logger.Logger
}

type service struct {
	tx      txRunner
	repo    Repository
	users   *users.Repository
	outbox  outbox.Emitter
	metrics *metrics.TrustScoreMetrics
	logg    *logger.Logger
	now     func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("trust score repository required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		tx:      params.Tx,
		repo:    params.Repo,
		users:   params.Users,
		outbox:  params.Outbox,
		metrics: params.Metrics,
		logg:    logg,
		now:     time.Now,
	}, nil
}

// Compute scores the customer's delivered orders and writes the rounded score
// back to users.zep_trust_score. An unknown customer scores zero and nothing
// is written.
func (s *service) Compute(ctx context.Context, customerID uuid.UUID) (*Result, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "User ID required")
	}
	ctx = s.logg.WithUserID(ctx, customerID.String())

	orders, err := s.repo.DeliveredOrders(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load delivered orders")
	}
	result := Calculate(orders, s.now().UTC())
	s.metrics.Observe(string(result.Level), result.Score)

	if err := s.writeBack(ctx, customerID, result); err != nil {
		return nil, pkgerrors.WrapStorage(pkgerrors.CodeTransactionAborted, err, "trust score write-back failed")
	}
	return &result, nil
}

func (s *service) writeBack(ctx context.Context, customerID uuid.UUID, result Result) error {
	score := decimal.NewFromFloat(result.Score)
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.users.WithTx(tx)
		user, err := repo.FindByIDForUpdate(ctx, customerID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logg.Warn(ctx, "trustscore.writeback.unknown_user")
			return nil
		}
		if err != nil {
			return fmt.Errorf("lock user: %w", err)
		}
		if user.ZepTrustScore.Equal(score) {
			return nil
		}
		if _, err := repo.UpdateTrustScore(ctx, customerID, score); err != nil {
			return fmt.Errorf("update trust score: %w", err)
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventTrustScoreChange,
			AggregateType: enums.AggregateUser,
			AggregateID:   customerID,
			Data: payloads.TrustScoreChangedEvent{
				UserID:        customerID,
				PreviousScore: user.ZepTrustScore,
				Score:         score,
				Level:         result.Level,
			},
		})
	})
}

// RefreshAll recomputes every customer with a delivered order, batchSize ids
// at a time. A failure on one customer is logged and the sweep continues.
func (s *service) RefreshAll(ctx context.Context, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = defaultRefreshBatch
	}
	var (
		refreshed int
		failed    int
		after     = uuid.Nil
	)
	for {
		if err := ctx.Err(); err != nil {
			return refreshed, err
		}
		ids, err := s.repo.CustomersWithDeliveries(ctx, after, batchSize)
		if err != nil {
			return refreshed, fmt.Errorf("list customers: %w", err)
		}
		for _, id := range ids {
			if _, err := s.Compute(ctx, id); err != nil {
				failed++
				s.logg.Error(s.logg.WithUserID(ctx, id.String()), "trustscore.refresh.customer_failed", err)
				continue
			}
			refreshed++
		}
		if len(ids) < batchSize {
			break
		}
		after = ids[len(ids)-1]
	}
	if failed > 0 {
		return refreshed, fmt.Errorf("trust score refresh: %d customers failed", failed)
	}
	return refreshed, nil
}
