package cron

import (
	"context"
	"fmt"

	"github.com/zepzep/zepzep-backend/pkg/logger"
)

const defaultTrustScoreBatch = 200

type trustScoreRefresher interface {
	RefreshAll(ctx context.Context, batchSize int) (int, error)
}

type TrustScoreRefreshJobParams struct {
	Logger    *logger.Logger
	Refresher trustScoreRefresher
	BatchSize int
}

// NewTrustScoreRefreshJob recomputes the stored trust score for every
// customer with at least one delivered order.
func NewTrustScoreRefreshJob(params TrustScoreRefreshJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Refresher == nil {
		return nil, fmt.Errorf("trust score service required")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultTrustScoreBatch
	}
	return &trustScoreRefreshJob{logg: params.Logger, svc: params.Refresher, batch: batch}, nil
}

type trustScoreRefreshJob struct {
	logg  *logger.Logger
	svc   trustScoreRefresher
	batch int
}

func (j *trustScoreRefreshJob) Name() string { return "trust-score-refresh" }

func (j *trustScoreRefreshJob) Run(ctx context.Context) error {
	refreshed, err := j.svc.RefreshAll(ctx, j.batch)
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"customers_refreshed": refreshed,
		"batch_size":          j.batch,
	})
	if err != nil {
		return fmt.Errorf("trust score refresh: %w", err)
	}
	j.logg.Info(logCtx, "trust score refresh complete")
	return nil
}
