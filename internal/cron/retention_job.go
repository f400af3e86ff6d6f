package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zepzep/zepzep-backend/pkg/logger"
)

const day = 24 * time.Hour

// PruneFunc deletes rows older than cutoff and reports how many went.
type PruneFunc func(ctx context.Context, cutoff time.Time) (int64, error)

// RetentionJobParams configures a retention job. Days is the history kept;
// a non-positive Days falls back to DefaultDays.
type RetentionJobParams struct {
	Name        string
	Logger      *logger.Logger
	Prune       PruneFunc
	Days        int
	DefaultDays int
}

// retentionJob removes rows older than a fixed window each cycle. It is
// used for published outbox rows and for dead letters.
type retentionJob struct {
	name  string
	logg  *logger.Logger
	prune PruneFunc
	keep  time.Duration
	now   func() time.Time
}

func NewRetentionJob(params RetentionJobParams) (Job, error) {
	switch {
	case params.Name == "":
		return nil, errors.New("retention job name required")
	case params.Logger == nil:
		return nil, errors.New("logger required")
	case params.Prune == nil:
		return nil, fmt.Errorf("%s: prune func required", params.Name)
	}
	days := params.Days
	if days <= 0 {
		days = params.DefaultDays
	}
	if days <= 0 {
		return nil, fmt.Errorf("%s: retention days must be positive", params.Name)
	}
	return &retentionJob{
		name:  params.Name,
		logg:  params.Logger,
		prune: params.Prune,
		keep:  time.Duration(days) * day,
		now:   time.Now,
	}, nil
}

func (j *retentionJob) Name() string { return j.name }

func (j *retentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.keep)
	deleted, err := j.prune(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("%s: %w", j.name, err)
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"rows_deleted": deleted,
	}), "retention.pruned")
	return nil
}
