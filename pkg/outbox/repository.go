package outbox

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/zepzep/zepzep-backend/pkg/db/models"
)

const maxLastErrorLen = 1024

var errNoTx = errors.New("outbox: transaction required")

// Repository is the outbox_events table. Every method that changes a row
// takes the caller's transaction.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Insert(ctx context.Context, tx *gorm.DB, event *models.OutboxEvent) error {
	if tx == nil {
		return errNoTx
	}
	return tx.WithContext(ctx).Create(event).Error
}

// ClaimPending locks up to limit unpublished rows that still have attempts
// left, oldest first. SKIP LOCKED lets several publishers share the table.
func (r *Repository) ClaimPending(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error) {
	var pending []models.OutboxEvent
	err := tx.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate, Options: clause.LockingOptionsSkipLocked}).
		Where("published_at IS NULL").
		Where("attempt_count < ?", maxAttempts).
		Order("created_at, id").
		Limit(limit).
		Find(&pending).Error
	return pending, err
}

func (r *Repository) MarkPublished(tx *gorm.DB, id uuid.UUID) error {
	return updateEvent(tx, id, map[string]any{"published_at": time.Now().UTC(), "last_error": nil})
}

func (r *Repository) RecordFailure(tx *gorm.DB, id uuid.UUID, cause error) error {
	return updateEvent(tx, id, map[string]any{
		"attempt_count": gorm.Expr("attempt_count + 1"),
		"last_error":    truncateError(cause),
	})
}

// Exhaust pins attempt_count at ceiling so ClaimPending never returns the
// row again.
func (r *Repository) Exhaust(tx *gorm.DB, id uuid.UUID, cause error, ceiling int) error {
	return updateEvent(tx, id, map[string]any{
		"attempt_count": ceiling,
		"last_error":    truncateError(cause),
	})
}

func (r *Repository) DeletePublishedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("published_at < ?", cutoff).
		Delete(&models.OutboxEvent{})
	return res.RowsAffected, res.Error
}

func updateEvent(tx *gorm.DB, id uuid.UUID, fields map[string]any) error {
	return tx.Model(&models.OutboxEvent{}).Where("id = ?", id).Updates(fields).Error
}

func truncateError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if len(msg) > maxLastErrorLen {
		msg = msg[:maxLastErrorLen]
	}
	return msg
}
