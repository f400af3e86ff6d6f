package users

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/zepzep/zepzep-backend/pkg/db/models"
)

// Repository exposes user persistence, including the points balance.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx rebinds the repository to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts a new user.
func (r *Repository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// FindByID loads a user by id.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Take(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByIDForUpdate loads a user and holds its row lock for the surrounding
// transaction.
func (r *Repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Take(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// AddPoints credits points with a relative update so concurrent credits and
// debits never overwrite each other.
func (r *Repository) AddPoints(ctx context.Context, id uuid.UUID, points int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("zep_points", gorm.Expr("zep_points + ?", points))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// DeductPoints debits points only when the balance covers them and reports
// whether the debit happened.
func (r *Repository) DeductPoints(ctx context.Context, id uuid.UUID, points int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ? AND zep_points >= ?", id, points).
		UpdateColumn("zep_points", gorm.Expr("zep_points - ?", points))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// UpdateTrustScore overwrites the cached trust score. It reports whether a
// row was written.
func (r *Repository) UpdateTrustScore(ctx context.Context, id uuid.UUID, score decimal.Decimal) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("zep_trust_score", score)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
