package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zepzep/zepzep-backend/pkg/db/models"
	pkgerrors "github.com/zepzep/zepzep-backend/pkg/errors"
)

type usersRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Service exposes read access to user profiles.
type Service interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*UserDTO, error)
}

type service struct {
	repo usersRepository
}

func NewService(repo usersRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) GetProfile(ctx context.Context, id uuid.UUID) (*UserDTO, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, MapLookupError(err)
	}
	return FromModel(user), nil
}

// MapLookupError turns a missing row into USER_NOT_FOUND and leaves other
// failures to the caller's boundary.
func MapLookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeUserNotFound, "User not found")
	}
	return fmt.Errorf("load user: %w", err)
}
