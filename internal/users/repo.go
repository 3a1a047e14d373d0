package users

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "github.com/uneedslabs/uneeds-backend/pkg/errors"

	"github.com/uneedslabs/uneeds-backend/internal/repo"
	"github.com/uneedslabs/uneeds-backend/pkg/db/models"
	"github.com/uneedslabs/uneeds-backend/pkg/enums"
)

// Repository manages persistence for wallet-bearing user projections.
// Identity lives with the campus provider; rows here exist so the ledger
// has a balance to move.
type Repository interface {
	Find(ctx context.Context, id uuid.UUID) (*models.User, error)
	Ensure(ctx context.Context, id uuid.UUID, role enums.UserRole, displayName string) (*models.User, error)
	ListByRole(ctx context.Context, role enums.UserRole) ([]models.User, error)
}

type repository struct {
	repo.Base
}

// NewRepository returns a user repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) Find(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := r.DB(ctx).Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.New(apperrors.CodeNotFound, "user not found")
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "finding user")
	}
	return &user, nil
}

// Ensure provisions the wallet projection for a token subject on first
// sight. Existing rows are returned untouched; role and name changes flow
// from the identity provider, not from here.
func (r *repository) Ensure(ctx context.Context, id uuid.UUID, role enums.UserRole, displayName string) (*models.User, error) {
	if id == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "user id is required")
	}
	if !role.IsValid() {
		return nil, apperrors.New(apperrors.CodeValidation, "invalid user role")
	}

	user := models.User{
		ID:          id,
		Role:        role,
		DisplayName: strings.TrimSpace(displayName),
	}
	err := r.DB(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(&user).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "provisioning user")
	}

	return r.Find(ctx, id)
}

func (r *repository) ListByRole(ctx context.Context, role enums.UserRole) ([]models.User, error) {
	var out []models.User
	if err := r.DB(ctx).
		Where("role = ?", role).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "listing users")
	}
	return out, nil
}
