package disputes

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperrors "github.com/uneedslabs/uneeds-backend/pkg/errors"

	"github.com/uneedslabs/uneeds-backend/pkg/db/models"
	"github.com/uneedslabs/uneeds-backend/pkg/pagination"
)

// Repository manages persistence for the admin dispute queue.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, alert *models.DisputeAlert) error
	Find(ctx context.Context, id uuid.UUID) (*models.DisputeAlert, error)
	List(ctx context.Context, unreadOnly bool, params pagination.Params) ([]models.DisputeAlert, string, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
	DeleteAll(ctx context.Context) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a dispute alert repository bound to the database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, alert *models.DisputeAlert) error {
	if err := r.db.WithContext(ctx).Create(alert).Error; err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, err, "creating dispute alert")
	}
	return nil
}

func (r *repository) Find(ctx context.Context, id uuid.UUID) (*models.DisputeAlert, error) {
	var alert models.DisputeAlert
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&alert).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.New(apperrors.CodeNotFound, "alert not found")
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "finding dispute alert")
	}
	return &alert, nil
}

func (r *repository) List(ctx context.Context, unreadOnly bool, params pagination.Params) ([]models.DisputeAlert, string, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", apperrors.Wrap(apperrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit))
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.DisputeAlert
	if err := query.Find(&rows).Error; err != nil {
		return nil, "", apperrors.Wrap(apperrors.CodeInternal, err, "listing dispute alerts")
	}

	next := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return rows, next, nil
}

func (r *repository) MarkRead(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&models.DisputeAlert{}).
		Where("id = ?", id).
		Update("is_read", true)
	if res.Error != nil {
		return apperrors.Wrap(apperrors.CodeInternal, res.Error, "dismissing dispute alert")
	}
	if res.RowsAffected == 0 {
		return apperrors.New(apperrors.CodeNotFound, "alert not found")
	}
	return nil
}

func (r *repository) DeleteAll(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("1 = 1").
		Delete(&models.DisputeAlert{})
	if res.Error != nil {
		return 0, apperrors.Wrap(apperrors.CodeInternal, res.Error, "clearing dispute alerts")
	}
	return res.RowsAffected, nil
}
