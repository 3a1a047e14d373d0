package requests

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperrors "github.com/uneedslabs/uneeds-backend/pkg/errors"

	"github.com/uneedslabs/uneeds-backend/pkg/db"
	"github.com/uneedslabs/uneeds-backend/pkg/db/models"
	"github.com/uneedslabs/uneeds-backend/pkg/enums"
	"github.com/uneedslabs/uneeds-backend/pkg/pagination"
)

// ListFilter narrows a request listing. Zero values mean "no filter".
type ListFilter struct {
	Status     enums.RequestStatus
	HostelerID uuid.UUID
	HelperID   uuid.UUID
}

// Repository manages persistence for delivery requests. All status writes go
// through UpdateStatusCAS so concurrent commands on the same request
// serialize on the current status instead of clobbering each other.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, request *models.DeliveryRequest) error
	Find(ctx context.Context, id uuid.UUID) (*models.DeliveryRequest, error)
	List(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.DeliveryRequest, string, error)
	UpdateStatusCAS(ctx context.Context, id uuid.UUID, from, to enums.RequestStatus, updates map[string]any) error
	CountByStatus(ctx context.Context) (map[enums.RequestStatus]int64, error)
	SumServiceChargesByStatus(ctx context.Context, status enums.RequestStatus) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a request repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, request *models.DeliveryRequest) error {
	if err := r.db.WithContext(ctx).Create(request).Error; err != nil {
		if db.IsUniqueViolation(err, "delivery_requests_pkey") {
			return apperrors.New(apperrors.CodeConflict, "duplicate request id")
		}
		return apperrors.Wrap(apperrors.CodeInternal, err, "creating delivery request")
	}
	return nil
}

func (r *repository) Find(ctx context.Context, id uuid.UUID) (*models.DeliveryRequest, error) {
	var request models.DeliveryRequest
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("id = ?", id).
		First(&request).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.New(apperrors.CodeNotFound, "request not found")
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "finding delivery request")
	}
	return &request, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.DeliveryRequest, string, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", apperrors.Wrap(apperrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit))

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.HostelerID != uuid.Nil {
		query = query.Where("hosteler_id = ?", filter.HostelerID)
	}
	if filter.HelperID != uuid.Nil {
		query = query.Where("helper_id = ?", filter.HelperID)
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.DeliveryRequest
	if err := query.Find(&rows).Error; err != nil {
		return nil, "", apperrors.Wrap(apperrors.CodeInternal, err, "listing delivery requests")
	}

	next := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return rows, next, nil
}

// UpdateStatusCAS advances the request status only if the row still holds
// the expected current status. A zero row count means another command won
// the race (or the id is unknown); callers retry from a fresh read.
func (r *repository) UpdateStatusCAS(ctx context.Context, id uuid.UUID, from, to enums.RequestStatus, updates map[string]any) error {
	values := map[string]any{"status": to}
	for column, value := range updates {
		values[column] = value
	}

	res := r.db.WithContext(ctx).
		Model(&models.DeliveryRequest{}).
		Where("id = ? AND status = ?", id, from).
		Updates(values)
	if res.Error != nil {
		return apperrors.Wrap(apperrors.CodeInternal, res.Error, "updating request status")
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).
			Model(&models.DeliveryRequest{}).
			Where("id = ?", id).
			Count(&count).Error; err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, err, "checking request after rejected update")
		}
		if count == 0 {
			return apperrors.New(apperrors.CodeNotFound, "request not found")
		}
		return apperrors.New(apperrors.CodeStaleState, "request status changed concurrently")
	}
	return nil
}

func (r *repository) CountByStatus(ctx context.Context) (map[enums.RequestStatus]int64, error) {
	type row struct {
		Status enums.RequestStatus
		Total  int64
	}
	var rows []row
	if err := r.db.WithContext(ctx).
		Model(&models.DeliveryRequest{}).
		Select("status, COUNT(*) AS total").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "counting requests by status")
	}
	out := make(map[enums.RequestStatus]int64, len(rows))
	for _, r := range rows {
		out[r.Status] = r.Total
	}
	return out, nil
}

func (r *repository) SumServiceChargesByStatus(ctx context.Context, status enums.RequestStatus) (int64, error) {
	var total *int64
	if err := r.db.WithContext(ctx).
		Model(&models.DeliveryRequest{}).
		Select("SUM(service_charge_minor)").
		Where("status = ?", status).
		Scan(&total).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.CodeInternal, err, "summing service charges")
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}
