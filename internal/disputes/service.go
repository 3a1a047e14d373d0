package disputes

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperrors "github.com/uneedslabs/uneeds-backend/pkg/errors"

	"github.com/uneedslabs/uneeds-backend/pkg/db/models"
	"github.com/uneedslabs/uneeds-backend/pkg/logger"
	"github.com/uneedslabs/uneeds-backend/pkg/pagination"
)

// Service manages the admin alert queue. Alerts are decoupled from request
// resolution on purpose: dismissing one is an inbox action, not a ruling.
type Service interface {
	RaiseInTx(ctx context.Context, tx *gorm.DB, requestID, raisedBy uuid.UUID, message string) error
	List(ctx context.Context, unreadOnly bool, params pagination.Params) ([]models.DisputeAlert, string, error)
	Dismiss(ctx context.Context, alertID uuid.UUID) error
	ClearAll(ctx context.Context) (int64, error)
}

type service struct {
	repo Repository
	log  *logger.Logger
}

// NewService wires a dispute alert service.
func NewService(repo Repository, log *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("dispute repository required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, log: log}, nil
}

func (s *service) RaiseInTx(ctx context.Context, tx *gorm.DB, requestID, raisedBy uuid.UUID, message string) error {
	if requestID == uuid.Nil {
		return apperrors.New(apperrors.CodeValidation, "request id is required")
	}
	if raisedBy == uuid.Nil {
		return apperrors.New(apperrors.CodeValidation, "raised by is required")
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return apperrors.New(apperrors.CodeValidation, "message is required")
	}

	alert := &models.DisputeAlert{
		ID:        uuid.New(),
		RequestID: requestID,
		RaisedBy:  raisedBy,
		Message:   message,
	}
	if err := s.repo.WithTx(tx).Create(ctx, alert); err != nil {
		return err
	}

	s.log.Warn(s.log.WithFields(ctx, map[string]any{
		"alert_id":   alert.ID.String(),
		"request_id": requestID.String(),
	}), "dispute alert queued for admin review")
	return nil
}

func (s *service) List(ctx context.Context, unreadOnly bool, params pagination.Params) ([]models.DisputeAlert, string, error) {
	return s.repo.List(ctx, unreadOnly, params)
}

func (s *service) Dismiss(ctx context.Context, alertID uuid.UUID) error {
	if alertID == uuid.Nil {
		return apperrors.New(apperrors.CodeValidation, "alert id is required")
	}
	return s.repo.MarkRead(ctx, alertID)
}

func (s *service) ClearAll(ctx context.Context) (int64, error) {
	cleared, err := s.repo.DeleteAll(ctx)
	if err != nil {
		return 0, err
	}
	s.log.Info(s.log.WithField(ctx, "cleared", cleared), "dispute alert queue cleared")
	return cleared, nil
}
