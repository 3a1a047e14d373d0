package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperrors "github.com/uneedslabs/uneeds-backend/pkg/errors"

	"github.com/uneedslabs/uneeds-backend/pkg/db/models"
	"github.com/uneedslabs/uneeds-backend/pkg/enums"
	"github.com/uneedslabs/uneeds-backend/pkg/pagination"
)

// Service defines operations that move wallet money. Every movement writes
// a transaction row and the matching balance delta in the caller's database
// transaction, so the two can never drift.
type Service interface {
	Record(ctx context.Context, tx *gorm.DB, input RecordEntryInput) (*models.WalletTransaction, error)
	Balance(ctx context.Context, userID uuid.UUID) (int64, error)
	Transactions(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.WalletTransaction, string, error)
	RequestTransactions(ctx context.Context, requestID uuid.UUID) ([]models.WalletTransaction, error)
}

type service struct {
	repo Repository
}

// RecordEntryInput captures the immutable data a wallet entry requires.
// AmountMinor is a magnitude; the direction comes from the type.
type RecordEntryInput struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Type        enums.TransactionType
	AmountMinor int64
	Description string
	RequestID   *uuid.UUID
}

// NewService wires a ledger service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Record(ctx context.Context, tx *gorm.DB, input RecordEntryInput) (*models.WalletTransaction, error) {
	if input.UserID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "user id is required")
	}
	if !input.Type.IsValid() {
		return nil, apperrors.New(apperrors.CodeValidation, fmt.Sprintf("invalid transaction type %q", input.Type))
	}
	if input.AmountMinor <= 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "amount must be a positive number of minor units")
	}
	if input.Description == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "description is required")
	}

	id := input.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	repo := s.repo.WithTx(tx)

	if err := repo.ApplyBalanceDelta(ctx, input.UserID, input.Type.Sign()*input.AmountMinor); err != nil {
		return nil, err
	}
	if input.Type == enums.TransactionTypeAppreciation {
		if err := repo.AddAppreciation(ctx, input.UserID, input.AmountMinor); err != nil {
			return nil, err
		}
	}

	txn := &models.WalletTransaction{
		ID:          id,
		UserID:      input.UserID,
		Type:        input.Type,
		AmountMinor: input.AmountMinor,
		Description: input.Description,
		RequestID:   input.RequestID,
	}
	if err := repo.CreateTransaction(ctx, txn); err != nil {
		return nil, err
	}
	return txn, nil
}

func (s *service) Balance(ctx context.Context, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, apperrors.New(apperrors.CodeValidation, "user id is required")
	}
	return s.repo.Balance(ctx, userID)
}

func (s *service) Transactions(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.WalletTransaction, string, error) {
	if userID == uuid.Nil {
		return nil, "", apperrors.New(apperrors.CodeValidation, "user id is required")
	}
	return s.repo.ListByUser(ctx, userID, params)
}

func (s *service) RequestTransactions(ctx context.Context, requestID uuid.UUID) ([]models.WalletTransaction, error) {
	if requestID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "request id is required")
	}
	return s.repo.ListByRequest(ctx, requestID)
}
