package wallet

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperrors "github.com/uneedslabs/uneeds-backend/pkg/errors"

	"github.com/uneedslabs/uneeds-backend/internal/escrow"
	"github.com/uneedslabs/uneeds-backend/internal/ledger"
	"github.com/uneedslabs/uneeds-backend/pkg/db/models"
	"github.com/uneedslabs/uneeds-backend/pkg/enums"
	"github.com/uneedslabs/uneeds-backend/pkg/logger"
	"github.com/uneedslabs/uneeds-backend/pkg/pagination"
)

// adjustmentDescription is the audited label on every manual wallet change.
const adjustmentDescription = "Admin adjustment"

// Service is the wallet read surface plus the staff adjustment command.
type Service interface {
	Adjust(ctx context.Context, actor escrow.Actor, userID uuid.UUID, txType enums.TransactionType, amountMinor int64) (*models.WalletTransaction, error)
	Balance(ctx context.Context, userID uuid.UUID) (int64, error)
	Transactions(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.WalletTransaction, string, error)
}

type service struct {
	tx     escrow.TxRunner
	ledger ledger.Service
	log    *logger.Logger
}

// NewService wires the wallet service.
func NewService(tx escrow.TxRunner, ledgerSvc ledger.Service, log *logger.Logger) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if ledgerSvc == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{tx: tx, ledger: ledgerSvc, log: log}, nil
}

// Adjust applies a manual deposit or withdrawal to a user's wallet. Staff
// only; withdrawals still respect the non-negative balance guard.
func (s *service) Adjust(ctx context.Context, actor escrow.Actor, userID uuid.UUID, txType enums.TransactionType, amountMinor int64) (*models.WalletTransaction, error) {
	if !actor.IsStaff() {
		return nil, apperrors.New(apperrors.CodeForbidden, "role may not perform this action")
	}
	if userID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "user id is required")
	}
	if txType != enums.TransactionTypeDeposit && txType != enums.TransactionTypeWithdrawal {
		return nil, apperrors.New(apperrors.CodeValidation, "adjustment must be a deposit or a withdrawal")
	}

	var txn *models.WalletTransaction
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		txn, err = s.ledger.Record(ctx, tx, ledger.RecordEntryInput{
			UserID:      userID,
			Type:        txType,
			AmountMinor: amountMinor,
			Description: adjustmentDescription,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info(s.log.WithFields(ctx, map[string]any{
		"target_user":  userID.String(),
		"type":         txType,
		"amount_minor": amountMinor,
		"adjusted_by":  actor.UserID.String(),
	}), "wallet adjusted")
	return txn, nil
}

func (s *service) Balance(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.ledger.Balance(ctx, userID)
}

func (s *service) Transactions(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.WalletTransaction, string, error) {
	return s.ledger.Transactions(ctx, userID, params)
}
