package wallet

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	apperrors "github.com/uneedslabs/uneeds-backend/pkg/errors"

	"github.com/uneedslabs/uneeds-backend/internal/escrow"
	"github.com/uneedslabs/uneeds-backend/internal/ledger"
	"github.com/uneedslabs/uneeds-backend/pkg/db/models"
	"github.com/uneedslabs/uneeds-backend/pkg/enums"
	"github.com/uneedslabs/uneeds-backend/pkg/logger"
	"github.com/uneedslabs/uneeds-backend/pkg/pagination"
)

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeLedger struct {
	recordFn  func(ctx context.Context, tx *gorm.DB, input ledger.RecordEntryInput) (*models.WalletTransaction, error)
	balanceFn func(ctx context.Context, userID uuid.UUID) (int64, error)
}

func (f *fakeLedger) Record(ctx context.Context, tx *gorm.DB, input ledger.RecordEntryInput) (*models.WalletTransaction, error) {
	if f.recordFn != nil {
		return f.recordFn(ctx, tx, input)
	}
	return &models.WalletTransaction{ID: uuid.New()}, nil
}

func (f *fakeLedger) Balance(ctx context.Context, userID uuid.UUID) (int64, error) {
	if f.balanceFn != nil {
		return f.balanceFn(ctx, userID)
	}
	return 0, nil
}

func (f *fakeLedger) Transactions(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.WalletTransaction, string, error) {
	return nil, "", nil
}

func (f *fakeLedger) RequestTransactions(ctx context.Context, requestID uuid.UUID) ([]models.WalletTransaction, error) {
	return nil, nil
}

func newTestService(t *testing.T, fl *fakeLedger) Service {
	t.Helper()
	svc, err := NewService(fakeTxRunner{}, fl, logger.New(logger.Options{ServiceName: "wallet-test", Output: io.Discard}))
	require.NoError(t, err)
	return svc
}

func TestAdjustRecordsAuditedEntry(t *testing.T) {
	fl := &fakeLedger{}
	var recorded ledger.RecordEntryInput
	fl.recordFn = func(ctx context.Context, tx *gorm.DB, input ledger.RecordEntryInput) (*models.WalletTransaction, error) {
		recorded = input
		return &models.WalletTransaction{ID: uuid.New(), Description: input.Description}, nil
	}
	svc := newTestService(t, fl)

	admin := escrow.Actor{UserID: uuid.New(), Role: enums.UserRoleAdmin}
	target := uuid.New()

	txn, err := svc.Adjust(context.Background(), admin, target, enums.TransactionTypeDeposit, 5000)
	require.NoError(t, err)
	require.NotNil(t, txn)
	assert.Equal(t, "Admin adjustment", recorded.Description)
	assert.Equal(t, target, recorded.UserID)
	assert.Equal(t, int64(5000), recorded.AmountMinor)
	assert.Equal(t, enums.TransactionTypeDeposit, recorded.Type)
}

func TestAdjustRoleGate(t *testing.T) {
	svc := newTestService(t, &fakeLedger{})
	target := uuid.New()

	for _, role := range []enums.UserRole{enums.UserRoleHosteler, enums.UserRoleHelper} {
		actor := escrow.Actor{UserID: uuid.New(), Role: role}
		_, err := svc.Adjust(context.Background(), actor, target, enums.TransactionTypeDeposit, 100)
		assert.True(t, apperrors.IsCode(err, apperrors.CodeForbidden), "role %s must be rejected", role)
	}

	agent := escrow.Actor{UserID: uuid.New(), Role: enums.UserRoleAgent}
	_, err := svc.Adjust(context.Background(), agent, target, enums.TransactionTypeWithdrawal, 100)
	assert.NoError(t, err)
}

func TestAdjustRejectsNonAdjustmentTypes(t *testing.T) {
	svc := newTestService(t, &fakeLedger{})
	admin := escrow.Actor{UserID: uuid.New(), Role: enums.UserRoleAdmin}

	for _, txType := range []enums.TransactionType{
		enums.TransactionTypePayment,
		enums.TransactionTypeAppreciation,
		enums.TransactionTypeRefund,
	} {
		_, err := svc.Adjust(context.Background(), admin, uuid.New(), txType, 100)
		assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation), "type %s must be rejected", txType)
	}
}

func TestAdjustPropagatesInsufficientFunds(t *testing.T) {
	fl := &fakeLedger{
		recordFn: func(ctx context.Context, tx *gorm.DB, input ledger.RecordEntryInput) (*models.WalletTransaction, error) {
			return nil, apperrors.New(apperrors.CodeInsufficientFunds, "wallet balance would go negative")
		},
	}
	svc := newTestService(t, fl)
	admin := escrow.Actor{UserID: uuid.New(), Role: enums.UserRoleAdmin}

	_, err := svc.Adjust(context.Background(), admin, uuid.New(), enums.TransactionTypeWithdrawal, 10000)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeInsufficientFunds))
}
