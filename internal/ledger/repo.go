package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperrors "github.com/uneedslabs/uneeds-backend/pkg/errors"

	"github.com/uneedslabs/uneeds-backend/pkg/db"
	"github.com/uneedslabs/uneeds-backend/pkg/db/models"
	"github.com/uneedslabs/uneeds-backend/pkg/pagination"
)

// Repository manages persistence for wallet ledger entries and the balance
// column they reconcile against.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateTransaction(ctx context.Context, txn *models.WalletTransaction) error
	ApplyBalanceDelta(ctx context.Context, userID uuid.UUID, delta int64) error
	AddAppreciation(ctx context.Context, userID uuid.UUID, amount int64) error
	Balance(ctx context.Context, userID uuid.UUID) (int64, error)
	ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.WalletTransaction, string, error)
	ListByRequest(ctx context.Context, requestID uuid.UUID) ([]models.WalletTransaction, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateTransaction(ctx context.Context, txn *models.WalletTransaction) error {
	if err := r.db.WithContext(ctx).Create(txn).Error; err != nil {
		if db.IsUniqueViolation(err, "wallet_transactions_pkey") {
			return apperrors.New(apperrors.CodeConflict, "duplicate transaction id")
		}
		return apperrors.Wrap(apperrors.CodeInternal, err, "recording wallet transaction")
	}
	return nil
}

// ApplyBalanceDelta moves the wallet balance in a single guarded UPDATE.
// The guard makes debits race-safe: two concurrent spends cannot both pass
// a read-then-write check, but only one can satisfy the predicate here.
func (r *repository) ApplyBalanceDelta(ctx context.Context, userID uuid.UUID, delta int64) error {
	res := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ? AND wallet_balance_minor + ? >= 0", userID, delta).
		Update("wallet_balance_minor", gorm.Expr("wallet_balance_minor + ?", delta))
	if res.Error != nil {
		return apperrors.Wrap(apperrors.CodeInternal, res.Error, "applying balance delta")
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).
			Model(&models.User{}).
			Where("id = ?", userID).
			Count(&count).Error; err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, err, "checking user after rejected delta")
		}
		if count == 0 {
			return apperrors.New(apperrors.CodeNotFound, "user not found")
		}
		return apperrors.New(apperrors.CodeInsufficientFunds, "wallet balance would go negative")
	}
	return nil
}

func (r *repository) AddAppreciation(ctx context.Context, userID uuid.UUID, amount int64) error {
	res := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("appreciation_total_minor", gorm.Expr("appreciation_total_minor + ?", amount))
	if res.Error != nil {
		return apperrors.Wrap(apperrors.CodeInternal, res.Error, "adding appreciation")
	}
	if res.RowsAffected == 0 {
		return apperrors.New(apperrors.CodeNotFound, "user not found")
	}
	return nil
}

func (r *repository) Balance(ctx context.Context, userID uuid.UUID) (int64, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Select("wallet_balance_minor").
		Where("id = ?", userID).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, apperrors.New(apperrors.CodeNotFound, "user not found")
	}
	if err != nil {
		return 0, apperrors.Wrap(apperrors.CodeInternal, err, "reading wallet balance")
	}
	return user.WalletBalanceMinor, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.WalletTransaction, string, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", apperrors.Wrap(apperrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit))
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.WalletTransaction
	if err := query.Find(&rows).Error; err != nil {
		return nil, "", apperrors.Wrap(apperrors.CodeInternal, err, "listing wallet transactions")
	}

	next := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return rows, next, nil
}

func (r *repository) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]models.WalletTransaction, error) {
	var rows []models.WalletTransaction
	if err := r.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "listing request transactions")
	}
	return rows, nil
}
