package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/uneedslabs/uneeds-backend/pkg/enums"
)

// WalletTransaction records an immutable money movement on a user's wallet.
// Rows are append-only; the signed sum per user reconciles with the wallet
// balance at all times.
type WalletTransaction struct {
	ID          uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	UserID      uuid.UUID             `gorm:"column:user_id;type:uuid;not null;index"`
	Type        enums.TransactionType `gorm:"column:type;type:wallet_transaction_type_enum;not null"`
	AmountMinor int64                 `gorm:"column:amount_minor;not null"`
	Description string                `gorm:"column:description;not null"`
	RequestID   *uuid.UUID            `gorm:"column:request_id;type:uuid;index"`
	CreatedAt   time.Time             `gorm:"column:created_at;autoCreateTime"`
}
