package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/uneedslabs/uneeds-backend/pkg/enums"
)

// User is the wallet-bearing projection of an identity-provider account.
// Only wallet_balance_minor and appreciation_total_minor are mutated here,
// and only by the ledger.
type User struct {
	ID                     uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	Role                   enums.UserRole `gorm:"column:role;type:user_role_enum;not null"`
	DisplayName            string         `gorm:"column:display_name;not null"`
	WalletBalanceMinor     int64          `gorm:"column:wallet_balance_minor;not null;default:0"`
	AppreciationTotalMinor int64          `gorm:"column:appreciation_total_minor;not null;default:0"`
	ProfileComplete        bool           `gorm:"column:profile_complete;not null;default:false"`
	CreatedAt              time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt              time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
