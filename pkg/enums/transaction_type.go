package enums

import "fmt"

// TransactionType maps to the wallet_transaction_type_enum enum in Postgres.
type TransactionType string

const (
	TransactionTypeDeposit      TransactionType = "deposit"
	TransactionTypeWithdrawal   TransactionType = "withdrawal"
	TransactionTypePayment      TransactionType = "payment"
	TransactionTypeAppreciation TransactionType = "appreciation"
	TransactionTypeRefund       TransactionType = "refund"
)

var validTransactionTypes = []TransactionType{
	TransactionTypeDeposit,
	TransactionTypeWithdrawal,
	TransactionTypePayment,
	TransactionTypeAppreciation,
	TransactionTypeRefund,
}

// IsValid reports whether the value matches the canonical transaction enum.
func (t TransactionType) IsValid() bool {
	for _, candidate := range validTransactionTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// Sign returns +1 for credits and -1 for debits, the direction the type
// applies to a wallet balance.
func (t TransactionType) Sign() int64 {
	switch t {
	case TransactionTypeWithdrawal, TransactionTypePayment:
		return -1
	default:
		return 1
	}
}

// ParseTransactionType converts raw input into TransactionType.
func ParseTransactionType(value string) (TransactionType, error) {
	for _, candidate := range validTransactionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid transaction type %q", value)
}
