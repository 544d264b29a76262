package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction types
const (
	TypeIncome  = "income"
	TypeExpense = "expense"
)

// ValidTransactionType reports whether t is one of the supported types.
func ValidTransactionType(t string) bool {
	return t == TypeIncome || t == TypeExpense
}

// CategoryRef is the category projection embedded in transaction responses.
type CategoryRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// TransactionOwner identifies the owning user on admin-scoped listings.
type TransactionOwner struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Transaction is a single income or expense entry. Amounts are exact
// decimals with two fractional digits; soft-deleted rows keep their data
// but are excluded from every read path.
type Transaction struct {
	ID          int               `json:"id"`
	UserID      int               `json:"user_id"`
	Amount      decimal.Decimal   `json:"amount"`
	Type        string            `json:"type"`
	Category    CategoryRef       `json:"category"`
	Description *string           `json:"description"`
	Date        Date              `json:"date"`
	User        *TransactionOwner `json:"user,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}
