package domain

import "time"

// TransactionType distinguishes money in from money out.
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "INCOME"
	TransactionTypeExpense TransactionType = "EXPENSE"
)

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	return t == TransactionTypeIncome || t == TransactionTypeExpense
}

// Transaction is a single money movement recorded by a user.
type Transaction struct {
	ID          string
	UserID      string
	Amount      float64
	Date        time.Time
	Description string
	Type        TransactionType
	Category    string
}
