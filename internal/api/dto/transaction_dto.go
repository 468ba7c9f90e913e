package dto

import (
	"time"

	"github.com/spec-kit/finance-api/internal/domain"
)

// CreateTransactionRequest payload. Date defaults to the time of creation.
type CreateTransactionRequest struct {
	Amount      float64                `json:"amount"`
	Description string                 `json:"description"`
	Type        domain.TransactionType `json:"type"`
	Category    string                 `json:"category"`
	Date        *time.Time             `json:"date"`
}

// UpdateTransactionRequest payload.
type UpdateTransactionRequest struct {
	Amount      float64   `json:"amount"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
}

// TransactionResponse is the public view of a transaction.
type TransactionResponse struct {
	ID          string                 `json:"id"`
	UserID      string                 `json:"user_id"`
	Amount      float64                `json:"amount"`
	Date        time.Time              `json:"date"`
	Description string                 `json:"description"`
	Type        domain.TransactionType `json:"type"`
	Category    string                 `json:"category"`
}
