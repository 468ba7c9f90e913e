package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/finance-api/internal/domain"
	"github.com/spec-kit/finance-api/internal/repository"
	apperrors "github.com/spec-kit/finance-api/pkg/util"
)

// TransactionService manages a user's transactions. Callers have already
// been authorized for userID by the guard.
type TransactionService struct {
	transactions repository.TransactionRepository
	now          func() time.Time
}

// TransactionCreateInput describes a new transaction. Date defaults to now.
type TransactionCreateInput struct {
	Amount      float64
	Description string
	Type        domain.TransactionType
	Category    string
	Date        *time.Time
}

// TransactionUpdateInput carries the editable fields.
type TransactionUpdateInput struct {
	Amount      float64
	Description string
	Date        time.Time
}

// TransactionListFilter narrows a listing.
type TransactionListFilter struct {
	Type     *domain.TransactionType
	Category *string
	From     *time.Time
	To       *time.Time
	Limit    int
	Offset   int
}

// NewTransactionService creates the service.
func NewTransactionService(transactions repository.TransactionRepository) *TransactionService {
	return &TransactionService{transactions: transactions, now: time.Now}
}

// List returns the user's transactions, newest first.
func (s *TransactionService) List(ctx context.Context, userID string, filter TransactionListFilter) ([]domain.Transaction, error) {
	if filter.Type != nil {
		normalized := domain.TransactionType(strings.ToUpper(string(*filter.Type)))
		if !normalized.Valid() {
			return nil, apperrors.NewValidationError("invalid transaction type", map[string]any{"type": *filter.Type})
		}
		filter.Type = &normalized
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, apperrors.NewValidationError("to must not be before from", nil)
	}

	txs, err := s.transactions.List(ctx, repository.TransactionFilter{
		UserID:   userID,
		Type:     filter.Type,
		Category: filter.Category,
		From:     filter.From,
		To:       filter.To,
		Limit:    filter.Limit,
		Offset:   filter.Offset,
	})
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return txs, nil
}

// Get returns one of the user's transactions.
func (s *TransactionService) Get(ctx context.Context, userID, id string) (*domain.Transaction, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	tx, err := s.transactions.GetByID(ctx, userID, id)
	if err != nil {
		return nil, notFoundOrInternal("transaction", err)
	}
	return tx, nil
}

// Create records a transaction for the user.
func (s *TransactionService) Create(ctx context.Context, userID string, input TransactionCreateInput) (*domain.Transaction, error) {
	txType := domain.TransactionType(strings.ToUpper(strings.TrimSpace(string(input.Type))))
	if !txType.Valid() {
		return nil, apperrors.NewValidationError("type must be INCOME or EXPENSE", map[string]any{"type": input.Type})
	}
	if input.Amount <= 0 {
		return nil, apperrors.NewValidationError("amount must be positive", nil)
	}
	category := strings.TrimSpace(input.Category)
	if category == "" {
		return nil, apperrors.NewValidationError("category is required", nil)
	}

	date := s.now().UTC()
	if input.Date != nil {
		date = input.Date.UTC()
	}

	tx := &domain.Transaction{
		UserID:      userID,
		Amount:      input.Amount,
		Date:        date,
		Description: strings.TrimSpace(input.Description),
		Type:        txType,
		Category:    category,
	}
	if err := s.transactions.Create(ctx, tx); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return tx, nil
}

// Update edits amount, description and date of a transaction.
func (s *TransactionService) Update(ctx context.Context, userID, id string, input TransactionUpdateInput) (*domain.Transaction, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	if input.Amount <= 0 {
		return nil, apperrors.NewValidationError("amount must be positive", nil)
	}
	if input.Date.IsZero() {
		return nil, apperrors.NewValidationError("date is required", nil)
	}

	tx := &domain.Transaction{
		ID:          id,
		UserID:      userID,
		Amount:      input.Amount,
		Date:        input.Date.UTC(),
		Description: strings.TrimSpace(input.Description),
	}
	if err := s.transactions.Update(ctx, tx); err != nil {
		return nil, notFoundOrInternal("transaction", err)
	}
	return s.Get(ctx, userID, id)
}

// Delete removes a transaction.
func (s *TransactionService) Delete(ctx context.Context, userID, id string) error {
	if err := validateID(id); err != nil {
		return err
	}
	if err := s.transactions.Delete(ctx, userID, id); err != nil {
		return notFoundOrInternal("transaction", err)
	}
	return nil
}

// validateID rejects ids Postgres could not cast to uuid, which would
// otherwise surface as an internal error.
func validateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperrors.NewNotFound("transaction", map[string]any{"id": id})
	}
	return nil
}
