package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/finance-api/internal/domain"
	"github.com/spec-kit/finance-api/internal/repository"
)

type fakeUserRepo struct {
	mu   sync.Mutex
	byID map[string]*domain.User
	err  error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byID: map[string]*domain.User{}}
}

func (f *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	user.ID = uuid.NewString()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	stored := *user
	f.byID[user.ID] = &stored
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	user, ok := f.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, user := range f.byID {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUserRepo) UpdatePasswordHash(_ context.Context, id, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.byID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.PasswordHash = hash
	return nil
}

func (f *fakeUserRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeUserRepo) setBlacklisted(id string, blacklisted bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[id].IsBlacklisted = blacklisted
}

type fakeTransactionRepo struct {
	items   map[string]domain.Transaction
	lastArg repository.TransactionFilter
}

func newFakeTransactionRepo() *fakeTransactionRepo {
	return &fakeTransactionRepo{items: map[string]domain.Transaction{}}
}

func (f *fakeTransactionRepo) Create(_ context.Context, tx *domain.Transaction) error {
	tx.ID = uuid.NewString()
	f.items[tx.ID] = *tx
	return nil
}

func (f *fakeTransactionRepo) Update(_ context.Context, tx *domain.Transaction) error {
	current, ok := f.items[tx.ID]
	if !ok || current.UserID != tx.UserID {
		return pgx.ErrNoRows
	}
	current.Amount = tx.Amount
	current.Date = tx.Date
	current.Description = tx.Description
	f.items[tx.ID] = current
	return nil
}

func (f *fakeTransactionRepo) Delete(_ context.Context, userID, id string) error {
	current, ok := f.items[id]
	if !ok || current.UserID != userID {
		return pgx.ErrNoRows
	}
	delete(f.items, id)
	return nil
}

func (f *fakeTransactionRepo) GetByID(_ context.Context, userID, id string) (*domain.Transaction, error) {
	current, ok := f.items[id]
	if !ok || current.UserID != userID {
		return nil, pgx.ErrNoRows
	}
	return &current, nil
}

func (f *fakeTransactionRepo) List(_ context.Context, filter repository.TransactionFilter) ([]domain.Transaction, error) {
	f.lastArg = filter
	out := []domain.Transaction{}
	for _, tx := range f.items {
		if tx.UserID == filter.UserID {
			out = append(out, tx)
		}
	}
	return out, nil
}
