package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/finance-api/internal/domain"
)

// TransactionRepository persists user transactions. Every method is scoped
// to the owning user.
type TransactionRepository interface {
	Create(ctx context.Context, tx *domain.Transaction) error
	Update(ctx context.Context, tx *domain.Transaction) error
	Delete(ctx context.Context, userID, id string) error
	GetByID(ctx context.Context, userID, id string) (*domain.Transaction, error)
	List(ctx context.Context, filter TransactionFilter) ([]domain.Transaction, error)
}

// TransactionFilter narrows a listing. UserID is required.
type TransactionFilter struct {
	UserID   string
	Type     *domain.TransactionType
	Category *string
	From     *time.Time
	To       *time.Time
	Limit    int
	Offset   int
}

type transactionRepository struct {
	db DB
}

// NewTransactionRepository returns a Postgres-backed implementation.
func NewTransactionRepository(db DB) TransactionRepository {
	return &transactionRepository{db: db}
}

const transactionColumns = `id, user_id, amount, date, description, type, category`

func (r *transactionRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	const query = `
        INSERT INTO transactions (user_id, amount, date, description, type, category)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id`

	return r.db.QueryRow(ctx, query,
		tx.UserID,
		tx.Amount,
		tx.Date,
		tx.Description,
		tx.Type,
		tx.Category,
	).Scan(&tx.ID)
}

func (r *transactionRepository) Update(ctx context.Context, tx *domain.Transaction) error {
	const query = `
        UPDATE transactions SET amount=$1, date=$2, description=$3
        WHERE id=$4 AND user_id=$5`

	cmd, err := r.db.Exec(ctx, query,
		tx.Amount,
		tx.Date,
		tx.Description,
		tx.ID,
		tx.UserID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *transactionRepository) Delete(ctx context.Context, userID, id string) error {
	const query = `DELETE FROM transactions WHERE id=$1 AND user_id=$2`

	cmd, err := r.db.Exec(ctx, query, id, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *transactionRepository) GetByID(ctx context.Context, userID, id string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id=$1 AND user_id=$2`

	var tx domain.Transaction
	if err := r.db.QueryRow(ctx, query, id, userID).Scan(
		&tx.ID,
		&tx.UserID,
		&tx.Amount,
		&tx.Date,
		&tx.Description,
		&tx.Type,
		&tx.Category,
	); err != nil {
		return nil, err
	}
	return &tx, nil
}

func (r *transactionRepository) List(ctx context.Context, filter TransactionFilter) ([]domain.Transaction, error) {
	clauses := []string{"user_id=$1"}
	args := []any{filter.UserID}

	if filter.Type != nil {
		args = append(args, *filter.Type)
		clauses = append(clauses, fmt.Sprintf("type=$%d", len(args)))
	}
	if filter.Category != nil && strings.TrimSpace(*filter.Category) != "" {
		args = append(args, strings.TrimSpace(*filter.Category))
		clauses = append(clauses, fmt.Sprintf("category=$%d", len(args)))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		clauses = append(clauses, fmt.Sprintf("date >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		clauses = append(clauses, fmt.Sprintf("date <= $%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM transactions WHERE %s ORDER BY date DESC LIMIT %d OFFSET %d`,
		transactionColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTransactions(rows)
}

func scanTransactions(rows pgx.Rows) ([]domain.Transaction, error) {
	result := []domain.Transaction{}
	for rows.Next() {
		var tx domain.Transaction
		if err := rows.Scan(
			&tx.ID,
			&tx.UserID,
			&tx.Amount,
			&tx.Date,
			&tx.Description,
			&tx.Type,
			&tx.Category,
		); err != nil {
			return nil, err
		}
		result = append(result, tx)
	}
	return result, rows.Err()
}
