package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/boddenberg/finance-ai-tracker-go/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const transactionColumns = `id, user_id, type, amount, currency, category, description, merchant, occurred_at, created_at, updated_at`

// TransactionStore implements port.TransactionStore.
type TransactionStore struct {
	querier Querier // *pgxpool.Pool or pgx.Tx
	logger  *zap.Logger
	now     func() time.Time
}

// NewTransactionStore creates a store on top of the pool.
func NewTransactionStore(db *DB, logger *zap.Logger) *TransactionStore {
	return NewTransactionStoreWithQuerier(db.Pool(), logger)
}

// NewTransactionStoreWithQuerier creates a store on any Querier (pool, tx or mock).
func NewTransactionStoreWithQuerier(q Querier, logger *zap.Logger) *TransactionStore {
	return &TransactionStore{querier: q, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// WithTx returns a copy of the store bound to tx.
func (s *TransactionStore) WithTx(tx pgx.Tx) *TransactionStore {
	return &TransactionStore{querier: tx, logger: s.logger, now: s.now}
}

// Create inserts a new transaction for userID.
func (s *TransactionStore) Create(ctx context.Context, userID string, tx domain.NewTransaction) (*domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Postgres.CreateTransaction")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	now := s.now()
	out := &domain.Transaction{
		ID:          uuid.NewString(),
		UserID:      userID,
		Type:        tx.Type,
		Amount:      tx.Amount,
		Currency:    tx.Currency,
		Category:    tx.Category,
		Description: tx.Description,
		Merchant:    tx.Merchant,
		OccurredAt:  tx.OccurredAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	query := `
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.querier.Exec(ctx, query,
		out.ID,
		out.UserID,
		string(out.Type),
		out.Amount,
		out.Currency,
		string(out.Category),
		out.Description,
		out.Merchant,
		out.OccurredAt,
		out.CreatedAt,
		out.UpdatedAt,
	)
	if err != nil {
		s.logger.Error("failed to create transaction", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}
	return out, nil
}

// List returns the user's transactions, newest first.
func (s *TransactionStore) List(ctx context.Context, userID string) ([]domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Postgres.ListTransactions")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE user_id = $1
		ORDER BY occurred_at DESC
	`
	rows, err := s.querier.Query(ctx, query, userID)
	if err != nil {
		s.logger.Error("failed to list transactions", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	txs := make([]domain.Transaction, 0)
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txs = append(txs, *tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	return txs, nil
}

// Update replaces the editable fields of a transaction owned by userID.
// It returns the number of rows changed (0 when the id is unknown or owned by
// someone else) and the updated row.
func (s *TransactionStore) Update(ctx context.Context, id, userID string, tx domain.NewTransaction) (int64, *domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Postgres.UpdateTransaction")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID), attribute.String("transaction.id", id))

	if _, err := uuid.Parse(id); err != nil {
		return 0, nil, nil
	}

	query := `
		UPDATE transactions
		SET type = $1, amount = $2, currency = $3, category = $4, description = $5,
		    merchant = $6, occurred_at = $7, updated_at = $8
		WHERE id = $9 AND user_id = $10
		RETURNING ` + transactionColumns

	row := s.querier.QueryRow(ctx, query,
		string(tx.Type),
		tx.Amount,
		tx.Currency,
		string(tx.Category),
		tx.Description,
		tx.Merchant,
		tx.OccurredAt,
		s.now(),
		id,
		userID,
	)
	updated, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil, nil
		}
		s.logger.Error("failed to update transaction", zap.String("id", id), zap.Error(err))
		return 0, nil, fmt.Errorf("failed to update transaction: %w", err)
	}
	return 1, updated, nil
}

// Delete removes a transaction owned by userID and returns the affected count.
func (s *TransactionStore) Delete(ctx context.Context, id, userID string) (int64, error) {
	ctx, span := tracer.Start(ctx, "Postgres.DeleteTransaction")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID), attribute.String("transaction.id", id))

	if _, err := uuid.Parse(id); err != nil {
		return 0, nil
	}

	tag, err := s.querier.Exec(ctx, `DELETE FROM transactions WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		s.logger.Error("failed to delete transaction", zap.String("id", id), zap.Error(err))
		return 0, fmt.Errorf("failed to delete transaction: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var (
		tx       domain.Transaction
		txType   string
		category string
	)
	err := row.Scan(
		&tx.ID,
		&tx.UserID,
		&txType,
		&tx.Amount,
		&tx.Currency,
		&category,
		&tx.Description,
		&tx.Merchant,
		&tx.OccurredAt,
		&tx.CreatedAt,
		&tx.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	tx.Type = domain.TransactionType(txType)
	tx.Category = domain.Category(category)
	return &tx, nil
}
