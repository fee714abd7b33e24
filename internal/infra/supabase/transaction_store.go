package supabase

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/boddenberg/finance-ai-tracker-go/internal/domain"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// ============================================================
// Transactions — CRUD via PostgREST
// ============================================================

// transactionRow is the PostgREST shape of the transactions table.
type transactionRow struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Type        string    `json:"type"`
	Amount      float64   `json:"amount"`
	Currency    string    `json:"currency"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Merchant    *string   `json:"merchant"`
	OccurredAt  time.Time `json:"occurred_at"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
	UpdatedAt   time.Time `json:"updated_at,omitempty"`
}

func (r transactionRow) toDomain() domain.Transaction {
	return domain.Transaction{
		ID:          r.ID,
		UserID:      r.UserID,
		Type:        domain.TransactionType(r.Type),
		Amount:      r.Amount,
		Currency:    r.Currency,
		Category:    domain.Category(r.Category),
		Description: r.Description,
		Merchant:    r.Merchant,
		OccurredAt:  r.OccurredAt,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// transactionPatch holds the editable columns.
type transactionPatch struct {
	Type        string    `json:"type"`
	Amount      float64   `json:"amount"`
	Currency    string    `json:"currency"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Merchant    *string   `json:"merchant"`
	OccurredAt  time.Time `json:"occurred_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TransactionStore implements port.TransactionStore on PostgREST.
type TransactionStore struct {
	client *Client
	now    func() time.Time
}

// NewTransactionStore creates a store backed by c.
func NewTransactionStore(c *Client) *TransactionStore {
	return &TransactionStore{client: c, now: func() time.Time { return time.Now().UTC() }}
}

func (s *TransactionStore) Create(ctx context.Context, userID string, in domain.NewTransaction) (*domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateTransaction")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	now := s.now()
	row := transactionRow{
		ID:          uuid.NewString(),
		UserID:      userID,
		Type:        string(in.Type),
		Amount:      in.Amount,
		Currency:    in.Currency,
		Category:    string(in.Category),
		Description: in.Description,
		Merchant:    in.Merchant,
		OccurredAt:  in.OccurredAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	var rows []transactionRow
	if err := s.client.call(ctx, http.MethodPost, "transactions", row, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("supabase: insert returned no rows")
	}
	tx := rows[0].toDomain()
	return &tx, nil
}

func (s *TransactionStore) List(ctx context.Context, userID string) ([]domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListTransactions")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	path := fmt.Sprintf("transactions?user_id=eq.%s&order=occurred_at.desc,created_at.desc", url.QueryEscape(userID))
	var rows []transactionRow
	if err := s.client.call(ctx, http.MethodGet, path, nil, &rows); err != nil {
		return nil, err
	}

	out := make([]domain.Transaction, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

// Update patches id when userID owns it. PostgREST returns the changed rows,
// so an empty array means nothing matched.
func (s *TransactionStore) Update(ctx context.Context, id, userID string, in domain.NewTransaction) (int64, *domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateTransaction")
	defer span.End()
	span.SetAttributes(attribute.String("transaction.id", id), attribute.String("user.id", userID))

	if _, err := uuid.Parse(id); err != nil {
		return 0, nil, nil
	}

	patch := transactionPatch{
		Type:        string(in.Type),
		Amount:      in.Amount,
		Currency:    in.Currency,
		Category:    string(in.Category),
		Description: in.Description,
		Merchant:    in.Merchant,
		OccurredAt:  in.OccurredAt,
		UpdatedAt:   s.now(),
	}

	var rows []transactionRow
	if err := s.client.call(ctx, http.MethodPatch, ownedPath(id, userID), patch, &rows); err != nil {
		return 0, nil, err
	}
	if len(rows) == 0 {
		return 0, nil, nil
	}
	tx := rows[0].toDomain()
	return int64(len(rows)), &tx, nil
}

func (s *TransactionStore) Delete(ctx context.Context, id, userID string) (int64, error) {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteTransaction")
	defer span.End()
	span.SetAttributes(attribute.String("transaction.id", id), attribute.String("user.id", userID))

	if _, err := uuid.Parse(id); err != nil {
		return 0, nil
	}

	var rows []transactionRow
	if err := s.client.call(ctx, http.MethodDelete, ownedPath(id, userID), nil, &rows); err != nil {
		return 0, err
	}
	return int64(len(rows)), nil
}

func ownedPath(id, userID string) string {
	return fmt.Sprintf("transactions?id=eq.%s&user_id=eq.%s", url.QueryEscape(id), url.QueryEscape(userID))
}
