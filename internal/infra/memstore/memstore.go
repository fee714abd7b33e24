// Package memstore keeps transactions and users in process memory.
// It backs local development (STORE_BACKEND=memory) and tests.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/boddenberg/finance-ai-tracker-go/internal/domain"

	"github.com/google/uuid"
)

// Store implements port.TransactionStore and port.UserStore.
type Store struct {
	mu    sync.RWMutex
	txs   map[string]domain.Transaction
	users map[string]domain.User // by id
	now   func() time.Time
}

// New creates an empty store.
func New() *Store {
	return &Store{
		txs:   make(map[string]domain.Transaction),
		users: make(map[string]domain.User),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Create stores a new transaction for userID.
func (s *Store) Create(_ context.Context, userID string, in domain.NewTransaction) (*domain.Transaction, error) {
	now := s.now()
	tx := domain.Transaction{
		ID:          uuid.NewString(),
		UserID:      userID,
		Type:        in.Type,
		Amount:      in.Amount,
		Currency:    in.Currency,
		Category:    in.Category,
		Description: in.Description,
		Merchant:    copyString(in.Merchant),
		OccurredAt:  in.OccurredAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	s.mu.Lock()
	s.txs[tx.ID] = tx
	s.mu.Unlock()

	out := tx
	out.Merchant = copyString(tx.Merchant)
	return &out, nil
}

// List returns userID's transactions, newest first.
func (s *Store) List(_ context.Context, userID string) ([]domain.Transaction, error) {
	s.mu.RLock()
	out := make([]domain.Transaction, 0)
	for _, tx := range s.txs {
		if tx.UserID == userID {
			tx.Merchant = copyString(tx.Merchant)
			out = append(out, tx)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].OccurredAt.Equal(out[j].OccurredAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].OccurredAt.After(out[j].OccurredAt)
	})
	return out, nil
}

// Update replaces the editable fields when userID owns id.
func (s *Store) Update(_ context.Context, id, userID string, in domain.NewTransaction) (int64, *domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.txs[id]
	if !ok || tx.UserID != userID {
		return 0, nil, nil
	}

	tx.Type = in.Type
	tx.Amount = in.Amount
	tx.Currency = in.Currency
	tx.Category = in.Category
	tx.Description = in.Description
	tx.Merchant = copyString(in.Merchant)
	tx.OccurredAt = in.OccurredAt
	tx.UpdatedAt = s.now()
	s.txs[id] = tx

	out := tx
	out.Merchant = copyString(tx.Merchant)
	return 1, &out, nil
}

// Delete removes id when userID owns it.
func (s *Store) Delete(_ context.Context, id, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.txs[id]
	if !ok || tx.UserID != userID {
		return 0, nil
	}
	delete(s.txs, id)
	return 1, nil
}

// UpsertByEmail creates or refreshes the user with the same email
// (compared case-insensitively).
func (s *Store) UpsertByEmail(_ context.Context, u *domain.User) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			existing.Name = u.Name
			existing.Picture = u.Picture
			existing.GoogleID = u.GoogleID
			existing.UpdatedAt = now
			s.users[id] = existing
			out := existing
			return &out, nil
		}
	}

	created := *u
	created.ID = uuid.NewString()
	created.CreatedAt = now
	created.UpdatedAt = now
	s.users[created.ID] = created
	return &created, nil
}

// GetByID returns the user or *domain.ErrNotFound.
func (s *Store) GetByID(_ context.Context, id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "user", ID: id}
	}
	return &u, nil
}

func copyString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
