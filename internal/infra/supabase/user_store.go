package supabase

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/boddenberg/finance-ai-tracker-go/internal/domain"

	"github.com/google/uuid"
)

// ============================================================
// Users — upsert by email
// ============================================================

type userRow struct {
	ID        string    `json:"id,omitempty"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Picture   string    `json:"picture"`
	GoogleID  string    `json:"google_id"`
	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r userRow) toDomain() *domain.User {
	return &domain.User{
		ID:        r.ID,
		Email:     r.Email,
		Name:      r.Name,
		Picture:   r.Picture,
		GoogleID:  r.GoogleID,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// userUpsert leaves id and created_at out so a merge keeps the stored ones.
type userUpsert struct {
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Picture   string    `json:"picture"`
	GoogleID  string    `json:"google_id"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserStore implements port.UserStore on PostgREST.
type UserStore struct {
	client *Client
	now    func() time.Time
}

// NewUserStore creates a store backed by c.
func NewUserStore(c *Client) *UserStore {
	return &UserStore{client: c, now: func() time.Time { return time.Now().UTC() }}
}

// UpsertByEmail inserts u or merges it into the row with the same email.
func (s *UserStore) UpsertByEmail(ctx context.Context, u *domain.User) (*domain.User, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpsertUser")
	defer span.End()

	body := userUpsert{
		Email:     u.Email,
		Name:      u.Name,
		Picture:   u.Picture,
		GoogleID:  u.GoogleID,
		UpdatedAt: s.now(),
	}

	var rows []userRow
	err := s.client.call(ctx, http.MethodPost, "users?on_conflict=email", body, &rows, "resolution=merge-duplicates")
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("supabase: upsert returned no rows")
	}
	return rows[0].toDomain(), nil
}

func (s *UserStore) GetByID(ctx context.Context, id string) (*domain.User, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetUser")
	defer span.End()

	if _, err := uuid.Parse(id); err != nil {
		return nil, &domain.ErrNotFound{Resource: "user", ID: id}
	}

	var rows []userRow
	path := fmt.Sprintf("users?id=eq.%s&limit=1", url.QueryEscape(id))
	if err := s.client.call(ctx, http.MethodGet, path, nil, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "user", ID: id}
	}
	return rows[0].toDomain(), nil
}
