package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/boddenberg/finance-ai-tracker-go/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const userColumns = `id, email, name, picture, google_id, created_at, updated_at`

// UserStore implements port.UserStore.
type UserStore struct {
	querier Querier
	logger  *zap.Logger
	now     func() time.Time
}

// NewUserStore creates a user store on top of the pool.
func NewUserStore(db *DB, logger *zap.Logger) *UserStore {
	return NewUserStoreWithQuerier(db.Pool(), logger)
}

// NewUserStoreWithQuerier creates a user store on any Querier.
func NewUserStoreWithQuerier(q Querier, logger *zap.Logger) *UserStore {
	return &UserStore{querier: q, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// UpsertByEmail inserts the user or refreshes name, picture and Google id of
// the existing row with the same email. The stored row is returned.
func (s *UserStore) UpsertByEmail(ctx context.Context, u *domain.User) (*domain.User, error) {
	ctx, span := tracer.Start(ctx, "Postgres.UpsertUser")
	defer span.End()

	now := s.now()
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (email) DO UPDATE
		SET name = EXCLUDED.name, picture = EXCLUDED.picture, google_id = EXCLUDED.google_id, updated_at = EXCLUDED.updated_at
		RETURNING ` + userColumns

	out, err := scanUser(s.querier.QueryRow(ctx, query,
		uuid.NewString(), u.Email, u.Name, u.Picture, u.GoogleID, now, now,
	))
	if err != nil {
		s.logger.Error("failed to upsert user", zap.String("email", u.Email), zap.Error(err))
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}
	return out, nil
}

// GetByID returns the user or *domain.ErrNotFound.
func (s *UserStore) GetByID(ctx context.Context, id string) (*domain.User, error) {
	ctx, span := tracer.Start(ctx, "Postgres.GetUser")
	defer span.End()

	if _, err := uuid.Parse(id); err != nil {
		return nil, &domain.ErrNotFound{Resource: "user", ID: id}
	}

	out, err := scanUser(s.querier.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &domain.ErrNotFound{Resource: "user", ID: id}
		}
		s.logger.Error("failed to get user", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return out, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Picture, &u.GoogleID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}
