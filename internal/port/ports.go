// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"

	"github.com/boddenberg/finance-ai-tracker-go/internal/domain"
)

// Extractor turns free text into the raw text of a language model reply.
// Implementations make exactly one outbound call and do not retry.
type Extractor interface {
	Extract(ctx context.Context, text string) (string, error)
	Name() string
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
	DeletePrefix(prefix string)
}

// TransactionStore persists transactions. Every operation is scoped to a user;
// rows owned by someone else are invisible and yield a zero count.
type TransactionStore interface {
	Create(ctx context.Context, userID string, tx domain.NewTransaction) (*domain.Transaction, error)
	List(ctx context.Context, userID string) ([]domain.Transaction, error)
	Update(ctx context.Context, id, userID string, tx domain.NewTransaction) (int64, *domain.Transaction, error)
	Delete(ctx context.Context, id, userID string) (int64, error)
}

// UserStore persists accounts created through Google sign-in.
type UserStore interface {
	UpsertByEmail(ctx context.Context, u *domain.User) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// GoogleVerifier checks a Google ID token against the configured audience.
type GoogleVerifier interface {
	Verify(ctx context.Context, idToken string) (*domain.GoogleIdentity, error)
}

// ModelOutputRecorder stores an audit record of each extraction attempt.
type ModelOutputRecorder interface {
	Record(ctx context.Context, out *domain.ModelOutput) error
}
