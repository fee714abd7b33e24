package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/boddenberg/finance-ai-tracker-go/internal/domain"
	"github.com/boddenberg/finance-ai-tracker-go/internal/infra/observability"
	"github.com/boddenberg/finance-ai-tracker-go/internal/port"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var analyticsTracer = otel.Tracer("service/analytics")

func analyticsPrefix(userID string) string {
	return fmt.Sprintf("analytics:%s:", userID)
}

// AnalyticsService computes the dashboard views from the user's ledger.
type AnalyticsService struct {
	store   port.TransactionStore
	cache   port.Cache[any]
	metrics *observability.Metrics
	logger  *zap.Logger

	// gens counts invalidations per user. A view computed under an older
	// generation is returned but never cached.
	mu   sync.Mutex
	gens map[string]uint64
}

func NewAnalyticsService(store port.TransactionStore, cache port.Cache[any], metrics *observability.Metrics, logger *zap.Logger) *AnalyticsService {
	return &AnalyticsService{
		store:   store,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
		gens:    make(map[string]uint64),
	}
}

// Invalidate drops userID's cached views. Called after every ledger mutation.
func (s *AnalyticsService) Invalidate(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gens[userID]++
	s.cache.DeletePrefix(analyticsPrefix(userID))
}

func (s *AnalyticsService) generation(userID string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gens[userID]
}

// Summary sums INCOME and EXPENSE; transfers are left out.
func (s *AnalyticsService) Summary(ctx context.Context, userID string) (*domain.Summary, error) {
	ctx, span := analyticsTracer.Start(ctx, "AnalyticsService.Summary")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	return cached(s, userID, "summary", func() (*domain.Summary, error) {
		txs, err := s.store.List(ctx, userID)
		if err != nil {
			return nil, err
		}
		return summarize(txs), nil
	})
}

// Categories returns per-category totals, largest first.
func (s *AnalyticsService) Categories(ctx context.Context, userID string) ([]domain.CategoryTotal, error) {
	ctx, span := analyticsTracer.Start(ctx, "AnalyticsService.Categories")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	return cached(s, userID, "categories", func() ([]domain.CategoryTotal, error) {
		txs, err := s.store.List(ctx, userID)
		if err != nil {
			return nil, err
		}
		return categoryTotals(txs), nil
	})
}

// Trends returns monthly income and expenses, oldest month first.
func (s *AnalyticsService) Trends(ctx context.Context, userID string) ([]domain.TrendPoint, error) {
	ctx, span := analyticsTracer.Start(ctx, "AnalyticsService.Trends")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	return cached(s, userID, "trends", func() ([]domain.TrendPoint, error) {
		txs, err := s.store.List(ctx, userID)
		if err != nil {
			return nil, err
		}
		return monthlyTrends(txs), nil
	})
}

// Dashboard computes the three views concurrently.
func (s *AnalyticsService) Dashboard(ctx context.Context, userID string) (*domain.Dashboard, error) {
	ctx, span := analyticsTracer.Start(ctx, "AnalyticsService.Dashboard")
	defer span.End()

	start := time.Now()
	defer func() {
		s.metrics.RecordRequestDuration("dashboard", time.Since(start))
	}()

	var out domain.Dashboard
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		sum, err := s.Summary(gCtx, userID)
		out.Summary = sum
		return err
	})
	g.Go(func() error {
		cats, err := s.Categories(gCtx, userID)
		out.Categories = cats
		return err
	})
	g.Go(func() error {
		trends, err := s.Trends(gCtx, userID)
		out.Trends = trends
		return err
	})

	if err := g.Wait(); err != nil {
		s.logger.Error("dashboard failed", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return &out, nil
}

// cached serves view from the per-user cache or computes and stores it.
func cached[T any](s *AnalyticsService, userID, view string, compute func() (T, error)) (T, error) {
	key := analyticsPrefix(userID) + view
	if v, ok := s.cache.Get(key); ok {
		if typed, ok := v.(T); ok {
			s.metrics.IncrCacheHit("analytics")
			return typed, nil
		}
	}
	s.metrics.IncrCacheMiss("analytics")

	gen := s.generation(userID)
	out, err := compute()
	if err != nil {
		var zero T
		return zero, err
	}

	s.mu.Lock()
	if s.gens[userID] == gen {
		s.cache.Set(key, out)
	}
	s.mu.Unlock()
	return out, nil
}

// ============================================================
// Aggregation helpers
// ============================================================

func summarize(txs []domain.Transaction) *domain.Summary {
	income, expenses := decimal.Zero, decimal.Zero
	for _, tx := range txs {
		switch tx.Type {
		case domain.TypeIncome:
			income = income.Add(decimal.NewFromFloat(tx.Amount))
		case domain.TypeExpense:
			expenses = expenses.Add(decimal.NewFromFloat(tx.Amount))
		}
	}
	return &domain.Summary{
		Income:   income.InexactFloat64(),
		Expenses: expenses.InexactFloat64(),
		Savings:  income.Sub(expenses).InexactFloat64(),
	}
}

func categoryTotals(txs []domain.Transaction) []domain.CategoryTotal {
	sums := make(map[domain.Category]decimal.Decimal)
	counts := make(map[domain.Category]int)
	for _, tx := range txs {
		sums[tx.Category] = sums[tx.Category].Add(decimal.NewFromFloat(tx.Amount))
		counts[tx.Category]++
	}

	out := make([]domain.CategoryTotal, 0, len(sums))
	for cat, total := range sums {
		out = append(out, domain.CategoryTotal{Category: cat, Total: total.InexactFloat64(), Count: counts[cat]})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total == out[j].Total {
			return out[i].Category < out[j].Category
		}
		return out[i].Total > out[j].Total
	})
	return out
}

func monthlyTrends(txs []domain.Transaction) []domain.TrendPoint {
	type bucket struct{ income, expenses decimal.Decimal }
	months := make(map[string]*bucket)
	for _, tx := range txs {
		if tx.Type != domain.TypeIncome && tx.Type != domain.TypeExpense {
			continue
		}
		key := tx.OccurredAt.UTC().Format("2006-01")
		b, ok := months[key]
		if !ok {
			b = &bucket{}
			months[key] = b
		}
		amount := decimal.NewFromFloat(tx.Amount)
		if tx.Type == domain.TypeIncome {
			b.income = b.income.Add(amount)
		} else {
			b.expenses = b.expenses.Add(amount)
		}
	}

	out := make([]domain.TrendPoint, 0, len(months))
	for month, b := range months {
		out = append(out, domain.TrendPoint{
			Month:    month,
			Income:   b.income.InexactFloat64(),
			Expenses: b.expenses.InexactFloat64(),
			Net:      b.income.Sub(b.expenses).InexactFloat64(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}
