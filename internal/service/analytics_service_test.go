package service_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/boddenberg/finance-ai-tracker-go/internal/domain"
	"github.com/boddenberg/finance-ai-tracker-go/internal/infra/cache"
	"github.com/boddenberg/finance-ai-tracker-go/internal/infra/memstore"
	"github.com/boddenberg/finance-ai-tracker-go/internal/infra/observability"
	"github.com/boddenberg/finance-ai-tracker-go/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingStore struct {
	*memstore.Store
	lists atomic.Int32
	err   error
}

func (c *countingStore) List(ctx context.Context, userID string) ([]domain.Transaction, error) {
	c.lists.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	return c.Store.List(ctx, userID)
}

func seed(t *testing.T, s *memstore.Store, userID string) {
	t.Helper()
	ctx := context.Background()
	jan := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC)

	rows := []domain.NewTransaction{
		{Type: domain.TypeIncome, Amount: 3000, Currency: "USD", Category: domain.CategoryIncome, Description: "Salary", OccurredAt: jan},
		{Type: domain.TypeExpense, Amount: 1200, Currency: "USD", Category: domain.CategoryRent, Description: "Rent", OccurredAt: jan},
		{Type: domain.TypeExpense, Amount: 0.1, Currency: "USD", Category: domain.CategoryFood, Description: "Gum", OccurredAt: feb},
		{Type: domain.TypeExpense, Amount: 0.2, Currency: "USD", Category: domain.CategoryFood, Description: "Candy", OccurredAt: feb},
		{Type: domain.TypeTransfer, Amount: 500, Currency: "USD", Category: domain.CategoryOther, Description: "To savings", OccurredAt: feb},
	}
	for _, r := range rows {
		_, err := s.Create(ctx, userID, r)
		require.NoError(t, err)
	}
}

func newAnalytics(store *countingStore) *service.AnalyticsService {
	return service.NewAnalyticsService(store, cache.New[any](time.Minute), observability.NewMetrics(), zap.NewNop())
}

func TestAnalytics_Summary(t *testing.T) {
	store := &countingStore{Store: memstore.New()}
	seed(t, store.Store, "u1")
	seed(t, store.Store, "u2")

	sum, err := newAnalytics(store).Summary(context.Background(), "u1")
	require.NoError(t, err)

	assert.Equal(t, 3000.0, sum.Income)
	assert.Equal(t, 1200.3, sum.Expenses, "decimal sums avoid float drift")
	assert.Equal(t, 1799.7, sum.Savings)
}

func TestAnalytics_CategoriesSortedByTotal(t *testing.T) {
	store := &countingStore{Store: memstore.New()}
	seed(t, store.Store, "u1")

	cats, err := newAnalytics(store).Categories(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, cats, 4)

	assert.Equal(t, domain.CategoryIncome, cats[0].Category)
	assert.Equal(t, domain.CategoryRent, cats[1].Category)
	assert.Equal(t, domain.CategoryOther, cats[2].Category)
	assert.Equal(t, domain.CategoryFood, cats[3].Category)
	assert.Equal(t, 0.3, cats[3].Total)
	assert.Equal(t, 2, cats[3].Count)
}

func TestAnalytics_TrendsAscendingByMonth(t *testing.T) {
	store := &countingStore{Store: memstore.New()}
	seed(t, store.Store, "u1")

	trends, err := newAnalytics(store).Trends(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, trends, 2)

	assert.Equal(t, "2026-01", trends[0].Month)
	assert.Equal(t, 3000.0, trends[0].Income)
	assert.Equal(t, 1800.0, trends[0].Net)
	assert.Equal(t, "2026-02", trends[1].Month)
	assert.Equal(t, 0.3, trends[1].Expenses)
}

func TestAnalytics_EmptyLedger(t *testing.T) {
	store := &countingStore{Store: memstore.New()}
	dash, err := newAnalytics(store).Dashboard(context.Background(), "nobody")
	require.NoError(t, err)

	assert.Equal(t, &domain.Summary{}, dash.Summary)
	assert.NotNil(t, dash.Categories)
	assert.Empty(t, dash.Categories)
	assert.Empty(t, dash.Trends)
}

func TestAnalytics_CachesPerUser(t *testing.T) {
	store := &countingStore{Store: memstore.New()}
	seed(t, store.Store, "u1")
	svc := newAnalytics(store)
	ctx := context.Background()

	_, err := svc.Summary(ctx, "u1")
	require.NoError(t, err)
	_, err = svc.Summary(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int32(1), store.lists.Load())

	_, err = svc.Summary(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, int32(2), store.lists.Load())
}

func TestAnalytics_DashboardPropagatesStoreError(t *testing.T) {
	boom := errors.New("store offline")
	store := &countingStore{Store: memstore.New(), err: boom}

	_, err := newAnalytics(store).Dashboard(context.Background(), "u1")
	assert.ErrorIs(t, err, boom)
}

// racingStore runs onList after reading the ledger, standing in for a
// mutation that commits while a view is being computed.
type racingStore struct {
	*memstore.Store
	lists  atomic.Int32
	onList func()
}

func (r *racingStore) List(ctx context.Context, userID string) ([]domain.Transaction, error) {
	txs, err := r.Store.List(ctx, userID)
	if r.lists.Add(1) == 1 && r.onList != nil {
		r.onList()
	}
	return txs, err
}

func TestAnalytics_ViewComputedBeforeInvalidationIsNotCached(t *testing.T) {
	ctx := context.Background()
	store := &racingStore{Store: memstore.New()}
	svc := service.NewAnalyticsService(store, cache.New[any](time.Minute), observability.NewMetrics(), zap.NewNop())

	store.onList = func() {
		_, err := store.Store.Create(ctx, "u1", domain.NewTransaction{
			Type: domain.TypeExpense, Amount: 42, Currency: "USD", Category: domain.CategoryFood,
			Description: "Dinner", OccurredAt: time.Now(),
		})
		require.NoError(t, err)
		svc.Invalidate("u1")
	}

	stale, err := svc.Summary(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0.0, stale.Expenses)

	fresh, err := svc.Summary(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 42.0, fresh.Expenses)
	assert.EqualValues(t, 2, store.lists.Load())
}

func TestAnalytics_InvalidateDropsCachedViews(t *testing.T) {
	ctx := context.Background()
	store := &countingStore{Store: memstore.New()}
	svc := newAnalytics(store)

	_, err := svc.Categories(ctx, "u1")
	require.NoError(t, err)
	_, err = svc.Categories(ctx, "u1")
	require.NoError(t, err)
	require.EqualValues(t, 1, store.lists.Load())

	svc.Invalidate("u1")
	_, err = svc.Categories(ctx, "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, store.lists.Load())
}
