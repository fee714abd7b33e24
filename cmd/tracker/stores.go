package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/boddenberg/finance-ai-tracker-go/internal/config"
	"github.com/boddenberg/finance-ai-tracker-go/internal/handler"
	"github.com/boddenberg/finance-ai-tracker-go/internal/infra/memstore"
	"github.com/boddenberg/finance-ai-tracker-go/internal/infra/postgres"
	"github.com/boddenberg/finance-ai-tracker-go/internal/infra/resilience"
	"github.com/boddenberg/finance-ai-tracker-go/internal/infra/supabase"
	"github.com/boddenberg/finance-ai-tracker-go/internal/port"

	"go.uber.org/zap"
)

// storeSet is the persistence backend selected by STORE_BACKEND.
type storeSet struct {
	transactions port.TransactionStore
	users        port.UserStore
	checks       []handler.HealthCheck
	closers      []func()
}

func (s *storeSet) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func openStores(ctx context.Context, cfg *config.Config, httpClient *http.Client, rcfg resilience.Config, logger *zap.Logger) (*storeSet, error) {
	switch cfg.StoreBackend {
	case config.StorePostgres:
		db, err := postgres.Connect(ctx, postgres.Config{
			URL:      cfg.PostgresURL,
			MaxConns: cfg.PostgresMaxConns,
			MinConns: cfg.PostgresMinConns,
		}, logger)
		if err != nil {
			return nil, err
		}
		if err := db.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, err
		}
		logger.Info("using Postgres as data backend")
		return &storeSet{
			transactions: postgres.NewTransactionStore(db, logger),
			users:        postgres.NewUserStore(db, logger),
			checks:       []handler.HealthCheck{{Name: "postgres", Ping: db.Ping}},
			closers:      []func(){db.Close},
		}, nil

	case config.StoreSupabase:
		client := supabase.NewClient(
			httpClient,
			cfg.SupabaseURL,
			cfg.SupabaseAnonKey,
			cfg.SupabaseServiceKey,
			resilience.NewCircuitBreaker("supabase"),
			rcfg,
			logger,
		)
		logger.Info("using Supabase as data backend", zap.String("supabase_url", cfg.SupabaseURL))
		return &storeSet{
			transactions: supabase.NewTransactionStore(client),
			users:        supabase.NewUserStore(client),
			checks:       []handler.HealthCheck{{Name: "supabase", Ping: client.Ping}},
		}, nil

	case config.StoreMemory:
		logger.Warn("using in-memory store, data is lost on restart")
		mem := memstore.New()
		return &storeSet{transactions: mem, users: mem}, nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
