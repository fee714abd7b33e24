// Package mongo keeps an audit trail of LLM extraction attempts.
package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/boddenberg/finance-ai-tracker-go/internal/domain"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("mongo")

// ModelOutputCollection holds one document per extraction attempt.
const ModelOutputCollection = "model_outputs"

// Config holds connection settings.
type Config struct {
	URI         string
	Database    string
	Timeout     time.Duration
	MaxPoolSize uint64
}

// DB owns the client and the selected database.
type DB struct {
	client   *mongo.Client
	database *mongo.Database
	logger   *zap.Logger
}

// Connect dials MongoDB and pings the primary.
func Connect(ctx context.Context, cfg Config, logger *zap.Logger) (*DB, error) {
	opts := options.Client().ApplyURI(cfg.URI)
	if cfg.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(cfg.MaxPoolSize)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	logger.Info("connected to MongoDB", zap.String("database", cfg.Database))
	return &DB{client: client, database: client.Database(cfg.Database), logger: logger}, nil
}

// Collection returns a handle on name.
func (d *DB) Collection(name string) *mongo.Collection {
	return d.database.Collection(name)
}

// Ping checks the primary is reachable.
func (d *DB) Ping(ctx context.Context) error {
	return d.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client.
func (d *DB) Close(ctx context.Context) error {
	if err := d.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect from MongoDB: %w", err)
	}
	d.logger.Info("closed MongoDB connection")
	return nil
}

// inserter is the subset of *mongo.Collection the recorder needs.
type inserter interface {
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
}

// ModelOutputRecorder implements port.ModelOutputRecorder.
type ModelOutputRecorder struct {
	coll   inserter
	logger *zap.Logger
	now    func() time.Time
}

// NewModelOutputRecorder records into the model_outputs collection of db.
func NewModelOutputRecorder(db *DB, logger *zap.Logger) *ModelOutputRecorder {
	return newRecorder(db.Collection(ModelOutputCollection), logger)
}

func newRecorder(coll inserter, logger *zap.Logger) *ModelOutputRecorder {
	return &ModelOutputRecorder{coll: coll, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// Record stores out, filling ID and CreatedAt when unset.
func (r *ModelOutputRecorder) Record(ctx context.Context, out *domain.ModelOutput) error {
	ctx, span := tracer.Start(ctx, "Mongo.RecordModelOutput")
	defer span.End()

	if out.ID == "" {
		out.ID = uuid.NewString()
	}
	if out.CreatedAt.IsZero() {
		out.CreatedAt = r.now()
	}
	span.SetAttributes(
		attribute.String("model_output.id", out.ID),
		attribute.String("llm.provider", out.Provider),
		attribute.Bool("parse.success", out.Success),
	)

	if _, err := r.coll.InsertOne(ctx, out); err != nil {
		r.logger.Error("failed to record model output",
			zap.String("id", out.ID),
			zap.String("provider", out.Provider),
			zap.Error(err),
		)
		return fmt.Errorf("failed to record model output: %w", err)
	}
	return nil
}
