package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/notebook/internal/db"
	"github.com/2beens/notebook/internal/telemetry/metrics"
	"github.com/2beens/notebook/internal/telemetry/tracing"
)

var ErrNotConnected = errors.New("storage not connected")

type Params struct {
	Host           string
	Port           string
	User           string
	Password       string
	Database       string
	TracingEnabled bool
}

// Gateway owns the single database connection of the application.
// Every Execute is its own auto-committed statement; there is no retry
// and no reconnect.
type Gateway struct {
	params  Params
	metrics *metrics.Manager

	mu   sync.RWMutex
	pool *pgxpool.Pool
}

func NewGateway(params Params, metricsManager *metrics.Manager) *Gateway {
	return &Gateway{
		params:  params,
		metrics: metricsManager,
	}
}

// Initialize connects and makes sure the notes table exists. It is a
// no-op when the gateway is already connected.
func (g *Gateway) Initialize(ctx context.Context) error {
	if g.Pool() != nil {
		return nil
	}

	ctx, span := tracing.GlobalTracer.Start(ctx, "storage.initialize")
	var err error
	defer func() { tracing.EndSpan(span, err) }()

	pool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost:         g.params.Host,
		DBPort:         g.params.Port,
		DBUser:         g.params.User,
		DBPassword:     g.params.Password,
		DBName:         g.params.Database,
		MaxConns:       1,
		TracingEnabled: g.params.TracingEnabled,
	})
	if err != nil {
		return fmt.Errorf("new db pool: %w", err)
	}

	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("connect to %s:%s/%s: %w", g.params.Host, g.params.Port, g.params.Database, err)
	}

	for _, stmt := range schema {
		if _, err = pool.Exec(ctx, stmt); err != nil {
			pool.Close()
			return fmt.Errorf("create notes table: %w", err)
		}
	}

	g.mu.Lock()
	g.pool = pool
	g.mu.Unlock()

	log.Debugf("storage connected to %s:%s/%s", g.params.Host, g.params.Port, g.params.Database)
	return nil
}

// Pool exposes the connection pool for stats collection; nil when not connected.
func (g *Gateway) Pool() *pgxpool.Pool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.pool
}

// Query runs a parameterized read and returns all rows. Values are bound
// as $1..$n, never formatted into the statement.
func (g *Gateway) Query(ctx context.Context, statement string, args ...any) (_ []Row, err error) {
	pool := g.Pool()
	if pool == nil {
		return nil, ErrNotConnected
	}
	defer g.observe("query", time.Now(), &err)

	rows, err := pool.Query(ctx, statement, args...)
	if err != nil {
		return nil, err
	}

	result, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Row, error) {
		values, err := row.Values()
		return Row(values), err
	})
	if err != nil {
		return nil, fmt.Errorf("collect rows: %w", err)
	}

	return result, nil
}

// Execute runs a parameterized write and returns the affected row count.
func (g *Gateway) Execute(ctx context.Context, statement string, args ...any) (_ int64, err error) {
	pool := g.Pool()
	if pool == nil {
		return 0, ErrNotConnected
	}
	defer g.observe("execute", time.Now(), &err)

	tag, err := pool.Exec(ctx, statement, args...)
	if err != nil {
		return 0, err
	}

	return tag.RowsAffected(), nil
}

// Shutdown releases the connection. Calling it again is a no-op.
func (g *Gateway) Shutdown() {
	g.mu.Lock()
	pool := g.pool
	g.pool = nil
	g.mu.Unlock()

	if pool == nil {
		return
	}

	log.Debugln("closing db connection ...")
	pool.Close()
	log.Debugln("db connection closed")
}

func (g *Gateway) observe(kind string, start time.Time, err *error) {
	if g.metrics == nil {
		return
	}
	status := "ok"
	if *err != nil {
		status = "error"
	}
	g.metrics.HistogramStorageDuration.
		WithLabelValues(kind, status).
		Observe(time.Since(start).Seconds())
}
