package datasource

import (
	"context"
	"database/sql"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Executor runs statements; implemented by *Pool, *Conn, *Tx and the database/sql types.
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

var (
	_ Executor = (*Pool)(nil)
	_ Executor = (*sql.DB)(nil)
	_ Executor = (*sql.Tx)(nil)
	_ Executor = (*sql.Conn)(nil)
)

const (
	opExec  = "exec"
	opQuery = "query"
)

// Pool is the connection pool of a datasource.
type Pool struct {
	id     string
	db     *sql.DB
	config Config

	log       *zap.Logger
	tracer    trace.Tracer
	durations *prometheus.SummaryVec

	statementLevel, slowLevel zapcore.Level
	logStatements, logSlow    bool

	closed atomic.Bool
}

// Open opens and pings the pool of a datasource.
func Open(ctx context.Context, id string, config Config, opts ...Option) (*Pool, error) {
	o := newOptions(opts)
	if o.err != nil {
		return nil, o.err
	}
	return open(ctx, id, config, o)
}

func open(ctx context.Context, id string, config Config, o *options) (*Pool, error) {
	config = config.WithDefaults()
	if err := config.Validate(); err != nil {
		return nil, errors.Wrapf(err, "datasource %s", id)
	}
	db, err := sql.Open(config.Driver, config.URL)
	if err != nil {
		return nil, errors.Wrapf(err, "datasource %s", id)
	}
	p := newPool(id, db, config, o)

	pingCtx, cancel := context.WithTimeout(ctx, config.ConnectTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, errors.Wrapf(err, "datasource %s: connect", id)
	}
	p.log.Debug("pool opened", zap.String("datasource", id), zap.String("driver", config.Driver),
		zap.Int("max_connections", config.MaxConnections))
	return p, nil
}

// OpenDB wraps an already opened database; the config settings are applied to it.
func OpenDB(id string, db *sql.DB, config Config, opts ...Option) (*Pool, error) {
	o := newOptions(opts)
	if o.err != nil {
		return nil, o.err
	}
	config = config.WithDefaults()
	if err := config.validateSettings(); err != nil {
		return nil, errors.Wrapf(err, "datasource %s", id)
	}
	return newPool(id, db, config, o), nil
}

func newPool(id string, db *sql.DB, config Config, o *options) *Pool {
	db.SetMaxOpenConns(config.MaxConnections)
	db.SetMaxIdleConns(max(config.MinConnections, 2))
	db.SetConnMaxLifetime(config.MaxLifetime)
	db.SetConnMaxIdleTime(config.IdleTimeout)

	p := &Pool{
		id:        id,
		db:        db,
		config:    config,
		log:       o.log.With(zap.String("datasource", id)),
		tracer:    o.tracer,
		durations: o.durations,
	}
	p.statementLevel, p.logStatements, _ = logLevel(config.LogStatements)
	p.slowLevel, p.logSlow, _ = logLevel(config.LogSlowStatements)
	return p
}

func (p *Pool) ID() string         { return p.id }
func (p *Pool) DB() *sql.DB        { return p.db }
func (p *Pool) Config() Config     { return p.config }
func (p *Pool) Closed() bool       { return p.closed.Load() }
func (p *Pool) Stats() sql.DBStats { return p.db.Stats() }

func (p *Pool) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if err := p.acquire(ctx); err != nil {
		return nil, err
	}
	return p.exec(ctx, p.db, query, args)
}

func (p *Pool) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	if err := p.acquire(ctx); err != nil {
		return nil, err
	}
	return p.query(ctx, p.db, query, args)
}

func (p *Pool) exec(ctx context.Context, ex Executor, query string, args []any) (result sql.Result, err error) {
	err = p.run(ctx, opExec, query, args, func(ctx context.Context) (err error) {
		result, err = ex.ExecContext(ctx, query, args...)
		return err
	})
	return result, err
}

func (p *Pool) query(ctx context.Context, ex Executor, query string, args []any) (rows *sql.Rows, err error) {
	err = p.run(ctx, opQuery, query, args, func(ctx context.Context) (err error) {
		rows, err = ex.QueryContext(ctx, query, args...)
		return err
	})
	return rows, err
}

// BeginTx starts a transaction.
func (p *Pool) BeginTx(ctx context.Context, opts *sql.TxOptions) (*Tx, error) {
	if err := p.acquire(ctx); err != nil {
		return nil, err
	}
	tx, err := p.db.BeginTx(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &Tx{pool: p, tx: tx}, nil
}

// Conn pins a single connection of the pool; it must be closed by the caller.
func (p *Pool) Conn(ctx context.Context) (*Conn, error) {
	if err := p.acquire(ctx); err != nil {
		return nil, err
	}
	conn, err := p.db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	return &Conn{pool: p, conn: conn}, nil
}

// Close closes the pool, waiting for the running statements.
func (p *Pool) Close() error {
	if p.closed.Swap(true) {
		return nil
	}
	err := p.db.Close()
	p.log.Debug("pool closed", zap.Error(err))
	return err
}

func (p *Pool) acquire(ctx context.Context) error {
	if !p.config.TestBeforeAcquire {
		return nil
	}
	return errors.Wrapf(p.db.PingContext(ctx), "datasource %s: test before acquire", p.id)
}

// run instruments a statement: span, duration summary and statement log.
func (p *Pool) run(ctx context.Context, op, query string, args []any, statement func(context.Context) error) error {
	ctx, span := p.tracer.Start(ctx, op+" "+p.id, trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(
		attribute.String("db.system", p.config.Driver),
		attribute.String("db.statement", query),
		attribute.String("datasource", p.id),
	)
	start := time.Now()
	err := statement(ctx)
	elapsed := time.Since(start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()

	if p.durations != nil {
		p.durations.WithLabelValues(p.id, op).Observe(elapsed.Seconds())
	}
	p.logStatement(op, query, args, elapsed, err)
	return err
}

func (p *Pool) logStatement(op, query string, args []any, elapsed time.Duration, err error) {
	fields := []zap.Field{zap.String("op", op), zap.String("sql", query), zap.Int("args", len(args)), zap.Duration("elapsed", elapsed)}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	if p.logSlow && elapsed > p.config.SlowStatementThreshold {
		if ce := p.log.Check(p.slowLevel, "slow statement"); ce != nil {
			ce.Write(append(fields, zap.Duration("threshold", p.config.SlowStatementThreshold))...)
		}
		return
	}
	if p.logStatements {
		if ce := p.log.Check(p.statementLevel, "statement"); ce != nil {
			ce.Write(fields...)
		}
	}
}
