package txinterceptor

import (
	"context"
	"database/sql"
	"errors"
	"maps"
	"reflect"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/AntonStoeckl/dynamic-proxy-go/dynproxy"
	"github.com/AntonStoeckl/dynamic-proxy-go/dynproxy/internal/adapters"
)

const (
	logMsgTxCommitted      = "transaction committed"
	logMsgTxRolledBack     = "transaction rolled back"
	logMsgTxRollbackFailed = "transaction rollback failed"
	logAttrMethod          = "method"
	logAttrError           = "error"
	logAttrReason          = "reason"

	reasonError = "error"
	reasonPanic = "panic"

	// CommitsMetric counts committed transactions.
	CommitsMetric = "dynproxy_tx_commits_total"
	// RollbacksMetric counts rolled back transactions, labelled with the reason.
	RollbacksMetric = "dynproxy_tx_rollbacks_total"
)

var (
	ErrNilDatabaseConnection = errors.New("database connection must not be nil")
	ErrNilLogger             = errors.New("logger must not be nil")
	ErrNilMetricsCollector   = errors.New("metrics collector must not be nil")
	ErrBeginFailed           = errors.New("beginning the transaction failed")
	ErrCommitFailed          = errors.New("committing the transaction failed")
)

// Interceptor wraps calls in transactions.
type Interceptor struct {
	db               adapters.DBAdapter
	logger           dynproxy.Logger
	metricsCollector dynproxy.MetricsCollector
}

// Option configures the Interceptor.
type Option func(*Interceptor) error

// WithLogger logs commits and rollbacks at debug level and failed rollbacks at error level.
func WithLogger(logger dynproxy.Logger) Option {
	return func(i *Interceptor) error {
		if logger == nil {
			return ErrNilLogger
		}

		i.logger = logger

		return nil
	}
}

// WithMetrics counts commits and rollbacks.
func WithMetrics(collector dynproxy.MetricsCollector) Option {
	return func(i *Interceptor) error {
		if collector == nil {
			return ErrNilMetricsCollector
		}

		i.metricsCollector = collector

		return nil
	}
}

// NewFromPGXPool creates an Interceptor beginning transactions on a pgx pool.
func NewFromPGXPool(db *pgxpool.Pool, options ...Option) (*Interceptor, error) {
	if db == nil {
		return nil, ErrNilDatabaseConnection
	}

	return newInterceptor(adapters.NewPGXAdapter(db), options)
}

// NewFromSQLDB creates an Interceptor beginning transactions on a sql.DB.
func NewFromSQLDB(db *sql.DB, options ...Option) (*Interceptor, error) {
	if db == nil {
		return nil, ErrNilDatabaseConnection
	}

	return newInterceptor(adapters.NewSQLAdapter(db), options)
}

// NewFromSQLX creates an Interceptor beginning transactions on a sqlx.DB.
func NewFromSQLX(db *sqlx.DB, options ...Option) (*Interceptor, error) {
	if db == nil {
		return nil, ErrNilDatabaseConnection
	}

	return newInterceptor(adapters.NewSQLXAdapter(db), options)
}

func newInterceptor(db adapters.DBAdapter, options []Option) (*Interceptor, error) {
	i := &Interceptor{db: db}

	for _, option := range options {
		if err := option(i); err != nil {
			return nil, err
		}
	}

	return i, nil
}

// AppliesTo limits the interceptor to methods taking a context first.
func (i *Interceptor) AppliesTo(_ reflect.Type, m *dynproxy.Method) bool {
	return m.AcceptsContext()
}

func (i *Interceptor) Invoke(inv dynproxy.Invocation) (results []any, err error) {
	m := inv.Method()
	ctx := inv.Context()

	if !m.AcceptsContext() {
		return inv.Proceed()
	}

	if _, joined := TxFromContext(ctx); joined {
		return inv.Proceed()
	}

	tx, beginErr := i.db.Begin(ctx)
	if beginErr != nil {
		return failCall(m, errors.Join(ErrBeginFailed, beginErr))
	}

	original := inv.Arguments()[0]
	inv.SetArgument(0, ContextWithTx(ctx, tx))

	finished := false
	defer func() {
		inv.SetArgument(0, original)

		if !finished {
			i.rollback(ctx, tx, m, reasonPanic)
		}
	}()

	results, err = inv.Proceed()
	finished = true

	if err != nil || dynproxy.CallError(m, results) != nil {
		i.rollback(ctx, tx, m, reasonError)
		return results, err
	}

	if commitErr := tx.Commit(ctx); commitErr != nil {
		failure := errors.Join(ErrCommitFailed, commitErr)
		if !m.ReturnsError() {
			return results, failure
		}

		return dynproxy.WithCallError(m, results, failure), nil
	}

	i.logDebug(logMsgTxCommitted, logAttrMethod, m.String())
	i.incrementCounter(ctx, CommitsMetric, m, nil)

	return results, nil
}

// failCall reports a failure through the error result when the method has one.
func failCall(m *dynproxy.Method, failure error) ([]any, error) {
	if !m.ReturnsError() {
		return nil, failure
	}

	return dynproxy.WithCallError(m, dynproxy.ZeroResults(m), failure), nil
}

func (i *Interceptor) rollback(ctx context.Context, tx Tx, m *dynproxy.Method, reason string) {
	if err := tx.Rollback(context.WithoutCancel(ctx)); err != nil {
		if i.logger != nil {
			i.logger.Error(logMsgTxRollbackFailed, logAttrMethod, m.String(), logAttrError, err.Error())
		}

		return
	}

	i.logDebug(logMsgTxRolledBack, logAttrMethod, m.String(), logAttrReason, reason)
	i.incrementCounter(ctx, RollbacksMetric, m, map[string]string{logAttrReason: reason})
}

func (i *Interceptor) logDebug(msg string, args ...any) {
	if i.logger != nil {
		i.logger.Debug(msg, args...)
	}
}

func (i *Interceptor) incrementCounter(ctx context.Context, metric string, m *dynproxy.Method, extra map[string]string) {
	if i.metricsCollector == nil {
		return
	}

	labels := map[string]string{logAttrMethod: m.Name}
	maps.Copy(labels, extra)

	if contextual, ok := i.metricsCollector.(dynproxy.ContextualMetricsCollector); ok {
		contextual.IncrementCounterContext(ctx, metric, labels)
		return
	}

	i.metricsCollector.IncrementCounter(metric, labels)
}
