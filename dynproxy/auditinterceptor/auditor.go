package auditinterceptor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // driver import
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/AntonStoeckl/dynamic-proxy-go/dynproxy"
	"github.com/AntonStoeckl/dynamic-proxy-go/dynproxy/internal/adapters"
	"github.com/AntonStoeckl/dynamic-proxy-go/dynproxy/internal/argjson"
)

const (
	defaultTableName       = "dynproxy_audit"
	dialectPostgres        = "postgres"
	castJsonb              = "?::jsonb"
	colID                  = "id"
	colMethod              = "method"
	colArguments           = "arguments"
	colFailed              = "failed"
	colError               = "error"
	colDurationMS          = "duration_ms"
	colCreatedAt           = "created_at"
	logMsgAuditWriteFailed = "writing the audit record failed"
	logMsgAuditWritten     = "audit record written"
	logMsgCloseRowsFailed  = "failed to close database rows"
	logAttrMethod          = "method"
	logAttrError           = "error"
	logAttrQuery           = "query"
	panicPrefix            = "panic"
)

var (
	ErrNilDatabaseConnection = errors.New("database connection must not be nil")
	ErrEmptyTableName        = errors.New("audit table name must not be empty")
	ErrNilLogger             = errors.New("logger must not be nil")
	ErrInvalidLimit          = errors.New("limit must be positive")
	ErrBuildingQueryFailed   = errors.New("building the audit query failed")
	ErrWritingRecordFailed   = errors.New("writing the audit record failed")
	ErrReadingRecordsFailed  = errors.New("reading audit records failed")
)

// Record is one audited call.
type Record struct {
	ID        uuid.UUID
	Method    string
	Arguments string
	Failed    bool
	Error     string
	Duration  time.Duration
	CreatedAt time.Time
}

// Auditor is the audit interceptor.
type Auditor struct {
	db     adapters.DBAdapter
	table  string
	logger dynproxy.Logger
	now    func() time.Time
}

// Option configures the Auditor.
type Option func(*Auditor) error

// WithTableName sets the audit table, dynproxy_audit by default.
func WithTableName(tableName string) Option {
	return func(a *Auditor) error {
		if tableName == "" {
			return ErrEmptyTableName
		}

		a.table = tableName

		return nil
	}
}

// WithLogger logs written records at debug level and failed writes at error level.
func WithLogger(logger dynproxy.Logger) Option {
	return func(a *Auditor) error {
		if logger == nil {
			return ErrNilLogger
		}

		a.logger = logger

		return nil
	}
}

// NewFromPGXPool creates an Auditor writing through a pgx pool.
func NewFromPGXPool(db *pgxpool.Pool, options ...Option) (*Auditor, error) {
	if db == nil {
		return nil, ErrNilDatabaseConnection
	}

	return newAuditor(adapters.NewPGXAdapter(db), options)
}

// NewFromSQLDB creates an Auditor writing through a sql.DB.
func NewFromSQLDB(db *sql.DB, options ...Option) (*Auditor, error) {
	if db == nil {
		return nil, ErrNilDatabaseConnection
	}

	return newAuditor(adapters.NewSQLAdapter(db), options)
}

// NewFromSQLX creates an Auditor writing through a sqlx.DB.
func NewFromSQLX(db *sqlx.DB, options ...Option) (*Auditor, error) {
	if db == nil {
		return nil, ErrNilDatabaseConnection
	}

	return newAuditor(adapters.NewSQLXAdapter(db), options)
}

func newAuditor(db adapters.DBAdapter, options []Option) (*Auditor, error) {
	a := &Auditor{db: db, table: defaultTableName, now: time.Now}

	for _, option := range options {
		if err := option(a); err != nil {
			return nil, err
		}
	}

	return a, nil
}

// TableName returns the audit table.
func (a *Auditor) TableName() string { return a.table }

// CreateTable creates the audit table if it does not exist.
func (a *Auditor) CreateTable(ctx context.Context) error {
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id uuid PRIMARY KEY,
	method text NOT NULL,
	arguments jsonb NOT NULL,
	failed boolean NOT NULL,
	error text NULL,
	duration_ms bigint NOT NULL,
	created_at timestamptz NOT NULL
)`, pgx.Identifier{a.table}.Sanitize())

	if _, err := a.db.Exec(ctx, ddl); err != nil {
		return errors.Join(ErrWritingRecordFailed, err)
	}

	return nil
}

func (a *Auditor) Invoke(inv dynproxy.Invocation) ([]any, error) {
	m := inv.Method()
	record := Record{
		ID:        uuid.New(),
		Method:    m.String(),
		Arguments: argjson.Render(inv.Arguments()),
	}

	start := a.now()
	record.CreatedAt = start

	finished := false
	defer func() {
		if finished {
			return
		}

		// Proceed panicked: audit the call as failed and keep unwinding with the same value.
		r := recover()
		record.Duration = a.now().Sub(start)
		record.Failed = true
		record.Error = fmt.Sprintf("%s: %v", panicPrefix, r)
		a.store(inv.Context(), record)

		if r != nil {
			panic(r)
		}
	}()

	results, err := inv.Proceed()
	finished = true
	record.Duration = a.now().Sub(start)

	failure := err
	if failure == nil {
		failure = dynproxy.CallError(m, results)
	}

	if failure != nil {
		record.Failed = true
		record.Error = failure.Error()
	}

	a.store(inv.Context(), record)

	return results, err
}

// store writes record, never failing the audited call.
func (a *Auditor) store(ctx context.Context, record Record) {
	if writeErr := a.Write(context.WithoutCancel(ctx), record); writeErr != nil {
		if a.logger != nil {
			a.logger.Error(logMsgAuditWriteFailed, logAttrMethod, record.Method, logAttrError, writeErr.Error())
		}
	} else if a.logger != nil {
		a.logger.Debug(logMsgAuditWritten, logAttrMethod, record.Method)
	}
}

// Write stores record.
func (a *Auditor) Write(ctx context.Context, record Record) error {
	query, err := a.buildInsertQuery(record)
	if err != nil {
		return err
	}

	if _, execErr := a.db.Exec(ctx, query); execErr != nil {
		return errors.Join(ErrWritingRecordFailed, execErr)
	}

	return nil
}

func (a *Auditor) buildInsertQuery(record Record) (string, error) {
	var errorText any
	if record.Failed {
		errorText = record.Error
	}

	insertStmt := goqu.Dialect(dialectPostgres).
		Insert(a.table).
		Rows(goqu.Record{
			colID:         record.ID.String(),
			colMethod:     record.Method,
			colArguments:  goqu.L(castJsonb, record.Arguments),
			colFailed:     record.Failed,
			colError:      errorText,
			colDurationMS: record.Duration.Milliseconds(),
			colCreatedAt:  record.CreatedAt.UTC(),
		})

	query, _, err := insertStmt.ToSQL()
	if err != nil {
		return "", errors.Join(ErrBuildingQueryFailed, err)
	}

	return query, nil
}

// Recent returns the newest limit records, newest first.
func (a *Auditor) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}

	query, _, err := goqu.Dialect(dialectPostgres).
		From(a.table).
		Select(colID, colMethod, colArguments, colFailed, colError, colDurationMS, colCreatedAt).
		Order(goqu.I(colCreatedAt).Desc(), goqu.I(colID).Asc()).
		Limit(uint(limit)).
		ToSQL()
	if err != nil {
		return nil, errors.Join(ErrBuildingQueryFailed, err)
	}

	rows, err := a.db.Query(ctx, query)
	if err != nil {
		return nil, errors.Join(ErrReadingRecordsFailed, err)
	}

	records, scanErr := scanRecords(rows)

	if closeErr := rows.Close(); closeErr != nil {
		if a.logger != nil {
			a.logger.Warn(logMsgCloseRowsFailed, logAttrError, closeErr.Error(), logAttrQuery, query)
		}

		if scanErr == nil {
			scanErr = errors.Join(ErrReadingRecordsFailed, closeErr)
		}
	}

	return records, scanErr
}

func scanRecords(rows adapters.DBRows) ([]Record, error) {
	var records []Record

	for rows.Next() {
		var (
			record     Record
			arguments  []byte
			errorText  sql.NullString
			durationMS int64
		)

		if err := rows.Scan(
			&record.ID,
			&record.Method,
			&arguments,
			&record.Failed,
			&errorText,
			&durationMS,
			&record.CreatedAt,
		); err != nil {
			return nil, errors.Join(ErrReadingRecordsFailed, err)
		}

		record.Arguments = string(arguments)
		record.Error = errorText.String
		record.Duration = time.Duration(durationMS) * time.Millisecond

		records = append(records, record)
	}

	return records, nil
}
