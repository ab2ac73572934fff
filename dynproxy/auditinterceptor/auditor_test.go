package auditinterceptor_test

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/dynamic-proxy-go/dynproxy"
	"github.com/AntonStoeckl/dynamic-proxy-go/dynproxy/auditinterceptor"
	"github.com/AntonStoeckl/dynamic-proxy-go/dynproxy/internal/adapters"
	"github.com/AntonStoeckl/dynamic-proxy-go/testutil/testdoubles"
)

type Catalog interface {
	Lend(ctx context.Context, isbn string, days int) (bool, error)
}

var errNotAvailable = errors.New("book not available")

// recordingDB captures executed statements.
type recordingDB struct {
	execErr error
	queries []string
	mu      sync.Mutex
}

func (db *recordingDB) Query(context.Context, string) (adapters.DBRows, error) {
	return nil, errors.New("not supported")
}

func (db *recordingDB) Exec(_ context.Context, query string) (adapters.DBResult, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.queries = append(db.queries, query)

	return nil, db.execErr
}

func (db *recordingDB) Begin(context.Context) (adapters.Tx, error) {
	return nil, errors.New("not supported")
}

func (db *recordingDB) statements() []string {
	db.mu.Lock()
	defer db.mu.Unlock()

	return append([]string(nil), db.queries...)
}

// steppingClock advances by step on every reading.
func steppingClock(start time.Time, step time.Duration) func() time.Time {
	current := start.Add(-step)

	return func() time.Time {
		current = current.Add(step)
		return current
	}
}

func lend(t *testing.T, auditor *auditinterceptor.Auditor, fail bool) ([]any, error) {
	t.Helper()

	m, ok := dynproxy.FindMethod(reflect.TypeFor[Catalog](), "Lend")
	require.True(t, ok)

	inv := dynproxy.NewMethodInvocation(
		nil, nil, nil, m, nil,
		[]any{context.Background(), "978-0441013593", 14},
		[]dynproxy.Interceptor{auditor},
		func(any, *dynproxy.Method, []any) ([]any, error) {
			if fail {
				return []any{false, errNotAvailable}, nil
			}

			return []any{true, nil}, nil
		},
	)

	return inv.Proceed()
}

func Test_Auditor_WritesOneRecordPerCall(t *testing.T) {
	db := &recordingDB{}
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	auditor, err := auditinterceptor.NewWithAdapter(db, auditinterceptor.WithClock(steppingClock(start, 25*time.Millisecond)))
	require.NoError(t, err)

	results, err := lend(t, auditor, false)
	require.NoError(t, err)
	assert.Equal(t, []any{true, nil}, results)

	statements := db.statements()
	require.Len(t, statements, 1)

	insert := statements[0]
	assert.Contains(t, insert, `INSERT INTO "dynproxy_audit"`)
	assert.Contains(t, insert, `'auditinterceptor_test.Catalog.Lend'`)
	assert.Contains(t, insert, `'["978-0441013593",14]'::jsonb`)
	assert.Contains(t, insert, `FALSE`)
	assert.Contains(t, insert, `NULL`)
	assert.Contains(t, insert, `25`)
	assert.Contains(t, insert, `2026-03-01T12:00:00Z`)
}

func Test_Auditor_RecordsFailedCalls(t *testing.T) {
	db := &recordingDB{}

	auditor, err := auditinterceptor.NewWithAdapter(db, auditinterceptor.WithTableName("lending_audit"))
	require.NoError(t, err)

	results, err := lend(t, auditor, true)
	require.NoError(t, err)
	assert.ErrorIs(t, results[1].(error), errNotAvailable)

	insert := db.statements()[0]
	assert.Contains(t, insert, `INSERT INTO "lending_audit"`)
	assert.Contains(t, insert, `TRUE`)
	assert.Contains(t, insert, `'book not available'`)
}

func Test_Auditor_NeverFailsTheCallWhenWritingFails(t *testing.T) {
	db := &recordingDB{execErr: errors.New("disk full")}
	logger := testdoubles.NewLoggerSpy(true)

	auditor, err := auditinterceptor.NewWithAdapter(db, auditinterceptor.WithLogger(logger))
	require.NoError(t, err)

	results, err := lend(t, auditor, false)
	require.NoError(t, err)
	assert.Equal(t, []any{true, nil}, results)

	records := logger.Records("error")
	require.Len(t, records, 1)
	assert.Equal(t, "writing the audit record failed", records[0].Message)
	errText, _ := records[0].Arg("error")
	assert.Contains(t, errText, "disk full")
}

func Test_Auditor_LogsWrittenRecords(t *testing.T) {
	logger := testdoubles.NewLoggerSpy(true)

	auditor, err := auditinterceptor.NewWithAdapter(&recordingDB{}, auditinterceptor.WithLogger(logger))
	require.NoError(t, err)

	_, err = lend(t, auditor, false)
	require.NoError(t, err)

	assert.True(t, logger.HasMessage("debug", "audit record written"))
}

func Test_Auditor_Recent_RejectsInvalidLimits(t *testing.T) {
	auditor, err := auditinterceptor.NewWithAdapter(&recordingDB{})
	require.NoError(t, err)

	_, err = auditor.Recent(context.Background(), 0)
	assert.ErrorIs(t, err, auditinterceptor.ErrInvalidLimit)
}

func Test_Auditor_Recent_ReportsQueryFailures(t *testing.T) {
	auditor, err := auditinterceptor.NewWithAdapter(&recordingDB{})
	require.NoError(t, err)

	_, err = auditor.Recent(context.Background(), 5)
	assert.ErrorIs(t, err, auditinterceptor.ErrReadingRecordsFailed)
}

func Test_Constructors_RejectInvalidInput(t *testing.T) {
	_, err := auditinterceptor.NewFromPGXPool(nil)
	assert.ErrorIs(t, err, auditinterceptor.ErrNilDatabaseConnection)

	_, err = auditinterceptor.NewFromSQLDB(nil)
	assert.ErrorIs(t, err, auditinterceptor.ErrNilDatabaseConnection)

	_, err = auditinterceptor.NewFromSQLX(nil)
	assert.ErrorIs(t, err, auditinterceptor.ErrNilDatabaseConnection)

	_, err = auditinterceptor.NewWithAdapter(&recordingDB{}, auditinterceptor.WithTableName(""))
	assert.ErrorIs(t, err, auditinterceptor.ErrEmptyTableName)

	_, err = auditinterceptor.NewWithAdapter(&recordingDB{}, auditinterceptor.WithLogger(nil))
	assert.ErrorIs(t, err, auditinterceptor.ErrNilLogger)
}

func Test_Auditor_RecordsPanickingCallsAndRepanics(t *testing.T) {
	db := &recordingDB{}

	auditor, err := auditinterceptor.NewWithAdapter(db)
	require.NoError(t, err)

	m, ok := dynproxy.FindMethod(reflect.TypeFor[Catalog](), "Lend")
	require.True(t, ok)

	inv := dynproxy.NewMethodInvocation(
		nil, nil, nil, m, nil,
		[]any{context.Background(), "978-0441013593", 14},
		[]dynproxy.Interceptor{auditor},
		func(any, *dynproxy.Method, []any) ([]any, error) {
			panic(errNotAvailable)
		},
	)

	assert.PanicsWithValue(t, errNotAvailable, func() { _, _ = inv.Proceed() })

	statements := db.statements()
	require.Len(t, statements, 1)
	assert.Contains(t, statements[0], `TRUE`)
	assert.Contains(t, statements[0], `'panic: book not available'`)
}
