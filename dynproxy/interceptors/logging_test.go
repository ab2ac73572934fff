package interceptors_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/dynamic-proxy-go/dynproxy/interceptors"
	"github.com/AntonStoeckl/dynamic-proxy-go/testutil/testdoubles"
)

func Test_Logging_LogsStartAndCompletionAtDebug(t *testing.T) {
	logger := testdoubles.NewLoggerSpy(true)
	logging, err := interceptors.Logging(logger, interceptors.WithArguments())
	require.NoError(t, err)

	results, err := invoke(t, &flakyStore{}, "Save", saveArgs(context.Background()), logging)
	require.NoError(t, err)
	assert.Equal(t, []any{42, nil}, results)

	debug := logger.Records("debug")
	require.Len(t, debug, 2)
	assert.Equal(t, "proxied call started", debug[0].Message)
	assert.Equal(t, "proxied call completed", debug[1].Message)

	arguments, ok := debug[0].Arg("arguments")
	require.True(t, ok)
	assert.Equal(t, `["answer",21]`, arguments)

	startID, _ := debug[0].Arg("call_id")
	endID, _ := debug[1].Arg("call_id")
	assert.NotEmpty(t, startID)
	assert.Equal(t, startID, endID)

	method, _ := debug[0].Arg("method")
	assert.Equal(t, "interceptors_test.Store.Save", method)
	assert.True(t, debug[1].HasArg("duration_ms"))
	assert.Empty(t, logger.Records("error"))
}

func Test_Logging_LeavesArgumentsOutByDefault(t *testing.T) {
	logger := testdoubles.NewLoggerSpy(true)
	logging, err := interceptors.Logging(logger)
	require.NoError(t, err)

	_, err = invoke(t, &flakyStore{}, "Save", saveArgs(context.Background()), logging)
	require.NoError(t, err)

	assert.False(t, logger.Records("debug")[0].HasArg("arguments"))
}

func Test_Logging_LogsFailedCallsAtError(t *testing.T) {
	logger := testdoubles.NewLoggerSpy(true)
	logging, err := interceptors.Logging(logger)
	require.NoError(t, err)

	results, err := invoke(t, &flakyStore{failures: 1, err: errUnavailable}, "Save", saveArgs(context.Background()), logging)
	require.NoError(t, err)
	assert.ErrorIs(t, results[1].(error), errUnavailable)

	errorRecords := logger.Records("error")
	require.Len(t, errorRecords, 1)
	assert.Equal(t, "proxied call failed", errorRecords[0].Message)

	status, _ := errorRecords[0].Arg("status")
	assert.Equal(t, "error", status)
	errText, _ := errorRecords[0].Arg("error")
	assert.Equal(t, errUnavailable.Error(), errText)
}

func Test_Logging_ClassifiesCanceledCalls(t *testing.T) {
	logger := testdoubles.NewLoggerSpy(true)
	logging, err := interceptors.Logging(logger)
	require.NoError(t, err)

	_, err = invoke(t, &flakyStore{failures: 1, err: context.Canceled}, "Save", saveArgs(context.Background()), logging)
	require.NoError(t, err)

	status, _ := logger.Records("error")[0].Arg("status")
	assert.Equal(t, "canceled", status)
}

func Test_ContextualLogging_PassesTheCallContext(t *testing.T) {
	logger := testdoubles.NewContextualLoggerSpy(true)
	logging, err := interceptors.ContextualLogging(logger)
	require.NoError(t, err)

	ctx := context.WithValue(context.Background(), ctxKey{}, "request-7")
	_, err = invoke(t, &flakyStore{}, "Save", saveArgs(ctx), logging)
	require.NoError(t, err)

	records := logger.Records("debug")
	require.Len(t, records, 2)
	for _, record := range records {
		assert.Equal(t, "request-7", record.Context.Value(ctxKey{}))
	}
}

func Test_Logging_RejectsNilLoggers(t *testing.T) {
	_, err := interceptors.Logging(nil)
	assert.ErrorIs(t, err, interceptors.ErrNilLogger)

	_, err = interceptors.ContextualLogging(nil)
	assert.ErrorIs(t, err, interceptors.ErrNilLogger)
}
