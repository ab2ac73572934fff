package interceptors

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/dynamic-proxy-go/dynproxy"
	"github.com/AntonStoeckl/dynamic-proxy-go/dynproxy/internal/argjson"
)

type loggingInterceptor struct {
	logger           dynproxy.Logger
	contextualLogger dynproxy.ContextualLogger
	withArguments    bool
}

// LoggingOption configures the logging interceptor.
type LoggingOption func(*loggingInterceptor) error

// WithArguments adds the JSON rendered call arguments to the start message.
// Context arguments are left out.
func WithArguments() LoggingOption {
	return func(l *loggingInterceptor) error {
		l.withArguments = true
		return nil
	}
}

// Logging logs every call at debug level when it starts and completes, and failed calls at error level.
// A logger that also implements dynproxy.ContextualLogger, such as *slog.Logger, is used with the call's context.
func Logging(logger dynproxy.Logger, options ...LoggingOption) (dynproxy.Interceptor, error) {
	if logger == nil {
		return nil, ErrNilLogger
	}

	l := &loggingInterceptor{logger: logger}
	if contextual, ok := logger.(dynproxy.ContextualLogger); ok {
		l.contextualLogger = contextual
	}

	return l.apply(options)
}

// ContextualLogging is Logging for loggers that only log with a context.
func ContextualLogging(logger dynproxy.ContextualLogger, options ...LoggingOption) (dynproxy.Interceptor, error) {
	if logger == nil {
		return nil, ErrNilLogger
	}

	return (&loggingInterceptor{contextualLogger: logger}).apply(options)
}

func (l *loggingInterceptor) apply(options []LoggingOption) (dynproxy.Interceptor, error) {
	for _, option := range options {
		if err := option(l); err != nil {
			return nil, err
		}
	}

	return l, nil
}

func (l *loggingInterceptor) Invoke(inv dynproxy.Invocation) ([]any, error) {
	ctx := inv.Context()
	callID := uuid.NewString()
	method := inv.Method().String()

	startArgs := []any{logAttrCallID, callID, logAttrMethod, method, logAttrTargetType, targetTypeName(inv)}
	if l.withArguments {
		startArgs = append(startArgs, logAttrArguments, argjson.Render(inv.Arguments()))
	}
	l.debug(ctx, logMsgCallStarted, startArgs...)

	start := time.Now()
	results, err := inv.Proceed()
	duration := time.Since(start)

	if failure := callFailure(inv, results, err); failure != nil {
		l.error(ctx, logMsgCallFailed,
			logAttrCallID, callID,
			logAttrMethod, method,
			logAttrStatus, statusOf(failure),
			logAttrError, failure.Error(),
			logAttrDurationMS, toMilliseconds(duration),
		)

		return results, err
	}

	l.debug(ctx, logMsgCallCompleted,
		logAttrCallID, callID,
		logAttrMethod, method,
		logAttrDurationMS, toMilliseconds(duration),
	)

	return results, nil
}

func (l *loggingInterceptor) debug(ctx context.Context, msg string, args ...any) {
	if l.contextualLogger != nil {
		l.contextualLogger.DebugContext(ctx, msg, args...)
		return
	}

	l.logger.Debug(msg, args...)
}

func (l *loggingInterceptor) error(ctx context.Context, msg string, args ...any) {
	if l.contextualLogger != nil {
		l.contextualLogger.ErrorContext(ctx, msg, args...)
		return
	}

	l.logger.Error(msg, args...)
}

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}
