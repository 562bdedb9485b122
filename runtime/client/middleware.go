package client

import (
	"context"
	"log/slog"
	"time"
)

// QueryEvent describes one statement as it passes through the middleware
// chain. Duration, End and Error are set once the statement has run.
type QueryEvent struct {
	Query    string
	Args     []any
	InTx     bool
	Start    time.Time
	End      time.Time
	Duration time.Duration
	Error    error
}

// Middleware intercepts statements. It must call next exactly once to run
// the statement.
type Middleware func(ctx context.Context, event *QueryEvent, next func() error) error

// run executes exec through the middleware chain, first middleware
// outermost.
func (e *executor) run(ctx context.Context, query string, args []any, exec func() error) error {
	event := &QueryEvent{Query: query, Args: args, InTx: e.inTx, Start: time.Now()}

	handler := func() error {
		err := exec()
		event.End = time.Now()
		event.Duration = event.End.Sub(event.Start)
		event.Error = err
		return err
	}
	for i := len(e.cfg.middlewares) - 1; i >= 0; i-- {
		m, inner := e.cfg.middlewares[i], handler
		handler = func() error { return m(ctx, event, inner) }
	}

	err := handler()
	e.cfg.logger.DebugContext(ctx, "statement",
		"sql", query, "args", len(args), "tx", e.inTx, "duration", event.Duration, "error", err)
	return err
}

// LoggingMiddleware logs every statement with its arguments and outcome.
func LoggingMiddleware(logger *slog.Logger) Middleware {
	return func(ctx context.Context, event *QueryEvent, next func() error) error {
		err := next()
		if err != nil {
			logger.ErrorContext(ctx, "statement failed", "sql", event.Query, "args", event.Args, "error", err)
			return err
		}
		logger.InfoContext(ctx, "statement", "sql", event.Query, "args", event.Args, "duration", event.Duration)
		return nil
	}
}

// SlowQueryMiddleware warns about statements slower than threshold.
func SlowQueryMiddleware(logger *slog.Logger, threshold time.Duration) Middleware {
	return func(ctx context.Context, event *QueryEvent, next func() error) error {
		err := next()
		if event.Duration >= threshold {
			logger.WarnContext(ctx, "slow statement", "sql", event.Query, "duration", event.Duration, "threshold", threshold)
		}
		return err
	}
}

// TimingMiddleware reports the execution time of every statement.
func TimingMiddleware(onTiming func(query string, duration time.Duration)) Middleware {
	return func(ctx context.Context, event *QueryEvent, next func() error) error {
		err := next()
		if onTiming != nil {
			onTiming(event.Query, event.Duration)
		}
		return err
	}
}

// ErrorMiddleware reports failed statements.
func ErrorMiddleware(onError func(query string, err error)) Middleware {
	return func(ctx context.Context, event *QueryEvent, next func() error) error {
		err := next()
		if err != nil && onError != nil {
			onError(event.Query, err)
		}
		return err
	}
}
