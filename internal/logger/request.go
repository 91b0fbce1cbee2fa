package logger

// request.go gives every HTTP request its own logger.
//
// Handlers and middleware get the request logger with ContextRequestLogger and can add attributes to the
// "request completed" log entry with ContextWithLogAttrs.

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

type contextKey struct{ name string }

var (
	requestLoggerKey = contextKey{"request-logger"}
	logAttrsKey      = contextKey{"log-attrs"}
)

// logAttrs collects attributes for the final request log entry
type logAttrs struct {
	mu    sync.Mutex
	attrs []slog.Attr
}

// ContextRequestLogger returns the logger of the current request (the default logger outside a request)
func ContextRequestLogger(ctx context.Context) *slog.Logger {
	if l, ok := RequestLoggerFromContext(ctx); ok {
		return l
	}
	return slog.Default()
}

// RequestLoggerFromContext returns the logger of the current request, ok is false outside a request
func RequestLoggerFromContext(ctx context.Context) (*slog.Logger, bool) {
	l, ok := ctx.Value(requestLoggerKey).(*slog.Logger)
	return l, ok
}

// ContextWithLogAttrs adds attributes to the "request completed" entry of the current request.
// It is a no-op outside a request handled by RequestLogging.
func ContextWithLogAttrs(ctx context.Context, attrs ...slog.Attr) {
	holder, ok := ctx.Value(logAttrsKey).(*logAttrs)
	if !ok {
		return
	}
	holder.mu.Lock()
	defer holder.mu.Unlock()
	holder.attrs = append(holder.attrs, attrs...)
}

// WithRequestLogger returns a context carrying l as the request logger
func WithRequestLogger(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, requestLoggerKey, l)
}

// RequestLogging is a middleware that creates the request logger and logs each completed request.
// It must run after chi's RequestID middleware.
func RequestLogging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			reqLogger := logger.With(
				slog.String("request_id", middleware.GetReqID(r.Context())),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
			)

			holder := &logAttrs{}
			ctx := WithRequestLogger(r.Context(), reqLogger)
			ctx = context.WithValue(ctx, logAttrsKey, holder)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			holder.mu.Lock()
			attrs := append([]slog.Attr{
				slog.Int("status", status),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("duration", time.Since(start)),
			}, holder.attrs...)
			holder.mu.Unlock()

			level := slog.LevelInfo
			if status >= 500 {
				level = slog.LevelError
			} else if status >= 400 {
				level = slog.LevelWarn
			}
			reqLogger.LogAttrs(ctx, level, "Request completed", attrs...)
		})
	}
}
