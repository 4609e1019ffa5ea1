package log

import (
	"context"
	"log/slog"
	"net/http"
)

type ContextKey string

const LoggerContextKey ContextKey = "logger"

// Middleware puts logger, tagged with the request id when extractRequestID
// is set, into every request context.
func Middleware(logger *Logger, extractRequestID func(context.Context) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			l := logger
			if extractRequestID != nil {
				if id := extractRequestID(r.Context()); id != "" {
					l = l.With(FieldRequestID, id)
				}
			}
			ctx := context.WithValue(r.Context(), LoggerContextKey, l)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// FromContext falls back to the slog default logger.
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*Logger); ok {
		return logger
	}
	return &Logger{Logger: slog.Default(), component: "unknown"}
}

// LogError logs err with its operation and component.
func LogError(ctx context.Context, msg string, err error, component, operation string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	FromContext(ctx).WithComponent(component).ErrorContext(ctx, msg,
		fields.WithError(err).WithOperation(operation).ToSlice()...)
}
