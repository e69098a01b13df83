package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"
)

// PanicHandler writes the response for a request whose handler panicked
type PanicHandler func(w http.ResponseWriter, r *http.Request, err any)

// Recovery creates panic recovery middleware with a custom panic handler
func Recovery(logger *slog.Logger, handler PanicHandler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logPanic(logger, err,
						slog.String("method", r.Method),
						slog.String("path", r.URL.Path))
					handler(w, r, err)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// Recover runs fn and turns a panic into an error log plus a call to
// onPanic. Message loops wrap each message in it so one bad message only
// fails itself.
func Recover(logger *slog.Logger, fn func(), onPanic func(err any), attrs ...slog.Attr) {
	defer func() {
		if err := recover(); err != nil {
			logPanic(logger, err, attrs...)
			if onPanic != nil {
				onPanic(err)
			}
		}
	}()
	fn()
}

func logPanic(logger *slog.Logger, err any, attrs ...slog.Attr) {
	args := make([]any, 0, len(attrs)+2)
	args = append(args, slog.Any("error", err), slog.String("stack", string(debug.Stack())))
	for _, a := range attrs {
		args = append(args, a)
	}
	logger.Error("panic recovered", args...)
}
