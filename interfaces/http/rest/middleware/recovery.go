package middleware

import (
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"

	pkgerrors "siostam-backend/pkg/errors"
)

// Recovery converts handler panics into JSON error responses so one
// bad request cannot take the process down.
func Recovery(logger *zap.Logger) func(next http.Handler) http.Handler {
	errorHandler := pkgerrors.NewErrorHandler(logger)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("Handler panicked",
						zap.Any("panic", rec),
						zap.String("method", r.Method),
						zap.String("path", r.URL.Path),
						zap.ByteString("stack", debug.Stack()),
					)

					// A partially written response cannot be rescued;
					// the server closes the connection.
					if w.Header().Get("Content-Type") != "" {
						return
					}
					errorHandler.Handle(w, r, pkgerrors.NewInternalError("internal server error"))
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
