package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// LoggingMiddleware logs one line per completed request, tagged with the
// request ID. SSE connections are logged on open
// instead, since they stay up until the client walks away.
func LoggingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := middleware.GetReqID(r.Context())

			if strings.HasSuffix(r.URL.Path, "/stream") {
				logger.Info("Stream opened",
					zap.String("request_id", requestID),
					zap.String("remote_addr", r.RemoteAddr),
				)
				next.ServeHTTP(w, r)
				logger.Info("Stream closed",
					zap.String("request_id", requestID),
					zap.Duration("duration", time.Since(start)),
				)
				return
			}

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			logger.Info("Request completed",
				zap.String("request_id", requestID),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}
