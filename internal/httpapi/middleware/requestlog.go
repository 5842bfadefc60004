package middleware

import (
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// RequestLog returns a middleware writing one access-log entry per
// request. Successful requests under quietPrefix — the probe endpoints
// — are skipped so kubelet probes do not flood the log; a failing
// probe still leaves a trace.
func RequestLog(logger *zap.Logger, quietPrefix string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)

			if quietPrefix != "" &&
				strings.HasPrefix(r.URL.Path, quietPrefix+"/") &&
				ww.status == http.StatusOK {
				return
			}

			logger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.status),
				zap.Float64("latency_ms", time.Since(start).Seconds()*1000),
			)
		})
	}
}
