package middleware

import (
	"log/slog"
	"net/http"
	"time"
)

// StatusRecorder wraps http.ResponseWriter and records the status code of
// the first write.
type StatusRecorder struct {
	http.ResponseWriter
	StatusCode int
	written    bool
}

func (sr *StatusRecorder) WriteHeader(code int) {
	if !sr.written {
		sr.StatusCode = code
		sr.written = true
	}
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *StatusRecorder) Write(b []byte) (int, error) {
	if !sr.written {
		sr.StatusCode = http.StatusOK
		sr.written = true
	}
	return sr.ResponseWriter.Write(b)
}

// StatusObserver receives the final status code of each request. The
// Prometheus collector implements it.
type StatusObserver interface {
	RecordHTTPStatus(statusCode int)
}

// NewLogging returns a middleware that emits one structured log line per
// request (method, path, status, duration) and feeds the status code to the
// observer. observer may be nil.
func NewLogging(logger *slog.Logger, observer StatusObserver) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rec := &StatusRecorder{ResponseWriter: w, StatusCode: http.StatusOK}
			next.ServeHTTP(rec, r)

			if observer != nil {
				observer.RecordHTTPStatus(rec.StatusCode)
			}

			level := slog.LevelInfo
			switch {
			case rec.StatusCode >= 500:
				level = slog.LevelError
			case rec.StatusCode >= 400:
				level = slog.LevelWarn
			}

			logger.Log(r.Context(), level, "http_request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rec.StatusCode),
				slog.Float64("duration_ms", float64(time.Since(start).Nanoseconds())/float64(time.Millisecond)),
			)
		})
	}
}
