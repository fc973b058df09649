package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"lumber-tickets/internal/logger"
)

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// RequestLogger logs every request with its status and duration, tagging it
// with the client's X-Request-ID or a freshly assigned one.
func RequestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = uuid.NewString()
				r.Header.Set("X-Request-ID", requestID)
			}
			w.Header().Set("X-Request-ID", requestID)

			start := time.Now()
			writer := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(writer, r)

			log.LogAPI(r.Method, r.URL.Path,
				fmt.Sprintf("%d request_id=%s", writer.status, requestID),
				time.Since(start).String())
		})
	}
}
