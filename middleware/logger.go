package middleware

import (
	"net/http"
	"time"

	"lyrics-timeline-go/logcolors"
	"lyrics-timeline-go/stats"

	log "github.com/sirupsen/logrus"
)

// ResponseRecorder captures the status code and body size of a response
type ResponseRecorder struct {
	http.ResponseWriter
	StatusCode int
	BodySize   int
}

func NewResponseRecorder(w http.ResponseWriter) *ResponseRecorder {
	return &ResponseRecorder{ResponseWriter: w, StatusCode: http.StatusOK}
}

func (rec *ResponseRecorder) WriteHeader(code int) {
	rec.StatusCode = code
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *ResponseRecorder) Write(b []byte) (int, error) {
	n, err := rec.ResponseWriter.Write(b)
	rec.BodySize += n
	return n, err
}

func getStatusColor(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "\033[32m"
	case code >= 300 && code < 400:
		return "\033[36m"
	case code >= 400 && code < 500:
		return "\033[33m"
	case code >= 500:
		return "\033[31m"
	default:
		return logcolors.Reset
	}
}

// LoggingMiddleware logs every request and feeds the global stats
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := NewResponseRecorder(w)

		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		s := stats.Get()
		s.RecordRequest(r.URL.Path)
		s.RecordStatusCode(rec.StatusCode)
		s.RecordResponseTime(duration, r.URL.Path)

		log.Infof("%s %s %s %s%d%s %dB %v",
			logcolors.LogHTTP,
			r.Method,
			r.URL.RequestURI(),
			getStatusColor(rec.StatusCode), rec.StatusCode, logcolors.Reset,
			rec.BodySize,
			duration,
		)
	})
}
