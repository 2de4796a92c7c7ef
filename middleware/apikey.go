package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"lyrics-timeline-go/logcolors"

	log "github.com/sirupsen/logrus"
)

// APIKeyMiddleware requires a matching X-API-Key header when required is set.
// A required key that is not configured lets everything through with a
// warning. Public paths match exactly, or by prefix when they end with "*".
func APIKeyMiddleware(apiKey string, required bool, publicPaths []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !required {
				next.ServeHTTP(w, r)
				return
			}

			if apiKey == "" {
				log.Warnf("%s API key required but not configured, allowing request", logcolors.LogAPIKey)
				next.ServeHTTP(w, r)
				return
			}

			path := r.URL.Path
			if isPublicPath(path, publicPaths) {
				next.ServeHTTP(w, r)
				return
			}

			providedKey := r.Header.Get("X-API-Key")
			if providedKey == "" {
				log.Warnf("%s Missing API key from %s for %s", logcolors.LogAPIKey, ClientIP(r), path)
				writeUnauthorized(w, "API key required", "Provide a valid API key via X-API-Key header")
				return
			}

			if subtle.ConstantTimeCompare([]byte(providedKey), []byte(apiKey)) != 1 {
				log.Warnf("%s Invalid API key from %s for %s", logcolors.LogAPIKey, ClientIP(r), path)
				writeUnauthorized(w, "Invalid API key", "The provided API key is not valid")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func isPublicPath(path string, publicPaths []string) bool {
	for _, public := range publicPaths {
		if prefix, ok := strings.CutSuffix(public, "*"); ok {
			if strings.HasPrefix(path, prefix) {
				return true
			}
		} else if path == public {
			return true
		}
	}
	return false
}

func writeUnauthorized(w http.ResponseWriter, errMsg, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"` + errMsg + `","message":"` + message + `"}`))
}
