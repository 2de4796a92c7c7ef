package main

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"
	"time"

	"lyrics-timeline-go/cache"
	"lyrics-timeline-go/config"
	"lyrics-timeline-go/logcolors"
	"lyrics-timeline-go/middleware"
	"lyrics-timeline-go/stats"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// configWarnings lists settings that leave part of the service unusable
func configWarnings(cfg config.Config) []string {
	var warnings []string
	if cfg.Configuration.StoreAccessToken == "" {
		warnings = append(warnings, "STORE_ACCESS_TOKEN is empty, admin routes are locked")
	}
	if cfg.Configuration.APIKeyRequired && cfg.Configuration.APIKey == "" {
		warnings = append(warnings, "API_KEY_REQUIRED is set without API_KEY, only public routes will answer")
	}
	if cfg.Configuration.RateLimitPerSecond <= 0 || cfg.Configuration.ParseRateLimitPerSecond <= 0 {
		warnings = append(warnings, "a rate limit of zero admits only the initial burst")
	}
	return warnings
}

// openStores opens the source store and, when enabled, the stats store
func openStores() (*cache.SourceStore, *stats.Store, error) {
	store, err := cache.NewSourceStore(
		conf.Configuration.StorePath,
		conf.Configuration.StoreBackupPath,
		conf.FeatureFlags.StoreCompression,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open source store: %w", err)
	}

	if !conf.FeatureFlags.PersistStats {
		return store, nil, nil
	}

	statsStore, err := stats.NewStore(conf.Configuration.StatsPath, stats.Get())
	if err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("failed to open stats store: %w", err)
	}
	if err := statsStore.Load(); err != nil {
		log.Warnf("%s %v", logcolors.LogStats, err)
	}
	interval := time.Duration(conf.Configuration.StatsSaveIntervalSecs) * time.Second
	if interval > 0 {
		statsStore.StartAutoSave(interval)
	}

	return store, statsStore, nil
}

// newHandler wraps the router with the middleware chain, outermost first:
// logging, CORS, rate limiting, API key
func newHandler(router *mux.Router) http.Handler {
	limiter := middleware.NewIPRateLimiter(
		rate.Limit(conf.Configuration.RateLimitPerSecond),
		conf.Configuration.RateLimitBurstLimit,
		rate.Limit(conf.Configuration.ParseRateLimitPerSecond),
		conf.Configuration.ParseRateLimitBurstLimit,
	)

	c := cors.New(cors.Options{
		AllowedOrigins: strings.Split(conf.Configuration.AllowedOrigins, ","),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-API-Key"},
		ExposedHeaders: []string{"X-Cache-Status", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Type"},
	})

	apiKey := middleware.APIKeyMiddleware(
		conf.Configuration.APIKey,
		conf.Configuration.APIKeyRequired,
		[]string{"/", "/health", "/format"},
	)

	return middleware.LoggingMiddleware(c.Handler(limitMiddleware(apiKey(router), limiter)))
}

// usesParseTier reports whether r parses or stores lyrics
func usesParseTier(r *http.Request) bool {
	return r.Method == http.MethodPost && (r.URL.Path == "/parse" || r.URL.Path == "/detect")
}

func limitMiddleware(next http.Handler, limiter *middleware.IPRateLimiter) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey := r.Header.Get("X-API-Key")
		configured := conf.Configuration.APIKey
		if apiKey != "" && configured != "" && subtle.ConstantTimeCompare([]byte(apiKey), []byte(configured)) == 1 {
			w.Header().Set("X-RateLimit-Bypass", "true")
			ctx := context.WithValue(r.Context(), rateLimitTypeKey, "bypass")
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		ip := middleware.ClientIP(r)
		limiters := limiter.GetLimiter(ip)

		tier, bucket, limit := "lookup", limiters.Lookup, limiter.GetLookupLimit()
		if usesParseTier(r) {
			tier, bucket, limit = "parse", limiters.Parse, limiter.GetParseLimit()
		}

		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", limit))

		if !bucket.Allow() {
			stats.Get().RecordRateLimit("exceeded")
			log.Warnf("%s IP %s exceeded the %s tier", logcolors.LogRateLimit, ip, tier)
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("X-RateLimit-Type", "exceeded")
			w.Header().Set("Retry-After", "1")
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			return
		}

		stats.Get().RecordRateLimit(tier)
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", int(bucket.Tokens())))
		ctx := context.WithValue(r.Context(), rateLimitTypeKey, tier)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
