package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lyrics-timeline-go/cache"
	"lyrics-timeline-go/config"
	"lyrics-timeline-go/logcolors"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

var conf = config.Get()

var (
	sourceStore *cache.SourceStore
	tracks      *trackRegistry
)

func init() {
	log.SetFormatter(&log.JSONFormatter{})
	log.SetOutput(os.Stdout)

	level, err := log.ParseLevel(conf.Configuration.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
}

func main() {
	for _, warning := range configWarnings(conf) {
		log.Warnf("%s %s", logcolors.LogWarning, warning)
	}

	store, statsStore, err := openStores()
	if err != nil {
		log.Fatalf("%s %v", logcolors.LogServer, err)
	}
	sourceStore = store
	tracks = newTrackRegistry(sourceStore, conf.LyricsTiming())

	router := mux.NewRouter()
	setupRoutes(router)

	server := &http.Server{
		Addr:              ":" + conf.Configuration.Port,
		Handler:           newHandler(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Infof("%s Listening on port %s", logcolors.LogServer, conf.Configuration.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("%s %v", logcolors.LogServer, err)
		}
	}()

	<-ctx.Done()
	log.Infof("%s Shutting down", logcolors.LogServer)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warnf("%s Shutdown: %v", logcolors.LogServer, err)
	}

	if statsStore != nil {
		if err := statsStore.Close(); err != nil {
			log.Warnf("%s %v", logcolors.LogStats, err)
		}
	}
	if err := sourceStore.Close(); err != nil {
		log.Warnf("%s %v", logcolors.LogStore, err)
	}
}
