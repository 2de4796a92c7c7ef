package main

import (
	"github.com/gorilla/mux"
)

// setupRoutes configures all HTTP routes for the API
func setupRoutes(router *mux.Router) {
	// Parsing
	router.HandleFunc("/parse", parseLyrics).Methods("POST")
	router.HandleFunc("/detect", detectFormat).Methods("POST")
	router.HandleFunc("/format", formatTime).Methods("GET")

	// Per-tick lookups against stored tracks
	router.HandleFunc("/tracks/{id}", getTrack).Methods("GET")
	router.HandleFunc("/tracks/{id}", deleteTrack).Methods("DELETE")
	router.HandleFunc("/tracks/{id}/line", getTrackLine).Methods("GET")
	router.HandleFunc("/tracks/{id}/words", getTrackWords).Methods("GET")

	// Source store management
	router.HandleFunc("/cache", getStoreDump).Methods("GET")
	router.HandleFunc("/cache/backup", backupStore).Methods("POST")
	router.HandleFunc("/cache/backups", listBackups).Methods("GET")
	router.HandleFunc("/cache/clear", clearStore).Methods("POST")

	// Health and stats endpoints
	router.HandleFunc("/health", getHealthStatus)
	router.HandleFunc("/stats", getStats)

	router.HandleFunc("/", helpHandler)
}
