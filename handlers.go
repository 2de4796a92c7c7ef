package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	"lyrics-timeline-go/logcolors"
	"lyrics-timeline-go/lyrics"
	"lyrics-timeline-go/stats"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

const maxBodyBytes = 1 << 20

// readBody reads a request body up to maxBodyBytes
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	return body, nil
}

// sourceFromBody accepts a channel object, a JSON string or raw lyric text.
// Malformed JSON yields an empty source.
func sourceFromBody(body []byte) lyrics.Source {
	src, err := lyrics.ReadSource(body)
	switch {
	case errors.Is(err, lyrics.ErrUnsupportedInput):
		return lyrics.SourceFromText(string(bytes.TrimSpace(body)))
	case err != nil:
		log.Debugf("%s Ignoring malformed body: %v", logcolors.LogParser, err)
	}
	return src
}

// setFormat reports which timing granularity a parsed set carries
func setFormat(set lyrics.Set) lyrics.Format {
	switch {
	case set.HasWordTiming:
		return lyrics.FormatWord
	case !set.IsEmpty():
		return lyrics.FormatLine
	default:
		return lyrics.FormatUnknown
	}
}

func parseLyrics(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		Respond(w, r).Error(http.StatusRequestEntityTooLarge, err.Error())
		return
	}

	src := sourceFromBody(body)
	id := strings.TrimSpace(r.URL.Query().Get("id"))

	var timeline *lyrics.Timeline
	if id != "" {
		if src.IsZero() {
			Respond(w, r).Error(http.StatusBadRequest, "Nothing to store: the body has no lyric channel")
			return
		}
		timeline, err = tracks.put(id, src)
		if err != nil {
			log.Errorf("%s %v", logcolors.LogStore, err)
			Respond(w, r).Error(http.StatusInternalServerError, "Failed to store source")
			return
		}
	} else {
		timeline = tracks.parse(src)
	}

	set := timeline.Set()
	format := setFormat(set)
	stats.Get().RecordFormat(format)

	Respond(w, r).JSON(ParseResponse{ID: id, Format: format, Lyrics: set})
}

func detectFormat(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		Respond(w, r).Error(http.StatusRequestEntityTooLarge, err.Error())
		return
	}

	format := lyrics.Detect(string(body))
	stats.Get().RecordFormat(format)

	Respond(w, r).JSON(map[string]interface{}{"format": format})
}

// trackTimeline resolves the {id} route variable, answering 404 itself
func trackTimeline(w http.ResponseWriter, r *http.Request) (string, *lyrics.Timeline, string, bool) {
	id := mux.Vars(r)["id"]
	timeline, status, ok := tracks.get(id)
	if !ok {
		Respond(w, r).Error(http.StatusNotFound, fmt.Sprintf("No lyrics stored for %q", id))
		return id, nil, "", false
	}
	return id, timeline, status, true
}

// playbackTime reads the t query parameter in seconds
func playbackTime(r *http.Request) (float64, error) {
	raw := r.URL.Query().Get("t")
	if raw == "" {
		return 0, fmt.Errorf("missing 't' query parameter (seconds)")
	}
	t, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(t) || math.IsInf(t, 0) {
		return 0, fmt.Errorf("invalid 't' query parameter: %q", raw)
	}
	return t, nil
}

func getTrack(w http.ResponseWriter, r *http.Request) {
	id, timeline, status, ok := trackTimeline(w, r)
	if !ok {
		return
	}

	set := timeline.Set()
	Respond(w, r).SetCacheStatus(status).JSON(ParseResponse{ID: id, Format: setFormat(set), Lyrics: set})
}

func getTrackLine(w http.ResponseWriter, r *http.Request) {
	t, err := playbackTime(r)
	if err != nil {
		Respond(w, r).Error(http.StatusBadRequest, err.Error())
		return
	}

	id, timeline, status, ok := trackTimeline(w, r)
	if !ok {
		return
	}

	resp := LineResponse{ID: id, Time: t, Index: timeline.ActiveLine(t)}
	if resp.Index >= 0 {
		line := timeline.Set().Lines[resp.Index]
		resp.Line = &line
	}

	log.Debugf("%s %s t=%.3f -> %d", logcolors.LogTimeline, id, t, resp.Index)
	Respond(w, r).SetCacheStatus(status).JSON(resp)
}

func getTrackWords(w http.ResponseWriter, r *http.Request) {
	t, err := playbackTime(r)
	if err != nil {
		Respond(w, r).Error(http.StatusBadRequest, err.Error())
		return
	}

	id, timeline, status, ok := trackTimeline(w, r)
	if !ok {
		return
	}

	Respond(w, r).SetCacheStatus(status).JSON(WordsResponse{ID: id, Frame: timeline.At(t)})
}

func deleteTrack(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := tracks.delete(id); err != nil {
		log.Errorf("%s %v", logcolors.LogStore, err)
		Respond(w, r).Error(http.StatusInternalServerError, "Failed to delete source")
		return
	}

	Respond(w, r).JSON(map[string]interface{}{
		"message": "Track deleted",
		"id":      id,
	})
}

func formatTime(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	ms, err := strconv.ParseInt(query.Get("ms"), 10, 64)
	if err != nil {
		Respond(w, r).Error(http.StatusBadRequest, "Invalid or missing 'ms' query parameter")
		return
	}
	withCentis, _ := strconv.ParseBool(query.Get("centis"))

	Respond(w, r).JSON(map[string]interface{}{
		"ms":        ms,
		"formatted": lyrics.FormatDuration(ms, withCentis),
	})
}

// authorized checks the admin token. An unset token locks the admin routes.
func authorized(r *http.Request) bool {
	token := conf.Configuration.StoreAccessToken
	return token != "" && r.Header.Get("Authorization") == token
}

func getStats(w http.ResponseWriter, r *http.Request) {
	if !authorized(r) {
		Respond(w, r).Error(http.StatusUnauthorized, "Unauthorized")
		return
	}

	snapshot := stats.Get().Snapshot()

	numKeys, sizeInKB := sourceStore.Stats()
	snapshot["source_store"] = map[string]interface{}{
		"keys":                numKeys,
		"size_kb":             sizeInKB,
		"timelines_in_memory": tracks.memoised(),
	}

	Respond(w, r).JSON(snapshot)
}

func getStoreDump(w http.ResponseWriter, r *http.Request) {
	if !authorized(r) {
		Respond(w, r).Error(http.StatusUnauthorized, "Unauthorized")
		return
	}

	numKeys, sizeInKB := sourceStore.Stats()
	s := stats.Get()

	Respond(w, r).JSON(StoreDumpResponse{
		NumberOfKeys: numKeys,
		SizeInKB:     sizeInKB,
		Timelines:    tracks.memoised(),
		Performance: TimelinePerformance{
			Hits:    s.TimelineHits.Load(),
			Misses:  s.TimelineMisses.Load(),
			HitRate: s.TimelineHitRate(),
		},
		IDs: sourceStore.IDs(),
	})
}

func backupStore(w http.ResponseWriter, r *http.Request) {
	if !authorized(r) {
		Respond(w, r).Error(http.StatusUnauthorized, "Unauthorized")
		return
	}

	backupPath, err := sourceStore.Backup()
	if err != nil {
		log.Errorf("%s Failed to create backup: %v", logcolors.LogStoreBackup, err)
		Respond(w, r).Error(http.StatusInternalServerError, fmt.Sprintf("Failed to create backup: %v", err))
		return
	}

	Respond(w, r).JSON(map[string]interface{}{
		"message":     "Backup created successfully",
		"backup_path": backupPath,
	})
}

func listBackups(w http.ResponseWriter, r *http.Request) {
	if !authorized(r) {
		Respond(w, r).Error(http.StatusUnauthorized, "Unauthorized")
		return
	}

	backups, err := sourceStore.ListBackups()
	if err != nil {
		log.Errorf("%s Failed to list backups: %v", logcolors.LogStoreBackups, err)
		Respond(w, r).Error(http.StatusInternalServerError, fmt.Sprintf("Failed to list backups: %v", err))
		return
	}

	Respond(w, r).JSON(BackupListResponse{Count: len(backups), Backups: backups})
}

func clearStore(w http.ResponseWriter, r *http.Request) {
	if !authorized(r) {
		Respond(w, r).Error(http.StatusUnauthorized, "Unauthorized")
		return
	}

	backupPath, err := sourceStore.BackupAndClear()
	tracks.forget()
	if err != nil {
		log.Errorf("%s Failed to backup and clear store: %v", logcolors.LogStoreClear, err)
		Respond(w, r).Error(http.StatusInternalServerError, fmt.Sprintf("Failed to backup and clear store: %v", err))
		return
	}

	Respond(w, r).JSON(map[string]interface{}{
		"message":     "Store cleared successfully",
		"backup_path": backupPath,
	})
}

func getHealthStatus(w http.ResponseWriter, r *http.Request) {
	numKeys, _ := sourceStore.Stats()

	Respond(w, r).JSON(map[string]interface{}{
		"status":    "ok",
		"sources":   numKeys,
		"timelines": tracks.memoised(),
		"uptime":    stats.Get().Uptime().String(),
	})
}

func helpHandler(w http.ResponseWriter, r *http.Request) {
	Respond(w, r).JSON(map[string]interface{}{
		"help": "Submit lyrics with POST /parse (add ?id=<track> to keep them), then poll GET /tracks/<track>/line?t=<seconds> or /tracks/<track>/words?t=<seconds> while the song plays.",
		"endpoints": []string{
			"POST /parse[?id=<track>]",
			"POST /detect",
			"GET /tracks/{id}",
			"GET /tracks/{id}/line?t=<seconds>",
			"GET /tracks/{id}/words?t=<seconds>",
			"DELETE /tracks/{id}",
			"GET /format?ms=<milliseconds>[&centis=true]",
			"GET /health",
		},
	})
}
