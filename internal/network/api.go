package network

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/MRamiBalles/sinewave/internal/events"
	"github.com/MRamiBalles/sinewave/internal/platform/logger"
	"github.com/MRamiBalles/sinewave/internal/view"
)

const (
	defaultJournalLimit = 50
	maxJournalLimit     = 1000
)

// StateResponse is the payload of /api/state.
type StateResponse struct {
	Frame     view.Frame `json:"frame"`
	StartedAt string     `json:"started_at"`
	Uptime    string     `json:"uptime"`
	Viewers   int        `json:"viewers"`
}

// StateHandler serves the current frame and process information.
func StateHandler(snap Snapshotter, hub *Hub, startedAt time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache")
		json.NewEncoder(w).Encode(StateResponse{
			Frame:     snap.Snapshot(),
			StartedAt: startedAt.Format(time.RFC3339),
			Uptime:    strings.TrimSpace(humanize.RelTime(startedAt, time.Now(), "", "")),
			Viewers:   hub.ClientCount(),
		})
	}
}

// Archive is the persisted journal, when one is configured.
type Archive interface {
	Recent(ctx context.Context, limit int) ([]events.Event, error)
	CountByType(ctx context.Context) (map[string]int64, error)
}

// JournalHandler provides the diagnostics journal API.
type JournalHandler struct {
	eventLog *events.EventLog
	archive  Archive
	logger   *logger.Logger
}

// NewJournalHandler creates a journal handler. archive may be nil.
func NewJournalHandler(el *events.EventLog, archive Archive, log *logger.Logger) *JournalHandler {
	return &JournalHandler{
		eventLog: el,
		archive:  archive,
		logger:   log,
	}
}

// JournalResponse is the payload of /api/journal.
type JournalResponse struct {
	Source      string         `json:"source"`
	TotalEvents int            `json:"total_events"`
	FilteredBy  string         `json:"filtered_by,omitempty"`
	GeneratedAt string         `json:"generated_at"`
	Events      []events.Event `json:"events"`
}

// HandleJournal returns recent journal events.
// GET /api/journal?type=TIMER_ERROR&limit=N&source=archive
func (jh *JournalHandler) HandleJournal(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := defaultJournalLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			jsonError(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = min(n, maxJournalLimit)
	}
	eventType := events.EventType(r.URL.Query().Get("type"))

	source := "memory"
	var filtered []events.Event
	if r.URL.Query().Get("source") == "archive" {
		if jh.archive == nil {
			jsonError(w, "No journal archive configured", http.StatusNotFound)
			return
		}
		all, err := jh.archive.Recent(r.Context(), maxJournalLimit)
		if err != nil {
			jh.logger.Error("Failed to read journal archive: " + err.Error())
			jsonError(w, "Archive unavailable", http.StatusInternalServerError)
			return
		}
		source = "archive"
		filtered = ofType(all, eventType)
	} else if eventType != "" {
		filtered = jh.eventLog.ByType(eventType)
	} else {
		filtered = jh.eventLog.Recent(limit)
	}
	if len(filtered) > limit {
		filtered = filtered[len(filtered)-limit:]
	}
	if filtered == nil {
		filtered = []events.Event{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(JournalResponse{
		Source:      source,
		TotalEvents: len(filtered),
		FilteredBy:  string(eventType),
		GeneratedAt: time.Now().Format(time.RFC3339),
		Events:      filtered,
	})
}

// HandleStats returns per-type counts of the journal.
// GET /api/journal/stats
func (jh *JournalHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	memory := map[string]int64{}
	for _, e := range jh.eventLog.Replay() {
		memory[string(e.Type)]++
	}

	resp := map[string]interface{}{
		"generated_at":   time.Now().Format(time.RFC3339),
		"total_appended": humanize.Comma(jh.eventLog.Total()),
		"held":           humanize.Comma(int64(jh.eventLog.Len())),
		"memory":         memory,
	}
	if jh.archive != nil {
		archived, err := jh.archive.CountByType(r.Context())
		if err != nil {
			jh.logger.Error("Failed to count journal archive: " + err.Error())
		} else {
			resp["archive"] = archived
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// ofType keeps the events of type t, or all of them when t is empty.
func ofType(all []events.Event, t events.EventType) []events.Event {
	if t == "" {
		return all
	}
	out := make([]events.Event, 0, len(all))
	for _, e := range all {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// RegisterRoutes sets up the journal API routes.
func (jh *JournalHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/journal", jh.HandleJournal)
	mux.HandleFunc("/api/journal/stats", jh.HandleStats)
}

// jsonError sends an error response.
func jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
