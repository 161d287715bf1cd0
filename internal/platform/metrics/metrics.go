// Package metrics provides observability for the animation loop.
// The loop's bookkeeping invariant is visible here: every timer arm ends in
// exactly one fire or one error, and every handled message produces one render.
package metrics

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Collector gathers loop and transport counters.
type Collector struct {
	// Loop metrics
	TimerArms      int64
	TimerFires     int64
	TimerErrors    int64
	Renders        int64
	TickLatencySum int64 // nanoseconds spent handling a message
	TickLatencyMax int64
	LastTickTime   time.Time

	// Fan-out metrics
	FramesPublished int64
	FramesDropped   int64

	// WebSocket metrics
	WSConnectionsActive int64
	WSMessagesOut       int64
	WSErrors            int64

	// Journal metrics
	JournalWrites      int64
	JournalWriteErrors int64
	JournalDropped     int64

	StartTime time.Time
	mu        sync.RWMutex
}

// Global collector instance
var collector = NewCollector()

// Get returns the global collector.
func Get() *Collector {
	return collector
}

// NewCollector returns an empty collector started now.
func NewCollector() *Collector {
	return &Collector{StartTime: time.Now()}
}

// RecordTimerArm records one timer being armed.
func (c *Collector) RecordTimerArm() {
	atomic.AddInt64(&c.TimerArms, 1)
}

// RecordTimerFire records a timer completing normally.
func (c *Collector) RecordTimerFire() {
	atomic.AddInt64(&c.TimerFires, 1)
}

// RecordTimerError records a timer that failed instead of firing.
func (c *Collector) RecordTimerError() {
	atomic.AddInt64(&c.TimerErrors, 1)
}

// RecordRender records a render and how long handling the message took.
func (c *Collector) RecordRender(latency time.Duration) {
	atomic.AddInt64(&c.Renders, 1)
	atomic.AddInt64(&c.TickLatencySum, int64(latency))

	// Update max (non-atomic but acceptable for metrics)
	if int64(latency) > atomic.LoadInt64(&c.TickLatencyMax) {
		atomic.StoreInt64(&c.TickLatencyMax, int64(latency))
	}

	c.mu.Lock()
	c.LastTickTime = time.Now()
	c.mu.Unlock()
}

// RecordFrame records a frame handed to the hub, or dropped before it.
func (c *Collector) RecordFrame(dropped bool) {
	if dropped {
		atomic.AddInt64(&c.FramesDropped, 1)
	} else {
		atomic.AddInt64(&c.FramesPublished, 1)
	}
}

// RecordWSConnection records WebSocket connection changes.
func (c *Collector) RecordWSConnection(delta int64) {
	atomic.AddInt64(&c.WSConnectionsActive, delta)
}

// RecordWSMessage records an outgoing WebSocket message.
func (c *Collector) RecordWSMessage() {
	atomic.AddInt64(&c.WSMessagesOut, 1)
}

// RecordWSError records a WebSocket error.
func (c *Collector) RecordWSError() {
	atomic.AddInt64(&c.WSErrors, 1)
}

// RecordJournalWrite records a journal write to the database.
func (c *Collector) RecordJournalWrite(err error) {
	atomic.AddInt64(&c.JournalWrites, 1)
	if err != nil {
		atomic.AddInt64(&c.JournalWriteErrors, 1)
	}
}

// RecordJournalDrop records an entry dropped because the writer queue was full.
func (c *Collector) RecordJournalDrop() {
	atomic.AddInt64(&c.JournalDropped, 1)
}

// Snapshot returns current metrics as a map.
func (c *Collector) Snapshot() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	renders := atomic.LoadInt64(&c.Renders)

	var tickAvg float64
	if renders > 0 {
		tickAvg = float64(atomic.LoadInt64(&c.TickLatencySum)) / float64(renders) / 1e6 // ms
	}

	return map[string]interface{}{
		"uptime_seconds": time.Since(c.StartTime).Seconds(),

		"loop": map[string]interface{}{
			"timer_arms":     atomic.LoadInt64(&c.TimerArms),
			"timer_fires":    atomic.LoadInt64(&c.TimerFires),
			"timer_errors":   atomic.LoadInt64(&c.TimerErrors),
			"renders":        renders,
			"avg_latency_ms": tickAvg,
			"max_latency_ms": float64(atomic.LoadInt64(&c.TickLatencyMax)) / 1e6,
			"last_tick":      c.LastTickTime.Format(time.RFC3339),
		},

		"frames": map[string]interface{}{
			"published": atomic.LoadInt64(&c.FramesPublished),
			"dropped":   atomic.LoadInt64(&c.FramesDropped),
		},

		"websocket": map[string]interface{}{
			"active_connections": atomic.LoadInt64(&c.WSConnectionsActive),
			"messages_out":       atomic.LoadInt64(&c.WSMessagesOut),
			"errors":             atomic.LoadInt64(&c.WSErrors),
		},

		"journal": map[string]interface{}{
			"written": atomic.LoadInt64(&c.JournalWrites),
			"errors":  atomic.LoadInt64(&c.JournalWriteErrors),
			"dropped": atomic.LoadInt64(&c.JournalDropped),
		},
	}
}

// Handler returns an HTTP handler serving the snapshot as JSON.
func (c *Collector) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache")
		json.NewEncoder(w).Encode(c.Snapshot())
	}
}

// PrometheusHandler returns metrics in Prometheus format.
func (c *Collector) PrometheusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		counter(w, "sinewave_timer_arms_total", "Timers armed", atomic.LoadInt64(&c.TimerArms))
		counter(w, "sinewave_timer_fires_total", "Timers that fired", atomic.LoadInt64(&c.TimerFires))
		counter(w, "sinewave_timer_errors_total", "Timers that failed", atomic.LoadInt64(&c.TimerErrors))
		counter(w, "sinewave_renders_total", "Views rendered", atomic.LoadInt64(&c.Renders))

		fmt.Fprintf(w, "# HELP sinewave_tick_latency_max_ms Maximum message handling latency\n")
		fmt.Fprintf(w, "# TYPE sinewave_tick_latency_max_ms gauge\n")
		fmt.Fprintf(w, "sinewave_tick_latency_max_ms %.2f\n\n", float64(atomic.LoadInt64(&c.TickLatencyMax))/1e6)

		fmt.Fprintf(w, "# HELP sinewave_frames_total Frames handed to viewers\n")
		fmt.Fprintf(w, "# TYPE sinewave_frames_total counter\n")
		fmt.Fprintf(w, "sinewave_frames_total{outcome=\"published\"} %d\n", atomic.LoadInt64(&c.FramesPublished))
		fmt.Fprintf(w, "sinewave_frames_total{outcome=\"dropped\"} %d\n\n", atomic.LoadInt64(&c.FramesDropped))

		fmt.Fprintf(w, "# HELP sinewave_ws_connections Active WebSocket connections\n")
		fmt.Fprintf(w, "# TYPE sinewave_ws_connections gauge\n")
		fmt.Fprintf(w, "sinewave_ws_connections %d\n\n", atomic.LoadInt64(&c.WSConnectionsActive))

		counter(w, "sinewave_ws_messages_out_total", "WebSocket messages written", atomic.LoadInt64(&c.WSMessagesOut))
		counter(w, "sinewave_ws_errors_total", "WebSocket errors", atomic.LoadInt64(&c.WSErrors))
		counter(w, "sinewave_journal_writes_total", "Journal entries written", atomic.LoadInt64(&c.JournalWrites))
		counter(w, "sinewave_journal_write_errors_total", "Journal write errors", atomic.LoadInt64(&c.JournalWriteErrors))
		counter(w, "sinewave_journal_dropped_total", "Journal entries dropped", atomic.LoadInt64(&c.JournalDropped))
	}
}

func counter(w http.ResponseWriter, name, help string, v int64) {
	fmt.Fprintf(w, "# HELP %s %s\n", name, help)
	fmt.Fprintf(w, "# TYPE %s counter\n", name)
	fmt.Fprintf(w, "%s %d\n\n", name, v)
}
