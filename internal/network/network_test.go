package network

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/MRamiBalles/sinewave/internal/animation"
	"github.com/MRamiBalles/sinewave/internal/events"
	"github.com/MRamiBalles/sinewave/internal/platform/config"
	"github.com/MRamiBalles/sinewave/internal/platform/logger"
	"github.com/MRamiBalles/sinewave/internal/platform/metrics"
	"github.com/MRamiBalles/sinewave/internal/view"
)

type staticSnap struct {
	frame view.Frame
}

func (s staticSnap) Snapshot() view.Frame { return s.frame }

type fakeArchive struct {
	events []events.Event
	err    error
}

func (a fakeArchive) Recent(context.Context, int) ([]events.Event, error) {
	return a.events, a.err
}

func (a fakeArchive) CountByType(context.Context) (map[string]int64, error) {
	return map[string]int64{"TICK": int64(len(a.events))}, a.err
}

type server struct {
	hub     *Hub
	journal *events.EventLog
	metrics *metrics.Collector
	http    *httptest.Server
	cancel  context.CancelFunc
}

func newServer(t *testing.T, cfg *config.Config, archive Archive) *server {
	t.Helper()

	log := logger.New(io.Discard, io.Discard, logger.LevelError)
	m := metrics.NewCollector()
	hub := NewHub(cfg, log, m)
	journal := events.NewEventLog(16, 0, nil, nil)
	snap := staticSnap{frame: view.NewFrame(animation.State{Count: 3})}

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	mux := NewMux(hub, snap, NewJournalHandler(journal, archive, log), m, time.Now())
	s := &server{hub: hub, journal: journal, metrics: m, http: httptest.NewServer(mux), cancel: cancel}
	t.Cleanup(func() {
		cancel()
		s.http.Close()
	})
	return s
}

func (s *server) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(s.http.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) view.Frame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var f view.Frame
	line := bytes.SplitN(data, []byte{'\n'}, 2)[0]
	require.NoError(t, json.Unmarshal(line, &f))
	return f
}

func TestViewerReceivesSnapshotThenBroadcasts(t *testing.T) {
	s := newServer(t, config.DefaultConfig(), nil)
	conn := s.dial(t)

	first := readFrame(t, conn)
	require.Equal(t, uint64(3), first.Count)
	require.Len(t, first.Points, view.PointCount)

	require.Eventually(t, func() bool { return s.hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)
	s.hub.Publish(view.NewFrame(animation.State{Count: 7}))

	next := readFrame(t, conn)
	require.Equal(t, uint64(7), next.Count)
	require.Equal(t, view.ColorActive, next.Color)
}

func TestNewViewerContinuesFromLastBroadcast(t *testing.T) {
	s := newServer(t, config.DefaultConfig(), nil)

	// The snapshot still says 3; the hub has already fanned out 7.
	s.hub.Publish(view.NewFrame(animation.State{Count: 7}))
	require.Eventually(t, func() bool { return len(s.hub.broadcast) == 0 }, time.Second, 5*time.Millisecond)

	conn := s.dial(t)
	require.Equal(t, uint64(7), readFrame(t, conn).Count)
	require.Eventually(t, func() bool { return s.hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	s.hub.Publish(view.NewFrame(animation.State{Count: 8}))
	require.Equal(t, uint64(8), readFrame(t, conn).Count)
}

type failingWriter struct {
	header http.Header
}

func (w *failingWriter) Header() http.Header { return w.header }
func (w *failingWriter) WriteHeader(int) {}
func (w *failingWriter) Write([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestPageLogsRenderFailure(t *testing.T) {
	var logs bytes.Buffer
	handler := PageHandler(staticSnap{frame: view.NewFrame(animation.State{})}, logger.New(&logs, &logs, logger.LevelError))

	handler(&failingWriter{header: http.Header{}}, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Contains(t, logs.String(), "Failed to render page: ")
}

func TestBroadcastReachesEveryViewer(t *testing.T) {
	s := newServer(t, config.DefaultConfig(), nil)
	conns := []*websocket.Conn{s.dial(t), s.dial(t), s.dial(t)}
	for _, c := range conns {
		readFrame(t, c)
	}
	require.Eventually(t, func() bool { return s.hub.ClientCount() == 3 }, time.Second, 5*time.Millisecond)

	s.hub.Publish(view.NewFrame(animation.State{Count: 11}))
	for _, c := range conns {
		require.Equal(t, uint64(11), readFrame(t, c).Count)
	}
	require.Equal(t, int64(1), s.metrics.FramesPublished)
}

func TestViewerLimit(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.MaxClients = 1
	s := newServer(t, cfg, nil)

	first := s.dial(t)
	readFrame(t, first)
	require.Eventually(t, func() bool { return s.hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	second := s.dial(t)
	readFrame(t, second)
	second.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := second.ReadMessage()
	require.Error(t, err, "refused viewer should be closed after its first frame")
	require.Equal(t, 1, s.hub.ClientCount())
}

func TestDisconnectUnregisters(t *testing.T) {
	s := newServer(t, config.DefaultConfig(), nil)
	conn := s.dial(t)
	readFrame(t, conn)
	require.Eventually(t, func() bool { return s.hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return s.hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
}

func TestHubShutdownClosesViewers(t *testing.T) {
	s := newServer(t, config.DefaultConfig(), nil)
	conn := s.dial(t)
	readFrame(t, conn)
	require.Eventually(t, func() bool { return s.hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	s.cancel()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
}

func TestPublishDropsWhenQueueFull(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.BroadcastChannelBuffer = 1
	m := metrics.NewCollector()
	hub := NewHub(cfg, logger.New(io.Discard, io.Discard, logger.LevelError), m)

	// Run is not started, so the queue never drains.
	hub.Publish(view.NewFrame(animation.State{Count: 1}))
	hub.Publish(view.NewFrame(animation.State{Count: 2}))

	require.Equal(t, int64(1), m.FramesPublished)
	require.Equal(t, int64(1), m.FramesDropped)
}

func TestPageEmbedsCurrentFrame(t *testing.T) {
	s := newServer(t, config.DefaultConfig(), nil)

	resp, err := http.Get(s.http.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(body), view.NewFrame(animation.State{Count: 3}).HTML)
	require.Contains(t, string(body), `"/ws"`)

	resp, err = http.Get(s.http.URL + "/favicon.ico")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStateEndpoint(t *testing.T) {
	s := newServer(t, config.DefaultConfig(), nil)

	resp, err := http.Get(s.http.URL + "/api/state")
	require.NoError(t, err)
	defer resp.Body.Close()

	var got StateResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Equal(t, uint64(3), got.Frame.Count)
	require.Equal(t, view.ColorIdle, got.Frame.Color)
	require.NotEmpty(t, got.Uptime)
}

func getJournal(t *testing.T, url string) (int, JournalResponse) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	var got JournalResponse
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	}
	return resp.StatusCode, got
}

func TestJournalFilters(t *testing.T) {
	s := newServer(t, config.DefaultConfig(), nil)
	s.journal.Append(events.NewEvent(events.EventTypeMount, 0, ""))
	for i := uint64(1); i <= 4; i++ {
		s.journal.Append(events.NewEvent(events.EventTypeTick, i, ""))
	}
	s.journal.Append(events.NewEvent(events.EventTypeTimerError, 4, "timer failed: x"))

	code, got := getJournal(t, s.http.URL+"/api/journal")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "memory", got.Source)
	require.Equal(t, 6, got.TotalEvents)

	_, got = getJournal(t, s.http.URL+"/api/journal?type=TICK&limit=2")
	require.Len(t, got.Events, 2)
	require.Equal(t, uint64(3), got.Events[0].Count)
	require.Equal(t, uint64(4), got.Events[1].Count)

	_, got = getJournal(t, s.http.URL+"/api/journal?type=TIMER_ERROR")
	require.Len(t, got.Events, 1)
	require.Equal(t, "timer failed: x", got.Events[0].Detail)

	code, _ = getJournal(t, s.http.URL+"/api/journal?limit=zero")
	require.Equal(t, http.StatusBadRequest, code)

	code, _ = getJournal(t, s.http.URL+"/api/journal?source=archive")
	require.Equal(t, http.StatusNotFound, code)
}

func TestJournalArchive(t *testing.T) {
	archive := fakeArchive{events: []events.Event{events.NewEvent(events.EventTypeTick, 9, "")}}
	s := newServer(t, config.DefaultConfig(), archive)

	code, got := getJournal(t, s.http.URL+"/api/journal?source=archive")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "archive", got.Source)
	require.Equal(t, uint64(9), got.Events[0].Count)

	broken := newServer(t, config.DefaultConfig(), fakeArchive{err: errors.New("locked")})
	code, _ = getJournal(t, broken.http.URL+"/api/journal?source=archive")
	require.Equal(t, http.StatusInternalServerError, code)
}

func TestJournalStats(t *testing.T) {
	s := newServer(t, config.DefaultConfig(), fakeArchive{events: make([]events.Event, 2)})
	s.journal.Append(events.NewEvent(events.EventTypeTick, 1, ""))

	resp, err := http.Get(s.http.URL + "/api/journal/stats")
	require.NoError(t, err)
	defer resp.Body.Close()

	var got struct {
		Held    string           `json:"held"`
		Memory  map[string]int64 `json:"memory"`
		Archive map[string]int64 `json:"archive"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Equal(t, "1", got.Held)
	require.Equal(t, int64(1), got.Memory["TICK"])
	require.Equal(t, int64(2), got.Archive["TICK"])
}

func TestMetricsRoutes(t *testing.T) {
	s := newServer(t, config.DefaultConfig(), nil)

	resp, err := http.Get(s.http.URL + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.Contains(t, string(body), "sinewave_timer_arms_total")
}
