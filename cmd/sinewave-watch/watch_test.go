package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/MRamiBalles/sinewave/internal/animation"
	"github.com/MRamiBalles/sinewave/internal/view"
)

func TestObserveClassifiesTransitions(t *testing.T) {
	s := &Stats{}
	s.observe(1, 2, time.Millisecond)
	s.observe(2, 2, time.Millisecond)
	s.observe(animation.MaxCount, 0, time.Millisecond)
	s.observe(2, 5, time.Millisecond)
	s.observe(5, 3, time.Millisecond)

	require.Equal(t, int64(1), s.Gaps)
	require.Equal(t, int64(1), s.Regressions)
	require.Len(t, s.Intervals, 5)
}

// frameServer streams the given counts to every viewer, then holds the
// connection open until the test ends.
func frameServer(t *testing.T, counts []uint64) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for _, c := range counts {
			data, _ := json.Marshal(view.NewFrame(animation.State{Count: c}))
			if conn.WriteMessage(websocket.TextMessage, data) != nil {
				return
			}
		}
		conn.ReadMessage()
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestWatchPassesOrderedStream(t *testing.T) {
	cfg := Config{ServerURL: frameServer(t, []uint64{4, 5, 6, 6, 7}), NumClients: 2}
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	stats := Watch(ctx, cfg)
	require.Equal(t, int64(10), stats.FramesReceived)

	var out bytes.Buffer
	require.NoError(t, printResults(&out, stats, cfg))
	require.Contains(t, out.String(), "PASSED")
}

func TestWatchFailsOnGap(t *testing.T) {
	cfg := Config{ServerURL: frameServer(t, []uint64{1, 2, 4}), NumClients: 1}
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	stats := Watch(ctx, cfg)
	var out bytes.Buffer
	require.Error(t, printResults(&out, stats, cfg))
	require.Contains(t, out.String(), "out of order")
}

func TestWatchReportsUnreachableServer(t *testing.T) {
	cfg := Config{ServerURL: "ws://127.0.0.1:1/ws", NumClients: 1}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	stats := Watch(ctx, cfg)
	require.Equal(t, int64(1), stats.Errors)
	require.Error(t, printResults(&bytes.Buffer{}, stats, cfg))
}
