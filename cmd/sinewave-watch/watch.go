package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/websocket"

	"github.com/MRamiBalles/sinewave/internal/animation"
	"github.com/MRamiBalles/sinewave/internal/view"
)

// Config for the watcher.
type Config struct {
	ServerURL  string
	NumClients int
	Duration   time.Duration
}

// Stats tracks what the viewers saw.
type Stats struct {
	FramesReceived int64
	Gaps           int64 // frames whose count skipped ahead of the previous one
	Regressions    int64 // frames whose count did not advance (other than the first)
	Errors         int64
	Intervals      []time.Duration
	mu             sync.Mutex
}

// Watch runs the viewers until ctx ends.
func Watch(ctx context.Context, cfg Config) *Stats {
	stats := &Stats{}

	var wg sync.WaitGroup
	for i := 0; i < cfg.NumClients; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runViewer(ctx, cfg.ServerURL, stats)
		}()
	}
	wg.Wait()
	return stats
}

func runViewer(ctx context.Context, url string, stats *Stats) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		atomic.AddInt64(&stats.Errors, 1)
		return
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		conn.Close()
	}()

	var (
		last     uint64
		lastAt   time.Time
		haveLast bool
	)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				atomic.AddInt64(&stats.Errors, 1)
			}
			return
		}

		for _, line := range bytes.Split(data, []byte{'\n'}) {
			var f view.Frame
			if err := json.Unmarshal(line, &f); err != nil {
				atomic.AddInt64(&stats.Errors, 1)
				continue
			}
			atomic.AddInt64(&stats.FramesReceived, 1)

			now := time.Now()
			if haveLast {
				stats.observe(last, f.Count, now.Sub(lastAt))
			}
			last, lastAt, haveLast = f.Count, now, true
		}
	}
}

// observe classifies one transition between consecutive frames.
func (s *Stats) observe(prev, next uint64, interval time.Duration) {
	switch {
	case next == expectedNext(prev):
	case next == prev:
		// A timer error re-renders the same count.
	case next < prev:
		atomic.AddInt64(&s.Regressions, 1)
	default:
		atomic.AddInt64(&s.Gaps, 1)
	}

	s.mu.Lock()
	s.Intervals = append(s.Intervals, interval)
	s.mu.Unlock()
}

func expectedNext(prev uint64) uint64 {
	if prev == animation.MaxCount {
		return 0
	}
	return prev + 1
}

func printHeader(w io.Writer, cfg Config) {
	fmt.Fprintln(w, "=========================================")
	fmt.Fprintln(w, "SINEWAVE WATCH")
	fmt.Fprintln(w, "=========================================")
	fmt.Fprintf(w, "Server:   %s\n", cfg.ServerURL)
	fmt.Fprintf(w, "Viewers:  %d\n", cfg.NumClients)
	fmt.Fprintf(w, "Duration: %v\n", cfg.Duration)
	fmt.Fprintln(w, "=========================================")
}

// printResults writes the summary and fails when any viewer saw frames out of order.
func printResults(w io.Writer, stats *Stats, cfg Config) error {
	frames := atomic.LoadInt64(&stats.FramesReceived)
	gaps := atomic.LoadInt64(&stats.Gaps)
	regressions := atomic.LoadInt64(&stats.Regressions)
	errs := atomic.LoadInt64(&stats.Errors)

	fmt.Fprintf(w, "Frames received: %s\n", humanize.Comma(frames))
	fmt.Fprintf(w, "Gaps:            %d\n", gaps)
	fmt.Fprintf(w, "Regressions:     %d\n", regressions)
	fmt.Fprintf(w, "Errors:          %d\n", errs)

	stats.mu.Lock()
	if len(stats.Intervals) > 0 {
		var total time.Duration
		lo, hi := stats.Intervals[0], stats.Intervals[0]
		for _, d := range stats.Intervals {
			total += d
			lo = min(lo, d)
			hi = max(hi, d)
		}
		fmt.Fprintf(w, "\nFrame interval:\n")
		fmt.Fprintf(w, "  Min: %v\n", lo.Round(time.Millisecond))
		fmt.Fprintf(w, "  Avg: %v\n", (total / time.Duration(len(stats.Intervals))).Round(time.Millisecond))
		fmt.Fprintf(w, "  Max: %v\n", hi.Round(time.Millisecond))
	}
	stats.mu.Unlock()

	fmt.Fprintln(w, "-----------------------------------------")
	switch {
	case errs > 0 && frames == 0:
		fmt.Fprintln(w, "FAILED: no viewer could connect")
		return errors.New("no frames received")
	case gaps > 0 || regressions > 0:
		fmt.Fprintln(w, "FAILED: frames arrived out of order")
		return fmt.Errorf("%d gaps, %d regressions across %d viewers", gaps, regressions, cfg.NumClients)
	default:
		fmt.Fprintln(w, "PASSED: every viewer saw the counter advance one step per frame")
		return nil
	}
}
