// Package engine runs the animation loop: timer -> reducer -> render -> publish.
//
// ARCHITECTURAL RULE: one goroutine owns the state and handles messages one at
// a time. At most one timer is ever in flight; only the effects returned by
// animation.Update arm a new one.
package engine

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/MRamiBalles/sinewave/internal/animation"
	"github.com/MRamiBalles/sinewave/internal/events"
	"github.com/MRamiBalles/sinewave/internal/platform/logger"
	"github.com/MRamiBalles/sinewave/internal/platform/metrics"
	"github.com/MRamiBalles/sinewave/internal/view"
)

// Publisher receives every rendered frame. Publish is called from the loop
// goroutine and must not block.
type Publisher interface {
	Publish(frame view.Frame)
}

// Engine is the central orchestrator wiring the timer, reducer and renderer.
type Engine struct {
	journal   *events.EventLog
	logger    *logger.Logger
	metrics   *metrics.Collector
	scheduler Scheduler

	publishers []Publisher
	msgs       chan animation.Msg

	mu    sync.RWMutex
	state animation.State
	frame view.Frame
}

// NewEngine builds an engine. Nothing runs until Run is called.
func NewEngine(journal *events.EventLog, log *logger.Logger, scheduler Scheduler, m *metrics.Collector) *Engine {
	return &Engine{
		journal:   journal,
		logger:    log,
		metrics:   m,
		scheduler: scheduler,
		// One slot is enough: only one timer is ever in flight.
		msgs: make(chan animation.Msg, 1),
	}
}

// AddPublisher registers a frame consumer. Call before Run.
func (e *Engine) AddPublisher(p Publisher) {
	e.publishers = append(e.publishers, p)
}

// Run mounts the animation and processes messages until ctx ends.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Info("Animation engine started.")

	start := time.Now()
	state, effects := animation.Init()
	e.commit(ctx, state, effects, events.EventTypeMount, "", start)

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("Animation engine stopped by context.")
			return nil
		case msg := <-e.msgs:
			e.handle(ctx, msg)
		}
	}
}

// State returns the current animation state.
func (e *Engine) State() animation.State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// Snapshot returns the last rendered frame.
func (e *Engine) Snapshot() view.Frame {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.frame
}

// handle processes a single message.
func (e *Engine) handle(ctx context.Context, msg animation.Msg) {
	start := time.Now()

	eventType, detail := events.EventTypeTick, ""
	switch m := msg.(type) {
	case animation.TickMsg:
		e.metrics.RecordTimerFire()
	case animation.ErrorMsg:
		e.metrics.RecordTimerError()
		eventType, detail = events.EventTypeTimerError, m.Text
	}

	state, effects := animation.Update(e.State(), msg)
	e.commit(ctx, state, effects, eventType, detail, start)
}

// commit stores the new state, renders and publishes it, then carries out the
// reducer's effects.
func (e *Engine) commit(ctx context.Context, state animation.State, effects []animation.Effect, eventType events.EventType, detail string, start time.Time) {
	frame := view.NewFrame(state)

	e.mu.Lock()
	e.state = state
	e.frame = frame
	e.mu.Unlock()

	for _, p := range e.publishers {
		p.Publish(frame)
	}
	e.metrics.RecordRender(time.Since(start))

	e.journal.Append(events.NewEvent(eventType, state.Count, detail))
	e.logger.Event(string(eventType), "ENGINE", "count="+strconv.FormatUint(state.Count, 10))

	for _, effect := range effects {
		switch eff := effect.(type) {
		case animation.LogError:
			e.logger.Error("Animation timer error: " + eff.Text)
		case animation.ArmTimer:
			e.arm(ctx, eff.Delay)
		}
	}
}

// arm starts one timer wait and turns its outcome into exactly one message.
// Cancellation of ctx is shutdown and produces no message.
func (e *Engine) arm(ctx context.Context, d time.Duration) {
	e.metrics.RecordTimerArm()

	go func() {
		err := e.scheduler.Wait(ctx, d)
		if ctx.Err() != nil {
			return
		}

		var msg animation.Msg = animation.TickMsg{}
		if err != nil {
			msg = animation.ErrorMsg{Text: fmt.Errorf("%w: %v", ErrTimerFailed, err).Error()}
		}

		select {
		case e.msgs <- msg:
		case <-ctx.Done():
		}
	}()
}
