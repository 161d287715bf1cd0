package engine

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrTimerFailed wraps every failure of the timer source.
var ErrTimerFailed = errors.New("timer failed")

// Scheduler is the timer source. Wait blocks until d has elapsed and never
// returns early. It returns ctx.Err() when ctx ends first, or another error
// when the delay cannot be scheduled at all.
type Scheduler interface {
	Wait(ctx context.Context, d time.Duration) error
}

// TimerScheduler is the time.Timer backed Scheduler.
type TimerScheduler struct{}

// Wait arms a one-shot timer. It does not repeat; the engine re-arms it.
func (TimerScheduler) Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("cannot schedule non-positive delay %v", d)
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
