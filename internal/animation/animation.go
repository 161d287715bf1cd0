// Package animation holds the state of the sine-wave animation and the reducer
// that advances it.
//
// ARCHITECTURAL RULE: Update is pure. It never touches timers or loggers; it
// returns Effects and the engine carries them out.
package animation

import (
	"math"
	"time"
)

// TickInterval is the fixed delay between two ticks.
const TickInterval = 500 * time.Millisecond

// MaxCount is the largest value Count reaches before wrapping to 0.
const MaxCount uint64 = math.MaxUint64

// State is the whole animation state.
type State struct {
	Count uint64 `json:"count"`
}

// Msg is a message fed into Update.
type Msg interface {
	isMsg()
}

// TickMsg signals that the timer interval has elapsed.
type TickMsg struct{}

// ErrorMsg carries the description of a timer failure.
type ErrorMsg struct {
	Text string
}

func (TickMsg) isMsg()  {}
func (ErrorMsg) isMsg() {}

// Effect is a side effect requested by Update.
type Effect interface {
	isEffect()
}

// ArmTimer asks for exactly one timer completion after Delay.
type ArmTimer struct {
	Delay time.Duration
}

// LogError asks for Text to be written to the diagnostics sink.
type LogError struct {
	Text string
}

func (ArmTimer) isEffect() {}
func (LogError) isEffect() {}

// Init returns the mount state and the first timer arm.
func Init() (State, []Effect) {
	return State{Count: 0}, []Effect{ArmTimer{Delay: TickInterval}}
}

// Update computes the next state for msg. Every branch re-arms the timer
// exactly once, including the error branch, so a failed timer never stalls
// the animation.
func Update(s State, msg Msg) (State, []Effect) {
	var effects []Effect

	switch m := msg.(type) {
	case TickMsg:
		s = s.next()
	case ErrorMsg:
		effects = append(effects, LogError{Text: m.Text})
	}

	return s, append(effects, ArmTimer{Delay: TickInterval})
}

// next advances the counter, wrapping to 0 at MaxCount.
func (s State) next() State {
	if s.Count < MaxCount {
		s.Count++
	} else {
		s.Count = 0
	}
	return s
}
