// Package preview keeps the latest frame for a native renderer and eases
// circles between frames the way the browser's CSS transition does.
package preview

import (
	"image/color"
	"sync"
	"time"

	"github.com/MRamiBalles/sinewave/internal/view"
)

// TransitionDuration matches the circles' CSS transition.
const TransitionDuration = 200 * time.Millisecond

var (
	colorActive = color.RGBA{R: 128, B: 128, A: 255}
	colorIdle   = color.RGBA{R: 128, G: 128, B: 128, A: 255}
	colorStroke = color.RGBA{B: 255, A: 255}
	colorBorder = color.RGBA{G: 0x44, B: 0x22, A: 255}
)

// PanelColor maps a frame colour name to RGBA.
func PanelColor(name string) color.RGBA {
	if name == view.ColorActive {
		return colorActive
	}
	return colorIdle
}

// StrokeColor is the circle outline colour.
func StrokeColor() color.RGBA { return colorStroke }

// BorderColor is the panel border colour.
func BorderColor() color.RGBA { return colorBorder }

// Circle is one circle as it should be drawn right now.
type Circle struct {
	X, Y  float64
	Label uint64
}

// Store implements engine.Publisher. The engine writes from its loop and the
// renderer reads on its own tick.
type Store struct {
	mu     sync.RWMutex
	frame  view.Frame
	from   []view.Point
	since  time.Time
	frames int64
	now    func() time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{now: time.Now}
}

// Publish records f as the target and starts easing from where the circles
// are drawn at this moment.
func (s *Store) Publish(f view.Frame) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.frames > 0 {
		s.from = s.positionsLocked(now)
	}
	s.frame = f
	s.since = now
	s.frames++
}

// Frame returns the latest frame and how many have been published.
func (s *Store) Frame() (view.Frame, int64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frame, s.frames
}

// Circles returns the circles to draw now.
func (s *Store) Circles() []Circle {
	now := s.now()
	s.mu.RLock()
	defer s.mu.RUnlock()

	pts := s.positionsLocked(now)
	out := make([]Circle, len(pts))
	for i, p := range pts {
		out[i] = Circle{X: p.X, Y: p.Y, Label: s.frame.Points[i].Key}
	}
	return out
}

func (s *Store) positionsLocked(now time.Time) []view.Point {
	target := s.frame.Points
	if len(s.from) != len(target) {
		return target
	}

	t := float64(now.Sub(s.since)) / float64(TransitionDuration)
	if t >= 1 {
		return target
	}
	t = easeInOut(max(t, 0))

	out := make([]view.Point, len(target))
	for i, p := range target {
		out[i] = p
		out[i].X = lerp(s.from[i].X, p.X, t)
		out[i].Y = lerp(s.from[i].Y, p.Y, t)
	}
	return out
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }

// easeInOut approximates CSS ease-in-out with a smoothstep.
func easeInOut(t float64) float64 {
	return t * t * (3 - 2*t)
}
