package view

import "github.com/MRamiBalles/sinewave/internal/animation"

// Frame is one render of the state, in the form pushed to viewers.
type Frame struct {
	Count  uint64  `json:"count"`
	Color  string  `json:"color"`
	Points []Point `json:"points"`
	HTML   string  `json:"html"`
}

// NewFrame renders s.
func NewFrame(s animation.State) Frame {
	return Frame{
		Count:  s.Count,
		Color:  PanelColor(s),
		Points: Points(s),
		HTML:   Render(s).HTML(),
	}
}
