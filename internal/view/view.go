// Package view renders the animation state as a declarative SVG tree.
// Everything here is a pure function of animation.State.
package view

import (
	"math"
	"strconv"

	"github.com/MRamiBalles/sinewave/internal/animation"
)

// Canvas geometry.
const (
	PointCount   = 6
	CanvasWidth  = 640
	CanvasHeight = 240
	CircleRadius = 30
	Margin       = 15
	Amplitude    = 50
	Baseline     = 70
	Frequency    = 6
)

// Panel colours.
const (
	ColorActive = "purple"
	ColorIdle   = "gray"
)

// Point is one rendered circle and its label.
type Point struct {
	Index int     `json:"index"`
	Key   uint64  `json:"key"`
	Pos   float64 `json:"pos"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// Points derives the six points for s.
func Points(s animation.State) []Point {
	points := make([]Point, 0, PointCount)
	step := float64(s.Count%10) / 10 / PointCount

	for i := 0; i < PointCount; i++ {
		pos := float64(i)/PointCount + step
		points = append(points, Point{
			Index: i,
			Key:   uint64(PointCount-i) + s.Count/10,
			Pos:   pos,
			X:     Margin + pos*CanvasWidth,
			Y:     Margin + math.Sin(pos*Frequency)*Amplitude + Baseline,
		})
	}
	return points
}

// PanelColor is purple once the counter has passed 4.
func PanelColor(s animation.State) string {
	if s.Count > 4 {
		return ColorActive
	}
	return ColorIdle
}

// Render builds the full page body for s.
func Render(s animation.State) Node {
	canvas := El("svg").
		With("width", strconv.Itoa(CanvasWidth)).
		With("height", strconv.Itoa(CanvasHeight))
	for _, p := range Points(s) {
		canvas.Children = append(canvas.Children, renderPoint(p))
	}

	panel := El("div",
		El("h3", Text(strconv.FormatUint(s.Count, 10))),
		canvas,
	).
		WithStyle("color", PanelColor(s)).
		WithStyle("border", "2px solid #004422").
		WithStyle("padding", "20px")

	return El("div",
		El("h1", Text("Animation")),
		panel,
	).
		WithStyle("display", "flex").
		WithStyle("flex-direction", "column").
		WithStyle("text-align", "center")
}

func renderPoint(p Point) Node {
	x, y := formatCoord(p.X), formatCoord(p.Y)

	circle := El("circle").
		With("cx", x).
		With("cy", y).
		With("r", strconv.Itoa(CircleRadius)).
		With("stroke", "blue").
		With("fill", "none").
		WithStyle("transition", "all 0.2s ease-in-out")

	label := El("text", Text(strconv.FormatUint(p.Key, 10))).
		With("x", x).
		With("y", y).
		With("text-anchor", "middle").
		With("dominant-baseline", "middle")

	return El("g", circle, label)
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
