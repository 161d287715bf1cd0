// Package main - sinewave-window
// Runs the animation engine in-process and draws it in a native window.
package main

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"os"
	"strconv"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"

	"github.com/MRamiBalles/sinewave/internal/engine"
	"github.com/MRamiBalles/sinewave/internal/events"
	"github.com/MRamiBalles/sinewave/internal/platform/logger"
	"github.com/MRamiBalles/sinewave/internal/platform/metrics"
	"github.com/MRamiBalles/sinewave/internal/preview"
	"github.com/MRamiBalles/sinewave/internal/view"
)

const (
	headerHeight = 60
	panelPadding = 20
	windowWidth  = view.CanvasWidth + 2*panelPadding
	windowHeight = view.CanvasHeight + headerHeight + 2*panelPadding
)

var background = color.RGBA{R: 250, G: 250, B: 250, A: 255}

type game struct {
	store *preview.Store
}

func (g *game) Update() error {
	if ebiten.IsKeyPressed(ebiten.KeyEscape) || ebiten.IsKeyPressed(ebiten.KeyQ) {
		return ebiten.Termination
	}
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	screen.Fill(background)

	frame, n := g.store.Frame()
	if n == 0 {
		ebitenutil.DebugPrintAt(screen, "Mounting...", 12, 12)
		return
	}

	panel := preview.PanelColor(frame.Color)
	ebitenutil.DebugPrintAt(screen, "Animation", 12, 12)
	ebitenutil.DebugPrintAt(screen, "Count: "+strconv.FormatUint(frame.Count, 10), 12, 32)
	vector.DrawFilledRect(screen, 0, headerHeight-4, windowWidth, 4, panel, false)
	vector.StrokeRect(screen, 1, headerHeight, windowWidth-2, windowHeight-headerHeight-1, 2, preview.BorderColor(), false)

	for _, c := range g.store.Circles() {
		x := float32(c.X + panelPadding)
		y := float32(c.Y + headerHeight + panelPadding)
		vector.StrokeCircle(screen, x, y, view.CircleRadius, 2, preview.StrokeColor(), true)

		label := strconv.FormatUint(c.Label, 10)
		// The debug font is 6x16 pixels per glyph.
		ebitenutil.DebugPrintAt(screen, label, int(x)-3*len(label), int(y)-8)
	}

	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("frames %d  tps %.0f", n, ebiten.ActualTPS()), windowWidth-150, 12)
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return windowWidth, windowHeight
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cpuProfile bool

	cmd := &cobra.Command{
		Use:          "sinewave-window",
		Short:        "Draw the sine-wave animation in a native window",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cpuProfile {
				defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
			}
			return run(cmd.Context())
		},
	}
	cmd.Flags().BoolVar(&cpuProfile, "profile", false, "write a cpu profile to the working directory")
	return cmd
}

func run(ctx context.Context) error {
	log := logger.NewLogger()
	store := preview.NewStore()

	eng := engine.NewEngine(events.NewEventLog(256, 0, nil, nil), log, engine.TimerScheduler{}, metrics.NewCollector())
	eng.AddPublisher(store)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- eng.Run(ctx) }()

	ebiten.SetWindowSize(windowWidth, windowHeight)
	ebiten.SetWindowTitle("Sine Wave - Esc/Q: Quit")

	err := ebiten.RunGame(&game{store: store})
	cancel()
	if engErr := <-done; engErr != nil {
		return engErr
	}
	if err != nil && !errors.Is(err, ebiten.Termination) {
		return err
	}
	return nil
}
