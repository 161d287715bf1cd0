package view

import (
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/MRamiBalles/sinewave/internal/animation"
)

func TestPointsFollowWave(t *testing.T) {
	for _, count := range []uint64{0, 1, 5, 9, 10, 11, 99, 1000, 123457, animation.MaxCount} {
		points := Points(animation.State{Count: count})
		require.Len(t, points, PointCount)

		for i, p := range points {
			pos := float64(i)/6 + float64(count%10)/10/6
			require.Equal(t, i, p.Index)
			require.Equal(t, uint64(6-i)+count/10, p.Key)
			require.InDelta(t, pos, p.Pos, 1e-12)
			require.InDelta(t, 15+pos*640, p.X, 1e-9)
			require.InDelta(t, 15+math.Sin(pos*6)*50+70, p.Y, 1e-9)
		}
	}
}

func TestPointsKnownValues(t *testing.T) {
	p := Points(animation.State{Count: 0})[0]
	require.Equal(t, uint64(6), p.Key)
	require.Equal(t, 0.0, p.Pos)
	require.Equal(t, 15.0, p.X)
	require.Equal(t, 85.0, p.Y)

	p = Points(animation.State{Count: 10})[0]
	require.Equal(t, uint64(7), p.Key)
	require.Equal(t, 0.0, p.Pos)
	require.Equal(t, 15.0, p.X)
	require.Equal(t, 85.0, p.Y)
}

func TestPanelColorBoundary(t *testing.T) {
	require.Equal(t, ColorIdle, PanelColor(animation.State{Count: 0}))
	require.Equal(t, ColorIdle, PanelColor(animation.State{Count: 4}))
	require.Equal(t, ColorActive, PanelColor(animation.State{Count: 5}))
	require.Equal(t, ColorActive, PanelColor(animation.State{Count: 500}))
}

func TestRenderLayout(t *testing.T) {
	root := Render(animation.State{Count: 5})

	display, _ := root.StyleValue("display")
	direction, _ := root.StyleValue("flex-direction")
	require.Equal(t, "flex", display)
	require.Equal(t, "column", direction)

	require.Len(t, root.Find("h1"), 1)
	require.Equal(t, "Animation", root.Find("h1")[0].Children[0].Text)
	require.Equal(t, "5", root.Find("h3")[0].Children[0].Text)

	panel := root.Children[1]
	color, _ := panel.StyleValue("color")
	require.Equal(t, ColorActive, color)

	svgs := root.Find("svg")
	require.Len(t, svgs, 1)
	w, _ := svgs[0].Attr("width")
	h, _ := svgs[0].Attr("height")
	require.Equal(t, "640", w)
	require.Equal(t, "240", h)

	require.Len(t, root.Find("circle"), PointCount)
	require.Len(t, root.Find("text"), PointCount)
	for _, c := range root.Find("circle") {
		r, _ := c.Attr("r")
		stroke, _ := c.Attr("stroke")
		fill, _ := c.Attr("fill")
		require.Equal(t, "30", r)
		require.Equal(t, "blue", stroke)
		require.Equal(t, "none", fill)
	}
}

func TestRenderIsIdempotent(t *testing.T) {
	s := animation.State{Count: 42}
	if diff := cmp.Diff(Render(s), Render(s)); diff != "" {
		t.Errorf("Render not idempotent (-first +second):\n%s", diff)
	}
	require.Equal(t, Render(s).HTML(), Render(s).HTML())
}

func TestRenderChangesWithColor(t *testing.T) {
	diff := cmp.Diff(Render(animation.State{Count: 4}), Render(animation.State{Count: 5}))
	require.NotEmpty(t, diff)
	require.Contains(t, diff, "purple")
}

func TestPointMarkup(t *testing.T) {
	got := renderPoint(Points(animation.State{Count: 0})[0]).HTML()
	want := `<g><circle cx="15" cy="85" r="30" stroke="blue" fill="none" style="transition: all 0.2s ease-in-out"></circle>` +
		`<text x="15" y="85" text-anchor="middle" dominant-baseline="middle">6</text></g>`
	require.Equal(t, want, got)
}

func TestNodeEscapesText(t *testing.T) {
	n := El("p", Text(`<b>&"`)).With("title", `a"b`)
	require.Equal(t, `<p title="a&#34;b">&lt;b&gt;&amp;&#34;</p>`, n.HTML())
}

func TestWithDoesNotAlias(t *testing.T) {
	base := El("div").With("a", "1")
	left := base.With("b", "2")
	right := base.With("c", "3")
	require.Len(t, base.Attrs, 1)
	require.Equal(t, "b", left.Attrs[1].Name)
	require.Equal(t, "c", right.Attrs[1].Name)
}

func TestNewFrame(t *testing.T) {
	f := NewFrame(animation.State{Count: 3})
	require.Equal(t, uint64(3), f.Count)
	require.Equal(t, ColorIdle, f.Color)
	require.Len(t, f.Points, PointCount)
	require.True(t, strings.HasPrefix(f.HTML, `<div style="display: flex; flex-direction: column; text-align: center">`))
	require.Equal(t, 6, strings.Count(f.HTML, "<circle"))
}
