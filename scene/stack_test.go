package scene

import (
	"image"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/NathanBaulch/gifstack"
)

func ids(layers []*Layer) []string {
	s := make([]string, len(layers))
	for i, l := range layers {
		s[i] = l.ID
	}
	return s
}

func newStack(n int) *Stack {
	s := &Stack{}
	for i := 0; i < n; i++ {
		s.Add(&Layer{Name: "l", Visible: true, Scale: 1, Opacity: 1})
	}
	return s
}

func TestStackAdd(t *testing.T) {
	s := newStack(3)
	require.Equal(t, 3, s.Len())
	require.Equal(t, []string{"layer-1", "layer-2", "layer-3"}, ids(s.Layers()))
	for i, l := range s.Layers() {
		require.Equal(t, i, l.Z)
	}

	require.NoError(t, s.Remove("layer-2"))
	l := s.Add(&Layer{})
	require.Equal(t, "layer-4", l.ID)
	require.Equal(t, 3, l.Z)

	require.ErrorIs(t, s.Remove("layer-2"), ErrUnknownLayer)
}

func TestStackUpdate(t *testing.T) {
	s := newStack(1)
	require.NoError(t, s.Update("layer-1", func(l *Layer) {
		l.ID = "hijacked"
		l.Opacity = 0.5
	}))
	l, ok := s.Get("layer-1")
	require.True(t, ok)
	require.Equal(t, 0.5, l.Opacity)

	require.NoError(t, s.ToggleVisibility("layer-1"))
	require.False(t, l.Visible)
	require.ErrorIs(t, s.ToggleVisibility("nope"), ErrUnknownLayer)
}

func TestStackMove(t *testing.T) {
	s := newStack(3)

	require.NoError(t, s.MoveUp("layer-1"))
	require.Equal(t, []string{"layer-2", "layer-1", "layer-3"}, ids(s.Layers()))

	require.NoError(t, s.MoveDown("layer-3"))
	require.Equal(t, []string{"layer-2", "layer-3", "layer-1"}, ids(s.Layers()))

	// Already at the edges.
	require.NoError(t, s.MoveDown("layer-2"))
	require.NoError(t, s.MoveUp("layer-1"))
	require.Equal(t, []string{"layer-2", "layer-3", "layer-1"}, ids(s.Layers()))

	require.NoError(t, s.MoveTo("layer-1", 0))
	require.Equal(t, []string{"layer-1", "layer-2", "layer-3"}, ids(s.Layers()))

	require.ErrorIs(t, s.MoveUp("nope"), ErrUnknownLayer)
}

func TestStackMoveEqualZ(t *testing.T) {
	s := newStack(2)
	require.NoError(t, s.Update("layer-2", func(l *Layer) { l.Z = 0 }))
	require.Equal(t, []string{"layer-1", "layer-2"}, ids(s.Layers()))

	require.NoError(t, s.MoveUp("layer-1"))
	require.Equal(t, []string{"layer-2", "layer-1"}, ids(s.Layers()))
}

func TestStackReorder(t *testing.T) {
	s := newStack(3)
	require.NoError(t, s.Reorder([]string{"layer-1", "layer-3", "layer-2"}))
	require.Equal(t, []string{"layer-2", "layer-3", "layer-1"}, ids(s.Layers()))

	require.Error(t, s.Reorder([]string{"layer-1", "layer-2"}))
	require.Error(t, s.Reorder([]string{"layer-1", "layer-1", "layer-2"}))
	require.ErrorIs(t, s.Reorder([]string{"layer-1", "layer-2", "nope"}), ErrUnknownLayer)
}

func TestStackDuplicate(t *testing.T) {
	s := &Stack{}
	src := s.Add(&Layer{Name: "logo", Position: Point{100, 50}, Scale: 1, Opacity: 1})
	dup, err := s.Duplicate(src.ID)
	require.NoError(t, err)
	require.Equal(t, "layer-2", dup.ID)
	require.Equal(t, "logo (copy)", dup.Name)
	require.Equal(t, Point{120, 70}, dup.Position)
	require.Equal(t, src.Z+1, dup.Z)
	require.Equal(t, Point{100, 50}, src.Position)
}

func TestStackFramesAndTracks(t *testing.T) {
	s := &Stack{}
	s.Add(&Layer{Type: LayerImage, Source: image.NewRGBA(image.Rect(0, 0, 1, 1))})
	g := s.Add(&Layer{Type: LayerGIF, GIF: &gif.Info{
		Width:  1,
		Height: 1,
		Frames: []*gif.Cel{
			{Image: image.NewRGBA(image.Rect(0, 0, 1, 1)), Delay: 50 * time.Millisecond},
			{Image: image.NewRGBA(image.Rect(0, 0, 1, 1)), Delay: 70 * time.Millisecond},
		},
	}})

	require.NoError(t, s.SetFrame(g.ID, 9))
	require.Equal(t, 1, g.Frame)
	require.NoError(t, s.SetFrame(g.ID, -3))
	require.Equal(t, 0, g.Frame)

	tracks := s.Tracks()
	require.Len(t, tracks, 1)
	require.Equal(t, g.ID, tracks[0].ID)
	require.Equal(t, []time.Duration{50 * time.Millisecond, 70 * time.Millisecond}, tracks[0].Delays)
}
