package scene

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/image/colornames"

	"github.com/NathanBaulch/gifstack"
)

func TestSnap(t *testing.T) {
	s := DefaultSettings()
	l := imageLayer(100, 50, colornames.Red)

	for _, tc := range []struct {
		name   string
		pos    Point
		scale  float64
		want   Point
		anchor Anchor
	}{
		{"center", Point{965, 545}, 1, Point{960, 540}, AnchorCenter},
		{"top-left", Point{60, 20}, 1, Point{50, 25}, AnchorTopLeft},
		{"top-center", Point{950, 30}, 1, Point{960, 25}, AnchorTopCenter},
		{"right-center", Point{1865, 530}, 1, Point{1870, 540}, AnchorRightCenter},
		{"bottom-right scaled", Point{1815, 1035}, 2, Point{1820, 1030}, AnchorBottomRight},
	} {
		t.Run(tc.name, func(t *testing.T) {
			l.Scale = tc.scale
			res := Snap(l, tc.pos, s, DefaultSnapThreshold)
			require.True(t, res.Snapped)
			require.Equal(t, tc.anchor, res.Anchor)
			require.Equal(t, tc.want, res.Position)
		})
	}
}

func TestSnapThreshold(t *testing.T) {
	s := DefaultSettings()
	l := imageLayer(100, 50, colornames.Red)

	res := Snap(l, Point{400, 400}, s, DefaultSnapThreshold)
	require.False(t, res.Snapped)
	require.Equal(t, Point{400, 400}, res.Position)

	res = Snap(l, Point{990, 540}, s, 30)
	require.True(t, res.Snapped)
	require.Equal(t, 30.0, res.Distance)

	res = Snap(l, Point{990, 540}, s, 20)
	require.False(t, res.Snapped)
}

func TestSnapTie(t *testing.T) {
	s := DefaultSettings()
	l := imageLayer(s.Width, s.Height, colornames.Red)
	res := Snap(l, Point{961, 540}, s, DefaultSnapThreshold)
	require.True(t, res.Snapped)
	require.Equal(t, AnchorCenter, res.Anchor)
	require.Equal(t, Point{960, 540}, res.Position)
}

func TestThumbnail(t *testing.T) {
	m := Thumbnail(imageLayer(200, 100, colornames.Red), 50, 50)
	require.NotNil(t, m)
	require.Equal(t, image.Rect(0, 0, 50, 25), m.Bounds())

	m = Thumbnail(imageLayer(10, 10, colornames.Red), 50, 50)
	require.Equal(t, image.Rect(0, 0, 10, 10), m.Bounds())

	l := gifLayer()
	l.GIF.Frames = []*gif.Cel{{Image: solid(image.Rect(5, 5, 10, 10), colornames.Red)}}
	m = Thumbnail(l, 64, 64)
	require.Equal(t, image.Rect(0, 0, 10, 10), m.Bounds())
	require.Equal(t, color.RGBAModel.Convert(colornames.Red), color.RGBAModel.Convert(m.At(5, 5)))
	require.Equal(t, color.RGBA{}, color.RGBAModel.Convert(m.At(0, 0)))

	require.Nil(t, Thumbnail(gifLayer(), 64, 64))
	require.Nil(t, Thumbnail(imageLayer(10, 10, colornames.Red), 0, 10))
}
