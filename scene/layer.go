package scene

import (
	"image"

	"github.com/NathanBaulch/gifstack"
	"github.com/NathanBaulch/gifstack/clock"
)

type LayerType string

const (
	LayerImage      LayerType = "image"
	LayerBackground LayerType = "background"
	LayerGIF        LayerType = "gif"
)

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Layer is one compositing unit of a scene.
type Layer struct {
	ID      string
	Name    string
	Type    LayerType
	Source  image.Image // Static raster of image and background layers.
	GIF     *gif.Info   // Frames of gif layers.
	Frame   int         // Current source frame of a gif layer.
	Visible bool
	Z       int // Paint order, lowest first. Need not be contiguous.

	Position Point   // Centre of the layer in canvas settings coordinates.
	Scale    float64 // Uniform multiplier of the natural size.
	Opacity  float64 // 0 to 1.
	Rotation float64 // Clockwise degrees around Position.
}

// Size returns the natural size of the layer: the logical screen of a gif
// layer or the bounds of a static one.
func (l *Layer) Size() image.Point {
	return l.box().Size()
}

func (l *Layer) box() image.Rectangle {
	if l.Type == LayerGIF && l.GIF != nil {
		return image.Rect(0, 0, l.GIF.Width, l.GIF.Height)
	}
	if l.Source != nil {
		return l.Source.Bounds()
	}
	return image.Rectangle{}
}

func (l *Layer) FrameCount() int {
	if l.Type != LayerGIF || l.GIF == nil {
		return 0
	}
	return len(l.GIF.Frames)
}

// Track returns the timing of an animated layer.
func (l *Layer) Track() (clock.Track, bool) {
	if l.FrameCount() == 0 {
		return clock.Track{}, false
	}
	return clock.Track{ID: l.ID, Delays: l.GIF.Delays()}, true
}

func (l *Layer) clampFrame(i int) int {
	if n := l.FrameCount(); i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}
