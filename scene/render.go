package scene

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

const (
	OutputWidth  = 1280
	OutputHeight = 720

	minWorkspace = 2000
)

// FrameSelector picks the source frame an animated layer shows in one render.
type FrameSelector func(l *Layer) int

// CurrentFrames shows the current frame of every layer.
func CurrentFrames(l *Layer) int {
	return l.Frame
}

// FramesAt shows frame k of a looping timeline: k mod the frame count of each layer.
func FramesAt(k int) FrameSelector {
	return func(l *Layer) int {
		if n := l.FrameCount(); n > 0 {
			return k % n
		}
		return 0
	}
}

// Overrides shows the given frame per layer ID and the current frame of the rest.
func Overrides(frames map[string]int) FrameSelector {
	return func(l *Layer) int {
		if i, ok := frames[l.ID]; ok {
			return i
		}
		return l.Frame
	}
}

// Renderer composites layers into a fixed size output window centred on the
// canvas workspace.
type Renderer struct {
	Width, Height int
}

func NewRenderer() *Renderer {
	return &Renderer{Width: OutputWidth, Height: OutputHeight}
}

// Render composites layers with NewRenderer.
func Render(layers []*Layer, settings CanvasSettings, frames FrameSelector) (*image.RGBA, error) {
	return NewRenderer().Render(layers, settings, frames)
}

// Workspace returns the size of the working area layers are drawn into:
// twice the canvas, and at least 2000 pixels, in each dimension.
func (r *Renderer) Workspace(settings CanvasSettings) image.Point {
	return image.Pt(max(2*settings.Width, minWorkspace), max(2*settings.Height, minWorkspace))
}

// Render draws the visible layers in ascending z order over the canvas
// background. Identical arguments always produce identical pixels.
func (r *Renderer) Render(layers []*Layer, settings CanvasSettings, frames FrameSelector) (*image.RGBA, error) {
	if frames == nil {
		frames = CurrentFrames
	}
	bg, err := settings.Background()
	if err != nil {
		return nil, err
	}

	dst := image.NewRGBA(image.Rect(0, 0, r.Width, r.Height))
	if bg.A > 0 {
		draw.Draw(dst, dst.Rect, image.NewUniform(bg), image.Point{}, draw.Src)
	}

	// Layers are drawn straight into the output window, which is cropped
	// from the centre of the workspace. Anything outside the workspace is
	// never visible.
	ws := r.Workspace(settings)
	crop := image.Pt((ws.X-r.Width)/2, (ws.Y-r.Height)/2)
	visible := image.Rectangle{Max: ws}.Sub(crop).Intersect(dst.Rect)
	if visible.Empty() {
		return dst, nil
	}
	target := dst.SubImage(visible).(*image.RGBA)

	origin := Point{float64(r.Width) / 2, float64(r.Height) / 2}.Sub(settings.Center())
	for _, l := range paintOrder(layers) {
		if !l.Visible || l.Opacity <= 0 || l.Scale <= 0 {
			continue
		}
		src, ok := resolve(l, frames(l))
		if !ok {
			continue
		}
		drawLayer(target, src, l, l.Position.Add(origin))
	}
	return dst, nil
}

type sourceKind int

const (
	staticRaster sourceKind = iota
	gifFrameRaster
)

// source is the raster a layer shows in one render. box is the whole
// conceptual image that the layer position centres, which for a gif frame
// is the logical screen and not the patch.
type source struct {
	kind sourceKind
	img  image.Image
	box  image.Rectangle
}

func resolve(l *Layer, frame int) (source, bool) {
	if l.Type == LayerGIF {
		if l.FrameCount() == 0 {
			return source{}, false
		}
		cel := l.GIF.Frames[l.clampFrame(frame)]
		return source{kind: gifFrameRaster, img: cel.Image, box: l.box()}, true
	}
	if l.Source == nil || l.Source.Bounds().Empty() {
		return source{}, false
	}
	return source{kind: staticRaster, img: l.Source, box: l.box()}, true
}

func drawLayer(dst *image.RGBA, src source, l *Layer, center Point) {
	img, offset := rebase(src.img)
	s2d := layerTransform(l.Scale, l.Rotation, center, offset, src.box)

	var opts *draw.Options
	if l.Opacity < 1 {
		opts = &draw.Options{SrcMask: image.NewUniform(color.Alpha16{A: uint16(math.Round(l.Opacity * 0xffff))})}
	}
	draw.NearestNeighbor.Transform(dst, s2d, img, img.Bounds(), draw.Over, opts)
}

// layerTransform maps source pixels, offset within box, so that the centre of box
// lands on center after scaling and clockwise rotation around it.
func layerTransform(scale, rotation float64, center Point, offset image.Point, box image.Rectangle) f64.Aff3 {
	sin, cos := sincos(rotation)
	a, b := scale*cos, -scale*sin
	d, e := scale*sin, scale*cos
	px := float64(offset.X) - float64(box.Min.X+box.Max.X)/2
	py := float64(offset.Y) - float64(box.Min.Y+box.Max.Y)/2
	return f64.Aff3{
		a, b, center.X + a*px + b*py,
		d, e, center.Y + d*px + e*py,
	}
}

// sincos is exact for multiples of 90 degrees so axis aligned layers keep
// whole pixel edges.
func sincos(degrees float64) (sin, cos float64) {
	switch d := math.Mod(degrees, 360); {
	case d == 0:
		return 0, 1
	case d == 90 || d == -270:
		return 1, 0
	case d == 180 || d == -180:
		return 0, -1
	case d == 270 || d == -90:
		return -1, 0
	}
	return math.Sincos(degrees * math.Pi / 180)
}

// rebase returns m with its origin moved to zero, and the original origin.
func rebase(m image.Image) (image.Image, image.Point) {
	o := m.Bounds().Min
	if o == (image.Point{}) {
		return m, o
	}
	if rgba, ok := m.(*image.RGBA); ok {
		return &image.RGBA{Pix: rgba.Pix, Stride: rgba.Stride, Rect: rgba.Rect.Sub(o)}, o
	}
	return toRGBA(m), o
}
