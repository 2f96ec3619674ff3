package scene

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"math"
	"path"
	"strings"

	"github.com/NathanBaulch/gifstack"
	"golang.org/x/image/draw"
	"golang.org/x/image/webp"
)

var ErrUnsupportedFormat = errors.New("scene: unsupported format")

const (
	mimePNG  = "image/png"
	mimeJPEG = "image/jpeg"
	mimeGIF  = "image/gif"
	mimeWebP = "image/webp"
	mimeSVG  = "image/svg+xml"
)

type ImportOptions struct {
	Settings  CanvasSettings
	MaxFrames int
	MaxSize   int
	Progress  func(current, total float64)
	Logger    *slog.Logger
}

type option func(*ImportOptions)

func WithSettings(s CanvasSettings) option {
	return func(o *ImportOptions) {
		o.Settings = s
	}
}

func WithMaxFrames(n int) option {
	return func(o *ImportOptions) {
		o.MaxFrames = n
	}
}

func WithMaxSize(n int) option {
	return func(o *ImportOptions) {
		o.MaxSize = n
	}
}

func WithProgress(fn func(current, total float64)) option {
	return func(o *ImportOptions) {
		o.Progress = fn
	}
}

func WithLogger(l *slog.Logger) option {
	return func(o *ImportOptions) {
		o.Logger = l
	}
}

// DetectMIME identifies a supported image format from its magic bytes.
func DetectMIME(data []byte) string {
	switch {
	case bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")):
		return mimePNG
	case bytes.HasPrefix(data, []byte{0xff, 0xd8, 0xff}):
		return mimeJPEG
	case bytes.HasPrefix(data, []byte("GIF87a")), bytes.HasPrefix(data, []byte("GIF89a")):
		return mimeGIF
	case len(data) >= 12 && bytes.HasPrefix(data, []byte("RIFF")) && string(data[8:12]) == "WEBP":
		return mimeWebP
	}
	head := bytes.TrimSpace(data[:min(len(data), 512)])
	if bytes.HasPrefix(head, []byte("<svg")) || bytes.HasPrefix(head, []byte("<?xml")) && bytes.Contains(head, []byte("<svg")) {
		return mimeSVG
	}
	return ""
}

// Import decodes an image file into a new, visible layer centred on the
// canvas and scaled down to fit it. An empty mime is detected from data.
// Animated GIFs that fail to decode fall back to a static first frame.
func Import(name string, data []byte, mime string, o ...option) (*Layer, error) {
	opts := &ImportOptions{Settings: DefaultSettings(), MaxFrames: 200, MaxSize: 4096}
	for _, o := range o {
		o(opts)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	if mime == "" {
		mime = DetectMIME(data)
	}
	if mime == "image/jpg" {
		mime = mimeJPEG
	}

	l := &Layer{
		Name:     baseName(name),
		Type:     layerType(name),
		Visible:  true,
		Position: opts.Settings.Center(),
		Opacity:  1,
	}

	var err error
	switch mime {
	case mimePNG:
		l.Source, err = decodeStatic(png.Decode, data)
	case mimeJPEG:
		l.Source, err = decodeStatic(jpeg.Decode, data)
	case mimeWebP:
		l.Source, err = decodeStatic(webp.Decode, data)
	case mimeGIF:
		err = importGIF(l, data, opts)
	default:
		return nil, fmt.Errorf("%w: %q (%s)", ErrUnsupportedFormat, name, mime)
	}
	if err != nil {
		return nil, fmt.Errorf("scene: importing %q: %w", name, err)
	}

	size := l.Size()
	if size.X == 0 || size.Y == 0 {
		return nil, fmt.Errorf("scene: importing %q: empty image", name)
	}
	l.Scale = fitScale(size, opts.Settings)
	return l, nil
}

func importGIF(l *Layer, data []byte, opts *ImportOptions) error {
	info, err := gif.Decode(data,
		gif.WithMaxFrames(opts.MaxFrames),
		gif.WithMaxSize(opts.MaxSize),
		gif.WithProgress(opts.Progress),
		gif.WithLogger(opts.Logger),
	)
	if err == nil {
		l.Type = LayerGIF
		l.GIF = info
		opts.Logger.Debug("scene: imported gif", "name", l.Name, "frames", len(info.Frames), "duration", info.TotalDuration, "loop", info.LoopCount)
		return nil
	}

	opts.Logger.Warn("scene: treating gif as a static image", "name", l.Name, "error", err)
	m, err := gif.NewDecoder(bytes.NewReader(data)).DecodeFirst()
	if err != nil {
		return err
	}
	l.Source = toRGBA(m)
	return nil
}

func decodeStatic(decode func(r io.Reader) (image.Image, error), data []byte) (image.Image, error) {
	m, err := decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return toRGBA(m), nil
}

// toRGBA copies m into an RGBA image with its origin at zero.
func toRGBA(m image.Image) *image.RGBA {
	b := m.Bounds()
	if rgba, ok := m.(*image.RGBA); ok && b.Min == (image.Point{}) {
		return rgba
	}
	dst := image.NewRGBA(image.Rectangle{Max: b.Size()})
	draw.Draw(dst, dst.Rect, m, b.Min, draw.Src)
	return dst
}

func baseName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if ext := path.Ext(name); ext != name {
		name = strings.TrimSuffix(name, ext)
	}
	return name
}

func layerType(name string) LayerType {
	name = strings.ToLower(baseName(name))
	if strings.Contains(name, "bg") || strings.Contains(name, "background") {
		return LayerBackground
	}
	return LayerImage
}

// fitScale shrinks size to fit within the canvas but never enlarges it.
func fitScale(size image.Point, s CanvasSettings) float64 {
	if s.Width <= 0 || s.Height <= 0 {
		return 1
	}
	return math.Min(1, math.Min(float64(s.Width)/float64(size.X), float64(s.Height)/float64(size.Y)))
}
