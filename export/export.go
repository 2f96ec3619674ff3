// Package export encodes a scene as an animated GIF with one global palette.
package export

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"log/slog"

	"github.com/ericpauley/go-quantize/quantize"
	"golang.org/x/image/draw"

	"github.com/NathanBaulch/gifstack"
	"github.com/NathanBaulch/gifstack/clock"
	"github.com/NathanBaulch/gifstack/scene"
)

type Phase string

const (
	PhaseAnalyzing Phase = "analyzing"
	PhaseRendering Phase = "rendering"
	PhaseEncoding  Phase = "encoding"
)

// progressTotal is the Total of every Progress event.
const progressTotal = 100

// Progress reports how far an export has got. Current runs from 0 to Total
// across all phases: analyzing up to 10, rendering up to 50 and encoding up
// to 100. The last event of a successful export is encoding at 100.
type Progress struct {
	Phase   Phase
	Current float64
	Total   float64
}

type Options struct {
	Width     int
	Height    int
	Quantizer draw.Quantizer // Builds the global palette from every rendered pixel.
	NumColors int            // Palette size including the transparent entry, at most 256.
	Optimize  bool           // Crop frames to the pixels that changed. Ignored for scenes with transparency.
	LoopCount int            // Netscape loop count of multi-frame output, 0 loops forever.
	Comment   string
	Logger    *slog.Logger
}

type option func(*Options)

func WithSize(width, height int) option {
	return func(o *Options) {
		o.Width = width
		o.Height = height
	}
}

func WithQuantizer(q draw.Quantizer) option {
	return func(o *Options) {
		o.Quantizer = q
	}
}

func WithNumColors(n int) option {
	return func(o *Options) {
		o.NumColors = n
	}
}

func WithOptimize() option {
	return func(o *Options) {
		o.Optimize = true
	}
}

func WithLoopCount(n int) option {
	return func(o *Options) {
		o.LoopCount = n
	}
}

func WithComment(s string) option {
	return func(o *Options) {
		o.Comment = s
	}
}

func WithLogger(l *slog.Logger) option {
	return func(o *Options) {
		o.Logger = l
	}
}

// alphaThreshold is the alpha below which a pixel is written as transparent.
const alphaThreshold = 0x80

// Export renders every frame of the scene timeline and encodes them as a
// GIF. Any failure, including cancellation, aborts the whole export and no
// bytes are returned.
func Export(ctx context.Context, layers []*scene.Layer, settings scene.CanvasSettings, onProgress func(Progress), o ...option) ([]byte, error) {
	opts := &Options{
		Width:     scene.OutputWidth,
		Height:    scene.OutputHeight,
		Quantizer: quantize.MedianCutQuantizer{},
		NumColors: 256,
	}
	for _, o := range o {
		o(opts)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("export: invalid size %dx%d", opts.Width, opts.Height)
	}
	opts.NumColors = min(max(opts.NumColors, 2), 256)
	if onProgress == nil {
		onProgress = func(Progress) {}
	}

	report := func(phase Phase, current float64) {
		onProgress(Progress{Phase: phase, Current: current, Total: progressTotal})
	}

	report(PhaseAnalyzing, 0)
	ticks := clock.Schedule(tracks(layers))
	summary := clock.Summarize(ticks)
	opts.Logger.Info("export: starting", "frames", summary.Frames, "duration", summary.TotalDuration, "fps", summary.FPS)
	report(PhaseAnalyzing, 10)

	r := &scene.Renderer{Width: opts.Width, Height: opts.Height}
	frames := make([]*image.RGBA, len(ticks))
	for k := range ticks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		m, err := r.Render(layers, settings, scene.FramesAt(k))
		if err != nil {
			return nil, fmt.Errorf("export: rendering frame %d: %w", k, err)
		}
		frames[k] = m
		report(PhaseRendering, 10+40*float64(k+1)/float64(len(ticks)))
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	transparent := hasTransparency(frames)
	optimize := opts.Optimize
	if optimize && transparent {
		opts.Logger.Warn("export: not optimizing frames of a scene with transparent pixels")
		optimize = false
	}
	// The optimizer marks unchanged pixels with the transparent entry.
	p := buildPalette(frames, opts.Quantizer, opts.NumColors, transparent || optimize)
	opts.Logger.Debug("export: built palette", "colors", len(p.colors), "transparent", p.transparent)

	buf := &bytes.Buffer{}
	enc := gif.NewEncoder(buf)
	bg := byte(0)
	if p.transparent >= 0 {
		bg = byte(p.transparent)
	}
	if err := enc.WriteHeader(image.Config{Width: opts.Width, Height: opts.Height, ColorModel: p.colors}, bg); err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	if opts.Comment != "" {
		if err := enc.WriteComment(&gif.Comment{Strings: []string{opts.Comment}}); err != nil {
			return nil, fmt.Errorf("export: %w", err)
		}
	}
	if len(ticks) > 1 {
		if err := enc.WriteApplicationNetscape(&gif.ApplicationNetscape{LoopCount: opts.LoopCount}); err != nil {
			return nil, fmt.Errorf("export: %w", err)
		}
	}

	var opt *gif.Optimizer
	if optimize {
		opt = gif.NewOptimizer(uint8(p.transparent))
	}
	disposal := byte(gif.DisposalNone)
	if transparent {
		// Transparent areas must not show the previous frame.
		disposal = gif.DisposalBackground
	}

	for k, m := range frames {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		report(PhaseEncoding, 50+50*float64(k)/float64(len(frames)))
		pm := p.paletted(m)
		if opt != nil {
			var err error
			if pm, err = opt.Optimize(pm); err != nil {
				return nil, fmt.Errorf("export: optimizing frame %d: %w", k, err)
			}
		}
		if err := enc.WriteFrame(&gif.Frame{Image: pm, DelayTime: ticks[k].Delay, DisposalMethod: disposal}); err != nil {
			return nil, fmt.Errorf("export: writing frame %d: %w", k, err)
		}
		frames[k] = nil
	}

	if err := enc.WriteTrailer(); err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	if err := enc.Flush(); err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	opts.Logger.Info("export: finished", "frames", len(frames), "bytes", buf.Len())
	report(PhaseEncoding, progressTotal)
	return buf.Bytes(), nil
}

// tracks returns the timing of every animated layer, visible or not.
func tracks(layers []*scene.Layer) []clock.Track {
	var ts []clock.Track
	for _, l := range layers {
		if t, ok := l.Track(); ok {
			ts = append(ts, t)
		}
	}
	return ts
}

// opaque returns c without premultiplication and with full alpha, or false
// when c is too transparent to be drawn.
func opaque(c color.RGBA) (color.RGBA, bool) {
	switch {
	case c.A < alphaThreshold:
		return color.RGBA{}, false
	case c.A == 0xff:
		return c, true
	}
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return color.RGBA{R: n.R, G: n.G, B: n.B, A: 0xff}, true
}
