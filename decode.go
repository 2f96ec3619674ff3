package gif

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"math"
	"time"

	"golang.org/x/image/draw"
)

// DefaultDelay is used for frames whose stored delay is zero.
const DefaultDelay = 100 * time.Millisecond

var ErrNoFrames = errors.New("gif: no frames found")

// Info is a decoded animation with every frame fully reconstructed.
type Info struct {
	Frames        []*Cel
	Width         int           // Logical screen width.
	Height        int           // Logical screen height.
	LoopCount     int           // 0 loops forever, otherwise the Netscape repeat count (1 when absent).
	TotalDuration time.Duration // Sum of all frame delays.
}

// Cel is one animation frame after disposal handling. Its image is positioned
// in logical screen coordinates: by default it covers only the patch the
// source frame encoded, with WithFullCanvas it covers the whole screen.
type Cel struct {
	Image            *image.RGBA
	Delay            time.Duration
	Patch            image.Rectangle // Rectangle encoded by the source frame.
	TransparentIndex int             // -1 when the frame has no transparent index.
	DisposalMethod   byte
}

func (c *Cel) Left() int   { return c.Image.Rect.Min.X }
func (c *Cel) Top() int    { return c.Image.Rect.Min.Y }
func (c *Cel) Width() int  { return c.Image.Rect.Dx() }
func (c *Cel) Height() int { return c.Image.Rect.Dy() }

type DecodeOptions struct {
	MaxFrames  int                          // Frames beyond this count are dropped. Defaults to 100.
	MaxSize    int                          // Frames wider or taller than this are skipped. Defaults to 2048.
	FullCanvas bool                         // Store the whole accumulated canvas per frame.
	Progress   func(current, total float64) // Coarse progress, total is 4.
	Logger     *slog.Logger
}

type option func(*DecodeOptions)

func WithMaxFrames(n int) option {
	return func(o *DecodeOptions) {
		o.MaxFrames = n
	}
}

func WithMaxSize(n int) option {
	return func(o *DecodeOptions) {
		o.MaxSize = n
	}
}

func WithFullCanvas() option {
	return func(o *DecodeOptions) {
		o.FullCanvas = true
	}
}

func WithProgress(fn func(current, total float64)) option {
	return func(o *DecodeOptions) {
		o.Progress = fn
	}
}

func WithLogger(l *slog.Logger) option {
	return func(o *DecodeOptions) {
		o.Logger = l
	}
}

const progressSteps = 4

// Decode parses a GIF and reconstructs each frame, applying the disposal
// method of the previous frame before drawing the next. Frames that cannot be
// decoded or exceed MaxSize are skipped with a warning.
func Decode(data []byte, o ...option) (*Info, error) {
	opts := &DecodeOptions{MaxFrames: 100, MaxSize: 2048}
	for _, o := range o {
		o(opts)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	progress := func(current float64) {
		if opts.Progress != nil {
			opts.Progress(current, progressSteps)
		}
	}

	dec := NewDecoder(bytes.NewReader(data))
	hdr, err := dec.ReadHeader()
	if err != nil {
		return nil, fmt.Errorf("gif: decoding: %w", err)
	}

	var frames []*Frame
	for {
		blk, err := dec.ReadBlock()
		if err == io.EOF {
			break
		}
		var fe *FrameError
		if errors.As(err, &fe) {
			opts.Logger.Warn("gif: skipping undecodable frame", "frame", fe.Index, "error", fe.Err)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("gif: decoding: %w", err)
		}
		if f, ok := blk.(*Frame); ok {
			frames = append(frames, f)
		}
	}
	progress(1)

	kept := frames[:0]
	for i, f := range frames {
		if b := f.Image.Bounds(); b.Dx() > opts.MaxSize || b.Dy() > opts.MaxSize {
			opts.Logger.Warn("gif: skipping oversized frame", "frame", i, "width", b.Dx(), "height", b.Dy(), "max", opts.MaxSize)
			continue
		}
		kept = append(kept, f)
	}
	if opts.MaxFrames > 0 && len(kept) > opts.MaxFrames {
		kept = kept[:opts.MaxFrames]
	}
	progress(2)

	info := &Info{
		Width:     hdr.Config.Width,
		Height:    hdr.Config.Height,
		LoopCount: 1,
	}
	if lc := dec.LoopCount(); lc >= 0 {
		info.LoopCount = lc
	}

	r := newReconstructor(info.Width, info.Height, opts.FullCanvas)
	for i, f := range kept {
		cel, err := r.next(f)
		if err != nil {
			opts.Logger.Warn("gif: skipping frame", "frame", i, "error", err)
		} else {
			info.Frames = append(info.Frames, cel)
			info.TotalDuration += cel.Delay
		}
		progress(2 + float64(i+1)/float64(len(kept))*(progressSteps-2))
	}

	if len(info.Frames) == 0 {
		return nil, ErrNoFrames
	}
	progress(progressSteps)
	return info, nil
}

// reconstructor owns the accumulation buffer for a single decode.
type reconstructor struct {
	canvas     *image.RGBA
	restore    *image.RGBA
	prev       *Frame
	fullCanvas bool
}

func newReconstructor(width, height int, fullCanvas bool) *reconstructor {
	return &reconstructor{
		canvas:     image.NewRGBA(image.Rect(0, 0, width, height)),
		fullCanvas: fullCanvas,
	}
}

func (r *reconstructor) next(f *Frame) (*Cel, error) {
	patch := f.Image.Bounds().Intersect(r.canvas.Rect)
	if patch.Empty() {
		return nil, fmt.Errorf("frame %v lies outside the %v canvas", f.Image.Bounds(), r.canvas.Rect.Size())
	}

	disposal := f.DisposalMethod
	if disposal > DisposalPrevious {
		disposal = DisposalPrevious
	}

	if r.prev != nil {
		switch r.prev.DisposalMethod {
		case DisposalBackground:
			draw.Draw(r.canvas, r.prev.Image.Bounds(), image.Transparent, image.Point{}, draw.Src)
		case DisposalPrevious:
			if r.restore != nil {
				copy(r.canvas.Pix, r.restore.Pix)
			}
		}
	}

	if disposal == DisposalPrevious {
		if r.restore == nil {
			r.restore = image.NewRGBA(r.canvas.Rect)
		}
		copy(r.restore.Pix, r.canvas.Pix)
	}

	draw.Draw(r.canvas, patch, f.Image, patch.Min, draw.Over)

	region := patch
	if r.fullCanvas {
		region = r.canvas.Rect
	}
	m := image.NewRGBA(region)
	draw.Draw(m, region, r.canvas, region.Min, draw.Src)

	delay := f.DelayTime
	if delay <= 0 {
		delay = DefaultDelay
	}

	r.prev = &Frame{Image: f.Image, DisposalMethod: disposal}
	return &Cel{
		Image:            m,
		Delay:            delay,
		Patch:            patch,
		TransparentIndex: f.TransparentIndex,
		DisposalMethod:   disposal,
	}, nil
}

// Stats summarises the frames of an animation.
type Stats struct {
	MinDelay     time.Duration
	MaxDelay     time.Duration
	AverageDelay time.Duration
	TotalBytes   int                 // Size of the frames as raw RGBA.
	Sizes        map[image.Point]int // Number of frames per frame size.
}

func (g *Info) Stats() Stats {
	var s Stats
	if len(g.Frames) == 0 {
		return s
	}
	s.Sizes = make(map[image.Point]int)
	var total time.Duration
	for i, c := range g.Frames {
		if i == 0 || c.Delay < s.MinDelay {
			s.MinDelay = c.Delay
		}
		if c.Delay > s.MaxDelay {
			s.MaxDelay = c.Delay
		}
		total += c.Delay
		size := c.Image.Rect.Size()
		s.Sizes[size]++
		s.TotalBytes += 4 * size.X * size.Y
	}
	s.AverageDelay = total / time.Duration(len(g.Frames))
	return s
}

// FrameRate returns the average frames per second, rounded to 2 decimals.
func (g *Info) FrameRate() float64 {
	if len(g.Frames) == 0 || g.TotalDuration <= 0 {
		return 0
	}
	avg := float64(g.TotalDuration.Milliseconds()) / float64(len(g.Frames))
	return math.Round(1000/avg*100) / 100
}

// Delays returns the delay of each frame in display order.
func (g *Info) Delays() []time.Duration {
	d := make([]time.Duration, len(g.Frames))
	for i, c := range g.Frames {
		d[i] = c.Delay
	}
	return d
}
