// Command player plays a scene document in the terminal, as sixel graphics
// or as block characters.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/anthonynsimon/bild/transform"
	"github.com/mattn/go-sixel"

	"github.com/NathanBaulch/gifstack/clock"
	"github.com/NathanBaulch/gifstack/scene"
)

func main() {
	fps := flag.Float64("fps", clock.DefaultFPS, "playback frame rate")
	speed := flag.Float64("speed", 1, "playback speed (0.1-5)")
	width := flag.Int("width", 480, "displayed width in pixels, or columns with -ascii")
	ascii := flag.Bool("ascii", false, "draw with block characters instead of sixel graphics")
	list := flag.Bool("layers", false, "show every layer before playing")
	duration := flag.Duration("d", 0, "stop after this long, 0 plays until interrupted")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: player [options] <scene.json>\n\nOptions:\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	settings, stack, err := scene.LoadDocument(flag.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, "player:", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if *duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}

	var show func(image.Image) error
	if *ascii {
		show = func(m image.Image) error { return drawASCII(os.Stdout, m, *width) }
	} else {
		enc := sixel.NewEncoder(os.Stdout)
		show = func(m image.Image) error {
			b := m.Bounds()
			return enc.Encode(transform.Resize(m, *width, max(1, *width*b.Dy()/b.Dx()), transform.NearestNeighbor))
		}
	}

	if *list {
		if err := showLayers(os.Stdout, stack, show); err != nil {
			fmt.Fprintln(os.Stderr, "player:", err)
			os.Exit(1)
		}
	}

	if err := play(ctx, os.Stdout, stack, settings, *fps, *speed, show); err != nil {
		fmt.Fprintln(os.Stderr, "player:", err)
		os.Exit(1)
	}
}

// play renders the scene whenever the clock moves an animated layer on,
// until ctx is done or nothing is left playing.
func play(ctx context.Context, w io.Writer, stack *scene.Stack, settings scene.CanvasSettings, fps, speed float64, show func(image.Image) error) error {
	dirty := true
	c := clock.New(fps, func(id string, frame int) {
		_ = stack.SetFrame(id, frame)
		dirty = true
	})
	c.SetTracks(stack.Tracks())
	c.SetPlaybackSpeed(speed)
	c.Play()

	ticker := time.NewTicker(c.Interval())
	defer ticker.Stop()
	start := time.Now()

	fmt.Fprint(w, "\x1b[2J") // clear screen
	for {
		if dirty {
			m, err := scene.Render(stack.Layers(), settings, scene.CurrentFrames)
			if err != nil {
				return err
			}
			fmt.Fprint(w, "\x1b[H") // move top left
			if err := show(m); err != nil {
				return err
			}
			dirty = false
		}
		if !c.Running() {
			return nil
		}

		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			c.Advance(now.Sub(start))
		}
	}
}

func showLayers(w io.Writer, stack *scene.Stack, show func(image.Image) error) error {
	layers := stack.Layers()
	for i := len(layers) - 1; i >= 0; i-- {
		l := layers[i]
		fmt.Fprintf(w, "%s %s (%s, %d frames)\n", l.ID, l.Name, l.Type, l.FrameCount())
		if m := scene.Thumbnail(l, 96, 96); m != nil {
			if err := show(m); err != nil {
				return err
			}
		}
	}
	return nil
}

var levels = []rune(" ░▒▓█")

// drawASCII draws m cols characters wide, sampling one pixel per character
// and halving the rows to suit the shape of terminal cells.
func drawASCII(w io.Writer, m image.Image, cols int) error {
	b := m.Bounds()
	cols = max(1, cols)
	rows := max(1, cols*b.Dy()/b.Dx()/2)
	sb := &strings.Builder{}
	for row := 0; row < rows; row++ {
		y := b.Min.Y + row*b.Dy()/rows
		for col := 0; col < cols; col++ {
			c := m.At(b.Min.X+col*b.Dx()/cols, y)
			r := ' '
			if _, _, _, a := c.RGBA(); a > 0 {
				r = levels[color.GrayModel.Convert(c).(color.Gray).Y/52]
			}
			sb.WriteRune(r)
		}
		sb.WriteByte('\n')
	}
	_, err := io.WriteString(w, sb.String())
	return err
}
