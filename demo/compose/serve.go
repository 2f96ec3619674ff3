package main

import (
	"flag"
	"fmt"
	"image"
	imgcolor "image/color"
	"image/color/palette"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"golang.org/x/image/draw"

	"github.com/NathanBaulch/gifstack"
	"github.com/NathanBaulch/gifstack/clock"
	"github.com/NathanBaulch/gifstack/export"
	"github.com/NathanBaulch/gifstack/scene"
)

const (
	previewWidth  = 640
	previewHeight = 360
)

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", ":8090", "listen address")
	fps := fs.Float64("fps", clock.DefaultFPS, "live preview frame rate")
	speed := fs.Float64("speed", 1, "live preview playback speed (0.1-5)")
	verbose := fs.Bool("v", false, "verbose logging")
	maxFrames, maxSize := importFlags(fs)
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: compose serve [options] <scene.json>")
	}
	setupLogger(*verbose)

	settings, stack, err := loadScene(fs.Arg(0), *maxFrames, *maxSize)
	if err != nil {
		return err
	}
	layers := stack.Layers()

	http.HandleFunc("/scene.gif", func(w http.ResponseWriter, req *http.Request) {
		handleExport(w, req, settings, layers)
	})
	http.HandleFunc("/live", func(w http.ResponseWriter, req *http.Request) {
		handleLive(w, req, settings, layers, *fps, *speed)
	})
	fmt.Fprintf(os.Stderr, "%s %s on %s\n", green("serving"), "/scene.gif and /live", *addr)
	return http.ListenAndServe(*addr, nil)
}

func handleExport(w http.ResponseWriter, req *http.Request, settings scene.CanvasSettings, layers []*scene.Layer) {
	data, err := export.Export(req.Context(), layers, settings, nil)
	if err != nil {
		if req.Context().Err() == nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}
	w.Header().Set("content-type", "image/gif")
	w.Header().Set("cache-control", "no-store")
	_, _ = w.Write(data)
}

// handleLive streams the scene as an endless GIF, appending a frame whenever
// the clock moves an animated layer on.
func handleLive(w http.ResponseWriter, req *http.Request, settings scene.CanvasSettings, layers []*scene.Layer, fps, speed float64) {
	bg, err := settings.Background()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("content-type", "image/gif")
	w.Header().Set("cache-control", "no-store")

	frames := make(map[string]int)
	dirty := true
	c := clock.New(fps, func(id string, frame int) {
		frames[id] = frame
		dirty = true
	})
	var tracks []clock.Track
	for _, l := range layers {
		if t, ok := l.Track(); ok {
			tracks = append(tracks, t)
			frames[l.ID] = l.Frame
		}
	}
	c.SetTracks(tracks)
	c.SetPlaybackSpeed(speed)
	c.Play()

	p := append(imgcolor.Palette(nil), palette.WebSafe...)
	p = append(p, imgcolor.Transparent)
	ti := uint8(len(p) - 1)

	r := &scene.Renderer{Width: previewWidth, Height: previewHeight}
	enc := gif.NewEncoder(&flushWriter{w})
	if err := enc.WriteHeader(image.Config{Width: r.Width, Height: r.Height, ColorModel: p}, ti); err != nil {
		slog.Error("compose: live preview", "error", err)
		return
	}

	// Unchanged pixels can only be skipped when nothing is see-through.
	var opt *gif.Optimizer
	disposal := byte(gif.DisposalBackground)
	if bg.A == 0xff {
		opt = gif.NewOptimizer(ti)
		disposal = gif.DisposalNone
	}

	ticker := time.NewTicker(c.Interval())
	defer ticker.Stop()
	start := time.Now()
loop:
	for {
		if dirty {
			m, err := r.Render(layers, settings, scene.Overrides(frames))
			if err != nil {
				slog.Error("compose: live preview", "error", err)
				break
			}
			pm := image.NewPaletted(m.Rect, p)
			draw.Draw(pm, pm.Rect, m, image.Point{}, draw.Src)
			if opt != nil {
				if pm, err = opt.Optimize(pm); err != nil {
					slog.Error("compose: live preview", "error", err)
					break
				}
			}
			if err := enc.WriteFrame(&gif.Frame{Image: pm, DelayTime: c.Interval(), DisposalMethod: disposal}); err != nil {
				break
			}
			if err := enc.Flush(); err != nil {
				break
			}
			dirty = false
		}
		if !c.Running() {
			break
		}

		select {
		case <-req.Context().Done():
			break loop
		case now := <-ticker.C:
			c.Advance(now.Sub(start))
		}
	}

	if err := enc.WriteTrailer(); err != nil {
		return
	}
	_ = enc.Flush()
}

type flushWriter struct {
	io.Writer
}

func (w *flushWriter) WriteByte(c byte) error {
	_, err := w.Write([]byte{c})
	return err
}

func (w *flushWriter) Flush() error {
	if f, ok := w.Writer.(http.Flusher); ok {
		f.Flush()
	}
	return nil
}
