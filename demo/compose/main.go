// Command compose turns a JSON scene document into an animated GIF.
//
// Usage:
//
//	compose export [options] <scene.json>   Write the scene as a GIF file
//	compose info <scene.json>               Describe the layers and timeline
//	compose serve [options] <scene.json>    Serve the export and a live preview over HTTP
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/fatih/color"

	"github.com/NathanBaulch/gifstack/clock"
	"github.com/NathanBaulch/gifstack/export"
	"github.com/NathanBaulch/gifstack/scene"
)

var (
	bold  = color.New(color.Bold).SprintFunc()
	faint = color.New(color.Faint).SprintFunc()
	green = color.New(color.FgGreen).SprintFunc()
	red   = color.New(color.FgRed).SprintFunc()
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "export":
		err = runExport(os.Args[2:])
	case "info":
		err = runInfo(os.Args[2:])
	case "serve":
		err = runServe(os.Args[2:])
	case "-h", "-help", "--help", "help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "compose: unknown command %q\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", red("compose:"), err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage:
  compose export [options] <scene.json>   Write the scene as a GIF file
  compose info <scene.json>               Describe the layers and timeline
  compose serve [options] <scene.json>    Serve the export and a live preview

Run "compose <command> -h" for command-specific options.
`)
}

func setupLogger(verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// importFlags registers the options shared by every command that loads a scene.
func importFlags(fs *flag.FlagSet) (maxFrames, maxSize *int) {
	maxFrames = fs.Int("max-frames", 200, "maximum frames kept per GIF layer")
	maxSize = fs.Int("max-size", 4096, "maximum GIF frame width or height")
	return
}

func loadScene(path string, maxFrames, maxSize int) (scene.CanvasSettings, *scene.Stack, error) {
	return scene.LoadDocument(path, scene.WithMaxFrames(maxFrames), scene.WithMaxSize(maxSize))
}

// --- export ---

func runExport(args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	output := fs.String("o", "", "output file (default: scene name with .gif, \"-\" for stdout)")
	width := fs.Int("width", scene.OutputWidth, "output width")
	height := fs.Int("height", scene.OutputHeight, "output height")
	colors := fs.Int("colors", 256, "palette size (2-256)")
	optimize := fs.Bool("optimize", false, "store only the pixels that change between frames")
	loop := fs.Int("loop", 0, "loop count, 0 loops forever")
	comment := fs.String("comment", "", "comment extension text")
	quiet := fs.Bool("q", false, "do not report progress")
	verbose := fs.Bool("v", false, "verbose logging")
	maxFrames, maxSize := importFlags(fs)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: compose export [options] <scene.json>\n\nOptions:\n")
		fs.PrintDefaults()
	}
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("expected one scene document")
	}
	setupLogger(*verbose)

	settings, stack, err := loadScene(fs.Arg(0), *maxFrames, *maxSize)
	if err != nil {
		return err
	}

	var progress func(export.Progress)
	if !*quiet {
		progress = func(p export.Progress) {
			fmt.Fprintf(os.Stderr, "\r%-10s %5.1f%%", p.Phase, 100*p.Current/p.Total)
			if p.Current == p.Total {
				fmt.Fprintln(os.Stderr)
			}
		}
	}

	ctx, stop := signalContext()
	defer stop()
	data, err := export.Export(ctx, stack.Layers(), settings, progress,
		export.WithSize(*width, *height),
		export.WithNumColors(*colors),
		export.WithLoopCount(*loop),
		func(o *export.Options) {
			o.Optimize = *optimize
			o.Comment = *comment
		},
	)
	if err != nil {
		return err
	}

	path := *output
	if path == "" {
		path = strings.TrimSuffix(fs.Arg(0), filepath.Ext(fs.Arg(0))) + ".gif"
	}
	if err := writeOutput(path, data); err != nil {
		return err
	}
	if path != "-" {
		fmt.Fprintf(os.Stderr, "%s %s (%d bytes)\n", green("wrote"), path, len(data))
	}
	return nil
}

func writeOutput(path string, data []byte) error {
	if path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// --- info ---

func runInfo(args []string) error {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	maxFrames, maxSize := importFlags(fs)
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: compose info <scene.json>")
	}
	setupLogger(false)

	settings, stack, err := loadScene(fs.Arg(0), *maxFrames, *maxSize)
	if err != nil {
		return err
	}
	printInfo(os.Stdout, settings, stack)
	return nil
}

func printInfo(w io.Writer, settings scene.CanvasSettings, stack *scene.Stack) {
	fmt.Fprintf(w, "%s %dx%d, background %s\n", bold("canvas"), settings.Width, settings.Height, settings.BackgroundColor)

	layers := stack.Layers()
	for i := len(layers) - 1; i >= 0; i-- {
		l := layers[i]
		name := bold(l.Name)
		if !l.Visible {
			name = faint(l.Name + " (hidden)")
		}
		size := l.Size()
		fmt.Fprintf(w, "  %-8s %s %s %dx%d at (%.0f, %.0f) scale %.2f opacity %.2f rotation %.0f°\n",
			l.ID, name, faint(l.Type), size.X, size.Y, l.Position.X, l.Position.Y, l.Scale, l.Opacity, l.Rotation)
		if l.Type == scene.LayerGIF {
			s := l.GIF.Stats()
			fmt.Fprintf(w, "           %d frames, %v, %.2f fps, delays %v to %v, loop %d\n",
				len(l.GIF.Frames), l.GIF.TotalDuration, l.GIF.FrameRate(), s.MinDelay, s.MaxDelay, l.GIF.LoopCount)
		}
	}

	sum := clock.Summarize(clock.Schedule(stack.Tracks()))
	fmt.Fprintf(w, "%s %d frames, %v, average delay %v, %.1f fps\n",
		bold("export"), sum.Frames, sum.TotalDuration, sum.AverageDelay, sum.FPS)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}
