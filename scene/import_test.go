package scene

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/image/colornames"

	"github.com/NathanBaulch/gifstack"
)

func encodePNG(t *testing.T, w, h int) []byte {
	buf := &bytes.Buffer{}
	require.NoError(t, png.Encode(buf, solid(image.Rect(0, 0, w, h), colornames.Green)))
	return buf.Bytes()
}

// encodeGIF writes a 4x4 animation with one frame per delay.
func encodeGIF(t *testing.T, delays ...time.Duration) []byte {
	p := color.Palette{colornames.Black, colornames.Red}
	buf := &bytes.Buffer{}
	enc := gif.NewEncoder(buf)
	require.NoError(t, enc.WriteHeader(image.Config{Width: 4, Height: 4, ColorModel: p}, 0))
	require.NoError(t, enc.WriteApplicationNetscape(&gif.ApplicationNetscape{}))
	for i, d := range delays {
		pm := image.NewPaletted(image.Rect(0, 0, 4, 4), p)
		pm.Pix[0] = uint8(i % 2)
		require.NoError(t, enc.WriteFrame(&gif.Frame{Image: pm, DelayTime: d}))
	}
	require.NoError(t, enc.WriteTrailer())
	require.NoError(t, enc.Flush())
	return buf.Bytes()
}

func TestDetectMIME(t *testing.T) {
	require.Equal(t, "image/png", DetectMIME(encodePNG(t, 1, 1)))
	require.Equal(t, "image/gif", DetectMIME(encodeGIF(t, time.Second)))
	require.Equal(t, "image/jpeg", DetectMIME([]byte{0xff, 0xd8, 0xff, 0xe0}))
	require.Equal(t, "image/webp", DetectMIME([]byte("RIFF\x00\x00\x00\x00WEBPVP8 ")))
	require.Equal(t, "image/svg+xml", DetectMIME([]byte("  <?xml version=\"1.0\"?>\n<svg></svg>")))
	require.Equal(t, "", DetectMIME([]byte("hello")))
	require.Equal(t, "", DetectMIME(nil))
}

func TestImportPNG(t *testing.T) {
	l, err := Import("assets/logo.png", encodePNG(t, 100, 50), "image/png")
	require.NoError(t, err)
	require.Equal(t, "logo", l.Name)
	require.Equal(t, LayerImage, l.Type)
	require.Equal(t, image.Pt(100, 50), l.Size())
	require.Equal(t, Point{960, 540}, l.Position)
	require.Equal(t, 1.0, l.Scale)
	require.Equal(t, 1.0, l.Opacity)
	require.True(t, l.Visible)
}

func TestImportFitsCanvas(t *testing.T) {
	l, err := Import("wide.png", encodePNG(t, 3840, 1080), "")
	require.NoError(t, err)
	require.Equal(t, 0.5, l.Scale)

	l, err = Import("tall.png", encodePNG(t, 100, 2160), "", WithSettings(CanvasSettings{Width: 500, Height: 1080}))
	require.NoError(t, err)
	require.Equal(t, 0.5, l.Scale)
	require.Equal(t, Point{250, 540}, l.Position)
}

func TestImportBackgroundName(t *testing.T) {
	for name, want := range map[string]LayerType{
		"sky-BG.png":        LayerBackground,
		"Background 2.png":  LayerBackground,
		"character.png":     LayerImage,
		"bg.tar/sprite.png": LayerImage,
	} {
		l, err := Import(name, encodePNG(t, 2, 2), "")
		require.NoError(t, err, name)
		require.Equal(t, want, l.Type, name)
	}
}

func TestImportGIF(t *testing.T) {
	var progress []float64
	l, err := Import("dance.gif", encodeGIF(t, 50*time.Millisecond, 70*time.Millisecond), "image/gif",
		WithProgress(func(current, total float64) { progress = append(progress, current/total) }))
	require.NoError(t, err)
	require.Equal(t, LayerGIF, l.Type)
	require.Equal(t, 2, l.FrameCount())
	require.Equal(t, image.Pt(4, 4), l.Size())
	require.Equal(t, 0, l.GIF.LoopCount)
	require.Equal(t, 120*time.Millisecond, l.GIF.TotalDuration)
	require.Equal(t, 1.0, progress[len(progress)-1])
}

func TestImportGIFLimits(t *testing.T) {
	l, err := Import("long.gif", encodeGIF(t, time.Second, time.Second, time.Second), "", WithMaxFrames(2))
	require.NoError(t, err)
	require.Equal(t, 2, l.FrameCount())
}

func TestImportGIFFallback(t *testing.T) {
	logs := &strings.Builder{}
	logger := slog.New(slog.NewTextHandler(logs, nil))

	l, err := Import("huge.gif", encodeGIF(t, time.Second, time.Second), "", WithMaxSize(2), WithLogger(logger))
	require.NoError(t, err)
	require.Equal(t, LayerImage, l.Type)
	require.Nil(t, l.GIF)
	require.Equal(t, image.Pt(4, 4), l.Size())
	require.Zero(t, l.FrameCount())
	require.Contains(t, logs.String(), "static image")
}

func TestImportErrors(t *testing.T) {
	_, err := Import("icon.svg", []byte("<svg></svg>"), "")
	require.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = Import("notes.txt", []byte("hello"), "")
	require.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = Import("broken.png", []byte("\x89PNG\r\n\x1a\nnope"), "")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrUnsupportedFormat)

	_, err = Import("broken.gif", []byte("GIF89a"), "")
	require.Error(t, err)
}

func TestImportJPGAlias(t *testing.T) {
	_, err := Import("photo.jpg", []byte{0xff, 0xd8, 0xff}, "image/jpg")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrUnsupportedFormat)
}
