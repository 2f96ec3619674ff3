package main

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/image/draw"

	"github.com/NathanBaulch/gifstack/scene"
)

func TestDrawASCII(t *testing.T) {
	m := image.NewRGBA(image.Rect(0, 0, 8, 4))
	draw.Draw(m, image.Rect(0, 0, 4, 4), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(m, image.Rect(4, 0, 8, 4), image.NewUniform(color.Black), image.Point{}, draw.Src)

	buf := &bytes.Buffer{}
	require.NoError(t, drawASCII(buf, m, 4))
	require.Equal(t, "██  \n", buf.String())

	buf.Reset()
	require.NoError(t, drawASCII(buf, image.NewRGBA(image.Rect(0, 0, 4, 4)), 4))
	require.Equal(t, "    \n    \n", buf.String())
}

func TestPlayStatic(t *testing.T) {
	stack := &scene.Stack{}
	src := image.NewRGBA(image.Rect(0, 0, 10, 10))
	stack.Add(&scene.Layer{Type: scene.LayerImage, Source: src, Visible: true, Scale: 1, Opacity: 1})

	frames := 0
	buf := &bytes.Buffer{}
	err := play(context.Background(), buf, stack, scene.DefaultSettings(), 30, 1, func(m image.Image) error {
		frames++
		require.Equal(t, image.Rect(0, 0, scene.OutputWidth, scene.OutputHeight), m.Bounds())
		buf.WriteString("frame")
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 1, frames)
	require.Equal(t, "\x1b[2J\x1b[Hframe", buf.String())
}

func TestShowLayers(t *testing.T) {
	stack := &scene.Stack{}
	stack.Add(&scene.Layer{Name: "logo", Type: scene.LayerImage, Source: image.NewRGBA(image.Rect(0, 0, 200, 100))})

	var shown []image.Rectangle
	buf := &bytes.Buffer{}
	require.NoError(t, showLayers(buf, stack, func(m image.Image) error {
		shown = append(shown, m.Bounds())
		return nil
	}))
	require.True(t, strings.HasPrefix(buf.String(), "layer-1 logo (image, 0 frames)"))
	require.Equal(t, []image.Rectangle{image.Rect(0, 0, 96, 48)}, shown)
}
