package scene

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/require"
)

const testDocument = `{
	"canvas": {"width": 800, "height": 600, "backgroundColor": "#000"},
	"layers": [
		{"path": "logo.png", "name": "Logo", "position": {"x": 10, "y": 20}, "opacity": 2},
		{"path": "anim/dance.gif", "hidden": true, "frame": 5, "scale": 3, "rotation": 45}
	]
}`

func TestReadDocument(t *testing.T) {
	doc, err := ReadDocument(strings.NewReader(testDocument))
	require.NoError(t, err)
	require.Equal(t, CanvasSettings{Width: 800, Height: 600, BackgroundColor: "#000", OutputFormat: "png", Quality: 100}, doc.Canvas)
	require.Len(t, doc.Layers, 2)

	doc, err = ReadDocument(strings.NewReader(`{}`))
	require.NoError(t, err)
	require.Equal(t, DefaultSettings(), doc.Canvas)

	for _, bad := range []string{
		`{"canvas": {"width": 0}}`,
		`{"canvas": {"backgroundColor": "#zz"}}`,
		`{"layers": [{"path": "a.png", "blend": "multiply"}]}`,
		`[`,
	} {
		_, err := ReadDocument(strings.NewReader(bad))
		require.Error(t, err, bad)
	}
}

func TestReadDocumentLayerPath(t *testing.T) {
	for _, path := range []string{"../logo.png", "/tmp/logo.png", "anim/../../logo.png", ""} {
		_, err := ReadDocument(strings.NewReader(`{"layers": [{"path": "` + path + `"}]}`))
		require.ErrorContains(t, err, "within the document directory", path)
	}
	_, err := ReadDocument(strings.NewReader(`{"layers": [{"path": "anim/dance.gif"}]}`))
	require.NoError(t, err)
}

func TestDocumentBuild(t *testing.T) {
	fsys := fstest.MapFS{
		"logo.png":       {Data: encodePNG(t, 40, 20)},
		"anim/dance.gif": {Data: encodeGIF(t, 50*time.Millisecond, 50*time.Millisecond)},
	}
	doc, err := ReadDocument(strings.NewReader(testDocument))
	require.NoError(t, err)

	s, err := doc.Build(fsys)
	require.NoError(t, err)
	layers := s.Layers()
	require.Len(t, layers, 2)

	logo := layers[0]
	require.Equal(t, "Logo", logo.Name)
	require.Equal(t, Point{10, 20}, logo.Position)
	require.Equal(t, 1.0, logo.Opacity)
	require.True(t, logo.Visible)

	anim := layers[1]
	require.Equal(t, "dance", anim.Name)
	require.Equal(t, LayerGIF, anim.Type)
	require.Equal(t, Point{400, 300}, anim.Position)
	require.False(t, anim.Visible)
	require.Equal(t, 1, anim.Frame)
	require.Equal(t, 3.0, anim.Scale)
	require.Equal(t, 45.0, anim.Rotation)
	require.Len(t, s.Tracks(), 1)

	delete(fsys, "logo.png")
	_, err = doc.Build(fsys)
	require.Error(t, err)
}

func TestLoadDocument(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "anim"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "logo.png"), encodePNG(t, 40, 20), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "anim", "dance.gif"), encodeGIF(t, time.Second), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scene.json"), []byte(testDocument), 0o644))

	settings, s, err := LoadDocument(filepath.Join(dir, "scene.json"))
	require.NoError(t, err)
	require.Equal(t, 800, settings.Width)
	require.Equal(t, 2, s.Len())

	_, _, err = LoadDocument(filepath.Join(dir, "missing.json"))
	require.Error(t, err)
}
