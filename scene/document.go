package scene

import (
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Document is a scene stored as JSON: canvas settings plus layers that
// reference image files.
type Document struct {
	Canvas CanvasSettings `json:"canvas"`
	Layers []LayerSpec    `json:"layers"`
}

// LayerSpec describes one layer of a Document, listed bottom to top. Unset
// fields keep the values Import chose.
type LayerSpec struct {
	// Path is relative to the document's directory, using forward slashes,
	// and may not be absolute or climb out of that directory with "..".
	Path     string   `json:"path"`
	Name     string   `json:"name,omitempty"`
	Hidden   bool     `json:"hidden,omitempty"`
	Position *Point   `json:"position,omitempty"`
	Scale    *float64 `json:"scale,omitempty"`
	Opacity  *float64 `json:"opacity,omitempty"`
	Rotation float64  `json:"rotation,omitempty"`
	Frame    int      `json:"frame,omitempty"`
}

// ReadDocument parses a JSON document, filling unset canvas settings with defaults.
func ReadDocument(r io.Reader) (*Document, error) {
	doc := &Document{Canvas: DefaultSettings()}
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(doc); err != nil {
		return nil, fmt.Errorf("scene: reading document: %w", err)
	}
	if doc.Canvas.Width <= 0 || doc.Canvas.Height <= 0 {
		return nil, fmt.Errorf("scene: invalid canvas size %dx%d", doc.Canvas.Width, doc.Canvas.Height)
	}
	if _, err := doc.Canvas.Background(); err != nil {
		return nil, err
	}
	for i, ls := range doc.Layers {
		if !fs.ValidPath(filepath.ToSlash(ls.Path)) {
			return nil, fmt.Errorf("scene: layer %d: path %q must be relative and within the document directory", i, ls.Path)
		}
	}
	return doc, nil
}

// Build imports every layer, resolving paths within fsys.
func (d *Document) Build(fsys fs.FS, o ...option) (*Stack, error) {
	o = append([]option{WithSettings(d.Canvas)}, o...)
	s := &Stack{}
	for _, ls := range d.Layers {
		data, err := fs.ReadFile(fsys, filepath.ToSlash(ls.Path))
		if err != nil {
			return nil, fmt.Errorf("scene: reading layer: %w", err)
		}
		l, err := Import(ls.Path, data, "", o...)
		if err != nil {
			return nil, err
		}
		ls.apply(l)
		s.Add(l)
	}
	return s, nil
}

func (ls LayerSpec) apply(l *Layer) {
	if ls.Name != "" {
		l.Name = ls.Name
	}
	l.Visible = !ls.Hidden
	if ls.Position != nil {
		l.Position = *ls.Position
	}
	if ls.Scale != nil {
		l.Scale = *ls.Scale
	}
	if ls.Opacity != nil {
		l.Opacity = min(max(*ls.Opacity, 0), 1)
	}
	l.Rotation = ls.Rotation
	l.Frame = l.clampFrame(ls.Frame)
}

// LoadDocument reads the document at path and imports its layers relative to
// the document's directory.
func LoadDocument(path string, o ...option) (CanvasSettings, *Stack, error) {
	f, err := os.Open(path)
	if err != nil {
		return CanvasSettings{}, nil, err
	}
	defer f.Close()

	doc, err := ReadDocument(f)
	if err != nil {
		return CanvasSettings{}, nil, err
	}
	s, err := doc.Build(os.DirFS(filepath.Dir(path)), o...)
	if err != nil {
		return CanvasSettings{}, nil, err
	}
	return doc.Canvas, s, nil
}
