package scene

import (
	"errors"
	"fmt"
	"sort"

	"github.com/NathanBaulch/gifstack/clock"
)

var ErrUnknownLayer = errors.New("scene: unknown layer")

// DuplicateOffset is how far a duplicated layer is moved from its original.
var DuplicateOffset = Point{20, 20}

// Stack owns the layers of a scene.
type Stack struct {
	layers []*Layer
	seq    int
}

// Add assigns l a new ID, places it above every other layer and returns it.
func (s *Stack) Add(l *Layer) *Layer {
	s.seq++
	l.ID = fmt.Sprintf("layer-%d", s.seq)
	l.Z = s.maxZ() + 1
	s.layers = append(s.layers, l)
	return l
}

func (s *Stack) maxZ() int {
	z := -1
	for _, l := range s.layers {
		z = max(z, l.Z)
	}
	return z
}

func (s *Stack) Len() int {
	return len(s.layers)
}

func (s *Stack) Get(id string) (*Layer, bool) {
	for _, l := range s.layers {
		if l.ID == id {
			return l, true
		}
	}
	return nil, false
}

func (s *Stack) get(id string) (*Layer, error) {
	if l, ok := s.Get(id); ok {
		return l, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownLayer, id)
}

func (s *Stack) Remove(id string) error {
	for i, l := range s.layers {
		if l.ID == id {
			s.layers = append(s.layers[:i], s.layers[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownLayer, id)
}

// Update applies fn to layer id. The ID cannot be changed.
func (s *Stack) Update(id string, fn func(*Layer)) error {
	l, err := s.get(id)
	if err != nil {
		return err
	}
	fn(l)
	l.ID = id
	return nil
}

func (s *Stack) ToggleVisibility(id string) error {
	return s.Update(id, func(l *Layer) { l.Visible = !l.Visible })
}

// SetFrame selects the current frame of a gif layer, clamped to its range.
func (s *Stack) SetFrame(id string, frame int) error {
	return s.Update(id, func(l *Layer) { l.Frame = l.clampFrame(frame) })
}

// MoveTo sets the z-index of layer id, shifting every other layer at or
// above z up by one.
func (s *Stack) MoveTo(id string, z int) error {
	target, err := s.get(id)
	if err != nil {
		return err
	}
	for _, l := range s.layers {
		if l != target && l.Z >= z {
			l.Z++
		}
	}
	target.Z = z
	return nil
}

// MoveUp swaps layer id with the layer painted directly above it.
func (s *Stack) MoveUp(id string) error {
	return s.swap(id, 1)
}

// MoveDown swaps layer id with the layer painted directly below it.
func (s *Stack) MoveDown(id string) error {
	return s.swap(id, -1)
}

func (s *Stack) swap(id string, dir int) error {
	layers := s.Layers()
	for i, l := range layers {
		if l.ID != id {
			continue
		}
		j := i + dir
		if j < 0 || j >= len(layers) {
			return nil
		}
		other := layers[j]
		if l.Z == other.Z {
			// Equal z-indices paint in insertion order, so separate them.
			return s.MoveTo(id, other.Z+max(dir, 0))
		}
		l.Z, other.Z = other.Z, l.Z
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownLayer, id)
}

// Reorder assigns z-indices from a top to bottom list naming every layer once.
func (s *Stack) Reorder(ids []string) error {
	if len(ids) != len(s.layers) {
		return fmt.Errorf("scene: reorder lists %d of %d layers", len(ids), len(s.layers))
	}
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if _, ok := s.Get(id); !ok {
			return fmt.Errorf("%w: %q", ErrUnknownLayer, id)
		}
		if seen[id] {
			return fmt.Errorf("scene: reorder lists %q twice", id)
		}
		seen[id] = true
	}
	for i, id := range ids {
		l, _ := s.Get(id)
		l.Z = len(ids) - i
	}
	return nil
}

// Duplicate adds a copy of layer id, offset by DuplicateOffset. Rasters are shared.
func (s *Stack) Duplicate(id string) (*Layer, error) {
	l, err := s.get(id)
	if err != nil {
		return nil, err
	}
	dup := *l
	dup.Name += " (copy)"
	dup.Position = dup.Position.Add(DuplicateOffset)
	return s.Add(&dup), nil
}

// Layers returns the layers in paint order.
func (s *Stack) Layers() []*Layer {
	return paintOrder(s.layers)
}

// Tracks returns the timing of every animated layer in paint order.
func (s *Stack) Tracks() []clock.Track {
	var tracks []clock.Track
	for _, l := range s.Layers() {
		if t, ok := l.Track(); ok {
			tracks = append(tracks, t)
		}
	}
	return tracks
}

func paintOrder(layers []*Layer) []*Layer {
	sorted := append([]*Layer(nil), layers...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Z < sorted[j].Z
	})
	return sorted
}
