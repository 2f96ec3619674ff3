package clock

import (
	"math"
	"time"
)

// State is the playback state of one animated layer.
type State struct {
	Playing bool
	Tick    int           // Current normalized frame.
	Last    time.Duration // Time of the last advance, 0 until the next Step.
	Speed   float64
	Info    Normalized
}

// Step advances s by at most one normalized frame. The first step after a
// play, reset or seek only records now.
func Step(s State, now, interval time.Duration) (State, bool) {
	if !s.Playing {
		return s, false
	}
	if s.Last == 0 {
		s.Last = now
		return s, false
	}
	speed := s.Speed
	if speed <= 0 {
		speed = 1
	}
	delta := time.Duration(float64(now-s.Last) * speed)
	if delta < interval {
		return s, false
	}
	s.Tick = (s.Tick + 1) % s.Info.ticks()
	s.Last = now
	return s, true
}

// Clock drives every animated layer of a scene from a single external
// timer. It owns the per-layer state; callers observe it through the notify
// callback and State. A Clock must not be used concurrently.
type Clock struct {
	fps      float64
	interval time.Duration
	speed    float64
	tracks   []Track
	states   map[string]*State
	notify   func(id string, frame int)
}

// New returns a stopped clock running at fps. notify, if non-nil, receives
// the source frame of a layer whenever it changes.
func New(fps float64, notify func(id string, frame int)) *Clock {
	if fps <= 0 {
		fps = DefaultFPS
	}
	if notify == nil {
		notify = func(string, int) {}
	}
	return &Clock{
		fps:      fps,
		interval: frameInterval(fps),
		speed:    1,
		states:   make(map[string]*State),
		notify:   notify,
	}
}

func frameInterval(fps float64) time.Duration {
	return time.Duration(math.Round(float64(time.Second) / fps))
}

func (c *Clock) FPS() float64 {
	return c.fps
}

// Interval is the time between normalized frames at normal speed.
func (c *Clock) Interval() time.Duration {
	return c.interval
}

// SetTracks replaces the animated layers. State is kept for tracks whose ID
// survives and dropped for the rest. Tracks without frames are ignored.
func (c *Clock) SetTracks(tracks []Track) {
	c.tracks = make([]Track, 0, len(tracks))
	keep := make(map[string]bool, len(tracks))
	for _, t := range tracks {
		if len(t.Delays) == 0 {
			continue
		}
		c.tracks = append(c.tracks, t)
		keep[t.ID] = true
		if s, ok := c.states[t.ID]; ok {
			s.Info = Normalize(t.Delays, c.fps)
			s.Tick = clamp(s.Tick, 0, s.Info.ticks()-1)
		}
	}
	for id := range c.states {
		if !keep[id] {
			delete(c.states, id)
		}
	}
}

// SetFPS changes the target frame rate, renormalizing every track.
func (c *Clock) SetFPS(fps float64) {
	if fps <= 0 {
		return
	}
	c.fps = fps
	c.interval = frameInterval(fps)
	for _, t := range c.tracks {
		if s, ok := c.states[t.ID]; ok {
			s.Info = Normalize(t.Delays, fps)
			s.Tick = clamp(s.Tick, 0, s.Info.ticks()-1)
			s.Last = 0
		}
	}
}

func (c *Clock) state(t Track) *State {
	s, ok := c.states[t.ID]
	if !ok {
		s = &State{Speed: c.speed, Info: Normalize(t.Delays, c.fps)}
		c.states[t.ID] = s
	}
	return s
}

// Play starts every track, continuing from its current frame.
func (c *Clock) Play() {
	for _, t := range c.tracks {
		s := c.state(t)
		s.Playing = true
		s.Last = 0
	}
}

// Pause stops every track, keeping its current frame.
func (c *Clock) Pause() {
	for _, s := range c.states {
		s.Playing = false
	}
}

func (c *Clock) TogglePlayPause() {
	if c.Running() {
		c.Pause()
	} else {
		c.Play()
	}
}

// Reset rewinds every started track to its first frame.
func (c *Clock) Reset() {
	for _, t := range c.tracks {
		if s, ok := c.states[t.ID]; ok {
			s.Tick = 0
			s.Last = 0
			c.notify(t.ID, 0)
		}
	}
}

// SetPlaybackSpeed sets the speed multiplier of every track, clamped to [MinSpeed, MaxSpeed].
func (c *Clock) SetPlaybackSpeed(speed float64) {
	c.speed = math.Max(MinSpeed, math.Min(MaxSpeed, speed))
	for _, s := range c.states {
		s.Speed = c.speed
	}
}

// SetFrame seeks layer id to a source frame, clamped to the track's range.
// Unknown ids are ignored.
func (c *Clock) SetFrame(id string, frame int) {
	for _, t := range c.tracks {
		if t.ID != id {
			continue
		}
		s := c.state(t)
		frame = clamp(frame, 0, len(t.Delays)-1)
		s.Tick = s.Info.Tick(frame)
		s.Last = 0
		c.notify(id, frame)
		return
	}
}

// State returns a copy of the state of layer id.
func (c *Clock) State(id string) (State, bool) {
	if s, ok := c.states[id]; ok {
		return *s, true
	}
	return State{}, false
}

// Running reports whether any track is playing.
func (c *Clock) Running() bool {
	for _, s := range c.states {
		if s.Playing {
			return true
		}
	}
	return false
}

// Advance steps every playing track to now and reports whether further
// ticks are needed.
func (c *Clock) Advance(now time.Duration) bool {
	running := false
	for _, t := range c.tracks {
		s, ok := c.states[t.ID]
		if !ok || !s.Playing {
			continue
		}
		running = true
		next, advanced := Step(*s, now, c.interval)
		*s = next
		if advanced {
			c.notify(t.ID, s.Info.SourceFrame(s.Tick))
		}
	}
	return running
}
