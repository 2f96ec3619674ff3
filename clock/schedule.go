package clock

import (
	"math"
	"time"
)

// Tick is one frame of an exported animation.
type Tick struct {
	Index  int
	Delay  time.Duration
	Frames map[string]int // Source frame per track ID.
}

// FrameCount is the number of exported frames: the longest track, and at least one.
func FrameCount(tracks []Track) int {
	n := 1
	for _, t := range tracks {
		n = max(n, len(t.Delays))
	}
	return n
}

// DelayAt returns the delay of exported frame k: the shortest delay among the
// frames shown at k, no less than MinDelay, or DefaultDelay without tracks.
func DelayAt(tracks []Track, k int) time.Duration {
	d := time.Duration(-1)
	for _, t := range tracks {
		if len(t.Delays) == 0 {
			continue
		}
		if td := t.Delays[k%len(t.Delays)]; d < 0 || td < d {
			d = td
		}
	}
	if d < 0 {
		return DefaultDelay
	}
	return max(d, MinDelay)
}

// Schedule lays out every exported frame. Each track loops independently, so
// frame k shows source frame k mod len of every track.
func Schedule(tracks []Track) []Tick {
	ticks := make([]Tick, FrameCount(tracks))
	for k := range ticks {
		frames := make(map[string]int, len(tracks))
		for _, t := range tracks {
			if len(t.Delays) > 0 {
				frames[t.ID] = k % len(t.Delays)
			}
		}
		ticks[k] = Tick{Index: k, Delay: DelayAt(tracks, k), Frames: frames}
	}
	return ticks
}

type Summary struct {
	Frames        int
	TotalDuration time.Duration
	AverageDelay  time.Duration
	FPS           float64 // Rounded to 1 decimal.
}

func Summarize(ticks []Tick) Summary {
	s := Summary{Frames: len(ticks)}
	if len(ticks) == 0 {
		return s
	}
	for _, t := range ticks {
		s.TotalDuration += t.Delay
	}
	s.AverageDelay = s.TotalDuration / time.Duration(len(ticks))
	if s.AverageDelay > 0 {
		s.FPS = math.Round(float64(time.Second)/float64(s.AverageDelay)*10) / 10
	}
	return s
}
