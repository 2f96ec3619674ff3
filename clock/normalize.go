package clock

import (
	"math"
	"time"
)

const (
	DefaultFPS = 29.97

	// DefaultDelay is the output frame delay of a scene without animated layers, 1000/DefaultFPS rounded.
	DefaultDelay = 33 * time.Millisecond

	// MinDelay is the shortest delay written to an exported frame.
	MinDelay = 10 * time.Millisecond

	MinSpeed = 0.1
	MaxSpeed = 5.0
)

// Track is the timing of one animated layer: one delay per source frame.
type Track struct {
	ID     string
	Delays []time.Duration
}

// Normalized maps a track with variable frame delays onto a fixed rate timeline.
type Normalized struct {
	TotalDuration        time.Duration
	NormalizedFrameCount int
	OriginalFrameCount   int
	FrameSkipRatio       float64 // Source frames per normalized tick.
}

// Normalize computes the fixed rate timeline of delays at fps frames per second.
func Normalize(delays []time.Duration, fps float64) Normalized {
	var n Normalized
	for _, d := range delays {
		n.TotalDuration += d
	}
	n.OriginalFrameCount = len(delays)
	interval := 1000 / fps
	n.NormalizedFrameCount = int(math.Ceil(ms(n.TotalDuration) / interval))
	n.FrameSkipRatio = float64(n.OriginalFrameCount) / float64(max(n.NormalizedFrameCount, 1))
	return n
}

// SourceFrame returns the source frame shown at normalized tick.
func (n Normalized) SourceFrame(tick int) int {
	i := int(math.Floor(float64(tick) * n.FrameSkipRatio))
	return clamp(i, 0, n.OriginalFrameCount-1)
}

// Tick returns the normalized tick at which source frame is shown.
func (n Normalized) Tick(source int) int {
	if n.FrameSkipRatio <= 0 {
		return 0
	}
	t := int(math.Round(float64(source) / n.FrameSkipRatio))
	return clamp(t, 0, n.NormalizedFrameCount-1)
}

func (n Normalized) ticks() int {
	return max(n.NormalizedFrameCount, 1)
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func clamp(v, lo, hi int) int {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}
