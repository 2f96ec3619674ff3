package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestScheduleWithoutTracks(t *testing.T) {
	ticks := Schedule(nil)
	require.Len(t, ticks, 1)
	require.Equal(t, DefaultDelay, ticks[0].Delay)
	require.Empty(t, ticks[0].Frames)

	require.Equal(t, 33*time.Millisecond, DefaultDelay)
	require.Equal(t, 1, FrameCount([]Track{{ID: "empty"}}))
}

func TestScheduleMixedLengths(t *testing.T) {
	tracks := []Track{
		{ID: "slow", Delays: delays(100, 100, 100)},
		{ID: "fast", Delays: delays(50, 50, 50, 50, 50)},
	}
	ticks := Schedule(tracks)
	require.Len(t, ticks, 5)
	for k, tick := range ticks {
		require.Equal(t, k, tick.Index)
		require.Equal(t, 50*time.Millisecond, tick.Delay)
		require.Equal(t, map[string]int{"slow": k % 3, "fast": k % 5}, tick.Frames)
	}
}

func TestDelayAt(t *testing.T) {
	tracks := []Track{
		{ID: "a", Delays: delays(100, 20, 0)},
		{ID: "b", Delays: delays(40, 60)},
	}
	require.Equal(t, 40*time.Millisecond, DelayAt(tracks, 0))
	require.Equal(t, 20*time.Millisecond, DelayAt(tracks, 1))
	require.Equal(t, MinDelay, DelayAt(tracks, 2), "clamped to the floor")
	require.Equal(t, 60*time.Millisecond, DelayAt(tracks, 3))
}

func TestSummarize(t *testing.T) {
	s := Summarize(Schedule([]Track{{ID: "a", Delays: delays(40, 60)}}))
	require.Equal(t, 2, s.Frames)
	require.Equal(t, 100*time.Millisecond, s.TotalDuration)
	require.Equal(t, 50*time.Millisecond, s.AverageDelay)
	require.Equal(t, 20.0, s.FPS)

	s = Summarize(Schedule(nil))
	require.Equal(t, 1, s.Frames)
	require.Equal(t, 30.3, s.FPS)

	require.Zero(t, Summarize(nil))
}
