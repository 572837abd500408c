package rhythm

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/robmorgan/timeline/timebase"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.Out = io.Discard
	return log
}

func mustTempo(t *testing.T, npm float64) Tempo {
	t.Helper()
	tempo, err := NewTempo(npm, 4)
	require.NoError(t, err)
	return tempo
}

func mustRamp(t *testing.T, from, to float64) Tempo {
	t.Helper()
	tempo, err := NewRampedTempo(from, to, 4)
	require.NoError(t, err)
	return tempo
}

func mustMeter(t *testing.T, divisions, noteValue int) Meter {
	t.Helper()
	m, err := NewMeter(divisions, noteValue)
	require.NoError(t, err)
	return m
}

func bbt(bars, beats, ticks uint32) BBT {
	return BBT{Bars: bars, Beats: beats, Ticks: ticks}
}

// newTestManager starts a session at 120 bpm in 4/4.
func newTestManager(t *testing.T) *Manager {
	t.Helper()
	tm, err := NewTempoMap(mustTempo(t, 120), mustMeter(t, 4, 4))
	require.NoError(t, err)
	return NewManager(tm, quietLogger())
}

// newRichMap builds a map with ramps, odd meters and an off-beat tempo change:
//
//	meters: 4/4 @1, 7/8 @9, 3/4 @13
//	tempos: 120 @1, 90>160 @5, 160 @9, 100 @11|3|960
func newRichMap(t *testing.T) *TempoMap {
	t.Helper()
	m := newTestManager(t)
	wc := m.WriteCopy()

	_, err := wc.SetMeter(mustMeter(t, 7, 8), bbt(9, 1, 0))
	require.NoError(t, err)
	_, err = wc.SetMeter(mustMeter(t, 3, 4), bbt(13, 1, 0))
	require.NoError(t, err)
	_, err = wc.SetTempo(mustRamp(t, 90, 160), bbt(5, 1, 0))
	require.NoError(t, err)
	_, err = wc.SetTempo(mustTempo(t, 160), bbt(9, 1, 0))
	require.NoError(t, err)
	_, err = wc.SetTempo(mustTempo(t, 100), bbt(11, 3, 960))
	require.NoError(t, err)

	require.NoError(t, wc.Commit())
	return m.Current()
}

// superclocksPerUnitAt90 bounds the audio length of one Beats unit in newRichMap.
const superclocksPerUnitAt90 = 188160000/timebase.BeatResolution + 1
