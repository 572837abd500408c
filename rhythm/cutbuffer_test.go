package rhythm

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robmorgan/timeline/timebase"
)

// newCutCopy returns a working copy holding
//
//	meters: 4/4 @1, 3/4 @5
//	tempos: 120 @1, 140 @3|2|0, 100 @6, 90 @9
func newCutCopy(t *testing.T) *WorkingCopy {
	t.Helper()
	wc := newTestManager(t).WriteCopy()
	_, err := wc.SetTempo(mustTempo(t, 140), bbt(3, 2, 0))
	require.NoError(t, err)
	_, err = wc.SetTempo(mustTempo(t, 100), bbt(6, 1, 0))
	require.NoError(t, err)
	_, err = wc.SetTempo(mustTempo(t, 90), bbt(9, 1, 0))
	require.NoError(t, err)
	_, err = wc.SetMeter(mustMeter(t, 3, 4), bbt(5, 1, 0))
	require.NoError(t, err)
	return wc
}

func TestCopy(t *testing.T) {
	t.Parallel()

	tm := newCutCopy(t).Map()

	buf, err := tm.Copy(timebase.QuarterNotes(8), timebase.QuarterNotes(22), false)
	require.NoError(t, err)

	assert.Equal(t, timebase.QuarterNotes(14), buf.Duration())
	_, ok := buf.Position()
	assert.False(t, ok)
	assert.Equal(t, 120.0, buf.StartTempo().NotesPerMinute())
	assert.Equal(t, "4/4", buf.StartMeter().String())

	require.Len(t, buf.Tempos(), 2)
	assert.Equal(t, timebase.QuarterNotes(1), buf.Tempos()[0].Offset)
	assert.Equal(t, 140.0, buf.Tempos()[0].Tempo.NotesPerMinute())
	assert.Equal(t, timebase.QuarterNotes(11), buf.Tempos()[1].Offset)
	require.Len(t, buf.Meters(), 1)
	assert.Equal(t, timebase.QuarterNotes(8), buf.Meters()[0].Offset)

	empty, err := tm.Copy(timebase.QuarterNotes(23), timebase.QuarterNotes(24), false)
	require.NoError(t, err)
	assert.True(t, empty.Empty())

	_, err = tm.Copy(timebase.QuarterNotes(4), timebase.QuarterNotes(4), false)
	require.ErrorIs(t, err, ErrInvalidRange)
}

func TestCutThenPasteRestoresMap(t *testing.T) {
	t.Parallel()

	wc := newCutCopy(t)
	original := wc.Map()

	buf, err := wc.Cut(timebase.QuarterNotes(8), timebase.QuarterNotes(22), false)
	require.NoError(t, err)
	assert.Len(t, wc.Map().Tempos(), 2)
	assert.Len(t, wc.Map().Meters(), 1)

	// with the 3/4 bars gone the tempo at 9|1|0 keeps its quarter note position
	tp, err := wc.Map().TempoPointAtBBT(bbt(8, 1, 0))
	require.NoError(t, err)
	assert.Equal(t, 90.0, tp.NotesPerMinute())
	assert.Equal(t, timebase.QuarterNotes(28), tp.Beats())

	require.NoError(t, wc.Paste(buf, timebase.QuarterNotes(8)))
	assert.True(t, original.Equal(wc.Map()))
}

func TestCutKeepsInitialMarkers(t *testing.T) {
	t.Parallel()

	wc := newCutCopy(t)
	original := wc.Map()

	buf, err := wc.Cut(0, timebase.QuarterNotes(8), true)
	require.NoError(t, err)
	require.Len(t, buf.Tempos(), 1)
	require.Len(t, buf.Meters(), 1)
	assert.Equal(t, timebase.Beats(0), buf.Tempos()[0].Offset)

	// nothing but the initial markers lay in the range
	assert.True(t, original.Equal(wc.Map()))

	pos, ok := buf.Position()
	require.True(t, ok)
	assert.Equal(t, timebase.Beats(0), pos)
	require.NoError(t, wc.PasteBack(buf))
	assert.True(t, original.Equal(wc.Map()))
}

func TestPasteBackNeedsPosition(t *testing.T) {
	t.Parallel()

	wc := newCutCopy(t)
	buf, err := wc.Map().Copy(timebase.QuarterNotes(8), timebase.QuarterNotes(22), false)
	require.NoError(t, err)

	require.ErrorIs(t, wc.PasteBack(buf), ErrNoPosition)
}

func TestPasteSnapsMeterToNextBar(t *testing.T) {
	t.Parallel()

	wc := newCutCopy(t)
	buf, err := wc.Map().Copy(timebase.QuarterNotes(16), timebase.QuarterNotes(17), false)
	require.NoError(t, err)
	require.Len(t, buf.Meters(), 1)

	// a quarter past bar 2
	require.NoError(t, wc.Paste(buf, timebase.QuarterNotes(5)))

	mp, err := wc.Map().MeterPointAtBBT(bbt(3, 1, 0))
	require.NoError(t, err)
	assert.Equal(t, bbt(3, 1, 0), mp.BBT())
	assert.Equal(t, "3/4", mp.String())
}

// newCompoundCopy returns a working copy in 4/4 with 6/8 from bar 3 and a
// tempo on the fifth eighth of bar 4, a beat 4/4 bars do not have.
func newCompoundCopy(t *testing.T) (*WorkingCopy, MeterPoint) {
	t.Helper()
	wc := newTestManager(t).WriteCopy()
	mp, err := wc.SetMeter(mustMeter(t, 6, 8), bbt(3, 1, 0))
	require.NoError(t, err)
	tp, err := wc.SetTempo(mustTempo(t, 150), bbt(4, 5, 0))
	require.NoError(t, err)
	require.Equal(t, timebase.QuarterNotes(13), tp.Beats())
	return wc, mp
}

func TestCutMeterBeforeOffBeatTempo(t *testing.T) {
	t.Parallel()

	wc, _ := newCompoundCopy(t)
	original := wc.Map()

	buf, err := wc.Cut(timebase.QuarterNotes(8), timebase.QuarterNotes(11), false)
	require.NoError(t, err)
	require.Len(t, buf.Meters(), 1)
	assert.Empty(t, buf.Tempos())

	tp, err := wc.Map().TempoPointAtBeats(timebase.QuarterNotes(13))
	require.NoError(t, err)
	assert.Equal(t, 150.0, tp.NotesPerMinute())
	assert.Equal(t, bbt(4, 2, 0), tp.BBT())
	assert.Equal(t, timebase.QuarterNotes(13), tp.Beats())

	require.NoError(t, wc.Paste(buf, timebase.QuarterNotes(8)))
	assert.True(t, original.Equal(wc.Map()))
}

func TestPasteRoundsToDestinationTick(t *testing.T) {
	t.Parallel()

	wc := newTestManager(t).WriteCopy()
	_, err := wc.SetMeter(mustMeter(t, 7, 16), bbt(2, 1, 0))
	require.NoError(t, err)
	_, err = wc.SetTempo(mustTempo(t, 100), bbt(2, 1, 1))
	require.NoError(t, err)

	// one 7/16 tick is 8 units, a 4/4 tick is 32
	buf, err := wc.Map().Copy(timebase.QuarterNotes(4)+1, timebase.QuarterNotes(5), false)
	require.NoError(t, err)
	require.Len(t, buf.Tempos(), 1)
	require.Empty(t, buf.Meters())
	assert.Equal(t, timebase.Beats(7), buf.Tempos()[0].Offset)

	require.NoError(t, wc.Paste(buf, timebase.QuarterNotes(1)))
	tp, err := wc.Map().TempoPointAtBBT(bbt(1, 2, 0))
	require.NoError(t, err)
	assert.Equal(t, 100.0, tp.NotesPerMinute())
	assert.Equal(t, bbt(1, 2, 0), tp.BBT())
	assert.Equal(t, timebase.QuarterNotes(1), tp.Beats())
}

func TestRippleCutThenInsertRestoresMap(t *testing.T) {
	t.Parallel()

	wc := newCutCopy(t)
	original := wc.Map()
	start, end := timebase.QuarterNotes(8), timebase.QuarterNotes(22)

	buf, err := wc.Cut(start, end, true)
	require.NoError(t, err)
	require.NoError(t, wc.RemoveTime(start, end))

	// the tempo that sat 28 quarters in slid back 14 quarters into 4/4 bars
	tp, err := wc.Map().TempoPointAtBeats(timebase.QuarterNotes(14))
	require.NoError(t, err)
	assert.Equal(t, 90.0, tp.NotesPerMinute())
	assert.Equal(t, bbt(4, 3, 0), tp.BBT())

	require.NoError(t, wc.InsertTime(start, end-start))
	require.NoError(t, wc.PasteBack(buf))
	assert.True(t, original.Equal(wc.Map()))
}

func TestInsertThenRemoveTimeRestoresMap(t *testing.T) {
	t.Parallel()

	wc := newTestManager(t).WriteCopy()
	_, err := wc.SetTempo(mustTempo(t, 150), bbt(4, 1, 0))
	require.NoError(t, err)
	_, err = wc.SetTempo(mustTempo(t, 130), bbt(7, 1, 0))
	require.NoError(t, err)
	original := wc.Map()

	require.NoError(t, wc.InsertTime(timebase.QuarterNotes(4), timebase.QuarterNotes(8)))
	tp, err := wc.Map().TempoPointAtBBT(bbt(6, 1, 0))
	require.NoError(t, err)
	assert.Equal(t, 150.0, tp.NotesPerMinute())
	assert.Equal(t, bbt(6, 1, 0), tp.BBT())

	require.NoError(t, wc.RemoveTime(timebase.QuarterNotes(4), timebase.QuarterNotes(12)))
	assert.True(t, original.Equal(wc.Map()))

	require.ErrorIs(t, wc.RemoveTime(timebase.QuarterNotes(4), timebase.QuarterNotes(4)), ErrInvalidRange)
	require.ErrorIs(t, wc.InsertTime(timebase.QuarterNotes(4), 0), ErrInvalidRange)
}

func TestCutBufferDump(t *testing.T) {
	t.Parallel()

	wc := newCutCopy(t)
	buf, err := wc.Cut(timebase.QuarterNotes(8), timebase.QuarterNotes(22), true)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, buf.Dump(&out))

	assert.Equal(t,
		"cut buffer: duration 14:0 from 8:0, starts in 4/4 at 120.00 bpm (1/4)\n"+
			"  tempo +1:0 140.00 bpm (1/4)\n"+
			"  tempo +11:0 100.00 bpm (1/4)\n"+
			"  meter +8:0 3/4\n",
		out.String())
}
