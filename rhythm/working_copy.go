package rhythm

import (
	goerrors "github.com/gruntwork-io/go-commons/errors"
	"github.com/sirupsen/logrus"

	"github.com/robmorgan/timeline/timebase"
)

type copyState int

const (
	stateWritable copyState = iota
	stateCommitted
	stateAborted
)

func (s copyState) String() string {
	switch s {
	case stateWritable:
		return "writable"
	case stateCommitted:
		return "committed"
	}
	return "aborted"
}

// WorkingCopy is a private, editable version of the tempo map. Edits are
// invisible to readers of the manager until Commit publishes them as one
// batch. Abort drops them.
//
// A WorkingCopy belongs to a single editor goroutine.
type WorkingCopy struct {
	manager *Manager
	base    *TempoMap
	tm      *TempoMap
	state   copyState
	log     *logrus.Logger
}

// Map returns the edited map as it stands. The result is immutable and stays
// valid after further edits.
func (wc *WorkingCopy) Map() *TempoMap { return wc.tm }

// Base returns the published map this copy was taken from.
func (wc *WorkingCopy) Base() *TempoMap { return wc.base }

// Writable reports whether the copy still accepts edits.
func (wc *WorkingCopy) Writable() bool { return wc.state == stateWritable }

func (wc *WorkingCopy) apply(op string, fields logrus.Fields, edit func(*TempoMap) (*TempoMap, error)) error {
	if wc.state != stateWritable {
		return ErrNotWritable
	}

	next, err := edit(wc.tm)
	if err != nil {
		entry := wc.log.WithFields(fields).WithField("op", op)
		if isFatal(err) {
			err = goerrors.WithStackTrace(err)
			entry.WithError(err).Error("tempo map recompute failed, edit aborted")
			return err
		}
		entry.WithError(err).Debug("tempo map edit rejected")
		return err
	}

	wc.tm = next
	return nil
}

// SetTempo places t at the given position, replacing any tempo already there.
func (wc *WorkingCopy) SetTempo(t Tempo, at BBT) (TempoPoint, error) {
	err := wc.apply("set_tempo", logrus.Fields{"tempo": t, "at": at}, func(tm *TempoMap) (*TempoMap, error) {
		return tm.withTempo(t, at)
	})
	if err != nil {
		return TempoPoint{}, err
	}
	return wc.tm.TempoPointAtBBT(at)
}

// SetTempoAtSuperclock places t at the BBT tick containing sc.
func (wc *WorkingCopy) SetTempoAtSuperclock(t Tempo, sc timebase.Superclock) (TempoPoint, error) {
	at, err := wc.tm.BBTAt(sc)
	if err != nil {
		return TempoPoint{}, err
	}
	return wc.SetTempo(t, at)
}

// SetMeter places m on the bar line at, replacing any meter already there.
func (wc *WorkingCopy) SetMeter(m Meter, at BBT) (MeterPoint, error) {
	err := wc.apply("set_meter", logrus.Fields{"meter": m, "at": at}, func(tm *TempoMap) (*TempoMap, error) {
		return tm.withMeter(m, at)
	})
	if err != nil {
		return MeterPoint{}, err
	}
	return wc.tm.MeterPointAtBBT(at)
}

// RemoveTempo deletes the tempo marker anchored where tp is.
func (wc *WorkingCopy) RemoveTempo(tp TempoPoint) error {
	return wc.apply("remove_tempo", logrus.Fields{"at": tp.bbt}, func(tm *TempoMap) (*TempoMap, error) {
		return tm.withoutTempo(tp.bbt)
	})
}

// RemoveMeter deletes the meter marker anchored where mp is. Later tempos
// keep their quarter note position and take the BBT it has under the
// remaining meters.
func (wc *WorkingCopy) RemoveMeter(mp MeterPoint) error {
	return wc.apply("remove_meter", logrus.Fields{"at": mp.bbt}, func(tm *TempoMap) (*TempoMap, error) {
		return tm.withoutMeter(mp.bbt)
	})
}

// MoveTempo re-anchors a tempo marker, replacing any tempo at the destination.
func (wc *WorkingCopy) MoveTempo(tp TempoPoint, to BBT) (TempoPoint, error) {
	err := wc.apply("move_tempo", logrus.Fields{"from": tp.bbt, "to": to}, func(tm *TempoMap) (*TempoMap, error) {
		current, err := tm.TempoPointAtBBT(tp.bbt)
		if err != nil {
			return nil, err
		}
		removed, err := tm.withoutTempo(tp.bbt)
		if err != nil {
			return nil, err
		}
		return removed.withTempo(current.Tempo, to)
	})
	if err != nil {
		return TempoPoint{}, err
	}
	return wc.tm.TempoPointAtBBT(to)
}

// MoveMeter re-anchors a meter marker onto another bar line.
func (wc *WorkingCopy) MoveMeter(mp MeterPoint, to BBT) (MeterPoint, error) {
	err := wc.apply("move_meter", logrus.Fields{"from": mp.bbt, "to": to}, func(tm *TempoMap) (*TempoMap, error) {
		current, err := tm.MeterPointAtBBT(mp.bbt)
		if err != nil {
			return nil, err
		}
		removed, err := tm.withoutMeter(mp.bbt)
		if err != nil {
			return nil, err
		}
		return removed.withMeter(current.Meter, to)
	})
	if err != nil {
		return MeterPoint{}, err
	}
	return wc.tm.MeterPointAtBBT(to)
}

// Cut removes the markers anchored in [start, end) and returns them. The
// initial markers are copied into the buffer but stay in the map. Time does
// not close up: when a meter goes, later tempos keep their quarter note
// position and later meters keep their bar.
func (wc *WorkingCopy) Cut(start, end timebase.Beats, withPos bool) (*CutBuffer, error) {
	var buf *CutBuffer
	err := wc.apply("cut", logrus.Fields{"start": start, "end": end}, func(tm *TempoMap) (*TempoMap, error) {
		var err error
		buf, err = tm.Copy(start, end, withPos)
		if err != nil {
			return nil, err
		}
		return tm.withoutRange(start, end)
	})
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// Paste inserts the buffer's markers at the given position. Markers already
// at a pasted anchor are replaced. Each marker lands on the BBT tick at or
// before its position under the meter it falls in, so an offset finer than
// that meter's tick moves back to the tick. A pasted meter moves forward to
// the next bar line, and existing tempos after it keep their quarter note
// position.
func (wc *WorkingCopy) Paste(buf *CutBuffer, at timebase.Beats) error {
	return wc.apply("paste", logrus.Fields{"at": at, "duration": buf.duration}, func(tm *TempoMap) (*TempoMap, error) {
		return tm.withPaste(buf, at)
	})
}

// PasteBack pastes the buffer where it was cut from.
func (wc *WorkingCopy) PasteBack(buf *CutBuffer) error {
	at, ok := buf.Position()
	if !ok {
		return ErrNoPosition
	}
	return wc.Paste(buf, at)
}

// RemoveTime deletes [start, end) from the timeline: markers inside go and
// markers after it move earlier by its length.
func (wc *WorkingCopy) RemoveTime(start, end timebase.Beats) error {
	return wc.apply("remove_time", logrus.Fields{"start": start, "end": end}, func(tm *TempoMap) (*TempoMap, error) {
		return tm.withoutTime(start, end)
	})
}

// InsertTime opens a gap of the given length at a position, moving later markers back.
func (wc *WorkingCopy) InsertTime(at, length timebase.Beats) error {
	return wc.apply("insert_time", logrus.Fields{"at": at, "length": length}, func(tm *TempoMap) (*TempoMap, error) {
		return tm.withTime(at, length)
	})
}

// Commit publishes the copy through its manager.
func (wc *WorkingCopy) Commit() error { return wc.manager.Commit(wc) }

// Abort discards the copy. It is always safe to call.
func (wc *WorkingCopy) Abort() { wc.manager.Abort(wc) }
