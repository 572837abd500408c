package rhythm

import "fmt"

// MarkerKind tells tempo markers from meter markers in an exported marker list.
type MarkerKind int

const (
	TempoMarker MarkerKind = iota
	MeterMarker
)

func (k MarkerKind) String() string {
	if k == MeterMarker {
		return "meter"
	}
	return "tempo"
}

// Marker is one entry of the list a session store saves and loads. Only
// the field matching Kind is meaningful.
type Marker struct {
	Kind     MarkerKind
	Position BBT
	Tempo    Tempo
	Meter    Meter
}

// Markers exports the map as one list ordered by position. At a shared
// position the meter comes first.
func (tm *TempoMap) Markers() []Marker {
	out := make([]Marker, 0, len(tm.tempos)+len(tm.meters))
	i, j := 0, 0
	for i < len(tm.tempos) || j < len(tm.meters) {
		if j < len(tm.meters) && (i == len(tm.tempos) || !tm.tempos[i].bbt.Less(tm.meters[j].bbt)) {
			out = append(out, Marker{Kind: MeterMarker, Position: tm.meters[j].bbt, Meter: tm.meters[j].Meter})
			j++
			continue
		}
		out = append(out, Marker{Kind: TempoMarker, Position: tm.tempos[i].bbt, Tempo: tm.tempos[i].Tempo})
		i++
	}
	return out
}

// FromMarkers builds a map from a saved marker list. The list must hold a
// tempo and a meter at 1|1|0 and no two markers of a kind at one position.
func FromMarkers(markers []Marker) (*TempoMap, error) {
	var (
		ts []TempoPoint
		ms []MeterPoint
	)
	for _, mk := range markers {
		if !mk.Position.IsValid() {
			return nil, fmt.Errorf("%w: %v marker at %v", ErrInvalidBBT, mk.Kind, mk.Position)
		}
		switch mk.Kind {
		case TempoMarker:
			ts = append(ts, TempoPoint{Tempo: mk.Tempo, anchor: anchor{bbt: mk.Position}})
		case MeterMarker:
			ms = append(ms, MeterPoint{Meter: mk.Meter, anchor: anchor{bbt: mk.Position}})
		default:
			return nil, fmt.Errorf("unknown marker kind %d", mk.Kind)
		}
	}
	return build(ts, ms)
}
