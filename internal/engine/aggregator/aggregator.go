package aggregator

import "PcapSpectra/internal/model"

// Snapshot holds the six series tables of one run together with the active mode.
// Only Absorb mutates it; once the pass is over it is read-only.
type Snapshot struct {
	mode   model.Mode
	tables [numDimensions]*SeriesTable
}

// NewSnapshot creates an empty snapshot accumulating values according to mode.
func NewSnapshot(mode model.Mode) *Snapshot {
	s := &Snapshot{mode: mode}
	for i := range s.tables {
		s.tables[i] = NewSeriesTable()
	}
	return s
}

// Mode returns the mode the snapshot was built with.
func (s *Snapshot) Mode() model.Mode {
	return s.mode
}

// Table returns the series table of dimension d.
func (s *Snapshot) Table(d Dimension) *SeriesTable {
	return s.tables[d]
}

// Absorb appends one observation for pkt to each of the six tables.
// Every dimension receives the same value at the packet's own timestamp.
func (s *Snapshot) Absorb(pkt *model.PacketInfo) {
	obs := model.Observation{Timestamp: pkt.Timestamp, Value: s.mode.Value(pkt)}
	for _, d := range Dimensions {
		s.tables[d].Append(d.Key(pkt), obs)
	}
}

// Empty reports whether no packet has been absorbed.
func (s *Snapshot) Empty() bool {
	return s.tables[ByFlow].Len() == 0
}

// Copy returns an independent deep copy of the snapshot.
func (s *Snapshot) Copy() *Snapshot {
	c := &Snapshot{mode: s.mode}
	for i, t := range s.tables {
		c.tables[i] = t.Copy()
	}
	return c
}
