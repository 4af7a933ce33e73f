package fleet

import (
	"sort"
	"sync"

	"github.com/looplab/fsm"

	"github.com/autopeer-io/guardian/internal/guardian/core/model"
)

// unit pairs a record with its lifecycle machine. mu serializes every
// mutation of rec and every machine event.
type unit struct {
	mu      sync.Mutex
	rec     model.UnitRecord
	machine *fsm.FSM
}

func newUnit(rec model.UnitRecord) *unit {
	u := &unit{rec: rec}
	u.machine = newUnitMachine(u)
	return u
}

// snapshot returns a copy of the record. Callers must not hold u.mu.
func (u *unit) snapshot() model.UnitRecord {
	u.mu.Lock()
	defer u.mu.Unlock()
	return copyRecord(u.rec)
}

func copyRecord(rec model.UnitRecord) model.UnitRecord {
	if rec.LandedAt != nil {
		t := *rec.LandedAt
		rec.LandedAt = &t
	}
	return rec
}

// Store is the telemetry store of the fleet. Records are created once and
// never removed.
type Store struct {
	mu    sync.RWMutex
	units map[string]*unit
}

// NewStore creates a store holding the given records.
func NewStore(records ...model.UnitRecord) *Store {
	s := &Store{units: make(map[string]*unit, len(records))}
	for _, rec := range records {
		rec.Battery = model.ClampBattery(rec.Battery)
		s.units[rec.ID] = newUnit(rec)
	}
	return s
}

func (s *Store) get(id string) (*unit, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.units[id]
	return u, ok
}

// list copies the unit set, ordered by id, so callers can iterate without
// holding the store lock.
func (s *Store) list() []*unit {
	s.mu.RLock()
	ids := make([]string, 0, len(s.units))
	for id := range s.units {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	sort.Strings(ids)
	out := make([]*unit, 0, len(ids))
	for _, id := range ids {
		if u, ok := s.get(id); ok {
			out = append(out, u)
		}
	}
	return out
}

// Record returns a copy of one unit's record.
func (s *Store) Record(id string) (model.UnitRecord, bool) {
	u, ok := s.get(id)
	if !ok {
		return model.UnitRecord{}, false
	}
	return u.snapshot(), true
}

// Snapshot returns copies of every record keyed by unit id.
func (s *Store) Snapshot() map[string]model.UnitRecord {
	units := s.list()
	out := make(map[string]model.UnitRecord, len(units))
	for _, u := range units {
		rec := u.snapshot()
		out[rec.ID] = rec
	}
	return out
}

// Len returns the number of units.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.units)
}
