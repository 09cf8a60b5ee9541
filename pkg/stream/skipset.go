package stream

import (
	"maps"
	"slices"
)

// skipSet remembers rows above the cursor that were suppressed when last
// seen, keyed by id with their notification type.
type skipSet struct {
	limit int
	rows  map[int64]string
	// floor is the highest id dropped for space. Scans start above it.
	floor int64
}

func newSkipSet(limit int) *skipSet {
	return &skipSet{limit: limit, rows: make(map[int64]string)}
}

// Add records id. Past the limit the lowest ids are dropped and the floor
// moves up to them, so they are not fetched again on this connection.
func (s *skipSet) Add(id int64, typ string) {
	s.rows[id] = typ
	if len(s.rows) <= s.limit {
		return
	}
	ids := s.IDs()
	for _, drop := range ids[:len(ids)-s.limit] {
		delete(s.rows, drop)
		s.floor = max(s.floor, drop)
	}
}

// Floor returns the highest id dropped for space, 0 when none was.
func (s *skipSet) Floor() int64 { return s.floor }

// Release forgets every row of typ.
func (s *skipSet) Release(typ string) {
	maps.DeleteFunc(s.rows, func(_ int64, t string) bool { return t == typ })
}

// Prune forgets rows at or below the cursor.
func (s *skipSet) Prune(cursor int64) {
	maps.DeleteFunc(s.rows, func(id int64, _ string) bool { return id <= cursor })
}

// Types returns the distinct types held.
func (s *skipSet) Types() []string {
	seen := make(map[string]struct{}, len(s.rows))
	for _, t := range s.rows {
		seen[t] = struct{}{}
	}
	return slices.Sorted(maps.Keys(seen))
}

// IDs returns the held ids in ascending order.
func (s *skipSet) IDs() []int64 {
	return slices.Sorted(maps.Keys(s.rows))
}

func (s *skipSet) Len() int { return len(s.rows) }
