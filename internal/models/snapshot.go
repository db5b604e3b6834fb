package models

import "time"

// Snapshot is one complete crisis list as produced by a single load cycle.
// A newer snapshot always replaces the previous one wholesale.
type Snapshot struct {
	Generation uint64
	Source     string // name of the fallback stage that produced it
	LoadedAt   time.Time
	Crises     []Crisis
}

func (s *Snapshot) Contains(id string) bool {
	for i := range s.Crises {
		if s.Crises[i].ID == id {
			return true
		}
	}
	return false
}
