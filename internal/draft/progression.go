package draft

import (
	"alcyxob/coach-dashboard/internal/domain"
	"sort"
)

// ProgressionEntry is one week of a progression group.
type ProgressionEntry struct {
	WeekNumber int          `json:"week_number"`
	DayNumber  int          `json:"day_number"`
	Block      domain.Block `json:"block"`
	Dirty      bool         `json:"dirty"`
}

// Progression collects every block linked by progressionID, ordered by week.
// It scans the whole tree on each call; programs are a few weeks of seven days.
func (s *Store) Progression(progressionID string) []ProgressionEntry {
	out := []ProgressionEntry{}
	if progressionID == "" {
		return out
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, w := range s.weeks {
		for _, d := range w.days {
			for _, b := range d.blocks {
				if b.block.ProgressionID == nil || *b.block.ProgressionID != progressionID {
					continue
				}
				out = append(out, ProgressionEntry{
					WeekNumber: w.meso.WeekNumber,
					DayNumber:  d.day.DayNumber,
					Block:      b.block.Clone(),
					Dirty:      b.dirty,
				})
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].WeekNumber != out[j].WeekNumber {
			return out[i].WeekNumber < out[j].WeekNumber
		}
		return out[i].DayNumber < out[j].DayNumber
	})
	return out
}
