package draft

import "alcyxob/coach-dashboard/internal/domain"

// IsDirty reports whether anything is waiting to be saved.
func (s *Store) IsDirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.pending) > 0 {
		return true
	}
	for _, d := range s.days {
		if d.dirty {
			return true
		}
	}
	for _, b := range s.blocks {
		if b.dirty {
			return true
		}
	}
	return false
}

// DirtyDays returns the unsaved days in week and day order.
func (s *Store) DirtyDays() []DayView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []DayView
	for _, w := range s.weeks {
		for n := 1; n <= domain.DaysPerWeek; n++ {
			if d, ok := w.days[n]; ok && d.dirty {
				out = append(out, d.view())
			}
		}
	}
	return out
}

// DirtyBlocks returns the unsaved blocks in tree order.
func (s *Store) DirtyBlocks() []BlockView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []BlockView
	for _, w := range s.weeks {
		for n := 1; n <= domain.DaysPerWeek; n++ {
			d, ok := w.days[n]
			if !ok {
				continue
			}
			for _, b := range d.blocks {
				if b.dirty {
					out = append(out, b.view())
				}
			}
		}
	}
	return out
}

// PendingBlockDeletes returns the persisted block ids removed since the last save.
func (s *Store) PendingBlockDeletes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.pending...)
}

// MarkDaySaved records that the day known as id was written at revision and
// the gateway returned saved. The day is re-keyed when the gateway assigned a
// new id. Edits made after revision keep the day dirty.
func (s *Store) MarkDaySaved(id string, revision uint64, saved domain.Day) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.days[id]
	if !ok {
		return false
	}
	if saved.ID == "" {
		saved.ID = id
	}
	if saved.ID != id {
		delete(s.days, id)
		s.days[saved.ID] = d
		for _, b := range d.blocks {
			b.block.DayID = saved.ID
		}
	}
	d.persisted = true
	if d.rev == revision {
		d.day = saved.Clone()
		d.dirty = false
		return true
	}
	d.day.ID = saved.ID
	d.day.CreatedAt = saved.CreatedAt
	d.day.UpdatedAt = saved.UpdatedAt
	return true
}

// MarkBlockSaved records that the block known as id was written at revision.
// A block removed while its write was in flight no longer has a node; the
// row the gateway wrote is queued for deletion and false is returned.
func (s *Store) MarkBlockSaved(id string, revision uint64, saved domain.Block) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.blocks[id]
	if !ok {
		if saved.ID != "" {
			s.queueDelete(saved.ID)
		}
		return false
	}
	if saved.ID == "" {
		saved.ID = id
	}
	if saved.ID != id {
		delete(s.blocks, id)
		s.blocks[saved.ID] = b
	}
	b.persisted = true
	if b.rev == revision {
		b.block = saved.Clone()
		b.dirty = false
		return true
	}
	b.block.ID = saved.ID
	b.block.CreatedAt = saved.CreatedAt
	b.block.UpdatedAt = saved.UpdatedAt
	return true
}

// MarkBlockDeleted drops id from the pending deletes.
func (s *Store) MarkBlockDeleted(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = removeFunc(s.pending, func(p string) bool { return p == id })
}

func (s *Store) queueDelete(id string) {
	for _, p := range s.pending {
		if p == id {
			return
		}
	}
	s.pending = append(s.pending, id)
}
