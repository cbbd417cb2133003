package draft

import "alcyxob/coach-dashboard/internal/domain"

// DayPatch holds the day fields to overwrite. Nil fields are left alone.
type DayPatch struct {
	Name       *string `json:"name,omitempty"`        // "" restores the weekday name
	Notes      *string `json:"notes,omitempty"`
	StimulusID *string `json:"stimulus_id,omitempty"` // "" clears the stimulus
	IsRestDay  *bool   `json:"is_rest_day,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p DayPatch) Empty() bool {
	return p.Name == nil && p.Notes == nil && p.StimulusID == nil && p.IsRestDay == nil
}

// ToggleRestDay flips is_rest_day, promoting a placeholder to an unsaved day.
// Blocks are kept; use ClearDay to drop them.
func (s *Store) ToggleRestDay(ref DayRef) (DayView, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.promote(ref)
	if d == nil {
		return DayView{}, false
	}
	d.day.IsRestDay = !d.day.IsRestDay
	s.touchDay(d)
	return d.view(), true
}

// ClearDay drops every block of the day. Persisted blocks are queued for
// deletion. Clearing a placeholder changes nothing.
func (s *Store) ClearDay(ref DayRef) (DayView, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, d := s.resolve(ref)
	if d == nil {
		if w == nil {
			return DayView{}, false
		}
		return placeholder(w.meso.ID, ref.DayNumber), true
	}
	for _, b := range d.blocks {
		s.dropBlock(b)
	}
	d.blocks = nil
	s.touchDay(d)
	return d.view(), true
}

// UpdateDay merges patch into the day, promoting a placeholder to an unsaved day.
func (s *Store) UpdateDay(ref DayRef, patch DayPatch) (DayView, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.promote(ref)
	if d == nil {
		return DayView{}, false
	}
	if patch.Name != nil {
		d.day.Name = emptyToNil(*patch.Name)
	}
	if patch.Notes != nil {
		d.day.Notes = *patch.Notes
	}
	if patch.StimulusID != nil {
		d.day.StimulusID = emptyToNil(*patch.StimulusID)
	}
	if patch.IsRestDay != nil {
		d.day.IsRestDay = *patch.IsRestDay
	}
	s.touchDay(d)
	return d.view(), true
}

func emptyToNil(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

// AddBlock appends block to the day, promoting a placeholder. The block gets a
// temporary id when it has none and an empty config for its type when Config is nil.
// Blocks of an unknown type are rejected.
func (s *Store) AddBlock(ref DayRef, block domain.Block) (BlockView, bool) {
	if block.Config == nil {
		cfg, err := domain.NewBlockConfig(block.Type)
		if err != nil {
			return BlockView{}, false
		}
		block.Config = cfg
	} else if block.Config.BlockType() != block.Type {
		return BlockView{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.promote(ref)
	if d == nil {
		return BlockView{}, false
	}
	block = block.Clone()
	if block.ID == "" {
		block.ID = s.newID()
	}
	if _, taken := s.blocks[block.ID]; taken {
		return BlockView{}, false
	}
	block.DayID = d.day.ID
	block.OrderIndex = 0
	if n := len(d.blocks); n > 0 {
		block.OrderIndex = d.blocks[n-1].block.OrderIndex + 1
	}

	b := &blockNode{block: block}
	d.blocks = append(d.blocks, b)
	s.blocks[block.ID] = b
	s.touchBlock(b)
	return b.view(), true
}

// RemoveBlock drops a block. A persisted block is queued for deletion.
func (s *Store) RemoveBlock(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.blocks[id]
	if !ok {
		return false
	}
	d := s.days[b.block.DayID]
	if d != nil {
		d.blocks = removeFunc(d.blocks, func(n *blockNode) bool { return n == b })
	}
	s.dropBlock(b)
	return true
}

func (s *Store) dropBlock(b *blockNode) {
	delete(s.blocks, b.block.ID)
	if b.persisted {
		s.queueDelete(b.block.ID)
	}
}
