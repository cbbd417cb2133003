package draft

import "alcyxob/coach-dashboard/internal/domain"

// SchemePatch holds set-scheme fields to overwrite. Nil fields are left alone.
type SchemePatch struct {
	Sets          *int                   `json:"sets,omitempty"`
	Reps          *domain.Reps           `json:"reps,omitempty"`
	Percentage    *float64               `json:"percentage,omitempty"`
	Rest          *int                   `json:"rest,omitempty"`
	Tempo         *string                `json:"tempo,omitempty"`
	Distance      *string                `json:"distance,omitempty"`
	RPE           *float64               `json:"rpe,omitempty"`
	SeriesDetails *[]domain.SeriesDetail `json:"series_details,omitempty"`
}

// BlockPatch holds the block fields to overwrite. Nil fields are left alone.
type BlockPatch struct {
	Name          *string            `json:"name,omitempty"`
	Format        *string            `json:"format,omitempty"`
	OrderIndex    *int               `json:"order_index,omitempty"`
	ProgressionID *string            `json:"progression_id,omitempty"` // "" unlinks
	Config        domain.BlockConfig `json:"-"`                        // replaces the whole config
	Scheme        *SchemePatch       `json:"scheme,omitempty"`
}

// overrideKeys maps a global scheme field to the per-set override it supersedes.
// RPE has no entry: per-set RPE survives a global edit.
var overrideKeys = map[string]string{
	"reps":       "reps",
	"percentage": "weight_percentage",
	"rest":       "rest_time",
	"distance":   "distance",
}

// UpdateBlock merges patch into the block. Setting a global scheme field clears
// the matching override from every series detail so the new value shows.
// A Config of another block type, or a Scheme patch on a config without a set
// scheme, makes the call a no-op.
func (s *Store) UpdateBlock(id string, patch BlockPatch) (BlockView, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.blocks[id]
	if !ok {
		return BlockView{}, false
	}
	if patch.Config != nil && patch.Config.BlockType() != b.block.Type {
		return BlockView{}, false
	}

	cfg := b.block.Config
	if patch.Config != nil {
		cfg = patch.Config.Clone()
	}
	if patch.Scheme != nil {
		holder, ok := cfg.(domain.SchemeHolder)
		if !ok {
			return BlockView{}, false
		}
		if patch.Config == nil {
			cfg = cfg.Clone()
			holder = cfg.(domain.SchemeHolder)
		}
		applyScheme(holder.Scheme(), *patch.Scheme)
	}
	b.block.Config = cfg

	if patch.Name != nil {
		b.block.Name = *patch.Name
	}
	if patch.Format != nil {
		b.block.Format = *patch.Format
	}
	if patch.ProgressionID != nil {
		b.block.ProgressionID = emptyToNil(*patch.ProgressionID)
	}
	if patch.OrderIndex != nil {
		b.block.OrderIndex = *patch.OrderIndex
		if d := s.days[b.block.DayID]; d != nil {
			sortBlocks(d.blocks)
		}
	}
	s.touchBlock(b)
	return b.view(), true
}

// applyScheme writes p onto scheme. Explicit series details are applied last
// so they are not cleared by the global fields set in the same patch.
func applyScheme(scheme *domain.SetScheme, p SchemePatch) {
	var cleared []string
	if p.Sets != nil {
		scheme.Sets = *p.Sets
	}
	if p.Reps != nil {
		scheme.Reps = *p.Reps
		cleared = append(cleared, overrideKeys["reps"])
	}
	if p.Percentage != nil {
		v := *p.Percentage
		scheme.Percentage = &v
		cleared = append(cleared, overrideKeys["percentage"])
	}
	if p.Rest != nil {
		v := *p.Rest
		scheme.Rest = &v
		cleared = append(cleared, overrideKeys["rest"])
	}
	if p.Tempo != nil {
		scheme.Tempo = *p.Tempo
	}
	if p.Distance != nil {
		scheme.Distance = *p.Distance
		cleared = append(cleared, overrideKeys["distance"])
	}
	if p.RPE != nil {
		v := *p.RPE
		scheme.RPE = &v
	}

	if len(cleared) > 0 && scheme.SeriesDetails != nil {
		details := make([]domain.SeriesDetail, len(scheme.SeriesDetails))
		copy(details, scheme.SeriesDetails)
		for i := range details {
			for _, key := range cleared {
				clearOverride(&details[i], key)
			}
		}
		scheme.SeriesDetails = details
	}
	if p.SeriesDetails != nil {
		scheme.SeriesDetails = append([]domain.SeriesDetail(nil), (*p.SeriesDetails)...)
	}
}

func clearOverride(d *domain.SeriesDetail, key string) {
	switch key {
	case "reps":
		d.Reps = nil
	case "weight_percentage":
		d.WeightPercentage = nil
	case "rest_time":
		d.RestTime = nil
	case "distance":
		d.Distance = nil
	}
}

// AddMovement appends m to the block's movements.
func (s *Store) AddMovement(blockID string, m domain.Movement) (BlockView, bool) {
	return s.editMovements(blockID, func(ms []domain.Movement) ([]domain.Movement, bool) {
		return appendCopy(ms, m), true
	})
}

// RemoveMovement removes the movement at index.
func (s *Store) RemoveMovement(blockID string, index int) (BlockView, bool) {
	return s.editMovements(blockID, func(ms []domain.Movement) ([]domain.Movement, bool) {
		return removeAt(ms, index)
	})
}

// ReorderMovements moves the movement at from to position to.
func (s *Store) ReorderMovements(blockID string, from, to int) (BlockView, bool) {
	return s.editMovements(blockID, func(ms []domain.Movement) ([]domain.Movement, bool) {
		return move(ms, from, to)
	})
}

// AddMealItem appends item to a meal block's items.
func (s *Store) AddMealItem(blockID string, item domain.ConfigItem) (BlockView, bool) {
	return s.editItems(blockID, func(items []domain.ConfigItem) ([]domain.ConfigItem, bool) {
		return appendCopy(items, item), true
	})
}

// RemoveMealItem removes the item at index.
func (s *Store) RemoveMealItem(blockID string, index int) (BlockView, bool) {
	return s.editItems(blockID, func(items []domain.ConfigItem) ([]domain.ConfigItem, bool) {
		return removeAt(items, index)
	})
}

// ReorderMealItems moves the item at from to position to.
func (s *Store) ReorderMealItems(blockID string, from, to int) (BlockView, bool) {
	return s.editItems(blockID, func(items []domain.ConfigItem) ([]domain.ConfigItem, bool) {
		return move(items, from, to)
	})
}

func (s *Store) editMovements(blockID string, edit func([]domain.Movement) ([]domain.Movement, bool)) (BlockView, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.blocks[blockID]
	if !ok {
		return BlockView{}, false
	}
	holder, ok := b.block.Config.(domain.MovementHolder)
	if !ok {
		return BlockView{}, false
	}
	next, ok := edit(holder.MovementList())
	if !ok {
		return BlockView{}, false
	}
	holder.SetMovements(next)
	s.touchBlock(b)
	return b.view(), true
}

func (s *Store) editItems(blockID string, edit func([]domain.ConfigItem) ([]domain.ConfigItem, bool)) (BlockView, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.blocks[blockID]
	if !ok {
		return BlockView{}, false
	}
	holder, ok := b.block.Config.(domain.ItemHolder)
	if !ok {
		return BlockView{}, false
	}
	next, ok := edit(holder.ItemList())
	if !ok {
		return BlockView{}, false
	}
	holder.SetItems(next)
	s.touchBlock(b)
	return b.view(), true
}
