// Package draft holds a program tree in memory while it is edited.
//
// Mutations are synchronous and never fail: a reference that does not resolve
// is a no-op reported through the boolean result. Every edited node is marked
// dirty until the caller confirms a write with MarkDaySaved or MarkBlockSaved.
package draft

import (
	"alcyxob/coach-dashboard/internal/domain"
	"sort"
	"sync"
)

// Tree is a program with all of its persisted descendants.
type Tree struct {
	Program    domain.Program     `json:"program"`
	Mesocycles []domain.Mesocycle `json:"mesocycles"`
	Days       []domain.Day       `json:"days"`
	Blocks     []domain.Block     `json:"blocks"`
}

// DayRef addresses a day either by id or by its slot in a mesocycle.
// A slot without a backing day refers to a placeholder.
type DayRef struct {
	ID          string `json:"day_id,omitempty"`
	MesocycleID string `json:"mesocycle_id,omitempty"`
	DayNumber   int    `json:"day_number,omitempty"`
}

// ByID refers to an existing day.
func ByID(id string) DayRef { return DayRef{ID: id} }

// Slot refers to the day at dayNumber of a mesocycle, placeholder or not.
func Slot(mesocycleID string, dayNumber int) DayRef {
	return DayRef{MesocycleID: mesocycleID, DayNumber: dayNumber}
}

// MesocycleView is a week as seen by the editor.
type MesocycleView struct {
	domain.Mesocycle
	Synthesized bool `json:"synthesized"` // no backing mesocycle row
}

// DayView is a day as seen by the editor.
type DayView struct {
	Day         domain.Day  `json:"day"`
	Blocks      []BlockView `json:"blocks"`
	Placeholder bool        `json:"placeholder"`
	Persisted   bool        `json:"persisted"`
	Dirty       bool        `json:"dirty"`
	Revision    uint64      `json:"-"`
}

// BlockView is a block as seen by the editor.
type BlockView struct {
	Block     domain.Block `json:"block"`
	Persisted bool         `json:"persisted"`
	Dirty     bool         `json:"dirty"`
	Revision  uint64       `json:"-"`
}

type weekNode struct {
	meso domain.Mesocycle
	days map[int]*dayNode // by day number
}

type dayNode struct {
	day       domain.Day
	blocks    []*blockNode
	persisted bool
	dirty     bool
	rev       uint64
}

type blockNode struct {
	block     domain.Block
	persisted bool
	dirty     bool
	rev       uint64
}

// Store is the editable tree of one program. It is safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	program  domain.Program
	weeks    []*weekNode // sorted by week number
	days     map[string]*dayNode
	blocks   map[string]*blockNode
	pending  []string // persisted block ids removed locally
	selected int
	rev      uint64
	newID    func() string
}

// New builds a store from a loaded tree. Days whose mesocycle is not part of
// the tree, and blocks whose day is not, are dropped.
func New(tree Tree, opts ...Option) *Store {
	s := &Store{
		program:  tree.Program,
		days:     make(map[string]*dayNode),
		blocks:   make(map[string]*blockNode),
		selected: 1,
		newID:    defaultID,
	}
	for _, opt := range opts {
		opt(s)
	}

	byMeso := make(map[string]*weekNode, len(tree.Mesocycles))
	for _, m := range tree.Mesocycles {
		w := &weekNode{meso: m, days: make(map[int]*dayNode)}
		byMeso[m.ID] = w
		s.weeks = append(s.weeks, w)
	}
	sort.SliceStable(s.weeks, func(i, j int) bool {
		return s.weeks[i].meso.WeekNumber < s.weeks[j].meso.WeekNumber
	})

	for _, d := range tree.Days {
		w, ok := byMeso[d.MesocycleID]
		if !ok || !domain.ValidDayNumber(d.DayNumber) {
			continue
		}
		node := &dayNode{day: d.Clone(), persisted: true}
		w.days[d.DayNumber] = node
		s.days[d.ID] = node
	}

	for _, b := range tree.Blocks {
		day, ok := s.days[b.DayID]
		if !ok {
			continue
		}
		node := &blockNode{block: b.Clone(), persisted: true}
		day.blocks = append(day.blocks, node)
		s.blocks[b.ID] = node
	}
	for _, day := range s.days {
		sortBlocks(day.blocks)
	}

	if len(s.weeks) > 0 {
		s.selected = s.weeks[0].meso.WeekNumber
	}
	return s
}

// Option configures a Store.
type Option func(*Store)

// WithIDGenerator replaces the generator of temporary ids.
func WithIDGenerator(f func() string) Option {
	return func(s *Store) { s.newID = f }
}

func sortBlocks(blocks []*blockNode) {
	sort.SliceStable(blocks, func(i, j int) bool {
		return blocks[i].block.OrderIndex < blocks[j].block.OrderIndex
	})
}

// Program returns the program being edited.
func (s *Store) Program() domain.Program {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.program
}

// SelectWeek sets the week the editor is viewing. The week need not exist.
func (s *Store) SelectWeek(weekNumber int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = weekNumber
}

// SelectedWeek returns the week the editor is viewing.
func (s *Store) SelectedWeek() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}

// AddMesocycle inserts a persisted week, replacing one with the same week number.
func (s *Store) AddMesocycle(m domain.Mesocycle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range s.weeks {
		if w.meso.WeekNumber == m.WeekNumber {
			w.meso = m
			for _, d := range w.days {
				d.day.MesocycleID = m.ID
			}
			return
		}
	}
	s.weeks = append(s.weeks, &weekNode{meso: m, days: make(map[int]*dayNode)})
	sort.SliceStable(s.weeks, func(i, j int) bool {
		return s.weeks[i].meso.WeekNumber < s.weeks[j].meso.WeekNumber
	})
}

// Weeks returns every persisted week in order.
func (s *Store) Weeks() []MesocycleView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]MesocycleView, 0, len(s.weeks))
	for _, w := range s.weeks {
		out = append(out, MesocycleView{Mesocycle: w.meso})
	}
	return out
}

// Week returns week n, or a synthesized empty week when there is none.
func (s *Store) Week(n int) MesocycleView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if w := s.week(n); w != nil {
		return MesocycleView{Mesocycle: w.meso}
	}
	return MesocycleView{
		Mesocycle:   domain.Mesocycle{ProgramID: s.program.ID, WeekNumber: n},
		Synthesized: true,
	}
}

func (s *Store) week(n int) *weekNode {
	for _, w := range s.weeks {
		if w.meso.WeekNumber == n {
			return w
		}
	}
	return nil
}

func (s *Store) weekByID(id string) *weekNode {
	if id == "" {
		return nil
	}
	for _, w := range s.weeks {
		if w.meso.ID == id {
			return w
		}
	}
	return nil
}

// Days returns the seven day slots of week n in day-number order.
// Slots without a day are placeholders.
func (s *Store) Days(weekNumber int) []DayView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w := s.week(weekNumber)
	out := make([]DayView, 0, domain.DaysPerWeek)
	for n := 1; n <= domain.DaysPerWeek; n++ {
		if w != nil {
			if d, ok := w.days[n]; ok {
				out = append(out, d.view())
				continue
			}
		}
		mesoID := ""
		if w != nil {
			mesoID = w.meso.ID
		}
		out = append(out, placeholder(mesoID, n))
	}
	return out
}

// Day returns the day ref resolves to. A slot without a day yields its placeholder.
func (s *Store) Day(ref DayRef) (DayView, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, d := s.resolve(ref)
	switch {
	case d != nil:
		return d.view(), true
	case w != nil:
		return placeholder(w.meso.ID, ref.DayNumber), true
	}
	return DayView{}, false
}

// Block returns the block with id.
func (s *Store) Block(id string) (BlockView, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.blocks[id]
	if !ok {
		return BlockView{}, false
	}
	return b.view(), true
}

// Snapshot returns the current tree, including unsaved days and blocks.
func (s *Store) Snapshot() Tree {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tree := Tree{Program: s.program}
	for _, w := range s.weeks {
		tree.Mesocycles = append(tree.Mesocycles, w.meso)
		for n := 1; n <= domain.DaysPerWeek; n++ {
			d, ok := w.days[n]
			if !ok {
				continue
			}
			tree.Days = append(tree.Days, d.day.Clone())
			for _, b := range d.blocks {
				tree.Blocks = append(tree.Blocks, b.block.Clone())
			}
		}
	}
	return tree
}

// resolve finds the week and day of ref. The day is nil for a placeholder slot.
func (s *Store) resolve(ref DayRef) (*weekNode, *dayNode) {
	if ref.ID != "" {
		d, ok := s.days[ref.ID]
		if !ok {
			return nil, nil
		}
		return s.weekByID(d.day.MesocycleID), d
	}
	if !domain.ValidDayNumber(ref.DayNumber) {
		return nil, nil
	}
	w := s.weekByID(ref.MesocycleID)
	if w == nil {
		return nil, nil
	}
	return w, w.days[ref.DayNumber]
}

// promote resolves ref, creating an unsaved day for a placeholder slot.
func (s *Store) promote(ref DayRef) *dayNode {
	w, d := s.resolve(ref)
	if d != nil {
		return d
	}
	if w == nil {
		return nil
	}
	d = &dayNode{day: domain.Day{
		ID:          s.newID(),
		MesocycleID: w.meso.ID,
		DayNumber:   ref.DayNumber,
	}}
	w.days[ref.DayNumber] = d
	s.days[d.day.ID] = d
	s.touchDay(d)
	return d
}

func (s *Store) touchDay(d *dayNode) {
	s.rev++
	d.dirty = true
	d.rev = s.rev
}

func (s *Store) touchBlock(b *blockNode) {
	s.rev++
	b.dirty = true
	b.rev = s.rev
}

func placeholder(mesocycleID string, n int) DayView {
	return DayView{
		Day:         domain.Day{MesocycleID: mesocycleID, DayNumber: n},
		Blocks:      []BlockView{},
		Placeholder: true,
	}
}

func (d *dayNode) view() DayView {
	blocks := make([]BlockView, 0, len(d.blocks))
	for _, b := range d.blocks {
		blocks = append(blocks, b.view())
	}
	return DayView{
		Day:       d.day.Clone(),
		Blocks:    blocks,
		Persisted: d.persisted,
		Dirty:     d.dirty,
		Revision:  d.rev,
	}
}

func (b *blockNode) view() BlockView {
	return BlockView{
		Block:     b.block.Clone(),
		Persisted: b.persisted,
		Dirty:     b.dirty,
		Revision:  b.rev,
	}
}
