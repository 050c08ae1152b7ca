package app

import (
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/samber/lo"

	"confusionflow/domain/core"
	"confusionflow/domain/matrix"
	"confusionflow/domain/run"
	"confusionflow/internal/errors"
	"confusionflow/internal/events"
)

// SelectedRun is a dataset occupying one comparison slot together with the
// epochs the timeline currently picks from it
type SelectedRun struct {
	Dataset        run.Dataset      `json:"dataset"`
	Slot           int              `json:"slot"`
	Color          string           `json:"color"`
	SingleSelected *run.EpochInfo   `json:"single_selected"`
	MultiSelected  []*run.EpochInfo `json:"multi_selected"`
	Loading        bool             `json:"loading"`
}

// Timeline is the epoch selection shared by every selected run. -1 means
// nothing is selected.
type Timeline struct {
	Min    int `json:"min"`
	Max    int `json:"max"`
	Single int `json:"single"`
}

// Selection holds the runs chosen for comparison. Every run keeps the color of
// the slot it was added to until it is removed.
type Selection struct {
	mu       sync.RWMutex
	bus      *events.Bus
	slots    []bool
	runs     map[core.RunID]*SelectedRun
	timeline Timeline
}

// NewSelection creates an empty selection with maxRuns slots
func NewSelection(bus *events.Bus, maxRuns int) *Selection {
	return &Selection{
		bus:      bus,
		slots:    make([]bool, maxRuns),
		runs:     make(map[core.RunID]*SelectedRun),
		timeline: Timeline{Min: -1, Max: -1, Single: -1},
	}
}

// MaxRuns returns the number of comparison slots
func (s *Selection) MaxRuns() int {
	return len(s.slots)
}

// Add puts ds into the first free slot. Adding a selected dataset again is a
// no-op.
func (s *Selection) Add(ds run.Dataset) error {
	s.mu.Lock()
	if _, ok := s.runs[ds.Name]; ok {
		s.mu.Unlock()
		return nil
	}
	slot := slices.Index(s.slots, false)
	if slot < 0 {
		s.mu.Unlock()
		return errors.InvalidInput(fmt.Sprintf("all %d comparison slots are taken", len(s.slots)))
	}
	s.slots[slot] = true
	r := &SelectedRun{Dataset: ds, Slot: slot, Color: run.ColorForSlot(slot)}
	s.runs[ds.Name] = r
	s.updateRunLocked(r)
	s.mu.Unlock()

	s.bus.Fire(events.DataSetAdded, ds.Name)
	s.bus.Fire(events.Redraw, nil)
	return nil
}

// Remove frees the slot of the named run
func (s *Selection) Remove(name core.RunID) error {
	s.mu.Lock()
	r, ok := s.runs[name]
	if !ok {
		s.mu.Unlock()
		return errors.NotFound(fmt.Sprintf("selected run %s", name))
	}
	s.slots[r.Slot] = false
	delete(s.runs, name)
	s.mu.Unlock()

	s.bus.Fire(events.DataSetRemoved, name)
	s.bus.Fire(events.Redraw, nil)
	return nil
}

// Runs returns copies of the selected runs ordered by slot
func (s *Selection) Runs() []SelectedRun {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := lo.MapToSlice(s.runs, func(_ core.RunID, r *SelectedRun) SelectedRun { return *r })
	slices.SortFunc(out, func(a, b SelectedRun) int { return a.Slot - b.Slot })
	return out
}

// ValidateClassIndices checks that indices are distinct classes of every
// selected run. Without runs only negative and duplicate indices fail.
func (s *Selection) ValidateClassIndices(indices []int) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	order := math.MaxInt
	for _, r := range s.runs {
		order = min(order, len(r.Dataset.Labels))
	}
	return matrix.ValidateIndices(indices, order)
}

// Len returns the number of selected runs
func (s *Selection) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.runs)
}

// Timeline returns the current epoch selection
func (s *Selection) Timeline() Timeline {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.timeline
}

// SetTimeline selects the epoch range [min, max] and the single epoch.
// Pass -1 to deselect either.
func (s *Selection) SetTimeline(t Timeline) error {
	if t.Min < -1 || t.Max < -1 || t.Single < -1 {
		return errors.InvalidInput("timeline indices must be -1 or positive")
	}
	if (t.Min < 0) != (t.Max < 0) || t.Min > t.Max {
		return errors.InvalidInput(fmt.Sprintf("invalid epoch range [%d, %d]", t.Min, t.Max))
	}

	s.mu.Lock()
	s.timeline = t
	for _, r := range s.runs {
		s.updateRunLocked(r)
	}
	s.mu.Unlock()

	s.bus.Fire(events.TimelineChanged, t)
	s.bus.Fire(events.Redraw, nil)
	return nil
}

// UpdateRuns recomputes the epochs every run contributes to the timeline
func (s *Selection) UpdateRuns() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.runs {
		s.updateRunLocked(r)
	}
}

func (s *Selection) updateRunLocked(r *SelectedRun) {
	infos := r.Dataset.EpochInfos
	t := s.timeline

	r.MultiSelected = nil
	if t.Min >= 0 && t.Min < len(infos) {
		end := min(t.Max, len(infos)-1)
		r.MultiSelected = slices.Clone(infos[t.Min : end+1])
	}
	r.SingleSelected = nil
	if t.Single >= 0 && t.Single < len(infos) {
		r.SingleSelected = infos[t.Single]
	}
}

// setLoading flags the named run while its matrices are fetched
func (s *Selection) setLoading(name core.RunID, loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.runs[name]; ok {
		r.Loading = loading
	}
}
