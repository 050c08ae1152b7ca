package viewstate

import (
	"fmt"
	"math"
	"slices"
	"sync"

	"confusionflow/domain/cell"
	"confusionflow/domain/core"
	"confusionflow/domain/run"
	"confusionflow/internal/errors"
	"confusionflow/internal/events"
)

// CellRenderer is the user facing choice of matrix cell encoding
type CellRenderer string

const (
	CellRendererHeatmap CellRenderer = "heatmap"
	CellRendererLine    CellRenderer = "line"
)

// ParseCellRenderer validates a cell renderer name
func ParseCellRenderer(s string) (CellRenderer, error) {
	switch CellRenderer(s) {
	case CellRendererHeatmap, CellRendererLine:
		return CellRenderer(s), nil
	}
	return "", errors.InvalidInput(fmt.Sprintf("unknown cell renderer %q", s))
}

// minWeightFactor replaces a weight factor of exactly 0 so scales never collapse
const minWeightFactor = 0.00001

// State holds every property the user can modify. Each setter mutates, bumps
// the version and then fires the matching notification on the bus.
type State struct {
	mu  sync.RWMutex
	bus *events.Bus

	version            uint64
	transposed         bool
	cellRenderer       CellRenderer
	absolute           bool
	weightFactorLinear float64
	weightFactorLog    float64
	yScalingIsLinear   bool
	renderMode         run.RenderMode
	classIndices       []int
	cellWidth          float64
	cellHeight         float64
	highlighted        bool
	highlightTruth     string
	highlightPredicted string
	selected           *cell.Cell
}

// New creates the state with its defaults: heatmap cells, percent values,
// linear scaling, full weight and combined render mode.
func New(bus *events.Bus) *State {
	return &State{
		bus:                bus,
		cellRenderer:       CellRendererHeatmap,
		weightFactorLinear: 1,
		weightFactorLog:    1,
		yScalingIsLinear:   true,
		renderMode:         run.RenderCombined,
		classIndices:       []int{},
	}
}

// Bus returns the bus the state notifies on
func (s *State) Bus() *events.Bus { return s.bus }

func (s *State) update(f func()) {
	s.mu.Lock()
	f()
	s.version++
	s.mu.Unlock()
}

// Version increases with every mutation
func (s *State) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Transposed reports whether multi epoch heatmaps run top to bottom
func (s *State) Transposed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.transposed
}

// SetTransposed sets the transpose toggle
func (s *State) SetTransposed(v bool) {
	s.update(func() { s.transposed = v })
	s.bus.Fire(events.CellRendererTransposed, v)
}

// ToggleTransposed flips the transpose toggle
func (s *State) ToggleTransposed() {
	s.SetTransposed(!s.Transposed())
}

// CellRenderer returns the selected matrix cell encoding
func (s *State) CellRenderer() CellRenderer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cellRenderer
}

// SetCellRenderer selects the matrix cell encoding
func (s *State) SetCellRenderer(r CellRenderer) {
	s.update(func() { s.cellRenderer = r })
	s.bus.Fire(events.CellRendererChanged, r)
}

// WeightFactor returns the factor of the active y scaling
func (s *State) WeightFactor() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.weightFactorLocked()
}

func (s *State) weightFactorLocked() float64 {
	if s.yScalingIsLinear {
		return clampWeight(s.weightFactorLinear)
	}
	return clampWeight(s.weightFactorLog)
}

func clampWeight(v float64) float64 {
	if v == 0 {
		return minWeightFactor
	}
	return v
}

// WeightFactorLinear returns the factor used with linear scaling
func (s *State) WeightFactorLinear() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clampWeight(s.weightFactorLinear)
}

// WeightFactorLog returns the exponent used with power scaling
func (s *State) WeightFactorLog() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clampWeight(s.weightFactorLog)
}

// SetWeightFactor takes a slider value in [0,1] and stores 1-value for the
// active scaling. Values outside the range are clamped; NaN and infinities
// are rejected.
func (s *State) SetWeightFactor(value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return errors.InvalidInput(fmt.Sprintf("weight factor %v is not a finite number", value))
	}
	value = min(max(value, 0), 1)
	var wf float64
	s.update(func() {
		if s.yScalingIsLinear {
			s.weightFactorLinear = 1 - value
		} else {
			s.weightFactorLog = 1 - value
		}
		wf = s.weightFactorLocked()
	})
	s.bus.Fire(events.WeightFactorChanged, wf)
	return nil
}

// YScalingIsLinear reports whether charts use a linear y scale
func (s *State) YScalingIsLinear() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.yScalingIsLinear
}

// ToggleYScaling switches between linear and power scaling. The active weight
// factor changes with it, so both notifications fire.
func (s *State) ToggleYScaling() {
	var linear bool
	var wf float64
	s.update(func() {
		s.yScalingIsLinear = !s.yScalingIsLinear
		linear = s.yScalingIsLinear
		wf = s.weightFactorLocked()
	})
	s.bus.Fire(events.YAxisScaleChanged, linear)
	s.bus.Fire(events.WeightFactorChanged, wf)
}

// Absolute reports whether charts show counts instead of percentages
func (s *State) Absolute() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.absolute
}

// SetAbsolute switches between counts and percentages
func (s *State) SetAbsolute(v bool) {
	s.update(func() { s.absolute = v })
	s.bus.Fire(events.AbsoluteSwitched, v)
}

// RenderMode returns the current render mode
func (s *State) RenderMode() run.RenderMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.renderMode
}

// SetRenderMode stores the render mode chosen for the loaded runs. Only a
// change of mode notifies.
func (s *State) SetRenderMode(m run.RenderMode) {
	changed := false
	s.update(func() {
		changed = s.renderMode != m
		s.renderMode = m
	})
	if changed {
		s.bus.Fire(events.RenderModeChanged, m)
	}
}

// ClassIndices returns a copy of the selected class subset
func (s *State) ClassIndices() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.classIndices)
}

// SetClassIndices selects the classes shown in the matrix
func (s *State) SetClassIndices(indices []int) {
	cp := slices.Clone(indices)
	s.update(func() { s.classIndices = cp })
	s.bus.Fire(events.ClassIndicesChanged, slices.Clone(cp))
}

// CellSize returns the pixel size of a matrix cell
func (s *State) CellSize() (width, height float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cellWidth, s.cellHeight
}

// SetCellSize stores the pixel size of a matrix cell. The event carries the
// new width and fires only when the size changed.
func (s *State) SetCellSize(width, height float64) {
	changed := false
	s.update(func() {
		changed = s.cellWidth != width || s.cellHeight != height
		s.cellWidth, s.cellHeight = width, height
	})
	if changed {
		s.bus.Fire(events.CellSizeChanged, width)
	}
}

// IsHighlighted reports whether a class pair is highlighted
func (s *State) IsHighlighted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.highlighted
}

// SetCellHighlight highlights the ground truth / predicted pair
func (s *State) SetCellHighlight(groundTruth, predicted string) {
	s.update(func() {
		s.highlightTruth = groundTruth
		s.highlightPredicted = predicted
		s.highlighted = true
	})
	s.bus.Fire(events.CellHovered, nil)
}

// ClearCellHighlight removes the highlight. Without one it does nothing.
func (s *State) ClearCellHighlight() {
	if !s.IsHighlighted() {
		return
	}
	s.update(func() {
		s.highlightTruth = ""
		s.highlightPredicted = ""
		s.highlighted = false
	})
	s.bus.Fire(events.CellHovered, nil)
}

// CheckCellHighlight reports whether the given pair is the highlighted one
func (s *State) CheckCellHighlight(groundTruth, predicted string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.highlightTruth == groundTruth && s.highlightPredicted == predicted
}

// SelectedCell returns the selected cell or nil
func (s *State) SelectedCell() *cell.Cell {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}

// SelectCell selects c. A nil cell is ignored.
func (s *State) SelectCell(c *cell.Cell) {
	if c == nil {
		return
	}
	s.update(func() { s.selected = c })
	s.bus.Fire(events.CellSelected, c.ID)
}

// Deselect clears the selection. Listeners of CellSelected receive an empty
// id when a cell was selected before.
func (s *State) Deselect() {
	had := false
	s.update(func() {
		had = s.selected != nil
		s.selected = nil
	})
	if had {
		s.bus.Fire(events.CellSelected, core.CellID(""))
	}
}

// Snapshot is a read-only copy of the state for transport
type Snapshot struct {
	Version          uint64         `json:"version"`
	Transposed       bool           `json:"transposed"`
	CellRenderer     CellRenderer   `json:"cell_renderer"`
	Absolute         bool           `json:"absolute"`
	WeightFactor     float64        `json:"weight_factor"`
	YScalingIsLinear bool           `json:"y_scaling_is_linear"`
	RenderMode       run.RenderMode `json:"render_mode"`
	ClassIndices     []int          `json:"class_indices"`
	Highlighted      bool           `json:"highlighted"`
	SelectedCell     string         `json:"selected_cell,omitempty"`
}

// Snapshot copies the current state
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{
		Version:          s.version,
		Transposed:       s.transposed,
		CellRenderer:     s.cellRenderer,
		Absolute:         s.absolute,
		WeightFactor:     s.weightFactorLocked(),
		YScalingIsLinear: s.yScalingIsLinear,
		RenderMode:       s.renderMode,
		ClassIndices:     slices.Clone(s.classIndices),
		Highlighted:      s.highlighted,
	}
	if s.selected != nil {
		snap.SelectedCell = s.selected.ID.String()
	}
	return snap
}
