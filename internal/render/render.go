// Package render turns cells into shapes on a ports.Surface through chains of
// composable renderers. A chain is built from a Blueprint and owns the bus
// subscriptions its renderers install; Teardown releases them.
package render

import (
	"fmt"

	"confusionflow/domain/cell"
	"confusionflow/internal/errors"
	"confusionflow/internal/events"
	"confusionflow/internal/viewstate"
	"confusionflow/ports"
)

// Kind names a renderer type
type Kind int

const (
	KindHeatmapMultiEpoch Kind = iota
	KindHeatmapSingleEpoch
	KindSingleEpochMarker
	KindLineChart
	KindAxis
	KindBarAxis
	KindVerticalLine
	KindLabelCell
	KindMatrixLineCell
	KindBarChart
)

var kindNames = map[Kind]string{
	KindHeatmapMultiEpoch:  "heatmap-multi-epoch",
	KindHeatmapSingleEpoch: "heatmap-single-epoch",
	KindSingleEpochMarker:  "single-epoch-marker",
	KindLineChart:          "line-chart",
	KindAxis:               "axis",
	KindBarAxis:            "bar-axis",
	KindVerticalLine:       "vertical-line",
	KindLabelCell:          "label-cell",
	KindMatrixLineCell:     "matrix-line-cell",
	KindBarChart:           "bar-chart",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("renderer(%d)", int(k))
}

// Params configures a single step. Only the fields relevant to the step's
// kind are read.
type Params struct {
	Transposed bool
	ShowNumber bool
	Grayscale  bool
}

// Step is one renderer of a blueprint
type Step struct {
	Kind   Kind
	Params Params
}

// Functor is applied to every renderer right after it is instantiated and
// decides which notifications it listens to.
type Functor func(Renderer)

// SubscribeWeightFactor installs the weight factor listener
func SubscribeWeightFactor(r Renderer) { r.AddWeightFactorListener() }

// SubscribeYAxisScale installs the y axis scale listener
func SubscribeYAxisScale(r Renderer) { r.AddYAxisScaleListener() }

// Listeners is the functor set used by views whose charts follow the global
// scaling controls
var Listeners = []Functor{SubscribeWeightFactor, SubscribeYAxisScale}

// Blueprint declares the renderer steps of diagonal and off-diagonal cells.
// OffDiagonal is nil for one-dimensional views such as panels.
type Blueprint struct {
	Diagonal    []Step
	OffDiagonal []Step
	Functors    []Functor
}

// Renderer draws one aspect of a cell and may keep it live by listening to
// view state notifications. Listener hooks are no-ops for renderers that do
// not react to the signal.
type Renderer interface {
	Kind() Kind
	Render(c *cell.Cell, s ports.Surface)
	AddWeightFactorListener()
	RemoveWeightFactorListener()
	AddYAxisScaleListener()
	RemoveYAxisScaleListener()
}

// Env carries what renderers read besides the cell itself
type Env struct {
	State *viewstate.State
	// MaxRunCount is the number of comparison slots, used to size bars
	MaxRunCount int
	// EpochLabels returns the epoch ids of the largest selected range
	EpochLabels func() []string
}

func (e Env) bus() *events.Bus { return e.State.Bus() }

func (e Env) epochLabels() []string {
	if e.EpochLabels == nil {
		return nil
	}
	return e.EpochLabels()
}

// New instantiates the renderer for step
func New(step Step, env Env) (Renderer, error) {
	switch step.Kind {
	case KindHeatmapMultiEpoch:
		return newHeatmapMultiEpoch(env, step.Params.Transposed), nil
	case KindHeatmapSingleEpoch:
		return newHeatmapSingleEpoch(step.Params.ShowNumber, step.Params.Grayscale), nil
	case KindSingleEpochMarker:
		return newSingleEpochMarker(env, step.Params.Transposed), nil
	case KindLineChart:
		return newLineChart(env, false), nil
	case KindMatrixLineCell:
		return newLineChart(env, true), nil
	case KindAxis:
		return newAxis(env), nil
	case KindBarAxis:
		return newBarAxis(env), nil
	case KindVerticalLine:
		return newVerticalLine(env), nil
	case KindLabelCell:
		return labelCell{}, nil
	case KindBarChart:
		return newBarChart(env), nil
	}
	return nil, errors.InvalidConfiguration(fmt.Sprintf("unknown renderer %s", step.Kind))
}

// hooks implements the listener lifecycle for renderers that redraw on view
// state changes. update is only invoked after the first render.
type hooks struct {
	bus          *events.Bus
	update       func()
	rendered     bool
	weightFactor *events.Subscription
	yAxis        []*events.Subscription
}

func (h *hooks) fire(events.Event) {
	if h.rendered && h.update != nil {
		h.update()
	}
}

func (h *hooks) AddWeightFactorListener() {
	if h.weightFactor != nil {
		return
	}
	h.weightFactor = h.bus.Subscribe(events.WeightFactorChanged, h.fire)
}

func (h *hooks) RemoveWeightFactorListener() {
	h.weightFactor.Unsubscribe()
	h.weightFactor = nil
}

// AddYAxisScaleListener listens for both the scale type and the absolute
// toggle since either changes the y domain.
func (h *hooks) AddYAxisScaleListener() {
	if h.yAxis != nil {
		return
	}
	h.yAxis = []*events.Subscription{
		h.bus.Subscribe(events.YAxisScaleChanged, h.fire),
		h.bus.Subscribe(events.AbsoluteSwitched, h.fire),
	}
}

func (h *hooks) RemoveYAxisScaleListener() {
	for _, s := range h.yAxis {
		s.Unsubscribe()
	}
	h.yAxis = nil
}

type noHooks struct{}

func (noHooks) AddWeightFactorListener()    {}
func (noHooks) RemoveWeightFactorListener() {}
func (noHooks) AddYAxisScaleListener()      {}
func (noHooks) RemoveYAxisScaleListener()   {}
