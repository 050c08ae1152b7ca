package events

import (
	"sync"

	"confusionflow/domain/core"
)

// Kind names a notification
type Kind string

const (
	TimelineChanged        Kind = "timeline-changed"
	WeightFactorChanged    Kind = "weight-factor-changed"
	YAxisScaleChanged      Kind = "y-axis-scale-changed"
	AbsoluteSwitched       Kind = "absolute-switched"
	CellRendererChanged    Kind = "cell-renderer-changed"
	CellRendererTransposed Kind = "cell-renderer-transposed"
	ClassIndicesChanged    Kind = "class-indices-changed"
	CellSelected           Kind = "cell-selected"
	CellHovered            Kind = "cell-hovered"
	Redraw                 Kind = "redraw"
	DataSetAdded           Kind = "data-set-added"
	DataSetRemoved         Kind = "data-set-removed"
	LoadingComplete        Kind = "loading-complete"
	RenderConfMeasure      Kind = "render-conf-measure"
	ClearDetailChart       Kind = "clear-detail-chart"
	ClearConfMeasuresView  Kind = "clear-conf-measures-view"
	RenderModeChanged      Kind = "render-mode-changed"
	CellSizeChanged        Kind = "cell-size-changed"
	anyKind                Kind = ""
)

// Kinds lists every notification kind
var Kinds = []Kind{
	TimelineChanged, WeightFactorChanged, YAxisScaleChanged, AbsoluteSwitched,
	CellRendererChanged, CellRendererTransposed, ClassIndicesChanged, CellSelected,
	CellHovered, Redraw, DataSetAdded, DataSetRemoved, LoadingComplete,
	RenderConfMeasure, ClearDetailChart, ClearConfMeasuresView,
	RenderModeChanged, CellSizeChanged,
}

// Event is one fired notification
type Event struct {
	Kind    Kind
	Payload any
}

// Handler receives events
type Handler func(Event)

type listener struct {
	id      core.SubscriptionID
	handler Handler
}

// Bus dispatches events synchronously to its listeners in subscription order
type Bus struct {
	mu        sync.RWMutex
	listeners map[Kind][]listener
}

// NewBus creates an empty bus
func NewBus() *Bus {
	return &Bus{listeners: make(map[Kind][]listener)}
}

// Subscription is the handle returned by Subscribe. Unsubscribing twice is a no-op.
type Subscription struct {
	ID   core.SubscriptionID
	Kind Kind
	bus  *Bus
	once sync.Once
}

// Unsubscribe removes the listener from its bus
func (s *Subscription) Unsubscribe() {
	if s == nil {
		return
	}
	s.once.Do(func() { s.bus.remove(s.Kind, s.ID) })
}

// Subscribe registers h for events of kind
func (b *Bus) Subscribe(kind Kind, h Handler) *Subscription {
	id := core.NewSubscriptionID()
	b.mu.Lock()
	b.listeners[kind] = append(b.listeners[kind], listener{id: id, handler: h})
	b.mu.Unlock()
	return &Subscription{ID: id, Kind: kind, bus: b}
}

// SubscribeAll registers h for every event kind
func (b *Bus) SubscribeAll(h Handler) *Subscription {
	return b.Subscribe(anyKind, h)
}

func (b *Bus) remove(kind Kind, id core.SubscriptionID) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ls := b.listeners[kind]
	for i, l := range ls {
		if l.id == id {
			b.listeners[kind] = append(ls[:i:i], ls[i+1:]...)
			break
		}
	}
	if len(b.listeners[kind]) == 0 {
		delete(b.listeners, kind)
	}
}

// Fire delivers an event to the listeners of kind, then to catch-all listeners.
// Handlers run on the caller's goroutine and may subscribe or unsubscribe.
func (b *Bus) Fire(kind Kind, payload any) {
	b.mu.RLock()
	targets := make([]listener, 0, len(b.listeners[kind])+len(b.listeners[anyKind]))
	targets = append(targets, b.listeners[kind]...)
	targets = append(targets, b.listeners[anyKind]...)
	b.mu.RUnlock()

	evt := Event{Kind: kind, Payload: payload}
	for _, l := range targets {
		l.handler(evt)
	}
}

// Count returns the number of listeners registered for kind
func (b *Bus) Count(kind Kind) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners[kind])
}

// Total returns the number of listeners across all kinds
func (b *Bus) Total() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	n := 0
	for _, ls := range b.listeners {
		n += len(ls)
	}
	return n
}
