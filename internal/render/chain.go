package render

import (
	"log"

	"github.com/samber/lo"

	"confusionflow/domain/cell"
	"confusionflow/ports"
)

// Chain is an ordered, immutable sequence of renderers attached to one cell
type Chain struct {
	renderers []Renderer
}

// Compose instantiates every step, applies the blueprint functors to each
// fresh renderer and returns the chain. Renderers created before a failing
// step are torn down again.
func Compose(bp Blueprint, steps []Step, env Env) (*Chain, error) {
	ch := &Chain{renderers: make([]Renderer, 0, len(steps))}
	for _, step := range steps {
		r, err := New(step, env)
		if err != nil {
			ch.Teardown()
			return nil, err
		}
		for _, f := range bp.Functors {
			f(r)
		}
		ch.renderers = append(ch.renderers, r)
	}
	return ch, nil
}

// StepsFor picks the diagonal or off-diagonal steps for a matrix position.
// Blueprints without off-diagonal steps use the diagonal ones everywhere.
func (bp Blueprint) StepsFor(diagonal bool) []Step {
	if diagonal || bp.OffDiagonal == nil {
		return bp.Diagonal
	}
	return bp.OffDiagonal
}

// Render runs every renderer of the chain in order
func (ch *Chain) Render(c *cell.Cell, s ports.Surface) {
	if ch == nil {
		return
	}
	for _, r := range ch.renderers {
		r.Render(c, s)
	}
}

// Teardown removes every listener installed on the chain's renderers.
// Calling it more than once is safe.
func (ch *Chain) Teardown() {
	if ch == nil {
		return
	}
	for _, r := range ch.renderers {
		r.RemoveWeightFactorListener()
		r.RemoveYAxisScaleListener()
	}
}

// Kinds returns the renderer kinds in chain order
func (ch *Chain) Kinds() []Kind {
	return lo.Map(ch.renderers, func(r Renderer, _ int) Kind { return r.Kind() })
}

// Len returns the number of renderers
func (ch *Chain) Len() int { return len(ch.renderers) }

// Mount composes the chain for c and renders it once onto s
func Mount(bp Blueprint, c *cell.Cell, steps []Step, env Env, s ports.Surface) (*Chain, error) {
	ch, err := Compose(bp, steps, env)
	if err != nil {
		log.Printf("[Render] Failed to compose chain for %s: %v", c.ID, err)
		return nil, err
	}
	ch.Render(c, s)
	return ch, nil
}
