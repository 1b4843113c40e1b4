package sim

import (
	"context"
)

// Pool bounds how many simulations integrate at once. Callers wait for a free
// slot until their context ends.
type Pool struct {
	sim   *Simulator
	slots chan struct{}
}

func NewPool(s *Simulator, workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{sim: s, slots: make(chan struct{}, workers)}
}

func (p *Pool) Run(ctx context.Context, req Request) (*Result, error) {
	select {
	case p.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, canceled(StageQueue, ctx)
	}
	defer func() { <-p.slots }()

	p.sim.rec.SimulationStarted()
	defer p.sim.rec.SimulationFinished()
	return p.sim.Run(ctx, req)
}

func (p *Pool) Size() int             { return cap(p.slots) }
func (p *Pool) Busy() int             { return len(p.slots) }
func (p *Pool) Simulator() *Simulator { return p.sim }
