package agent

import (
	"context"
	"sync"

	"github.com/sentinela-labs/sentinela/sentinelerrors"
)

// Factory constructs a fresh Agent instance, used by Pool when no idle
// instance is available and on every Acquire when the pool is disabled.
type Factory func() (Agent, error)

// Lease represents a scoped acquisition of an agent instance. Callers
// must call Release exactly once, regardless of whether the lent agent's
// work succeeded.
type Lease struct {
	Agent Agent
	pool  *Pool
	name  string
}

// Release returns the leased agent instance to the pool for reuse.
func (l *Lease) Release() {
	if l == nil || l.pool == nil {
		return
	}
	l.pool.release(l.name, l.Agent)
}

// Pool lends agent instances under a scoped acquisition with guaranteed
// release, amortizing Initialize cost across tasks. When Enabled is
// false, Acquire always builds a fresh instance via the registered
// factory and Release is a no-op. The executor does not call Acquire on
// a disabled pool: it looks the agent up in the Registry instead, so every
// task shares the registered instance and no fresh one is built.
type Pool struct {
	Enabled bool

	mu        sync.Mutex
	factories map[string]Factory
	idle      map[string][]Agent
}

// NewPool builds a Pool. When enabled is false, Acquire always
// constructs via the factory and never reuses instances.
func NewPool(enabled bool) *Pool {
	return &Pool{
		Enabled:   enabled,
		factories: make(map[string]Factory),
		idle:      make(map[string][]Agent),
	}
}

// RegisterFactory binds a construction function for the named agent,
// used whenever the pool has no idle instance to lend.
func (p *Pool) RegisterFactory(name string, factory Factory) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.factories[name] = factory
}

// Acquire lends an agent instance for name, reusing an idle one if the
// pool is enabled and one exists, else constructing a fresh instance via
// the registered factory.
func (p *Pool) Acquire(ctx context.Context, name string) (*Lease, error) {
	p.mu.Lock()
	if p.Enabled {
		if idle := p.idle[name]; len(idle) > 0 {
			a := idle[len(idle)-1]
			p.idle[name] = idle[:len(idle)-1]
			p.mu.Unlock()
			return &Lease{Agent: a, pool: p, name: name}, nil
		}
	}
	factory, ok := p.factories[name]
	p.mu.Unlock()

	if !ok {
		return nil, sentinelerrors.New("pool.Acquire", "agent", sentinelerrors.ErrAgentNotFound).WithID(name)
	}

	a, err := factory()
	if err != nil {
		return nil, sentinelerrors.New("pool.Acquire", "agent", err).WithID(name)
	}
	if err := a.Initialize(ctx); err != nil {
		return nil, sentinelerrors.New("pool.Acquire", "agent", err).WithID(name)
	}
	return &Lease{Agent: a, pool: p, name: name}, nil
}

func (p *Pool) release(name string, a Agent) {
	if !p.Enabled {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.idle[name] = append(p.idle[name], a)
}

// Shutdown tears down every idle instance currently held by the pool.
func (p *Pool) Shutdown(ctx context.Context) []error {
	p.mu.Lock()
	idle := p.idle
	p.idle = make(map[string][]Agent)
	p.mu.Unlock()

	var errs []error
	for name, agents := range idle {
		for _, a := range agents {
			if err := a.Shutdown(ctx); err != nil {
				errs = append(errs, sentinelerrors.New("pool.Shutdown", "agent", err).WithID(name))
			}
		}
	}
	return errs
}
