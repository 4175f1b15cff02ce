package agent

import (
	"context"
	"sort"
	"sync"

	"github.com/sentinela-labs/sentinela/logging"
	"github.com/sentinela-labs/sentinela/sentinelerrors"
)

// Registry is a name -> agent mapping owned by the orchestrator.
// Registration is one-way: nothing unregisters an agent mid-run.
type Registry struct {
	mu     sync.RWMutex
	agents map[string]Agent
	logger logging.Logger
}

// NewRegistry builds an empty Registry.
func NewRegistry(logger logging.Logger) *Registry {
	if logger == nil {
		logger = &logging.NoOpLogger{}
	}
	return &Registry{
		agents: make(map[string]Agent),
		logger: logger,
	}
}

// Register adds an agent under its own Name(). Registering twice under
// the same name replaces the prior entry — callers that want strict
// one-way registration should check Lookup first.
func (r *Registry) Register(a Agent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.agents[a.Name()] = a
	r.logger.Info("agent registered", map[string]interface{}{"agent": a.Name()})
}

// Lookup resolves an agent by name.
func (r *Registry) Lookup(name string) (Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.agents[name]
	if !ok {
		return nil, sentinelerrors.New("registry.Lookup", "agent", sentinelerrors.ErrAgentNotFound).WithID(name)
	}
	return a, nil
}

// Names returns every registered agent name, sorted for deterministic
// iteration in logs and tests.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.agents))
	for name := range r.agents {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// InitializeAll calls Initialize on every registered agent, stopping and
// returning the first error encountered.
func (r *Registry) InitializeAll(ctx context.Context) error {
	for _, name := range r.Names() {
		a, err := r.Lookup(name)
		if err != nil {
			return err
		}
		if err := a.Initialize(ctx); err != nil {
			return sentinelerrors.New("registry.InitializeAll", "agent", err).WithID(name)
		}
	}
	return nil
}

// ShutdownAll calls Shutdown on every registered agent, collecting but not
// stopping on individual failures.
func (r *Registry) ShutdownAll(ctx context.Context) []error {
	var errs []error
	for _, name := range r.Names() {
		a, err := r.Lookup(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := a.Shutdown(ctx); err != nil {
			errs = append(errs, sentinelerrors.New("registry.ShutdownAll", "agent", err).WithID(name))
		}
	}
	return errs
}
