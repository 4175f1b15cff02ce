package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAgent struct {
	name        string
	initErr     error
	shutdownErr error
}

func (s *stubAgent) Name() string                  { return s.name }
func (s *stubAgent) Description() string           { return "stub" }
func (s *stubAgent) Capabilities() []Capability    { return nil }
func (s *stubAgent) Initialize(ctx context.Context) error { return s.initErr }
func (s *stubAgent) Shutdown(ctx context.Context) error   { return s.shutdownErr }
func (s *stubAgent) Process(ctx context.Context, msg Message) (*Response, error) {
	return &Response{AgentName: s.name, Status: StatusCompleted}, nil
}

func TestRegistry_RegisterAndLookup(t *testing.T) {
	r := NewRegistry(nil)
	r.Register(&stubAgent{name: "alpha"})

	found, err := r.Lookup("alpha")
	require.NoError(t, err)
	assert.Equal(t, "alpha", found.Name())
}

func TestRegistry_LookupUnknownFails(t *testing.T) {
	r := NewRegistry(nil)
	_, err := r.Lookup("missing")
	assert.Error(t, err)
}

func TestRegistry_RegisterTwiceReplacesEntry(t *testing.T) {
	r := NewRegistry(nil)
	r.Register(&stubAgent{name: "alpha", initErr: errors.New("first")})
	r.Register(&stubAgent{name: "alpha", initErr: nil})

	found, _ := r.Lookup("alpha")
	require.NoError(t, found.Initialize(context.Background()))
}

func TestRegistry_NamesIsSortedAndDeduplicatedByKey(t *testing.T) {
	r := NewRegistry(nil)
	r.Register(&stubAgent{name: "zeta"})
	r.Register(&stubAgent{name: "alpha"})
	r.Register(&stubAgent{name: "mu"})
	r.Register(&stubAgent{name: "alpha"})

	assert.Equal(t, []string{"alpha", "mu", "zeta"}, r.Names())
}

func TestRegistry_InitializeAllStopsOnFirstError(t *testing.T) {
	r := NewRegistry(nil)
	r.Register(&stubAgent{name: "a"})
	r.Register(&stubAgent{name: "b", initErr: errors.New("boom")})
	r.Register(&stubAgent{name: "c"})

	err := r.InitializeAll(context.Background())
	assert.Error(t, err)
}

func TestRegistry_ShutdownAllCollectsAllErrorsWithoutStopping(t *testing.T) {
	r := NewRegistry(nil)
	r.Register(&stubAgent{name: "a", shutdownErr: errors.New("a failed")})
	r.Register(&stubAgent{name: "b"})
	r.Register(&stubAgent{name: "c", shutdownErr: errors.New("c failed")})

	errs := r.ShutdownAll(context.Background())
	assert.Len(t, errs, 2)
}
