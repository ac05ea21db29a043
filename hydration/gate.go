// Package hydration gates tenant-scoped work on the client store having been
// rehydrated, so nothing reads the default identity by accident.
package hydration

import (
	"context"
	"sync"

	"github.com/creastat/scalexone/logger"
)

// State is the gate's position in NotStarted -> Rehydrating -> Hydrated.
type State int

const (
	NotStarted State = iota
	Rehydrating
	Hydrated
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "NOT_STARTED"
	case Rehydrating:
		return "REHYDRATING"
	case Hydrated:
		return "HYDRATED"
	default:
		return "UNKNOWN"
	}
}

// Rehydrater is implemented by store.Store.
type Rehydrater interface {
	Rehydrate(ctx context.Context) error
}

// Gate coordinates startup. Hydrated is terminal.
type Gate struct {
	target Rehydrater
	log    *logger.Logger

	mu    sync.Mutex
	state State
	done  chan struct{}
}

// New creates a gate in the NotStarted state.
func New(target Rehydrater, log *logger.Logger) *Gate {
	return &Gate{
		target: target,
		log:    logger.OrNop(log).With("component", "hydration"),
		done:   make(chan struct{}),
	}
}

// State returns the current state.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Start moves NotStarted to Rehydrating and rehydrates in the background.
// Calls after the first are no-ops. ctx bounds the rehydration itself; if it
// is canceled before the store could be read the gate returns to NotStarted
// so a later Start can try again.
func (g *Gate) Start(ctx context.Context) {
	g.mu.Lock()
	if g.state != NotStarted {
		g.mu.Unlock()
		return
	}
	g.state = Rehydrating
	g.mu.Unlock()

	go g.run(ctx)
}

func (g *Gate) run(ctx context.Context) {
	if err := g.target.Rehydrate(ctx); err != nil {
		g.log.Warn("rehydration interrupted", "error", err)
		g.mu.Lock()
		g.state = NotStarted
		g.mu.Unlock()
		return
	}

	g.mu.Lock()
	g.state = Hydrated
	close(g.done)
	g.mu.Unlock()
}

// Done is closed once the gate reaches Hydrated.
func (g *Gate) Done() <-chan struct{} {
	return g.done
}

// Wait blocks until Hydrated or ctx is done. It does not start the gate.
func (g *Gate) Wait(ctx context.Context) error {
	select {
	case <-g.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Do runs fn once the store is hydrated, starting rehydration if nothing has
// yet. Tenant-scoped fetches go through Do.
func (g *Gate) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	g.Start(context.WithoutCancel(ctx))
	if err := g.Wait(ctx); err != nil {
		return err
	}
	return fn(ctx)
}
