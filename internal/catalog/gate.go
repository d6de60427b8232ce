// Package catalog serves read-only queries over the colleges table once the
// loader has published it.
package catalog

import (
	"errors"
	"sync"
	"sync/atomic"

	"capi/internal/models"
)

// State of a Gate.
type State int

const (
	NotReady State = iota
	Ready
)

func (s State) String() string {
	if s == Ready {
		return "ready"
	}
	return "not ready"
}

// ErrAlreadyPublished is returned when a table is published twice.
var ErrAlreadyPublished = errors.New("table already published")

// Gate holds the table and guards access to it until it is published. The
// table is written once and never modified afterwards, so readers need no
// locking.
type Gate struct {
	table atomic.Pointer[models.Table]
	mu    sync.Mutex
	ready chan struct{}
}

// NewGate returns a gate in the NotReady state.
func NewGate() *Gate {
	return &Gate{ready: make(chan struct{})}
}

// Publish makes table visible to readers. An empty table leaves the gate
// NotReady.
func (g *Gate) Publish(table models.Table) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.table.Load() != nil {
		return ErrAlreadyPublished
	}
	if len(table) == 0 {
		return nil
	}

	g.table.Store(&table)
	close(g.ready)
	return nil
}

// Table returns the published table or models.ErrNotReady.
func (g *Gate) Table() (models.Table, error) {
	t := g.table.Load()
	if t == nil {
		return nil, models.ErrNotReady
	}
	return *t, nil
}

// State reports whether a table has been published.
func (g *Gate) State() State {
	if g.table.Load() == nil {
		return NotReady
	}
	return Ready
}

// Ready returns a channel closed once the gate becomes Ready.
func (g *Gate) Ready() <-chan struct{} {
	return g.ready
}
