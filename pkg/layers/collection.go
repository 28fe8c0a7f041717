package layers

import (
	"sync"

	"ngffviewer/pkg/resolver"
)

// Collection owns the layer state of a viewer session. Readers may run
// concurrently; Update calls are serialized.
type Collection struct {
	mu         sync.RWMutex
	states     []*LayerState
	infos      []*SourceInfo
	forceLabel []bool
}

// NewCollection derives the initial state of the resolved sources
func NewCollection(sources []*resolver.ResolvedSource, forceLabel []bool) *Collection {
	infos := make([]*SourceInfo, len(sources))
	for i, src := range sources {
		infos[i] = NewSourceInfo(src)
	}
	return &Collection{
		states:     DeriveInitial(sources, forceLabel),
		infos:      infos,
		forceLabel: append([]bool(nil), forceLabel...),
	}
}

// States returns the current state. The slice must not be modified.
func (c *Collection) States() []*LayerState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.states
}

// Sources returns the static metadata of every source, nil for failed ones
func (c *Collection) Sources() []*SourceInfo {
	return c.infos
}

// Len is the number of sources, failed ones included
func (c *Collection) Len() int {
	return len(c.infos)
}

// Update replaces the state with the result of op and reports whether
// anything changed
func (c *Collection) Update(op func([]*LayerState) []*LayerState) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := op(c.states)
	changed := len(next) != len(c.states)
	for i := 0; !changed && i < len(next); i++ {
		changed = next[i] != c.states[i]
	}
	c.states = next
	return changed
}

// Descriptors returns the render descriptors of the current state
func (c *Collection) Descriptors() []Descriptor {
	return Descriptors(c.States(), c.forceLabel)
}
