// Package registry tracks the mapping from human-readable artifact
// descriptions to the opaque node ids handed out by the graph store. A
// Registry is scoped to a single pipeline run and is discarded afterwards.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// NodeStore is the narrow slice of the graph store the registry needs. The
// memex client satisfies it; tests use an in-memory fake.
type NodeStore interface {
	Add(ctx context.Context, content string) (string, error)
	Fetch(ctx context.Context, id string) (string, error)
	Link(ctx context.Context, src, dst, relation string) error
}

// ErrDuplicateDescription reports a second Store call under a description
// already recorded in this run. Descriptions are written at most once.
var ErrDuplicateDescription = errors.New("registry: description already stored")

// ErrUnknownDescription reports a lookup for a description that was never
// stored. An unresolved dependency is a stage-wiring bug, not a soft miss.
var ErrUnknownDescription = errors.New("registry: unknown description")

// Registry is the in-memory description -> node id map for one run.
type Registry struct {
	store NodeStore

	mu    sync.RWMutex
	nodes map[string]string
}

// New returns an empty registry backed by the given store.
func New(store NodeStore) *Registry {
	return &Registry{store: store, nodes: map[string]string{}}
}

// Store submits content to the graph store and records the returned node id
// under description.
func (r *Registry) Store(ctx context.Context, description, content string) (string, error) {
	if description == "" {
		return "", fmt.Errorf("registry: description is required")
	}
	r.mu.RLock()
	_, exists := r.nodes[description]
	r.mu.RUnlock()
	if exists {
		return "", fmt.Errorf("%w: %s", ErrDuplicateDescription, description)
	}
	id, err := r.store.Add(ctx, content)
	if err != nil {
		return "", err
	}
	r.mu.Lock()
	r.nodes[description] = id
	r.mu.Unlock()
	return id, nil
}

// NodeID returns the node id recorded under description.
func (r *Registry) NodeID(description string) (string, error) {
	r.mu.RLock()
	id, ok := r.nodes[description]
	r.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownDescription, description)
	}
	return id, nil
}

// Resolve fetches the full content stored under description.
func (r *Registry) Resolve(ctx context.Context, description string) (string, error) {
	id, err := r.NodeID(description)
	if err != nil {
		return "", err
	}
	return r.store.Fetch(ctx, id)
}

// Link records a directed typed edge between the nodes registered under two
// descriptions.
func (r *Registry) Link(ctx context.Context, from, to, relation string) error {
	src, err := r.NodeID(from)
	if err != nil {
		return err
	}
	dst, err := r.NodeID(to)
	if err != nil {
		return err
	}
	return r.store.Link(ctx, src, dst, relation)
}

// Descriptions returns the sorted descriptions recorded so far.
func (r *Registry) Descriptions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.nodes))
	for description := range r.nodes {
		out = append(out, description)
	}
	sort.Strings(out)
	return out
}
