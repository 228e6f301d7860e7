// Package registry maps normalized tool identifiers to processing
// capabilities. The set of capabilities is closed at startup: handlers
// resolve against whatever was registered during wiring and nothing can be
// added once the server is serving.
package registry

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"fileworks-hq/vulcan/pkg/capability"
)

// NotFoundError reports a tool identifier with no registered capability.
type NotFoundError struct {
	// Tool is the normalized identifier that failed to resolve.
	Tool string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no capability registered for tool %q", e.Tool)
}

// Registry is the closed set of dispatchable capabilities.
type Registry struct {
	mu           sync.RWMutex
	capabilities map[string]capability.Capability
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{capabilities: make(map[string]capability.Capability)}
}

// Normalize canonicalizes a raw tool identifier: lowercase, with every
// character outside [a-z0-9_-] removed. Path segments and lookups use the
// same normalization so equivalent spellings land on the same capability.
func Normalize(raw string) string {
	lowered := strings.ToLower(raw)
	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Register adds a capability under its normalized identifier. Registering
// two capabilities that normalize to the same identifier is a wiring bug.
func (r *Registry) Register(c capability.Capability) error {
	id := Normalize(c.ID())
	if id == "" {
		return fmt.Errorf("capability has empty identifier")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.capabilities[id]; exists {
		return fmt.Errorf("capability %q already registered", id)
	}
	r.capabilities[id] = c
	return nil
}

// Resolve returns the capability for a raw tool identifier, normalizing it
// first. Returns a NotFoundError when nothing is registered under it.
func (r *Registry) Resolve(raw string) (capability.Capability, error) {
	id := Normalize(raw)

	r.mu.RLock()
	defer r.mu.RUnlock()

	c, exists := r.capabilities[id]
	if !exists {
		return nil, &NotFoundError{Tool: id}
	}
	return c, nil
}

// IDs returns the sorted normalized identifiers of every registered
// capability.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.capabilities))
	for id := range r.capabilities {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
