// Package registry provides a global registry for policy population factories.
// Policies register themselves in init() functions, allowing the CLI and the
// viewer to discover and instantiate them without hardcoded dependencies.
package registry

import (
	"fmt"
	"math/rand"
	"sort"
	"sync"

	"github.com/vovakirdan/neuroflap/internal/sim"
)

// Factory builds a population of n policies, one per agent id.
// Any randomness must come from rng so populations are reproducible.
type Factory func(n int, rng *rand.Rand) sim.Policies

// PolicyInfo contains metadata about a registered policy.
type PolicyInfo struct {
	ID          string
	Description string
}

type entry struct {
	factory     Factory
	description string
}

var (
	entries = make(map[string]entry)
	mu      sync.RWMutex
)

// Register adds a policy factory to the registry.
// Typically called from an init() function.
// Panics if a policy with the same ID is already registered.
func Register(id, description string, f Factory) {
	mu.Lock()
	defer mu.Unlock()

	if _, exists := entries[id]; exists {
		panic(fmt.Sprintf("registry: policy %q already registered", id))
	}
	entries[id] = entry{factory: f, description: description}
}

// List returns information about all registered policies, sorted by ID.
func List() []PolicyInfo {
	mu.RLock()
	defer mu.RUnlock()

	result := make([]PolicyInfo, 0, len(entries))
	for id, e := range entries {
		result = append(result, PolicyInfo{
			ID:          id,
			Description: e.description,
		})
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	return result
}

// Create builds a population of n policies by ID.
// Returns an error if the policy ID is not registered or n is not positive.
func Create(id string, n int, rng *rand.Rand) (sim.Policies, error) {
	mu.RLock()
	e, ok := entries[id]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("registry: unknown policy %q", id)
	}
	if n <= 0 {
		return nil, fmt.Errorf("registry: population size must be positive, got %d", n)
	}

	return e.factory(n, rng), nil
}

// Exists checks if a policy with the given ID is registered.
func Exists(id string) bool {
	mu.RLock()
	defer mu.RUnlock()

	_, ok := entries[id]
	return ok
}
