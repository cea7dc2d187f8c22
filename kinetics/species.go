package kinetics

import "fmt"

// SpeciesID is a handle into a Registry. Reactions hold handles rather than
// species values so that every reaction referencing a species observes the
// same count.
type SpeciesID int

// Species is a named, non-negative molecule count.
type Species struct {
	name  string
	count int64
}

// Name returns the species name.
func (s *Species) Name() string { return s.name }

// Count returns the current number of molecules.
func (s *Species) Count() int64 { return s.count }

// Produce adds one molecule.
func (s *Species) Produce() { s.count++ }

// ProduceN adds n molecules. Non-positive n is a no-op.
func (s *Species) ProduceN(n int64) {
	if n > 0 {
		s.count += n
	}
}

// Destroy removes one molecule. It fails without mutating when the count is
// already zero.
func (s *Species) Destroy() error {
	return s.DestroyN(1)
}

// DestroyN removes n molecules, all or nothing.
func (s *Species) DestroyN(n int64) error {
	if n <= 0 {
		return nil
	}
	if s.count < n {
		return &StateError{Species: s.name, Count: s.count, Want: n}
	}
	s.count -= n
	return nil
}

// Registry is the indexed set of species a network owns. Index order is the
// column order of recorded trajectories.
type Registry struct {
	species []Species
	index   map[string]SpeciesID
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{index: make(map[string]SpeciesID)}
}

// Add registers a species with an initial count.
func (r *Registry) Add(name string, count int64) (SpeciesID, error) {
	if name == "" {
		return 0, configErrorf("species", "name must not be empty")
	}
	if _, dup := r.index[name]; dup {
		return 0, configErrorf("species."+name, "duplicate species name")
	}
	if count < 0 {
		return 0, configErrorf("species."+name, "initial count %d is negative", count)
	}
	id := SpeciesID(len(r.species))
	r.species = append(r.species, Species{name: name, count: count})
	r.index[name] = id
	return id, nil
}

// Lookup resolves a species name to its handle.
func (r *Registry) Lookup(name string) (SpeciesID, bool) {
	id, ok := r.index[name]
	return id, ok
}

// Has reports whether id refers to a registered species.
func (r *Registry) Has(id SpeciesID) bool {
	return id >= 0 && int(id) < len(r.species)
}

// Species returns the species behind id. It panics on an unknown handle, as
// slice indexing would.
func (r *Registry) Species(id SpeciesID) *Species {
	return &r.species[id]
}

// Count returns the current count of id.
func (r *Registry) Count(id SpeciesID) int64 {
	return r.species[id].count
}

// Produce adds n molecules of id.
func (r *Registry) Produce(id SpeciesID, n int64) {
	r.species[id].ProduceN(n)
}

// Destroy removes n molecules of id.
func (r *Registry) Destroy(id SpeciesID, n int64) error {
	return r.species[id].DestroyN(n)
}

// Set overwrites the count of id. Used when resetting initial conditions.
func (r *Registry) Set(id SpeciesID, count int64) error {
	if count < 0 {
		return fmt.Errorf("set %q to %d: %w", r.species[id].name, count, ErrInvalidState)
	}
	r.species[id].count = count
	return nil
}

// Len returns the number of registered species.
func (r *Registry) Len() int { return len(r.species) }

// Names returns species names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.species))
	for i := range r.species {
		names[i] = r.species[i].name
	}
	return names
}

// Snapshot copies the current counts in registration order.
func (r *Registry) Snapshot() []int64 {
	counts := make([]int64, len(r.species))
	for i := range r.species {
		counts[i] = r.species[i].count
	}
	return counts
}

// Total returns the sum of all counts.
func (r *Registry) Total() int64 {
	var total int64
	for i := range r.species {
		total += r.species[i].count
	}
	return total
}

// Clone returns an independent copy with the same names and counts.
func (r *Registry) Clone() *Registry {
	c := &Registry{
		species: make([]Species, len(r.species)),
		index:   make(map[string]SpeciesID, len(r.index)),
	}
	copy(c.species, r.species)
	for name, id := range r.index {
		c.index[name] = id
	}
	return c
}
