package registry

import (
	"fmt"
	"slices"
	"sync"

	"github.com/arthur-debert/fsmerge/pkg/errors"
)

// Registry maps names to items and remembers the order they were added in.
// Implementations are safe for concurrent use.
type Registry[T any] interface {
	Register(name string, item T) error
	Get(name string) (T, error)
	Remove(name string) error
	// Names lists registered names in registration order
	Names() []string
	Has(name string) bool
	Count() int
	// Each visits items in registration order until fn returns false
	Each(fn func(name string, item T) bool)
}

type entry[T any] struct {
	name string
	item T
}

// ordered keeps entries in a slice with a name index into it
type ordered[T any] struct {
	mu      sync.RWMutex
	entries []entry[T]
	index   map[string]int
}

// New returns an empty Registry
func New[T any]() Registry[T] {
	return &ordered[T]{index: map[string]int{}}
}

func notFound(name string) error {
	return errors.Newf(errors.ErrNotFound, "%q is not registered", name).WithDetail("name", name)
}

func (r *ordered[T]) Register(name string, item T) error {
	if name == "" {
		return errors.New(errors.ErrInvalidInput, "registry name cannot be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.index[name]; ok {
		return errors.Newf(errors.ErrAlreadyExists, "%q is already registered", name).WithDetail("name", name)
	}
	r.index[name] = len(r.entries)
	r.entries = append(r.entries, entry[T]{name: name, item: item})
	return nil
}

func (r *ordered[T]) Get(name string) (T, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i, ok := r.index[name]; ok {
		return r.entries[i].item, nil
	}
	var zero T
	return zero, notFound(name)
}

func (r *ordered[T]) Remove(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.index[name]
	if !ok {
		return notFound(name)
	}
	r.entries = slices.Delete(r.entries, i, i+1)
	delete(r.index, name)
	for j := i; j < len(r.entries); j++ {
		r.index[r.entries[j].name] = j
	}
	return nil
}

func (r *ordered[T]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.entries))
	for i, e := range r.entries {
		names[i] = e.name
	}
	return names
}

func (r *ordered[T]) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.index[name]
	return ok
}

func (r *ordered[T]) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Each iterates over a snapshot, so fn may call back into the registry
func (r *ordered[T]) Each(fn func(name string, item T) bool) {
	r.mu.RLock()
	snapshot := slices.Clone(r.entries)
	r.mu.RUnlock()
	for _, e := range snapshot {
		if !fn(e.name, e.item) {
			return
		}
	}
}

// MustRegister registers item and panics on failure; use it for
// registrations fixed at build time.
func MustRegister[T any](reg Registry[T], name string, item T) {
	if err := reg.Register(name, item); err != nil {
		panic(fmt.Sprintf("registering %s: %v", name, err))
	}
}
