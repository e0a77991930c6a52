package sensor_simulator

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

var ErrDuplicateSensor = errors.New("sensor id already registered")

// Registry indicizza i Reader per id. Viene creato dal coordinatore e passato
// esplicitamente ai componenti che devono risolvere un sensore.
type Registry struct {
	mu      sync.RWMutex
	readers map[int]*Reader
}

func NewRegistry() *Registry {
	return &Registry{readers: make(map[int]*Reader)}
}

func (r *Registry) Register(rd *Reader) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.readers[rd.ID()]; ok {
		return fmt.Errorf("%w: %d (%s)", ErrDuplicateSensor, rd.ID(), cur.Name())
	}
	r.readers[rd.ID()] = rd
	return nil
}

func (r *Registry) Lookup(id int) (*Reader, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rd, ok := r.readers[id]
	return rd, ok
}

// List ritorna i reader ordinati per id.
func (r *Registry) List() []*Reader {
	r.mu.RLock()
	out := make([]*Reader, 0, len(r.readers))
	for _, rd := range r.readers {
		out = append(out, rd)
	}
	r.mu.RUnlock()
	slices.SortFunc(out, func(a, b *Reader) int { return a.ID() - b.ID() })
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.readers)
}
