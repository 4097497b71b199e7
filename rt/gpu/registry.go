package gpu

import (
	"sort"
	"sync"
)

// ResourceRegistry resolves shared GPU resources by name.
type ResourceRegistry interface {
	UniformBuffer(name string) (Buffer, bool)
}

// Registry is the frame graph's named uniform buffer table.
type Registry struct {
	mu      sync.RWMutex
	buffers map[string]Buffer
}

func NewRegistry() *Registry {
	return &Registry{buffers: make(map[string]Buffer)}
}

// Register stores buf under name and returns the buffer it replaced, if any.
func (r *Registry) Register(name string, buf Buffer) Buffer {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev := r.buffers[name]
	r.buffers[name] = buf
	return prev
}

func (r *Registry) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.buffers, name)
}

func (r *Registry) UniformBuffer(name string) (Buffer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	buf, ok := r.buffers[name]
	return buf, ok
}

// Names lists the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.buffers))
	for name := range r.buffers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
