package scene

import "github.com/google/uuid"

// Registry resolves entity handles. Tracks keep only a handle to their owner,
// so a removed entity simply stops resolving.
type Registry struct {
	entities map[uuid.UUID]*Entity
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entities: make(map[uuid.UUID]*Entity)}
}

// Register adds e, assigning a handle if it has none, and returns the handle.
func (r *Registry) Register(e *Entity) uuid.UUID {
	if e.Handle == uuid.Nil {
		e.Handle = uuid.New()
	}
	r.entities[e.Handle] = e
	return e.Handle
}

// Lookup returns the entity for a handle.
func (r *Registry) Lookup(handle uuid.UUID) (*Entity, bool) {
	e, ok := r.entities[handle]
	return e, ok
}

// Remove forgets an entity.
func (r *Registry) Remove(handle uuid.UUID) {
	delete(r.entities, handle)
}

// Len returns the number of registered entities.
func (r *Registry) Len() int {
	return len(r.entities)
}
