// Package graph models the metadata document the encryption subsystem
// operates on: a set of identified entities with arbitrary properties and
// cross-references by id.
//
// Cross-entity references are kept as explicit id strings resolved through an
// arena-style lookup table rather than in-memory pointers, so a document can
// be serialized and partially reloaded.
package graph

// Graph is the arena of live entities, indexed by id. Iteration order is
// insertion order.
type Graph struct {
	order []string
	byID  map[string]*Entity
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{byID: map[string]*Entity{}}
}

// Add inserts an entity, replacing any existing entity with the same id. A
// replaced entity keeps its original position. The entity is returned to
// allow chained construction.
func (g *Graph) Add(e *Entity) *Entity {
	id := e.ID()
	if _, exists := g.byID[id]; !exists {
		g.order = append(g.order, id)
	}
	g.byID[id] = e
	return e
}

// Entities returns all entities in insertion order.
func (g *Graph) Entities() []*Entity {
	out := make([]*Entity, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.byID[id])
	}
	return out
}

// Dereference resolves an id to its entity, or nil when the id is unknown.
func (g *Graph) Dereference(id string) *Entity {
	return g.byID[id]
}

// Remove deletes the entity with the given id, if present.
func (g *Graph) Remove(id string) {
	if _, exists := g.byID[id]; !exists {
		return
	}
	delete(g.byID, id)
	for i, existing := range g.order {
		if existing == id {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
}

// Len returns the number of live entities.
func (g *Graph) Len() int {
	return len(g.byID)
}
