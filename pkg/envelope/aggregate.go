package envelope

import (
	"strings"

	"github.com/graphseal/graphseal/pkg/graph"
)

// Group collects the sensitive entities that share one resolved recipient
// fingerprint set, so the whole group costs a single encryption operation.
type Group struct {
	// Fingerprints is the shared recipient set, deduplicated and sorted.
	Fingerprints []string
	// Members are the group's entities in discovery order.
	Members []*graph.Entity
}

// Aggregate resolves every entity and partitions them into groups with
// set-equal recipient fingerprints. Every entity lands in exactly one group;
// groups are ordered by first discovery. An empty entity list yields an
// empty group list.
func (r *Resolver) Aggregate(g *graph.Graph, entities []*graph.Entity, allowMissing bool) ([]*Group, error) {
	var groups []*Group
	index := map[string]*Group{}
	for _, e := range entities {
		fingerprints, err := r.Resolve(g, e, allowMissing)
		if err != nil {
			return nil, err
		}
		// Resolve returns a sorted deduplicated set, so the joined string is
		// a canonical, order-independent group key.
		key := strings.Join(fingerprints, "\n")
		group, ok := index[key]
		if !ok {
			group = &Group{Fingerprints: fingerprints}
			index[key] = group
			groups = append(groups, group)
		}
		group.Members = append(group.Members, e)
	}
	return groups, nil
}
