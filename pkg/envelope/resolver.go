package envelope

import (
	"sort"

	"github.com/graphseal/graphseal/pkg/graph"
	"github.com/graphseal/graphseal/pkg/pgp"
)

// Resolver computes the complete recipient fingerprint set of a sensitive
// entity: the union of the fingerprints attached directly to the entity, the
// fingerprints carried by each referenced recipient entity, and the
// document-wide defaults.
type Resolver struct {
	// Defaults are fingerprints unioned into every entity's resolved set,
	// so a document-wide recipient (an archivist key, say) never has to be
	// declared on each sensitive entity.
	Defaults []string
}

// Resolve returns the deduplicated recipient fingerprint set of e, sorted so
// repeated calls on an unchanged entity yield the same result.
//
// A referenced recipient that cannot be dereferenced, or that carries no
// fingerprints, is a missing member. With allowMissing the surviving
// fingerprints are still usable; without it a single missing member fails
// the whole resolution, even if others succeeded. An empty final set fails
// with NoValidKeysError.
func (r *Resolver) Resolve(g *graph.Graph, e *graph.Entity, allowMissing bool) ([]string, error) {
	set := map[string]struct{}{}
	add := func(fingerprints []string) {
		for _, fingerprint := range fingerprints {
			set[pgp.NormalizeFingerprint(fingerprint)] = struct{}{}
		}
	}

	add(e.Strings(graph.PropFingerprints))
	add(r.Defaults)

	var missing []string
	for _, id := range e.Refs(graph.PropRecipients) {
		member := g.Dereference(id)
		if member == nil {
			missing = append(missing, id)
			continue
		}
		fingerprints := member.Strings(graph.PropFingerprints)
		if len(fingerprints) == 0 {
			missing = append(missing, id)
			continue
		}
		add(fingerprints)
	}

	if len(missing) > 0 && !allowMissing {
		return nil, &MissingMemberError{EntityID: e.ID(), Missing: missing}
	}
	if len(set) == 0 {
		return nil, &NoValidKeysError{EntityID: e.ID()}
	}

	out := make([]string, 0, len(set))
	for fingerprint := range set {
		out = append(out, fingerprint)
	}
	sort.Strings(out)
	return out, nil
}
