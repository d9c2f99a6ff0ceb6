// Package envelope implements selective multi-recipient encryption for
// metadata documents: sensitive entities are resolved to their recipient
// fingerprint sets, grouped by identical sets, and encrypted once per group
// into self-describing envelope records embedded in the document. On load,
// envelopes the local keys can open are spliced back into the graph; the
// rest are silently omitted.
//
// The pipeline is synchronous and single-threaded; the cryptography backend
// call is the only externally-blocking operation.
package envelope

import (
	"context"

	"github.com/graphseal/graphseal/pkg/graph"
	"github.com/graphseal/graphseal/pkg/keyserver"
	"github.com/graphseal/graphseal/pkg/pgp"
)

// KeyFetcher retrieves missing public keys before encoding, best effort.
type KeyFetcher interface {
	Fetch(ctx context.Context, fingerprints []string) keyserver.ImportResult
}

// Codec ties the two pipelines together: resolve → aggregate → encode on
// Seal, decode → merge on Open.
type Codec struct {
	// Ring is the cryptography backend.
	Ring pgp.Keyring
	// Defaults are document-wide recipient fingerprints, unioned into every
	// sensitive entity's resolved set.
	Defaults []string
	// AllowMissing tolerates recipient references that cannot be resolved
	// to keys, as long as each entity still ends up with at least one.
	AllowMissing bool
	// Keyserver is the base URL recorded on recipient descriptors; empty
	// disables it.
	Keyserver string
	// Fetcher, when set, is asked for recipient keys that are not in the
	// local ring before encoding. Fetch failures are not fatal; encoding
	// proceeds with whatever keys are available.
	Fetcher KeyFetcher
}

// Seal replaces every sensitive entity in doc with envelope records and
// recipient descriptors. The document is modified in place and is ready to
// be written afterwards. A document without sensitive entities is left
// untouched.
func (c *Codec) Seal(ctx context.Context, doc *graph.Document) error {
	var sensitive []*graph.Entity
	for _, e := range doc.Graph.Entities() {
		if e.Kind() == graph.KindSensitive {
			sensitive = append(sensitive, e)
		}
	}
	if len(sensitive) == 0 {
		return nil
	}

	resolver := &Resolver{Defaults: c.Defaults}
	groups, err := resolver.Aggregate(doc.Graph, sensitive, c.AllowMissing)
	if err != nil {
		return err
	}

	if c.Fetcher != nil {
		if missing := c.missingKeys(groups); len(missing) > 0 {
			c.Fetcher.Fetch(ctx, missing)
		}
	}

	encoder := &Encoder{Ring: c.Ring, Keyserver: c.Keyserver}
	envelopes, descriptors, err := encoder.Encode(ctx, groups)
	if err != nil {
		return err
	}

	for _, e := range sensitive {
		doc.Graph.Remove(e.ID())
	}
	for _, descriptor := range descriptors {
		doc.Graph.Add(descriptor)
	}
	doc.Envelopes = append(doc.Envelopes, envelopes...)
	return nil
}

// Open decrypts whatever envelopes the local keys can open and merges the
// recovered sensitive entities into the graph. It returns the recovered
// entities.
func (c *Codec) Open(ctx context.Context, doc *graph.Document) ([]*graph.Entity, error) {
	decoder := &Decoder{Ring: c.Ring}
	return decoder.Decode(ctx, doc)
}

// missingKeys returns the fingerprints across all groups that have no local
// key material.
func (c *Codec) missingKeys(groups []*Group) []string {
	local := c.Ring.LocalKeys()
	seen := map[string]bool{}
	var missing []string
	for _, group := range groups {
		for _, fingerprint := range group.Fingerprints {
			if _, ok := local[fingerprint]; ok || seen[fingerprint] {
				continue
			}
			seen[fingerprint] = true
			missing = append(missing, fingerprint)
		}
	}
	return missing
}
