package envelope

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/graphseal/graphseal/pkg/graph"
	"github.com/graphseal/graphseal/pkg/logs"
	"github.com/graphseal/graphseal/pkg/pgp"
)

// Decoder reconstitutes sensitive entities from the envelope records of a
// loaded document.
type Decoder struct {
	// Ring is the cryptography backend holding the reader's private keys.
	Ring pgp.Keyring
}

// Decode attempts to open every envelope in doc. An envelope the local keys
// cannot open is skipped without error: its entities are simply absent from
// the loaded graph. Recovered entities are spliced back into the graph as
// live sensitive entities, replacing any entity with the same id.
//
// Consumed envelopes and the recipient descriptors produced by the previous
// encode are removed from the document, so sealing it again starts from a
// clean graph.
func (d *Decoder) Decode(ctx context.Context, doc *graph.Document) ([]*graph.Entity, error) {
	log := logs.Component("envelope")

	var recovered []*graph.Entity
	for _, env := range doc.Envelopes {
		ciphertext, _ := env.Get("encryptedGraph").(string)

		plaintext, err := d.Ring.Decrypt(ctx, ciphertext)
		if err != nil {
			log.WithField("envelope", env.ID()).Debugf("skipping envelope: %s", err)
			continue
		}

		var fragments []map[string]any
		if err := json.Unmarshal(plaintext, &fragments); err != nil {
			return nil, errors.Wrapf(err, "malformed payload in envelope %q", env.ID())
		}
		for _, props := range fragments {
			id, _ := props["@id"].(string)
			if id == "" {
				return nil, errors.Errorf("envelope %q holds an entity with no @id", env.ID())
			}
			e := graph.NewEntity(id, graph.KindSensitive, props)
			doc.Graph.Add(e)
			recovered = append(recovered, e)
		}
	}

	doc.Envelopes = nil
	for _, e := range doc.Graph.Entities() {
		if e.Kind() == graph.KindRecipient {
			doc.Graph.Remove(e.ID())
		}
	}
	return recovered, nil
}
