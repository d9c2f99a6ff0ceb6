package envelope

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/graphseal/graphseal/pkg/graph"
	"github.com/graphseal/graphseal/pkg/identity"
	"github.com/graphseal/graphseal/pkg/keyserver"
	"github.com/graphseal/graphseal/pkg/pgp"
)

// DeliveryMethod identifies the envelope encoding scheme: OpenPGP, RFC 4880.
const DeliveryMethod = "https://doi.org/10.17487/RFC4880"

const (
	typeSendAction   = "SendAction"
	typeContactPoint = "ContactPoint"

	actionStatusPotential = "PotentialActionStatus"
	audienceType          = "encrypted message recipients"
)

// Encoder turns recipient groups into envelope records and the recipient
// descriptors derived from them.
type Encoder struct {
	// Ring is the cryptography backend.
	Ring pgp.Keyring
	// Keyserver, when set, is recorded on each recipient descriptor as a
	// lookup URL for its key.
	Keyserver string
	// NewID generates envelope identifiers. Defaults to random UUIDs.
	NewID func() string
}

// Encode serializes and encrypts each group once. A backend failure is fatal
// for the whole encode; no partial envelope record is ever produced. On
// success it returns the envelope entities and the recipient descriptors,
// one per distinct key identity across all envelopes, each back-linked to
// every envelope addressed to it.
func (enc *Encoder) Encode(ctx context.Context, groups []*Group) ([]*graph.Entity, []*graph.Entity, error) {
	localKeys := enc.Ring.LocalKeys()

	var envelopes []*graph.Entity
	descriptors := map[string]*graph.Entity{}
	var descriptorOrder []string

	for _, group := range groups {
		fragments := make([]map[string]any, 0, len(group.Members))
		for _, member := range group.Members {
			fragments = append(fragments, member.Properties())
		}
		plaintext, err := json.Marshal(fragments)
		if err != nil {
			return nil, nil, errors.Wrap(err, "serializing group fragments")
		}

		ciphertext, err := enc.Ring.Encrypt(ctx, plaintext, group.Fingerprints)
		if err != nil {
			return nil, nil, &BackendError{Status: err.Error()}
		}

		envelope := graph.NewEntity(enc.newID(), graph.KindEnvelope, map[string]any{
			"@type":          []any{typeSendAction, graph.TypeEncryptedMessage},
			"actionStatus":   actionStatusPotential,
			"deliveryMethod": DeliveryMethod,
			"encryptedGraph": ciphertext,
		})

		for _, fingerprint := range group.Fingerprints {
			key := identity.KeyIdentity{Fingerprint: fingerprint}
			if info, ok := localKeys[fingerprint]; ok {
				key.Algorithm = info.Algorithm
				key.Identities = info.Identities
			}
			displayID := key.DisplayID()
			envelope.AppendTo("recipients", graph.Ref(displayID))

			descriptor, ok := descriptors[displayID]
			if !ok {
				descriptor = enc.newDescriptor(key)
				descriptors[displayID] = descriptor
				descriptorOrder = append(descriptorOrder, displayID)
			}
			descriptor.AppendTo("action", graph.Ref(envelope.ID()))
		}
		envelopes = append(envelopes, envelope)
	}

	ordered := make([]*graph.Entity, 0, len(descriptorOrder))
	for _, displayID := range descriptorOrder {
		ordered = append(ordered, descriptors[displayID])
	}
	return envelopes, ordered, nil
}

func (enc *Encoder) newID() string {
	if enc.NewID != nil {
		return enc.NewID()
	}
	return "#" + uuid.NewString()
}

// newDescriptor builds a recipient descriptor for one key identity. A
// fingerprint with no discoverable metadata still yields a minimal
// descriptor keyed on the fingerprint itself.
func (enc *Encoder) newDescriptor(key identity.KeyIdentity) *graph.Entity {
	props := map[string]any{
		"@type":                []any{typeContactPoint, graph.TypeAudience},
		"audienceType":         audienceType,
		graph.PropFingerprints: key.Fingerprint,
	}
	if primary := key.Primary(); primary.Name != "" {
		props["name"] = primary.Name
		if primary.Email != identity.NoValidContact {
			props["email"] = primary.Email
		}
	}
	if key.Algorithm != "" {
		props["encryptionMethod"] = key.Algorithm
	}
	if len(key.Identities) > 1 {
		extra := make([]any, 0, len(key.Identities)-1)
		for _, raw := range key.Identities[1:] {
			extra = append(extra, raw)
		}
		props["identifier"] = extra
	}
	if enc.Keyserver != "" {
		props["url"] = keyserver.LookupURL(enc.Keyserver, key.Fingerprint)
	}
	return graph.NewEntity(key.DisplayID(), graph.KindRecipient, props)
}
