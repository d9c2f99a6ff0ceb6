package graph

import (
	"encoding/json"
	"io"

	"github.com/Jeffail/gabs/v2"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// Wire-level type markers used to classify entities when a document is
// loaded.
const (
	// TypeEncryptedMessage marks an envelope record.
	TypeEncryptedMessage = "EncryptedGraphMessage"
	// TypeAudience marks a recipient descriptor.
	TypeAudience = "Audience"
)

// Document field names in the serialized form.
const (
	fieldContext   = "@context"
	fieldGraph     = "@graph"
	fieldEncrypted = "@encrypted"
	fieldID        = "@id"
)

// DefaultContext is the context written for documents that were built in
// memory rather than loaded from an existing file.
const DefaultContext = "https://w3id.org/ro/crate/1.1/context"

// Document is a metadata document: a context, the entity graph, and the
// envelope records holding encrypted entities. Envelope records live under a
// reserved top-level field so the plaintext graph stays structurally valid
// for readers that know nothing about encryption.
type Document struct {
	Context   any
	Graph     *Graph
	Envelopes []*Entity
}

// NewDocument returns an empty document with the default context.
func NewDocument() *Document {
	return &Document{Context: DefaultContext, Graph: New()}
}

// Load parses a serialized document. Structural faults (missing context or
// graph, non-object graph members, malformed envelope records) are collected
// and returned together; a document with structural faults is rejected as a
// whole.
func Load(r io.Reader) (*Document, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "reading document")
	}
	container, err := gabs.ParseJSON(raw)
	if err != nil {
		return nil, errors.Wrap(err, "parsing document JSON")
	}

	var result *multierror.Error
	if !container.Exists(fieldContext) {
		result = multierror.Append(result, errors.Errorf("document must have a %s", fieldContext))
	}
	if !container.Exists(fieldGraph) {
		result = multierror.Append(result, errors.Errorf("document must have a %s", fieldGraph))
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}

	doc := &Document{Context: container.Path(fieldContext).Data(), Graph: New()}

	for i, child := range container.Path(fieldGraph).Children() {
		props, ok := child.Data().(map[string]any)
		if !ok {
			result = multierror.Append(result, errors.Errorf("graph member %d is not an object", i))
			continue
		}
		id, ok := props[fieldID].(string)
		if !ok || id == "" {
			result = multierror.Append(result, errors.Errorf("graph member %d has no %s", i, fieldID))
			continue
		}
		doc.Graph.Add(NewEntity(id, classify(props), props))
	}

	if container.Exists(fieldEncrypted) {
		for i, child := range container.Path(fieldEncrypted).Children() {
			env, err := loadEnvelope(child, i)
			if err != nil {
				result = multierror.Append(result, err)
				continue
			}
			doc.Envelopes = append(doc.Envelopes, env)
		}
	}

	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}
	return doc, nil
}

// classify derives the entity kind from its wire types. Sensitive entities
// never appear in the plaintext graph, so the only special kinds on load are
// envelopes (rejected here, they belong under the reserved field) and
// recipient descriptors.
func classify(props map[string]any) Kind {
	e := &Entity{props: props}
	if e.HasType(TypeAudience) {
		return KindRecipient
	}
	return KindPlain
}

func loadEnvelope(child *gabs.Container, i int) (*Entity, error) {
	props, ok := child.Data().(map[string]any)
	if !ok {
		return nil, errors.Errorf("envelope record %d is not an object", i)
	}
	e := &Entity{props: props}
	id, _ := props[fieldID].(string)
	switch {
	case id == "":
		return nil, errors.Errorf("envelope record %d has no %s", i, fieldID)
	case !e.HasType(TypeEncryptedMessage):
		return nil, errors.Errorf("envelope record %q is not typed %s", id, TypeEncryptedMessage)
	default:
		if ciphertext, ok := props["encryptedGraph"].(string); !ok || ciphertext == "" {
			return nil, errors.Errorf("envelope record %q has no ciphertext", id)
		}
	}
	return NewEntity(id, KindEnvelope, props), nil
}

// Write serializes the document. Sensitive entities must have been sealed
// into envelopes first; writing a document that still holds plaintext
// sensitive entities is refused so they cannot leak into the output.
func (d *Document) Write(w io.Writer) error {
	entities := d.Graph.Entities()
	graphOut := make([]map[string]any, 0, len(entities))
	for _, e := range entities {
		if e.Kind() == KindSensitive {
			return errors.Errorf("document still contains unencrypted sensitive entity %q", e.ID())
		}
		graphOut = append(graphOut, e.Properties())
	}

	out := map[string]any{
		fieldContext: d.Context,
		fieldGraph:   graphOut,
	}
	if len(d.Envelopes) > 0 {
		envOut := make([]map[string]any, 0, len(d.Envelopes))
		for _, env := range d.Envelopes {
			envOut = append(envOut, env.Properties())
		}
		out[fieldEncrypted] = envOut
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	return errors.Wrap(enc.Encode(out), "writing document")
}
