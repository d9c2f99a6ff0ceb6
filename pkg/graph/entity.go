package graph

// Kind classifies the entity variants the encryption subsystem distinguishes.
// Everything the subsystem does not specifically inspect is a plain entity.
type Kind int

const (
	// KindPlain is an ordinary metadata entity, passed through opaquely.
	KindPlain Kind = iota
	// KindSensitive marks an entity whose properties must only be readable
	// by its resolved recipients.
	KindSensitive
	// KindEnvelope is an encrypted message record holding the ciphertext of
	// one or more sensitive entities.
	KindEnvelope
	// KindRecipient is a descriptor linking a key identity to the envelopes
	// addressed to it.
	KindRecipient
)

// Reserved property keys the encryption subsystem inspects. All other
// properties pass through opaquely.
const (
	// PropRecipients holds references to the entities a sensitive entity
	// must be encrypted for.
	PropRecipients = "recipients"
	// PropFingerprints holds public key fingerprints, either directly on a
	// sensitive entity or on a referenced recipient entity.
	PropFingerprints = "pubkey_fingerprints"
)

// Entity is an identified node of the document graph with an arbitrary
// property bag. The "@id" and "@type" keys live in the property bag itself so
// an entity round-trips through serialization without loss.
type Entity struct {
	kind  Kind
	props map[string]any
}

// NewEntity builds an entity of the given kind. The supplied properties are
// copied; the "@id" key is always set to id.
func NewEntity(id string, kind Kind, props map[string]any) *Entity {
	p := make(map[string]any, len(props)+1)
	for k, v := range props {
		p[k] = v
	}
	p["@id"] = id
	return &Entity{kind: kind, props: p}
}

// ID returns the entity identifier.
func (e *Entity) ID() string {
	id, _ := e.props["@id"].(string)
	return id
}

// Kind returns the entity variant.
func (e *Entity) Kind() Kind {
	return e.kind
}

// Get returns the value of a property, or nil when it is absent.
func (e *Entity) Get(key string) any {
	return e.props[key]
}

// Set stores a property value, replacing any previous value.
func (e *Entity) Set(key string, value any) {
	e.props[key] = value
}

// AppendTo appends a value to a multi-valued property, promoting an existing
// scalar value to a list.
func (e *Entity) AppendTo(key string, value any) {
	switch existing := e.props[key].(type) {
	case nil:
		e.props[key] = []any{value}
	case []any:
		e.props[key] = append(existing, value)
	default:
		e.props[key] = []any{existing, value}
	}
}

// Properties returns a copy of the entity's property bag, including "@id"
// and "@type".
func (e *Entity) Properties() map[string]any {
	out := make(map[string]any, len(e.props))
	for k, v := range e.props {
		out[k] = v
	}
	return out
}

// Types returns the entity's "@type" values. A scalar type is returned as a
// one-element slice.
func (e *Entity) Types() []string {
	switch t := e.props["@type"].(type) {
	case string:
		return []string{t}
	case []any:
		out := make([]string, 0, len(t))
		for _, v := range t {
			if s, ok := v.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return t
	}
	return nil
}

// HasType reports whether typ appears among the entity's "@type" values.
func (e *Entity) HasType(typ string) bool {
	for _, t := range e.Types() {
		if t == typ {
			return true
		}
	}
	return false
}

// Strings collects the string values of a scalar-or-list property.
func (e *Entity) Strings(key string) []string {
	switch v := e.props[key].(type) {
	case string:
		return []string{v}
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Refs collects entity-id references from a scalar-or-list property. A
// reference is either a bare id string or a JSON-LD reference object of the
// form {"@id": id}.
func (e *Entity) Refs(key string) []string {
	var out []string
	collect := func(item any) {
		switch ref := item.(type) {
		case string:
			out = append(out, ref)
		case map[string]any:
			if id, ok := ref["@id"].(string); ok {
				out = append(out, id)
			}
		}
	}
	switch v := e.props[key].(type) {
	case []any:
		for _, item := range v {
			collect(item)
		}
	case nil:
	default:
		collect(v)
	}
	return out
}

// Ref builds a JSON-LD reference object pointing at the entity with the
// given id.
func Ref(id string) map[string]any {
	return map[string]any{"@id": id}
}
