// Package identity normalizes the raw identity strings attached to OpenPGP
// public keys into structured display identities.
package identity

import (
	"regexp"
	"strings"
)

// NoValidContact is the sentinel contact address for identity strings that
// carry no syntactically valid email address.
const NoValidContact = "No Valid Contact"

var emailRE = regexp.MustCompile(`^[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+$`)

// Identity is the parsed form of a raw key identity string.
type Identity struct {
	Name  string
	Email string
}

// Parse splits a raw identity string such as "Joe Tester <joe@foo.bar>" into
// a display name and contact address. The last whitespace-delimited token,
// stripped of surrounding angle brackets, is the candidate address; a single
// token is both name and address. When the candidate is not a valid email
// address the whole raw string becomes the name and the contact address is
// the NoValidContact sentinel. Parse never fails.
func Parse(raw string) Identity {
	fields := strings.Fields(raw)
	if len(fields) > 1 {
		email := strings.Trim(fields[len(fields)-1], "<> ")
		if !emailRE.MatchString(email) {
			return Identity{Name: raw, Email: NoValidContact}
		}
		name := strings.TrimSpace(strings.Join(fields[:len(fields)-1], " "))
		return Identity{Name: name, Email: email}
	}
	candidate := strings.Trim(raw, "<> ")
	if !emailRE.MatchString(candidate) {
		return Identity{Name: raw, Email: NoValidContact}
	}
	return Identity{Name: candidate, Email: candidate}
}

// KeyIdentity is the structured identity of one public key: its algorithm,
// canonical fingerprint and the raw identity strings carried by the key.
type KeyIdentity struct {
	Algorithm   string
	Fingerprint string
	Identities  []string
}

// Primary parses the key's first identity string. A key without identity
// strings has a zero primary identity.
func (k KeyIdentity) Primary() Identity {
	if len(k.Identities) == 0 {
		return Identity{}
	}
	return Parse(k.Identities[0])
}

// DisplayID is the identifier a recipient descriptor is keyed on: the raw
// primary identity string, falling back to the fingerprint for keys with no
// discoverable identity.
func (k KeyIdentity) DisplayID() string {
	if len(k.Identities) > 0 {
		return k.Identities[0]
	}
	return k.Fingerprint
}
