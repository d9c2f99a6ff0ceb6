package envelope

import (
	"fmt"
	"strings"
)

// NoValidKeysError is returned when resolution produces an empty recipient
// set: the entity has no recipients property, no explicit fingerprints, and
// no defaults apply.
type NoValidKeysError struct {
	EntityID string
}

func (e *NoValidKeysError) Error() string {
	return fmt.Sprintf("no target has a valid public key for encryption of %q", e.EntityID)
}

// MissingMemberError is returned when one or more declared recipients lack
// usable keys and missing-tolerance is disabled.
type MissingMemberError struct {
	EntityID string
	Missing  []string
}

func (e *MissingMemberError) Error() string {
	return fmt.Sprintf("at least one recipient of %q lacks a valid key, missing: %s",
		e.EntityID, strings.Join(e.Missing, ", "))
}

// BackendError is returned when the cryptography backend refuses to encrypt
// a group. It is fatal for that group and aborts the encode; other groups
// are left untouched.
type BackendError struct {
	Status string
}

func (e *BackendError) Error() string {
	return "unable to encrypt envelope, backend status: " + e.Status
}
