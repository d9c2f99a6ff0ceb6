// Package pgp is the asymmetric cryptography backend: an OpenPGP keyring
// that can encrypt to a set of recipient fingerprints, decrypt with locally
// held private keys, and describe the keys it holds.
package pgp

import (
	"context"
	"strings"

	"github.com/pkg/errors"
)

// ErrNoPrivateKey is returned by Decrypt when none of the locally available
// private keys can open a message.
var ErrNoPrivateKey = errors.New("pgp: no usable private key for message")

// KeyInfo describes one local public key.
type KeyInfo struct {
	// Algorithm is the public key algorithm name, e.g. "RSA".
	Algorithm string
	// Identities are the raw identity strings carried by the key, primary
	// identity first.
	Identities []string
}

// Keyring is the interface the envelope subsystem consumes. Encrypt and
// Decrypt are fallible external calls with no partial side effects on
// failure.
type Keyring interface {
	// Encrypt produces one armored ciphertext readable by every fingerprint
	// in recipients. It fails when any recipient fingerprint has no usable
	// public key.
	Encrypt(ctx context.Context, plaintext []byte, recipients []string) (string, error)
	// Decrypt opens an armored ciphertext with the locally held private
	// keys. It returns ErrNoPrivateKey when no local key can open it.
	Decrypt(ctx context.Context, ciphertext string) ([]byte, error)
	// LocalKeys describes the public keys held locally, by fingerprint.
	LocalKeys() map[string]KeyInfo
	// Import adds the public keys found in an armored keyring and returns
	// their fingerprints.
	Import(armoredKeys string) ([]string, error)
}

// NormalizeFingerprint canonicalizes a fingerprint string: uppercase hex
// with all spaces removed.
func NormalizeFingerprint(fingerprint string) string {
	return strings.ToUpper(strings.ReplaceAll(fingerprint, " ", ""))
}
