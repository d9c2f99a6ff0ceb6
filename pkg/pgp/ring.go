package pgp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
	pgperrors "github.com/ProtonMail/go-crypto/openpgp/errors"
	"github.com/ProtonMail/go-crypto/openpgp/packet"
)

// messageType is the armor block type for OpenPGP messages (RFC 4880 §6.2).
const messageType = "PGP MESSAGE"

// Compile-time check that Ring implements Keyring
var _ Keyring = (*Ring)(nil)

// Ring is a Keyring backed by an in-memory OpenPGP entity list.
type Ring struct {
	entities openpgp.EntityList
}

// NewRing builds a keyring from the given entities.
func NewRing(entities ...*openpgp.Entity) *Ring {
	return &Ring{entities: entities}
}

// LoadRing reads an armored keyring. Both public and private keyrings are
// accepted; private keys make the ring able to decrypt.
func LoadRing(r io.Reader) (*Ring, error) {
	entities, err := openpgp.ReadArmoredKeyRing(r)
	if err != nil {
		return nil, errors.Wrap(err, "reading armored keyring")
	}
	return &Ring{entities: entities}, nil
}

// Fingerprint returns the canonical hex fingerprint of an entity's primary
// key.
func Fingerprint(e *openpgp.Entity) string {
	return fmt.Sprintf("%X", e.PrimaryKey.Fingerprint)
}

func (r *Ring) lookup(fingerprint string) *openpgp.Entity {
	want := NormalizeFingerprint(fingerprint)
	for _, e := range r.entities {
		if Fingerprint(e) == want {
			return e
		}
	}
	return nil
}

// Encrypt encrypts plaintext to every recipient fingerprint and returns the
// armored ciphertext. All recipients must have a usable public key in the
// ring; a single unknown fingerprint fails the whole operation so an
// envelope is never silently addressed to fewer recipients than resolved.
func (r *Ring) Encrypt(ctx context.Context, plaintext []byte, recipients []string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(recipients) == 0 {
		return "", errors.New("no recipient fingerprints provided")
	}

	to := make([]*openpgp.Entity, 0, len(recipients))
	for _, fingerprint := range recipients {
		e := r.lookup(fingerprint)
		if e == nil {
			return "", errors.Errorf("no public key for fingerprint %s", NormalizeFingerprint(fingerprint))
		}
		to = append(to, e)
	}

	var buf bytes.Buffer
	armorWriter, err := armor.Encode(&buf, messageType, nil)
	if err != nil {
		return "", errors.Wrap(err, "opening armor encoder")
	}
	body, err := openpgp.Encrypt(armorWriter, to, nil, nil, nil)
	if err != nil {
		return "", errors.Wrap(err, "encrypting message")
	}
	if _, err := body.Write(plaintext); err != nil {
		return "", errors.Wrap(err, "writing plaintext")
	}
	if err := body.Close(); err != nil {
		return "", errors.Wrap(err, "closing message body")
	}
	if err := armorWriter.Close(); err != nil {
		return "", errors.Wrap(err, "closing armor encoder")
	}
	return buf.String(), nil
}

// Decrypt opens an armored ciphertext with the private keys in the ring.
func (r *Ring) Decrypt(ctx context.Context, ciphertext string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	block, err := armor.Decode(strings.NewReader(ciphertext))
	if err != nil {
		return nil, errors.Wrap(err, "decoding armored message")
	}
	md, err := openpgp.ReadMessage(block.Body, r.entities, nil, nil)
	if err != nil {
		if err == pgperrors.ErrKeyIncorrect {
			return nil, ErrNoPrivateKey
		}
		return nil, errors.Wrap(err, "reading message")
	}
	plaintext, err := io.ReadAll(md.UnverifiedBody)
	if err != nil {
		return nil, errors.Wrap(err, "decrypting message body")
	}
	return plaintext, nil
}

// LocalKeys describes every key in the ring, keyed by fingerprint. Identity
// strings are listed primary first, the rest sorted.
func (r *Ring) LocalKeys() map[string]KeyInfo {
	out := make(map[string]KeyInfo, len(r.entities))
	for _, e := range r.entities {
		info := KeyInfo{Algorithm: algorithmName(e.PrimaryKey.PubKeyAlgo)}
		primary := ""
		if id := e.PrimaryIdentity(); id != nil {
			primary = id.Name
		}
		var rest []string
		for name := range e.Identities {
			if name != primary {
				rest = append(rest, name)
			}
		}
		sort.Strings(rest)
		if primary != "" {
			info.Identities = append(info.Identities, primary)
		}
		info.Identities = append(info.Identities, rest...)
		out[Fingerprint(e)] = info
	}
	return out
}

// Import adds the public keys found in an armored keyring. Keys already
// present are not duplicated; the returned fingerprints cover every key in
// the input.
func (r *Ring) Import(armoredKeys string) ([]string, error) {
	entities, err := openpgp.ReadArmoredKeyRing(strings.NewReader(armoredKeys))
	if err != nil {
		return nil, errors.Wrap(err, "reading armored keys")
	}
	fingerprints := make([]string, 0, len(entities))
	for _, e := range entities {
		fingerprint := Fingerprint(e)
		if r.lookup(fingerprint) == nil {
			r.entities = append(r.entities, e)
		}
		fingerprints = append(fingerprints, fingerprint)
	}
	return fingerprints, nil
}

func algorithmName(algo packet.PublicKeyAlgorithm) string {
	switch algo {
	case packet.PubKeyAlgoRSA, packet.PubKeyAlgoRSAEncryptOnly, packet.PubKeyAlgoRSASignOnly:
		return "RSA"
	case packet.PubKeyAlgoDSA:
		return "DSA"
	case packet.PubKeyAlgoElGamal:
		return "ElGamal"
	case packet.PubKeyAlgoECDH:
		return "ECDH"
	case packet.PubKeyAlgoECDSA:
		return "ECDSA"
	case packet.PubKeyAlgoEdDSA:
		return "EdDSA"
	}
	return fmt.Sprintf("unknown(%d)", algo)
}
