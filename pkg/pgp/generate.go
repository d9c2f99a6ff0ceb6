package pgp

import (
	"bytes"
	"io"

	"github.com/pkg/errors"
	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
	"github.com/ProtonMail/go-crypto/openpgp/packet"
)

// Generate creates a fresh OpenPGP identity with an RSA primary key and an
// RSA encryption subkey.
func Generate(name, comment, email string, bits int) (*openpgp.Entity, error) {
	entity, err := openpgp.NewEntity(name, comment, email, &packet.Config{RSABits: bits})
	if err != nil {
		return nil, errors.Wrap(err, "generating key")
	}
	return entity, nil
}

// ArmorPrivate serializes an entity's private keyring in armored form.
func ArmorPrivate(e *openpgp.Entity) (string, error) {
	var buf bytes.Buffer
	armorWriter, err := armor.Encode(&buf, openpgp.PrivateKeyType, nil)
	if err != nil {
		return "", errors.Wrap(err, "opening armor encoder")
	}
	if err := e.SerializePrivate(armorWriter, nil); err != nil {
		return "", errors.Wrap(err, "serializing private key")
	}
	if err := armorWriter.Close(); err != nil {
		return "", errors.Wrap(err, "closing armor encoder")
	}
	return buf.String(), nil
}

// ArmorPublic serializes an entity's public keyring in armored form.
func ArmorPublic(e *openpgp.Entity) (string, error) {
	// A freshly generated entity only signs its identities and subkeys
	// during SerializePrivate; exporting the public half before that yields
	// an unusable key.
	if e.PrivateKey != nil {
		if err := e.SerializePrivate(io.Discard, nil); err != nil {
			return "", errors.Wrap(err, "signing key material")
		}
	}
	var buf bytes.Buffer
	armorWriter, err := armor.Encode(&buf, openpgp.PublicKeyType, nil)
	if err != nil {
		return "", errors.Wrap(err, "opening armor encoder")
	}
	if err := e.Serialize(armorWriter); err != nil {
		return "", errors.Wrap(err, "serializing public key")
	}
	if err := armorWriter.Close(); err != nil {
		return "", errors.Wrap(err, "closing armor encoder")
	}
	return buf.String(), nil
}
