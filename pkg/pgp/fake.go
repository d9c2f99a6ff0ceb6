package pgp

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Compile-time check that Fake implements Keyring
var _ Keyring = (*Fake)(nil)

// fakeKeyPrefix marks the lines of a fake armored key blob understood by
// Fake.Import: "FAKE-KEY <fingerprint> [identity...]".
const fakeKeyPrefix = "FAKE-KEY "

// Fake is a fake implementation of the keyring for testing. It records
// encrypted payloads in memory and can be configured to return specific
// errors for testing different scenarios.
type Fake struct {
	// Keys holds the metadata returned by LocalKeys.
	Keys map[string]KeyInfo

	// Decryptable marks the fingerprints the fake holds private material
	// for; Decrypt succeeds only for messages addressed to one of them.
	Decryptable map[string]bool

	// EncryptErr, DecryptErr and ImportErr, when set, are returned by the
	// corresponding operation.
	EncryptErr error
	DecryptErr error
	ImportErr  error

	// EncryptCalls and DecryptCalls track how many times each operation was
	// invoked.
	EncryptCalls int
	DecryptCalls int

	messages map[string]fakeMessage
}

type fakeMessage struct {
	plaintext  []byte
	recipients []string
}

// NewFake creates an empty fake keyring.
func NewFake() *Fake {
	return &Fake{
		Keys:        map[string]KeyInfo{},
		Decryptable: map[string]bool{},
		messages:    map[string]fakeMessage{},
	}
}

// AddKey registers a key with the fake. When private is true the fake can
// decrypt messages addressed to it.
func (f *Fake) AddKey(fingerprint string, info KeyInfo, private bool) {
	fingerprint = NormalizeFingerprint(fingerprint)
	f.Keys[fingerprint] = info
	if private {
		f.Decryptable[fingerprint] = true
	}
}

// Encrypt implements Keyring. The "ciphertext" is an opaque token resolved
// back to the recorded plaintext by Decrypt.
func (f *Fake) Encrypt(ctx context.Context, plaintext []byte, recipients []string) (string, error) {
	f.EncryptCalls++
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if f.EncryptErr != nil {
		return "", f.EncryptErr
	}
	if len(recipients) == 0 {
		return "", errors.New("no recipient fingerprints provided")
	}
	normalized := make([]string, 0, len(recipients))
	for _, fingerprint := range recipients {
		fingerprint = NormalizeFingerprint(fingerprint)
		if _, ok := f.Keys[fingerprint]; !ok {
			return "", errors.Errorf("no public key for fingerprint %s", fingerprint)
		}
		normalized = append(normalized, fingerprint)
	}
	token := fmt.Sprintf("FAKE-PGP-MESSAGE-%d", len(f.messages))
	f.messages[token] = fakeMessage{
		plaintext:  append([]byte(nil), plaintext...),
		recipients: normalized,
	}
	return token, nil
}

// Decrypt implements Keyring.
func (f *Fake) Decrypt(ctx context.Context, ciphertext string) ([]byte, error) {
	f.DecryptCalls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.DecryptErr != nil {
		return nil, f.DecryptErr
	}
	message, ok := f.messages[ciphertext]
	if !ok {
		return nil, errors.Errorf("not a fake message: %q", ciphertext)
	}
	for _, fingerprint := range message.recipients {
		if f.Decryptable[fingerprint] {
			return append([]byte(nil), message.plaintext...), nil
		}
	}
	return nil, ErrNoPrivateKey
}

// LocalKeys implements Keyring.
func (f *Fake) LocalKeys() map[string]KeyInfo {
	out := make(map[string]KeyInfo, len(f.Keys))
	for fingerprint, info := range f.Keys {
		out[fingerprint] = info
	}
	return out
}

// Import implements Keyring. It accepts blobs of "FAKE-KEY <fingerprint>
// [identity...]" lines, as produced by the fake keyserver used in tests.
func (f *Fake) Import(armoredKeys string) ([]string, error) {
	if f.ImportErr != nil {
		return nil, f.ImportErr
	}
	var fingerprints []string
	for _, line := range strings.Split(armoredKeys, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, fakeKeyPrefix) {
			continue
		}
		parts := strings.Fields(strings.TrimPrefix(line, fakeKeyPrefix))
		if len(parts) == 0 {
			continue
		}
		fingerprint := NormalizeFingerprint(parts[0])
		info := KeyInfo{Algorithm: "RSA"}
		if len(parts) > 1 {
			info.Identities = []string{strings.Join(parts[1:], " ")}
		}
		f.Keys[fingerprint] = info
		fingerprints = append(fingerprints, fingerprint)
	}
	if len(fingerprints) == 0 {
		return nil, errors.New("no keys found in input")
	}
	return fingerprints, nil
}
