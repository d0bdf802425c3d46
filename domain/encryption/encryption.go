// Package encryption seals stored values of encrypted stores.
//
// Every store gets its own 256-bit key, derived with HKDF-SHA256 from the
// root key of its manager, using the store ID as the HKDF info. Values are
// sealed with XChaCha20-Poly1305 under a random nonce that is stored in
// front of the ciphertext. The storage key of the value is authenticated
// as additional data, so a sealed value cannot be moved to another key.
package encryption

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"io"

	"github.com/pkg/errors"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// RootKeySize is the minimum size of a root key, in bytes.
const RootKeySize = 32

// passphraseKDFThreads is fixed since argon2 output depends on it.
const passphraseKDFThreads = 4

var hkdfSalt = []byte("kvstore value sealing v1")

// ErrDecryptionFailed is returned when a sealed value fails
// authentication, e.g. because it was sealed under a different key.
var ErrDecryptionFailed = errors.New("decryption failed")

// Sealer seals and opens the values of one store.
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer derives the key of storeID from rootKey and returns a Sealer
// using it.
func NewSealer(rootKey []byte, storeID string) (*Sealer, error) {
	if len(rootKey) < RootKeySize {
		return nil, errors.Errorf("root key must be at least %d bytes, got %d",
			RootKeySize, len(rootKey))
	}

	key := make([]byte, chacha20poly1305.KeySize)
	kdf := hkdf.New(sha256.New, rootKey, hkdfSalt, []byte(storeID))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, errors.Wrapf(err, "failed deriving the key of store %s", storeID)
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &Sealer{aead: aead}, nil
}

// Seal encrypts plaintext, binding it to storageKey.
func (s *Sealer) Seal(storageKey []byte, plaintext []byte) ([]byte, error) {
	nonceSize := s.aead.NonceSize()
	sealed := make([]byte, nonceSize, nonceSize+len(plaintext)+s.aead.Overhead())
	if _, err := rand.Read(sealed); err != nil {
		return nil, errors.Wrap(err, "failed generating a nonce")
	}
	return s.aead.Seal(sealed, sealed[:nonceSize], plaintext, storageKey), nil
}

// Open decrypts a value sealed by Seal under the same storageKey.
func (s *Sealer) Open(storageKey []byte, sealed []byte) ([]byte, error) {
	nonceSize := s.aead.NonceSize()
	if len(sealed) < nonceSize+s.aead.Overhead() {
		return nil, errors.Wrapf(ErrDecryptionFailed, "sealed value is only %d bytes", len(sealed))
	}
	plaintext, err := s.aead.Open(nil, sealed[:nonceSize], sealed[nonceSize:], storageKey)
	if err != nil {
		return nil, errors.Wrapf(ErrDecryptionFailed, "%s", err)
	}
	return plaintext, nil
}

// Overhead returns how many bytes Seal adds to a plaintext.
func (s *Sealer) Overhead() int {
	return s.aead.NonceSize() + s.aead.Overhead()
}

// DeriveRootKey stretches a passphrase into a root key with argon2id. It is meant for
// interactive tools; services should load a random root key instead.
func DeriveRootKey(passphrase []byte, bundleName string) ([]byte, error) {
	if len(passphrase) == 0 {
		return nil, errors.New("empty passphrase")
	}
	salt := []byte("kvstore root key:" + bundleName)
	return argon2.IDKey(passphrase, salt, 1, 64*1024, passphraseKDFThreads, RootKeySize), nil
}
