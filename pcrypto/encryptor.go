// Package pcrypto implements the symmetric and signing primitives packs are
// built on: AES-256-SIV (via per-pack HKDF-SHA-256 subkeys) and Ed25519.
package pcrypto

import (
	"crypto/cipher"
	"crypto/sha256"
	"encoding/binary"
	"io"

	"github.com/aead/siv"
	"golang.org/x/crypto/hkdf"

	"placer.io/keyuri"
	"placer.io/keyuri/bech32k"
	"placer.io/perrors"
)

// EncryptionKeySize is the size, in bytes, of the decoded master secret
// before HKDF expansion.
const EncryptionKeySize = 32

// Encryptor wraps an AES-256-SIV AEAD derived for a single pack.
type Encryptor struct {
	aead        cipher.AEAD
	fingerprint string
}

// NewEncryptor derives an Encryptor from a secret KeyURI and a per-pack
// salt (the pack's UUID bytes). The master secret is expanded via
// HKDF-SHA-256 into the two AES-256 subkeys AES-SIV requires.
func NewEncryptor(secretKeyURI string, salt []byte) (*Encryptor, error) {
	const op = "pcrypto.NewEncryptor"

	fingerprint, err := keyuri.Fingerprint(secretKeyURI)
	if err != nil {
		return nil, perrors.E(op, perrors.InvalidKey, err)
	}

	prefix, decoded, err := bech32k.Decode(secretKeyURI)
	if err != nil {
		return nil, perrors.E(op, perrors.InvalidKey, err)
	}
	if prefix != keyuri.EncryptionKeyPrefix {
		return nil, perrors.E(op, perrors.InvalidKey,
			perrors.Errorf("invalid encryption key prefix: %s", prefix))
	}
	if len(decoded) != EncryptionKeySize {
		return nil, perrors.E(op, perrors.InvalidKey,
			perrors.Errorf("bad length for %s: %d (expected %d)", prefix, len(decoded), EncryptionKeySize))
	}

	reader := hkdf.New(sha256.New, decoded, salt, []byte(keyuri.EncryptionKeyPrefix))
	expanded := make([]byte, EncryptionKeySize*2)
	if _, err := io.ReadFull(reader, expanded); err != nil {
		return nil, perrors.E(op, perrors.Crypto, err)
	}

	aead, err := siv.New(expanded)
	zero(expanded)
	zero(decoded)
	if err != nil {
		return nil, perrors.E(op, perrors.Crypto, err)
	}

	return &Encryptor{aead: aead, fingerprint: fingerprint}, nil
}

// Fingerprint returns the KeyURI fingerprint of the secret this encryptor
// was derived from.
func (e *Encryptor) Fingerprint() string {
	return e.fingerprint
}

// Seal encrypts plaintext, binding associatedData (each element
// individually length-framed, so the vector's boundaries can never be
// ambiguous the way a bare concatenation's could) as additional data.
func (e *Encryptor) Seal(plaintext []byte, associatedData ...[]byte) []byte {
	nonce := make([]byte, e.aead.NonceSize())
	return e.aead.Seal(nil, nonce, plaintext, encodeAD(associatedData))
}

// Open decrypts ciphertext, verifying it against the same associated-data
// vector Seal was called with.
func (e *Encryptor) Open(ciphertext []byte, associatedData ...[]byte) ([]byte, error) {
	nonce := make([]byte, e.aead.NonceSize())
	plaintext, err := e.aead.Open(nil, nonce, ciphertext, encodeAD(associatedData))
	if err != nil {
		return nil, perrors.E("pcrypto.Encryptor.Open", perrors.Crypto, err)
	}
	return plaintext, nil
}

// encodeAD frames each associated-data element with a 4-byte big-endian
// length prefix and concatenates them, giving the AES-SIV S2V construction
// the same per-field domain separation the vector form provides without
// requiring cipher.AEAD to accept more than one additionalData slice.
func encodeAD(parts [][]byte) []byte {
	var out []byte
	var lenBuf [4]byte
	for _, p := range parts {
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(p)))
		out = append(out, lenBuf[:]...)
		out = append(out, p...)
	}
	return out
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
