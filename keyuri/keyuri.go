// Package keyuri defines placer's typed key string encoding: a textual
// prefix identifying a key's role and algorithm, followed by a bech32k
// payload carrying the key material or a fingerprint of it.
package keyuri

import (
	"crypto/sha256"

	"placer.io/keyuri/bech32k"
)

// Prefixes identifying the role and algorithm of a KeyURI's payload.
const (
	// EncryptionKeyPrefix identifies a 32-byte AES-256-SIV master secret.
	EncryptionKeyPrefix = "secret.key:aes256siv+hks256"

	// SigningKeyPrefix identifies an Ed25519 secret (signing) key.
	SigningKeyPrefix = "secret.key:ed25519"

	// VerifyKeyPrefix identifies an Ed25519 public (verify) key.
	VerifyKeyPrefix = "public.key:ed25519"

	// FingerprintPrefix identifies a SHA-256 fingerprint of another KeyURI.
	FingerprintPrefix = "public.fingerprint:sha-256"
)

// Decoded holds the result of splitting a KeyURI into its typed parts.
type Decoded struct {
	Prefix string
	Data   []byte
}

// Parse decodes a KeyURI string into its prefix and raw key bytes.
func Parse(s string) (Decoded, error) {
	prefix, data, err := bech32k.Decode(s)
	if err != nil {
		return Decoded{}, err
	}
	return Decoded{Prefix: prefix, Data: data}, nil
}

// New encodes data into a KeyURI with the given prefix.
func New(prefix string, data []byte) (string, error) {
	return bech32k.Encode(prefix, data)
}

// Fingerprint computes the fingerprint KeyURI of keyuri: the bech32k
// encoding, under FingerprintPrefix, of the SHA-256 digest of keyuri's full
// textual form. Because the prefix is part of the hashed bytes, KeyURIs of
// different roles never collide under fingerprinting.
func Fingerprint(keyURI string) (string, error) {
	digest := sha256.Sum256([]byte(keyURI))
	return bech32k.Encode(FingerprintPrefix, digest[:])
}
