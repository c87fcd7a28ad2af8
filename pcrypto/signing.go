package pcrypto

import (
	"crypto/ed25519"

	"placer.io/keyuri"
	"placer.io/keyuri/bech32k"
	"placer.io/perrors"
)

// SigningKeySize is the size, in bytes, of an Ed25519 seed.
const SigningKeySize = ed25519.SeedSize

// PublicKeySize is the size, in bytes, of an Ed25519 public key.
const PublicKeySize = ed25519.PublicKeySize

// SignatureSize is the size, in bytes, of an Ed25519 signature.
const SignatureSize = ed25519.SignatureSize

// Signer signs pack ciphertexts with an Ed25519 secret key.
type Signer struct {
	key ed25519.PrivateKey
}

// NewSigner builds a Signer from a signing-secret KeyURI.
func NewSigner(secretKeyURI string) (*Signer, error) {
	const op = "pcrypto.NewSigner"

	prefix, seed, err := bech32k.Decode(secretKeyURI)
	if err != nil {
		return nil, perrors.E(op, perrors.InvalidKey, err)
	}
	if prefix != keyuri.SigningKeyPrefix {
		return nil, perrors.E(op, perrors.InvalidKey,
			perrors.Errorf("invalid signing key prefix: %s", prefix))
	}
	if len(seed) != SigningKeySize {
		return nil, perrors.E(op, perrors.InvalidKey,
			perrors.Errorf("bad length for %s: %d (expected %d)", prefix, len(seed), SigningKeySize))
	}

	return &Signer{key: ed25519.NewKeyFromSeed(seed)}, nil
}

// PublicKey returns the verify key corresponding to this signer.
func (s *Signer) PublicKey() *PublicKey {
	pub := s.key.Public().(ed25519.PublicKey)
	return &PublicKey{key: append(ed25519.PublicKey(nil), pub...)}
}

// Sign signs msg and returns a 64-byte Ed25519 signature.
func (s *Signer) Sign(msg []byte) []byte {
	return ed25519.Sign(s.key, msg)
}

// PublicKey is an Ed25519 verify key.
type PublicKey struct {
	key ed25519.PublicKey
}

// PublicKeyFromKeyURI decodes a verify-key KeyURI into a PublicKey.
func PublicKeyFromKeyURI(keyURI string) (*PublicKey, error) {
	const op = "pcrypto.PublicKeyFromKeyURI"

	prefix, data, err := bech32k.Decode(keyURI)
	if err != nil {
		return nil, perrors.E(op, perrors.InvalidKey, err)
	}
	if prefix != keyuri.VerifyKeyPrefix {
		return nil, perrors.E(op, perrors.InvalidKey,
			perrors.Errorf("invalid verify key prefix: %s", prefix))
	}
	if len(data) != PublicKeySize {
		return nil, perrors.E(op, perrors.InvalidKey,
			perrors.Errorf("invalid key length: %d bytes (expected %d)", len(data), PublicKeySize))
	}

	return &PublicKey{key: ed25519.PublicKey(data)}, nil
}

// Bytes returns the raw 32-byte public key.
func (p *PublicKey) Bytes() []byte {
	return p.key
}

// ToKeyURI serializes the public key as a KeyURI.
func (p *PublicKey) ToKeyURI() (string, error) {
	return keyuri.New(keyuri.VerifyKeyPrefix, p.key)
}

// ToFingerprint returns the fingerprint KeyURI of this public key's KeyURI.
func (p *PublicKey) ToFingerprint() (string, error) {
	s, err := p.ToKeyURI()
	if err != nil {
		return "", err
	}
	return keyuri.Fingerprint(s)
}

// Verify checks sig over msg, returning a Crypto error on any mismatch or
// malformed signature. Callers must call Verify before attempting to
// decrypt anything the signature covers.
func (p *PublicKey) Verify(msg, sig []byte) error {
	const op = "pcrypto.PublicKey.Verify"
	if len(sig) != SignatureSize {
		return perrors.E(op, perrors.Crypto,
			perrors.Errorf("invalid signature size: %d (expected %d)", len(sig), SignatureSize))
	}
	if !ed25519.Verify(p.key, msg, sig) {
		return perrors.E(op, perrors.Crypto, perrors.Str("signature verification failed"))
	}
	return nil
}
