package keyrings

import (
	"placer.io/keyuri"
	"placer.io/keyuri/bech32k"
	"placer.io/pcrypto"
	"placer.io/perrors"
)

// ProducerSigningKeyring holds signing secrets, used by placer-pack to sign
// packs it creates.
type ProducerSigningKeyring struct {
	byLabel       map[string]*pcrypto.Signer
	byFingerprint map[string]*pcrypto.Signer
}

// NewProducerSigningKeyring validates and indexes the signing keys named in
// keys, rejecting malformed KeyURIs, the wrong key type, the wrong decoded
// length, or a duplicate fingerprint.
func NewProducerSigningKeyring(keys map[string]string) (*ProducerSigningKeyring, error) {
	const op = "keyrings.NewProducerSigningKeyring"

	byLabel := make(map[string]*pcrypto.Signer, len(keys))
	byFingerprint := make(map[string]*pcrypto.Signer, len(keys))

	for label, encoded := range keys {
		prefix, decoded, err := bech32k.Decode(encoded)
		if err != nil {
			return nil, perrors.E(op, perrors.InvalidKey, err)
		}
		if prefix != keyuri.SigningKeyPrefix {
			return nil, perrors.E(op, perrors.InvalidKey,
				perrors.Errorf("invalid signing key type for %q: %s", label, prefix))
		}
		if len(decoded) != pcrypto.SigningKeySize {
			return nil, perrors.E(op, perrors.InvalidKey,
				perrors.Errorf("bad length for %q: %d (expected %d)", label, len(decoded), pcrypto.SigningKeySize))
		}

		signer, err := pcrypto.NewSigner(encoded)
		if err != nil {
			return nil, perrors.E(op, perrors.InvalidKey, err)
		}

		fingerprint, err := signer.PublicKey().ToFingerprint()
		if err != nil {
			return nil, perrors.E(op, perrors.InvalidKey, err)
		}
		if _, exists := byFingerprint[fingerprint]; exists {
			return nil, perrors.E(op, perrors.InvalidKey,
				perrors.Errorf("duplicate signing key: %q", label))
		}

		byLabel[label] = signer
		byFingerprint[fingerprint] = signer
	}

	return &ProducerSigningKeyring{byLabel: byLabel, byFingerprint: byFingerprint}, nil
}

// Get returns the Signer registered under label.
func (k *ProducerSigningKeyring) Get(label string) (*pcrypto.Signer, error) {
	s, ok := k.byLabel[label]
	if !ok {
		return nil, perrors.E("keyrings.ProducerSigningKeyring.Get", perrors.InvalidKey,
			perrors.Errorf("unknown signing key: %q", label))
	}
	return s, nil
}

// Labels returns the labels of every signing key, in no particular order.
func (k *ProducerSigningKeyring) Labels() []string {
	labels := make([]string, 0, len(k.byLabel))
	for l := range k.byLabel {
		labels = append(labels, l)
	}
	return labels
}

// ConsumerSigningKeyring holds verify-only public keys, indexed by the
// fingerprint a pack envelope will name.
type ConsumerSigningKeyring struct {
	byFingerprint map[string]*pcrypto.PublicKey
}

// NewConsumerSigningKeyring validates and fingerprint-indexes the verify
// keys named in keys.
func NewConsumerSigningKeyring(keys map[string]string) (*ConsumerSigningKeyring, error) {
	const op = "keyrings.NewConsumerSigningKeyring"

	byFingerprint := make(map[string]*pcrypto.PublicKey, len(keys))
	for label, encoded := range keys {
		pub, err := pcrypto.PublicKeyFromKeyURI(encoded)
		if err != nil {
			return nil, perrors.E(op, perrors.InvalidKey,
				perrors.Errorf("invalid Ed25519 KeyURI for %q: %v", label, err))
		}

		fingerprint, err := pub.ToFingerprint()
		if err != nil {
			return nil, perrors.E(op, perrors.InvalidKey, err)
		}
		if _, exists := byFingerprint[fingerprint]; exists {
			return nil, perrors.E(op, perrors.InvalidKey,
				perrors.Errorf("duplicate signing key: %q", label))
		}
		byFingerprint[fingerprint] = pub
	}

	return &ConsumerSigningKeyring{byFingerprint: byFingerprint}, nil
}

// Get returns the verify key registered under fingerprint.
func (k *ConsumerSigningKeyring) Get(fingerprint string) (*pcrypto.PublicKey, error) {
	pub, ok := k.byFingerprint[fingerprint]
	if !ok {
		return nil, perrors.E("keyrings.ConsumerSigningKeyring.Get", perrors.InvalidKey,
			perrors.Errorf("unknown signing key: %q", fingerprint))
	}
	return pub, nil
}

// ExportPublic derives a consumer signing keyring's source table (label to
// verify-key KeyURI) from a producer keyring, for writing into an exported
// configuration file.
func (k *ProducerSigningKeyring) ExportPublic() (map[string]string, error) {
	out := make(map[string]string, len(k.byLabel))
	for label, signer := range k.byLabel {
		keyURI, err := signer.PublicKey().ToKeyURI()
		if err != nil {
			return nil, perrors.E("keyrings.ProducerSigningKeyring.ExportPublic", perrors.Crypto, err)
		}
		out[label] = keyURI
	}
	return out, nil
}
