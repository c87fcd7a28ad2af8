package keyrings

import (
	"placer.io/keyuri"
	"placer.io/keyuri/bech32k"
	"placer.io/pcrypto"
	"placer.io/perrors"
)

// EncryptionKeyring holds encryption master secrets, both for producers
// (sealing) and consumers (opening); a fresh per-pack Encryptor is derived
// lazily from the stored KeyURI each time GetByLabel or GetByFingerprint is
// called, since the subkey
// depends on the pack's own UUID.
type EncryptionKeyring struct {
	byLabel       map[string]string
	byFingerprint map[string]string
}

// NewEncryptionKeyring validates and indexes the encryption keys named in
// keys, by both label and fingerprint.
func NewEncryptionKeyring(keys map[string]string) (*EncryptionKeyring, error) {
	const op = "keyrings.NewEncryptionKeyring"

	byLabel := make(map[string]string, len(keys))
	byFingerprint := make(map[string]string, len(keys))

	for label, encoded := range keys {
		prefix, decoded, err := bech32k.Decode(encoded)
		if err != nil {
			return nil, perrors.E(op, perrors.InvalidKey, err)
		}
		if prefix != keyuri.EncryptionKeyPrefix {
			return nil, perrors.E(op, perrors.InvalidKey,
				perrors.Errorf("invalid encryption KeyURI for %q: %s", label, prefix))
		}
		if len(decoded) != pcrypto.EncryptionKeySize {
			return nil, perrors.E(op, perrors.InvalidKey,
				perrors.Errorf("bad length for %q: %d (expected %d)", label, len(decoded), pcrypto.EncryptionKeySize))
		}

		fingerprint, err := keyuri.Fingerprint(encoded)
		if err != nil {
			return nil, perrors.E(op, perrors.InvalidKey, err)
		}
		if _, exists := byFingerprint[fingerprint]; exists {
			return nil, perrors.E(op, perrors.InvalidKey,
				perrors.Errorf("duplicate encryption key: %q", label))
		}

		byLabel[label] = encoded
		byFingerprint[fingerprint] = encoded
	}

	return &EncryptionKeyring{byLabel: byLabel, byFingerprint: byFingerprint}, nil
}

// GetByLabel derives an Encryptor for the key registered under label.
func (k *EncryptionKeyring) GetByLabel(label string, salt []byte) (*pcrypto.Encryptor, error) {
	encoded, ok := k.byLabel[label]
	if !ok {
		return nil, perrors.E("keyrings.EncryptionKeyring.GetByLabel", perrors.InvalidKey,
			perrors.Errorf("unknown encryption key: %q", label))
	}
	return k.derive(encoded, salt)
}

// GetByFingerprint derives an Encryptor for the key registered under
// fingerprint.
func (k *EncryptionKeyring) GetByFingerprint(fingerprint string, salt []byte) (*pcrypto.Encryptor, error) {
	encoded, ok := k.byFingerprint[fingerprint]
	if !ok {
		return nil, perrors.E("keyrings.EncryptionKeyring.GetByFingerprint", perrors.InvalidKey,
			perrors.Errorf("unknown encryption key: %q", fingerprint))
	}
	return k.derive(encoded, salt)
}

func (k *EncryptionKeyring) derive(encoded string, salt []byte) (*pcrypto.Encryptor, error) {
	enc, err := pcrypto.NewEncryptor(encoded, salt)
	if err != nil {
		return nil, perrors.E("keyrings.EncryptionKeyring.derive", perrors.InvalidKey,
			perrors.Errorf("invalid encryption KeyURI: %v", err))
	}
	return enc, nil
}

// Labels returns the labels of every encryption key, in no particular
// order.
func (k *EncryptionKeyring) Labels() []string {
	labels := make([]string, 0, len(k.byLabel))
	for l := range k.byLabel {
		labels = append(labels, l)
	}
	return labels
}

// Raw returns the raw label-to-KeyURI table, for writing into an exported
// configuration file (the encryption key itself, not a derived Encryptor,
// is what consumers need).
func (k *EncryptionKeyring) Raw() map[string]string {
	out := make(map[string]string, len(k.byLabel))
	for l, v := range k.byLabel {
		out[l] = v
	}
	return out
}
