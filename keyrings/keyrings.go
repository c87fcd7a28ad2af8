package keyrings

import (
	"bytes"
	"fmt"
	"os"

	"github.com/google/uuid"

	"placer.io/pack"
	"placer.io/pcrypto"
	"placer.io/perrors"
)

// ProducerKeyrings holds the secrets placer-pack needs to create packs:
// signing secrets (indexed by label) and encryption secrets.
type ProducerKeyrings struct {
	Signing    *ProducerSigningKeyring
	Encryption *EncryptionKeyring
}

// ConsumerKeyrings holds what the coordinator needs to verify and decrypt
// packs: signing verify keys and encryption secrets, both fingerprint
// indexed since that is all a pack envelope names.
type ConsumerKeyrings struct {
	Signing    *ConsumerSigningKeyring
	Encryption *EncryptionKeyring
}

// GenerateRandom writes a freshly generated producer keyring configuration
// to path.
func GenerateRandom(path string) error {
	cfg, err := GenerateRandomConfig()
	if err != nil {
		return err
	}
	defer cfg.Zero()
	return cfg.Save(path)
}

// LoadProducer loads a producer keyring configuration from path.
func LoadProducer(path string) (*ProducerKeyrings, error) {
	const op = "keyrings.LoadProducer"

	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, perrors.E(op, err)
	}
	defer cfg.Zero()

	signing, err := NewProducerSigningKeyring(cfg.Signing)
	if err != nil {
		return nil, perrors.E(op, err)
	}
	encryption, err := NewEncryptionKeyring(cfg.Encryption)
	if err != nil {
		return nil, perrors.E(op, err)
	}

	return &ProducerKeyrings{Signing: signing, Encryption: encryption}, nil
}

// LoadConsumer loads a consumer keyring configuration from path. The
// on-disk shape is the same Config as a producer keyring, but its signing
// table carries public verify keys rather than secrets.
func LoadConsumer(path string) (*ConsumerKeyrings, error) {
	const op = "keyrings.LoadConsumer"

	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, perrors.E(op, err)
	}
	defer cfg.Zero()

	signing, err := NewConsumerSigningKeyring(cfg.Signing)
	if err != nil {
		return nil, perrors.E(op, err)
	}
	encryption, err := NewEncryptionKeyring(cfg.Encryption)
	if err != nil {
		return nil, perrors.E(op, err)
	}

	return &ConsumerKeyrings{Signing: signing, Encryption: encryption}, nil
}

// ExportVerifyKeys derives a consumer keyring from p (replacing signing
// secrets with their public keys, retaining encryption secrets as-is) and
// writes it to output with mode 0600.
func (p *ProducerKeyrings) ExportVerifyKeys(output string) error {
	const op = "keyrings.ProducerKeyrings.ExportVerifyKeys"

	file, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, RequiredFilePermissions)
	if err != nil {
		return perrors.E(op, output, perrors.Io, err)
	}
	defer file.Close()
	if err := file.Chmod(RequiredFilePermissions); err != nil {
		return perrors.E(op, output, perrors.Io, err)
	}

	var buf bytes.Buffer
	buf.WriteString("# placer client keyring: contains pack signature verification keys\n")
	buf.WriteString("# Protect this file! It also contains pack decryption keys!\n\n")
	buf.WriteString("[signing]\n")

	verifyKeys, err := p.Signing.ExportPublic()
	if err != nil {
		return perrors.E(op, perrors.Crypto, err)
	}
	for label, keyURI := range verifyKeys {
		fmt.Fprintf(&buf, "%s = %q\n", label, keyURI)
	}

	buf.WriteString("\n[encryption]\n")
	for label, keyURI := range p.Encryption.Raw() {
		fmt.Fprintf(&buf, "%s = %q\n", label, keyURI)
	}

	if _, err := file.Write(buf.Bytes()); err != nil {
		return perrors.E(op, output, perrors.Io, err)
	}
	return nil
}

// Lookup implements pack.KeyLookup against c: the verify key is fetched by
// signing-key fingerprint, and a fresh per-pack Encryptor is derived from
// the encryption key identified by its fingerprint, salted with id.
func (c *ConsumerKeyrings) Lookup(fp pack.Fingerprints, id uuid.UUID) (*pcrypto.PublicKey, *pcrypto.Encryptor, error) {
	const op = "keyrings.ConsumerKeyrings.Lookup"

	verifyKey, err := c.Signing.Get(fp.Signing)
	if err != nil {
		return nil, nil, perrors.E(op, perrors.InvalidKey, err)
	}

	encryptor, err := c.Encryption.GetByFingerprint(fp.Encryption, id[:])
	if err != nil {
		return nil, nil, perrors.E(op, perrors.InvalidKey, err)
	}

	return verifyKey, encryptor, nil
}

var _ pack.KeyLookup = (*ConsumerKeyrings)(nil).Lookup
