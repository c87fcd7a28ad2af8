// Package keyrings manages labelled collections of signing and encryption
// keys, loaded from TOML configuration files, and indexed by fingerprint
// for pack verification and decryption.
package keyrings

import (
	"bytes"
	"crypto/rand"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"placer.io/keyuri"
	"placer.io/pcrypto"
	"placer.io/perrors"
)

// RequiredFilePermissions is the mode a keyring configuration file must
// carry; loaders refuse any file whose permission bits are anything else.
const RequiredFilePermissions = 0600

// DefaultKeyLabel is the label generate-random and single-key setups use.
const DefaultKeyLabel = "default"

// Config is the on-disk shape of a keyring file: two tables of
// label -> KeyURI, one for signing keys and one for encryption keys.
type Config struct {
	Signing    map[string]string `toml:"signing"`
	Encryption map[string]string `toml:"encryption"`
}

// GenerateRandomConfig builds a fresh Config with one randomly generated
// signing key and one randomly generated encryption key, both under
// DefaultKeyLabel.
func GenerateRandomConfig() (*Config, error) {
	const op = "keyrings.GenerateRandomConfig"

	signingSeed := make([]byte, pcrypto.SigningKeySize)
	if _, err := rand.Read(signingSeed); err != nil {
		return nil, perrors.E(op, perrors.Crypto, err)
	}
	signingKeyURI, err := keyuri.New(keyuri.SigningKeyPrefix, signingSeed)
	if err != nil {
		return nil, perrors.E(op, perrors.Crypto, err)
	}
	zero(signingSeed)

	encryptionSecret := make([]byte, pcrypto.EncryptionKeySize)
	if _, err := rand.Read(encryptionSecret); err != nil {
		return nil, perrors.E(op, perrors.Crypto, err)
	}
	encryptionKeyURI, err := keyuri.New(keyuri.EncryptionKeyPrefix, encryptionSecret)
	if err != nil {
		return nil, perrors.E(op, perrors.Crypto, err)
	}
	zero(encryptionSecret)

	return &Config{
		Signing:    map[string]string{DefaultKeyLabel: signingKeyURI},
		Encryption: map[string]string{DefaultKeyLabel: encryptionKeyURI},
	}, nil
}

// LoadConfig reads and strictly decodes a keyring configuration file,
// refusing to proceed unless it is mode 0600.
func LoadConfig(path string) (*Config, error) {
	const op = "keyrings.LoadConfig"

	info, err := os.Stat(path)
	if err != nil {
		return nil, perrors.E(op, path, perrors.Io, err)
	}
	if info.Mode().Perm() != RequiredFilePermissions {
		return nil, perrors.E(op, path, perrors.Config,
			perrors.Errorf("bad file permissions for %s (must be chmod 0600)", path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, perrors.E(op, path, perrors.Io, err)
	}

	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, perrors.E(op, path, perrors.Config, err)
	}
	return &cfg, nil
}

// Save writes c to path as a 0600 TOML file, preceded by a warning header.
func (c *Config) Save(path string) error {
	const op = "keyrings.Config.Save"

	body, err := toml.Marshal(c)
	if err != nil {
		return perrors.E(op, path, perrors.Serialization, err)
	}

	var buf bytes.Buffer
	buf.WriteString("# placer signing key configuration\n")
	buf.WriteString("# PROTECT THIS FILE! It contains all of your secret keys!\n\n")
	buf.Write(body)

	if err := os.WriteFile(path, buf.Bytes(), RequiredFilePermissions); err != nil {
		return perrors.E(op, path, perrors.Io, err)
	}
	// os.WriteFile doesn't enforce mode on a pre-existing file; chmod
	// explicitly so overwriting a looser-permissioned file still tightens it.
	if err := os.Chmod(path, RequiredFilePermissions); err != nil {
		return perrors.E(op, path, perrors.Io, err)
	}
	return nil
}

// Zero overwrites c's secret values in place. Go strings can't be scrubbed
// through a normal assignment, so this replaces each map entry with a
// same-length run of '0' characters rather than truly wiping backing memory;
// it's best-effort hygiene, not a guarantee.
func (c *Config) Zero() {
	for label, key := range c.Signing {
		c.Signing[label] = strings.Repeat("0", len(key))
	}
	for label, key := range c.Encryption {
		c.Encryption[label] = strings.Repeat("0", len(key))
	}
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
