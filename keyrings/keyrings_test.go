package keyrings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"placer.io/pack"
)

func TestGenerateLoadExportRoundTrip(t *testing.T) {
	dir := t.TempDir()
	producerPath := filepath.Join(dir, "producer.toml")
	consumerPath := filepath.Join(dir, "consumer.toml")

	require.NoError(t, GenerateRandom(producerPath))

	producer, err := LoadProducer(producerPath)
	require.NoError(t, err)
	require.NoError(t, producer.ExportVerifyKeys(consumerPath))

	consumer, err := LoadConsumer(consumerPath)
	require.NoError(t, err)

	signer, err := producer.Signing.Get(DefaultKeyLabel)
	require.NoError(t, err)
	producerFP, err := signer.PublicKey().ToFingerprint()
	require.NoError(t, err)

	_, err = consumer.Signing.Get(producerFP)
	require.NoError(t, err, "fingerprint exported from the producer keyring must resolve in the consumer keyring")
}

func TestDuplicateSigningKeyRejected(t *testing.T) {
	dup, err := producerSigningKeyURI(t)
	require.NoError(t, err)

	_, err = NewProducerSigningKeyring(map[string]string{
		"one": dup,
		"two": dup,
	})
	require.Error(t, err)
}

func TestLoadRejectsLoosePermissions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "loose.toml")
	require.NoError(t, GenerateRandom(path))

	// Widen the permissions and confirm the loader refuses to proceed.
	require.NoError(t, os.Chmod(path, 0644))
	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLookupEndToEndWithPack(t *testing.T) {
	dir := t.TempDir()
	producerPath := filepath.Join(dir, "producer.toml")
	consumerPath := filepath.Join(dir, "consumer.toml")

	require.NoError(t, GenerateRandom(producerPath))
	producer, err := LoadProducer(producerPath)
	require.NoError(t, err)
	require.NoError(t, producer.ExportVerifyKeys(consumerPath))

	consumer, err := LoadConsumer(consumerPath)
	require.NoError(t, err)

	id := uuid.New()
	encryptor, err := producer.Encryption.GetByLabel(DefaultKeyLabel, id[:])
	require.NoError(t, err)
	signer, err := producer.Signing.Get(DefaultKeyLabel)
	require.NoError(t, err)

	p := &pack.Pack{
		UUID:  id,
		Files: []pack.File{{Filename: "/etc/hello", Body: []byte("hi\n")}},
	}
	sealed, err := p.EncryptAndSign(encryptor, signer)
	require.NoError(t, err)

	decrypted, err := pack.VerifyAndDecrypt(sealed, consumer.Lookup)
	require.NoError(t, err)
	assert.Equal(t, []byte("hi\n"), decrypted.Files[0].Body)
}

func producerSigningKeyURI(t *testing.T) (string, error) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "k.toml")
	if err := GenerateRandom(path); err != nil {
		return "", err
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		return "", err
	}
	return cfg.Signing[DefaultKeyLabel], nil
}
