package pack

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"placer.io/keyuri"
	"placer.io/pcrypto"
)

type keypair struct {
	encryptionSecret string
	signingSecret    string
	signer           *pcrypto.Signer
}

func newKeypair(t *testing.T) keypair {
	t.Helper()
	secret := make([]byte, pcrypto.EncryptionKeySize)
	_, err := rand.Read(secret)
	require.NoError(t, err)
	encKeyURI, err := keyuri.New(keyuri.EncryptionKeyPrefix, secret)
	require.NoError(t, err)

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	signKeyURI, err := keyuri.New(keyuri.SigningKeyPrefix, priv.Seed())
	require.NoError(t, err)

	signer, err := pcrypto.NewSigner(signKeyURI)
	require.NoError(t, err)

	return keypair{encryptionSecret: encKeyURI, signingSecret: signKeyURI, signer: signer}
}

func (k keypair) lookup(t *testing.T) KeyLookup {
	t.Helper()
	return func(fp Fingerprints, id uuid.UUID) (*pcrypto.PublicKey, *pcrypto.Encryptor, error) {
		verify := k.signer.PublicKey()
		encryptor, err := pcrypto.NewEncryptor(k.encryptionSecret, id[:])
		if err != nil {
			return nil, nil, err
		}
		return verify, encryptor, nil
	}
}

func TestEndToEndPack(t *testing.T) {
	kp := newKeypair(t)
	id := uuid.New()

	encryptor, err := pcrypto.NewEncryptor(kp.encryptionSecret, id[:])
	require.NoError(t, err)

	p := &Pack{
		UUID: id,
		Files: []File{
			{Filename: "/etc/hello", ContentType: DefaultContentType, Body: []byte("hi\n")},
		},
	}
	p.Date = p.Date.UTC()

	sealed, err := p.EncryptAndSign(encryptor, kp.signer)
	require.NoError(t, err)

	decrypted, err := VerifyAndDecrypt(sealed, kp.lookup(t))
	require.NoError(t, err)

	require.Len(t, decrypted.Files, 1)
	assert.Equal(t, "/etc/hello", decrypted.Files[0].Filename)
	assert.Equal(t, []byte("hi\n"), decrypted.Files[0].Body)

	expectedSigningFP, err := kp.signer.PublicKey().ToFingerprint()
	require.NoError(t, err)
	assert.Equal(t, expectedSigningFP, decrypted.Fingerprints.Signing)
}

func TestVerifyRejectsTamperedCiphertext(t *testing.T) {
	kp := newKeypair(t)
	id := uuid.New()
	encryptor, err := pcrypto.NewEncryptor(kp.encryptionSecret, id[:])
	require.NoError(t, err)

	p := &Pack{UUID: id, Files: []File{{Filename: "/a", Body: []byte("x")}}}
	sealed, err := p.EncryptAndSign(encryptor, kp.signer)
	require.NoError(t, err)

	sealed[len(sealed)-1] ^= 0xFF
	_, err = VerifyAndDecrypt(sealed, kp.lookup(t))
	assert.Error(t, err)
}

func TestVerifyRejectsBadMagic(t *testing.T) {
	_, err := VerifyAndDecrypt([]byte("not-a-pack-at-all"), func(Fingerprints, uuid.UUID) (*pcrypto.PublicKey, *pcrypto.Encryptor, error) {
		return nil, nil, nil
	})
	assert.Error(t, err)
}

func TestVerifyRejectsTruncatedInput(t *testing.T) {
	_, err := VerifyAndDecrypt([]byte("x"), func(Fingerprints, uuid.UUID) (*pcrypto.PublicKey, *pcrypto.Encryptor, error) {
		return nil, nil, nil
	})
	assert.Error(t, err)
}
