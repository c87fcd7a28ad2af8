package pcrypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"placer.io/keyuri"
)

func randomEncryptionKeyURI(t *testing.T) string {
	t.Helper()
	secret := make([]byte, EncryptionKeySize)
	_, err := rand.Read(secret)
	require.NoError(t, err)
	s, err := keyuri.New(keyuri.EncryptionKeyPrefix, secret)
	require.NoError(t, err)
	return s
}

func randomSigningKeyURI(t *testing.T) string {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	s, err := keyuri.New(keyuri.SigningKeyPrefix, priv.Seed())
	require.NoError(t, err)
	return s
}

func TestEncryptorSealOpenRoundTrip(t *testing.T) {
	salt := []byte("pack-uuid-bytes-16")
	enc, err := NewEncryptor(randomEncryptionKeyURI(t), salt)
	require.NoError(t, err)

	ad := [][]byte{[]byte("tai64n"), []byte("enc-fp"), []byte("sign-fp")}
	ciphertext := enc.Seal([]byte("hi\n"), ad...)

	plaintext, err := enc.Open(ciphertext, ad...)
	require.NoError(t, err)
	assert.Equal(t, []byte("hi\n"), plaintext)
}

func TestEncryptorOpenFailsOnTamperedAD(t *testing.T) {
	salt := []byte("pack-uuid-bytes-16")
	enc, err := NewEncryptor(randomEncryptionKeyURI(t), salt)
	require.NoError(t, err)

	ad := [][]byte{[]byte("tai64n"), []byte("enc-fp"), []byte("sign-fp")}
	ciphertext := enc.Seal([]byte("hi\n"), ad...)

	tamperedAD := [][]byte{[]byte("tai64n"), []byte("wrong-fp"), []byte("sign-fp")}
	_, err = enc.Open(ciphertext, tamperedAD...)
	assert.Error(t, err)
}

func TestEncryptorRejectsWrongPrefix(t *testing.T) {
	signKey := randomSigningKeyURI(t)
	_, err := NewEncryptor(signKey, []byte("salt"))
	assert.Error(t, err)
}

func TestSignerVerifyRoundTrip(t *testing.T) {
	signer, err := NewSigner(randomSigningKeyURI(t))
	require.NoError(t, err)

	msg := []byte("ciphertext-bytes")
	sig := signer.Sign(msg)
	assert.Len(t, sig, SignatureSize)

	pub := signer.PublicKey()
	assert.NoError(t, pub.Verify(msg, sig))
}

func TestVerifyFailsOnTamperedMessage(t *testing.T) {
	signer, err := NewSigner(randomSigningKeyURI(t))
	require.NoError(t, err)

	sig := signer.Sign([]byte("original"))
	pub := signer.PublicKey()
	assert.Error(t, pub.Verify([]byte("tampered"), sig))
}

func TestPublicKeyFingerprintRoundTrip(t *testing.T) {
	signer, err := NewSigner(randomSigningKeyURI(t))
	require.NoError(t, err)

	pub := signer.PublicKey()
	keyURI, err := pub.ToKeyURI()
	require.NoError(t, err)

	reparsed, err := PublicKeyFromKeyURI(keyURI)
	require.NoError(t, err)
	assert.Equal(t, pub.Bytes(), reparsed.Bytes())

	fp1, err := pub.ToFingerprint()
	require.NoError(t, err)
	fp2, err := reparsed.ToFingerprint()
	require.NoError(t, err)
	assert.Equal(t, fp1, fp2)
}
