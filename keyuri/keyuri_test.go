package keyuri

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprintIsDeterministicAndValid(t *testing.T) {
	key, err := New(EncryptionKeyPrefix, make([]byte, 32))
	require.NoError(t, err)

	fp1, err := Fingerprint(key)
	require.NoError(t, err)
	fp2, err := Fingerprint(key)
	require.NoError(t, err)
	assert.Equal(t, fp1, fp2)

	decoded, err := Parse(fp1)
	require.NoError(t, err)
	assert.Equal(t, FingerprintPrefix, decoded.Prefix)
	assert.Len(t, decoded.Data, 32)
}

func TestFingerprintBindsPrefix(t *testing.T) {
	secret := make([]byte, 32)
	encKey, err := New(EncryptionKeyPrefix, secret)
	require.NoError(t, err)
	signKey, err := New(SigningKeyPrefix, secret)
	require.NoError(t, err)
	assert.NotEqual(t, encKey, signKey)

	fp1, err := Fingerprint(encKey)
	require.NoError(t, err)
	fp2, err := Fingerprint(signKey)
	require.NoError(t, err)
	assert.NotEqual(t, fp1, fp2)
}

func TestParseRoundTrip(t *testing.T) {
	data := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	s, err := New(VerifyKeyPrefix, data)
	require.NoError(t, err)

	decoded, err := Parse(s)
	require.NoError(t, err)
	assert.Equal(t, VerifyKeyPrefix, decoded.Prefix)
	assert.Equal(t, data, decoded.Data)
}
