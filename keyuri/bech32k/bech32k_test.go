package bech32k

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	examplePrefix  = "example.prefix"
	exampleData    = []byte{0, 255, 1, 2, 3, 42, 101}
	exampleEncoded = "example.prefix;qrlszqsr9fjsjhjw53"
)

func TestRoundTripLiteral(t *testing.T) {
	encoded, err := Encode(examplePrefix, exampleData)
	require.NoError(t, err)
	assert.Equal(t, exampleEncoded, encoded)

	prefix, data, err := Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, examplePrefix, prefix)
	assert.Equal(t, exampleData, data)
}

func TestDecodeMissingSeparator(t *testing.T) {
	_, _, err := Decode("noseparatorhere12345")
	require.Error(t, err)
	assert.Equal(t, SeparatorMissing, err.(*Error).Kind)
}

func TestDecodeMixedCaseRejected(t *testing.T) {
	encoded, err := Encode(examplePrefix, exampleData)
	require.NoError(t, err)

	// Flip the case of one payload character to create a mixed-case string.
	idx := len(examplePrefix) + 1
	mixed := []byte(encoded)
	for i, c := range mixed[idx:] {
		if c >= 'a' && c <= 'z' {
			mixed[idx+i] = c - ('a' - 'A')
			break
		}
	}
	_, _, err = Decode(string(mixed))
	require.Error(t, err)
	assert.Equal(t, CaseInvalid, err.(*Error).Kind)
}

func TestDecodeForbiddenCharacters(t *testing.T) {
	for _, forbidden := range []string{"1", "b", "i", "o", "B", "I", "O"} {
		s := examplePrefix + ";" + forbidden + "qsr9fjsjhjw53"
		_, _, err := Decode(s)
		require.Error(t, err, "expected rejection of forbidden char %q", forbidden)
		assert.Equal(t, CharInvalid, err.(*Error).Kind)
	}
}

func TestDecodeChecksumTampered(t *testing.T) {
	encoded, err := Encode(examplePrefix, exampleData)
	require.NoError(t, err)

	tampered := []byte(encoded)
	tampered[len(tampered)-1] = 'q'
	if tampered[len(tampered)-1] == encoded[len(encoded)-1] {
		tampered[len(tampered)-1] = 'p'
	}
	_, _, err = Decode(string(tampered))
	require.Error(t, err)
	assert.Equal(t, ChecksumInvalid, err.(*Error).Kind)
}

func TestDecodeLengthBounds(t *testing.T) {
	_, _, err := Decode("a;bcdef")
	require.Error(t, err)
	assert.Equal(t, LengthInvalid, err.(*Error).Kind)
}

func TestDecodeEmptyPrefix(t *testing.T) {
	_, _, err := Decode(";qrlszqsr9fjsjhjw53")
	require.Error(t, err)
	assert.Equal(t, LengthInvalid, err.(*Error).Kind)
}
