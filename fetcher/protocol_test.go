package fetcher

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGreetingRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteGreeting(&buf, "http", "1.0", "extra info"))

	greeting, err := ReadGreeting(bufio.NewReader(&buf))
	require.NoError(t, err)
	assert.Equal(t, "http 1.0 extra info", greeting)
}

func TestReadGreetingRejectsBadPrefix(t *testing.T) {
	r := bufio.NewReader(bytes.NewBufferString("ERR nope\n"))
	_, err := ReadGreeting(r)
	assert.Error(t, err)
}

func TestRequestRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRequest(&buf, []string{"motd", "banner"}))

	ids, err := ReadRequest(bufio.NewReader(&buf))
	require.NoError(t, err)
	assert.Equal(t, []string{"motd", "banner"}, ids)
}

func TestDeliveryRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteDelivery(&buf, "motd", []byte("hello\n")))

	d, err := ReadDelivery(bufio.NewReader(&buf), 1<<20)
	require.NoError(t, err)
	assert.Equal(t, "motd", d.ResourceID)
	assert.Equal(t, []byte("hello\n"), d.Body)
}

func TestReadDeliveryRejectsOversize(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteDelivery(&buf, "motd", make([]byte, 100)))

	_, err := ReadDelivery(bufio.NewReader(&buf), 10)
	assert.Error(t, err)
}

func TestReadDeliveryRejectsMalformedHeader(t *testing.T) {
	r := bufio.NewReader(bytes.NewBufferString("not-a-length\n"))
	_, err := ReadDelivery(r, 1<<20)
	assert.Error(t, err)
}

func TestReadDeliveryRejectsBadEOFMarker(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("5 motd\nhelloX")
	_, err := ReadDelivery(bufio.NewReader(&buf), 1<<20)
	assert.Error(t, err)
}

func TestReadDeliveryRejectsExtraField(t *testing.T) {
	r := bufio.NewReader(bytes.NewBufferString("3 a b\nfoo\n"))
	_, err := ReadDelivery(r, 1<<20)
	assert.Error(t, err)
}

func TestReadDeliveryAcceptsTabSeparatedHeader(t *testing.T) {
	r := bufio.NewReader(bytes.NewBufferString("3\tmotd\nfoo\n"))
	d, err := ReadDelivery(r, 1<<20)
	require.NoError(t, err)
	assert.Equal(t, "motd", d.ResourceID)
	assert.Equal(t, []byte("foo"), d.Body)
}
