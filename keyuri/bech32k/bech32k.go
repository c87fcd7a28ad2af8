// Package bech32k implements the bech32 variant used to encode KeyURIs and
// their fingerprints: same alphabet and checksum polynomial as bech32, but
// separated with ';' instead of '1' so a KeyURI is never mistaken for a URL.
package bech32k

import (
	"fmt"
	"strings"
)

// MinLength is the minimum length of a bech32k string.
const MinLength = 8

// MaxLength is the maximum length of a bech32k string.
const MaxLength = 90

const separator = ';'

const charset = "qpzry9x8gf2tvdw0s3jn54khce6mua7l"

var generator = [5]uint32{
	0x3b6a57b2,
	0x26508e6d,
	0x1ea119fa,
	0x3d4233dd,
	0x2a1462b3,
}

var charsetIndex = func() map[byte]byte {
	m := make(map[byte]byte, len(charset))
	for i := 0; i < len(charset); i++ {
		m[charset[i]] = byte(i)
	}
	return m
}()

// Kind classifies a decoding failure.
type Kind int

// Kinds of bech32k errors, matching the source format exactly.
const (
	SeparatorMissing Kind = iota
	ChecksumInvalid
	LengthInvalid
	CharInvalid
	DataInvalid
	PaddingInvalid
	CaseInvalid
)

// Error is returned by Decode.
type Error struct {
	Kind Kind
	Byte byte // set for CharInvalid and DataInvalid
}

func (e *Error) Error() string {
	switch e.Kind {
	case SeparatorMissing:
		return `missing separator character: ";"`
	case ChecksumInvalid:
		return "checksum mismatch"
	case LengthInvalid:
		return "invalid KeyURI length (min 8, max 90)"
	case CharInvalid:
		return fmt.Sprintf("character invalid (%d)", e.Byte)
	case DataInvalid:
		return fmt.Sprintf("data invalid (%d)", e.Byte)
	case PaddingInvalid:
		return "padding invalid"
	case CaseInvalid:
		return "string contains mixed-case"
	}
	return "bech32k: unknown error"
}

// Encode converts data into a bech32k string with the given textual prefix.
func Encode(prefix string, data []byte) (string, error) {
	base32Data, err := convertBits(data, 8, 5, true)
	if err != nil {
		return "", err
	}
	checksum := createChecksum([]byte(prefix), base32Data)

	var b strings.Builder
	b.WriteString(prefix)
	b.WriteByte(separator)
	for _, v := range base32Data {
		b.WriteByte(charset[v])
	}
	for _, v := range checksum {
		b.WriteByte(charset[v])
	}
	return b.String(), nil
}

// Decode splits s into its prefix and decoded payload, verifying the
// checksum along the way.
func Decode(s string) (prefix string, data []byte, err error) {
	if !strings.ContainsRune(s, separator) {
		return "", nil, &Error{Kind: SeparatorMissing}
	}
	if len(s) < MinLength || len(s) > MaxLength {
		return "", nil, &Error{Kind: LengthInvalid}
	}

	idx := strings.IndexByte(s, separator)
	rawPrefix, rawData := s[:idx], s[idx+1:]
	if rawPrefix == "" {
		return "", nil, &Error{Kind: LengthInvalid}
	}
	if len(rawData) < 6 {
		return "", nil, &Error{Kind: LengthInvalid}
	}

	hasLower, hasUpper := false, false
	prefixBytes := make([]byte, len(rawPrefix))
	for i := 0; i < len(rawPrefix); i++ {
		c := rawPrefix[i]
		if c < 33 || c > 126 {
			return "", nil, &Error{Kind: CharInvalid, Byte: c}
		}
		switch {
		case c >= 'A' && c <= 'Z':
			hasUpper = true
			c += 'a' - 'A'
		case c >= 'a' && c <= 'z':
			hasLower = true
		}
		prefixBytes[i] = c
	}

	dataValues := make([]byte, len(rawData))
	for i := 0; i < len(rawData); i++ {
		c := rawData[i]
		switch {
		case c >= '0' && c <= '9', c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z':
		default:
			return "", nil, &Error{Kind: CharInvalid, Byte: c}
		}
		switch {
		case c >= 'A' && c <= 'Z':
			hasUpper = true
			c += 'a' - 'A'
		case c >= 'a' && c <= 'z':
			hasLower = true
		}
		v, ok := charsetIndex[c]
		if !ok {
			return "", nil, &Error{Kind: CharInvalid, Byte: rawData[i]}
		}
		dataValues[i] = v
	}

	if hasLower && hasUpper {
		return "", nil, &Error{Kind: CaseInvalid}
	}

	if err := verifyChecksum(prefixBytes, dataValues); err != nil {
		return "", nil, err
	}

	payload := dataValues[:len(dataValues)-6]
	decoded, err := convertBits(payload, 5, 8, false)
	if err != nil {
		return "", nil, err
	}
	return string(prefixBytes), decoded, nil
}

func expandPrefix(prefix []byte) []byte {
	v := make([]byte, 0, len(prefix)*2+1)
	for _, b := range prefix {
		v = append(v, b>>5)
	}
	v = append(v, 0)
	for _, b := range prefix {
		v = append(v, b&0x1f)
	}
	return v
}

func polymod(values []byte) uint32 {
	result := uint32(1)
	for _, v := range values {
		top := byte(result >> 25)
		result = (result&0x1ffffff)<<5 ^ uint32(v)
		for i, coeff := range generator {
			if (top>>uint(i))&1 == 1 {
				result ^= coeff
			}
		}
	}
	return result
}

func createChecksum(prefix, data []byte) []byte {
	payload := expandPrefix(prefix)
	payload = append(payload, data...)
	payload = append(payload, make([]byte, 6)...)

	pm := polymod(payload) ^ 1
	checksum := make([]byte, 6)
	for p := 0; p < 6; p++ {
		checksum[p] = byte((pm >> uint(5*(5-p))) & 0x1f)
	}
	return checksum
}

func verifyChecksum(prefix, data []byte) error {
	payload := expandPrefix(prefix)
	payload = append(payload, data...)
	if polymod(payload) != 1 {
		return &Error{Kind: ChecksumInvalid}
	}
	return nil
}

// convertBits regroups data from srcBits-wide values to dstBits-wide values.
// When pad is true (encoding, 8->5) a short final group is zero-padded;
// when pad is false (decoding, 5->8) leftover bits beyond srcBits or
// non-zero padding bits are rejected.
func convertBits(data []byte, srcBits, dstBits uint, pad bool) ([]byte, error) {
	var acc uint32
	var bits uint
	var result []byte
	maxVal := uint32(1)<<dstBits - 1

	for _, value := range data {
		v := uint32(value)
		if v>>srcBits != 0 {
			return nil, &Error{Kind: DataInvalid, Byte: value}
		}
		acc = acc<<srcBits | v
		bits += srcBits
		for bits >= dstBits {
			bits -= dstBits
			result = append(result, byte((acc>>bits)&maxVal))
		}
	}

	if pad {
		if bits > 0 {
			result = append(result, byte((acc<<(dstBits-bits))&maxVal))
		}
	} else if bits >= srcBits || (acc<<(dstBits-bits))&maxVal != 0 {
		return nil, &Error{Kind: PaddingInvalid}
	}

	return result, nil
}
