// Package perrors defines the structured error type used throughout placer.
//
// It follows the same single-constructor-by-argument-type pattern as
// upspin.io's errors package: callers build an *Error by passing a mix of
// typed values to E, and E sorts them into fields by type.
package perrors

import (
	"bytes"
	"encoding"
	"encoding/binary"
	"fmt"
)

// Error is placer's structured error type. A value may leave any field unset.
type Error struct {
	// Target is the host path or resource the operation concerned, if any.
	Target string
	// Op is the operation being performed (e.g. "Keyrings.Load", "Pack.Verify").
	Op string
	// Kind classifies the error for programmatic handling.
	Kind Kind
	// Err is the underlying error that triggered this one, if any.
	Err error
}

var (
	_       error                      = (*Error)(nil)
	_       encoding.BinaryMarshaler   = (*Error)(nil)
	_       encoding.BinaryUnmarshaler = (*Error)(nil)
	zeroErr Error
)

// Separator divides nested errors when rendered as text.
var Separator = ":\n\t"

// Kind is placer's error taxonomy, matching spec §7.
type Kind uint8

// Kinds of errors.
const (
	Other Kind = iota // Unclassified.
	Config            // Malformed or semantically invalid configuration.
	InvalidKey        // Malformed KeyURI, wrong prefix/length, lookup miss, duplicate fingerprint.
	Crypto            // Signature or AEAD failure.
	Parse             // Bad magic, truncated envelope, unparseable UUID/date, future timestamp.
	Io                // Underlying filesystem or pipe I/O failure.
	Source            // Protocol violation by a fetcher.
	Hook              // Hook exited non-zero or was killed by a signal.
	Serialization     // Oversize or unencodable payload.
)

func (k Kind) String() string {
	switch k {
	case Other:
		return "error"
	case Config:
		return "invalid configuration"
	case InvalidKey:
		return "invalid key"
	case Crypto:
		return "cryptographic error"
	case Parse:
		return "parse error"
	case Io:
		return "I/O error"
	case Source:
		return "source protocol error"
	case Hook:
		return "hook error"
	case Serialization:
		return "serialization error"
	}
	return "unknown error kind"
}

// E builds an error value from its arguments. The type of each argument
// determines its meaning; if more than one Kind or error argument is
// supplied, only the last is recorded. Strings are handled as described
// below: the first two are recorded and any further ones are ignored.
//
// The types are:
//
//	string
//		The operation being performed, e.g. "Pack.VerifyAndDecrypt".
//	perrors.Kind
//		The class of error.
//	error
//		The underlying error that triggered this one.
//
// A second string argument (after Op has been set) is taken as Target, the
// path or resource the operation concerned.
//
// If Kind is unset or Other, it is pulled up from the wrapped error.
func E(args ...interface{}) error {
	if len(args) == 0 {
		return nil
	}
	e := &Error{}
	for _, arg := range args {
		switch arg := arg.(type) {
		case string:
			if e.Op == "" {
				e.Op = arg
			} else if e.Target == "" {
				e.Target = arg
			}
		case Kind:
			e.Kind = arg
		case *Error:
			cp := *arg
			e.Err = &cp
		case error:
			e.Err = arg
		default:
			return Errorf("errors.E: bad call with value %v of type %T", arg, arg)
		}
	}

	prev, ok := e.Err.(*Error)
	if !ok {
		return e
	}

	// Suppress duplicated fields so a nested message doesn't repeat them.
	if prev.Target == e.Target {
		prev.Target = ""
	}
	if prev.Kind == e.Kind {
		prev.Kind = Other
	}
	if e.Kind == Other {
		e.Kind = prev.Kind
		prev.Kind = Other
	}
	return e
}

func pad(b *bytes.Buffer, str string) {
	if b.Len() == 0 {
		return
	}
	b.WriteString(str)
}

func (e *Error) Error() string {
	b := new(bytes.Buffer)
	if e.Target != "" {
		b.WriteString(e.Target)
	}
	if e.Op != "" {
		pad(b, ": ")
		b.WriteString(e.Op)
	}
	if e.Kind != Other {
		pad(b, ": ")
		b.WriteString(e.Kind.String())
	}
	if e.Err != nil {
		if prevErr, ok := e.Err.(*Error); ok {
			if *prevErr != zeroErr {
				pad(b, Separator)
				b.WriteString(e.Err.Error())
			}
		} else {
			pad(b, ": ")
			b.WriteString(e.Err.Error())
		}
	}
	if b.Len() == 0 {
		return "no error"
	}
	return b.String()
}

// Is reports whether err is an *Error (possibly nested) of the given Kind.
func Is(kind Kind, err error) bool {
	e, ok := err.(*Error)
	if !ok {
		return false
	}
	if e.Kind != Other {
		return e.Kind == kind
	}
	if e.Err != nil {
		return Is(kind, e.Err)
	}
	return false
}

// Str returns an error that formats as the given text, for use as the
// error-typed argument to E.
func Str(text string) error {
	return &errorString{text}
}

type errorString struct {
	s string
}

func (e *errorString) Error() string {
	return e.s
}

// Errorf is equivalent to fmt.Errorf but returns a type usable directly
// as an argument to E.
func Errorf(format string, args ...interface{}) error {
	return &errorString{fmt.Sprintf(format, args...)}
}

// MarshalAppend marshals err, appending the result to b.
func (e *Error) MarshalAppend(b []byte) []byte {
	if e == nil {
		return b
	}
	b = appendString(b, e.Target)
	b = appendString(b, e.Op)
	var tmp [16]byte
	n := binary.PutVarint(tmp[:], int64(e.Kind))
	b = append(b, tmp[:n]...)
	return MarshalErrorAppend(e.Err, b)
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (e *Error) MarshalBinary() ([]byte, error) {
	return e.MarshalAppend(nil), nil
}

// MarshalErrorAppend marshals an arbitrary error, appending the result to b.
func MarshalErrorAppend(err error, b []byte) []byte {
	if err == nil {
		return b
	}
	if e, ok := err.(*Error); ok {
		b = append(b, 'E')
		return e.MarshalAppend(b)
	}
	b = append(b, 'e')
	return appendString(b, err.Error())
}

// MarshalError marshals an arbitrary error and returns the result.
func MarshalError(err error) []byte {
	return MarshalErrorAppend(err, nil)
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (e *Error) UnmarshalBinary(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	data, b := getBytes(b)
	e.Target = string(data)
	data, b = getBytes(b)
	e.Op = string(data)
	k, n := binary.Varint(b)
	e.Kind = Kind(k)
	b = b[n:]
	e.Err = UnmarshalError(b)
	return nil
}

// UnmarshalError unmarshals a byte slice produced by MarshalError.
func UnmarshalError(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	code := b[0]
	b = b[1:]
	switch code {
	case 'e':
		data, _ := getBytes(b)
		return Str(string(data))
	case 'E':
		var err Error
		err.UnmarshalBinary(b)
		return &err
	default:
		return Str(string(b))
	}
}

func appendString(b []byte, s string) []byte {
	var tmp [16]byte
	n := binary.PutUvarint(tmp[:], uint64(len(s)))
	b = append(b, tmp[:n]...)
	return append(b, s...)
}

func getBytes(b []byte) (data, remaining []byte) {
	u, n := binary.Uvarint(b)
	if n == 0 || len(b) < n+int(u) {
		return nil, nil
	}
	return b[n : n+int(u)], b[n+int(u):]
}
