// Package pack implements placer's encrypted, signed file container: an
// AEAD-sealed, Ed25519-signed envelope carrying an ordered list of files.
package pack

import (
	"bytes"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"placer.io/pcrypto"
	"placer.io/perrors"
)

// Magic identifies a placer pack on disk or on the wire.
const Magic = "placer-pack:v0.1"

// MaxSize is the maximum total size, in bytes, of an encoded pack.
const MaxSize = 1 << 20

// MaxTimestampSkew is the maximum amount of clock skew, in seconds, a
// received pack's date may carry into the future before it is rejected.
const MaxTimestampSkew = 86400

// DefaultContentType is used for every file placer packs unless overridden.
const DefaultContentType = "application/octet-stream"

// File is a single entry inside a pack's payload.
type File struct {
	Filename    string
	ContentType string
	ModifiedAt  time.Time
	Body        []byte
}

// Fingerprints names the keys used to produce a pack, by their KeyURI
// fingerprints rather than the keys themselves.
type Fingerprints struct {
	Signing    string
	Encryption string
}

// KeyLookup resolves the keys needed to verify and decrypt a pack from the
// fingerprints recorded in its envelope and the pack's own UUID (used as
// the HKDF salt for the per-pack encryption subkey). Implementations
// return an InvalidKey error on any miss; this keeps the envelope format
// independent of how keys are stored.
type KeyLookup func(fp Fingerprints, id uuid.UUID) (*pcrypto.PublicKey, *pcrypto.Encryptor, error)

// Pack is a decoded, and possibly still-sealed, collection of files.
type Pack struct {
	UUID         uuid.UUID
	Date         time.Time
	Fingerprints Fingerprints
	Files        []File
}

// Create builds a Pack from the files named by input, each resolved
// relative to base. In-pack filenames are absolute paths rooted at base.
func Create(id uuid.UUID, base string, input []string) (*Pack, error) {
	const op = "pack.Create"

	canonicalBase, err := filepath.EvalSymlinks(base)
	if err != nil {
		return nil, perrors.E(op, base, perrors.Io, err)
	}
	canonicalBase, err = filepath.Abs(canonicalBase)
	if err != nil {
		return nil, perrors.E(op, base, perrors.Io, err)
	}

	var files []File
	for _, name := range input {
		path, err := filepath.EvalSymlinks(filepath.Join(canonicalBase, name))
		if err != nil {
			return nil, perrors.E(op, name, perrors.Io, err)
		}

		info, err := os.Stat(path)
		if err != nil {
			return nil, perrors.E(op, path, perrors.Io, err)
		}

		body, err := os.ReadFile(path)
		if err != nil {
			return nil, perrors.E(op, path, perrors.Io, err)
		}

		rel, err := filepath.Rel(canonicalBase, path)
		if err != nil {
			return nil, perrors.E(op, path, perrors.Io, err)
		}

		files = append(files, File{
			Filename:    "/" + filepath.ToSlash(rel),
			ContentType: DefaultContentType,
			ModifiedAt:  info.ModTime(),
			Body:        body,
		})
	}

	payload, err := encodePayload(files)
	if err != nil {
		return nil, perrors.E(op, perrors.Serialization, err)
	}
	if len(payload) > MaxSize {
		return nil, perrors.E(op, perrors.Serialization,
			perrors.Errorf("pack too large: %d bytes (max %d)", len(payload), MaxSize))
	}

	return &Pack{
		UUID: id,
		Date: time.Now().UTC(),
		Files: files,
	}, nil
}

// EncryptAndSign seals p's payload with encryptor and signs the resulting
// ciphertext with signer, returning the complete on-wire pack bytes.
func (p *Pack) EncryptAndSign(encryptor *pcrypto.Encryptor, signer *pcrypto.Signer) ([]byte, error) {
	const op = "pack.EncryptAndSign"

	payload, err := encodePayload(p.Files)
	if err != nil {
		return nil, perrors.E(op, perrors.Serialization, err)
	}
	if len(payload) > MaxSize {
		return nil, perrors.E(op, perrors.Serialization,
			perrors.Errorf("pack too large: %d bytes (max %d)", len(payload), MaxSize))
	}

	date := encodeTime(p.Date)
	encryptionFingerprint := encryptor.Fingerprint()
	signingFingerprint, err := signer.PublicKey().ToFingerprint()
	if err != nil {
		return nil, perrors.E(op, perrors.Crypto, err)
	}

	ciphertext := encryptor.Seal(payload, date, []byte(encryptionFingerprint), []byte(signingFingerprint))
	signature := signer.Sign(ciphertext)

	env := &envelope{
		uuid:                  p.UUID.String(),
		date:                  date,
		signingFingerprint:    signingFingerprint,
		encryptionFingerprint: encryptionFingerprint,
		signature:             signature,
		ciphertext:            ciphertext,
	}

	out := make([]byte, 0, len(Magic)+len(ciphertext)+256)
	out = append(out, Magic...)
	out = append(out, env.encode()...)

	if len(out) > MaxSize {
		return nil, perrors.E(op, perrors.Serialization,
			perrors.Errorf("pack too large: %d bytes (max %d)", len(out), MaxSize))
	}
	return out, nil
}

// VerifyAndDecrypt parses, verifies, and decrypts a pack from data, using
// lookup to resolve the keys named by the envelope's fingerprint fields.
func VerifyAndDecrypt(data []byte, lookup KeyLookup) (*Pack, error) {
	const op = "pack.VerifyAndDecrypt"

	if len(data) > MaxSize {
		return nil, perrors.E(op, perrors.Serialization,
			perrors.Errorf("pack too large: %d bytes (max %d)", len(data), MaxSize))
	}
	if len(data) < len(Magic) {
		return nil, perrors.E(op, perrors.Parse,
			perrors.Errorf("pack too short: expected at least %d bytes, got %d", len(Magic), len(data)))
	}
	if !bytes.Equal(data[:len(Magic)], []byte(Magic)) {
		return nil, perrors.E(op, perrors.Parse, perrors.Errorf("pack does not start with magic string %q", Magic))
	}

	env, err := decodeEnvelope(data[len(Magic):])
	if err != nil {
		return nil, perrors.E(op, perrors.Parse, err)
	}

	id, err := uuid.Parse(env.uuid)
	if err != nil {
		return nil, perrors.E(op, perrors.Parse, perrors.Errorf("invalid UUID %q: %v", env.uuid, err))
	}

	fp := Fingerprints{Signing: env.signingFingerprint, Encryption: env.encryptionFingerprint}

	verifyKey, encryptor, err := lookup(fp, id)
	if err != nil {
		return nil, perrors.E(op, perrors.InvalidKey, err)
	}
	if verifyKey == nil || encryptor == nil {
		return nil, perrors.E(op, perrors.InvalidKey, perrors.Str("key lookup failed"))
	}

	if err := verifyKey.Verify(env.ciphertext, env.signature); err != nil {
		return nil, perrors.E(op, perrors.Crypto, err)
	}

	date, err := decodeTime(env.date)
	if err != nil {
		return nil, perrors.E(op, perrors.Parse, err)
	}

	plaintext, err := encryptor.Open(env.ciphertext, env.date, []byte(env.encryptionFingerprint), []byte(env.signingFingerprint))
	if err != nil {
		return nil, perrors.E(op, perrors.Crypto, perrors.Str("decryption failed"))
	}

	if date.Sub(time.Now().UTC()).Seconds() > MaxTimestampSkew {
		return nil, perrors.E(op, perrors.Parse, perrors.Errorf("bogus future timestamp on pack: %s", date))
	}

	files, err := decodePayload(plaintext)
	if err != nil {
		return nil, perrors.E(op, perrors.Parse, err)
	}

	return &Pack{
		UUID:         id,
		Date:         date,
		Fingerprints: fp,
		Files:        files,
	}, nil
}
