package pack

import (
	"google.golang.org/protobuf/encoding/protowire"

	"placer.io/perrors"
)

// Field tag numbers for the envelope message.
const (
	fieldUUID               = 1
	fieldDate               = 2
	fieldSigningFingerprint = 3
	fieldEncryptFingerprint = 4
	fieldSignature          = 5
	fieldCiphertext         = 6
)

// Field tag numbers for the payload message and its repeated file entries.
const (
	fieldPayloadFiles = 1

	fieldFileName        = 1
	fieldFileContentType = 2
	fieldFileModifiedAt  = 3
	fieldFileBody        = 4
)

type envelope struct {
	uuid                  string
	date                  []byte // 12-byte TAI64N
	signingFingerprint    string
	encryptionFingerprint string
	signature             []byte
	ciphertext            []byte
}

func (e *envelope) encode() []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldUUID, protowire.BytesType)
	b = protowire.AppendString(b, e.uuid)
	b = protowire.AppendTag(b, fieldDate, protowire.BytesType)
	b = protowire.AppendBytes(b, e.date)
	b = protowire.AppendTag(b, fieldSigningFingerprint, protowire.BytesType)
	b = protowire.AppendString(b, e.signingFingerprint)
	b = protowire.AppendTag(b, fieldEncryptFingerprint, protowire.BytesType)
	b = protowire.AppendString(b, e.encryptionFingerprint)
	b = protowire.AppendTag(b, fieldSignature, protowire.BytesType)
	b = protowire.AppendBytes(b, e.signature)
	b = protowire.AppendTag(b, fieldCiphertext, protowire.BytesType)
	b = protowire.AppendBytes(b, e.ciphertext)
	return b
}

func decodeEnvelope(b []byte) (*envelope, error) {
	const op = "pack.decodeEnvelope"
	e := &envelope{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, perrors.E(op, perrors.Parse, perrors.Errorf("bad tag: %v", protowire.ParseError(n)))
		}
		b = b[n:]

		if typ != protowire.BytesType {
			return nil, perrors.E(op, perrors.Parse, perrors.Errorf("unexpected wire type %v for field %d", typ, num))
		}
		val, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return nil, perrors.E(op, perrors.Parse, perrors.Errorf("bad field %d: %v", num, protowire.ParseError(n)))
		}
		b = b[n:]

		switch num {
		case fieldUUID:
			e.uuid = string(val)
		case fieldDate:
			e.date = val
		case fieldSigningFingerprint:
			e.signingFingerprint = string(val)
		case fieldEncryptFingerprint:
			e.encryptionFingerprint = string(val)
		case fieldSignature:
			e.signature = val
		case fieldCiphertext:
			e.ciphertext = val
		}
	}
	return e, nil
}

func encodePayload(files []File) ([]byte, error) {
	var b []byte
	for _, f := range files {
		var fb []byte
		fb = protowire.AppendTag(fb, fieldFileName, protowire.BytesType)
		fb = protowire.AppendString(fb, f.Filename)
		fb = protowire.AppendTag(fb, fieldFileContentType, protowire.BytesType)
		fb = protowire.AppendString(fb, f.ContentType)
		fb = protowire.AppendTag(fb, fieldFileModifiedAt, protowire.BytesType)
		fb = protowire.AppendBytes(fb, encodeTime(f.ModifiedAt))
		fb = protowire.AppendTag(fb, fieldFileBody, protowire.BytesType)
		fb = protowire.AppendBytes(fb, f.Body)

		b = protowire.AppendTag(b, fieldPayloadFiles, protowire.BytesType)
		b = protowire.AppendBytes(b, fb)
	}
	return b, nil
}

func decodePayload(b []byte) ([]File, error) {
	const op = "pack.decodePayload"
	var files []File
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 || typ != protowire.BytesType {
			return nil, perrors.E(op, perrors.Parse, perrors.Str("bad payload framing"))
		}
		b = b[n:]
		val, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return nil, perrors.E(op, perrors.Parse, perrors.Str("bad payload field"))
		}
		b = b[n:]

		if num != fieldPayloadFiles {
			continue
		}
		f, err := decodeFile(val)
		if err != nil {
			return nil, perrors.E(op, perrors.Parse, err)
		}
		files = append(files, f)
	}
	return files, nil
}

func decodeFile(b []byte) (File, error) {
	const op = "pack.decodeFile"
	var f File
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 || typ != protowire.BytesType {
			return File{}, perrors.E(op, perrors.Parse, perrors.Str("bad file framing"))
		}
		b = b[n:]
		val, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return File{}, perrors.E(op, perrors.Parse, perrors.Str("bad file field"))
		}
		b = b[n:]

		switch num {
		case fieldFileName:
			f.Filename = string(val)
		case fieldFileContentType:
			f.ContentType = string(val)
		case fieldFileModifiedAt:
			t, err := decodeTime(val)
			if err != nil {
				return File{}, perrors.E(op, perrors.Parse, err)
			}
			f.ModifiedAt = t
		case fieldFileBody:
			f.Body = val
		}
	}
	return f, nil
}
