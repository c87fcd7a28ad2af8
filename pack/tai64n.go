package pack

import (
	"encoding/binary"
	"time"

	"placer.io/perrors"
)

// tai64Offset is the conventional TAI64 epoch offset (2^62), so that second
// counts remain positive across the entire range of representable dates.
const tai64Offset = 1 << 62

// encodeTime renders t as a 12-byte TAI64N label: an 8-byte big-endian
// second count (offset by tai64Offset) followed by a 4-byte big-endian
// nanosecond count.
func encodeTime(t time.Time) []byte {
	b := make([]byte, 12)
	binary.BigEndian.PutUint64(b[0:8], uint64(t.Unix()+tai64Offset))
	binary.BigEndian.PutUint32(b[8:12], uint32(t.Nanosecond()))
	return b
}

// decodeTime parses a 12-byte TAI64N label back into a UTC time.Time.
func decodeTime(b []byte) (time.Time, error) {
	if len(b) != 12 {
		return time.Time{}, perrors.E("pack.decodeTime", perrors.Parse,
			perrors.Errorf("invalid TAI64N length: %d (expected 12)", len(b)))
	}
	seconds := int64(binary.BigEndian.Uint64(b[0:8])) - tai64Offset
	nanos := int64(binary.BigEndian.Uint32(b[8:12]))
	return time.Unix(seconds, nanos).UTC(), nil
}
