// Package codec implements C1 (Hashing & Serialization): a canonical,
// deterministic binary wire format and the SHA-256 content hash built
// on top of it. Records here lead with an explicit Tag byte rather than
// a runtime type registry, so encoding never depends on reflection or
// registration order.
package codec

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// Tag identifies the record type leading every canonical encoding.
type Tag byte

const (
	TagTypedEdgeHash Tag = iota + 1
	TagObservationEdge
	TagHashSignature
	TagSignatureBatch
	TagSignedObservationEdge
	TagLastTransactionRef
	TagTransactionEdgeData
	TagSnapshot
	TagStoredSnapshot
	TagSnapshotInfo
)

// SerializationError is returned only for programmer error: an
// unknown or invalid enum tag or record shape. Well-typed inputs never
// fail to encode.
type SerializationError struct {
	Reason string
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("codec: serialization error: %s", e.Reason)
}

// CanonicalEncodable is implemented by every domain value hashed or
// persisted by this system.
type CanonicalEncodable interface {
	EncodeCanonical(e *Encoder)
}

// Encoder builds the canonical byte layout: a tag, then fields in
// declared order; integers fixed-width big-endian; strings and byte
// slices length-prefixed; sequences length-prefixed; optionals as a
// 0|1 presence byte followed by the value.
type Encoder struct {
	buf bytes.Buffer
	err error
}

// NewEncoder returns an empty Encoder.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// Fail records a programmer error; the first failure wins.
func (e *Encoder) Fail(reason string) {
	if e.err == nil {
		e.err = &SerializationError{Reason: reason}
	}
}

// Tag writes the record's type tag.
func (e *Encoder) Tag(t Tag) {
	e.buf.WriteByte(byte(t))
}

// Byte writes a single raw byte, used for small closed enums (e.g.
// TypedEdgeHash.hashType) once validated by the caller.
func (e *Encoder) Byte(b byte) {
	e.buf.WriteByte(b)
}

// Uint32 writes a fixed-width big-endian uint32, used as the
// length prefix for strings, byte slices and sequences.
func (e *Encoder) Uint32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	e.buf.Write(b[:])
}

// Uint64 writes a fixed-width big-endian uint64.
func (e *Encoder) Uint64(v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	e.buf.Write(b[:])
}

// Int64 writes a fixed-width big-endian int64 (two's complement).
func (e *Encoder) Int64(v int64) {
	e.Uint64(uint64(v))
}

// Bool writes a single 0|1 byte.
func (e *Encoder) Bool(v bool) {
	if v {
		e.buf.WriteByte(1)
	} else {
		e.buf.WriteByte(0)
	}
}

// String writes a length-prefixed UTF-8 string.
func (e *Encoder) String(s string) {
	e.Uint32(uint32(len(s)))
	e.buf.WriteString(s)
}

// Bytes writes a length-prefixed byte slice.
func (e *Encoder) Bytes(b []byte) {
	e.Uint32(uint32(len(b)))
	e.buf.Write(b)
}

// OptionalInt64 writes a 0|1 presence byte followed by the value when present.
func (e *Encoder) OptionalInt64(v *int64) {
	if v == nil {
		e.buf.WriteByte(0)
		return
	}
	e.buf.WriteByte(1)
	e.Int64(*v)
}

// Sequence writes a length prefix followed by n calls to each, which
// is responsible for encoding element i. Callers must present elements
// in the type's canonical order already (e.g. SignatureBatch sorted by
// signature hex); codec does not sort, it only frames.
func (e *Encoder) Sequence(n int, each func(i int)) {
	e.Uint32(uint32(n))
	for i := 0; i < n; i++ {
		each(i)
	}
}

// Nested encodes a child value inline (no separate length prefix; the
// child's own tag+fields are self-delimiting by construction).
func (e *Encoder) Nested(v CanonicalEncodable) {
	v.EncodeCanonical(e)
}

// Serialize produces the canonical byte encoding of v.
func Serialize(v CanonicalEncodable) ([]byte, error) {
	e := NewEncoder()
	v.EncodeCanonical(e)
	if e.err != nil {
		return nil, e.err
	}
	return e.buf.Bytes(), nil
}

// Hash returns lowercase-hex(SHA-256(Serialize(v))).
func Hash(v CanonicalEncodable) (string, error) {
	raw, err := Serialize(v)
	if err != nil {
		return "", err
	}
	return HashBytes(raw), nil
}

// HashBytes hashes already-serialized bytes: lowercase-hex(SHA-256(raw)).
// Hash applies it to Serialize's output.
func HashBytes(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// HashString hashes the UTF-8 bytes of s directly, used when a domain
// value is "the hash of a hex string" rather than of an encoded record.
func HashString(s string) string {
	return HashBytes([]byte(s))
}
