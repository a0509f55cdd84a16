// Package incr provides stable fingerprints of compilation inputs and an
// on-disk cache of per-unit outputs keyed by them.
package incr

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
)

// Fingerprint - фиксированный 256-битный хеш входов юнита.
type Fingerprint [32]byte

// IsZero reports whether the fingerprint was never computed.
func (f Fingerprint) IsZero() bool {
	return f == Fingerprint{}
}

// Hex renders the fingerprint for file names and logs.
func (f Fingerprint) Hex() string {
	return hex.EncodeToString(f[:])
}

// Short returns the first 12 hex digits.
func (f Fingerprint) Short() string {
	return f.Hex()[:12]
}

// Combine builds H( a || b || ... ). Order matters.
func Combine(parts ...Fingerprint) Fingerprint {
	h := sha256.New()
	for _, p := range parts {
		_, _ = h.Write(p[:])
	}
	var out Fingerprint
	copy(out[:], h.Sum(nil))
	return out
}

// Of hashes raw bytes.
func Of(data []byte) Fingerprint {
	return Fingerprint(sha256.Sum256(data))
}

// HashStable is implemented by values that can feed a StableHasher.
// The contribution must not depend on pointer identity or map order.
type HashStable interface {
	HashStable(h *StableHasher)
}

// StableHasher accumulates a fingerprint. Every write is length- or
// width-prefixed, so ("ab","c") and ("a","bc") hash differently.
type StableHasher struct {
	h   hash.Hash
	buf [8]byte
}

// NewStableHasher returns an empty hasher.
func NewStableHasher() *StableHasher {
	return &StableHasher{h: sha256.New()}
}

// WriteUint64 adds a fixed-width integer.
func (s *StableHasher) WriteUint64(v uint64) {
	binary.LittleEndian.PutUint64(s.buf[:], v)
	_, _ = s.h.Write(s.buf[:])
}

// WriteBytes adds a length-prefixed byte string.
func (s *StableHasher) WriteBytes(b []byte) {
	s.WriteUint64(uint64(len(b)))
	_, _ = s.h.Write(b)
}

// WriteString adds a length-prefixed string.
func (s *StableHasher) WriteString(str string) {
	s.WriteUint64(uint64(len(str)))
	_, _ = s.h.Write([]byte(str))
}

// WriteStrings adds a counted list of strings.
func (s *StableHasher) WriteStrings(list []string) {
	s.WriteUint64(uint64(len(list)))
	for _, str := range list {
		s.WriteString(str)
	}
}

// WriteFingerprint nests another fingerprint.
func (s *StableHasher) WriteFingerprint(f Fingerprint) {
	_, _ = s.h.Write(f[:])
}

// Hash feeds v into the hasher.
func (s *StableHasher) Hash(v HashStable) {
	v.HashStable(s)
}

// Finish returns the fingerprint of everything written so far.
func (s *StableHasher) Finish() Fingerprint {
	var out Fingerprint
	copy(out[:], s.h.Sum(nil))
	return out
}
