// Copyright 2026 The Talaria Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package hash implements the 256-bit content fingerprint (F) that addresses
// every stored object in Talaria, plus the canonical byte encoding compound
// objects are hashed over.
package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"

	"github.com/pkg/errors"

	"github.com/talaria-bio/talaria/errkind"
)

// ByteLen is the size of a Fingerprint in bytes (SHA-256 output).
const ByteLen = sha256.Size

// StringLen is the size of a Fingerprint's lowercase hex encoding.
const StringLen = ByteLen * 2

// F is a 256-bit content fingerprint. It is always compared by value.
type F [ByteLen]byte

var emptyF F

// Of computes the fingerprint of b. hash.Of never fails.
func Of(b []byte) F {
	return F(sha256.Sum256(b))
}

// IsEmpty reports whether f is the zero fingerprint (never a valid content
// hash in practice, used as a sentinel for "no value").
func (f F) IsEmpty() bool {
	return f == emptyF
}

// String renders f as lowercase hex.
func (f F) String() string {
	return hex.EncodeToString(f[:])
}

// Less reports whether f sorts before o in the canonical ascending order
// chunk_index entries and Merkle leaves are ordered by.
func (f F) Less(o F) bool {
	return f.Compare(o) < 0
}

// Compare returns -1, 0, or 1 as f is less than, equal to, or greater than o.
func (f F) Compare(o F) int {
	for i := range f {
		if f[i] != o[i] {
			if f[i] < o[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// Hex renders f as lowercase hex. Equivalent to f.String.
func Hex(f F) string {
	return f.String()
}

// FromHex parses a lowercase (or mixed-case) hex string into a Fingerprint.
// It fails with errkind.InvalidHex on malformed hex of the wrong length.
func FromHex(s string) (F, error) {
	if len(s) != StringLen {
		return emptyF, errors.Wrapf(errkind.InvalidHex, "expected %d hex characters, got %d", StringLen, len(s))
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return emptyF, errors.Wrapf(errkind.InvalidHex, "%s: %v", s, err)
	}
	var f F
	copy(f[:], b)
	return f, nil
}

// MustFromHex is FromHex but panics on error; reserved for tests and
// hardcoded constants.
func MustFromHex(s string) F {
	f, err := FromHex(s)
	if err != nil {
		panic(err)
	}
	return f
}

// Set is a deduplicated, unordered collection of fingerprints.
type Set map[F]struct{}

// NewSet builds a Set from fs.
func NewSet(fs ...F) Set {
	s := make(Set, len(fs))
	for _, f := range fs {
		s[f] = struct{}{}
	}
	return s
}

// Insert adds f to the set.
func (s Set) Insert(f F) { s[f] = struct{}{} }

// Has reports whether f is in the set.
func (s Set) Has(f F) bool { _, ok := s[f]; return ok }

// Slice returns the set's members in canonical ascending order.
func (s Set) Slice() []F {
	out := make([]F, 0, len(s))
	for f := range s {
		out = append(out, f)
	}
	Sort(out)
	return out
}

// Sort orders fs ascending by Fingerprint.Compare, the canonical order used
// for Merkle leaves and chunk_index entries.
func Sort(fs []F) {
	sort.Slice(fs, func(i, j int) bool { return fs[i].Less(fs[j]) })
}
