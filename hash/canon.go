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

package hash

import "encoding/binary"

// CanonWriter accumulates a deterministic byte stream for hashing compound
// objects: fixed field order, little-endian integers, no floating point.
// Every object that is content-addressed (ChunkManifest, taxonomy snapshots)
// serializes through one of these before Of is called on the result.
type CanonWriter struct {
	buf []byte
}

// NewCanonWriter returns an empty CanonWriter.
func NewCanonWriter() *CanonWriter {
	return &CanonWriter{}
}

// Uint64 appends v as 8 little-endian bytes.
func (w *CanonWriter) Uint64(v uint64) *CanonWriter {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf = append(w.buf, b[:]...)
	return w
}

// Uint32 appends v as 4 little-endian bytes.
func (w *CanonWriter) Uint32(v uint32) *CanonWriter {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
	return w
}

// Byte appends a single byte, typically a tag discriminating a sum type.
func (w *CanonWriter) Byte(v byte) *CanonWriter {
	w.buf = append(w.buf, v)
	return w
}

// AppendBytes appends a length-prefixed byte string.
func (w *CanonWriter) AppendBytes(b []byte) *CanonWriter {
	w.Uint64(uint64(len(b)))
	w.buf = append(w.buf, b...)
	return w
}

// String appends a length-prefixed UTF-8 string.
func (w *CanonWriter) String(s string) *CanonWriter {
	return w.AppendBytes([]byte(s))
}

// Fingerprint appends a raw 32-byte fingerprint (no length prefix needed:
// fixed width).
func (w *CanonWriter) Fingerprint(f F) *CanonWriter {
	w.buf = append(w.buf, f[:]...)
	return w
}

// Bytes returns the accumulated byte stream.
func (w *CanonWriter) Bytes() []byte {
	return w.buf
}

// Sum returns the fingerprint of the accumulated byte stream.
func (w *CanonWriter) Sum() F {
	return Of(w.buf)
}
