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

// Package chunkstore implements the append-only, content-addressed map from
// fingerprint to byte blob (spec C2).
package chunkstore

import "github.com/talaria-bio/talaria/hash"

// Chunk is an immutable byte blob paired with its fingerprint.
type Chunk struct {
	f    hash.F
	data []byte
}

// EmptyChunk is the zero-value Chunk. Get returns it together with a
// non-nil error (errkind.ChunkNotFound or errkind.HashMismatch) whenever it
// cannot return the requested chunk.
var EmptyChunk = Chunk{}

// NewChunk computes data's fingerprint and wraps it into a Chunk.
func NewChunk(data []byte) Chunk {
	return Chunk{f: hash.Of(data), data: data}
}

// NewChunkWithHash trusts an already-known fingerprint for data, skipping the
// recomputation. Used when rehydrating a Chunk whose hash was validated at a
// system boundary (e.g. on disk read, where the store itself recomputes and
// checks it).
func NewChunkWithHash(f hash.F, data []byte) Chunk {
	return Chunk{f: f, data: data}
}

// Hash returns the chunk's fingerprint.
func (c Chunk) Hash() hash.F { return c.f }

// Data returns the chunk's raw bytes.
func (c Chunk) Data() []byte { return c.data }

// IsEmpty reports whether c is the zero Chunk.
func (c Chunk) IsEmpty() bool { return c.f.IsEmpty() && c.data == nil }
