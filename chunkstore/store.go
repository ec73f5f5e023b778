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

package chunkstore

import (
	"context"

	"github.com/talaria-bio/talaria/hash"
)

// Stats reports store-level metrics (spec C2 stats()).
type Stats struct {
	Count           uint64
	Bytes           uint64
	CompressedCount uint64
	DedupRatio      float64
}

// Store is the persistent, crash-safe map F -> bytes. Implementations are
// pluggable (spec C2): BoltStore is the default embedded-KV backend and
// MemoryStore is the in-memory backend the test suite runs the same
// conformance tests against.
type Store interface {
	// Put is idempotent: a no-op if the chunk's fingerprint is already
	// present. Put is atomic at the blob level — partial blobs never become
	// visible to Get/Exists.
	Put(ctx context.Context, c Chunk) error

	// Get fails with errkind.ChunkNotFound if f is absent, and with
	// errkind.HashMismatch if the stored blob no longer hashes to f.
	Get(ctx context.Context, f hash.F) (Chunk, error)

	// Exists reports whether f is present. Guaranteed true immediately after
	// a successful Put of the blob that hashes to f.
	Exists(ctx context.Context, f hash.F) (bool, error)

	// ExistsBatch is the batched form of Exists, returned in the same order
	// as fs.
	ExistsBatch(ctx context.Context, fs []hash.F) ([]bool, error)

	// Enumerate returns every fingerprint currently in the store, in
	// unspecified order, as a channel that closes when exhausted or ctx is
	// cancelled.
	Enumerate(ctx context.Context) (<-chan hash.F, error)

	// Remove deletes f. Only used by GC.
	Remove(ctx context.Context, f hash.F) error

	// Flush forces durability of everything Put so far.
	Flush(ctx context.Context) error

	// Stats reports current store-level metrics.
	Stats() Stats
}
