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

package verify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/talaria-bio/talaria/chunkstore"
	"github.com/talaria-bio/talaria/hash"
	"github.com/talaria-bio/talaria/manifest"
)

func putBytes(t *testing.T, ctx context.Context, store chunkstore.Store, b []byte) hash.F {
	t.Helper()
	c := chunkstore.NewChunk(b)
	require.NoError(t, store.Put(ctx, c))
	return c.Hash()
}

// TestVerifierCatchesCorruptedChunk implements scenario S6: a committed TM
// plus store, with one stored blob byte-flipped, must report exactly that
// F_chunk as invalid.
func TestVerifierCatchesCorruptedChunk(t *testing.T) {
	ctx := context.Background()
	store := chunkstore.NewMemoryStore()

	a := []byte("chunk A bytes")
	b := []byte("chunk B bytes")
	fa := putBytes(t, ctx, store, a)
	fb := putBytes(t, ctx, store, b)

	tm := manifest.TemporalManifest{
		ChunkIndex: []manifest.ChunkMeta{
			{FChunk: fa, Size: len(a), SequenceCount: 1},
			{FChunk: fb, Size: len(b), SequenceCount: 1},
		},
	}
	tm.SequenceRoot = manifest.SequenceRootOf(tm.ChunkIndex)

	store.Corrupt(fb)

	v := New(store)
	result, err := v.VerifyAll(ctx, tm)
	require.NoError(t, err)
	require.Equal(t, []hash.F{fb}, result.InvalidChunks)
	require.True(t, result.SequenceRootValid)
}

func TestVerifyBatchParallelMatchesSequential(t *testing.T) {
	ctx := context.Background()
	store := chunkstore.NewMemoryStore()
	var fs []hash.F
	for i := 0; i < 20; i++ {
		fs = append(fs, putBytes(t, ctx, store, []byte{byte(i), byte(i + 1)}))
	}

	v := New(store)
	seqResults, err := v.VerifyBatch(ctx, fs, false)
	require.NoError(t, err)
	parResults, err := v.VerifyBatch(ctx, fs, true)
	require.NoError(t, err)

	for _, f := range fs {
		require.Equal(t, seqResults[f] == nil, parResults[f] == nil)
	}
}

func TestConsistencyDetectsDuplicateMissingAndOrphaned(t *testing.T) {
	ctx := context.Background()
	store := chunkstore.NewMemoryStore()

	present := putBytes(t, ctx, store, []byte("present"))
	var missing hash.F
	missing[0] = 0xAB

	tm := manifest.TemporalManifest{
		ChunkIndex: []manifest.ChunkMeta{
			{FChunk: present, SequenceCount: 1},
			{FChunk: present, SequenceCount: 1}, // duplicate
			{FChunk: missing, SequenceCount: 1},
		},
	}

	v := New(store)
	findings, err := Consistency(ctx, v, tm, hash.NewSet(present), hash.NewSet(), nil)
	require.NoError(t, err)

	kinds := map[ConsistencyKind]int{}
	for _, f := range findings {
		kinds[f.Kind]++
	}
	require.Equal(t, 1, kinds[DuplicateReference])
	require.Equal(t, 1, kinds[MissingChunk])
	require.Equal(t, 1, kinds[OrphanedChunk])
}

func TestVerifySubsetBuildsInclusionProofs(t *testing.T) {
	ctx := context.Background()
	store := chunkstore.NewMemoryStore()

	var chunkIndex []manifest.ChunkMeta
	var subset []hash.F
	for i := 0; i < 5; i++ {
		f := putBytes(t, ctx, store, []byte{byte(i), byte(i * 2)})
		chunkIndex = append(chunkIndex, manifest.ChunkMeta{FChunk: f, SequenceCount: 1})
		if i%2 == 0 {
			subset = append(subset, f)
		}
	}
	tm := manifest.TemporalManifest{ChunkIndex: chunkIndex}

	v := New(store)
	result, err := v.VerifySubset(ctx, subset, tm)
	require.NoError(t, err)
	require.Empty(t, result.InvalidChunks)
	require.Len(t, result.Proofs, len(subset))
	for _, f := range subset {
		proof, ok := result.Proofs[f]
		require.True(t, ok)
		require.NoError(t, manifest.VerifyInclusion(proof))
	}
}
