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

package manifest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/talaria-bio/talaria/chunker"
	"github.com/talaria-bio/talaria/hash"
)

func leafFor(i byte) hash.F {
	var f hash.F
	f[0] = i
	return f
}

// TestMerkleRecomputation implements property P3: recomputing sequence_root
// from chunk_index yields the stored value.
func TestMerkleRecomputation(t *testing.T) {
	chunkIndex := []ChunkMeta{
		{FChunk: leafFor(1), Size: 10, SequenceCount: 2},
		{FChunk: leafFor(2), Size: 20, SequenceCount: 3},
		{FChunk: leafFor(3), Size: 30, SequenceCount: 1},
	}
	root := SequenceRootOf(chunkIndex)
	require.Equal(t, root, SequenceRootOf(chunkIndex))
	require.False(t, root.IsEmpty())
}

func TestMerkleOddTailPromotion(t *testing.T) {
	leaves := []hash.F{leafFor(1), leafFor(2), leafFor(3)}
	tree := BuildMerkleTree(leaves)
	require.False(t, tree.Root().IsEmpty())

	for i := range leaves {
		proof, err := tree.Prove(i)
		require.NoError(t, err)
		require.NoError(t, VerifyInclusion(proof))
	}
}

func TestMerkleInclusionProofFailsOnTamperedLeaf(t *testing.T) {
	leaves := []hash.F{leafFor(1), leafFor(2), leafFor(3), leafFor(4)}
	tree := BuildMerkleTree(leaves)

	proof, err := tree.Prove(1)
	require.NoError(t, err)

	proof.LeafHash = leafFor(99)
	require.Error(t, VerifyInclusion(proof))
}

func TestEmptyTaxonomyRootIsNotZero(t *testing.T) {
	root := TaxonomyRootOf(nil)
	require.False(t, root.IsEmpty())
	require.Equal(t, EmptyTaxonomyRoot(), root)
}

func TestManifestFormatInvariance(t *testing.T) {
	tm := TemporalManifest{
		VersionID:       "v1",
		CreatedAt:       time.Unix(1_700_000_000, 0).UTC(),
		SequenceVersion: "2024_04",
		TaxonomyVersion: "2024-06-01",
		Coord:           TemporalCoordinate{SequenceTime: time.Unix(1_700_000_000, 0).UTC(), TaxonomyTime: time.Unix(1_700_000_100, 0).UTC()},
		ChunkIndex: []ChunkMeta{
			{FChunk: leafFor(1), TaxonIDs: []chunker.TaxonID{9606}, Size: 100, SequenceCount: 2, ClassKind: chunker.Standard},
		},
		ETag: "etag-1",
	}
	tm.SequenceRoot = SequenceRootOf(tm.ChunkIndex)
	tm.TaxonomyRoot = EmptyTaxonomyRoot()

	jsonBytes, err := EncodeJSON(tm)
	require.NoError(t, err)
	fromJSON, err := DecodeJSON(jsonBytes)
	require.NoError(t, err)

	binBytes := EncodeBinary(tm)
	fromBin, err := DecodeBinary(binBytes)
	require.NoError(t, err)

	require.Equal(t, tm.VersionID, fromJSON.VersionID)
	require.Equal(t, tm.VersionID, fromBin.VersionID)
	require.Equal(t, tm.SequenceRoot, fromJSON.SequenceRoot)
	require.Equal(t, tm.SequenceRoot, fromBin.SequenceRoot)
	require.Equal(t, len(tm.ChunkIndex), len(fromBin.ChunkIndex))
	require.Equal(t, fromJSON.ChunkIndex[0].FChunk, fromBin.ChunkIndex[0].FChunk)
}

func TestBinarySmallerThanJSONOnRealisticManifest(t *testing.T) {
	tm := TemporalManifest{VersionID: "bulk", CreatedAt: time.Unix(1_700_000_000, 0).UTC()}
	for i := 0; i < 100; i++ {
		var refs []chunker.TaxonID
		for j := 0; j < 100; j++ {
			refs = append(refs, chunker.TaxonID(9606))
		}
		var f hash.F
		f[0] = byte(i)
		f[1] = byte(i >> 8)
		tm.ChunkIndex = append(tm.ChunkIndex, ChunkMeta{FChunk: f, TaxonIDs: refs, Size: 1000, SequenceCount: 100})
	}
	tm.SequenceRoot = SequenceRootOf(tm.ChunkIndex)
	tm.TaxonomyRoot = EmptyTaxonomyRoot()

	jsonBytes, err := EncodeJSON(tm)
	require.NoError(t, err)
	binBytes := EncodeBinary(tm)

	require.Less(t, len(binBytes), len(jsonBytes))
}

func TestDecodeBinaryRejectsCorruptMagic(t *testing.T) {
	_, err := DecodeBinary([]byte("XXXXnotamanifest"))
	require.Error(t, err)
}

func TestVerifyTemporalProof(t *testing.T) {
	leaves := []hash.F{leafFor(1), leafFor(2), leafFor(3)}
	seqTree := BuildMerkleTree(leaves)
	taxTree := BuildMerkleTree([]hash.F{leafFor(10), leafFor(11)})

	seqProof, err := seqTree.Prove(0)
	require.NoError(t, err)
	taxProof, err := taxTree.Prove(0)
	require.NoError(t, err)

	combined := CombinedHashOf(seqProof.Root, taxProof.Root)
	sig := make([]byte, SignatureLength)
	sig[0] = 1

	proof := TemporalProof{
		SequenceProof: seqProof,
		TaxonomyProof: taxProof,
		Link:          TemporalLink{CombinedHash: combined},
		Attestation:   Attestation{Signature: sig, Timestamp: time.Now(), Authority: "talaria-trust"},
	}
	require.NoError(t, VerifyTemporalProof(proof))

	proof.Attestation.Signature = make([]byte, SignatureLength)
	require.Error(t, VerifyTemporalProof(proof))
}
