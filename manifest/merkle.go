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
	"sort"

	"github.com/pkg/errors"

	"github.com/talaria-bio/talaria/errkind"
	"github.com/talaria-bio/talaria/hash"
)

// MerkleTree is an odd-tail-promoting binary hash tree (spec §4.5.1):
// leaves are canonical serializations ordered ascending by fingerprint;
// internal nodes hash(left || right); an unpaired tail node is promoted to
// the next level unchanged rather than duplicated-and-paired.
type MerkleTree struct {
	levels [][]hash.F // levels[0] = leaves, levels[len-1] = {root}
}

// BuildMerkleTree constructs a tree over leaves, which must already be in
// the caller's desired canonical order (ascending fingerprint, per spec).
func BuildMerkleTree(leaves []hash.F) *MerkleTree {
	if len(leaves) == 0 {
		return &MerkleTree{levels: [][]hash.F{{manifestEmptyRoot()}}}
	}

	level := append([]hash.F(nil), leaves...)
	levels := [][]hash.F{level}
	for len(level) > 1 {
		next := make([]hash.F, 0, (len(level)+1)/2)
		for i := 0; i+1 < len(level); i += 2 {
			next = append(next, hashPair(level[i], level[i+1]))
		}
		if len(level)%2 == 1 {
			next = append(next, level[len(level)-1])
		}
		levels = append(levels, next)
		level = next
	}
	return &MerkleTree{levels: levels}
}

func manifestEmptyRoot() hash.F {
	return hash.Of([]byte("EMPTY_MERKLE_TREE"))
}

func hashPair(left, right hash.F) hash.F {
	w := hash.NewCanonWriter()
	w.Fingerprint(left)
	w.Fingerprint(right)
	return w.Sum()
}

// Root returns the tree's root fingerprint.
func (t *MerkleTree) Root() hash.F {
	top := t.levels[len(t.levels)-1]
	return top[0]
}

// InclusionProof is the sibling path needed to recompute Root from
// LeafHash (spec §4.5.2).
type InclusionProof struct {
	Root     hash.F
	LeafHash hash.F
	Siblings []hash.F
	PathBits []bool // true = sibling is on the right of the current node
}

// Prove builds an InclusionProof for the leaf at index i.
func (t *MerkleTree) Prove(i int) (InclusionProof, error) {
	leaves := t.levels[0]
	if i < 0 || i >= len(leaves) {
		return InclusionProof{}, errors.Wrapf(errkind.ParseError, "leaf index %d out of range [0,%d)", i, len(leaves))
	}

	proof := InclusionProof{Root: t.Root(), LeafHash: leaves[i]}
	idx := i
	for level := 0; level < len(t.levels)-1; level++ {
		cur := t.levels[level]
		var siblingIdx int
		var onRight bool
		if idx%2 == 0 {
			siblingIdx = idx + 1
			onRight = true
		} else {
			siblingIdx = idx - 1
			onRight = false
		}
		if siblingIdx < len(cur) {
			proof.Siblings = append(proof.Siblings, cur[siblingIdx])
			proof.PathBits = append(proof.PathBits, onRight)
		}
		// Odd tail promotion: when idx is the last, unpaired element at this
		// level, it carries straight to idx/2 at the next level with no
		// sibling contribution.
		idx /= 2
	}
	return proof, nil
}

// VerifyInclusion recomputes the root from p.LeafHash and p.Siblings and
// compares it to p.Root. Fails with errkind.InvalidProof on mismatch.
func VerifyInclusion(p InclusionProof) error {
	cur := p.LeafHash
	for i, sib := range p.Siblings {
		if p.PathBits[i] {
			cur = hashPair(cur, sib)
		} else {
			cur = hashPair(sib, cur)
		}
	}
	if cur != p.Root {
		return errors.Wrapf(errkind.InvalidProof, "recomputed root %s != claimed root %s", cur, p.Root)
	}
	return nil
}

// ChunkMetaLeaf derives the canonical-serialization leaf hash for a
// ChunkMeta entry (spec §4.5.1: "canonical serializations of
// ChunkManifest-metadata entries").
func ChunkMetaLeaf(m ChunkMeta) hash.F {
	w := hash.NewCanonWriter()
	w.Fingerprint(m.FChunk)
	w.Uint64(uint64(len(m.TaxonIDs)))
	for _, t := range m.TaxonIDs {
		w.Uint32(uint32(t))
	}
	w.Uint64(uint64(m.Size))
	w.Uint64(uint64(m.SequenceCount))
	w.Byte(byte(m.ClassKind))
	return w.Sum()
}

// SequenceRootOf builds the Merkle tree over chunkIndex ordered by FChunk
// ascending and returns its root: the TM's sequence_root.
func SequenceRootOf(chunkIndex []ChunkMeta) hash.F {
	sorted := append([]ChunkMeta(nil), chunkIndex...)
	sortChunkMetaByFChunk(sorted)

	leaves := make([]hash.F, len(sorted))
	for i, m := range sorted {
		leaves[i] = ChunkMetaLeaf(m)
	}
	return BuildMerkleTree(leaves).Root()
}

func sortChunkMetaByFChunk(ms []ChunkMeta) {
	sort.Slice(ms, func(i, j int) bool { return ms[i].FChunk.Less(ms[j].FChunk) })
}

// TaxonomyRootOf builds the Merkle tree over a taxonomy snapshot's hashes
// (already ascending) identically to SequenceRootOf, using
// EmptyTaxonomyRoot for an empty snapshot.
func TaxonomyRootOf(snapshotHashes []hash.F) hash.F {
	if len(snapshotHashes) == 0 {
		return EmptyTaxonomyRoot()
	}
	sorted := append([]hash.F(nil), snapshotHashes...)
	hash.Sort(sorted)
	return BuildMerkleTree(sorted).Root()
}
