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

// Package chunker implements the taxonomy-aware chunker (spec C4): it groups
// canonical sequence references into size- and taxon-coherence-bounded
// chunks and emits ChunkManifest objects.
package chunker

import (
	"time"

	"github.com/talaria-bio/talaria/hash"
)

// TaxonID identifies a node in the taxonomy tree. Zero means "no taxon
// assigned" (the sequence goes to the unknown partition).
type TaxonID uint32

const UnknownTaxon TaxonID = 0

// SequenceRef is one input item: a canonical sequence hash, its (optional)
// taxon, and its byte size, used to drive greedy size-bounded packing.
type SequenceRef struct {
	FSeq  hash.F
	Taxon TaxonID
	Size  int
}

// PolicyKind selects how a special taxon's sequences are packed.
type PolicyKind int

const (
	// OwnChunks never mixes this taxon's sequences with any other taxon.
	OwnChunks PolicyKind = iota
	// MergeWith folds this taxon's sequences into another taxon's partition
	// before packing.
	MergeWith
	// Split behaves like OwnChunks but also forces a chunk size ceiling
	// distinct from the strategy's general max_chunk_size.
	Split
)

// SpecialTaxonPolicy overrides the default packing behavior for one taxon.
type SpecialTaxonPolicy struct {
	Taxon     TaxonID
	Policy    PolicyKind
	MergeInto TaxonID // meaningful only when Policy == MergeWith
	MaxSize   int     // used when Policy is OwnChunks or Split; 0 means "use strategy default"
}

// ChunkingStrategy configures the packing algorithm (spec §4.4).
type ChunkingStrategy struct {
	TargetChunkSize      int
	MaxChunkSize         int
	MinSequencesPerChunk int
	TaxonomicCoherence   float64
	SpecialTaxa          []SpecialTaxonPolicy
}

// ChunkClassKind distinguishes how a chunk's bytes are stored.
type ChunkClassKind int

const (
	Standard ChunkClassKind = iota
	Delta
	Hierarchical
)

// ChunkClass carries the delta-specific fields when Kind == Delta.
type ChunkClass struct {
	Kind             ChunkClassKind
	FRef             hash.F
	CompressionRatio float64
}

// ChunkManifest describes one emitted chunk (spec: "ChunkManifest").
// FChunk = hash(canonical-serialization(SequenceRefs, TaxonIDs, Class)).
type ChunkManifest struct {
	FChunk         hash.F
	SequenceRefs   []hash.F
	TaxonIDs       []TaxonID
	Class          ChunkClass
	Size           int
	SequenceCount  int
	CreatedAt      time.Time
	SourceDatabase string
}

// computeFChunk derives FChunk via canonical serialization: fixed field
// order, little-endian, ordered sequence refs.
func computeFChunk(refs []hash.F, taxa []TaxonID, class ChunkClass) hash.F {
	w := hash.NewCanonWriter()
	w.Uint64(uint64(len(refs)))
	for _, r := range refs {
		w.Fingerprint(r)
	}
	w.Uint64(uint64(len(taxa)))
	for _, t := range taxa {
		w.Uint32(uint32(t))
	}
	w.Byte(byte(class.Kind))
	if class.Kind == Delta {
		w.Fingerprint(class.FRef)
		w.Uint64(uint64(class.CompressionRatio * 1e9))
	}
	return w.Sum()
}
