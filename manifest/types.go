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

// Package manifest implements the versioned manifest and Merkle index (spec
// C5): TemporalManifest construction, inclusion and temporal proofs, the
// bi-temporal index, and the binary/JSON on-disk encodings.
package manifest

import (
	"time"

	"github.com/talaria-bio/talaria/chunker"
	"github.com/talaria-bio/talaria/hash"
)

// TemporalCoordinate is the (sequence_time, taxonomy_time) pair a
// TemporalManifest is indexed by.
type TemporalCoordinate struct {
	SequenceTime time.Time
	TaxonomyTime time.Time
}

// Less orders coordinates lexicographically on (SequenceTime, TaxonomyTime),
// the ordering diffs and the bi-temporal index both rely on.
func (c TemporalCoordinate) Less(other TemporalCoordinate) bool {
	if !c.SequenceTime.Equal(other.SequenceTime) {
		return c.SequenceTime.Before(other.SequenceTime)
	}
	return c.TaxonomyTime.Before(other.TaxonomyTime)
}

// ChunkMeta is the chunk_index entry stored inside a TemporalManifest: the
// subset of ChunkManifest fields needed by Merkle construction and
// consistency checks, without re-embedding the full sequence ref list
// redundantly across manifests.
type ChunkMeta struct {
	FChunk        hash.F
	TaxonIDs      []chunker.TaxonID
	Size          int
	SequenceCount int
	ClassKind     chunker.ChunkClassKind
}

// TaxonomicEvent tags one entry in an identifier's evolution history.
type TaxonomicEvent int

const (
	Created TaxonomicEvent = iota
	Modified
	Reclassified
	Renamed
	Merged
	SplitEvent
	Deleted
)

// EvolutionEntry is one step in an identifier's lifecycle (spec §4.5.3).
type EvolutionEntry struct {
	Timestamp   time.Time
	Event       TaxonomicEvent
	Description string
}

// TaxonomicDiscrepancy flags a chunk whose taxon assignment conflicts with
// the taxonomy manifest active at commit time.
type TaxonomicDiscrepancy struct {
	FChunk      hash.F
	TaxonID     chunker.TaxonID
	Description string
}

// Attestation carries the placeholder signature scheme spec §4.5.2
// describes: a concrete asymmetric scheme is a trust-module concern outside
// this package; here only well-formedness (length, non-null, signed bytes)
// is checked.
type Attestation struct {
	Signature []byte
	Timestamp time.Time
	Authority string
}

// SignatureLength is the placeholder fixed signature length core-side
// validation checks a TemporalProof's Signature against.
const SignatureLength = 64

// TemporalManifest (TM) is the top-level versioned object.
type TemporalManifest struct {
	VersionID            string
	CreatedAt            time.Time
	SequenceVersion      string
	TaxonomyVersion      string
	Coord                TemporalCoordinate
	SequenceRoot         hash.F
	TaxonomyRoot         hash.F
	ChunkIndex           []ChunkMeta
	TaxonomyManifestHash hash.F
	Discrepancies        []TaxonomicDiscrepancy
	ETag                 string
	PreviousVersion      string // empty means "no previous version"
}

// EmptyTaxonomyRoot is the canonical root used when a taxonomy snapshot has
// no entries: hash("EMPTY_TAXONOMY"), never the zero fingerprint — a zero
// value must never be mistaken for a valid empty-set root.
func EmptyTaxonomyRoot() hash.F {
	return hash.Of([]byte("EMPTY_TAXONOMY"))
}
