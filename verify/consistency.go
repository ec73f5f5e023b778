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

	"github.com/talaria-bio/talaria/chunker"
	"github.com/talaria-bio/talaria/hash"
	"github.com/talaria-bio/talaria/manifest"
)

// ConsistencyKind classifies a Consistency finding (spec: consistency(TM,
// store)).
type ConsistencyKind int

const (
	MissingChunk ConsistencyKind = iota
	OrphanedChunk
	DuplicateReference
	TaxonomyInconsistency
	HashMismatch
)

func (k ConsistencyKind) String() string {
	switch k {
	case MissingChunk:
		return "MissingChunk"
	case OrphanedChunk:
		return "OrphanedChunk"
	case DuplicateReference:
		return "DuplicateReference"
	case TaxonomyInconsistency:
		return "TaxonomyInconsistency"
	case HashMismatch:
		return "HashMismatch"
	default:
		return "Unknown"
	}
}

// ConsistencyFinding is one detected problem.
type ConsistencyFinding struct {
	Kind        ConsistencyKind
	FChunk      hash.F
	Expected    hash.F
	Actual      hash.F
	Description string
}

// IsFatal reports whether the finding must block a TM from being marked
// current (spec §4.7's failure classification): integrity mismatches and
// duplicate references are fatal; orphans and taxonomy inconsistencies are
// warnings; missing chunks are fatal unless only referenced transitively by
// a delta (not modeled at this layer, so conservatively fatal here too).
func (f ConsistencyFinding) IsFatal() bool {
	switch f.Kind {
	case OrphanedChunk, TaxonomyInconsistency:
		return false
	default:
		return true
	}
}

// Consistency runs the consistency(TM, store) checks: missing chunks,
// orphaned chunks (present in storeChunks, referenced by no live manifest —
// callers pass the union of every live TM's chunk_index as liveReferenced),
// duplicate chunk_index references, and taxon ids absent from knownTaxa.
// knownTaxa is backed by a roaring bitmap (chunker.TaxonSet) rather than a
// Go map since a full taxonomy snapshot's id set is checked against every
// chunk in a commit-time verification pass.
func Consistency(ctx context.Context, v *Verifier, tm manifest.TemporalManifest, storeChunks hash.Set, liveReferenced hash.Set, knownTaxa *chunker.TaxonSet) ([]ConsistencyFinding, error) {
	var findings []ConsistencyFinding

	seen := make(map[hash.F]int)
	for _, c := range tm.ChunkIndex {
		seen[c.FChunk]++
	}
	for f, n := range seen {
		if n > 1 {
			findings = append(findings, ConsistencyFinding{Kind: DuplicateReference, FChunk: f, Description: "listed twice in chunk_index"})
		}
	}

	for _, c := range tm.ChunkIndex {
		ok, err := v.store.Exists(ctx, c.FChunk)
		if err != nil {
			return nil, err
		}
		if !ok {
			findings = append(findings, ConsistencyFinding{Kind: MissingChunk, FChunk: c.FChunk, Description: "referenced by TM but absent from store"})
			continue
		}
		if err := v.VerifyChunk(ctx, c.FChunk); err != nil {
			findings = append(findings, ConsistencyFinding{Kind: HashMismatch, FChunk: c.FChunk, Description: err.Error()})
		}
		for _, taxon := range c.TaxonIDs {
			if knownTaxa != nil && !knownTaxa.Has(taxon) {
				findings = append(findings, ConsistencyFinding{Kind: TaxonomyInconsistency, FChunk: c.FChunk, Description: "taxon id absent from current taxonomy"})
			}
		}
	}

	for f := range storeChunks {
		if !liveReferenced.Has(f) {
			findings = append(findings, ConsistencyFinding{Kind: OrphanedChunk, FChunk: f, Description: "present in store, absent from all live manifests"})
		}
	}

	return findings, nil
}
