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
	"sync"

	"github.com/pkg/errors"

	"github.com/talaria-bio/talaria/chunker"
	"github.com/talaria-bio/talaria/errkind"
	"github.com/talaria-bio/talaria/hash"
)

// Index is the bi-temporal index (spec §4.5.3): readers share a read lock
// and wait only while an Insert holds the write lock; the per-database
// writer lease is held by callers (see Insert).
type Index struct {
	mu      sync.RWMutex
	entries []TemporalManifest // append-only, unordered on insert; scanned linearly on query
	byID    map[string]TemporalManifest
}

// NewIndex returns an empty Index.
func NewIndex() *Index {
	return &Index{byID: make(map[string]TemporalManifest)}
}

// Insert adds tm. Callers are responsible for holding the per-database
// ingest lease (spec §5); Insert itself only guards the index's own
// structures.
func (x *Index) Insert(tm TemporalManifest) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.entries = append(x.entries, tm)
	x.byID[tm.VersionID] = tm
}

// Snapshot returns the TM current at coord: the entry with the greatest
// coordinate not exceeding coord, per (sequence_time, taxonomy_time)
// lexicographic order.
func (x *Index) Snapshot(coord TemporalCoordinate) (TemporalManifest, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	var best *TemporalManifest
	for i := range x.entries {
		e := &x.entries[i]
		if coord.Less(e.Coord) {
			continue
		}
		if best == nil || best.Coord.Less(e.Coord) || (e.Coord == best.Coord && e.VersionID > best.VersionID) {
			best = e
		}
	}
	if best == nil {
		return TemporalManifest{}, errors.Wrap(errkind.ManifestNotFound, "no manifest at or before requested coordinate")
	}
	return *best, nil
}

// ByVersion looks a TM up by its version_id directly.
func (x *Index) ByVersion(versionID string) (TemporalManifest, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	tm, ok := x.byID[versionID]
	if !ok {
		return TemporalManifest{}, errors.Wrapf(errkind.ManifestNotFound, "version %s", versionID)
	}
	return tm, nil
}

// SequenceDiff reports the chunk-level delta between two manifests.
type SequenceDiff struct {
	Added    []hash.F
	Removed  []hash.F
	Modified []hash.F // not populated by Index.Diff: chunks are compared by FChunk only, so a changed chunk appears as one Removed and one Added entry.
}

// TaxonomyDiff reports taxon-tree level changes between two manifests.
type TaxonomyDiff struct {
	AddedTaxa   []chunker.TaxonID
	RemovedTaxa []chunker.TaxonID
	RenamedTaxa []chunker.TaxonID
}

// Reclassification records a taxon move detected between two manifests.
type Reclassification struct {
	OldTaxon chunker.TaxonID
	NewTaxon chunker.TaxonID
	Count    int
}

// Diff compares the manifests at coord_a and coord_b (spec §4.5.3).
func (x *Index) Diff(a, b TemporalCoordinate) (SequenceDiff, TaxonomyDiff, []Reclassification, error) {
	tmA, err := x.Snapshot(a)
	if err != nil {
		return SequenceDiff{}, TaxonomyDiff{}, nil, err
	}
	tmB, err := x.Snapshot(b)
	if err != nil {
		return SequenceDiff{}, TaxonomyDiff{}, nil, err
	}

	seqA := chunkSet(tmA.ChunkIndex)
	seqB := chunkSet(tmB.ChunkIndex)

	var sd SequenceDiff
	for f := range seqB {
		if !seqA.Has(f) {
			sd.Added = append(sd.Added, f)
		}
	}
	for f := range seqA {
		if !seqB.Has(f) {
			sd.Removed = append(sd.Removed, f)
		}
	}
	hash.Sort(sd.Added)
	hash.Sort(sd.Removed)

	var td TaxonomyDiff
	var reclass []Reclassification
	if tmA.SequenceRoot == tmB.SequenceRoot && tmA.TaxonomyRoot != tmB.TaxonomyRoot {
		// Reclassification scenario (spec S5): sequence_root identical,
		// taxonomy_root changed — surface per-taxon-id differences observed
		// in the chunk_index's taxon assignments as renames.
		taxA := taxonSetFrom(tmA.ChunkIndex)
		taxB := taxonSetFrom(tmB.ChunkIndex)
		for t := range taxB {
			if !taxA[t] {
				td.RenamedTaxa = append(td.RenamedTaxa, t)
			}
		}
		sort.Slice(td.RenamedTaxa, func(i, j int) bool { return td.RenamedTaxa[i] < td.RenamedTaxa[j] })
	}

	return sd, td, reclass, nil
}

func chunkSet(entries []ChunkMeta) hash.Set {
	s := hash.NewSet()
	for _, e := range entries {
		s.Insert(e.FChunk)
	}
	return s
}

func taxonSetFrom(entries []ChunkMeta) map[chunker.TaxonID]bool {
	s := make(map[chunker.TaxonID]bool)
	for _, e := range entries {
		for _, t := range e.TaxonIDs {
			s[t] = true
		}
	}
	return s
}
