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

package taxonomy

import (
	"sort"

	"github.com/talaria-bio/talaria/chunker"
	"github.com/talaria-bio/talaria/hash"
)

// Node is one taxon in a taxonomy snapshot: an id, its parent, the rank
// (species, genus, ...), and its scientific name.
type Node struct {
	ID       chunker.TaxonID
	ParentID chunker.TaxonID
	Rank     string
	Name     string
}

// Snapshot is a complete taxonomy tree as loaded from one release.
type Snapshot struct {
	Nodes map[chunker.TaxonID]Node
}

func NewSnapshot() *Snapshot {
	return &Snapshot{Nodes: make(map[chunker.TaxonID]Node)}
}

// nodeFingerprint canonically hashes a single node so the snapshot's
// overall root (manifest.TaxonomyRootOf) only changes when a node's
// identity, lineage, rank, or name actually changes.
func nodeFingerprint(n Node) hash.F {
	w := hash.NewCanonWriter()
	w.Uint32(uint32(n.ID))
	w.Uint32(uint32(n.ParentID))
	w.String(n.Rank)
	w.String(n.Name)
	return w.Sum()
}

// Hashes returns every node's fingerprint in ascending order, ready to
// pass to manifest.TaxonomyRootOf.
func (s *Snapshot) Hashes() []hash.F {
	hashes := make([]hash.F, 0, len(s.Nodes))
	for _, n := range s.Nodes {
		hashes = append(hashes, nodeFingerprint(n))
	}
	hash.Sort(hashes)
	return hashes
}

// Diff compares two snapshots and reports the taxon ids present only in
// one side, used to populate a TemporalManifest's taxonomy diff (spec:
// "taxonomy: {added_taxa, removed_taxa, renamed_taxa}").
type SnapshotDiff struct {
	AddedTaxa   []chunker.TaxonID
	RemovedTaxa []chunker.TaxonID
	RenamedTaxa []chunker.TaxonID // present in both, Name or ParentID changed
}

func Diff(a, b *Snapshot) SnapshotDiff {
	var d SnapshotDiff
	for id, bn := range b.Nodes {
		an, ok := a.Nodes[id]
		if !ok {
			d.AddedTaxa = append(d.AddedTaxa, id)
			continue
		}
		if an.Name != bn.Name || an.ParentID != bn.ParentID {
			d.RenamedTaxa = append(d.RenamedTaxa, id)
		}
	}
	for id := range a.Nodes {
		if _, ok := b.Nodes[id]; !ok {
			d.RemovedTaxa = append(d.RemovedTaxa, id)
		}
	}

	sortTaxa(d.AddedTaxa)
	sortTaxa(d.RemovedTaxa)
	sortTaxa(d.RenamedTaxa)
	return d
}

func sortTaxa(ids []chunker.TaxonID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
