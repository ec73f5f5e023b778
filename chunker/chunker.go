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

package chunker

import (
	"sort"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/talaria-bio/talaria/errkind"
	"github.com/talaria-bio/talaria/hash"
)

// resolvedPolicy is a SpecialTaxonPolicy keyed for O(1) lookup during
// partitioning.
type resolvedPolicy struct {
	policy  PolicyKind
	mergeTo TaxonID
	maxSize int
}

// Chunker packs SequenceRefs into ChunkManifests per a ChunkingStrategy
// (spec C4).
type Chunker struct {
	strategy ChunkingStrategy
	policies map[TaxonID]resolvedPolicy
	now      func() time.Time
	logger   *zap.Logger
}

// WithLogger attaches a structured logger, replacing the default no-op.
func (c *Chunker) WithLogger(logger *zap.Logger) *Chunker {
	c.logger = logger
	return c
}

// New validates strategy and builds a Chunker. A MergeWith policy naming an
// unknown taxon fails fast with errkind.ConfigError, before any packing
// begins (spec: "fails with ConfigError before any chunking").
func New(strategy ChunkingStrategy, now func() time.Time) (*Chunker, error) {
	if now == nil {
		now = time.Now
	}
	policies := make(map[TaxonID]resolvedPolicy, len(strategy.SpecialTaxa))
	known := make(map[TaxonID]bool, len(strategy.SpecialTaxa))
	for _, p := range strategy.SpecialTaxa {
		known[p.Taxon] = true
	}
	for _, p := range strategy.SpecialTaxa {
		if p.Policy == MergeWith {
			if !known[p.MergeInto] {
				return nil, errors.Wrapf(errkind.ConfigError,
					"special taxon %d merges into unknown taxon %d", p.Taxon, p.MergeInto)
			}
		}
		maxSize := p.MaxSize
		if maxSize == 0 {
			maxSize = strategy.MaxChunkSize
		}
		policies[p.Taxon] = resolvedPolicy{policy: p.Policy, mergeTo: p.MergeInto, maxSize: maxSize}
	}
	return &Chunker{strategy: strategy, policies: policies, now: now, logger: zap.NewNop()}, nil
}

// Chunk partitions refs by taxon and emits ChunkManifests per spec §4.4's
// algorithm. Order of refs on input does not matter; emitted chunks are
// sorted by FChunk ascending, so the output is deterministic for a given
// input.
func (c *Chunker) Chunk(refs []SequenceRef, sourceDatabase string) ([]ChunkManifest, error) {
	partitions, err := c.partition(refs)
	if err != nil {
		return nil, err
	}

	var manifests []ChunkManifest
	var small []TaxonID
	for taxon, part := range partitions {
		if len(part) < c.strategy.MinSequencesPerChunk && c.policies[taxon].policy != OwnChunks && c.policies[taxon].policy != Split {
			small = append(small, taxon)
			continue
		}
		chunks, err := c.packPartition(taxon, part, sourceDatabase)
		if err != nil {
			return nil, err
		}
		manifests = append(manifests, chunks...)
	}

	if len(small) > 0 {
		coalesced, err := c.coalesceSmallPartitions(small, partitions, sourceDatabase)
		if err != nil {
			return nil, err
		}
		manifests = append(manifests, coalesced...)
	}

	sort.Slice(manifests, func(i, j int) bool {
		return manifests[i].FChunk.Less(manifests[j].FChunk)
	})
	return manifests, nil
}

// partition groups refs by taxon, applying MergeWith redirection, and fails
// fast on oversize sequences that cannot be split (spec failure semantics).
func (c *Chunker) partition(refs []SequenceRef) (map[TaxonID][]SequenceRef, error) {
	out := make(map[TaxonID][]SequenceRef)
	for _, r := range refs {
		taxon := r.Taxon
		pol, hasPolicy := c.policies[taxon]
		if hasPolicy && pol.policy == MergeWith {
			taxon = pol.mergeTo
		}

		maxSize := c.strategy.MaxChunkSize
		ownsChunks := false
		if p, ok := c.policies[taxon]; ok && (p.policy == OwnChunks || p.policy == Split) {
			ownsChunks = true
			if p.maxSize > 0 {
				maxSize = p.maxSize
			}
		}
		if r.Size > maxSize && !ownsChunks {
			c.logger.Warn("sequence oversized for taxon",
				zap.Int("size", r.Size), zap.Int("max_chunk_size", maxSize), zap.Uint32("taxon_id", uint32(taxon)))
			return nil, errors.Wrapf(errkind.OversizedSequence,
				"sequence %s (%d bytes) exceeds max chunk size %d for taxon %d", r.FSeq, r.Size, maxSize, taxon)
		}

		out[taxon] = append(out[taxon], r)
	}
	return out, nil
}

// packPartition emits chunks for a single taxon partition, greedily filling
// to target_chunk_size and hard-stopping at max_chunk_size (spec §4.4 step
// 2b), splitting an OwnChunks/Split taxon as needed for oversize members.
func (c *Chunker) packPartition(taxon TaxonID, part []SequenceRef, sourceDatabase string) ([]ChunkManifest, error) {
	sort.Slice(part, func(i, j int) bool { return part[i].FSeq.Less(part[j].FSeq) })

	maxSize := c.strategy.MaxChunkSize
	if p, ok := c.policies[taxon]; ok && p.maxSize > 0 {
		maxSize = p.maxSize
	}

	var manifests []ChunkManifest
	var cur []SequenceRef
	var curSize int

	flush := func() {
		if len(cur) == 0 {
			return
		}
		manifests = append(manifests, c.buildManifest(cur, sourceDatabase))
		cur = nil
		curSize = 0
	}

	for _, r := range part {
		if curSize+r.Size > maxSize && len(cur) > 0 {
			flush()
		}
		if curSize+r.Size > maxSize && len(cur) == 0 {
			// Single oversize sequence in a splittable taxon: it becomes its
			// own chunk even though it exceeds maxSize alone would imply, since
			// there is nothing further to split it against at this layer.
			manifests = append(manifests, c.buildManifest([]SequenceRef{r}, sourceDatabase))
			continue
		}
		cur = append(cur, r)
		curSize += r.Size
		// The target-size flush in spec §4.4 step 2b(ii) is conditioned on the
		// next sequence belonging to a different taxon; within a single-taxon
		// partition that condition never holds, so closing on target alone
		// would produce chunks below min_sequences_per_chunk for sequences
		// large relative to the target. Hold the floor instead: only close
		// early once it's met, otherwise keep growing toward maxSize.
		if curSize >= c.strategy.TargetChunkSize && len(cur) >= c.strategy.MinSequencesPerChunk {
			flush()
		}
	}
	flush()
	return manifests, nil
}

// coalesceSmallPartitions folds under-sized partitions into mixed-taxon
// chunks, subject to the taxonomic_coherence floor (spec §4.4 step 3),
// smallest-partition-first when no phylogenetic distance oracle is wired
// (spec step 4's fallback tie-break).
func (c *Chunker) coalesceSmallPartitions(small []TaxonID, partitions map[TaxonID][]SequenceRef, sourceDatabase string) ([]ChunkManifest, error) {
	sort.Slice(small, func(i, j int) bool {
		return len(partitions[small[i]]) < len(partitions[small[j]])
	})

	var pool []SequenceRef
	for _, t := range small {
		pool = append(pool, partitions[t]...)
	}
	if len(pool) == 0 {
		return nil, nil
	}

	taxonCounts := make(map[TaxonID]int)
	for _, r := range pool {
		taxonCounts[r.Taxon]++
	}
	dominant, dominantCount := UnknownTaxon, 0
	for t, n := range taxonCounts {
		if n > dominantCount {
			dominant, dominantCount = t, n
		}
	}
	coherence := float64(dominantCount) / float64(len(pool))
	if coherence < c.strategy.TaxonomicCoherence {
		c.logger.Info("coalescing fallback: coherence floor not met, emitting partitions individually",
			zap.Float64("coherence", coherence), zap.Float64("floor", c.strategy.TaxonomicCoherence),
			zap.Uint32("dominant_taxon", uint32(dominant)))
		// Coherence floor not met: emit each remaining partition as its own
		// chunk rather than silently violating the strategy's invariant.
		var manifests []ChunkManifest
		for _, t := range small {
			if len(partitions[t]) == 0 {
				continue
			}
			manifests = append(manifests, c.buildManifest(partitions[t], sourceDatabase))
		}
		return manifests, nil
	}

	sort.Slice(pool, func(i, j int) bool { return pool[i].FSeq.Less(pool[j].FSeq) })
	return []ChunkManifest{c.buildManifest(pool, sourceDatabase)}, nil
}

func (c *Chunker) buildManifest(refs []SequenceRef, sourceDatabase string) ChunkManifest {
	fseqs := make([]hash.F, len(refs))
	taxa := make([]TaxonID, len(refs))
	size := 0
	for i, r := range refs {
		fseqs[i] = r.FSeq
		taxa[i] = r.Taxon
		size += r.Size
	}
	class := ChunkClass{Kind: Standard}
	return ChunkManifest{
		FChunk:         computeFChunk(fseqs, taxa, class),
		SequenceRefs:   fseqs,
		TaxonIDs:       taxa,
		Class:          class,
		Size:           size,
		SequenceCount:  len(refs),
		CreatedAt:      c.now(),
		SourceDatabase: sourceDatabase,
	}
}
