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

package delta

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/talaria-bio/talaria/hash"
)

// similarityCacheSize bounds the pairwise-score cache so a large
// reference-selection run can't grow it unboundedly; entries are cheap to
// recompute on eviction.
const similarityCacheSize = 1 << 20

// kmerProfile is the set of k-mers observed in a sequence, used for the
// fast Jaccard similarity estimate (spec §4.6.1).
func kmerProfile(seq []byte, k int) map[string]struct{} {
	if len(seq) < k {
		return map[string]struct{}{string(seq): {}}
	}
	profile := make(map[string]struct{}, len(seq)-k+1)
	for i := 0; i+k <= len(seq); i++ {
		profile[string(seq[i:i+k])] = struct{}{}
	}
	return profile
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	inter := 0
	for k := range small {
		if _, ok := large[k]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// pairKey normalizes a pair of indices (order-independent) for the pairwise
// cache, per spec §9's "ordering normalized" adjacency cache.
func pairKey(i, j int) [2]int {
	if i > j {
		i, j = j, i
	}
	return [2]int{i, j}
}

// SimilarityCache memoizes pairwise σ scores, keyed by normalized index
// pair, as spec §9 describes ("cached in concurrent hash maps"). Backed by
// an LRU so long-running reference selection over many batches doesn't
// retain scores for sequences long since evicted from the working set.
type SimilarityCache struct {
	cache *lru.Cache[[2]int, float64]
}

func NewSimilarityCache() *SimilarityCache {
	c, err := lru.New[[2]int, float64](similarityCacheSize)
	if err != nil {
		// Only returns an error for a non-positive size, which
		// similarityCacheSize never is.
		panic(err)
	}
	return &SimilarityCache{cache: c}
}

func (c *SimilarityCache) get(i, j int) (float64, bool) {
	return c.cache.Get(pairKey(i, j))
}

func (c *SimilarityCache) put(i, j int, sigma float64) {
	c.cache.Add(pairKey(i, j), sigma)
}

// SequenceNode is one node in the reference-selection similarity graph:
// nodes are array indices into a flat slice, no node pointers (spec §9's
// "arena+index for graphs").
type SequenceNode struct {
	FSeq    hash.F
	Bytes   []byte
	profile map[string]struct{}
}

// similarityGraph is an adjacency list over indices into nodes.
type similarityGraph struct {
	nodes []SequenceNode
	adj   [][]edge
}

type edge struct {
	to    int
	sigma float64
}

// buildSimilarityGraph computes pairwise σ for all node pairs above
// τ·0.5 and keeps only those as edges (spec §4.6.1 step 1).
func buildSimilarityGraph(nodes []SequenceNode, k int, tau float64, cache *SimilarityCache) *similarityGraph {
	for i := range nodes {
		if nodes[i].profile == nil {
			nodes[i].profile = kmerProfile(nodes[i].Bytes, k)
		}
	}

	g := &similarityGraph{nodes: nodes, adj: make([][]edge, len(nodes))}
	threshold := tau * 0.5
	for i := 0; i < len(nodes); i++ {
		for j := i + 1; j < len(nodes); j++ {
			var sigma float64
			if cache != nil {
				if cached, ok := cache.get(i, j); ok {
					sigma = cached
				} else {
					sigma = jaccard(nodes[i].profile, nodes[j].profile)
					cache.put(i, j, sigma)
				}
			} else {
				sigma = jaccard(nodes[i].profile, nodes[j].profile)
			}
			if sigma >= threshold {
				g.adj[i] = append(g.adj[i], edge{to: j, sigma: sigma})
				g.adj[j] = append(g.adj[j], edge{to: i, sigma: sigma})
			}
		}
	}
	return g
}

// degree returns node i's edge count, the first centrality term.
func (g *similarityGraph) degree(i int) float64 {
	return float64(len(g.adj[i]))
}

// betweenness computes (approximate, if sampled) betweenness centrality for
// every node via unweighted BFS shortest-path counting (Brandes), sampling
// source nodes when |V| exceeds the configured threshold (spec §4.6.1's
// performance note: "for |S| > threshold, an approximation is mandatory").
func (g *similarityGraph) betweenness(sampleThreshold, samples int) []float64 {
	n := len(g.nodes)
	centrality := make([]float64, n)
	if n == 0 {
		return centrality
	}

	sources := make([]int, n)
	for i := range sources {
		sources[i] = i
	}
	if n > sampleThreshold && samples > 0 && samples < n {
		sources = sampleIndices(n, samples)
	}

	for _, s := range sources {
		brandesSingleSource(g, s, centrality)
	}

	// Normalize by the number of sources actually used so the scale stays
	// comparable between sampled and exact runs.
	scale := float64(n) / float64(len(sources))
	for i := range centrality {
		centrality[i] *= scale
	}
	return centrality
}

// sampleIndices deterministically spaces samples across [0,n) (no
// Math.rand dependency; a fixed stride keeps results reproducible, matching
// how the chunker and dedup layers stay deterministic elsewhere).
func sampleIndices(n, samples int) []int {
	out := make([]int, 0, samples)
	stride := n / samples
	if stride == 0 {
		stride = 1
	}
	for i := 0; i < n && len(out) < samples; i += stride {
		out = append(out, i)
	}
	return out
}

// brandesSingleSource accumulates one source's contribution to betweenness
// centrality into acc, following Brandes' algorithm restricted to a single
// BFS pass (unweighted shortest paths over the similarity graph's edges).
func brandesSingleSource(g *similarityGraph, s int, acc []float64) {
	n := len(g.nodes)
	dist := make([]int, n)
	sigma := make([]float64, n)
	delta := make([]float64, n)
	var stack []int
	preds := make([][]int, n)
	for i := range dist {
		dist[i] = -1
	}
	dist[s] = 0
	sigma[s] = 1

	queue := []int{s}
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		stack = append(stack, v)
		for _, e := range g.adj[v] {
			w := e.to
			if dist[w] < 0 {
				dist[w] = dist[v] + 1
				queue = append(queue, w)
			}
			if dist[w] == dist[v]+1 {
				sigma[w] += sigma[v]
				preds[w] = append(preds[w], v)
			}
		}
	}

	for i := len(stack) - 1; i >= 0; i-- {
		w := stack[i]
		for _, v := range preds[w] {
			if sigma[w] > 0 {
				delta[v] += (sigma[v] / sigma[w]) * (1 + delta[w])
			}
		}
		if w != s {
			acc[w] += delta[w]
		}
	}
}

// coverage scores a node by its sequence length relative to the longest
// sequence in the set (spec: "coverage(length)").
func (g *similarityGraph) coverage(i int) float64 {
	maxLen := 1
	for _, n := range g.nodes {
		if len(n.Bytes) > maxLen {
			maxLen = len(n.Bytes)
		}
	}
	return float64(len(g.nodes[i].Bytes)) / float64(maxLen)
}
