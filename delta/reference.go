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
	"sort"

	"github.com/talaria-bio/talaria/hash"
)

// Selection is the output of reference selection: for each anchor, the set
// of children it absorbed.
type Selection struct {
	Anchors  []hash.F
	Children map[hash.F][]hash.F // anchor -> absorbed children
	Orphans  []hash.F            // absorbed by no anchor
}

// Select implements spec §4.6.1: centrality-ranked anchor selection over a
// similarity graph, each anchor absorbing its σ≥τ neighbors as children.
func Select(nodes []SequenceNode, cfg ReferenceSelectionConfig, cache *SimilarityCache) Selection {
	n := len(nodes)
	sel := Selection{Children: make(map[hash.F][]hash.F)}
	if n == 0 {
		return sel
	}

	g := buildSimilarityGraph(nodes, cfg.KmerSize, cfg.SimilarityThreshold, cache)
	between := g.betweenness(cfg.BetweennessSampleThreshold, cfg.BetweennessSamples)

	type scored struct {
		idx   int
		score float64
	}
	scores := make([]scored, n)
	for i := range nodes {
		c := cfg.Weights.Degree*g.degree(i) + cfg.Weights.Betweenness*between[i] + cfg.Weights.Coverage*g.coverage(i)
		scores[i] = scored{idx: i, score: c}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })

	numAnchors := int(float64(n) * cfg.ReferenceRatio)
	if numAnchors < 1 {
		numAnchors = 1
	}
	if numAnchors > n {
		numAnchors = n
	}

	isAnchor := make([]bool, n)
	absorbed := make([]bool, n)
	anchorOrder := make([]int, 0, numAnchors)
	for i := 0; i < numAnchors; i++ {
		idx := scores[i].idx
		isAnchor[idx] = true
		anchorOrder = append(anchorOrder, idx)
	}

	for _, a := range anchorOrder {
		sel.Anchors = append(sel.Anchors, nodes[a].FSeq)
		for _, e := range g.adj[a] {
			if isAnchor[e.to] || absorbed[e.to] {
				continue
			}
			if e.sigma >= cfg.SimilarityThreshold {
				absorbed[e.to] = true
				sel.Children[nodes[a].FSeq] = append(sel.Children[nodes[a].FSeq], nodes[e.to].FSeq)
			}
		}
	}

	for i, n := range nodes {
		if !isAnchor[i] && !absorbed[i] {
			sel.Orphans = append(sel.Orphans, n.FSeq)
		}
	}
	return sel
}
