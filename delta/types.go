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

// Package delta implements the delta engine (spec C6): reference selection
// by graph centrality over a sequence similarity graph, delta chunk
// generation against a selected reference, the tab-separated wire form, and
// the per-sequence ingest state machine.
package delta

import (
	"github.com/talaria-bio/talaria/hash"
)

// RangeOp is one edit operation: replace bytes [Start,End) in the reference
// with Bytes. A single-position substitution has End == Start+1.
type RangeOp struct {
	Start int
	End   int
	Bytes []byte
}

// DeltaOperation is the full set of edits needed to reconstruct a child
// sequence from a reference.
type DeltaOperation struct {
	ChildID  hash.F
	RefID    hash.F
	TaxonID  uint32
	HasTaxon bool
	Ops      []RangeOp
}

// CentralityWeights are the scoring function's configurable coefficients
// (spec §4.6.1: "α=0.5, β=0.3, γ=0.2").
type CentralityWeights struct {
	Degree      float64
	Betweenness float64
	Coverage    float64
}

// DefaultCentralityWeights returns the default coefficients used when a
// caller does not supply its own weighting.
func DefaultCentralityWeights() CentralityWeights {
	return CentralityWeights{Degree: 0.5, Betweenness: 0.3, Coverage: 0.2}
}

// ReferenceSelectionConfig tunes Select.
type ReferenceSelectionConfig struct {
	SimilarityThreshold        float64 // τ
	ReferenceRatio             float64 // r ∈ (0,1]
	KmerSize                   int     // default 3 or 5
	BetweennessSampleThreshold int     // |S| above which betweenness is approximated by sampling
	BetweennessSamples         int
	Weights                    CentralityWeights
}

// DefaultReferenceSelectionConfig returns reasonable defaults per spec
// §4.6.1.
func DefaultReferenceSelectionConfig() ReferenceSelectionConfig {
	return ReferenceSelectionConfig{
		SimilarityThreshold:        0.6,
		ReferenceRatio:             0.1,
		KmerSize:                   5,
		BetweennessSampleThreshold: 10_000,
		BetweennessSamples:         256,
		Weights:                    DefaultCentralityWeights(),
	}
}

// SequenceState is the per-sequence ingest state machine (spec §4.6.4).
type SequenceState int

const (
	Seen SequenceState = iota
	Canonicalized
	Chunked
	Anchored
	DeltaEncoded
	FullStored
	Committed
	Rejected
)

func (s SequenceState) String() string {
	switch s {
	case Seen:
		return "Seen"
	case Canonicalized:
		return "Canonicalized"
	case Chunked:
		return "Chunked"
	case Anchored:
		return "Anchored"
	case DeltaEncoded:
		return "Delta-Encoded"
	case FullStored:
		return "Full-Stored"
	case Committed:
		return "Committed"
	case Rejected:
		return "Rejected"
	default:
		return "Unknown"
	}
}

// validTransitions enumerates the state machine's append-only edges.
var validTransitions = map[SequenceState][]SequenceState{
	Seen:          {Canonicalized, Rejected},
	Canonicalized: {Chunked, Rejected},
	Chunked:       {Anchored, DeltaEncoded, FullStored, Rejected},
	Anchored:      {Committed, Rejected},
	DeltaEncoded:  {Committed, Rejected},
	FullStored:    {Committed, Rejected},
	Committed:     nil,
	Rejected:      nil,
}

// CanTransition reports whether moving from -> to is a legal state machine
// edge.
func CanTransition(from, to SequenceState) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
