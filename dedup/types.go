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

// Package dedup implements the sequence-level deduplication layer (spec C3):
// a canonical sequence table plus, per canonical, the set of surface
// representations it was observed under. Records are persisted through the
// MetaStore interface (in-memory or bbolt-backed).
package dedup

import (
	"time"

	"github.com/talaria-bio/talaria/hash"
)

// SequenceType distinguishes the two alphabets Talaria stores.
type SequenceType int

const (
	Unknown SequenceType = iota
	DNA
	Protein
)

func (t SequenceType) String() string {
	switch t {
	case DNA:
		return "DNA"
	case Protein:
		return "Protein"
	default:
		return "Unknown"
	}
}

// CanonicalSequence is the immutable byte content of a sequence, addressed
// by the hash of those bytes.
type CanonicalSequence struct {
	FSeq         hash.F       `json:"f_seq"`
	Bytes        []byte       `json:"bytes"`
	Length       int          `json:"length"`
	SequenceType SequenceType `json:"sequence_type"`
	FirstSeen    time.Time    `json:"first_seen"`
	LastSeen     time.Time    `json:"last_seen"`
}

// Representation is an observed surface form of a canonical sequence in some
// source database.
type Representation struct {
	Source      string            `json:"source"`
	Header      string            `json:"header"`
	Accessions  []string          `json:"accessions"`
	Description string            `json:"description,omitempty"`
	TaxonID     uint32            `json:"taxon_id,omitempty"`
	HasTaxonID  bool              `json:"has_taxon_id,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	LastSeen    time.Time         `json:"last_seen"`
}

// key identifies a Representation for deduplication: (source, header,
// accessions) per spec C3 — "appended on observation ... deduplicated by
// (source, header, accessions)".
func (r Representation) key() string {
	s := r.Source + "\x00" + r.Header
	for _, a := range r.Accessions {
		s += "\x00" + a
	}
	return s
}

// SequenceRepresentations is the per-canonical record of every
// Representation a canonical sequence has been observed under.
type SequenceRepresentations struct {
	FSeq hash.F                     `json:"f_seq"`
	Reps map[string]Representation `json:"reps"`
}

// NewSequenceRepresentations returns an empty record for f.
func NewSequenceRepresentations(f hash.F) SequenceRepresentations {
	return SequenceRepresentations{FSeq: f, Reps: map[string]Representation{}}
}

// Add inserts or refreshes r, deduplicated by (source, header, accessions);
// last_seen is always advanced to r.LastSeen.
func (s *SequenceRepresentations) Add(r Representation) {
	s.Reps[r.key()] = r
}

// Slice returns the representations as a plain slice, order unspecified.
func (s SequenceRepresentations) Slice() []Representation {
	out := make([]Representation, 0, len(s.Reps))
	for _, r := range s.Reps {
		out = append(out, r)
	}
	return out
}

// Item is one input to StoreBatch.
type Item struct {
	Bytes  []byte
	Header string
	Source string
}
