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

import "github.com/RoaringBitmap/roaring/v2"

// TaxonSet is a compressed membership set over TaxonID, used wherever a
// large taxonomy snapshot's known ids need to be checked against a chunk's
// references (the known-taxa check in verify.Consistency) without holding
// a full Go map per run.
type TaxonSet struct {
	bits *roaring.Bitmap
}

func NewTaxonSet() *TaxonSet {
	return &TaxonSet{bits: roaring.New()}
}

// TaxonSetFrom builds a TaxonSet from a slice of ids, e.g. every taxon id
// present in a taxonomy snapshot.
func TaxonSetFrom(ids []TaxonID) *TaxonSet {
	s := NewTaxonSet()
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

func (s *TaxonSet) Add(id TaxonID) {
	s.bits.Add(uint32(id))
}

func (s *TaxonSet) Has(id TaxonID) bool {
	return s.bits.Contains(uint32(id))
}

func (s *TaxonSet) Len() uint64 {
	return s.bits.GetCardinality()
}

// Union returns a new TaxonSet containing every id in s or other.
func (s *TaxonSet) Union(other *TaxonSet) *TaxonSet {
	return &TaxonSet{bits: roaring.Or(s.bits, other.bits)}
}

// ToSlice returns every member id in ascending order.
func (s *TaxonSet) ToSlice() []TaxonID {
	raw := s.bits.ToArray()
	out := make([]TaxonID, len(raw))
	for i, v := range raw {
		out[i] = TaxonID(v)
	}
	return out
}
