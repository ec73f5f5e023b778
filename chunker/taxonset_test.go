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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTaxonSetMembership(t *testing.T) {
	s := TaxonSetFrom([]TaxonID{9606, 10090, 7227})
	require.True(t, s.Has(9606))
	require.False(t, s.Has(9605))
	require.Equal(t, uint64(3), s.Len())
}

func TestTaxonSetUnion(t *testing.T) {
	a := TaxonSetFrom([]TaxonID{1, 2, 3})
	b := TaxonSetFrom([]TaxonID{3, 4})
	u := a.Union(b)
	require.ElementsMatch(t, []TaxonID{1, 2, 3, 4}, u.ToSlice())
}
