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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/talaria-bio/talaria/hash"
)

// TestDeltaEncodeDecode implements scenario S4: a single substitution at
// position 2 must survive a serialize-then-parse round trip and reproduce
// the child bytes exactly.
func TestDeltaEncodeDecode(t *testing.T) {
	ref := []byte("ACGTACGTACGT")
	child := []byte("ACATACGTACGT")

	ops := Diff(ref, child)
	require.Len(t, ops, 1)
	require.Equal(t, 2, ops[0].Start)
	require.Equal(t, 3, ops[0].End)
	require.Equal(t, "A", string(ops[0].Bytes))

	op := DeltaOperation{ChildID: hash.Of(child), RefID: hash.Of(ref), Ops: ops}
	wire := EncodeWire(op)
	parsed, err := DecodeWire(wire)
	require.NoError(t, err)
	require.Equal(t, op.ChildID, parsed.ChildID)
	require.Equal(t, op.RefID, parsed.RefID)

	reconstructed, err := Apply(ref, parsed.Ops)
	require.NoError(t, err)
	require.Equal(t, child, reconstructed)
}

// TestDeltaReversibilityProperty implements property P5 across a handful of
// reference/child pairs with varying numbers of substitutions.
func TestDeltaReversibilityProperty(t *testing.T) {
	cases := []struct{ ref, child string }{
		{"ACGTACGTACGT", "ACGTACGTACGT"},
		{"MKTAYIAKQRQISFVKSHFSRQ", "MKTAYIAKQRQISFVKSHFSRQ"},
		{"MKTAYIAKQRQISFVKSHFSRQ", "MKTAYIAKQRQISFVKAHFSRQ"},
		{"AAAAAAAAAA", "AAAABAAAAA"},
	}
	for _, c := range cases {
		ops := Diff([]byte(c.ref), []byte(c.child))
		got, err := Apply([]byte(c.ref), ops)
		require.NoError(t, err)
		require.Equal(t, c.child, string(got))
	}
}

func TestDeltaRejectedAboveMaxOpsThreshold(t *testing.T) {
	ref := []byte("AAAAAAAAAA")
	child := []byte("ABABABABAB")
	_, ok := BuildDeltaOperation(hash.Of(child), hash.Of(ref), ref, child, 1)
	require.False(t, ok, "many scattered substitutions should exceed a tight max-ops threshold")

	op, ok := BuildDeltaOperation(hash.Of(child), hash.Of(ref), ref, child, 100)
	require.True(t, ok)
	require.Equal(t, hash.Of(ref), op.RefID)
}

func TestWireEscapesSpecialCharacters(t *testing.T) {
	op := DeltaOperation{
		ChildID: hash.Of([]byte("child")),
		RefID:   hash.Of([]byte("ref")),
		Ops:     []RangeOp{{Start: 0, End: 3, Bytes: []byte("a\tb\\c")}},
	}
	wire := EncodeWire(op)
	parsed, err := DecodeWire(wire)
	require.NoError(t, err)
	require.Equal(t, "a\tb\\c", string(parsed.Ops[0].Bytes))
}

func TestWireDetectsLegacyFormat(t *testing.T) {
	// Legacy form omits reference_id: child_id \t range_op...
	childID := hash.Of([]byte("legacy-child"))
	line := childID.String() + "\t0,X"
	parsed, err := DecodeWire(line)
	require.NoError(t, err)
	require.Equal(t, childID, parsed.ChildID)
	require.True(t, parsed.RefID.IsEmpty())
	require.Len(t, parsed.Ops, 1)
}

func TestStateMachineTransitions(t *testing.T) {
	require.True(t, CanTransition(Seen, Canonicalized))
	require.True(t, CanTransition(Chunked, Anchored))
	require.True(t, CanTransition(DeltaEncoded, Committed))
	require.False(t, CanTransition(Committed, Seen))
	require.False(t, CanTransition(Seen, Committed))
}

func TestSelectReferencesProducesAnchorsAndChildren(t *testing.T) {
	nodes := []SequenceNode{
		{FSeq: fseqN(1), Bytes: []byte("MKTAYIAKQRQISFVKSHFSRQLEERLGLIEVQAPILSRVGDGTQDNLSGAEKAVQVKVKALPDAQFEVVHSLAKWKRQTLGQHDFSAGEGLYTHMKALRPDEDRLS")},
		{FSeq: fseqN(2), Bytes: []byte("MKTAYIAKQRQISFVKSHFSRQLEERLGLIEVQAPILSRVGDGTQDNLSGAEKAVQVKVKALPDAQFEVVHSLAKWKRQTLGQHDFSAGEGLYTHMKALRPDEDRLA")},
		{FSeq: fseqN(3), Bytes: []byte("ZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZ")},
	}
	cfg := DefaultReferenceSelectionConfig()
	cfg.ReferenceRatio = 0.34
	sel := Select(nodes, cfg, NewSimilarityCache())
	require.NotEmpty(t, sel.Anchors)
}

func fseqN(i byte) hash.F {
	var f hash.F
	f[0] = i
	return f
}
