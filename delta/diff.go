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
	"bytes"

	"github.com/pkg/errors"

	"github.com/talaria-bio/talaria/errkind"
	"github.com/talaria-bio/talaria/hash"
)

// Diff trims the common prefix and suffix of ref and child and diffs the
// remaining middle region, compressing consecutive substituted positions
// into range operations. An equal-length middle is diffed
// position-by-position; a middle whose lengths differ is expressed as a
// single replacing range op. No sequence alignment is run, so indels inside
// the middle region are not located individually.
func Diff(ref, child []byte) []RangeOp {
	commonPrefix := 0
	for commonPrefix < len(ref) && commonPrefix < len(child) && ref[commonPrefix] == child[commonPrefix] {
		commonPrefix++
	}
	commonSuffix := 0
	for commonSuffix < len(ref)-commonPrefix && commonSuffix < len(child)-commonPrefix &&
		ref[len(ref)-1-commonSuffix] == child[len(child)-1-commonSuffix] {
		commonSuffix++
	}

	refMid := ref[commonPrefix : len(ref)-commonSuffix]
	childMid := child[commonPrefix : len(child)-commonSuffix]

	if len(refMid) == 0 && len(childMid) == 0 {
		return nil
	}

	if len(refMid) == len(childMid) {
		return diffEqualLength(refMid, childMid, commonPrefix)
	}

	// Differing lengths in the middle region: one range op replaces it
	// wholesale; this is still correct (Apply reconstructs exactly), just
	// not maximally compact for indels far from close-homolog substitutions.
	return []RangeOp{{Start: commonPrefix, End: commonPrefix + len(refMid), Bytes: append([]byte(nil), childMid...)}}
}

// diffEqualLength walks two equal-length byte runs and compresses runs of
// substituted positions into single range ops.
func diffEqualLength(ref, child []byte, offset int) []RangeOp {
	var ops []RangeOp
	i := 0
	for i < len(ref) {
		if ref[i] == child[i] {
			i++
			continue
		}
		start := i
		var buf bytes.Buffer
		for i < len(ref) && ref[i] != child[i] {
			buf.WriteByte(child[i])
			i++
		}
		ops = append(ops, RangeOp{Start: offset + start, End: offset + i, Bytes: buf.Bytes()})
	}
	return ops
}

// Apply reconstructs a child's bytes from ref and ops.
func Apply(ref []byte, ops []RangeOp) ([]byte, error) {
	out := make([]byte, 0, len(ref))
	cursor := 0
	for _, op := range ops {
		if op.Start < cursor || op.End > len(ref) || op.Start > op.End {
			return nil, errors.Wrapf(errkind.ParseError, "range op [%d,%d) out of order or out of bounds for reference of length %d", op.Start, op.End, len(ref))
		}
		out = append(out, ref[cursor:op.Start]...)
		out = append(out, op.Bytes...)
		cursor = op.End
	}
	out = append(out, ref[cursor:]...)
	return out, nil
}

// BuildDeltaOperation diffs child against ref and rejects the delta (per
// spec §4.6.2 step 2) when the op count exceeds maxOps; callers should then
// store the sequence as a full sequence instead.
func BuildDeltaOperation(childID, refID hash.F, ref, child []byte, maxOps int) (DeltaOperation, bool) {
	ops := Diff(ref, child)
	if len(ops) > maxOps {
		return DeltaOperation{}, false
	}
	return DeltaOperation{ChildID: childID, RefID: refID, Ops: ops}, true
}
