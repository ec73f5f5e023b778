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
	"compress/gzip"

	"github.com/talaria-bio/talaria/hash"
)

// DeltaChunk batches accepted delta operations bounded by max_chunk_size and
// target_sequences_per_chunk (spec §4.6.2 step 3).
type DeltaChunk struct {
	FRef             hash.F
	Operations       []DeltaOperation
	CompressionRatio float64
}

// BatchConfig bounds DeltaChunk construction.
type BatchConfig struct {
	MaxChunkSize            int
	TargetSequencesPerChunk int
}

// BatchDeltas groups ops sharing the same RefID into size/count-bounded
// DeltaChunks, recording compression_ratio per spec §4.6.2 step 4.
func BatchDeltas(ops []DeltaOperation, cfg BatchConfig) []DeltaChunk {
	byRef := make(map[hash.F][]DeltaOperation)
	var order []hash.F
	for _, op := range ops {
		if _, ok := byRef[op.RefID]; !ok {
			order = append(order, op.RefID)
		}
		byRef[op.RefID] = append(byRef[op.RefID], op)
	}

	var chunks []DeltaChunk
	for _, ref := range order {
		group := byRef[ref]
		var cur []DeltaOperation
		curSize := 0
		flush := func() {
			if len(cur) == 0 {
				return
			}
			chunks = append(chunks, buildDeltaChunk(ref, cur))
			cur = nil
			curSize = 0
		}
		for _, op := range group {
			opSize := wireSize(op)
			if (curSize+opSize > cfg.MaxChunkSize || len(cur) >= cfg.TargetSequencesPerChunk) && len(cur) > 0 {
				flush()
			}
			cur = append(cur, op)
			curSize += opSize
		}
		flush()
	}
	return chunks
}

func wireSize(op DeltaOperation) int {
	return len(EncodeWire(op))
}

func buildDeltaChunk(ref hash.F, ops []DeltaOperation) DeltaChunk {
	var raw bytes.Buffer
	for _, op := range ops {
		raw.WriteString(EncodeWire(op))
		raw.WriteByte('\n')
	}

	var compressed bytes.Buffer
	gw := gzip.NewWriter(&compressed)
	gw.Write(raw.Bytes())
	gw.Close()

	ratio := 1.0
	if raw.Len() > 0 {
		ratio = float64(compressed.Len()) / float64(raw.Len())
	}
	return DeltaChunk{FRef: ref, Operations: ops, CompressionRatio: ratio}
}
