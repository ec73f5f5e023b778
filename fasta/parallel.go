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

package fasta

import (
	"bytes"
	"context"

	"golang.org/x/sync/errgroup"
)

// ParseBoundaryParallel splits plain (non-gzipped) FASTA content into
// worker chunk boundaries aligned to line-start '>' markers, parses each
// chunk concurrently, and returns records in input order (spec §6:
// "boundary-parallel parsing is permitted for plain files"). Gzipped input
// cannot be split this way and should go through NewParser instead.
func ParseBoundaryParallel(ctx context.Context, content []byte, workers int) ([]Record, error) {
	if workers < 1 {
		workers = 1
	}
	bounds := splitOnRecordBoundaries(content, workers)

	results := make([][]Record, len(bounds))
	g, gctx := errgroup.WithContext(ctx)
	for i, span := range bounds {
		i, span := i, span
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			p, err := NewParser(bytes.NewReader(span))
			if err != nil {
				return err
			}
			recs, err := parseAll(p)
			if err != nil {
				return err
			}
			results[i] = recs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []Record
	for _, recs := range results {
		out = append(out, recs...)
	}
	return out, nil
}

func parseAll(p *Parser) ([]Record, error) {
	var out []Record
	for {
		rec, err := p.Next()
		if err != nil {
			break
		}
		out = append(out, rec)
	}
	return out, nil
}

// splitOnRecordBoundaries divides content into pieces of at least
// len(content)/workers bytes (except the last), shifting each split point
// forward to the next line-start '>' so no record is torn across a
// boundary. The piece count is about workers and can exceed it by one.
func splitOnRecordBoundaries(content []byte, workers int) [][]byte {
	n := len(content)
	if n == 0 {
		return nil
	}
	target := n / workers
	if target == 0 {
		return [][]byte{content}
	}

	var bounds [][]byte
	start := 0
	for start < n {
		end := start + target
		if end >= n {
			bounds = append(bounds, content[start:n])
			break
		}
		end = nextRecordBoundary(content, end)
		if end <= start || end > n {
			end = n
		}
		bounds = append(bounds, content[start:end])
		start = end
	}
	return bounds
}

// nextRecordBoundary scans forward from pos to the next line beginning
// with '>', returning its offset (or len(content) if none found).
func nextRecordBoundary(content []byte, pos int) int {
	for i := pos; i < len(content); i++ {
		if content[i] == '>' && (i == 0 || content[i-1] == '\n') {
			return i
		}
	}
	return len(content)
}
