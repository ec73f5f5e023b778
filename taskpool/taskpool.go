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

// Package taskpool bounds CPU-bound fan-out (hashing, chunking, similarity
// scoring, delta generation) to a fixed concurrency. Go's goroutine
// scheduler already work-steals across Ms and Ps, so a weighted semaphore
// plus errgroup achieves bounded parallelism idiomatically, without
// reimplementing a scheduler.
package taskpool

import (
	"context"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Pool runs CPU-bound work items with at most Size concurrently in flight.
type Pool struct {
	sem *semaphore.Weighted
}

// New returns a Pool bounded to size concurrent tasks. A size <= 0 means
// unbounded (useful for tests).
func New(size int) *Pool {
	if size <= 0 {
		return &Pool{}
	}
	return &Pool{sem: semaphore.NewWeighted(int64(size))}
}

// Run executes fn for every item in items, bounded by the pool's size,
// stopping at the first error (spec: "long-running CPU loops periodically
// yield" — fn is expected to check ctx itself for cancellation).
func (p *Pool) Run(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		i := i
		if p.sem != nil {
			if err := p.sem.Acquire(gctx, 1); err != nil {
				if werr := g.Wait(); werr != nil {
					return werr
				}
				return err
			}
		}
		g.Go(func() error {
			if p.sem != nil {
				defer p.sem.Release(1)
			}
			return fn(gctx, i)
		})
	}
	return g.Wait()
}

// Map runs fn over items concurrently, bounded by the pool's size, and
// collects results in input order. The first error aborts remaining work
// and is returned; results past that point are undefined.
func Map[T any, R any](ctx context.Context, p *Pool, items []T, fn func(ctx context.Context, item T) (R, error)) ([]R, error) {
	results := make([]R, len(items))
	err := p.Run(ctx, len(items), func(ctx context.Context, i int) error {
		r, err := fn(ctx, items[i])
		if err != nil {
			return err
		}
		results[i] = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}
