/*
	Copyright 2023 Google Inc.

	Licensed under the Apache License, Version 2.0 (the "License");
	you may not use this file except in compliance with the License.
	You may obtain a copy of the License at

		https://www.apache.org/licenses/LICENSE-2.0

	Unless required by applicable law or agreed to in writing, software
	distributed under the License is distributed on an "AS IS" BASIS,
	WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
	See the License for the specific language governing permissions and
	limitations under the License.
*/

// Package scan finds, for every position of a large input, the longest run
// of bytes starting there that also starts earlier in the input.
//
// # Blocks and history
//
// A suffix tree over a whole multi-megabyte image would need gigabytes of
// nodes, so a Scanner cuts the input into blocks.  Each block is answered by
// its own suffix tree, built over the block plus up to `History` bytes that
// precede it.  A match therefore starts at most `History` bytes before its
// block, and never runs past the end of its block.  With a history at least
// as large as the input, and a single block, the results are exact longest
// previous matches.
//
// # The scan pipeline
//
// Blocks move through a three-stage software pipeline:
//   - blocks: a recycling producer hands out jobs, each owning a suffix tree
//     engine.  A retired job is always reused before a new one is made, so
//     the number of engines (and their node arenas, which are recycled across
//     builds) stays proportional to the pipeline's width, not the input.
//   - build: builds the block's tree and queries every position.  This stage
//     runs `Concurrency` instances.
//   - collect: copies the block's matches into the Result, then retires the
//     job back to the producer.
//
// Scan runs the pipeline in parallel.  Measure does the same while timing each
// stage, which helps choose `BlockSize` and `Concurrency`.  ScanSequential
// runs everything on the calling goroutine with a single engine.
//
// Blocks whose window is byte-for-byte identical to an earlier one (padding
// in ROM images is the usual case) are answered from a content-addressed
// cache without building a tree.
package scan

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/googlestaging/lpmatch/suffixtree"
)

// Scanner computes longest previous matches over inputs of any size.  A
// Scanner keeps its engines and block cache between scans, and is safe for
// concurrent use.
type Scanner struct {
	opts   *options
	cache  *blockCache
	logger *slog.Logger

	mu   sync.Mutex
	idle []*job

	// beforeBuild, when set, runs as each block enters the build stage; an
	// error stops the scan.
	beforeBuild func(block int) error
}

// New returns a Scanner configured by opts.
func New(opts ...Option) (*Scanner, error) {
	o, err := buildOptions(opts...)
	if err != nil {
		return nil, err
	}
	cache, err := newBlockCache(o.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating block cache: %w", err)
	}
	return &Scanner{
		opts:   o,
		cache:  cache,
		logger: o.logger.With("component", "scan"),
	}, nil
}

// Scan computes the matches of every position of data in parallel.
func (s *Scanner) Scan(ctx context.Context, data []byte) (*Result, error) {
	r := s.newRun(data)
	defer r.finish()
	if err := r.pipeline().do(ctx); err != nil {
		return nil, err
	}
	return r.result, nil
}

// Measure behaves like Scan, but also reports the time spent in each stage
// of the pipeline.  The Metrics are returned even when the scan fails.
func (s *Scanner) Measure(ctx context.Context, data []byte) (*Result, *Metrics, error) {
	r := s.newRun(data)
	defer r.finish()
	m, err := r.pipeline().measure(ctx)
	if err != nil {
		return nil, m, err
	}
	return r.result, m, nil
}

// ScanSequential behaves like Scan, but runs on the calling goroutine with a
// single engine.
func (s *Scanner) ScanSequential(ctx context.Context, data []byte) (*Result, error) {
	r := s.newRun(data)
	defer r.finish()
	if err := r.pipeline().sequentialDo(ctx); err != nil {
		return nil, err
	}
	return r.result, nil
}

// job is the work item moving through the pipeline: one block, and the
// engine that answers it.
type job struct {
	tree *suffixtree.Tree

	block int
	// The engine is built over [base, end); positions [begin, end) are
	// queried.
	base, begin, end int
	// matches has one entry per queried position, with starts relative to
	// base.
	matches []suffixtree.MatchInfo
	cached  bool
}

func (j *job) prepare(block, begin, blockSize, history, total int) {
	j.block = block
	j.begin = begin
	j.end = min(begin+blockSize, total)
	j.base = max(0, begin-history)
	j.matches = j.matches[:0]
	j.cached = false
}

// run is the state of a single scan.
type run struct {
	s      *Scanner
	data   []byte
	result *Result
	// pool holds idle jobs borrowed from the Scanner; jobs lists every job
	// this run used, to be handed back when it finishes.
	pool []*job
	jobs []*job
}

func (s *Scanner) newRun(data []byte) *run {
	s.mu.Lock()
	pool := s.idle
	s.idle = nil
	s.mu.Unlock()
	return &run{
		s:    s,
		data: data,
		pool: pool,
		result: &Result{
			Matches: make([]suffixtree.MatchInfo, len(data)),
		},
	}
}

func (r *run) finish() {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.idle = append(r.s.idle, r.jobs...)
	r.s.idle = append(r.s.idle, r.pool...)
}

func (r *run) pipeline() *pipeline {
	o := r.s.opts
	return newPipeline(
		newProducer(r.produce, stageOptions{
			name:            "blocks",
			concurrency:     1,
			inputBufferSize: o.inputBufferSize,
		}),
		newStage(r.build, stageOptions{
			name:            "build",
			concurrency:     o.concurrency,
			inputBufferSize: o.inputBufferSize,
		}),
		newStage(r.collect, stageOptions{
			name:            "collect",
			concurrency:     1,
			inputBufferSize: o.inputBufferSize,
		}),
	)
}

func (r *run) newJob() *job {
	var j *job
	if n := len(r.pool); n > 0 {
		j = r.pool[n-1]
		r.pool = r.pool[:n-1]
	} else {
		j = &job{tree: suffixtree.New()}
	}
	r.jobs = append(r.jobs, j)
	return j
}

func (r *run) produce(ctx context.Context, get func() (*job, bool), put func(*job)) error {
	o := r.s.opts
	for block, begin := 0, 0; begin < len(r.data); block, begin = block+1, begin+o.blockSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		j, ok := get()
		if !ok {
			j = r.newJob()
		}
		j.prepare(block, begin, o.blockSize, o.history, len(r.data))
		put(j)
	}
	return nil
}

func (r *run) build(ctx context.Context, j *job) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.s.beforeBuild != nil {
		if err := r.s.beforeBuild(j.block); err != nil {
			return err
		}
	}
	var key blockKey
	cache := r.s.cache
	if cache != nil {
		key = newBlockKey(r.data[j.base:j.end], j.begin-j.base)
		if matches, ok := cache.get(key); ok {
			j.matches = append(j.matches, matches...)
			j.cached = true
			return nil
		}
	}

	start := time.Now()
	if err := j.tree.BuildRange(r.data, j.base, j.end-j.base); err != nil {
		return fmt.Errorf("building block %d: %w", j.block, err)
	}
	for i := j.begin - j.base; i < j.end-j.base; i++ {
		m, err := j.tree.LongestPreviousMatch(i)
		if err != nil {
			return fmt.Errorf("querying block %d at %d: %w", j.block, j.base+i, err)
		}
		j.matches = append(j.matches, m)
	}
	blockBuildDuration.Observe(time.Since(start).Seconds())
	arenaNodes.Set(float64(j.tree.Stats().Capacity))

	if cache != nil {
		cache.add(key, j.matches)
	}
	return nil
}

// collect runs as a single instance, so it owns the Result.
func (r *run) collect(_ context.Context, j *job) error {
	out := r.result.Matches[j.begin:j.end]
	matched := 0
	for i, m := range j.matches {
		if m.Length > 0 {
			m.Start += j.base
			matched++
		}
		out[i] = m
	}
	r.result.Blocks++
	blocksScanned.Inc()
	positionsMatched.Add(float64(matched))
	if j.cached {
		r.result.CacheHits++
		blockCacheHits.Inc()
	}
	r.s.logger.Debug("block scanned",
		"block", j.block,
		"offset", j.begin,
		"size", j.end-j.begin,
		"matched", matched,
		"cached", j.cached)
	return nil
}
