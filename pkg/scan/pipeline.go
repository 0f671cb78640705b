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

package scan

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// producerFn originates jobs.  It should take a retired job from `get` when
// one is available, only creating a new job when `get` returns false, and
// send each prepared job down the pipeline with `put`.
type producerFn func(ctx context.Context, get func() (*job, bool), put func(*job)) error

// stageFn works on a single job.  A non-nil error terminates the pipeline.
type stageFn func(ctx context.Context, j *job) error

type stageOptions struct {
	name            string
	concurrency     uint
	inputBufferSize uint
}

// StageMetrics is the performance of one instance of a pipeline stage.
type StageMetrics struct {
	StageName                   string
	StageInstance               uint
	WorkDuration, StageDuration time.Duration
	Items                       uint
}

func (sm *StageMetrics) label() string {
	return fmt.Sprintf("%s (%d)", sm.StageName, sm.StageInstance)
}

func (sm *StageMetrics) detailRow(labelCols int) string {
	row := fmt.Sprintf("%-*s: %d blocks, total %s, work %s", labelCols, sm.label(), sm.Items, sm.StageDuration, sm.WorkDuration)
	if sm.Items > 0 {
		row += fmt.Sprintf(" (%s/block)", sm.WorkDuration/time.Duration(sm.Items))
	}
	return row
}

// Metrics is the performance of a whole scan, broken down by stage.
type Metrics struct {
	WallDuration    time.Duration
	ProducerMetrics []*StageMetrics
	StageMetrics    [][]*StageMetrics
}

func (pm *Metrics) String() string {
	if pm == nil {
		return ""
	}
	all := append([]*StageMetrics{}, pm.ProducerMetrics...)
	for _, stageMetrics := range pm.StageMetrics {
		all = append(all, stageMetrics...)
	}
	labelCols := 0
	for _, sm := range all {
		labelCols = max(labelCols, len(sm.label()))
	}
	ret := []string{fmt.Sprintf("Scan wall time: %s", pm.WallDuration)}
	for _, sm := range all {
		ret = append(ret, "  "+sm.detailRow(labelCols))
	}
	return strings.Join(ret, "\n")
}

// commonStage holds what producers and stages share.
type commonStage struct {
	opts stageOptions
	// For stages, the incoming jobs; for the producer, retired jobs coming
	// back for reuse.
	inCh  chan *job
	outCh chan<- *job
}

// outputChannelCloser returns a function which closes the output channel
// once every instance of the stage has called it.
func (cs *commonStage) outputChannelCloser() func() {
	instances := cs.opts.concurrency
	var mu sync.Mutex
	return func() {
		mu.Lock()
		defer mu.Unlock()
		instances--
		if instances == 0 {
			close(cs.outCh)
		}
	}
}

func (cs *commonStage) concurrency() uint {
	return cs.opts.concurrency
}

func (cs *commonStage) name() string {
	return cs.opts.name
}

// exhaustInput drains the input channel so upstream senders never block on
// a stage that has stopped.
func (cs *commonStage) exhaustInput() {
	for range cs.inCh {
	}
}

type producer struct {
	commonStage
	fn producerFn
}

func newProducer(fn producerFn, opts stageOptions) *producer {
	return &producer{
		commonStage: commonStage{
			opts: opts,
			inCh: make(chan *job, opts.inputBufferSize),
		},
		fn: fn,
	}
}

// get is a nonblocking fetch of a retired job.
func (p *producer) get() (*job, bool) {
	select {
	case j, ok := <-p.inCh:
		return j, ok
	default:
		return nil, false
	}
}

func (p *producer) do(ctx context.Context) error {
	return p.fn(ctx, p.get, func(j *job) {
		p.outCh <- j
	})
}

// measure is do, also reporting how many jobs were produced, the time spent
// producing them (excluding time in get and put), and the overall time.
func (p *producer) measure(ctx context.Context) (items uint, workDuration, stageDuration time.Duration, err error) {
	start := time.Now()
	var frameworkDuration time.Duration
	err = p.fn(ctx, func() (*job, bool) {
		start := time.Now()
		defer func() { frameworkDuration += time.Since(start) }()
		return p.get()
	}, func(j *job) {
		start := time.Now()
		items++
		p.outCh <- j
		frameworkDuration += time.Since(start)
	})
	stageDuration = time.Since(start)
	return items, stageDuration - frameworkDuration, stageDuration, err
}

type stage struct {
	commonStage
	fn stageFn
}

func newStage(fn stageFn, opts stageOptions) *stage {
	return &stage{
		commonStage: commonStage{
			opts: opts,
			inCh: make(chan *job, opts.inputBufferSize),
		},
		fn: fn,
	}
}

// doOne works on the next job, returning false once the input is closed.
func (s *stage) doOne(ctx context.Context) (ok bool, workDuration time.Duration, err error) {
	j, ok := <-s.inCh
	if !ok {
		return false, 0, nil
	}
	start := time.Now()
	err = s.fn(ctx, j)
	workDuration = time.Since(start)
	if err == nil {
		s.outCh <- j
	}
	return true, workDuration, err
}

func (s *stage) do(ctx context.Context) error {
	_, _, _, err := s.measure(ctx)
	return err
}

func (s *stage) measure(ctx context.Context) (items uint, workDuration, stageDuration time.Duration, err error) {
	start := time.Now()
	for {
		var (
			ok  bool
			dur time.Duration
		)
		ok, dur, err = s.doOne(ctx)
		workDuration += dur
		if !ok || err != nil {
			return items, workDuration, time.Since(start), err
		}
		items++
	}
}

// pipeline is a producer followed by stages, with the last stage feeding
// retired jobs back to the producer.
type pipeline struct {
	producer *producer
	stages   []*stage
}

func newPipeline(p *producer, stages ...*stage) *pipeline {
	p.outCh = stages[0].inCh
	last := stages[0]
	for _, s := range stages[1:] {
		last.outCh = s.inCh
		last = s
	}
	last.outCh = p.inCh
	return &pipeline{
		producer: p,
		stages:   stages,
	}
}

type doer interface {
	outputChannelCloser() func()
	concurrency() uint
	name() string
	exhaustInput()
	do(ctx context.Context) error
	measure(ctx context.Context) (items uint, workDuration, stageDuration time.Duration, err error)
}

func launch(ctx context.Context, eg *errgroup.Group, d doer) {
	closeOutputChannel := d.outputChannelCloser()
	for i := uint(0); i < d.concurrency(); i++ {
		eg.Go(func() error {
			err := d.do(ctx)
			closeOutputChannel()
			d.exhaustInput()
			return err
		})
	}
}

// launchMeasured is launch, also filling in a StageMetrics per instance.  The
// metrics are only valid once eg.Wait returns.
func launchMeasured(ctx context.Context, eg *errgroup.Group, d doer) []*StageMetrics {
	ret := make([]*StageMetrics, d.concurrency())
	closeOutputChannel := d.outputChannelCloser()
	for i := uint(0); i < d.concurrency(); i++ {
		sm := &StageMetrics{
			StageName:     d.name(),
			StageInstance: i,
		}
		ret[i] = sm
		eg.Go(func() error {
			var err error
			sm.Items, sm.WorkDuration, sm.StageDuration, err = d.measure(ctx)
			begin := time.Now()
			closeOutputChannel()
			d.exhaustInput()
			sm.StageDuration += time.Since(begin)
			return err
		})
	}
	return ret
}

func (p *pipeline) do(ctx context.Context) error {
	eg, ctx := errgroup.WithContext(ctx)
	launch(ctx, eg, p.producer)
	for _, s := range p.stages {
		launch(ctx, eg, s)
	}
	return eg.Wait()
}

func (p *pipeline) measure(ctx context.Context) (*Metrics, error) {
	begin := time.Now()
	eg, ctx := errgroup.WithContext(ctx)
	ret := &Metrics{
		ProducerMetrics: launchMeasured(ctx, eg, p.producer),
		StageMetrics:    make([][]*StageMetrics, len(p.stages)),
	}
	for idx, s := range p.stages {
		ret.StageMetrics[idx] = launchMeasured(ctx, eg, s)
	}
	err := eg.Wait()
	ret.WallDuration = time.Since(begin)
	return ret, err
}

// sequentialDo runs every job through every stage on the calling goroutine,
// recycling the single job in flight.
func (p *pipeline) sequentialDo(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	var (
		err     error
		pending *job
	)
	producerErr := p.producer.fn(ctx,
		func() (*job, bool) {
			return pending, pending != nil
		},
		func(j *job) {
			pending = j
			if err != nil {
				return
			}
			for _, s := range p.stages {
				if err = s.fn(ctx, j); err != nil {
					// Stops the producer at its next block.
					cancel()
					return
				}
			}
		})
	if err != nil {
		return err
	}
	return producerErr
}
