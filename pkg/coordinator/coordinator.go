// Slotswap
// Copyright (c) 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Slotswap.
//
// Slotswap is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Slotswap is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Slotswap.  If not, see <http://www.gnu.org/licenses/>.

// Package coordinator owns a swap run: it builds the shared buffer and slot
// table, spawns the workers, waits for them and validates the result.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/ZaparooProject/slotswap/pkg/buffer"
	"github.com/ZaparooProject/slotswap/pkg/helpers/syncutil"
	"github.com/ZaparooProject/slotswap/pkg/report"
	"github.com/ZaparooProject/slotswap/pkg/slots"
	"github.com/ZaparooProject/slotswap/pkg/swapper"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

var (
	ErrNotInitialized  = errors.New("coordinator not initialized")
	ErrAlreadyStarted  = errors.New("workers already spawned")
	ErrNotSpawned      = errors.New("no workers spawned")
	ErrInvalidWorkers  = errors.New("worker count must be at least 1")
	ErrInvalidSchedule = errors.New("iterations and delay must not be negative")
)

// LockLifecycleError reports a slot table that could not be torn down.
type LockLifecycleError struct {
	Err error
}

func (e *LockLifecycleError) Error() string {
	return "slot table teardown failed: " + e.Err.Error()
}

func (e *LockLifecycleError) Unwrap() error {
	return e.Err
}

// Result describes a finished run.
type Result struct {
	Final        []int
	Stats        swapper.Stats
	Elapsed      time.Duration
	Acquisitions int64
	Contended    int64
	Violations   int64
	Workers      int
	Correct      bool
	Permutation  bool
}

type Option func(*Coordinator)

func WithClock(clock clockwork.Clock) Option {
	return func(c *Coordinator) { c.clock = clock }
}

// WithPrinter routes lock creation and per-swap lines to p.
func WithPrinter(p *report.Printer) Option {
	return func(c *Coordinator) { c.printer = p }
}

func WithAcquirer(a swapper.Acquirer) Option {
	return func(c *Coordinator) { c.acquirer = a }
}

// WithInstrumentation enables slot holder tracking.
func WithInstrumentation() Option {
	return func(c *Coordinator) { c.instrument = true }
}

// WithSwapRate caps the combined swap rate of all workers. 0 is unlimited.
func WithSwapRate(perSecond float64) Option {
	return func(c *Coordinator) {
		if perSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// WithSeed makes slot selection reproducible per worker. 0 keeps it random.
func WithSeed(seed uint64) Option {
	return func(c *Coordinator) { c.seed = seed }
}

type Coordinator struct {
	start    time.Time
	clock    clockwork.Clock
	printer  *report.Printer
	acquirer swapper.Acquirer
	limiter  *rate.Limiter
	buf      *buffer.Buffer
	table    *slots.Table
	group    *errgroup.Group
	stats    swapper.Stats
	elapsed  time.Duration
	joinErr  error
	seed     uint64
	workers  int
	statsMu  syncutil.Mutex

	joined     bool
	instrument bool
}

func New(opts ...Option) *Coordinator {
	c := &Coordinator{
		clock:    clockwork.NewRealClock(),
		acquirer: swapper.Backoff{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Initialize allocates the shared buffer and its slot table.
func (c *Coordinator) Initialize(bufferSize int) error {
	if c.group != nil {
		return ErrAlreadyStarted
	}

	buf, err := buffer.New(bufferSize)
	if err != nil {
		return fmt.Errorf("failed to allocate buffer: %w", err)
	}

	var opts []slots.Option
	if c.instrument {
		opts = append(opts, slots.WithInstrumentation())
	}
	if c.printer != nil {
		opts = append(opts, slots.WithOnCreate(c.printer.MutexCreated))
	}
	table, err := slots.New(bufferSize, opts...)
	if err != nil {
		return fmt.Errorf("failed to create slot table: %w", err)
	}

	c.buf = buf
	c.table = table
	log.Info().Msgf("initialized buffer of %d slots", bufferSize)
	return nil
}

// Buffer returns the shared buffer. Its contents may only be read directly
// before Spawn or after JoinAll.
func (c *Coordinator) Buffer() *buffer.Buffer {
	return c.buf
}

// Spawn starts numWorkers workers, each performing iterationsEach swaps.
// Every worker is built before the first one starts.
func (c *Coordinator) Spawn(numWorkers, iterationsEach int, delay time.Duration) error {
	switch {
	case c.buf == nil:
		return ErrNotInitialized
	case c.group != nil:
		return ErrAlreadyStarted
	case numWorkers < 1:
		return fmt.Errorf("%w: got %d", ErrInvalidWorkers, numWorkers)
	case iterationsEach < 0 || delay < 0:
		return ErrInvalidSchedule
	}

	var swapFn swapper.SwapFunc
	if c.printer != nil {
		swapFn = c.printer.Swap
	}

	workers := make([]*swapper.Worker, numWorkers)
	for id := range numWorkers {
		task := swapper.Task{
			Buffer:     c.buf,
			Slots:      c.table,
			Acquirer:   c.acquirer,
			Clock:      c.clock,
			Limiter:    c.limiter,
			OnSwap:     swapFn,
			ID:         id,
			Iterations: iterationsEach,
			Delay:      delay,
		}
		if c.seed != 0 {
			//nolint:gosec // reproducible slot selection, not crypto
			task.Rand = rand.New(rand.NewPCG(c.seed, uint64(id)))
		}

		w, err := swapper.New(task)
		if err != nil {
			return fmt.Errorf("failed to create worker %d: %w", id, err)
		}
		workers[id] = w
	}

	log.Info().Msgf("spawning %d workers, %d iterations each, delay %s", numWorkers, iterationsEach, delay)

	g, ctx := errgroup.WithContext(context.Background())
	c.group = g
	c.workers = numWorkers
	c.start = c.clock.Now()

	for _, w := range workers {
		g.Go(func() error {
			stats, err := w.Run(ctx)
			c.statsMu.Lock()
			c.stats.Add(stats)
			c.statsMu.Unlock()
			return err
		})
	}
	return nil
}

// JoinAll blocks until every spawned worker has returned, then tears down
// the slot table. Later calls return the same result and error.
func (c *Coordinator) JoinAll() (Result, error) {
	if c.group == nil {
		return Result{}, ErrNotSpawned
	}
	if c.joined {
		return c.result(), c.joinErr
	}

	werr := c.group.Wait()
	c.elapsed = c.clock.Since(c.start)
	c.joined = true

	if werr != nil {
		log.Error().Err(werr).Msg("worker failed")
	}

	if err := c.table.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close slot table")
		c.joinErr = &LockLifecycleError{Err: err}
		return c.result(), c.joinErr
	}

	res := c.result()
	log.Info().
		Dur("elapsed", res.Elapsed).
		Int("swaps", res.Stats.Swaps).
		Int("backoffRetries", res.Stats.BackoffRetries).
		Bool("correct", res.Correct).
		Msg("all workers joined")

	if werr != nil {
		c.joinErr = fmt.Errorf("worker failed: %w", werr)
	}
	return res, c.joinErr
}

func (c *Coordinator) result() Result {
	c.statsMu.Lock()
	stats := c.stats
	c.statsMu.Unlock()

	return Result{
		Final:        c.buf.Snapshot(),
		Stats:        stats,
		Elapsed:      c.elapsed,
		Acquisitions: c.table.Acquisitions(),
		Contended:    c.table.Contended(),
		Violations:   c.table.Violations(),
		Workers:      c.workers,
		Correct:      c.Validate(),
		Permutation:  c.ValidatePermutation(),
	}
}

// Validate compares the buffer sum against N*(N-1)/2. It is only meaningful
// after JoinAll and returns false before that.
func (c *Coordinator) Validate() bool {
	if !c.joined {
		log.Warn().Msg("validate called before workers were joined")
		return false
	}
	return c.buf.Sum() == c.buf.ExpectedSum()
}

// ValidatePermutation is the strict check: every initial value present
// exactly once.
func (c *Coordinator) ValidatePermutation() bool {
	if !c.joined {
		return false
	}
	return c.buf.IsPermutation()
}
