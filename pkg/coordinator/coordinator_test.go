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

package coordinator

import (
	"errors"
	"testing"
	"time"

	"github.com/ZaparooProject/slotswap/pkg/buffer"
	"github.com/ZaparooProject/slotswap/pkg/slots"
	"github.com/ZaparooProject/slotswap/pkg/swapper"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"pgregory.net/rapid"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// joinWithin fails the test if JoinAll does not return within timeout.
func joinWithin(t *testing.T, c *Coordinator, timeout time.Duration) Result {
	t.Helper()

	type joined struct {
		err error
		res Result
	}
	done := make(chan joined, 1)
	go func() {
		res, err := c.JoinAll()
		done <- joined{res: res, err: err}
	}()

	select {
	case j := <-done:
		require.NoError(t, j.err)
		return j.res
	case <-time.After(timeout):
		t.Fatal("JoinAll did not return, probable deadlock")
	}
	return Result{}
}

func TestLifecycleErrors(t *testing.T) {
	t.Parallel()

	c := New()
	require.ErrorIs(t, c.Spawn(1, 1, 0), ErrNotInitialized)

	_, err := c.JoinAll()
	require.ErrorIs(t, err, ErrNotSpawned)

	require.ErrorIs(t, c.Initialize(0), buffer.ErrInvalidSize)
	require.NoError(t, c.Initialize(3))

	require.ErrorIs(t, c.Spawn(0, 1, 0), ErrInvalidWorkers)
	require.ErrorIs(t, c.Spawn(1, -1, 0), ErrInvalidSchedule)
	require.ErrorIs(t, c.Spawn(1, 1, -time.Second), ErrInvalidSchedule)

	assert.False(t, c.Validate(), "validate before join must not pass")

	require.NoError(t, c.Spawn(2, 10, 0))
	require.ErrorIs(t, c.Spawn(2, 10, 0), ErrAlreadyStarted)
	require.ErrorIs(t, c.Initialize(3), ErrAlreadyStarted)

	res := joinWithin(t, c, 10*time.Second)
	assert.True(t, res.Correct)

	// a second join returns the same result without blocking
	again, err := c.JoinAll()
	require.NoError(t, err)
	assert.Equal(t, res.Final, again.Final)
}

func TestScenarios(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		acquirer   swapper.Acquirer
		size       int
		workers    int
		iterations int
		delay      time.Duration
	}{
		{name: "defaults without delay", size: 10, workers: 10, iterations: 100},
		{name: "two slots two workers with delay", size: 2, workers: 2, iterations: 1000, delay: time.Microsecond},
		{name: "single slot", size: 1, workers: 4, iterations: 200, delay: time.Microsecond},
		{name: "more workers than slots", size: 3, workers: 16, iterations: 200},
		{name: "ordered strategy", acquirer: swapper.Ordered{}, size: 5, workers: 8, iterations: 300},
		{name: "zero iterations", size: 4, workers: 3, iterations: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			opts := []Option{WithInstrumentation()}
			if tt.acquirer != nil {
				opts = append(opts, WithAcquirer(tt.acquirer))
			}
			c := New(opts...)
			require.NoError(t, c.Initialize(tt.size))
			require.NoError(t, c.Spawn(tt.workers, tt.iterations, tt.delay))

			res := joinWithin(t, c, 60*time.Second)

			assert.True(t, res.Correct)
			assert.True(t, res.Permutation)
			assert.True(t, c.Validate())
			assert.Equal(t, buffer.ExpectedSum(tt.size), c.Buffer().Sum())
			assert.Equal(t, tt.workers*tt.iterations, res.Stats.Swaps)
			assert.Equal(t, tt.workers, res.Workers)
			assert.Zero(t, res.Violations)
			if tt.size == 1 {
				assert.Equal(t, []int{0}, res.Final)
				assert.Equal(t, res.Stats.Swaps, res.Stats.IdentitySwaps)
			}
		})
	}
}

func TestElapsedUsesClock(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	c := New(WithClock(clock))
	require.NoError(t, c.Initialize(4))
	require.NoError(t, c.Spawn(2, 50, 0))

	clock.Advance(3 * time.Second)

	res := joinWithin(t, c, 10*time.Second)
	assert.Equal(t, 3*time.Second, res.Elapsed)
}

func TestSeedIsReproducible(t *testing.T) {
	t.Parallel()

	run := func() []int {
		c := New(WithSeed(42))
		require.NoError(t, c.Initialize(8))
		require.NoError(t, c.Spawn(1, 500, 0))
		return joinWithin(t, c, 10*time.Second).Final
	}

	first := run()
	assert.Equal(t, first, run())
}

func TestSwapRate(t *testing.T) {
	t.Parallel()

	c := New(WithSwapRate(100_000))
	require.NoError(t, c.Initialize(5))
	require.NoError(t, c.Spawn(4, 25, 0))

	res := joinWithin(t, c, 30*time.Second)
	assert.True(t, res.Correct)
	assert.Equal(t, 100, res.Stats.Swaps)
}

func TestJoinAll_HeldSlotFailsTeardownEveryTime(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opts []Option
	}{
		{name: "plain"},
		{name: "instrumented", opts: []Option{WithInstrumentation()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := New(tt.opts...)
			require.NoError(t, c.Initialize(3))
			require.NoError(t, c.Spawn(2, 0, 0))

			// held past the last worker
			c.table.Lock(0)
			defer c.table.Unlock(0)

			_, err := c.JoinAll()
			var lle *LockLifecycleError
			require.True(t, errors.As(err, &lle))
			require.ErrorIs(t, err, slots.ErrSlotHeld)
			assert.Contains(t, err.Error(), "slot table teardown failed")

			_, again := c.JoinAll()
			require.ErrorIs(t, again, slots.ErrSlotHeld)
			assert.Equal(t, err, again)
		})
	}
}

// TestPropertyRunsPreserveInvariants checks sum and permutation invariants
// over randomized size, worker, iteration and delay combinations.
func TestPropertyRunsPreserveInvariants(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(rt *rapid.T) {
		size := rapid.IntRange(1, 24).Draw(rt, "size")
		workers := rapid.IntRange(1, 12).Draw(rt, "workers")
		iterations := rapid.IntRange(0, 40).Draw(rt, "iterations")
		delay := time.Duration(rapid.IntRange(0, 3).Draw(rt, "delayMicros")) * time.Microsecond
		ordered := rapid.Bool().Draw(rt, "ordered")

		opts := []Option{WithInstrumentation()}
		if ordered {
			opts = append(opts, WithAcquirer(swapper.Ordered{}))
		}
		c := New(opts...)
		if err := c.Initialize(size); err != nil {
			rt.Fatalf("initialize: %v", err)
		}
		if err := c.Spawn(workers, iterations, delay); err != nil {
			rt.Fatalf("spawn: %v", err)
		}

		res := joinWithin(t, c, 30*time.Second)
		if !res.Correct || !res.Permutation {
			rt.Fatalf("invariant broken: final %v", res.Final)
		}
		if res.Violations != 0 {
			rt.Fatalf("%d mutual exclusion violations", res.Violations)
		}
	})
}
