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

// Package swapper implements the swap worker: a goroutine that repeatedly
// picks two random slots, takes both slot locks, exchanges their values and
// releases them.
package swapper

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/ZaparooProject/slotswap/pkg/buffer"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

var ErrInvalidTask = errors.New("invalid worker task")

// SwapFunc is told about every swap before any value is written. vi and vj
// are read with both slots held.
type SwapFunc func(worker, i, vi, j, vj int)

// Task is everything one worker needs. It is handed to New by value and
// owned by the worker from then on.
type Task struct {
	Buffer   *buffer.Buffer
	Slots    SlotLocker
	Acquirer Acquirer
	Clock    clockwork.Clock
	// Limiter paces iterations across all workers sharing it. nil means
	// unlimited.
	Limiter *rate.Limiter
	Rand    *rand.Rand
	OnSwap  SwapFunc
	// Delay is slept after each step of the swap to widen race windows.
	Delay      time.Duration
	ID         int
	Iterations int
}

// Stats counts what a worker did.
type Stats struct {
	Swaps          int
	IdentitySwaps  int
	BackoffRetries int
	SpinRetries    int
}

// Add accumulates o into s.
func (s *Stats) Add(o Stats) {
	s.Swaps += o.Swaps
	s.IdentitySwaps += o.IdentitySwaps
	s.BackoffRetries += o.BackoffRetries
	s.SpinRetries += o.SpinRetries
}

type Worker struct {
	task      Task
	remaining int
	stats     Stats
}

// New validates the task and fills in defaults for the optional fields.
//
//nolint:gocritic // task is moved into the worker
func New(task Task) (*Worker, error) {
	switch {
	case task.Buffer == nil:
		return nil, fmt.Errorf("%w: worker %d has no buffer", ErrInvalidTask, task.ID)
	case task.Slots == nil:
		return nil, fmt.Errorf("%w: worker %d has no slot table", ErrInvalidTask, task.ID)
	case task.Iterations < 0:
		return nil, fmt.Errorf("%w: worker %d has negative iterations", ErrInvalidTask, task.ID)
	case task.Delay < 0:
		return nil, fmt.Errorf("%w: worker %d has negative delay", ErrInvalidTask, task.ID)
	}

	if task.Acquirer == nil {
		task.Acquirer = Backoff{}
	}
	if task.Clock == nil {
		task.Clock = clockwork.NewRealClock()
	}
	if task.Rand == nil {
		//nolint:gosec // slot selection, not crypto
		task.Rand = rand.New(rand.NewPCG(rand.Uint64(), uint64(task.ID)))
	}

	return &Worker{
		task:      task,
		remaining: task.Iterations,
	}, nil
}

// Run performs every assigned swap and returns the worker's stats. The
// context only bounds waits on the shared limiter; a swap in progress is
// always completed.
func (w *Worker) Run(ctx context.Context) (Stats, error) {
	log.Debug().
		Int("worker", w.task.ID).
		Int("iterations", w.task.Iterations).
		Str("strategy", w.task.Acquirer.Name()).
		Msg("worker started")

	n := w.task.Buffer.Len()
	for w.remaining > 0 {
		if w.task.Limiter != nil {
			if err := w.task.Limiter.Wait(ctx); err != nil {
				return w.stats, fmt.Errorf("worker %d waiting for pacing: %w", w.task.ID, err)
			}
		}

		i := w.task.Rand.IntN(n)
		j := w.task.Rand.IntN(n)
		w.swap(i, j)
		w.remaining--
	}

	log.Debug().
		Int("worker", w.task.ID).
		Int("backoffRetries", w.stats.BackoffRetries).
		Int("spinRetries", w.stats.SpinRetries).
		Msg("worker finished")

	return w.stats, nil
}

// swap exchanges slots i and j. i == j still goes through the locking
// protocol so identity swaps contend like any other.
func (w *Worker) swap(i, j int) {
	locks := w.task.Slots
	buf := w.task.Buffer

	if i == j {
		w.stats.SpinRetries += acquireOne(locks, i)
		w.stats.IdentitySwaps++
	} else {
		w.stats.BackoffRetries += w.task.Acquirer.AcquirePair(locks, i, j)
	}

	if w.task.OnSwap != nil {
		w.task.OnSwap(w.task.ID, i, buf.Get(i), j, buf.Get(j))
	}

	tmp := buf.Get(i)
	w.pause()
	buf.Set(i, buf.Get(j))
	w.pause()
	buf.Set(j, tmp)
	w.pause()

	locks.Unlock(i)
	if i != j {
		locks.Unlock(j)
	}
	w.stats.Swaps++
}

func (w *Worker) pause() {
	if w.task.Delay > 0 {
		w.task.Clock.Sleep(w.task.Delay)
	}
}
