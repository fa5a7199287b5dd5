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

// Package slots implements a table of independent per-slot mutexes. Lock i
// guards position i of a shared buffer and nothing else; acquiring one slot
// never blocks on or affects any other.
package slots

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/ZaparooProject/slotswap/pkg/helpers/syncutil"
	"github.com/petermattis/goid"
	"github.com/rs/zerolog/log"
)

var (
	ErrInvalidSize = errors.New("slot table size must be at least 1")
	ErrClosed      = errors.New("slot table is closed")
	ErrSlotHeld    = errors.New("slot is still held")
)

// Option configures a Table at construction.
type Option func(*Table)

// WithInstrumentation records the goroutine holding each slot. An acquire
// while another goroutine is recorded as holder, or a release by a goroutine
// that is not the holder, counts as a mutual exclusion violation.
func WithInstrumentation() Option {
	return func(t *Table) {
		t.owners = make([]atomic.Int64, len(t.locks))
	}
}

// WithOnCreate registers a hook called once per slot after its lock is
// initialised, in index order.
func WithOnCreate(fn func(i int)) Option {
	return func(t *Table) {
		t.onCreate = fn
	}
}

// Table is a fixed-size array of slot locks.
type Table struct {
	onCreate     func(i int)
	locks        []syncutil.Mutex
	// owners holds the goroutine id per slot, 0 when free.
	owners       []atomic.Int64
	acquisitions atomic.Int64
	contended    atomic.Int64
	violations   atomic.Int64
	closed       atomic.Bool
}

// New creates a table of n unlocked slots.
func New(n int, opts ...Option) (*Table, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSize, n)
	}

	t := &Table{
		locks: make([]syncutil.Mutex, n),
	}
	// options run after locks exist so instrumentation can size itself
	for _, opt := range opts {
		opt(t)
	}

	if t.onCreate != nil {
		for i := range t.locks {
			t.onCreate(i)
		}
	}

	log.Debug().
		Int("slots", n).
		Bool("instrumented", t.Instrumented()).
		Bool("deadlockDetector", syncutil.DeadlockEnabled).
		Msg("slot table created")

	return t, nil
}

// Len returns the number of slots.
func (t *Table) Len() int {
	return len(t.locks)
}

// Instrumented reports whether holder tracking is enabled.
func (t *Table) Instrumented() bool {
	return t.owners != nil
}

func (t *Table) slot(i int) *syncutil.Mutex {
	if t.closed.Load() {
		panic(fmt.Errorf("slot %d: %w", i, ErrClosed))
	}
	if i < 0 || i >= len(t.locks) {
		panic(fmt.Sprintf("slot index %d out of range [0, %d)", i, len(t.locks)))
	}
	return &t.locks[i]
}

// Lock blocks until slot i is free, then takes it.
func (t *Table) Lock(i int) {
	t.slot(i).Lock()
	t.acquired(i)
}

// TryLock attempts to take slot i without waiting and reports whether it
// succeeded.
func (t *Table) TryLock(i int) bool {
	if !t.slot(i).TryLock() {
		t.contended.Add(1)
		return false
	}
	t.acquired(i)
	return true
}

// Unlock releases slot i. Releasing a slot that is not held is a programming
// error and is fatal.
func (t *Table) Unlock(i int) {
	mu := t.slot(i)
	if t.owners != nil {
		t.released(i)
	}
	mu.Unlock()
}

func (t *Table) acquired(i int) {
	t.acquisitions.Add(1)
	if t.owners == nil {
		return
	}
	id := goid.Get()
	if prev := t.owners[i].Swap(id); prev != 0 {
		t.violations.Add(1)
		log.Error().
			Int("slot", i).
			Int64("holder", prev).
			Int64("acquirer", id).
			Msg("mutual exclusion violated: slot acquired while held")
	}
}

// released clears the recorded holder of slot i. A release by any other
// goroutine is a violation and leaves the recorded holder in place, since
// that goroutine still believes it owns the slot.
func (t *Table) released(i int) {
	id := goid.Get()
	if t.owners[i].CompareAndSwap(id, 0) {
		return
	}
	owner := t.owners[i].Load()
	if owner == 0 {
		panic(fmt.Sprintf("slot %d released without being held", i))
	}
	t.violations.Add(1)
	log.Error().
		Int("slot", i).
		Int64("holder", owner).
		Int64("releaser", id).
		Msg("mutual exclusion violated: slot released by non-holder")
}

// Acquisitions returns the number of successful acquires across all slots.
func (t *Table) Acquisitions() int64 {
	return t.acquisitions.Load()
}

// Contended returns the number of failed non-blocking attempts.
func (t *Table) Contended() int64 {
	return t.contended.Load()
}

// Violations returns how many acquires found a slot already held and how
// many releases came from a goroutine other than the holder. Always zero
// unless instrumentation is enabled.
func (t *Table) Violations() int64 {
	return t.violations.Load()
}

// Close tears the table down. It must only be called once every user has
// made its last release; a slot still held at this point is reported as an
// error and the table stays open.
func (t *Table) Close() error {
	if t.closed.Load() {
		return ErrClosed
	}

	for i := range t.locks {
		if t.owners != nil {
			if owner := t.owners[i].Load(); owner != 0 {
				return fmt.Errorf("slot %d (held by goroutine %d): %w", i, owner, ErrSlotHeld)
			}
			continue
		}
		if !t.locks[i].TryLock() {
			return fmt.Errorf("slot %d: %w", i, ErrSlotHeld)
		}
		t.locks[i].Unlock()
	}

	if !t.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	log.Debug().Int("slots", len(t.locks)).Msg("slot table closed")
	return nil
}
