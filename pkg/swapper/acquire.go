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

package swapper

import (
	"fmt"
	"runtime"
)

const (
	StrategyBackoff = "backoff"
	StrategyOrdered = "ordered"
)

// Strategies lists the strategy names, default first.
func Strategies() []string {
	return []string{StrategyBackoff, StrategyOrdered}
}

// SlotLocker is the slot lock table as seen by a worker.
type SlotLocker interface {
	Lock(i int)
	TryLock(i int) bool
	Unlock(i int)
}

// Acquirer takes the locks for two distinct slots i and j without risking a
// circular wait with other workers doing the same. It returns how many times
// it had to give up and start over.
type Acquirer interface {
	AcquirePair(locks SlotLocker, i, j int) int
	Name() string
}

// Backoff blocks on j, then tries i without waiting. If i is taken, j is
// released before retrying, so a worker never waits while holding a slot
// another worker may need. Deadlock free, but not starvation free.
type Backoff struct{}

func (Backoff) Name() string { return StrategyBackoff }

func (Backoff) AcquirePair(locks SlotLocker, i, j int) int {
	retries := 0
	for {
		locks.Lock(j)
		if locks.TryLock(i) {
			return retries
		}
		locks.Unlock(j)
		retries++
		runtime.Gosched()
	}
}

// Ordered always blocks on the lower index first. A total order on slots
// rules out circular wait, so it never has to retry.
type Ordered struct{}

func (Ordered) Name() string { return StrategyOrdered }

func (Ordered) AcquirePair(locks SlotLocker, i, j int) int {
	lo, hi := min(i, j), max(i, j)
	locks.Lock(lo)
	locks.Lock(hi)
	return 0
}

// AcquirerFor maps a strategy name to its Acquirer.
func AcquirerFor(name string) (Acquirer, error) {
	switch name {
	case "", StrategyBackoff:
		return Backoff{}, nil
	case StrategyOrdered:
		return Ordered{}, nil
	default:
		return nil, fmt.Errorf("unknown acquire strategy: %q", name)
	}
}

// acquireOne spins on the non-blocking attempt until slot i is taken and
// returns the number of failed attempts.
func acquireOne(locks SlotLocker, i int) int {
	spins := 0
	for !locks.TryLock(i) {
		spins++
		runtime.Gosched()
	}
	return spins
}
