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

//go:build deadlock

// Package syncutil provides the slot mutex primitive with optional deadlock
// detection. Build with -tags=deadlock to swap in go-deadlock, which reports
// any slot lock held or waited on for longer than DeadlockTimeout.
package syncutil

import (
	"time"

	deadlock "github.com/sasha-s/go-deadlock"
)

// DeadlockEnabled is true if the deadlock detector is enabled.
const DeadlockEnabled = true

// DeadlockTimeout is how long a lock may be waited on before go-deadlock
// reports it. Delays inside the swap critical section are microseconds, so
// anything close to this is a real hang.
const DeadlockTimeout = 30 * time.Second

func init() {
	deadlock.Opts.DeadlockTimeout = DeadlockTimeout
}

// A Mutex is a mutual exclusion lock guarding a single slot.
type Mutex struct {
	deadlock.Mutex
}

var _ TryLocker = (*Mutex)(nil)
