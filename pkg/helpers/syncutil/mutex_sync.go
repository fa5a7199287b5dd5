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

//go:build !deadlock

// Package syncutil provides the slot mutex primitive with optional deadlock
// detection. Build with -tags=deadlock to swap in go-deadlock, which reports
// any slot lock held or waited on for longer than DeadlockTimeout.
package syncutil

import (
	"sync"
	"time"
)

// DeadlockEnabled is true if the deadlock detector is enabled.
const DeadlockEnabled = false

// DeadlockTimeout is unused without the deadlock tag but kept so callers can
// log it unconditionally.
const DeadlockTimeout = time.Duration(0)

// A Mutex is a mutual exclusion lock guarding a single slot.
//
//nolint:gocritic // embedding sync.Mutex is intentional - this IS the wrapper
type Mutex struct {
	sync.Mutex //nolint:forbidigo // this package wraps sync.Mutex
}

var _ TryLocker = (*Mutex)(nil)
