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

// Package report prints the human readable run transcript.
package report

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/ZaparooProject/slotswap/pkg/helpers/syncutil"
)

const (
	VerdictCorrect   = "Correct buffer"
	VerdictIncorrect = "Incorrect buffer"
)

// Summary is the end of run contention overview.
type Summary struct {
	RunID          string
	Strategy       string
	Swaps          int
	IdentitySwaps  int
	BackoffRetries int
	SpinRetries    int
	Acquisitions   int64
	Violations     int64
	HostCPUs       int
}

// Printer writes transcript lines. Swap may be called from many workers at
// once; every line is written whole.
type Printer struct {
	w     io.Writer
	mu    syncutil.Mutex
	quiet atomic.Bool
}

// New returns a Printer writing to w. When quiet is set per-swap lines are
// dropped.
func New(w io.Writer, quiet bool) *Printer {
	p := &Printer{w: w}
	p.quiet.Store(quiet)
	return p
}

// SetQuiet toggles per-swap lines. Safe to call while workers are running.
func (p *Printer) SetQuiet(quiet bool) {
	p.quiet.Store(quiet)
}

func (p *Printer) printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = fmt.Fprintf(p.w, format, args...)
}

func (p *Printer) MutexCreated(i int) {
	p.printf(" Mutex %d created\n", i)
}

func (p *Printer) Spawning(n int) {
	p.printf("\n Creating %d threads\n\n", n)
}

func (p *Printer) BufferBefore(buf fmt.Stringer) {
	p.printf("Buffer before: %s\n\n", buf)
}

func (p *Printer) BufferAfter(buf fmt.Stringer) {
	p.printf("\nBuffer after:  %s\n\n", buf)
}

// Swap logs one exchange. Matches the swap callback signature used by
// workers.
func (p *Printer) Swap(worker, i, vi, j, vj int) {
	if p.quiet.Load() {
		return
	}
	p.printf("Thread %d swapping positions %d (== %d) and %d (== %d)\n", worker, i, vi, j, vj)
}

func (p *Printer) Verdict(ok bool) {
	if ok {
		p.printf("%s\n\n", VerdictCorrect)
		return
	}
	p.printf("%s\n\n", VerdictIncorrect)
}

func (p *Printer) Elapsed(d time.Duration) {
	p.printf("run took %f seconds to execute\n", d.Seconds())
}

//nolint:gocritic // summary is a value snapshot
func (p *Printer) Summary(s Summary) {
	p.printf(
		"run %s: strategy=%s swaps=%d identity=%d backoff_retries=%d spin_retries=%d "+
			"acquisitions=%d violations=%d host_cpus=%d\n",
		s.RunID, s.Strategy, s.Swaps, s.IdentitySwaps, s.BackoffRetries, s.SpinRetries,
		s.Acquisitions, s.Violations, s.HostCPUs,
	)
}
