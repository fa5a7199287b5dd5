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

package report

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type stringer string

func (s stringer) String() string { return string(s) }

func TestPrinter_Transcript(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	p := New(&out, false)

	p.MutexCreated(0)
	p.Spawning(2)
	p.BufferBefore(stringer("0 1"))
	p.Swap(1, 0, 0, 1, 1)
	p.BufferAfter(stringer("1 0"))
	p.Verdict(true)
	p.Elapsed(1500 * time.Millisecond)

	got := out.String()
	assert.Contains(t, got, " Mutex 0 created\n")
	assert.Contains(t, got, " Creating 2 threads\n")
	assert.Contains(t, got, "Buffer before: 0 1\n")
	assert.Contains(t, got, "Thread 1 swapping positions 0 (== 0) and 1 (== 1)\n")
	assert.Contains(t, got, "Buffer after:  1 0\n")
	assert.Contains(t, got, VerdictCorrect)
	assert.Contains(t, got, "run took 1.500000 seconds to execute\n")
}

func TestPrinter_IncorrectVerdict(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	New(&out, false).Verdict(false)
	assert.Equal(t, VerdictIncorrect+"\n\n", out.String())
}

func TestPrinter_QuietDropsSwaps(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	p := New(&out, true)
	p.Swap(0, 1, 1, 2, 2)
	assert.Empty(t, out.String())
}

func TestPrinter_SetQuietTogglesSwaps(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	p := New(&out, false)
	p.SetQuiet(true)
	p.Swap(0, 1, 1, 2, 2)
	assert.Empty(t, out.String())

	p.SetQuiet(false)
	p.Swap(3, 4, 4, 5, 5)
	assert.Equal(t, "Thread 3 swapping positions 4 (== 4) and 5 (== 5)\n", out.String())
}

func TestPrinter_Summary(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	New(&out, false).Summary(Summary{
		RunID:          "abc",
		Strategy:       "backoff",
		Swaps:          10,
		BackoffRetries: 3,
		HostCPUs:       8,
	})
	assert.Contains(t, out.String(), "run abc: strategy=backoff swaps=10")
	assert.Contains(t, out.String(), "backoff_retries=3")
	assert.Contains(t, out.String(), "host_cpus=8")
}

// TestPrinter_ConcurrentSwapLinesStayWhole checks lines from concurrent
// workers never interleave mid-line.
func TestPrinter_ConcurrentSwapLinesStayWhole(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	p := New(&out, false)

	var wg sync.WaitGroup
	wg.Add(8)
	for w := range 8 {
		go func() {
			defer wg.Done()
			for range 100 {
				p.Swap(w, 1, 2, 3, 4)
			}
		}()
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	assert.Len(t, lines, 800)
	for _, line := range lines {
		assert.True(t, strings.HasPrefix(line, "Thread "), line)
		assert.True(t, strings.HasSuffix(line, "(== 4)"), line)
	}
}
