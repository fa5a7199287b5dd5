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

// Package buffer holds the shared integer array that workers permute.
//
// The buffer carries no synchronisation of its own. Get and Set on index i
// are only legal while the caller holds slot lock i of the paired table; the
// whole-buffer helpers (Sum, Snapshot, String, IsPermutation) are only legal
// when no worker is running.
package buffer

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidSize = errors.New("buffer size must be at least 1")

// Buffer is a fixed-length array initialised to 0..N-1.
type Buffer struct {
	data []int
}

// New allocates a buffer of n slots holding the identity permutation.
func New(n int) (*Buffer, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSize, n)
	}
	data := make([]int, n)
	for i := range data {
		data[i] = i
	}
	return &Buffer{data: data}, nil
}

func (b *Buffer) Len() int {
	return len(b.data)
}

// Get returns the value at slot i. The caller must hold slot lock i.
func (b *Buffer) Get(i int) int {
	return b.data[i]
}

// Set writes v to slot i. The caller must hold slot lock i.
func (b *Buffer) Set(i, v int) {
	b.data[i] = v
}

// Sum adds up every element.
func (b *Buffer) Sum() int {
	sum := 0
	for _, v := range b.data {
		sum += v
	}
	return sum
}

// ExpectedSum is the invariant sum N*(N-1)/2 of the initial contents.
func (b *Buffer) ExpectedSum() int {
	return ExpectedSum(len(b.data))
}

// ExpectedSum returns 0+1+...+(n-1).
func ExpectedSum(n int) int {
	return n * (n - 1) / 2
}

// IsPermutation reports whether the buffer still holds every initial value
// exactly once. It is the strict form of the sum check.
func (b *Buffer) IsPermutation() bool {
	seen := make([]bool, len(b.data))
	for _, v := range b.data {
		if v < 0 || v >= len(seen) || seen[v] {
			return false
		}
		seen[v] = true
	}
	return true
}

// Snapshot returns a copy of the contents.
func (b *Buffer) Snapshot() []int {
	out := make([]int, len(b.data))
	copy(out, b.data)
	return out
}

// String formats the contents space separated, as printed in run reports.
func (b *Buffer) String() string {
	var sb strings.Builder
	for i, v := range b.data {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(strconv.Itoa(v))
	}
	return sb.String()
}
