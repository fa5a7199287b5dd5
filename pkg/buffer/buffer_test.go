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

package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestNew(t *testing.T) {
	t.Parallel()

	b, err := New(5)
	require.NoError(t, err)
	assert.Equal(t, 5, b.Len())
	assert.Equal(t, []int{0, 1, 2, 3, 4}, b.Snapshot())
	assert.Equal(t, "0 1 2 3 4", b.String())

	_, err = New(0)
	require.ErrorIs(t, err, ErrInvalidSize)
}

func TestExpectedSum(t *testing.T) {
	t.Parallel()

	tests := []struct {
		n    int
		want int
	}{
		{n: 1, want: 0},
		{n: 2, want: 1},
		{n: 10, want: 45},
		{n: 100, want: 4950},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExpectedSum(tt.n), "n=%d", tt.n)
	}
}

func TestIsPermutation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data []int
		want bool
	}{
		{name: "identity", data: []int{0, 1, 2, 3}, want: true},
		{name: "shuffled", data: []int{3, 0, 2, 1}, want: true},
		// same sum as the identity, caught only by the multiset check
		{name: "duplicate with equal sum", data: []int{0, 2, 2, 2}, want: false},
		{name: "out of range", data: []int{0, 1, 2, 4}, want: false},
		{name: "negative", data: []int{-1, 1, 2, 3}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			b := &Buffer{data: tt.data}
			assert.Equal(t, tt.want, b.IsPermutation())
		})
	}
}

func TestSnapshot_IsACopy(t *testing.T) {
	t.Parallel()

	b, err := New(3)
	require.NoError(t, err)
	snap := b.Snapshot()
	snap[0] = 99
	assert.Equal(t, 0, b.Get(0))
}

// TestPropertySequentialSwapsPreserveInvariants verifies any sequence of
// swaps keeps the buffer a permutation with the invariant sum.
func TestPropertySequentialSwapsPreserveInvariants(t *testing.T) {
	t.Parallel()
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 64).Draw(t, "n")
		b, err := New(n)
		if err != nil {
			t.Fatalf("New(%d): %v", n, err)
		}

		swaps := rapid.IntRange(0, 200).Draw(t, "swaps")
		for k := range swaps {
			i := rapid.IntRange(0, n-1).Draw(t, "i")
			j := rapid.IntRange(0, n-1).Draw(t, "j")
			tmp := b.Get(i)
			b.Set(i, b.Get(j))
			b.Set(j, tmp)
			if b.Sum() != b.ExpectedSum() {
				t.Fatalf("sum %d != %d after swap %d", b.Sum(), b.ExpectedSum(), k)
			}
		}

		if !b.IsPermutation() {
			t.Fatalf("buffer %v is not a permutation of 0..%d", b.Snapshot(), n-1)
		}
	})
}
