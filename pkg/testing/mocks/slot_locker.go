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

package mocks

import (
	"github.com/stretchr/testify/mock"
)

// MockSlotLocker is a testify mock for swapper.SlotLocker. It lets tests
// script TryLock outcomes and assert the exact lock call sequence.
//
// Example:
//
//	locks := &MockSlotLocker{}
//	locks.On("Lock", 1).Return()
//	locks.On("TryLock", 0).Return(false).Once()
//	locks.On("TryLock", 0).Return(true)
//	locks.On("Unlock", 1).Return()
type MockSlotLocker struct {
	mock.Mock
}

func (m *MockSlotLocker) Lock(i int) {
	m.Called(i)
}

func (m *MockSlotLocker) TryLock(i int) bool {
	args := m.Called(i)
	return args.Bool(0)
}

func (m *MockSlotLocker) Unlock(i int) {
	m.Called(i)
}
