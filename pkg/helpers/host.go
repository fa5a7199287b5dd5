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

package helpers

import (
	"runtime"

	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v4/cpu"
)

// LogicalCPUs returns the host's logical CPU count, falling back to what the
// Go runtime sees when the OS query fails.
func LogicalCPUs() int {
	n, err := cpu.Counts(true)
	if err != nil || n < 1 {
		log.Debug().Err(err).Msg("failed to query cpu count, using runtime.NumCPU")
		return runtime.NumCPU()
	}
	return n
}
