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

package coordinator

import (
	"fmt"

	"github.com/ZaparooProject/slotswap/pkg/config"
	"github.com/ZaparooProject/slotswap/pkg/helpers"
	"github.com/ZaparooProject/slotswap/pkg/report"
	"github.com/ZaparooProject/slotswap/pkg/swapper"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Run performs a complete run from options: initialize, spawn, join and
// validate, printing the transcript to p. An incorrect buffer is reported in
// the Result and the transcript, not as an error.
//
//nolint:gocritic // options struct copied for immutability
func Run(opts config.Run, p *report.Printer, clock clockwork.Clock) (Result, error) {
	acq, err := swapper.AcquirerFor(opts.Strategy)
	if err != nil {
		return Result{}, fmt.Errorf("invalid options: %w", err)
	}

	runID := uuid.New().String()
	logger := log.With().Str("run", runID).Logger()
	logger.Info().
		Int("threads", opts.Threads).
		Int("bufferSize", opts.BufferSize).
		Int("iterations", opts.Iterations).
		Dur("delay", opts.Delay()).
		Str("strategy", acq.Name()).
		Msg("starting run")

	copts := []Option{
		WithPrinter(p),
		WithAcquirer(acq),
		WithSwapRate(opts.SwapRate),
		WithSeed(opts.Seed),
	}
	if clock != nil {
		copts = append(copts, WithClock(clock))
	}
	if opts.Instrument {
		copts = append(copts, WithInstrumentation())
	}
	c := New(copts...)

	if err := c.Initialize(opts.BufferSize); err != nil {
		return Result{}, err
	}

	p.Spawning(opts.Threads)
	p.BufferBefore(c.Buffer())

	if err := c.Spawn(opts.Threads, opts.Iterations, opts.Delay()); err != nil {
		return Result{}, fmt.Errorf("failed to spawn workers: %w", err)
	}

	res, err := c.JoinAll()
	if err != nil {
		return res, err
	}

	p.BufferAfter(c.Buffer())
	p.Verdict(res.Correct)
	p.Elapsed(res.Elapsed)
	p.Summary(report.Summary{
		RunID:          runID,
		Strategy:       acq.Name(),
		Swaps:          res.Stats.Swaps,
		IdentitySwaps:  res.Stats.IdentitySwaps,
		BackoffRetries: res.Stats.BackoffRetries,
		SpinRetries:    res.Stats.SpinRetries,
		Acquisitions:   res.Acquisitions,
		Violations:     res.Violations,
		HostCPUs:       helpers.LogicalCPUs(),
	})

	if !res.Correct || !res.Permutation {
		logger.Error().
			Ints("final", res.Final).
			Bool("sumOK", res.Correct).
			Bool("permutationOK", res.Permutation).
			Msg("incorrect buffer after run")
	}

	return res, nil
}
