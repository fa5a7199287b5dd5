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

package cli

import (
	"flag"
	"fmt"
	"io"

	"github.com/ZaparooProject/slotswap/pkg/config"
)

type Flags struct {
	set         *flag.FlagSet
	Threads     *int
	BufferSize  *int
	Iterations  *int
	Delay       *int
	Strategy    *string
	Rate        *float64
	Seed        *uint64
	Config      *string
	Quiet       *bool
	Instrument  *bool
	Debug       *bool
	Version     *bool
	WriteConfig *bool
}

// shortNames maps each short flag to the long flag it aliases.
var shortNames = map[string]string{
	"t": "threads",
	"b": "buffer",
	"i": "iterations",
	"d": "delay",
}

// SetupFlags defines every CLI flag on set. Defaults come from
// config.BaseDefaults; flags only override the config file when passed.
func SetupFlags(set *flag.FlagSet) *Flags {
	defaults := config.BaseDefaults.Run

	f := &Flags{
		set: set,
		Threads: set.Int(
			"threads",
			defaults.Threads,
			"number of worker threads",
		),
		BufferSize: set.Int(
			"buffer",
			defaults.BufferSize,
			"number of slots in the shared buffer",
		),
		Iterations: set.Int(
			"iterations",
			defaults.Iterations,
			"swaps performed by each thread",
		),
		Delay: set.Int(
			"delay",
			defaults.DelayMicros,
			"microseconds slept between swap steps, 0 disables",
		),
		Strategy: set.String(
			"strategy",
			defaults.Strategy,
			"pair acquisition strategy: backoff or ordered",
		),
		Rate: set.Float64(
			"rate",
			defaults.SwapRate,
			"maximum combined swaps per second, 0 is unlimited",
		),
		Seed: set.Uint64(
			"seed",
			defaults.Seed,
			"seed for slot selection, 0 picks a random one",
		),
		Config: set.String(
			"config",
			config.Path(),
			"path to TOML config file",
		),
		Quiet: set.Bool(
			"quiet",
			false,
			"do not print a line per swap",
		),
		Instrument: set.Bool(
			"instrument",
			false,
			"track slot holders and report mutual exclusion violations",
		),
		Debug: set.Bool(
			"debug",
			false,
			"enable debug logging",
		),
		Version: set.Bool(
			"version",
			false,
			"print version and exit",
		),
		WriteConfig: set.Bool(
			"write-config",
			false,
			"write the effective options to the config file and exit",
		),
	}

	set.IntVar(f.Threads, "t", defaults.Threads, "alias of -threads")
	set.IntVar(f.BufferSize, "b", defaults.BufferSize, "alias of -buffer")
	set.IntVar(f.Iterations, "i", defaults.Iterations, "alias of -iterations")
	set.IntVar(f.Delay, "d", defaults.DelayMicros, "alias of -delay")

	return f
}

// Parse parses args (without the program name).
func (f *Flags) Parse(args []string) error {
	if err := f.set.Parse(args); err != nil {
		return fmt.Errorf("failed to parse flags: %w", err)
	}
	if f.set.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", f.set.Args())
	}
	return nil
}

func (f *Flags) isPassed(name string) bool {
	found := false
	f.set.Visit(func(fl *flag.Flag) {
		if fl.Name == name || shortNames[fl.Name] == name {
			found = true
		}
	})
	return found
}

// Apply overlays every passed flag onto vals.
//
//nolint:gocritic // config struct copied for immutability
func (f *Flags) Apply(vals config.Values) config.Values {
	if f.isPassed("threads") {
		vals.Run.Threads = *f.Threads
	}
	if f.isPassed("buffer") {
		vals.Run.BufferSize = *f.BufferSize
	}
	if f.isPassed("iterations") {
		vals.Run.Iterations = *f.Iterations
	}
	if f.isPassed("delay") {
		vals.Run.DelayMicros = *f.Delay
	}
	if f.isPassed("strategy") {
		vals.Run.Strategy = *f.Strategy
	}
	if f.isPassed("rate") {
		vals.Run.SwapRate = *f.Rate
	}
	if f.isPassed("seed") {
		vals.Run.Seed = *f.Seed
	}
	if f.isPassed("quiet") {
		vals.Run.Quiet = *f.Quiet
	}
	if f.isPassed("instrument") {
		vals.Run.Instrument = *f.Instrument
	}
	if f.isPassed("debug") {
		vals.DebugLogging = *f.Debug
	}
	return vals
}

// PrintVersion writes the version line.
func PrintVersion(w io.Writer) {
	_, _ = fmt.Fprintf(w, "Slotswap v%s\n", config.AppVersion)
}
