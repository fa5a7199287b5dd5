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
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/ZaparooProject/slotswap/internal/telemetry"
	"github.com/ZaparooProject/slotswap/pkg/config"
	"github.com/ZaparooProject/slotswap/pkg/coordinator"
	"github.com/ZaparooProject/slotswap/pkg/helpers"
	"github.com/ZaparooProject/slotswap/pkg/report"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// Env is everything Run touches outside its arguments.
type Env struct {
	Stdout io.Writer
	Stderr io.Writer
	Fs     afero.Fs
	Clock  clockwork.Clock
	// LogDir overrides helpers.LogDir().
	LogDir string
	// WatchConfig reloads quiet and debug_logging from the config file while
	// a run is in progress. Needs Fs to be the OS filesystem.
	WatchConfig bool
}

// Session is the outcome of Setup: the effective options and the flags they
// were built from.
type Session struct {
	Flags  *Flags
	Values config.Values
}

// DefaultEnv uses the process's stdio and the real filesystem and clock.
func DefaultEnv() Env {
	return Env{
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
		Fs:          afero.NewOsFs(),
		Clock:       clockwork.NewRealClock(),
		WatchConfig: true,
	}
}

// Setup parses flags, loads and validates the config and initializes
// logging and error reporting. A nil Session with nil error means the
// invocation was fully handled (version printed, config written).
//
//nolint:gocritic // env is a small value bundle
func Setup(args []string, env Env) (*Session, error) {
	set := flag.NewFlagSet(config.AppName, flag.ContinueOnError)
	set.SetOutput(env.Stderr)
	flags := SetupFlags(set)

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, nil
		}
		return nil, err
	}

	if *flags.Version {
		PrintVersion(env.Stdout)
		return nil, nil
	}

	vals, err := config.Load(env.Fs, *flags.Config, config.BaseDefaults)
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}
	vals = flags.Apply(vals)
	if err := config.Validate(vals); err != nil {
		return nil, err
	}

	var writers []io.Writer
	if vals.DebugLogging {
		writers = append(writers, zerolog.ConsoleWriter{Out: env.Stderr})
	}
	if err := helpers.InitLogging(env.LogDir, writers); err != nil {
		return nil, fmt.Errorf("error initializing logging: %w", err)
	}
	helpers.SetDebugLogging(vals.DebugLogging)

	if *flags.WriteConfig {
		if err := config.Save(env.Fs, *flags.Config, vals); err != nil {
			return nil, err
		}
		_, _ = fmt.Fprintf(env.Stdout, "Config written to %s\n", *flags.Config)
		return nil, nil
	}

	if err := telemetry.Init(
		vals.Telemetry.ErrorReportingDSN,
		config.AppVersion,
		map[string]string{"strategy": vals.Run.Strategy},
	); err != nil {
		log.Warn().Err(err).Msg("failed to initialize error reporting")
	}

	return &Session{Flags: flags, Values: vals}, nil
}

// watchConfig applies live changes to the options that may change mid-run.
// Passed flags still take precedence over the file.
//
//nolint:gocritic // env is a small value bundle
func watchConfig(env Env, s *Session, printer *report.Printer) func() {
	path := *s.Flags.Config
	if !env.WatchConfig || path == "" {
		return func() {}
	}

	stop, err := config.Watch(env.Fs, path, config.BaseDefaults, func(vals config.Values) {
		vals = s.Flags.Apply(vals)
		printer.SetQuiet(vals.Run.Quiet)
		helpers.SetDebugLogging(vals.DebugLogging)
		log.Info().
			Bool("quiet", vals.Run.Quiet).
			Bool("debug", vals.DebugLogging).
			Msg("applied config change")
	})
	if err != nil {
		log.Warn().Err(err).Msg("config changes will not be applied during the run")
		return func() {}
	}
	return func() {
		if err := stop(); err != nil {
			log.Warn().Err(err).Msg("failed to stop config watcher")
		}
	}
}

// Run is the whole program. It returns an error only for setup failures; an
// incorrect buffer is reported on stdout and is not an error.
//
//nolint:gocritic // env is a small value bundle
func Run(args []string, env Env) error {
	s, err := Setup(args, env)
	if err != nil {
		return err
	}
	if s == nil {
		return nil
	}
	defer telemetry.Close()

	printer := report.New(env.Stdout, s.Values.Run.Quiet)
	stopWatch := watchConfig(env, s, printer)
	defer stopWatch()

	res, err := coordinator.Run(s.Values.Run, printer, env.Clock)
	if err != nil {
		log.Error().Err(err).Msg("run failed")
		return err
	}

	log.Info().
		Bool("correct", res.Correct).
		Dur("elapsed", res.Elapsed).
		Msg("run complete")
	return nil
}
