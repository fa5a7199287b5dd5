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

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ZaparooProject/slotswap/pkg/swapper"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

const (
	SchemaVersion = 1
	CfgEnv        = "SLOTSWAP_CFG"
	CfgFile       = "slotswap.toml"
	LogFile       = "slotswap.log"
	AppName       = "slotswap"

	// MaxDelayMicros keeps Run.Delay well inside time.Duration.
	MaxDelayMicros = 60_000_000
)

// AppVersion is overridden at build time with -ldflags.
var AppVersion = "DEVELOPMENT"

var ErrSchemaMismatch = errors.New("schema version mismatch")

type Values struct {
	Telemetry    Telemetry `toml:"telemetry,omitempty"`
	Run          Run       `toml:"run"`
	ConfigSchema int       `toml:"config_schema"`
	DebugLogging bool      `toml:"debug_logging"`
}

// Run holds the options for a single swap run.
type Run struct {
	Strategy   string  `toml:"strategy" validate:"strategy"`
	SwapRate   float64 `toml:"swap_rate" validate:"gte=0"`
	Seed       uint64  `toml:"seed"`
	Threads    int     `toml:"num_threads" validate:"gte=1"`
	BufferSize int     `toml:"buffer_size" validate:"gte=1"`
	Iterations int     `toml:"iterations" validate:"gte=0"`
	// DelayMicros is slept between swap steps. 0 disables it.
	DelayMicros int  `toml:"delay" validate:"gte=0,lte=60000000"`
	Quiet       bool `toml:"quiet"`
	Instrument  bool `toml:"instrument"`
}

type Telemetry struct {
	ErrorReportingDSN string `toml:"error_reporting_dsn,omitempty" validate:"omitempty,url"`
}

var BaseDefaults = Values{
	ConfigSchema: SchemaVersion,
	Run: Run{
		Threads:     10,
		BufferSize:  10,
		Iterations:  100,
		DelayMicros: 10,
		Strategy:    swapper.StrategyBackoff,
	},
}

// Delay returns the inter-step delay as a duration.
func (r Run) Delay() time.Duration {
	return time.Duration(r.DelayMicros) * time.Microsecond
}

// Path returns the config file location: the CfgEnv variable if set,
// otherwise CfgFile in the working directory.
func Path() string {
	if p := os.Getenv(CfgEnv); p != "" {
		return p
	}
	return CfgFile
}

// Load reads the TOML file at path on top of defaults. A missing file is not
// an error; defaults are returned unchanged.
//
//nolint:gocritic // config struct copied for immutability
func Load(fs afero.Fs, path string, defaults Values) (Values, error) {
	if path == "" {
		return defaults, nil
	}

	data, err := afero.ReadFile(fs, path)
	if errors.Is(err, os.ErrNotExist) {
		log.Debug().Msgf("no config file at %s, using defaults", path)
		return defaults, nil
	} else if err != nil {
		return defaults, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults, then unmarshal file values on top.
	vals := defaults
	if err := toml.Unmarshal(data, &vals); err != nil {
		return defaults, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if vals.ConfigSchema != SchemaVersion {
		log.Error().Msgf(
			"schema version mismatch: got %d, expecting %d",
			vals.ConfigSchema,
			SchemaVersion,
		)
		return defaults, ErrSchemaMismatch
	}

	if err := Validate(vals); err != nil {
		return defaults, err
	}

	log.Info().Msgf("loaded config from %s", path)
	return vals, nil
}

// Save writes vals to path as TOML, creating parent directories.
//
//nolint:gocritic // config struct copied for immutability
func Save(fs afero.Fs, path string, vals Values) error {
	vals.ConfigSchema = SchemaVersion

	data, err := toml.Marshal(&vals)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := fs.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := afero.WriteFile(fs, path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
