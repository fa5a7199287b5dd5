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
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// Watch reloads the config file at path, on top of defaults, every time it
// is written or replaced, and passes the valid results to onChange. Invalid
// files are logged and skipped. The parent directory is watched so editors
// that save by rename are picked up. The returned func stops the watcher and
// waits for its goroutine to exit.
//
//nolint:gocritic // config struct copied for immutability
func Watch(fs afero.Fs, path string, defaults Values, onChange func(Values)) (func() error, error) {
	if path == "" {
		return nil, errors.New("no config file to watch")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create config watcher: %w", err)
	}

	target := filepath.Clean(path)
	dir := filepath.Dir(target)
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch config directory (%s): %w", dir, err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				vals, err := Load(fs, path, defaults)
				if err != nil {
					log.Warn().Err(err).Msgf("ignoring config change in %s", path)
					continue
				}
				log.Info().Msgf("config file changed: %s", path)
				onChange(vals)
			case watchErr, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Error().Msgf("error in config watcher: %s", watchErr)
			}
		}
	}()

	log.Debug().Msgf("watching config file: %s", path)
	return func() error {
		err := watcher.Close()
		<-done
		if err != nil {
			return fmt.Errorf("failed to close config watcher: %w", err)
		}
		return nil
	}, nil
}
