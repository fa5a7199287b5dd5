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
	"slices"
	"strings"

	"github.com/ZaparooProject/slotswap/pkg/swapper"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("strategy", func(fl validator.FieldLevel) bool {
		return slices.Contains(swapper.Strategies(), fl.Field().String())
	}); err != nil {
		panic(fmt.Sprintf("failed to register strategy validation: %v", err))
	}
	return v
}

// ValidationError lists every option that failed validation.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "invalid config"
	}
	return "invalid config: " + strings.Join(e.Fields, "; ")
}

// Validate checks option ranges.
//
//nolint:gocritic // config struct copied for immutability
func Validate(vals Values) error {
	err := validate.Struct(vals)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validation failed: %w", err)
	}

	ve := &ValidationError{Fields: make([]string, len(verrs))}
	for i, fe := range verrs {
		ve.Fields[i] = formatFieldError(fe)
	}
	return ve
}

func formatFieldError(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "gte":
		return fmt.Sprintf("%s must be at least %s, got %v", field, fe.Param(), fe.Value())
	case "lte":
		return fmt.Sprintf("%s must be at most %s, got %v", field, fe.Param(), fe.Value())
	case "strategy":
		return fmt.Sprintf("%s must be one of [%s], got %q",
			field, strings.Join(swapper.Strategies(), " "), fe.Value())
	case "url":
		return field + " must be a valid URL"
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
