// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// RuntimeNative runs release steps directly through os/exec.
	RuntimeNative RuntimeMode = "native"
	// RuntimeVirtual runs release steps in the embedded mvdan/sh interpreter.
	RuntimeVirtual RuntimeMode = "virtual"

	// MinVerbosity and MaxVerbosity bound the verbosity scale.
	MinVerbosity Verbosity = 0
	MaxVerbosity Verbosity = 5
)

var (
	// ErrInvalidConfigRuntimeMode is returned when a config RuntimeMode value is not recognized.
	ErrInvalidConfigRuntimeMode = errors.New("invalid runtime mode")
	// ErrInvalidVerbosity is returned when a Verbosity is outside 0-5.
	ErrInvalidVerbosity = errors.New("invalid verbosity")
	// ErrInvalidTimeout is returned for a non-positive request timeout.
	ErrInvalidTimeout = errors.New("invalid timeout")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// RuntimeMode selects how release steps are executed.
	RuntimeMode string

	// InvalidConfigRuntimeModeError is returned when a config RuntimeMode value is not recognized.
	// It wraps ErrInvalidConfigRuntimeMode for errors.Is() compatibility.
	InvalidConfigRuntimeModeError struct {
		Value RuntimeMode
	}

	// Verbosity is the 0-5 output level.
	Verbosity int

	// InvalidVerbosityError is returned when a Verbosity is out of range.
	InvalidVerbosityError struct {
		Value Verbosity
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// Account is the default GitHub account
		Account string `json:"account" mapstructure:"account"`
		// Python runs setup.py
		Python string `json:"python" mapstructure:"python"`
		// Pip installs the built wheel
		Pip string `json:"pip" mapstructure:"pip"`
		// UploaderPath is the twine executable; empty disables the upload
		UploaderPath string `json:"uploader_path" mapstructure:"uploader_path"`
		// MetadataFile declares the version; may contain {package}
		MetadataFile string `json:"metadata_file" mapstructure:"metadata_file"`
		// Clean removes previous build output before building
		Clean bool `json:"clean" mapstructure:"clean"`
		// Pull runs git pull before the version lookup
		Pull bool `json:"pull" mapstructure:"pull"`
		// Verbosity is the default output level
		Verbosity Verbosity `json:"verbosity" mapstructure:"verbosity"`
		// Runtime selects the step runner
		Runtime RuntimeMode `json:"runtime" mapstructure:"runtime"`
		// Timeout bounds the hosting API request
		Timeout time.Duration `json:"timeout" mapstructure:"timeout"`
		// APIBaseURL is the GitHub REST API root
		APIBaseURL string `json:"api_base_url" mapstructure:"api_base_url"`
		// ExcludeDirs extends the package inference denylist
		ExcludeDirs []string `json:"exclude_dirs" mapstructure:"exclude_dirs"`
	}
)

// Error implements the error interface for InvalidConfigRuntimeModeError.
func (e *InvalidConfigRuntimeModeError) Error() string {
	return fmt.Sprintf("invalid runtime mode %q (valid: native, virtual)", e.Value)
}

// Unwrap returns ErrInvalidConfigRuntimeMode for errors.Is() compatibility.
func (e *InvalidConfigRuntimeModeError) Unwrap() error {
	return ErrInvalidConfigRuntimeMode
}

// String returns the string representation of the RuntimeMode.
func (m RuntimeMode) String() string { return string(m) }

// IsValid returns whether the RuntimeMode is one of the defined runtime modes.
func (m RuntimeMode) IsValid() (bool, []error) {
	switch m {
	case RuntimeNative, RuntimeVirtual:
		return true, nil
	default:
		return false, []error{&InvalidConfigRuntimeModeError{Value: m}}
	}
}

// Error implements the error interface for InvalidVerbosityError.
func (e *InvalidVerbosityError) Error() string {
	return fmt.Sprintf("invalid verbosity %d (must be %d-%d)", e.Value, MinVerbosity, MaxVerbosity)
}

// Unwrap returns ErrInvalidVerbosity for errors.Is() compatibility.
func (e *InvalidVerbosityError) Unwrap() error { return ErrInvalidVerbosity }

// IsValid returns whether the Verbosity is within 0-5.
func (v Verbosity) IsValid() (bool, []error) {
	if v < MinVerbosity || v > MaxVerbosity {
		return false, []error{&InvalidVerbosityError{Value: v}}
	}
	return true, nil
}

// IsValid returns whether the Config has valid fields.
// String fields are free-form except for their CUE constraints, which the
// loader has already enforced for file input.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.Runtime.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.Verbosity.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("%w: %s (must be positive)", ErrInvalidTimeout, c.Timeout))
	}
	for _, d := range c.ExcludeDirs {
		if strings.TrimSpace(d) == "" {
			errs = append(errs, fmt.Errorf("%w: exclude_dirs contains an empty entry", ErrInvalidConfig))
			break
		}
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	if len(e.FieldErrors) == 1 {
		return fmt.Sprintf("invalid config: %v", e.FieldErrors[0])
	}
	return fmt.Sprintf("invalid config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }
