package cli

import (
	"errors"
	"fmt"
)

// Exit codes returned by the vulcan binary.
const (
	ExitOK      = 0
	ExitError   = 1
	ExitConfig  = 2
	ExitStartup = 3
)

// ConfigError represents an error in configuration.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("config error: %s", e.Message)
	}
	return fmt.Sprintf("config error in %s: %s", e.Field, e.Message)
}

// NewConfigError creates a new ConfigError.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{Field: field, Message: message}
}

// CommandError represents an error from a command execution.
type CommandError struct {
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %s failed: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// NewCommandError creates a new CommandError.
func NewCommandError(command string, err error) *CommandError {
	return &CommandError{Command: command, Err: err}
}

// StartupError represents a failure to bring up a server dependency.
type StartupError struct {
	Component string
	Err       error
}

func (e *StartupError) Error() string {
	return fmt.Sprintf("failed to start %s: %v", e.Component, e.Err)
}

func (e *StartupError) Unwrap() error {
	return e.Err
}

// NewStartupError creates a new StartupError.
func NewStartupError(component string, err error) *StartupError {
	return &StartupError{Component: component, Err: err}
}

// ExitCode maps an error to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var configErr *ConfigError
	if errors.As(err, &configErr) {
		return ExitConfig
	}
	var startupErr *StartupError
	if errors.As(err, &startupErr) {
		return ExitStartup
	}
	return ExitError
}
