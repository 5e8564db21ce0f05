package cli

import (
	"errors"
	"fmt"
)

// Exit codes returned by the chatrelay command.
const (
	ExitOK      = 0
	ExitError   = 1
	ExitUsage   = 2
	ExitConfig  = 3
	ExitRuntime = 4
)

// ConfigError represents an invalid or unreadable configuration.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("config error: %v", e.Err)
	}
	return fmt.Sprintf("config error in %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// UsageError represents invalid command-line arguments or flags.
type UsageError struct {
	Message string
}

func (e *UsageError) Error() string {
	return e.Message
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

// NewConfigError creates a new ConfigError.
func NewConfigError(path string, err error) *ConfigError {
	return &ConfigError{Path: path, Err: err}
}

// NewUsageError creates a new UsageError.
func NewUsageError(format string, args ...any) *UsageError {
	return &UsageError{Message: fmt.Sprintf(format, args...)}
}

// NewCommandError creates a new CommandError.
func NewCommandError(command string, err error) *CommandError {
	return &CommandError{Command: command, Err: err}
}

// ExitCode maps an error returned by a command to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var usageErr *UsageError
	var configErr *ConfigError
	var cmdErr *CommandError

	switch {
	case errors.As(err, &usageErr):
		return ExitUsage
	case errors.As(err, &configErr):
		return ExitConfig
	case errors.As(err, &cmdErr):
		return ExitRuntime
	default:
		return ExitError
	}
}
