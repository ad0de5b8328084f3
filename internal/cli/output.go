package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/cityq/internal/config"
	"github.com/roach88/cityq/internal/query"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // The query does not compile
	ExitCommandError = 2 // Command error (missing files, bad mapping, unknown dialect, etc.)
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status   string       `json:"status"`             // "ok" or "error"
	Data     interface{}  `json:"data,omitempty"`     // success payload
	Error    *CLIError    `json:"error,omitempty"`    // error details
	Warnings []CLIWarning `json:"warnings,omitempty"` // non-fatal findings
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string      `json:"code"`              // "E005", "E203", etc.
	Message string      `json:"message"`           // human-readable message
	Details interface{} `json:"details,omitempty"` // additional context
}

// CLIWarning is a non-fatal finding.
type CLIWarning struct {
	Message string   `json:"message"`
	Path    []string `json:"path,omitempty"`
}

// ErrorDetails locates an error in the query document.
type ErrorDetails struct {
	Name   string `json:"name,omitempty"`  // symbolic code name, e.g. "MixedVersion"
	Field  string `json:"field,omitempty"` // document field, e.g. "selection.args[0]"
	File   string `json:"file,omitempty"`
	Line   int    `json:"line,omitempty"`
	Column int    `json:"column,omitempty"`
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data interface{}) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	// Human-readable text output
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details interface{}) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	// Human-readable error
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %+v\n", details)
	}
	return nil
}

// Fail reports err and returns the ExitError the command should return.
// Compilation errors exit with ExitFailure; everything else, such as a
// missing file or a broken mapping, with ExitCommandError.
func (f *OutputFormatter) Fail(err error) error {
	cliErr, exitCode := classify(err)
	_ = f.Error(cliErr.Code, cliErr.Message, cliErr.Details)
	return WrapExitError(exitCode, cliErr.Code, err)
}

// classify maps an error to its CLI code, message and exit code.
func classify(err error) (CLIError, int) {
	var qe *query.Error
	if errors.As(err, &qe) {
		msg := qe.Message
		if qe.Cause != nil {
			msg += ": " + qe.Cause.Error()
		}
		return CLIError{
			Code:    string(qe.Code),
			Message: msg,
			Details: &ErrorDetails{Name: qe.Code.Name(), Field: qe.Field},
		}, ExitFailure
	}

	var ce *config.LoadError
	if errors.As(err, &ce) {
		d := &ErrorDetails{File: ce.File}
		if ce.Pos.IsValid() {
			d.File = ce.Pos.Filename()
			d.Line = ce.Pos.Line()
			d.Column = ce.Pos.Column()
		}
		return CLIError{Code: ce.Code, Message: ce.Message, Details: d}, ExitCommandError
	}

	var le *LoadError
	if errors.As(err, &le) {
		return CLIError{Code: le.Code, Message: le.Message, Details: &ErrorDetails{File: le.File}}, ExitCommandError
	}
	return CLIError{Code: ErrCodeGeneric, Message: err.Error()}, ExitCommandError
}

// Warn outputs a warning on the diagnostic writer in text mode. JSON output
// carries warnings in the response instead.
func (f *OutputFormatter) Warn(format string, args ...interface{}) {
	if f.Format == "json" {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), "warning: "+format+"\n", args...)
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...interface{}) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}
