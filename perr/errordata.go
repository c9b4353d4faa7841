// Package perr holds the preprocessor's shared error/warning accumulator.
//
// It is deliberately tiny and dependency-free so that every pipeline stage
// (copy resolution, parsing, code generation) and the driver that chains
// them can report into the same record without creating import cycles.
package perr

import "fmt"

// Code is a preprocessor-level exit/error code. Zero means success.
type Code int

const (
	OK Code = 0

	// Usage / input errors, matching the CLI exit codes in spec.md §6.
	BadInputFile  Code = 1
	BadOutputFile Code = 2
	InputNotFound Code = 4

	// Preprocessing errors.
	CopyNotFound      Code = 10
	CopyCycle         Code = 11
	SyntaxError       Code = 12
	UnexpectedEOF     Code = 13
	DuplicateDeclare  Code = 14
	OptionsInvalid    Code = 15
	OutputWriteFailed Code = 16
)

// Data accumulates the error code, error messages, and warnings produced
// over the course of a pipeline run. A zero Data is "no error yet".
type Data struct {
	code     Code
	errors   []string
	warnings []string
}

// New returns an empty, successful Data.
func New() *Data {
	return &Data{}
}

// Fail records code and message, unless a failure has already been
// recorded — the first failure sticks, matching the driver's "propagate
// false immediately" contract (spec.md §4.5).
func (d *Data) Fail(code Code, format string, args ...any) {
	if d.code != OK {
		return
	}
	d.code = code
	d.errors = append(d.errors, fmt.Sprintf(format, args...))
}

// Warn appends a warning without touching the error code. Warnings never
// halt the pipeline (spec.md §7).
func (d *Data) Warn(format string, args ...any) {
	d.warnings = append(d.warnings, fmt.Sprintf(format, args...))
}

// Code returns the accumulated error code (zero if nothing failed yet).
func (d *Data) Code() Code {
	return d.code
}

// OK reports whether no failure has been recorded.
func (d *Data) OK() bool {
	return d.code == OK
}

// Errors returns the ordered list of error messages recorded so far.
func (d *Data) Errors() []string {
	return d.errors
}

// Warnings returns the ordered list of warnings recorded so far.
func (d *Data) Warnings() []string {
	return d.warnings
}
