// Package pipeline defines the transformation-step contract that the
// preprocessor chains: each step reads a Data input and produces a Data
// output (spec.md §3, §4 preamble).
package pipeline

import "os"

// Kind discriminates the two shapes a Data value can take.
type Kind int

const (
	Filename Kind = iota
	Buffer
)

// Data is a tagged value holding either a filename or an in-memory text
// buffer. The zero Data is an invalid, unset Filename.
type Data struct {
	kind   Kind
	name   string
	buf    *string
}

// NewFilename wraps a file path.
func NewFilename(path string) Data {
	return Data{kind: Filename, name: path}
}

// NewBuffer wraps buffer content by reference, matching "Buffer kind is
// valid iff the buffer pointer is non-null" (spec.md §3).
func NewBuffer(content string) Data {
	return Data{kind: Buffer, buf: &content}
}

func (d Data) Kind() Kind { return d.kind }

// Filename returns the wrapped path; only meaningful when Kind()==Filename.
func (d Data) Filename() string { return d.name }

// Buffer returns the wrapped text; only meaningful when Kind()==Buffer.
func (d Data) Buffer() string {
	if d.buf == nil {
		return ""
	}
	return *d.buf
}

// IsValidInput reports whether d can be read from: a non-empty filename
// that exists on disk, or a non-nil buffer.
func (d Data) IsValidInput() bool {
	switch d.kind {
	case Filename:
		if d.name == "" {
			return false
		}
		_, err := os.Stat(d.name)
		return err == nil
	case Buffer:
		return d.buf != nil
	default:
		return false
	}
}

// IsValidOutput reports whether d is a well-formed destination: a
// non-empty filename (need not yet exist), or a non-nil buffer.
func (d Data) IsValidOutput() bool {
	switch d.kind {
	case Filename:
		return d.name != ""
	case Buffer:
		return d.buf != nil
	default:
		return false
	}
}
