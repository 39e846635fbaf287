// Package errors provides standardized error types and helpers for the
// Formatrix core. Every error surfaced across the parse/render boundary
// unwraps to one of the sentinel values below.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for the conversion taxonomy.
var (
	// ErrInvalidInput indicates malformed text for the stated dialect.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidEncoding indicates non-UTF-8 bytes at the boundary.
	ErrInvalidEncoding = errors.New("invalid encoding")
	// ErrUnsupportedFormat indicates an unknown SourceFormat value.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrNotFound indicates a resource was not found.
	ErrNotFound = errors.New("not found")
)

// ParseError represents a parse failure with dialect context.
type ParseError struct {
	Format  string // Dialect being parsed (e.g. "markdown")
	Line    int    // 1-indexed source line, 0 if unknown
	Message string // Error details
	Err     error  // Underlying error, if any
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("failed to parse %s at line %d: %s", e.Format, e.Line, e.Message)
	}
	return fmt.Sprintf("failed to parse %s: %s", e.Format, e.Message)
}

func (e *ParseError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// RenderError represents a render failure with dialect context.
type RenderError struct {
	Format  string // Dialect being rendered
	Message string // Error details
	Err     error  // Underlying error, if any
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("failed to render %s: %s", e.Format, e.Message)
}

func (e *RenderError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// EncodingError reports non-UTF-8 input with the offending byte offset.
type EncodingError struct {
	Offset int // Byte offset of the first invalid sequence
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("input is not valid UTF-8 (first invalid byte at offset %d)", e.Offset)
}

func (e *EncodingError) Unwrap() error {
	return ErrInvalidEncoding
}

// UnsupportedFormatError reports a format value no handler exists for.
type UnsupportedFormatError struct {
	Format    string // The rejected format value
	Operation string // Operation that was attempted ("parse", "render")
}

func (e *UnsupportedFormatError) Error() string {
	if e.Operation != "" {
		return fmt.Sprintf("unsupported format for %s: %q", e.Operation, e.Format)
	}
	return fmt.Sprintf("unsupported format: %q", e.Format)
}

func (e *UnsupportedFormatError) Unwrap() error {
	return ErrUnsupportedFormat
}

// NewParse creates a ParseError.
func NewParse(format, message string) *ParseError {
	return &ParseError{Format: format, Message: message}
}

// NewParseAt creates a ParseError pinned to a source line.
func NewParseAt(format string, line int, message string) *ParseError {
	return &ParseError{Format: format, Line: line, Message: message}
}

// NewRender creates a RenderError.
func NewRender(format, message string) *RenderError {
	return &RenderError{Format: format, Message: message}
}

// NewUnsupportedFormat creates an UnsupportedFormatError.
func NewUnsupportedFormat(format, operation string) *UnsupportedFormatError {
	return &UnsupportedFormatError{Format: format, Operation: operation}
}

// Wrap adds context to an error. If err is nil, returns nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf adds formatted context to an error. If err is nil, returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// Is wraps errors.Is for convenience.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
