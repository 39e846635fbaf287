// Package validation provides input validation for file paths and
// document sizes before they reach the parsers.
package validation

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// Limits on accepted inputs.
const (
	// MaxDocumentSize is the maximum accepted document size (64 MB).
	// Markup sources beyond this are almost certainly not documents.
	MaxDocumentSize = 64 << 20

	// MaxFilenameLength is the maximum allowed filename length.
	MaxFilenameLength = 255

	// MaxPathLength is the maximum allowed path length.
	MaxPathLength = 4096
)

// Common validation errors.
var (
	ErrDocumentTooLarge = errors.New("document too large")
	ErrInvalidFilename  = errors.New("invalid filename")
	ErrPathTooLong      = errors.New("path too long")
	ErrFilenameTooLong  = errors.New("filename too long")
	ErrInvalidCharacter = errors.New("invalid character in path")
	ErrEmptyPath        = errors.New("path cannot be empty")
)

// ValidatePath checks a path for length limits and invalid characters.
func ValidatePath(path string) error {
	if path == "" {
		return ErrEmptyPath
	}

	if len(path) > MaxPathLength {
		return ErrPathTooLong
	}

	if strings.Contains(path, "\x00") {
		return fmt.Errorf("%w: null byte not allowed", ErrInvalidCharacter)
	}

	for _, r := range path {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: control character not allowed", ErrInvalidCharacter)
		}
	}

	return nil
}

// ValidateSize checks a document size against MaxDocumentSize.
func ValidateSize(size int64) error {
	if size > MaxDocumentSize {
		return fmt.Errorf("%w: %d bytes (limit %d)", ErrDocumentTooLarge, size, MaxDocumentSize)
	}
	return nil
}

// ValidateFilename checks if a filename is safe to create. It rejects
// path separators, control characters, and reserved names.
func ValidateFilename(filename string) error {
	if filename == "" {
		return ErrInvalidFilename
	}

	if len(filename) > MaxFilenameLength {
		return ErrFilenameTooLong
	}

	if filename == "." || filename == ".." {
		return fmt.Errorf("%w: reserved name", ErrInvalidFilename)
	}

	if strings.ContainsAny(filename, "/\\") {
		return fmt.Errorf("%w: path separator not allowed", ErrInvalidFilename)
	}

	if strings.Contains(filename, "\x00") {
		return fmt.Errorf("%w: null byte not allowed", ErrInvalidFilename)
	}

	for _, r := range filename {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: control character not allowed", ErrInvalidFilename)
		}
	}

	// Filenames starting with hyphen can be confused with command flags
	if strings.HasPrefix(filename, "-") {
		return fmt.Errorf("%w: filename cannot start with hyphen", ErrInvalidFilename)
	}

	return nil
}

// SanitizeFilename makes a safe filename out of arbitrary input, for
// output names derived from document titles. Returns an error when
// nothing usable remains after cleaning.
func SanitizeFilename(filename string) (string, error) {
	if filename == "" {
		return "", ErrInvalidFilename
	}

	filename = strings.TrimSpace(filename)
	filename = strings.ReplaceAll(filename, "/", "_")
	filename = strings.ReplaceAll(filename, "\\", "_")
	filename = strings.ReplaceAll(filename, "\x00", "")

	var cleaned strings.Builder
	for _, r := range filename {
		if !unicode.IsControl(r) {
			cleaned.WriteRune(r)
		}
	}
	filename = cleaned.String()
	filename = strings.TrimLeft(filename, "-")

	if err := ValidateFilename(filename); err != nil {
		return "", err
	}
	return filename, nil
}
