package errors

import (
	stderrors "errors"
	"testing"
)

func TestParseError(t *testing.T) {
	e := NewParse("markdown", "bad front matter")
	if got := e.Error(); got != "failed to parse markdown: bad front matter" {
		t.Errorf("Error() = %q", got)
	}
	if !Is(e, ErrInvalidInput) {
		t.Error("ParseError should unwrap to ErrInvalidInput")
	}

	at := NewParseAt("rst", 12, "bad directive")
	if got := at.Error(); got != "failed to parse rst at line 12: bad directive" {
		t.Errorf("Error() with line = %q", got)
	}

	wrapped := &ParseError{Format: "djot", Message: "io", Err: ErrNotFound}
	if !Is(wrapped, ErrNotFound) {
		t.Error("explicit Err should take unwrap precedence")
	}
	if Is(wrapped, ErrInvalidInput) {
		t.Error("explicit Err should replace the default sentinel")
	}
}

func TestRenderError(t *testing.T) {
	e := NewRender("typst", "unencodable table")
	if got := e.Error(); got != "failed to render typst: unencodable table" {
		t.Errorf("Error() = %q", got)
	}
	if !Is(e, ErrInvalidInput) {
		t.Error("RenderError should unwrap to ErrInvalidInput")
	}
}

func TestEncodingError(t *testing.T) {
	e := &EncodingError{Offset: 7}
	if !Is(e, ErrInvalidEncoding) {
		t.Error("EncodingError should unwrap to ErrInvalidEncoding")
	}
	if got := e.Error(); got != "input is not valid UTF-8 (first invalid byte at offset 7)" {
		t.Errorf("Error() = %q", got)
	}
}

func TestUnsupportedFormatError(t *testing.T) {
	e := NewUnsupportedFormat("docx", "parse")
	if got := e.Error(); got != `unsupported format for parse: "docx"` {
		t.Errorf("Error() = %q", got)
	}
	if !Is(e, ErrUnsupportedFormat) {
		t.Error("should unwrap to ErrUnsupportedFormat")
	}
	bare := &UnsupportedFormatError{Format: "docx"}
	if got := bare.Error(); got != `unsupported format: "docx"` {
		t.Errorf("Error() without operation = %q", got)
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, "context") != nil {
		t.Error("Wrap(nil) should be nil")
	}
	err := Wrap(ErrNotFound, "loading cache entry")
	if err.Error() != "loading cache entry: not found" {
		t.Errorf("Wrap = %q", err.Error())
	}
	if !Is(err, ErrNotFound) {
		t.Error("wrapped error should still match sentinel")
	}

	if Wrapf(nil, "x %d", 1) != nil {
		t.Error("Wrapf(nil) should be nil")
	}
	err = Wrapf(ErrInvalidInput, "line %d", 3)
	if err.Error() != "line 3: invalid input" {
		t.Errorf("Wrapf = %q", err.Error())
	}
}

func TestAs(t *testing.T) {
	var target *ParseError
	err := Wrap(NewParse("org", "boom"), "outer")
	if !As(err, &target) {
		t.Fatal("As should find the ParseError through wrapping")
	}
	if target.Format != "org" {
		t.Errorf("Format = %q, want org", target.Format)
	}
	if !stderrors.Is(err, ErrInvalidInput) {
		t.Error("stdlib errors.Is should agree with the helper")
	}
}
