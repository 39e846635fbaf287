package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/formatrix/formatrix/core/ast"
)

func createTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}
	return path
}

// resetCLI clears global flags between tests.
func resetCLI(t *testing.T) {
	t.Helper()
	CLI.Config = filepath.Join(t.TempDir(), "no-config.toml")
	CLI.LogLevel = ""
	CLI.LogFormat = ""
	CLI.NoCache = true
}

func TestResolveFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    ast.SourceFormat
		wantErr bool
	}{
		{"markdown", ast.Markdown, false},
		{"md", ast.Markdown, false},
		{"MD", ast.Markdown, false},
		{"asciidoc", ast.AsciiDoc, false},
		{"adoc", ast.AsciiDoc, false},
		{"org", ast.OrgMode, false},
		{"rst", ast.ReStructuredText, false},
		{"typ", ast.Typst, false},
		{"dj", ast.Djot, false},
		{"txt", ast.PlainText, false},
		{"docx", "", true},
	}
	for _, tt := range tests {
		got, err := resolveFormat(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("resolveFormat(%q) expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("resolveFormat(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("resolveFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestConvertCmd_Run(t *testing.T) {
	resetCLI(t)
	dir := t.TempDir()
	input := createTestFile(t, dir, "doc.md", "# Hello\n\nWorld\n")
	output := filepath.Join(dir, "doc.adoc")

	cmd := &ConvertCmd{Input: input, Output: output}
	if err := cmd.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "== Hello") {
		t.Errorf("output not AsciiDoc: %q", string(data))
	}
}

func TestConvertCmd_Run_ExplicitFormats(t *testing.T) {
	resetCLI(t)
	dir := t.TempDir()
	// Extension lies; explicit flags win.
	input := createTestFile(t, dir, "doc.bin", "# Hello\n\nWorld\n")
	output := filepath.Join(dir, "out.bin")

	cmd := &ConvertCmd{Input: input, Output: output, From: "markdown", To: "org"}
	if err := cmd.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "* Hello") {
		t.Errorf("output not Org: %q", string(data))
	}
}

func TestConvertCmd_Run_CacheRoundTrip(t *testing.T) {
	resetCLI(t)
	dir := t.TempDir()

	// Point the cache at a temp location via config.
	cfgPath := filepath.Join(dir, "config.toml")
	cachePath := filepath.Join(dir, "cache.db")
	cfg := "[cache]\nenabled = true\npath = " + `"` + cachePath + `"` + "\n"
	if err := os.WriteFile(cfgPath, []byte(cfg), 0600); err != nil {
		t.Fatal(err)
	}
	CLI.Config = cfgPath
	CLI.NoCache = false

	input := createTestFile(t, dir, "doc.md", "# Cached\n\nBody\n")
	out1 := filepath.Join(dir, "a.rst")
	out2 := filepath.Join(dir, "b.rst")

	if err := (&ConvertCmd{Input: input, Output: out1}).Run(); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if _, err := os.Stat(cachePath); err != nil {
		t.Fatalf("cache file missing: %v", err)
	}
	// Second conversion hits the cache and must produce identical output.
	if err := (&ConvertCmd{Input: input, Output: out2}).Run(); err != nil {
		t.Fatalf("second Run: %v", err)
	}

	d1, _ := os.ReadFile(out1)
	d2, _ := os.ReadFile(out2)
	if string(d1) != string(d2) {
		t.Error("cached output differs from fresh output")
	}
	if !strings.Contains(string(d1), "Cached") {
		t.Errorf("output missing text: %q", string(d1))
	}
}

func TestParseThenRender(t *testing.T) {
	resetCLI(t)
	dir := t.TempDir()
	input := createTestFile(t, dir, "doc.md", "# Title\n\nSome *emphasis* here.\n")

	// parse writes JSON to stdout; capture it through a pipe.
	jsonOut := captureStdout(t, func() {
		if err := (&ParseCmd{Input: input}).Run(); err != nil {
			t.Errorf("ParseCmd.Run: %v", err)
		}
	})
	if !strings.Contains(jsonOut, `"type": "heading"`) {
		t.Fatalf("parse output missing heading node: %q", jsonOut)
	}

	jsonPath := createTestFile(t, dir, "doc.json", jsonOut)
	rendered := filepath.Join(dir, "doc.typ")
	cmd := &RenderCmd{Input: jsonPath, To: "typst", Output: rendered}
	if err := cmd.Run(); err != nil {
		t.Fatalf("RenderCmd.Run: %v", err)
	}

	data, err := os.ReadFile(rendered)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "= Title") {
		t.Errorf("rendered Typst missing heading: %q", string(data))
	}
}

func TestDetectCmd_Run(t *testing.T) {
	resetCLI(t)
	dir := t.TempDir()

	// Unknown extension, org content.
	input := createTestFile(t, dir, "notes.data", "#+TITLE: Notes\n\n* Heading\n")
	out := captureStdout(t, func() {
		if err := (&DetectCmd{Path: input}).Run(); err != nil {
			t.Errorf("DetectCmd.Run: %v", err)
		}
	})
	if !strings.Contains(out, "org") || !strings.Contains(out, "content") {
		t.Errorf("detect output = %q", out)
	}

	// Known extension wins without sniffing.
	input2 := createTestFile(t, dir, "doc.rst", "plain body\n")
	out2 := captureStdout(t, func() {
		if err := (&DetectCmd{Path: input2}).Run(); err != nil {
			t.Errorf("DetectCmd.Run: %v", err)
		}
	})
	if !strings.Contains(out2, "rst") || !strings.Contains(out2, "extension") {
		t.Errorf("detect output = %q", out2)
	}
}

func TestFormatsCmd_Run(t *testing.T) {
	resetCLI(t)
	out := captureStdout(t, func() {
		if err := (&FormatsCmd{}).Run(); err != nil {
			t.Errorf("FormatsCmd.Run: %v", err)
		}
	})
	for _, f := range ast.Formats() {
		if !strings.Contains(out, f.String()) {
			t.Errorf("formats output missing %s", f)
		}
	}
}

func TestVersionCmd_Run(t *testing.T) {
	out := captureStdout(t, func() {
		if err := (&VersionCmd{}).Run(); err != nil {
			t.Errorf("VersionCmd.Run: %v", err)
		}
	})
	if !strings.Contains(out, version) {
		t.Errorf("version output = %q", out)
	}
}

// captureStdout runs fn with os.Stdout redirected to a pipe and returns
// what it wrote.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	orig := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	os.Stdout = w

	done := make(chan string)
	go func() {
		var sb strings.Builder
		buf := make([]byte, 4096)
		for {
			n, err := r.Read(buf)
			sb.Write(buf[:n])
			if err != nil {
				break
			}
		}
		done <- sb.String()
	}()

	fn()

	w.Close()
	os.Stdout = orig
	return <-done
}
