// Package fileio provides file open, save, and convert operations with
// automatic format detection.
package fileio

import (
	"fmt"
	"os"

	"github.com/formatrix/formatrix/core/ast"
	"github.com/formatrix/formatrix/core/cache"
	"github.com/formatrix/formatrix/core/convert"
	"github.com/formatrix/formatrix/core/detect"
	"github.com/formatrix/formatrix/core/formats"
	"github.com/formatrix/formatrix/internal/validation"
)

// docCache holds recently parsed trees keyed by format and content, so
// converting one input to several targets parses once. Documents are
// immutable after parse, which makes sharing the cached tree safe.
// Parses that preserve the raw source bypass the cache: the flag
// changes the resulting document.
var docCache = cache.NewDefaultDocumentCache()

// FileInfo describes an opened file.
type FileInfo struct {
	// Path is the path the file was opened from.
	Path string

	// Format is the detected or requested dialect.
	Format ast.SourceFormat

	// Size is the file size in bytes.
	Size int64

	// ReadOnly reports whether the file lacks write permission.
	ReadOnly bool
}

// OpenedDocument pairs a parsed document with its file metadata.
type OpenedDocument struct {
	Document *ast.Document
	Info     FileInfo
}

// Open reads and parses a file. The format comes from the extension
// when recognized, otherwise from content sniffing.
func Open(path string, cfg formats.ParseConfig) (*OpenedDocument, error) {
	content, info, err := readFile(path)
	if err != nil {
		return nil, err
	}

	format, ok := detect.FromPath(path)
	if !ok {
		format = detect.FromContent(content)
	}

	return parseOpened(path, content, format, info, cfg)
}

// OpenAs reads and parses a file as an explicitly given format,
// bypassing detection.
func OpenAs(path string, format ast.SourceFormat, cfg formats.ParseConfig) (*OpenedDocument, error) {
	content, info, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return parseOpened(path, content, format, info, cfg)
}

func readFile(path string) (string, os.FileInfo, error) {
	if err := validation.ValidatePath(path); err != nil {
		return "", nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if err := validation.ValidateSize(info.Size()); err != nil {
		return "", nil, fmt.Errorf("%s: %w", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), info, nil
}

func parseOpened(path, content string, format ast.SourceFormat, info os.FileInfo, cfg formats.ParseConfig) (*OpenedDocument, error) {
	fileInfo := FileInfo{
		Path:     path,
		Format:   format,
		Size:     info.Size(),
		ReadOnly: info.Mode().Perm()&0200 == 0,
	}

	var key string
	if !cfg.PreserveRawSource {
		key = cache.DocumentKey(format.String(), content)
		if doc, ok := docCache.Get(key); ok {
			return &OpenedDocument{Document: doc, Info: fileInfo}, nil
		}
	}

	doc, err := convert.Parse(format, content, cfg)
	if err != nil {
		return nil, err
	}
	if key != "" {
		docCache.Put(key, doc)
	}
	return &OpenedDocument{Document: doc, Info: fileInfo}, nil
}

// Save renders a document and writes it to path. The target format
// comes from the extension, falling back to the document's source
// format when the extension is unknown.
func Save(doc *ast.Document, path string, cfg formats.RenderConfig) error {
	format, ok := detect.FromPath(path)
	if !ok {
		format = doc.SourceFormat
	}
	return SaveAs(doc, path, format, cfg)
}

// SaveAs renders a document as an explicitly given format and writes
// it to path.
func SaveAs(doc *ast.Document, path string, format ast.SourceFormat, cfg formats.RenderConfig) error {
	if err := validation.ValidatePath(path); err != nil {
		return err
	}
	output, err := convert.Render(format, doc, cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(output), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// ConvertFile opens inputPath, converts, and writes to outputPath. The
// target format comes from the output extension, falling back to the
// input's format. Returns the loss report for the conversion.
func ConvertFile(inputPath, outputPath string, parseCfg formats.ParseConfig, renderCfg formats.RenderConfig) (*ast.LossReport, error) {
	opened, err := Open(inputPath, parseCfg)
	if err != nil {
		return nil, err
	}

	target, ok := detect.FromPath(outputPath)
	if !ok {
		target = opened.Info.Format
	}

	report, err := convert.Preflight(opened.Document, target)
	if err != nil {
		return nil, err
	}

	if err := SaveAs(opened.Document, outputPath, target, renderCfg); err != nil {
		return nil, err
	}
	return report, nil
}
