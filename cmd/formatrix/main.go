// Command formatrix converts documents between markup dialects through
// one canonical tree.
package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/google/uuid"

	"github.com/formatrix/formatrix/core/ast"
	"github.com/formatrix/formatrix/core/astjson"
	"github.com/formatrix/formatrix/core/convert"
	"github.com/formatrix/formatrix/core/detect"
	"github.com/formatrix/formatrix/core/formats"
	"github.com/formatrix/formatrix/internal/cache"
	"github.com/formatrix/formatrix/internal/config"
	"github.com/formatrix/formatrix/internal/fileio"
	"github.com/formatrix/formatrix/internal/logging"
)

const version = "0.2.0"

// CLI defines the command-line interface for formatrix.
var CLI struct {
	// Global flags
	Config    string `help:"Config file path" type:"path"`
	LogLevel  string `name:"log-level" help:"Log level (debug, info, warn, error)"`
	LogFormat string `name:"log-format" help:"Log format (text, json)"`
	NoCache   bool   `name:"no-cache" help:"Bypass the conversion cache"`

	Convert ConvertCmd `cmd:"" help:"Convert a document to another dialect"`
	Parse   ParseCmd   `cmd:"" help:"Parse a document and print its canonical tree as JSON"`
	Render  RenderCmd  `cmd:"" help:"Render a canonical JSON tree to a dialect"`
	Detect  DetectCmd  `cmd:"" help:"Detect the dialect of a file"`
	Formats FormatsCmd `cmd:"" help:"List supported dialects and their features"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// loadConfig reads the config file and applies global flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return nil, err
	}
	if CLI.LogLevel != "" {
		cfg.Log.Level = CLI.LogLevel
	}
	if CLI.LogFormat != "" {
		cfg.Log.Format = CLI.LogFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	initLogging(cfg)
	return cfg, nil
}

func initLogging(cfg *config.Config) {
	level := logging.LevelInfo
	switch cfg.Log.Level {
	case "debug":
		level = logging.LevelDebug
	case "warn":
		level = logging.LevelWarn
	case "error":
		level = logging.LevelError
	}
	format := logging.FormatText
	if cfg.Log.Format == "json" {
		format = logging.FormatJSON
	}
	logging.InitLogger(level, format)
}

// resolveFormat accepts a dialect name or a file extension alias.
func resolveFormat(name string) (ast.SourceFormat, error) {
	f := ast.SourceFormat(strings.ToLower(name))
	if f.IsValid() {
		return f, nil
	}
	if f, ok := detect.FromExtension(name); ok {
		return f, nil
	}
	return "", fmt.Errorf("unknown format %q (supported: %s)", name, formatNames())
}

func formatNames() string {
	var names []string
	for _, f := range ast.Formats() {
		names = append(names, f.String())
	}
	return strings.Join(names, ", ")
}

// writeOutput writes to the given path, or stdout when path is empty.
func writeOutput(path, content string) error {
	if path == "" {
		_, err := fmt.Print(content)
		return err
	}
	return os.WriteFile(path, []byte(content), 0644)
}

// ConvertCmd converts a document to another dialect.
type ConvertCmd struct {
	Input  string `arg:"" help:"Input file" type:"existingfile"`
	Output string `short:"o" help:"Output file (default stdout, format from extension)" type:"path"`
	To     string `short:"t" help:"Target format (overrides output extension)"`
	From   string `short:"f" help:"Source format (overrides input extension)"`
}

func (c *ConvertCmd) Run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	convID := uuid.NewString()
	start := time.Now()

	data, err := os.ReadFile(c.Input)
	if err != nil {
		return err
	}
	input := string(data)

	source, err := c.sourceFormat(input)
	if err != nil {
		return err
	}
	target, err := c.targetFormat(cfg)
	if err != nil {
		return err
	}

	logging.Debug("conversion start",
		"conversion_id", convID, "source", source.String(), "target", target.String())

	// Cached entries are keyed without render options, so an
	// invocation carrying options always converts fresh.
	opts := cfg.RenderOptions(target.String())

	store := openCache(cfg)
	if store != nil {
		defer store.Close()
		if len(opts) == 0 {
			if e, ok, err := store.Get(source.String(), target.String(), input); err == nil && ok {
				logging.Debug("cache hit", "conversion_id", convID, "loss_class", e.LossClass)
				return writeOutput(c.Output, e.Output)
			}
		}
	}

	output, report, err := convert.Convert(source, target, input,
		formats.ParseConfig{PreserveRawSource: cfg.Convert.PreserveRawSource},
		formats.RenderConfig{Options: opts})
	if err != nil {
		return err
	}

	for _, lost := range report.LostElements {
		logging.Degradation(target.String(), lost.Feature, lost.Reason, "conversion_id", convID)
	}
	logging.Conversion(source.String(), target.String(), len(input), len(output),
		string(report.LossClass), time.Since(start), "conversion_id", convID)

	if store != nil && len(opts) == 0 {
		if err := store.Put(source.String(), target.String(), input, output, string(report.LossClass)); err != nil {
			logging.Warn("cache write failed", "error", err)
		}
	}

	return writeOutput(c.Output, output)
}

func (c *ConvertCmd) sourceFormat(input string) (ast.SourceFormat, error) {
	if c.From != "" {
		return resolveFormat(c.From)
	}
	if f, ok := detect.FromPath(c.Input); ok {
		return f, nil
	}
	return detect.FromContent(input), nil
}

func (c *ConvertCmd) targetFormat(cfg *config.Config) (ast.SourceFormat, error) {
	if c.To != "" {
		return resolveFormat(c.To)
	}
	if c.Output != "" {
		if f, ok := detect.FromPath(c.Output); ok {
			return f, nil
		}
	}
	return resolveFormat(cfg.Convert.DefaultTarget)
}

// openCache returns the conversion cache, or nil when disabled or
// unavailable. Cache failures degrade to uncached conversion.
func openCache(cfg *config.Config) *cache.Store {
	if CLI.NoCache || !cfg.Cache.Enabled {
		return nil
	}
	path, err := cfg.CachePath()
	if err != nil {
		logging.Warn("cache path unresolved", "error", err)
		return nil
	}
	if err := os.MkdirAll(dirOf(path), 0700); err != nil {
		logging.Warn("cache directory unavailable", "error", err)
		return nil
	}
	store, err := cache.OpenStore(path)
	if err != nil {
		logging.Warn("cache unavailable", "error", err)
		return nil
	}
	if _, err := store.Prune(cfg.CacheMaxAge()); err != nil {
		logging.Warn("cache prune failed", "error", err)
	}
	return store
}

func dirOf(path string) string {
	i := strings.LastIndexByte(path, os.PathSeparator)
	if i <= 0 {
		return "."
	}
	return path[:i]
}

// ParseCmd parses a document and prints its canonical tree as JSON.
type ParseCmd struct {
	Input  string `arg:"" help:"Input file" type:"existingfile"`
	Format string `short:"f" help:"Source format (overrides extension detection)"`
	Raw    bool   `help:"Preserve the raw source text on the document"`
}

func (c *ParseCmd) Run() error {
	if _, err := loadConfig(); err != nil {
		return err
	}

	parseCfg := formats.ParseConfig{PreserveRawSource: c.Raw}

	var opened *fileio.OpenedDocument
	var err error
	if c.Format != "" {
		f, ferr := resolveFormat(c.Format)
		if ferr != nil {
			return ferr
		}
		opened, err = fileio.OpenAs(c.Input, f, parseCfg)
	} else {
		opened, err = fileio.Open(c.Input, parseCfg)
	}
	if err != nil {
		return err
	}

	logging.Detection(c.Input, opened.Info.Format.String(), "open")

	data, err := astjson.Marshal(opened.Document)
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// RenderCmd renders a canonical JSON tree to a dialect.
type RenderCmd struct {
	Input  string `arg:"" help:"Canonical JSON file" type:"existingfile"`
	To     string `short:"t" required:"" help:"Target format"`
	Output string `short:"o" help:"Output file (default stdout)" type:"path"`
}

func (c *RenderCmd) Run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	target, err := resolveFormat(c.To)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(c.Input)
	if err != nil {
		return err
	}
	doc, err := astjson.Unmarshal(data)
	if err != nil {
		return err
	}

	output, err := convert.Render(target, doc, formats.RenderConfig{
		Options: cfg.RenderOptions(target.String()),
	})
	if err != nil {
		return err
	}
	return writeOutput(c.Output, output)
}

// DetectCmd detects the dialect of a file.
type DetectCmd struct {
	Path    string `arg:"" help:"File to inspect" type:"existingfile"`
	Content bool   `help:"Ignore the extension and sniff content only"`
}

func (c *DetectCmd) Run() error {
	if _, err := loadConfig(); err != nil {
		return err
	}

	if !c.Content {
		if f, ok := detect.FromPath(c.Path); ok {
			logging.Detection(c.Path, f.String(), "extension")
			fmt.Printf("%s\t(extension)\n", f)
			return nil
		}
	}

	data, err := os.ReadFile(c.Path)
	if err != nil {
		return err
	}
	f := detect.FromContent(string(data))
	logging.Detection(c.Path, f.String(), "content")
	fmt.Printf("%s\t(content)\n", f)
	return nil
}

// FormatsCmd lists supported dialects and their features.
type FormatsCmd struct {
	Features bool `help:"Show the full feature set per dialect"`
}

func (c *FormatsCmd) Run() error {
	for _, f := range ast.Formats() {
		handler, err := convert.HandlerFor(f)
		if err != nil {
			return err
		}
		features := handler.SupportedFeatures()
		fmt.Printf("%-10s .%-5s %d features\n", f, f.Extension(), len(features))
		if c.Features {
			fmt.Printf("           %s\n", strings.Join(features, ", "))
		}
	}
	return nil
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("formatrix version %s\n", version)
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("formatrix"),
		kong.Description("Document conversion between markup dialects through one canonical tree"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	err := ctx.Run(ctx)
	ctx.FatalIfErrorf(err)
}
