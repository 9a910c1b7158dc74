package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"

	"pagecontent/internal/backend"
	"pagecontent/internal/config"
	"pagecontent/internal/crawler"
	"pagecontent/internal/extractor"
	"pagecontent/internal/ioformats"
	"pagecontent/internal/models"
	"pagecontent/internal/pipeline"
	"pagecontent/pkg/logger"
)

func main() {
	m := NewMain()
	if err := m.Run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct{}

func NewMain() *Main { return &Main{} }

type CLI struct {
	Config   string `help:"Path to YAML config." type:"path" env:"PAGECONTENT_CONFIG"`
	LogLevel string `help:"Override the configured log level." name:"log-level"`

	Extract   ExtractCmd   `cmd:"" help:"Fetch and extract URLs, one JSON line each."`
	Batch     BatchCmd     `cmd:"" help:"Fetch and extract the URLs listed in a CSV or NDJSON file."`
	HTML      HTMLCmd      `cmd:"" name:"html" help:"Extract a local HTML file without network access."`
	Summarize SummarizeCmd `cmd:"" help:"Fetch, extract and summarize a URL with the backend."`
	Compare   CompareCmd   `cmd:"" help:"Fetch a product page and ask the backend for alternatives."`
	Health    HealthCmd    `cmd:"" help:"Check that the backend is reachable."`
}

// Deps is bound into every command's Run.
type Deps struct {
	Ctx     context.Context
	Stdout  io.Writer
	Config  config.Config
	Engine  *extractor.Engine
	Pipe    *pipeline.Pipeline
	Backend *backend.Client
}

// Run parses args and executes the selected command.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("pagecontent"),
		kong.Description("Extract structured content from web pages."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}
	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no arguments provided")
	}

	kctx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	cfg, err := config.Load(cli.Config)
	if err != nil {
		return err
	}
	if cli.LogLevel != "" {
		cfg.Log.Level = cli.LogLevel
	}
	l := logger.NewWithConfig(stderr, cfg.Log.Level, cfg.Log.Format)

	engine := extractor.New(extractor.OptionsFrom(cfg.Extract), extractor.WithLogger(l))
	deps := &Deps{
		Ctx:     ctx,
		Stdout:  stdout,
		Config:  cfg,
		Engine:  engine,
		Pipe:    pipeline.New(crawler.FromConfig(cfg.Fetch), engine, l),
		Backend: backend.FromConfig(cfg.Backend),
	}
	return kctx.Run(deps)
}

type ExtractCmd struct {
	URLs        []string `arg:"" name:"url" help:"Page URLs."`
	Concurrency int      `short:"c" default:"4" help:"Concurrent fetch limit."`
}

func (c *ExtractCmd) Run(d *Deps) error {
	items := d.Pipe.Batch(d.Ctx, c.URLs, c.Concurrency)
	if err := ioformats.WriteNDJSON(d.Stdout, items); err != nil {
		return err
	}
	return failures(items)
}

type BatchCmd struct {
	Input       string `short:"i" required:"" type:"existingfile" help:"CSV with a 'url' column or NDJSON."`
	Output      string `short:"o" help:"NDJSON output file (default stdout)."`
	Concurrency int    `short:"c" default:"10" help:"Concurrent fetch limit."`
}

func (c *BatchCmd) Run(d *Deps) error {
	urls, err := ioformats.ReadURLs(c.Input)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	items := d.Pipe.Batch(d.Ctx, urls, c.Concurrency)

	w := d.Stdout
	if c.Output != "" {
		f, err := os.Create(c.Output)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		w = f
	}
	return ioformats.WriteNDJSON(w, items)
}

type HTMLCmd struct {
	File string `arg:"" type:"existingfile" help:"HTML file to extract."`
	URL  string `short:"u" help:"Source URL used for classification."`
}

func (c *HTMLCmd) Run(d *Deps) error {
	data, err := os.ReadFile(c.File)
	if err != nil {
		return err
	}
	pc, err := d.Engine.ExtractReader(bytes.NewReader(data), "", c.URL)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(d.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(pc)
}

type SummarizeCmd struct {
	URL string `arg:"" help:"Page URL."`
}

func (c *SummarizeCmd) Run(d *Deps) error {
	pc, err := d.Pipe.FetchAndExtract(d.Ctx, c.URL)
	if err != nil {
		return err
	}
	summary, err := d.Backend.Summarize(d.Ctx, pc)
	if err != nil {
		return err
	}
	fmt.Fprintln(d.Stdout, summary.Summary)
	for _, p := range summary.KeyPoints {
		fmt.Fprintf(d.Stdout, "- %s\n", p)
	}
	return nil
}

type CompareCmd struct {
	URL string `arg:"" help:"Product page URL."`
}

func (c *CompareCmd) Run(d *Deps) error {
	pc, err := d.Pipe.FetchAndExtract(d.Ctx, c.URL)
	if err != nil {
		return err
	}
	cmp, err := d.Backend.Compare(d.Ctx, pc)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(d.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(cmp)
}

type HealthCmd struct{}

func (c *HealthCmd) Run(d *Deps) error {
	h, err := d.Backend.Health(d.Ctx)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(d.Stdout, "%s (version %s, llm %s)\n", h.Status, h.Version, h.LLMStatus)
	return err
}

func failures(items []models.BatchItem) error {
	n := 0
	for _, it := range items {
		if it.Error != "" {
			n++
		}
	}
	if n > 0 {
		return fmt.Errorf("%d of %d urls failed", n, len(items))
	}
	return nil
}
