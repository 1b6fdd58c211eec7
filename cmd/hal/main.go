package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/hal"
	"github.com/fwojciec/hal/filing"
	"github.com/fwojciec/hal/fs"
	"github.com/fwojciec/hal/gemini"
	"github.com/fwojciec/hal/goquery"
	"github.com/fwojciec/hal/htmltomarkdown"
	halhttp "github.com/fwojciec/hal/http"
	"github.com/fwojciec/hal/ladder"
	"github.com/fwojciec/hal/readability"
	"github.com/fwojciec/hal/rod"
	halslog "github.com/fwojciec/hal/slog"
	"github.com/fwojciec/hal/sqlite"
	"github.com/fwojciec/hal/trafilatura"
	"github.com/joho/godotenv"
	"google.golang.org/genai"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	m := NewMain()

	err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// EnvFile is loaded into the environment before flags are parsed.
	// Missing files are ignored.
	EnvFile string

	// SQLite catalog of cache writes.
	DB *sqlite.DB

	closers []io.Closer
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{EnvFile: ".env"}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	var errs []error
	for i := len(m.closers) - 1; i >= 0; i-- {
		errs = append(errs, m.closers[i].Close())
	}
	m.closers = nil
	if m.DB != nil {
		errs = append(errs, m.DB.Close())
		m.DB = nil
	}
	return errors.Join(errs...)
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if m.EnvFile != "" {
		if err := godotenv.Load(m.EnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", m.EnvFile, err)
		}
	}

	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("hal"),
		kong.Description("Fetch web pages and SEC filings as clean markdown"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}),
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'hal --help' to see available commands")
	}
	if args[0] == "help" || args[0] == "--help" || args[0] == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	cmd := strings.Fields(kongCtx.Command())[0]

	level := slog.LevelInfo
	if cli.Verbose {
		level = slog.LevelDebug
	}
	deps.Logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	if err := m.wire(ctx, cmd, &cli.Config, deps); err != nil {
		_ = m.Close()
		return err
	}
	defer m.Close()

	return kongCtx.Run(deps)
}

// wire builds the services cmd needs.
func (m *Main) wire(ctx context.Context, cmd string, cfg *Config, deps *Dependencies) error {
	if err := os.MkdirAll(cfg.CacheDir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory %q: %w", cfg.CacheDir, err)
	}

	m.DB = sqlite.NewDB(sqlite.CatalogPath(cfg.CacheDir))
	if err := m.DB.Open(); err != nil {
		fmt.Fprintf(deps.Stderr, "Hint: Set HAL_CACHE_DIR to use a different cache directory\n")
		return fmt.Errorf("failed to open catalog in %q: %w", cfg.CacheDir, err)
	}
	history := sqlite.NewHistoryService(m.DB)
	deps.History = history

	if cmd == "history" {
		return nil
	}

	allowlist, err := hal.NewAllowlist(cfg.Allowlist)
	if err != nil {
		return err
	}
	validator := halslog.NewLoggingValidator(halhttp.NewValidator(allowlist), deps.Logger)
	parser := goquery.NewParser()
	converter := htmltomarkdown.NewConverter()

	if cmd == "browse" || cmd == "serve" {
		l, err := m.newLadder(ctx, cfg, deps, validator, history)
		if err != nil {
			return err
		}
		l.Tables, l.Links, l.Text = parser, parser, parser
		l.Converter = converter
		deps.Ladder = l
	}

	if cmd == "filing" || cmd == "serve" {
		fetcher, err := halhttp.NewSECFetcher(validator, cfg.SECUserAgent)
		if err != nil {
			if cmd == "serve" {
				deps.Logger.Warn("filing endpoint disabled", "err", err)
				return nil
			}
			return err
		}
		logged := halslog.NewLoggingFetcher(fetcher, deps.Logger)
		deps.Filings = &filing.Resolver{
			Index:     halslog.NewLoggingFilingIndex(halhttp.NewFilingIndex(logged), deps.Logger),
			Store:     sqlite.NewCatalogingFilingStore(fs.NewFilingStore(cfg.CacheDir), history, deps.Logger),
			Fetcher:   logged,
			Converter: converter,
			Text:      parser,
			Logger:    deps.Logger,
		}
	}
	return nil
}

// newLadder launches the browser and assembles the extraction ladder.
func (m *Main) newLadder(ctx context.Context, cfg *Config, deps *Dependencies, validator hal.TargetValidator, history hal.History) (*ladder.Ladder, error) {
	var opts []rod.ManagerOption
	if cfg.BrowserBin != "" {
		opts = append(opts, rod.WithBrowserBin(cfg.BrowserBin))
	}
	if cfg.NoSandbox {
		opts = append(opts, rod.WithoutSandbox())
	}
	manager, err := rod.NewBrowserManager(opts...)
	if err != nil {
		fmt.Fprintln(deps.Stderr, "Hint: Chrome or Chromium must be installed (or set HAL_BROWSER_BIN)")
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}
	renderer := rod.NewLoggingRenderer(rod.NewRenderer(manager, validator), deps.Logger)
	m.closers = append(m.closers, renderer)

	vision, err := newVision(ctx, cfg, deps.Logger)
	if err != nil {
		fmt.Fprintln(deps.Stderr, "Hint: Check your GEMINI_API_KEY is valid")
		return nil, fmt.Errorf("failed to connect to Gemini API: %w", err)
	}

	scorer := hal.NewScorer()
	scorer.Threshold = cfg.Threshold
	scorer.MinContentChars = cfg.MinChars

	pages := fs.NewCacheStore(cfg.CacheDir)
	cache := sqlite.NewCatalogingStore(pages, history, pages.Dir, deps.Logger)

	return &ladder.Ladder{
		Validator:     validator,
		Cache:         halslog.NewLoggingCacheStore(cache, deps.Logger),
		Renderer:      renderer,
		Readability:   readability.NewExtractor(),
		Trafilatura:   trafilatura.NewExtractor(),
		Scorer:        scorer,
		Vision:        vision,
		Logger:        deps.Logger,
		RenderTimeout: time.Duration(cfg.TimeoutMS) * time.Millisecond,
	}, nil
}

// newVision returns the Gemini vision extractor, or a disabled one when no
// API key is configured.
func newVision(ctx context.Context, cfg *Config, logger *slog.Logger) (hal.Vision, error) {
	if cfg.GeminiAPIKey == "" {
		return hal.DisabledVision{Reason: "GEMINI_API_KEY not set"}, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}

	vision := gemini.NewVision(client.Models, cfg.VisionModel)
	counter, err := gemini.NewTokenCounter(gemini.TokenizerModel)
	if err != nil {
		logger.Warn("token counter unavailable, estimating hint length", "err", err)
	} else {
		vision.Counter = counter
	}
	return halslog.NewLoggingVision(vision, logger), nil
}
