package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/fwojciec/hal"
	"github.com/fwojciec/hal/filing"
	"github.com/fwojciec/hal/ladder"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx     context.Context
	Stdout  io.Writer
	Stderr  io.Writer
	Logger  *slog.Logger
	Ladder  *ladder.Ladder
	Filings *filing.Resolver
	History hal.History
}

// Config holds settings shared by all commands. Every setting can also be
// given through the environment or a .env file.
type Config struct {
	CacheDir     string   `name:"cache-dir" env:"HAL_CACHE_DIR" default:".hal_cache" help:"Cache root directory"`
	TimeoutMS    int      `name:"timeout-ms" env:"HAL_BROWSER_TIMEOUT_MS" default:"20000" help:"Default render timeout in milliseconds"`
	Allowlist    []string `name:"allowlist" env:"HAL_ALLOWLIST_DOMAINS" sep:"," help:"Comma-separated domains that may be fetched (empty allows all)"`
	GeminiAPIKey string   `name:"gemini-api-key" env:"GEMINI_API_KEY" help:"Gemini API key; vision extraction is disabled without it"`
	VisionModel  string   `name:"vision-model" env:"HAL_VISION_MODEL" default:"gemini-2.5-flash" help:"Gemini model used for vision extraction"`
	SECUserAgent string   `name:"sec-user-agent" env:"HAL_SEC_USER_AGENT" help:"User-Agent declared to SEC EDGAR"`
	Threshold    float64  `name:"escalation-threshold" env:"HAL_ESCALATION_THRESHOLD" default:"0.55" help:"Score below which auto mode escalates to vision"`
	MinChars     int      `name:"min-content-chars" env:"HAL_MIN_CONTENT_CHARS" default:"800" help:"Text length below which auto mode escalates to vision"`
	BrowserBin   string   `name:"browser-bin" env:"HAL_BROWSER_BIN" help:"Chrome or Chromium binary (downloaded when empty)"`
	NoSandbox    bool     `name:"no-sandbox" env:"HAL_NO_SANDBOX" help:"Run Chrome without its sandbox (containers)"`
	Verbose      bool     `short:"v" help:"Log debug output to stderr"`
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Config `embed:""`

	Browse  BrowseCmd  `cmd:"" help:"Fetch pages and extract their content"`
	Filing  FilingCmd  `cmd:"" help:"Fetch the latest 10-K/10-Q filing for a ticker"`
	History HistoryCmd `cmd:"" help:"List recent cache writes"`
	Serve   ServeCmd   `cmd:"" help:"Serve the browse and filing APIs over HTTP"`
}

// BrowseCmd is the "browse" subcommand.
type BrowseCmd struct {
	URLs         []string `arg:"" name:"url" help:"Page URLs"`
	Mode         string   `enum:"auto,dom,vision" default:"auto" help:"Extraction mode (auto, dom, vision)"`
	WaitTimeout  int      `name:"wait-timeout-ms" help:"Render timeout in milliseconds (defaults to --timeout-ms)"`
	NoIdle       bool     `name:"no-network-idle" help:"Stop waiting at DOMContentLoaded instead of network idle"`
	WaitSelector string   `name:"wait-selector" help:"CSS selector to wait for before capture"`
	Selectors    []string `name:"screenshot-selector" help:"CSS selector to screenshot (repeatable)"`
	JSON         bool     `help:"Print results as JSON"`
	Out          string   `type:"path" help:"Write each result as a markdown file under this directory"`
	Concurrency  int      `short:"c" default:"4" help:"Concurrent fetch limit"`
}

// FilingCmd is the "filing" subcommand.
type FilingCmd struct {
	Ticker     string   `arg:"" help:"Company ticker symbol"`
	Forms      []string `default:"10-K,10-Q" sep:"," help:"Form types to consider"`
	Exhibits   bool     `help:"Also download exhibits"`
	Format     string   `enum:"html,text" default:"html" help:"Output format (html, text)"`
	NoDownload bool     `name:"no-download" help:"Fetch without storing the filing"`
	JSON       bool     `help:"Print the result as JSON"`
}

// HistoryCmd is the "history" subcommand.
type HistoryCmd struct {
	Kind  string `enum:"all,page,filing" default:"all" help:"Entry kind (all, page, filing)"`
	URL   string `name:"url" help:"Only entries for this URL"`
	Limit int    `short:"n" default:"20" help:"Maximum entries to list"`
}

// ServeCmd is the "serve" subcommand.
type ServeCmd struct {
	Addr string `env:"HAL_ADDR" default:"127.0.0.1:8080" help:"Listen address"`
}
