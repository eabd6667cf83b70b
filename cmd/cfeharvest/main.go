// CLAUDE:SUMMARY CLI entry point for cfeharvest — login, harvest, extract, fallback sweep, export, finalize.
// Command cfeharvest logs into the DGI e-invoice portal, harvests the
// received-CFE result grid, and persists each record exactly once.
//
// Usage:
//
//	cfeharvest                       # headless run with env/.env settings
//	cfeharvest -config cfe.yaml      # YAML settings below env overrides
//	cfeharvest -headful -pause       # watch the browser, keep it open after
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"cfeharvest/audit"
	"cfeharvest/browser"
	"cfeharvest/config"
	"cfeharvest/dataset"
	"cfeharvest/extract"
	"cfeharvest/harvest"
	"cfeharvest/interact"
	"cfeharvest/session"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	headful := flag.Bool("headful", false, "run Chrome with a visible window")
	devtools := flag.Bool("devtools", false, "auto-open devtools (headful only)")
	pause := flag.Duration("pause", 0, "keep the browser open this long after the run")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, *configPath, *headful, *devtools, *pause); err != nil {
		logger.Error("cfeharvest: fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, configPath string, headful, devtools bool, pause time.Duration) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if headful {
		cfg.Headless = false
	}
	if devtools {
		cfg.Devtools = true
	}

	// The audit trail is wanted, not required: a locked or unwritable DB
	// degrades to log lines.
	var auditLog *audit.Logger
	if db, err := audit.Open(cfg.AuditDB); err != nil {
		logger.Warn("cfeharvest: audit DB unavailable, continuing without", "error", err)
	} else {
		defer db.Close()
		auditLog = audit.NewLogger(db, logger)
		if err := auditLog.Init(); err != nil {
			logger.Warn("cfeharvest: audit init failed, continuing without", "error", err)
			auditLog = nil
		}
	}
	if auditLog != nil {
		auditLog.Log(ctx, audit.EventRunStart, config.PortalURL, "", true)
	}

	store := dataset.NewStore(cfg.OutputFile, logger)
	defer store.Close()
	processed := store.LoadProcessed()
	logger.Info("cfeharvest: resuming", "already_processed", len(processed))

	mgr := browser.NewManager(browser.Config{
		Headless: cfg.Headless,
		Devtools: cfg.Devtools,
		Logger:   logger,
	})
	b, err := mgr.Start()
	if err != nil {
		return fmt.Errorf("browser: %w", err)
	}
	defer mgr.Close()

	page, err := browser.OpenTab(ctx, b, config.PortalURL, cfg.LoadTimeout, logger)
	if err != nil {
		return fmt.Errorf("open portal: %w", err)
	}

	finder := &interact.Finder{Logger: logger}
	arbiter := &interact.Arbiter{
		NavTimeout:  cfg.NavTimeout,
		LoadTimeout: cfg.LoadTimeout,
		Logger:      logger,
	}
	wf := &session.Workflow{
		Config:  cfg,
		Finder:  finder,
		Setter:  &interact.Setter{Logger: logger},
		Arbiter: arbiter,
		Audit:   auditLog,
		Logger:  logger,
	}

	res, err := wf.Run(ctx, page)
	if err != nil {
		if auditLog != nil {
			auditLog.Log(ctx, audit.EventRunEnd, res.URL, err.Error(), false)
		}
		return fmt.Errorf("session: %w", err)
	}
	if res.State != session.StateQueried {
		logger.Warn("cfeharvest: session stopped early, harvesting current page anyway",
			"state", string(res.State), "url", res.URL)
	}

	candidates := harvest.Links(res.Page, logger)
	logger.Info("cfeharvest: candidates harvested", "count", len(candidates))

	ex := &extract.Extractor{
		Browser:     b,
		Store:       store,
		Audit:       auditLog,
		Arbiter:     arbiter,
		LoadTimeout: cfg.LoadTimeout,
		Logger:      logger,
	}
	stats := ex.Run(ctx, candidates)
	logger.Info("cfeharvest: link pass done",
		"appended", stats.Appended, "duplicates", stats.Duplicates, "failed", stats.Failed)

	// Structural sweep for grid rows that navigate via script instead of
	// harvestable URLs.
	seen := store.LoadProcessed()
	clickables := harvest.FallbackClickables(res.Page, seen, logger)
	if len(clickables) > 0 {
		fbStats := ex.RunFallback(ctx, res.Page, clickables)
		logger.Info("cfeharvest: fallback pass done",
			"appended", fbStats.Appended, "duplicates", fbStats.Duplicates, "failed", fbStats.Failed)
		stats.Appended += fbStats.Appended
		stats.Duplicates += fbStats.Duplicates
		stats.Failed += fbStats.Failed
	}

	if path, err := session.ExportXLS(b, res.Page, cfg.DownloadDir, cfg.LoadTimeout, finder, logger); err != nil {
		logger.Warn("cfeharvest: portal export skipped", "error", err)
	} else {
		logger.Info("cfeharvest: portal export saved", "path", path)
	}

	final, err := store.Finalize()
	if err != nil {
		return fmt.Errorf("finalize: %w", err)
	}
	logger.Info("cfeharvest: run complete",
		"output", final,
		"appended", stats.Appended, "duplicates", stats.Duplicates, "failed", stats.Failed)
	if auditLog != nil {
		auditLog.Log(ctx, audit.EventRunEnd, final,
			fmt.Sprintf("appended=%d duplicates=%d failed=%d", stats.Appended, stats.Duplicates, stats.Failed), true)
	}

	if pause > 0 {
		logger.Info("cfeharvest: pausing before browser close", "duration", pause.String())
		select {
		case <-ctx.Done():
		case <-time.After(pause):
		}
	}
	return nil
}
