package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/CTAG07/Pitcher/pkg/render"
	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// CLI is the command line of the pitcher binary.
type CLI struct {
	Config      string           `short:"c" help:"Configuration file path (.json, .yaml or .yml)" default:"config.json" env:"PITCHER_CONFIG"`
	Verbose     bool             `short:"v" help:"Enable debug logging, overriding the configured level"`
	ShowVersion kong.VersionFlag `name:"version" help:"Show version and exit"`

	Serve       ServeCmd       `cmd:"" default:"1" help:"Serve the site and the admin API"`
	Render      RenderCmd      `cmd:"" help:"Render one page to stdout"`
	Fingerprint FingerprintCmd `cmd:"" help:"Print the current site fingerprint"`
	Warm        WarmCmd        `cmd:"" help:"Render every page into the cache"`
}

// ServeCmd runs the site and admin servers until a shutdown signal.
type ServeCmd struct{}

// RenderCmd renders a single page through the cache.
type RenderCmd struct {
	Path string `arg:"" optional:"" help:"Page path, e.g. projects/first-project. Empty renders the index page."`
}

// FingerprintCmd prints the fingerprint the cache validates against.
type FingerprintCmd struct{}

// WarmCmd renders every page once.
type WarmCmd struct{}

func main() {
	loadEnvFiles()

	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("pitcher"),
		kong.Description("A flat-file content renderer."),
		kong.UsageOnError(),
		kong.Vars{"version": fmt.Sprintf("%s (%s, built %s)", Version, Commit, BuildDate)},
	)
	ctx.FatalIfErrorf(ctx.Run(&cli))
}

// loadEnvFiles loads .env and .env.local into the environment when present.
// Variables already set are left alone.
func loadEnvFiles() {
	for _, p := range []string{".env", ".env.local"} {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", p, err)
		}
	}
}

// cliLogger is the logger for one-shot commands. It writes to stderr so
// stdout carries only command output.
func (c *CLI) cliLogger(level string) *slog.Logger {
	l := parseLogLevel(level)
	if c.Verbose {
		l = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}

// openSite loads the configuration and wires the site without any servers.
func (c *CLI) openSite() (*Site, error) {
	config, err := LoadConfig(c.Config)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return NewSite(*config, c.cliLogger(config.Server.LogLevel), nil)
}

func (r *RenderCmd) Run(root *CLI) error {
	site, err := root.openSite()
	if err != nil {
		return err
	}
	res, err := site.Renderer.Render(context.Background(), render.Request{Path: strings.Trim(r.Path, "/")})
	if err != nil {
		return err
	}
	if res.Body == nil {
		return fmt.Errorf("page /%s: %s", r.Path, res.Outcome)
	}
	_, err = os.Stdout.Write(res.Body)
	return err
}

func (f *FingerprintCmd) Run(root *CLI) error {
	site, err := root.openSite()
	if err != nil {
		return err
	}
	fp, err := site.Store.Fingerprint()
	if err != nil {
		return err
	}
	fmt.Println(fp)
	return nil
}

func (w *WarmCmd) Run(root *CLI) error {
	site, err := root.openSite()
	if err != nil {
		return err
	}
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	report, err := site.Warmer.Warm(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("warmed %d pages in %s\n", report.Pages, report.Duration.Round(time.Millisecond))
	for outcome, n := range report.Outcomes {
		fmt.Printf("  %-15s %d\n", outcome, n)
	}
	if report.Failures > 0 {
		return fmt.Errorf("%d pages failed to render", report.Failures)
	}
	return nil
}

func (s *ServeCmd) Run(root *CLI) error {
	baseLogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	actionChan := make(chan string, 1)

	go func() {
		osSignalChan := make(chan os.Signal, 1)
		signal.Notify(osSignalChan, syscall.SIGINT, syscall.SIGTERM)
		<-osSignalChan // Wait for a signal
		baseLogger.Info("OS signal received, initiating shutdown.")
		actionChan <- actionShutdown
	}()

	for {
		action, err := run(root.Config, root.Verbose, actionChan)
		if err != nil {
			baseLogger.Error("An error occurred during server run, shutting down.", "error", err)
			return err
		}

		if action == actionRestart {
			baseLogger.Info("--- Server Restarting ---")
			continue
		}
		break
	}

	baseLogger.Info("Pitcher has shut down.")
	return nil
}

// run hosts both servers, and returns whenever the server is shut down or restarted.
func run(configPath string, verbose bool, actionChan chan string) (string, error) {
	cm, err := NewConfigManager(configPath)
	if err != nil {
		return "", fmt.Errorf("failed to load configuration: %w", err)
	}
	if verbose {
		cm.LevelVar().Set(slog.LevelDebug)
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cm.LevelVar()}))
	cm.SetLogger(logger)
	logger.Info("Starting server cycle...", "version", Version, "config", configPath)

	config := cm.Get()

	db, err := initDB(config.Server.StatsDatabasePath)
	if err != nil {
		return "", fmt.Errorf("failed to initialize database: %w", err)
	}
	if err = setupStatsSchema(db); err != nil {
		_ = db.Close()
		return "", fmt.Errorf("failed to setup stats schema: %w", err)
	}

	server, err := NewServer(cm, logger, db, actionChan)
	if err != nil {
		_ = db.Close()
		return "", fmt.Errorf("failed to create server object: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	watcher, err := NewConfigWatcher(cm, logger)
	if err != nil {
		logger.Warn("Config hot reload disabled", "error", err)
	} else if err = watcher.Start(ctx); err != nil {
		logger.Warn("Config hot reload disabled", "error", err)
	}

	warmer := server.site.Warmer
	if config.Cache.WarmIntervalSec > 0 {
		interval := time.Duration(config.Cache.WarmIntervalSec) * time.Second
		if err = warmer.Schedule(interval, config.Cache.WarmOnStart); err != nil {
			logger.Error("Failed to schedule cache warming", "error", err)
		}
	} else if config.Cache.WarmOnStart {
		go func() {
			if _, err := warmer.Warm(ctx); err != nil {
				logger.Error("Startup cache warm failed", "error", err)
			}
		}()
	}

	siteHttpServer := &http.Server{Addr: config.Server.SiteAddr, Handler: server.siteMux}
	apiHttpServer := &http.Server{Addr: config.Server.ApiAddr, Handler: server.apiMux}

	go func() {
		logger.Info("Starting admin api server", "address", apiHttpServer.Addr)
		if err := apiHttpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Api server failed", "error", err)
		}
	}()

	go func() {
		logger.Info("Starting Pitcher site server", "address", siteHttpServer.Addr, "site_root", server.site.Layout.Root)
		if err := siteHttpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Site server failed", "error", err)
		}
	}()

	action := <-actionChan // Block here until API or OS signal sends an action.

	logger.Info("Stopping servers for " + action + "...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err = apiHttpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Api server shutdown failed", "error", err)
	}
	if err = siteHttpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Site server shutdown failed", "error", err)
	}
	logger.Info("HTTP servers stopped.")

	if watcher != nil {
		watcher.Stop()
	}
	cancel()
	if err = warmer.Stop(); err != nil {
		logger.Error("Cache warm scheduler shutdown failed", "error", err)
	}

	logger.Info("Closing database connection.")
	if err = db.Close(); err != nil {
		logger.Error("Failed to close database", "error", err)
	}

	return action, nil
}
