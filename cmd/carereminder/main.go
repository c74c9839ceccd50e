package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"

	"github.com/nhle/carereminder/internal/app"
	"github.com/nhle/carereminder/internal/credential"
	"github.com/nhle/carereminder/internal/model"
	transporthttp "github.com/nhle/carereminder/internal/transport/http"
)

const usage = `Usage: carereminder [flags] [command]

Commands:
  tui     interactive notification feed (default)
  serve   local JSON API for the notification feed
  once    run a single refresh and print the feed as JSON
  token   store the booking API token in the system keyring

Flags:
`

func main() {
	if err := run(); err != nil {
		slog.Error("carereminder failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env is normal; the environment is used as is.
	_ = godotenv.Load()

	configPath := flag.StringP("config", "c", model.DefaultConfigPath(), "path to config.yaml")
	addr := flag.String("addr", "", "listen address for serve (overrides http.addr)")
	verbose := flag.BoolP("verbose", "v", false, "debug logging")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := model.LoadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}

	cmd := "tui"
	if flag.NArg() > 0 {
		cmd = flag.Arg(0)
	}

	switch cmd {
	case "tui":
		return runTUI(cfg, level)
	case "serve":
		if *addr != "" {
			cfg.HTTP.Addr = *addr
		}
		return runServe(cfg, newLogger(os.Stderr, level))
	case "once":
		return runOnce(cfg, newLogger(os.Stderr, level))
	case "token":
		return runToken(flag.Args()[1:])
	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func newLogger(w *os.File, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// runTUI starts the Bubble Tea feed. Logs go to a file next to the
// config so they do not corrupt the terminal.
func runTUI(cfg *model.AppConfig, level slog.Level) error {
	logPath := filepath.Join(filepath.Dir(model.DefaultConfigPath()), "carereminder.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()

	logger := newLogger(logFile, level)
	slog.SetDefault(logger)

	comps, err := app.Build(context.Background(), cfg, logger)
	if err != nil {
		return err
	}
	defer comps.Close()

	p := tea.NewProgram(app.New(comps.Engine), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}

// runServe exposes the feed over HTTP until SIGINT/SIGTERM.
func runServe(cfg *model.AppConfig, logger *slog.Logger) error {
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = "127.0.0.1:8089"
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	comps, err := app.Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer comps.Close()

	comps.Engine.Start(ctx)
	defer comps.Engine.Dispose()

	handler := transporthttp.NewHandler(comps.Engine, logger.With("component", "http"))
	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      transporthttp.NewRouter(handler, cfg.HTTP.AllowedOrigins),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", cfg.HTTP.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("server stopped gracefully")
	return nil
}

// runOnce performs a single refresh and prints the published feed.
func runOnce(cfg *model.AppConfig, logger *slog.Logger) error {
	ctx := context.Background()

	comps, err := app.Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer comps.Close()

	comps.Engine.Refresh(ctx)
	snap := comps.Engine.Snapshot()

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap.Notifications); err != nil {
		return fmt.Errorf("encode notifications: %w", err)
	}
	if snap.Error != "" {
		return fmt.Errorf("refresh failed, printed cached feed: %s", snap.Error)
	}
	return nil
}

// runToken stores the API token given as an argument or on stdin.
func runToken(args []string) error {
	var token string
	if len(args) > 0 {
		token = args[0]
	} else {
		fmt.Fprint(os.Stderr, "Booking API token: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("read token: %w", err)
		}
		token = line
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("empty token")
	}
	if err := credential.Set(credential.APITokenKey, token); err != nil {
		return err
	}
	fmt.Fprintln(os.Stderr, "Token saved.")
	return nil
}
