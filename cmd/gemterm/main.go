package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/glabrego/gemterm/internal/app"
	"github.com/glabrego/gemterm/internal/browser"
	"github.com/glabrego/gemterm/internal/config"
	"github.com/glabrego/gemterm/internal/debug"
	"github.com/glabrego/gemterm/internal/gemini"
	"github.com/glabrego/gemterm/internal/storage"
	"github.com/glabrego/gemterm/internal/tui"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintln(os.Stderr, "gemterm needs an interactive terminal")
		os.Exit(1)
	}

	if cfg.DebugLog != "" {
		f, err := openDebugLog(cfg.DebugLog)
		if err != nil {
			log.Fatalf("debug log error: %v", err)
		}
		defer f.Close()
		debug.Log("starting: home=%s db=%s", cfg.Home, cfg.DBPath)
	}

	repo, err := storage.NewRepository(cfg.DBPath)
	if err != nil {
		log.Fatalf("storage init error: %v", err)
	}
	defer repo.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := repo.Init(ctx); err != nil {
		log.Fatalf("storage schema error: %v", err)
	}
	if err := repo.CheckWritable(ctx); err != nil {
		log.Fatalf("storage write check failed (%v). Verify GEMTERM_DB_PATH is writable: %s", err, cfg.DBPath)
	}

	client, err := gemini.NewClient(gemini.Options{
		KnownHosts:   repo,
		SOCKSProxy:   cfg.SOCKSProxy,
		MaxBodyBytes: cfg.MaxBodyBytes,
	})
	if err != nil {
		log.Fatalf("client error: %v", err)
	}
	service := app.NewService(client, cfg.MaxRedirects)

	browserApp := browser.New(service, browser.Options{
		Home:         cfg.Home,
		FetchTimeout: cfg.FetchTimeout,
	})
	defer browserApp.Close()

	model := tui.NewModel(browserApp, tui.Options{
		Home:         cfg.Home,
		TickInterval: cfg.TickInterval,
	})

	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		log.Fatalf("tui error: %v", err)
	}
}

// openDebugLog sends debug output to path. The standard logger keeps writing
// to stderr so startup failures stay visible.
func openDebugLog(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open debug log: %w", err)
	}
	debug.SetOutput(f)
	return f, nil
}
