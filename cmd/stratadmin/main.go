package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/stratcomtech/stratadmin/internal/log"
	"github.com/stratcomtech/stratadmin/internal/notify"
	"github.com/stratcomtech/stratadmin/internal/session"
	"github.com/stratcomtech/stratadmin/internal/settings"
	"github.com/stratcomtech/stratadmin/internal/tui"
	"github.com/stratcomtech/stratadmin/pkg/client"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	apiURL := os.Getenv("STRATADMIN_API_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8000"
	}

	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "version", "-v":
			fmt.Println("stratadmin " + version)
			return nil
		case "help", "--help", "-h":
			printHelp()
			return nil
		case "logout":
			return runLogout(apiURL)
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("get home dir: %w", err)
	}
	logger, err := log.New(filepath.Join(home, ".stratadmin", "stratadmin.log"), os.Getenv("STRATADMIN_DEBUG") != "")
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}

	cfgPath, err := settings.DefaultPath()
	if err != nil {
		return err
	}
	store, err := settings.Load(cfgPath, logger)
	if err != nil {
		return err
	}

	c := client.New(apiURL, "")

	tokenPath, err := session.DefaultPath()
	if err != nil {
		return err
	}
	sessions := session.NewStore(tokenPath, logger)
	// A token that fails server verification is discarded; the login view
	// comes up instead.
	restored := false
	if token := sessions.Restore(context.Background(), c); token != "" {
		c.SetToken(token)
		restored = true
	}

	app := tui.NewApp(c, store, sessions, notify.NewPlayer(os.Stdout), logger, restored)

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithReportFocus())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui error: %w", err)
	}
	return nil
}

func runLogout(apiURL string) error {
	tokenPath, err := session.DefaultPath()
	if err != nil {
		return err
	}
	data, err := os.ReadFile(tokenPath)
	if os.IsNotExist(err) {
		fmt.Println("Already logged out.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("read token: %w", err)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("get home dir: %w", err)
	}
	logger, err := log.New(filepath.Join(home, ".stratadmin", "stratadmin.log"), false)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}

	sessions := session.NewStore(tokenPath, logger)
	sessions.Clear(context.Background(), client.New(apiURL, ""), string(data))
	fmt.Println("Logged out.")
	return nil
}

func printHelp() {
	fmt.Print(`stratadmin - terminal dashboard for STRATCOM application management

Usage:
  stratadmin            launch the dashboard
  stratadmin logout     invalidate and remove the saved session
  stratadmin version    print the version

Environment:
  STRATADMIN_API_URL    API base URL (default http://localhost:8000)
  STRATADMIN_DEBUG      set to any value for debug logging
`)
}
