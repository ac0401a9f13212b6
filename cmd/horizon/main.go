package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"github.com/horizonprm/horizon/internal/app"
	"github.com/horizonprm/horizon/internal/config"
	"github.com/horizonprm/horizon/internal/logging"
	"github.com/horizonprm/horizon/internal/mcp"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"serve": true, "refresh": true,
	"calls": true, "call": true, "contacts": true, "contact": true,
	"dashboard": true, "actions": true,
	"add-call": true, "archive": true,
	"analyze": true, "personas": true,
	"search-person": true, "update-person": true, "diagnostics": true,
	"parse-acr": true, "ingest": true, "watch": true,
	"theme": true, "config": true,
	"help": true,
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode() bool {
	if len(os.Args) < 2 {
		return false // No args → MCP server
	}
	arg := os.Args[1]
	if cliCommands[arg] {
		return true
	}
	if arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" {
		return true
	}
	return false
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion() bool {
	if len(os.Args) < 2 {
		return false
	}
	arg := os.Args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, _ := os.Stdin.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
   _   _            _
  | | | | ___  _ __(_)_______  _ __
  | |_| |/ _ \| '__| |_  / _ \| '_ \
  |  _  | (_) | |  | |/ / (_) | | | |
  |_| |_|\___/|_|  |_/___\___/|_| |_|

  Call intelligence for your relationships

  Usage: horizon <command> [options]
         horizon serve
         horizon --help

  MCP server mode requires piped input.`)
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}

func main() {
	// No args + interactive terminal → show banner and exit
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// Handle --help/--version before any setup
	if isHelpOrVersion() {
		cliApp := newCLIApp(nil)
		if err := cliApp.Run(os.Args); err != nil {
			fatal("%v", err)
		}
		return
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if !isCLIMode() && len(os.Args) >= 2 && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'horizon --help' for usage.\n")
		os.Exit(1)
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		fatal("could not determine home directory: %v", err)
	}
	baseDir := filepath.Join(homeDir, ".horizon")

	cfg, err := config.Load(baseDir)
	if err != nil {
		fatal("failed to load config: %v", err)
	}

	// Logs go to stderr; stdout carries CLI JSON or the MCP stream.
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	if err != nil {
		fatal("failed to create logger: %v", err)
	}
	defer func() { _ = logging.Sync(log) }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, baseDir, cfg, log)
	if err != nil {
		fatal("%v", err)
	}
	defer a.Close()

	if isCLIMode() {
		cliApp := newCLIApp(a)
		if err := cliApp.RunContext(ctx, os.Args); err != nil {
			a.Close()
			fatal("%v", err)
		}
		return
	}

	// MCP server mode (default)
	if err := a.Store.Start(ctx); err != nil {
		log.Warn("initial refresh failed, serving fallback data", zap.Error(err))
	}
	if err := mcp.Run(ctx, a, Version); err != nil && ctx.Err() == nil {
		a.Close()
		fatal("%v", err)
	}
}
