package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/T-Lind/health-frontend/internal/config"
	"github.com/T-Lind/health-frontend/internal/db"
	"github.com/T-Lind/health-frontend/internal/gateway"
	"github.com/T-Lind/health-frontend/internal/mcp"
	"github.com/T-Lind/health-frontend/internal/session"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"classify": true, "history": true, "delete": true,
	"chat": true, "search": true, "shell": true,
	"help": true,
}

// globalFlags are accepted before the subcommand.
var globalFlags = map[string]bool{"--verbose": true, "-V": true}

// firstArg returns the first argument that is not a global flag.
func firstArg(args []string) string {
	for _, a := range args[1:] {
		if !globalFlags[a] {
			return a
		}
	}
	return ""
}

// isVerbose reports whether --verbose was given before the subcommand.
func isVerbose(args []string) bool {
	for _, a := range args[1:] {
		if !globalFlags[a] {
			return false
		}
		if a == "--verbose" || a == "-V" {
			return true
		}
	}
	return false
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode() bool {
	arg := firstArg(os.Args)
	if arg == "" {
		return false // No args → MCP server
	}
	if cliCommands[arg] {
		return true
	}
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v"
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion() bool {
	arg := firstArg(os.Args)
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
   _____ _          _ _   _
  / ____| |        | | | | |
 | (___ | |__   ___| | |_| |__
  \___ \| '_ \ / _ \ | __| '_ \
  ____) | | | |  __/ | |_| | | |
 |_____/|_| |_|\___|_|\__|_| |_|

  Patient message risk classification and clinical assistant

  Usage: shelth <command> [options]
         shelth shell
         shelth --help

  MCP server mode requires piped input.`)
}

// newLogger builds a JSON logger on stderr. stdout carries command output
// and, in MCP mode, the protocol stream.
func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return cfg.Build()
}

// openSession restores what the surface needs up front. CLI commands start
// from the local history only; the ones that show the chat fetch it
// themselves. The MCP server loads both.
func openSession(ctx context.Context, ctrl *session.Controller, cliMode bool) {
	if cliMode {
		ctrl.LoadRecords(ctx)
		return
	}
	// A transcript failure is logged by Open; the session still works.
	_, _ = ctrl.Open(ctx)
}

func fail(format string, args ...any) {
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
		app := newCLIApp(nil)
		if err := app.Run(os.Args); err != nil {
			fail("%v", err)
		}
		return
	}

	logger, err := newLogger(isVerbose(os.Args))
	if err != nil {
		fail("failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	homeDir, err := os.UserHomeDir()
	if err != nil {
		fail("could not determine home directory: %v", err)
	}
	baseDir := filepath.Join(homeDir, ".shelth")

	cwd, err := os.Getwd()
	if err != nil {
		fail("could not determine working directory: %v", err)
	}
	cfg, err := config.LoadWithRepo(baseDir, cwd)
	if err != nil {
		fail("failed to load config: %v", err)
	}
	cfg = config.ApplyEnv(cfg)

	database, err := db.Init(baseDir)
	if err != nil {
		fail("failed to initialize database: %v", err)
	}
	defer database.Close()
	db.ConfigurePool(database, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctrl := session.New(db.NewLocalStorage(database), gateway.FromConfig(cfg, logger), logger)
	openSession(ctx, ctrl, isCLIMode())

	// CLI mode: known subcommand
	if isCLIMode() {
		app := newCLIApp(&env{ctrl: ctrl, cfg: cfg})
		if err := app.RunContext(ctx, os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			database.Close()
			os.Exit(1)
		}
		return
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if firstArg(os.Args) != "" && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", firstArg(os.Args))
		fmt.Fprintf(os.Stderr, "Run 'shelth --help' for usage.\n")
		os.Exit(1)
	}

	// MCP server mode (default)
	if err := mcp.Run(ctrl, cfg, Version, logger); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
