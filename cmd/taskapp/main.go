// taskapp serves the task and tag HTTP API and provides operator
// commands for managing users and tag counts.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/nhle/taskapp/internal/app"
	"github.com/nhle/taskapp/internal/model"
	"github.com/nhle/taskapp/internal/theme"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, theme.ErrorStyle.Render("error: "+err.Error()))
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) < 1 {
		printUsage()
		return fmt.Errorf("subcommand required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	subcommand, rest := args[0], args[1:]
	switch subcommand {
	case "serve":
		return runServe(ctx, rest)
	case "user":
		if len(rest) < 1 || rest[0] != "add" {
			return fmt.Errorf("usage: taskapp user add <username> [flags]")
		}
		return runUserAdd(ctx, rest[1:])
	case "admin":
		if len(rest) < 1 {
			return fmt.Errorf("usage: taskapp admin set-password|clear-password [flags]")
		}
		switch rest[0] {
		case "set-password":
			return runAdminSetPassword(rest[1:])
		case "clear-password":
			return runAdminClearPassword(rest[1:])
		default:
			return fmt.Errorf("unknown admin subcommand: %q", rest[0])
		}
	case "tags":
		return runTags(ctx, rest)
	case "tasks":
		return runTasks(ctx, rest)
	case "reconcile":
		return runReconcile(ctx, rest)
	case "config":
		if len(rest) < 1 || rest[0] != "init" {
			return fmt.Errorf("usage: taskapp config init [flags]")
		}
		return runConfigInit(rest[1:])
	case "version":
		fmt.Printf("taskapp %s\n", version)
		return nil
	case "-h", "--help", "help":
		printUsage()
		return nil
	default:
		printUsage()
		return fmt.Errorf("unknown subcommand: %q", subcommand)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage: taskapp <subcommand> [flags]

Subcommands:
  serve               Run the HTTP API
  user add <name>     Register a user (--admin for an administrator)
  admin set-password  Store the bootstrap admin password in the keyring
  admin clear-password
                      Remove the stored admin password from the keyring
  tags                List tags that have tasks
  tasks               List tasks grouped by priority
  reconcile           Recount every tag and repair drifted counts
  config init         Write a default configuration file
  version             Print version information

Run 'taskapp <subcommand> --help' for subcommand flags.
`)
}

// commonFlags are accepted by every subcommand that opens the app.
type commonFlags struct {
	set        *pflag.FlagSet
	configPath string

	// cfg is set by load.
	cfg *model.AppConfig
}

func newFlagSet(name string) *commonFlags {
	f := &commonFlags{set: pflag.NewFlagSet(name, pflag.ContinueOnError)}
	f.set.StringVar(&f.configPath, "config", model.DefaultConfigPath(), "path to the YAML configuration file")
	f.set.String("db-driver", "", "database driver: sqlite or pgx")
	f.set.String("db", "", "database file path (sqlite) or connection URL (pgx)")
	f.set.String("files-dir", "", "directory for task attachments")
	f.set.String("log-level", "", "log level: debug, info, warn or error")
	return f
}

func (f *commonFlags) parse(args []string) error {
	return f.set.Parse(args)
}

func (f *commonFlags) load() (*model.AppConfig, *slog.Logger, error) {
	cfg, err := model.LoadConfig(f.configPath, f.set)
	if err != nil {
		return nil, nil, err
	}
	f.cfg = cfg
	return cfg, newLogger(cfg.Log.Level), nil
}

// open loads the configuration and wires the app.
func (f *commonFlags) open(ctx context.Context) (*app.App, *slog.Logger, error) {
	cfg, logger, err := f.load()
	if err != nil {
		return nil, nil, err
	}
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return a, logger, nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
