package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"

	"github.com/hpungsan/smartgallery/internal/blob"
	"github.com/hpungsan/smartgallery/internal/config"
	"github.com/hpungsan/smartgallery/internal/db"
	"github.com/hpungsan/smartgallery/internal/editor"
	"github.com/hpungsan/smartgallery/internal/kv"
	"github.com/hpungsan/smartgallery/internal/library"
	"github.com/hpungsan/smartgallery/internal/logging"
	"github.com/hpungsan/smartgallery/internal/mcp"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"save": true, "get": true, "latest": true, "list": true, "search": true,
	"update": true, "tag": true, "delete": true, "clear": true,
	"suggest": true, "tags": true, "stats": true, "catalog": true,
	"export": true, "import": true, "capture": true, "filter": true,
	"serve": true, "mcp": true, "help": true,
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode(args []string) bool {
	if len(args) < 2 {
		return false
	}
	return cliCommands[args[1]] || isHelpOrVersion(args)
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion(args []string) bool {
	if len(args) < 2 {
		return false
	}
	switch args[1] {
	case "--help", "-h", "--version", "-v", "help":
		return true
	}
	return false
}

// isTerminal reports whether f is an interactive terminal.
func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
   ___                      _    ___      _ _
  / __|_ __  __ _ _ _| |_ / __|__ _| | |___ _ _ _  _
  \__ \ '  \/ _' | '_|  _| (_ / _' | | / -_) '_| || |
  |___/_|_|_\__,_|_|  \__|\___\__,_|_|_\___|_|  \_, |
                                                |__/
  Local photo and video library

  Usage: smartgallery <command> [options]
         smartgallery --help

  MCP server mode requires piped input.`)
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}

// deps are the long-lived services shared by every command.
type deps struct {
	baseDir string
	store   *library.Store
	blobs   *blob.Registry
	slot    *editor.Slot
	cfg     *config.Config
	logger  *zap.Logger
}

// open loads config, the logger and the library. The .env in workDir is
// read first so it can set SMARTGALLERY_HOME.
func open(workDir string) (*deps, *sql.DB, error) {
	if err := config.LoadEnv(workDir); err != nil {
		return nil, nil, fmt.Errorf("load .env: %w", err)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, nil, fmt.Errorf("could not determine home directory: %w", err)
	}
	baseDir := config.BaseDir(home)

	cfg, err := config.LoadWithRepo(baseDir, workDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build logger: %w", err)
	}

	database, err := db.Init(baseDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	db.ConfigurePool(database, cfg)

	if unknown := mcp.ValidateDisabledTools(cfg.DisabledTools); len(unknown) > 0 {
		logger.Warn("unknown tools in disabled_tools", zap.Strings("names", unknown))
	}
	if unknown := mcp.ValidateDisabledTypes(cfg.DisabledTypes); len(unknown) > 0 {
		logger.Warn("unknown types in disabled_types", zap.Strings("names", unknown))
	}

	store := library.New(
		kv.NewSQLite(database, cfg.StorageQuotaBytes),
		logger.Named("library"),
		library.WithFileLock(filepath.Join(baseDir, library.LockFileName)),
	)
	return &deps{
		baseDir: baseDir,
		store:   store,
		blobs:   blob.NewRegistry(),
		slot:    &editor.Slot{},
		cfg:     cfg,
		logger:  logger,
	}, database, nil
}

func main() {
	args := os.Args

	// No args + interactive terminal → show banner and exit
	if len(args) < 2 && isTerminal(os.Stdin) {
		printBanner()
		return
	}

	// Handle --help/--version before DB init (no DB needed)
	if isHelpOrVersion(args) {
		if err := runApp(newCLIApp(nil), args); err != nil {
			fatal("%v", err)
		}
		return
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if len(args) >= 2 && !isCLIMode(args) && isTerminal(os.Stdin) {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", args[1])
		fmt.Fprintf(os.Stderr, "Run 'smartgallery --help' for usage.\n")
		os.Exit(1)
	}

	workDir, err := os.Getwd()
	if err != nil {
		fatal("could not determine working directory: %v", err)
	}
	d, database, err := open(workDir)
	if err != nil {
		fatal("%v", err)
	}
	defer database.Close()
	defer func() { _ = d.logger.Sync() }()

	if isCLIMode(args) {
		if err := runApp(newCLIApp(d), args); err != nil {
			fatal("%v", err)
		}
		return
	}

	// MCP server mode (default)
	if err := runMCP(d); err != nil {
		fatal("%v", err)
	}
}

func runMCP(d *deps) error {
	d.logger.Info("starting MCP server", zap.String("version", Version), zap.String("base_dir", d.baseDir))
	return mcp.Run(mcp.Deps{
		Store:  d.store,
		Blobs:  d.blobs,
		Slot:   d.slot,
		Config: d.cfg,
		Logger: d.logger.Named("mcp"),
	}, Version)
}
