// Package main is the tsunagu CLI entry point.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/tsunagu/internal/catalog"
	"github.com/hyperjump/tsunagu/internal/cli"
	"github.com/hyperjump/tsunagu/internal/config"
	"github.com/hyperjump/tsunagu/internal/storage"
	"github.com/hyperjump/tsunagu/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/tsunagu/config.yaml"

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	debug      bool
	output     string
}

// env is what a command needs after flags are parsed.
type env struct {
	cfg        *config.Config
	configPath string
	logger     *zap.Logger
	format     cli.OutputFormat
	out        io.Writer
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}
	root := &cobra.Command{
		Use:   "tsunagu",
		Short: "Scripture cross-text lookup and interlinks",
		Long: `tsunagu looks up Quran, Bible and Torah passages, resolves curated
connections between them, and keeps locale translation files complete.

Examples:
  tsunagu lookup Bible John 3:16
  tsunagu interlinks --locale mr Quran 2:255
  tsunagu merge --fragments translations.yaml`,
		Version:      version,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", defaultConfigPath, "config file path")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")
	root.PersistentFlags().StringVarP(&opts.output, "output", "o", "text", "output format: text or json")

	root.AddCommand(serveCmd(opts))
	root.AddCommand(lookupCmd(opts))
	root.AddCommand(interlinksCmd(opts))
	root.AddCommand(linkCmd(opts))
	root.AddCommand(connectionsCmd(opts))
	root.AddCommand(connectionCmd(opts))
	root.AddCommand(relatedCmd(opts))
	root.AddCommand(searchCmd(opts))
	root.AddCommand(mergeCmd(opts))
	root.AddCommand(watchCmd(opts))
	root.AddCommand(importCmd(opts))
	root.AddCommand(versionCmd())
	return root
}

// loadConfig loads config from path. When path is the default, config.yaml in the
// current directory is preferred if present; when neither exists, defaults are used
// with paths relative to the current directory.
// Returns the config and the path that was actually loaded ("" for defaults).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, "", err
		}
		fallback := filepath.Join(cwd, "config.yaml")
		if _, statErr := os.Stat(fallback); statErr == nil {
			cfg, loadErr := config.Load(fallback)
			if loadErr != nil {
				return nil, "", loadErr
			}
			return cfg, fallback, nil
		}
		if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
			return config.Default(cwd), "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// setup loads config, creates the logger and validates --output.
func setup(cmd *cobra.Command, opts *globalOptions) (*env, error) {
	format, err := cli.ParseOutputFormat(opts.output)
	if err != nil {
		return nil, err
	}
	cfg, path, err := loadConfig(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	debug := cfg.Debug || opts.debug
	logger, err := utils.NewLogger(debug)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	logger.Debug("config loaded", zap.String("config_path", path), zap.Bool("debug", debug))
	return &env{cfg: cfg, configPath: path, logger: logger, format: format, out: cmd.OutOrStdout()}, nil
}

// buildCatalog loads the catalog from the configured source.
func buildCatalog(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*catalog.Catalog, error) {
	switch cfg.Catalog.Source {
	case config.SourceYAML:
		return catalog.Load(cfg.Catalog.DataDir, logger)
	case config.SourceSQLite:
		store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
		if err != nil {
			return nil, err
		}
		defer store.Close()
		data, err := store.LoadCatalog(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to read catalog snapshot: %w", err)
		}
		return catalog.New(data, logger)
	default:
		return catalog.Default(logger)
	}
}

// joinArgs joins positional args so references work with or without shell quoting.
func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "tsunagu version %s\n", version)
		},
	}
}
