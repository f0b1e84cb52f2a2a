package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"sort"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/hyperjump/tsunagu/internal/cli"
	"github.com/hyperjump/tsunagu/internal/i18n"
	"github.com/hyperjump/tsunagu/internal/watcher"
)

// configuredOnly drops fragments for languages outside languages. An empty list allows all.
func configuredOnly(fragments map[string]i18n.Dict, languages []string, logger *zap.Logger) map[string]i18n.Dict {
	if len(languages) == 0 {
		return fragments
	}
	out := make(map[string]i18n.Dict, len(fragments))
	for lang, frag := range fragments {
		if !slices.Contains(languages, lang) {
			logger.Warn("skipping fragment for unconfigured language", zap.String("locale", lang))
			continue
		}
		out[lang] = frag
	}
	return out
}

func mergeCmd(opts *globalOptions) *cobra.Command {
	var (
		fragmentsFile string
		fragmentsDir  string
		localesDir    string
	)
	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Merge translation fragments into locale files",
		Long: `Merge new top-level keys into <locales-dir>/<lang>.json.

--fragments reads one YAML or JSON file mapping language codes to key/value
dictionaries. --fragments-dir reads every <lang>.yaml/.yml/.json file in a
directory. Existing keys named by a fragment are overwritten; other keys are kept.
Each language is merged independently; a failure in one does not stop the rest.`,
		Example: `  tsunagu merge --fragments translations.yaml
  tsunagu merge --fragments-dir locales/fragments --locales-dir public/locales`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if (fragmentsFile == "") == (fragmentsDir == "") {
				return errors.New("exactly one of --fragments or --fragments-dir is required")
			}
			e, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			defer e.logger.Sync()
			if localesDir == "" {
				localesDir = e.cfg.Locales.Dir
			}

			var fragments map[string]i18n.Dict
			if fragmentsFile != "" {
				fragments, err = i18n.LoadFragments(fragmentsFile)
			} else {
				fragments, err = i18n.LoadFragmentDir(fragmentsDir)
			}
			if err != nil {
				return err
			}
			fragments = configuredOnly(fragments, e.cfg.Locales.Languages, e.logger)

			merger := i18n.NewMerger(localesDir, e.logger)
			mergeErr := merger.MergeAll(fragments)
			return writeMergeReport(e, merger, fragments, mergeErr)
		},
	}
	cmd.Flags().StringVar(&fragmentsFile, "fragments", "", "fragment bundle file (YAML or JSON)")
	cmd.Flags().StringVar(&fragmentsDir, "fragments-dir", "", "directory of <lang>.yaml/.json fragment files")
	cmd.Flags().StringVar(&localesDir, "locales-dir", "", "directory holding <lang>.json (default from config)")
	return cmd
}

type mergeResult struct {
	Locale string `json:"locale"`
	Path   string `json:"path"`
	Keys   int    `json:"keys"`
	Error  string `json:"error,omitempty"`
}

// writeMergeReport prints one line per language and returns mergeErr.
func writeMergeReport(e *env, merger *i18n.Merger, fragments map[string]i18n.Dict, mergeErr error) error {
	failed := make(map[string]error)
	for _, err := range multierr.Errors(mergeErr) {
		var me *i18n.MergeError
		if errors.As(err, &me) {
			failed[me.Locale] = err
		}
	}
	langs := make([]string, 0, len(fragments))
	for lang := range fragments {
		langs = append(langs, lang)
	}
	sort.Strings(langs)

	results := make([]mergeResult, 0, len(langs))
	for _, lang := range langs {
		r := mergeResult{Locale: lang, Path: merger.Path(lang), Keys: len(fragments[lang])}
		if err := failed[lang]; err != nil {
			r.Error = err.Error()
		}
		results = append(results, r)
	}

	if e.format == cli.OutputJSON {
		if err := cli.WriteJSON(e.out, results); err != nil {
			return err
		}
		return mergeErr
	}
	for _, r := range results {
		if r.Error != "" {
			fmt.Fprintf(e.out, "FAIL %s: %s\n", r.Locale, r.Error)
			continue
		}
		fmt.Fprintf(e.out, "ok   %s: %d keys -> %s\n", r.Locale, r.Keys, r.Path)
	}
	return mergeErr
}

// startFragmentWatcher merges every fragment already present, then merges each
// fragment file again whenever it changes.
func startFragmentWatcher(ctx context.Context, e *env, merger *i18n.Merger) (*watcher.Watcher, error) {
	logger := e.logger
	onChange := func(path string) {
		lang, frag, err := i18n.LoadFragmentFile(path)
		if err != nil {
			logger.Warn("skipping unreadable fragment", zap.String("path", path), zap.Error(err))
			return
		}
		if len(configuredOnly(map[string]i18n.Dict{lang: frag}, e.cfg.Locales.Languages, logger)) == 0 {
			return
		}
		if err := merger.MergeLocale(lang, frag); err != nil {
			logger.Error("fragment merge failed", zap.String("path", path), zap.Error(err))
		}
	}
	w := watcher.NewWatcher(
		e.cfg.Locales.FragmentsDir,
		i18n.FragmentExtensions,
		onChange,
		watcher.WithLogger(logger),
		watcher.WithDebounce(time.Duration(e.cfg.Locales.DebounceMillis)*time.Millisecond),
	)
	if err := w.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to watch %s: %w", e.cfg.Locales.FragmentsDir, err)
	}
	if err := w.Sync(); err != nil {
		w.Stop()
		return nil, err
	}
	logger.Info("watching translation fragments",
		zap.String("fragments_dir", e.cfg.Locales.FragmentsDir),
		zap.String("locales_dir", e.cfg.Locales.Dir),
	)
	return w, nil
}

func watchCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Merge translation fragments whenever they change",
		Long: `Watch the configured fragments directory and merge each <lang>.yaml/.json
file into <locales dir>/<lang>.json when it is written. Files already present are
merged on start. Runs until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			defer e.logger.Sync()
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			w, err := startFragmentWatcher(ctx, e, i18n.NewMerger(e.cfg.Locales.Dir, e.logger))
			if err != nil {
				return err
			}
			defer w.Stop()
			<-ctx.Done()
			e.logger.Info("Shutting down...")
			return nil
		},
	}
}
