package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/tsunagu/internal/catalog"
	"github.com/hyperjump/tsunagu/internal/cli"
	"github.com/hyperjump/tsunagu/internal/interlink"
	"github.com/hyperjump/tsunagu/internal/keyword"
	"github.com/hyperjump/tsunagu/internal/links"
	"github.com/hyperjump/tsunagu/internal/models"
	"github.com/hyperjump/tsunagu/internal/reference"
	"github.com/hyperjump/tsunagu/pkg/utils"
)

// withCatalog runs fn with a loaded catalog and a resolver over it.
func withCatalog(cmd *cobra.Command, opts *globalOptions, fn func(e *env, cat *catalog.Catalog, r *interlink.Resolver) error) error {
	e, err := setup(cmd, opts)
	if err != nil {
		return err
	}
	defer e.logger.Sync()
	cat, err := buildCatalog(cmd.Context(), e.cfg, e.logger)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}
	return fn(e, cat, interlink.NewResolver(cat, e.logger))
}

// localeFlag returns --locale or the configured default, validated.
func localeFlag(e *env, locale string) (string, error) {
	if locale == "" {
		locale = e.cfg.Locales.DefaultLocale
	}
	if !utils.ValidLocale(locale) {
		return "", fmt.Errorf("invalid locale %q", locale)
	}
	return locale, nil
}

func lookupCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <reference>",
		Short: "Show a chapter or verse",
		Example: `  tsunagu lookup Bible John 3:16
  tsunagu lookup Quran 112
  tsunagu lookup "Torah Deuteronomy 6:4"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCatalog(cmd, opts, func(e *env, cat *catalog.Catalog, _ *interlink.Resolver) error {
				ref, err := reference.Parse(joinArgs(args))
				if err != nil {
					return err
				}
				ch, v, err := cat.Lookup(ref)
				if errors.Is(err, models.ErrNotFound) && ch != nil && e.format == cli.OutputText {
					// The chapter exists but the verse has not been populated yet.
					_ = cli.WriteChapter(e.out, ch, nil, cli.OutputText)
					return fmt.Errorf("%s is not yet available: %w", ref, err)
				}
				if err != nil {
					return err
				}
				return cli.WriteChapter(e.out, ch, v, e.format)
			})
		},
	}
}

func interlinksCmd(opts *globalOptions) *cobra.Command {
	var locale string
	cmd := &cobra.Command{
		Use:     "interlinks <reference>",
		Short:   "Show texts related to a reference, with site paths",
		Example: "  tsunagu interlinks --locale mr Quran 2:255",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCatalog(cmd, opts, func(e *env, _ *catalog.Catalog, r *interlink.Resolver) error {
				loc, err := localeFlag(e, locale)
				if err != nil {
					return err
				}
				ref, err := reference.Parse(joinArgs(args))
				if err != nil {
					return err
				}
				il, err := r.Interlinks(ref)
				if err != nil {
					return err
				}
				return cli.WriteInterlinks(e.out, links.NewGenerator(e.logger).Resolve(il, loc), e.format)
			})
		},
	}
	cmd.Flags().StringVar(&locale, "locale", "", "locale prefix for paths (default from config)")
	return cmd
}

func linkCmd(opts *globalOptions) *cobra.Command {
	var locale string
	cmd := &cobra.Command{
		Use:     "link <reference>",
		Short:   "Print the site path of a verse",
		Example: "  tsunagu link --locale te Bible 1 John 4:8",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			defer e.logger.Sync()
			loc, err := localeFlag(e, locale)
			if err != nil {
				return err
			}
			ref, err := reference.Parse(joinArgs(args))
			if err != nil {
				return err
			}
			path, err := links.VersePath(ref, loc)
			if err != nil {
				return err
			}
			if e.format == cli.OutputJSON {
				return cli.WriteJSON(e.out, map[string]string{"reference": ref.String(), "path": path})
			}
			fmt.Fprintln(e.out, path)
			return nil
		},
	}
	cmd.Flags().StringVar(&locale, "locale", "", "locale prefix (default from config)")
	return cmd
}

func connectionsCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "connections",
		Short: "List curated cross-tradition connections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCatalog(cmd, opts, func(e *env, _ *catalog.Catalog, r *interlink.Resolver) error {
				return cli.WriteConnections(e.out, r.Connections(), e.format)
			})
		},
	}
}

func connectionCmd(opts *globalOptions) *cobra.Command {
	var locale string
	cmd := &cobra.Command{
		Use:     "connection <id>",
		Short:   "Show one curated connection",
		Example: "  tsunagu connection creation-narratives",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCatalog(cmd, opts, func(e *env, _ *catalog.Catalog, r *interlink.Resolver) error {
				loc, err := localeFlag(e, locale)
				if err != nil {
					return err
				}
				conn, err := r.ConnectionByID(args[0])
				if errors.Is(err, models.ErrNotFound) {
					back := links.ConnectionsPath("")
					if locale != "" {
						back = links.ConnectionsPath(loc)
					}
					if e.format == cli.OutputJSON {
						_ = cli.WriteJSON(e.out, map[string]string{"error": "Connection Not Found", "id": args[0], "back": back})
					} else {
						fmt.Fprintf(e.out, "Connection Not Found\nBack to all connections: %s\n", back)
					}
					return err
				}
				if err != nil {
					return err
				}
				return cli.WriteConnection(e.out, links.NewGenerator(e.logger).ResolveConnection(conn, loc), e.format)
			})
		},
	}
	cmd.Flags().StringVar(&locale, "locale", "", "locale prefix for paths (default from config)")
	return cmd
}

func relatedCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "related <id>",
		Short:   "List connections sharing themes with a connection",
		Example: "  tsunagu related oneness-of-god",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCatalog(cmd, opts, func(e *env, _ *catalog.Catalog, r *interlink.Resolver) error {
				related, err := r.RelatedConnections(args[0])
				if err != nil {
					return err
				}
				return cli.WriteConnections(e.out, related, e.format)
			})
		},
	}
}

func searchCmd(opts *globalOptions) *cobra.Command {
	var (
		limit int
		kind  string
		fuzzy int
	)
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search chapters and connections by topic",
		Long: `Search chapter names, summaries, verse text and curated connections.
Query is all remaining arguments joined by spaces. When nothing matches,
a spelling correction is suggested and a fuzzy search is tried.`,
		Example: `  tsunagu search creation
  tsunagu search --kind connection love mercy
  tsunagu search --fuzzy 1 bereshitt`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch keyword.Kind(kind) {
			case "", keyword.KindChapter, keyword.KindConnection:
			default:
				return fmt.Errorf("invalid --kind %q (want chapter or connection)", kind)
			}
			return withCatalog(cmd, opts, func(e *env, cat *catalog.Catalog, _ *interlink.Resolver) error {
				idx, err := keyword.NewBleveIndex(cat, e.logger)
				if err != nil {
					return err
				}
				defer idx.Close()

				if limit <= 0 {
					limit = e.cfg.Search.DefaultLimit
				}
				limit = min(limit, e.cfg.Search.MaxLimit)
				so := &keyword.SearchOptions{
					Kind:       keyword.Kind(kind),
					TitleBoost: e.cfg.Search.TitleBoost,
					Fuzziness:  e.cfg.Search.Fuzziness,
				}
				if cmd.Flags().Changed("fuzzy") {
					so.Fuzziness = fuzzy
				}
				query := joinArgs(args)
				res, err := idx.Search(cmd.Context(), query, limit, so)
				if err != nil {
					return err
				}
				// Retry with typo tolerance when nothing matched.
				if len(res.Hits) == 0 && so.Fuzziness == 0 {
					so.Fuzziness = 1
					if fuzzyRes, err := idx.Search(cmd.Context(), query, limit, so); err == nil && len(fuzzyRes.Hits) > 0 {
						e.logger.Debug("search retried with fuzzy matching", zap.String("query", query))
						fuzzyRes.DidYouMean = res.DidYouMean
						res = fuzzyRes
					}
				}
				return cli.WriteSearchResults(e.out, res, e.format)
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "number of results (default from config)")
	cmd.Flags().StringVar(&kind, "kind", "", "restrict to chapter or connection")
	cmd.Flags().IntVar(&fuzzy, "fuzzy", 0, "maximum edit distance per term (0-2)")
	return cmd
}
