package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"myfood/internal/app"
	"myfood/internal/config"
	"myfood/internal/logging"
	"myfood/internal/recipe"
)

// openService is replaced in tests.
var openService = func(ctx context.Context, cfg config.Config, logger *zap.Logger) (*app.Service, func() error, error) {
	return app.Open(ctx, cfg, logger)
}

type rootOptions struct {
	configPath string
	verbose    bool
	timeout    time.Duration
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "recipectl",
		Short:         "Inspect the recipe folder",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "config.json", "path to the optional JSON configuration file")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log at debug level")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", time.Minute, "timeout for remote calls")

	root.AddCommand(
		newFilesCmd(opts),
		newShoppingCmd(opts),
		newNutritionCmd(opts),
		newQualityCmd(opts),
		newIngredientsCmd(opts),
	)
	return root
}

// withService loads the configuration and state, then runs fn.
func withService(cmd *cobra.Command, opts *rootOptions, fn func(ctx context.Context, svc *app.Service) error) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	level := cfg.LogLevel
	if opts.verbose {
		level = "debug"
	}
	logger, err := logging.New(level, true)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
	defer cancel()

	svc, closeStore, err := openService(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = closeStore() }()

	return fn(ctx, svc)
}

func newFilesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "files",
		Short: "List the files of the data folder",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, opts, func(ctx context.Context, svc *app.Service) error {
				list, err := svc.Files(ctx)
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "NAME\tTYPE\tSIZE\tMODIFIED\tID")
				for _, f := range list {
					fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", f.Name, f.MimeType, f.Size, f.Modified.Format(time.DateTime), f.ID)
				}
				return w.Flush()
			})
		},
	}
}

func newShoppingCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "shopping",
		Short: "Print the shopping list of the current week menu",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, opts, func(ctx context.Context, svc *app.Service) error {
				lines := svc.ShoppingList().Lines()
				if len(lines) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "shopping list is empty")
					return nil
				}
				for _, line := range lines {
					fmt.Fprintln(cmd.OutOrStdout(), "- "+line)
				}
				return nil
			})
		},
	}
}

func newNutritionCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "nutrition <recipe name>",
		Short: "Show how a recipe's ingredients match the reference table",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.Join(args, " ")
			return withService(cmd, opts, func(ctx context.Context, svc *app.Service) error {
				rep, err := svc.NutritionByName(name)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "INGREDIENT\tGRAMS\tSTATUS\tKCAL")
				for _, ing := range rep.Ingredients {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", ing.Name, recipe.FormatQuantity(ing.Grams), ing.Status, recipe.FormatQuantity(ing.Contribution.Energy))
				}
				if err := w.Flush(); err != nil {
					return err
				}

				t := rep.Totals
				fmt.Fprintf(out, "\nenergy %.1f kcal, protein %.1f g, fat %.1f g, carbohydrate %.1f g\n", t.Energy, t.Protein, t.Fat, t.Carbohydrate)
				fmt.Fprintf(out, "matched %d/%d ingredients\n", rep.Matched, len(rep.Ingredients))
				if !rep.Complete() {
					fmt.Fprintln(out, "totals are partial")
				}
				return nil
			})
		},
	}
}

func newQualityCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "quality",
		Short: "Count numeric, trace and missing cells per nutrient column",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, opts, func(ctx context.Context, svc *app.Service) error {
				q := svc.Quality()
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%d reference rows\n", q.Rows)

				w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "COLUMN\tNUMERIC\tTRACE\tMISSING")
				for _, c := range q.Columns {
					col := c.Column
					if c.Absent {
						col += " (absent)"
					}
					fmt.Fprintf(w, "%s\t%d\t%d\t%d\n", col, c.Numeric, c.Trace, c.Missing)
				}
				return w.Flush()
			})
		},
	}
}

func newIngredientsCmd(opts *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "ingredients [query]",
		Short: "List reference ingredient names",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var query string
			if len(args) == 1 {
				query = args[0]
			}
			return withService(cmd, opts, func(ctx context.Context, svc *app.Service) error {
				for _, name := range svc.Ingredients(query, limit) {
					fmt.Fprintln(cmd.OutOrStdout(), name)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of names, 0 for all")
	return cmd
}
