package app

import (
	"sort"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/gamedex/gamedex/internal/sources"
	"github.com/gamedex/gamedex/pkg/dataset"
	"github.com/gamedex/gamedex/pkg/errors"
	"github.com/gamedex/gamedex/pkg/fixes"
	"github.com/gamedex/gamedex/pkg/logging"
	"github.com/gamedex/gamedex/pkg/stats"
)

// NewUpdateCommand creates the update command: one full reconciliation pass
// over the configured sources, saving the augmented dataset afterwards.
func (a *App) NewUpdateCommand() *cobra.Command {
	var (
		only   []string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Run a reconciliation pass and save the augmented dataset",
		Long: `Update runs every configured source extractor against the canonical
dataset: map locations, wiki attributes, and abyss usage statistics. The
augmented dataset is written back to the dataset directory; usage statistics
are printed to stdout as YAML.

A failed extractor aborts only that source's contribution; the pass
continues with the remaining sources and the dataset is still saved.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := logging.WithLogger(cmd.Context(), a.logger)

			pass, err := a.NewPass()
			if err != nil {
				return err
			}
			srcs, err := a.Sources(only)
			if err != nil {
				return err
			}

			runErr := sources.NewRunner(srcs...).Run(ctx, pass)

			if !dryRun {
				if err := pass.Dataset.Save(a.config.DatasetDir); err != nil {
					return err
				}
				a.logger.Info().Str("dir", a.config.DatasetDir).Msg("Dataset saved")
			}

			if err := printStats(cmd, pass.Stats); err != nil {
				return err
			}
			return runErr
		},
	}

	cmd.Flags().StringSliceVar(&only, "source", nil, "run only the named sources (mapapi, wiki, spiralstats, abysslab)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "run extractors without saving the dataset")
	return cmd
}

// NewStatsCommand creates the stats command: usage statistics only, no
// dataset writes.
func (a *App) NewStatsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Extract abyss usage statistics and print them as YAML",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := logging.WithLogger(cmd.Context(), a.logger)

			pass, err := a.NewPass()
			if err != nil {
				return err
			}
			srcs, err := a.Sources([]string{
				sources.SpiralStatsID.String(),
				sources.AbyssLabID.String(),
			})
			if err != nil {
				return err
			}

			runErr := sources.NewRunner(srcs...).Run(ctx, pass)
			if err := printStats(cmd, pass.Stats); err != nil {
				return err
			}
			return runErr
		},
	}
	return cmd
}

// NewValidateCommand creates the validate command: static checks of the
// fixes ledger and source configuration against the dataset, no fetches.
func (a *App) NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check fixes and source configuration against the dataset",
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := dataset.Load(a.config.DatasetDir)
			if err != nil {
				return err
			}
			ledger, err := fixes.Load(a.config.FixesFile)
			if err != nil {
				return err
			}

			problems := validateFixes(d, ledger.Document())
			problems = append(problems, validateMapURLs(d, &a.config.Sources)...)

			for _, p := range problems {
				a.logger.Error().Msg(p)
			}
			if len(problems) > 0 {
				return &errors.ValidationError{
					Message: "validation found problems, see log output",
				}
			}

			cmd.Printf("dataset %s and fixes %s are consistent\n", a.config.DatasetDir, a.config.FixesFile)
			return nil
		},
	}
}

// NewVersionCommand creates the version command.
func (a *App) NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("gamedex %s\n", a.version)
			if a.config.Verbose {
				cmd.Printf("  commit: %s\n", a.commit)
				cmd.Printf("  built:  %s\n", a.date)
			}
		},
	}
}

// validateFixes checks that every fix entry points at a code the dataset
// actually contains.
func validateFixes(d *dataset.Dataset, doc fixes.Document) []string {
	var problems []string
	domains := make([]string, 0, len(doc))
	for domain := range doc {
		domains = append(domains, domain)
	}
	sort.Strings(domains)

	for _, domain := range domains {
		for _, entry := range doc[domain] {
			if !knownCode(d, dataset.Code(entry.UseCode)) {
				problems = append(problems, "fix "+domain+"["+entry.NameOnMap+"] points at unknown code "+entry.UseCode)
			}
		}
	}
	return problems
}

// validateMapURLs checks that configured map endpoints reference maps the
// dataset declares.
func validateMapURLs(d *dataset.Dataset, cfg *sources.Config) []string {
	known := make(map[dataset.MapCode]struct{})
	for _, m := range d.Maps() {
		known[m] = struct{}{}
	}

	codes := make([]string, 0, len(cfg.MapURLs))
	for mapCode := range cfg.MapURLs {
		codes = append(codes, string(mapCode))
	}
	sort.Strings(codes)

	var problems []string
	for _, raw := range codes {
		if _, ok := known[dataset.MapCode(raw)]; !ok {
			problems = append(problems, "map url configured for unknown map "+raw)
		}
	}
	return problems
}

// knownCode reports whether any dataset bucket contains the code.
func knownCode(d *dataset.Dataset, code dataset.Code) bool {
	if _, ok := d.Character(code); ok {
		return true
	}
	if _, ok := d.Weapon(code); ok {
		return true
	}
	if _, ok := d.Enemy(code); ok {
		return true
	}
	if _, ok := d.EnemyGroup(code); ok {
		return true
	}
	if _, ok := d.Item(code); ok {
		return true
	}
	if _, ok := d.Domain(code); ok {
		return true
	}
	return false
}

// printStats writes the collected statistics to the command's stdout as
// YAML, keyed by source id, in deterministic order.
func printStats(cmd *cobra.Command, collected map[sources.ID]*stats.AbyssStats) error {
	if len(collected) == 0 {
		return nil
	}

	out := make(map[string]*stats.AbyssStats, len(collected))
	for id, s := range collected {
		out[id.String()] = s
	}

	data, err := yaml.Marshal(out)
	if err != nil {
		return &errors.ParseError{Format: "yaml", Message: "marshal stats", Err: err}
	}
	cmd.Print(string(data))
	return nil
}
