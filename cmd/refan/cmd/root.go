package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"refan/internal/core"
	"refan/internal/parser"
)

var (
	migrationPath string
	dryRun        bool
	requireClean  bool
	journalPath   string
	verbose       bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "refan [targets...]",
	Short: "Rule-driven structural fan-out migrations for brace-delimited source files",
	Long: `refan applies a declarative migration to source files: single-variant
declarations and call sites are fanned out across the migration's variant set,
aggregation loops are synthesized, and pending-work placeholders are resolved,
leaving every untouched line byte-identical. Files are replaced atomically and
re-running a finished migration is a no-op.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger(verbose)
		defer logger.Sync()

		m, err := parser.Load(migrationPath)
		if err != nil {
			return err
		}

		opts := core.Options{
			DryRun:       dryRun,
			RequireClean: requireClean,
			Logger:       logger,
			Out:          os.Stdout,
		}
		if journalPath != "" {
			opts.Journal = core.NewFileStore(journalPath)
		}

		if code := core.Run(m, args, opts); code != 0 {
			os.Exit(code)
		}
		return nil
	},
}

// newLogger builds the CLI logger; --verbose lowers the level to debug.
func newLogger(verbose bool) *zap.Logger {
	config := zap.NewProductionConfig()
	config.OutputPaths = []string{"stderr"}
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := config.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&migrationPath, "migration", "m", "", "path to the migration definition (yaml)")
	rootCmd.MarkPersistentFlagRequired("migration")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "compute and report without writing any file")
	rootCmd.Flags().BoolVar(&requireClean, "require-clean", false, "refuse targets with uncommitted git changes")
	rootCmd.Flags().StringVar(&journalPath, "journal", "", "record session outcomes in this JSON journal")
	rootCmd.AddCommand(tuiCmd)
}
