package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"refan/internal/parser"
	"refan/internal/tui"
)

// tuiCmd launches the interactive dry-run review TUI.
var tuiCmd = &cobra.Command{
	Use:   "tui [targets...]",
	Short: "Review a migration interactively without writing any file",
	Run: func(cmd *cobra.Command, args []string) {
		logger := newLogger(verbose)
		defer logger.Sync()

		m, err := parser.Load(migrationPath)
		if err != nil {
			fmt.Println("Error loading migration:", err)
			os.Exit(1)
		}
		if err := tui.Run(m, args, logger); err != nil {
			fmt.Println("Error running TUI:", err)
			os.Exit(1)
		}
	},
}
