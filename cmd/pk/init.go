package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/picket-dev/picket/internal/storage/sqlite"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a new picket database",
	Long: `Creates .picket/picket.db in the current directory (or the path given
with --db). An existing database at the same path is replaced with a fresh,
empty store, which is also the recovery path for a corrupt file.`,
	Run: func(cmd *cobra.Command, args []string) {
		path := dbPath
		if path == "" {
			cwd, err := os.Getwd()
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			path = filepath.Join(cwd, ".picket", "picket.db")
		}

		prefix, _ := cmd.Flags().GetString("prefix")
		maxAttempts, _ := cmd.Flags().GetInt("max-attempts")

		s, err := sqlite.Init(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = s.Close() }()

		ctx := context.Background()
		if prefix != "" {
			if err := s.SetConfig(ctx, "issue_prefix", prefix); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		}
		if maxAttempts > 0 {
			if err := s.SetConfig(ctx, "max_attempts", fmt.Sprintf("%d", maxAttempts)); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		}

		if jsonOutput {
			outputJSON(map[string]string{"db": s.Path()})
		} else {
			green := color.New(color.FgGreen).SprintFunc()
			fmt.Printf("%s Initialized picket database: %s\n", green("✓"), s.Path())
		}
	},
}

func init() {
	initCmd.Flags().String("prefix", "", "Issue ID prefix for this store (default \"pk\")")
	initCmd.Flags().Int("max-attempts", 0, "Failed attempts before an issue is marked failed (0 = unlimited)")
	rootCmd.AddCommand(initCmd)
}
