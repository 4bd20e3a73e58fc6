package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/picket-dev/picket/internal/testutil/fixtures"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Fill the database with deterministic sample issues",
	Long: `Seeds realistic issues for demos, load tests, and agent dry runs. The
same count and seed always produce the same dataset.`,
	Run: func(cmd *cobra.Command, args []string) {
		count, _ := cmd.Flags().GetInt("count")
		seed, _ := cmd.Flags().GetInt64("seed")

		if serverClient != nil {
			// Seeding goes straight at the store; close the detour.
			_ = serverClient.Close()
			serverClient = nil
			fmt.Fprintf(os.Stderr, "Error: stop 'pk serve' before seeding, or pass --no-server\n")
			os.Exit(1)
		}

		cfg := fixtures.Config{Count: count, RandSeed: seed}
		if err := fixtures.Generate(context.Background(), store, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if jsonOutput {
			outputJSON(map[string]int{"seeded": count})
		} else {
			green := color.New(color.FgGreen).SprintFunc()
			fmt.Printf("%s Seeded %d issues\n", green("✓"), count)
		}
	},
}

func init() {
	seedCmd.Flags().Int("count", 25, "Number of issues to create")
	seedCmd.Flags().Int64("seed", 42, "Random seed for reproducible datasets")
	rootCmd.AddCommand(seedCmd)
}
