package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/picket-dev/picket/internal/types"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate issue counts",
	Run: func(cmd *cobra.Command, args []string) {
		var stats *types.Statistics
		var err error
		if serverClient != nil {
			stats, err = serverClient.Stats()
		} else {
			stats, err = store.GetStatistics(context.Background())
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if jsonOutput {
			outputJSON(stats)
			return
		}

		fmt.Printf("Total issues:   %d\n", stats.Total)
		fmt.Printf("  outstanding:  %d\n", stats.Outstanding)
		fmt.Printf("  in_progress:  %d\n", stats.InProgress)
		fmt.Printf("  resolved:     %d\n", stats.Resolved)
		fmt.Printf("  failed:       %d\n", stats.Failed)
		fmt.Printf("By priority:\n")
		fmt.Printf("  critical:     %d\n", stats.Critical)
		fmt.Printf("  high:         %d\n", stats.High)
		fmt.Printf("  medium:       %d\n", stats.Medium)
		fmt.Printf("Checked out:    %d\n", stats.Locked)
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
