package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/picket-dev/picket/internal/rpc"
)

var releaseCmd = &cobra.Command{
	Use:   "release <issue-id>",
	Short: "Return a checked-out issue to the pool",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		issueID := args[0]
		agent, _ := cmd.Flags().GetString("agent")
		if agent == "" {
			agent = actor
		}

		var err error
		if serverClient != nil {
			err = serverClient.Release(&rpc.ReleaseArgs{IssueID: issueID, Agent: agent})
		} else {
			err = store.ReleaseIssue(context.Background(), issueID, agent)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if jsonOutput {
			outputJSON(map[string]string{"issue_id": issueID})
		} else {
			green := color.New(color.FgGreen).SprintFunc()
			fmt.Printf("%s Released %s\n", green("✓"), issueID)
		}
	},
}

func init() {
	releaseCmd.Flags().String("agent", "", "Agent name releasing the lock (default: actor)")
	rootCmd.AddCommand(releaseCmd)
}
