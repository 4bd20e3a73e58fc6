package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/picket-dev/picket/internal/rpc"
	"github.com/picket-dev/picket/internal/types"
)

var statusCmd = &cobra.Command{
	Use:   "status <issue-id> <status>",
	Short: "Move an issue through its lifecycle",
	Long: `Sets the lifecycle status (outstanding|in_progress|resolved|failed).
Resolved and failed are terminal. With --unlock, a terminal status also
releases the work lock in the same operation.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		issueID, newStatus := args[0], args[1]
		unlock, _ := cmd.Flags().GetBool("unlock")

		var err error
		if serverClient != nil {
			err = serverClient.Status(&rpc.StatusArgs{
				IssueID: issueID,
				Status:  newStatus,
				Author:  actor,
				Unlock:  unlock,
			})
		} else {
			err = store.UpdateStatus(context.Background(), issueID, types.Status(newStatus), actor, unlock)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if jsonOutput {
			outputJSON(map[string]string{"issue_id": issueID, "status": newStatus})
		} else {
			green := color.New(color.FgGreen).SprintFunc()
			fmt.Printf("%s %s is now %s\n", green("✓"), issueID, newStatus)
		}
	},
}

func init() {
	statusCmd.Flags().Bool("unlock", false, "Also release the work lock when the new status is terminal")
	rootCmd.AddCommand(statusCmd)
}
