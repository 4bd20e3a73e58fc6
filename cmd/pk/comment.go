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

var commentCmd = &cobra.Command{
	Use:   "comment <issue-id> <text>",
	Short: "Append a comment to an issue's thread",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		issueID, text := args[0], args[1]

		var entry *types.ThreadEntry
		var err error
		if serverClient != nil {
			entry, err = serverClient.Comment(&rpc.CommentArgs{IssueID: issueID, Author: actor, Comment: text})
		} else {
			entry, err = store.AddComment(context.Background(), issueID, actor, text)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if jsonOutput {
			outputJSON(entry)
		} else {
			green := color.New(color.FgGreen).SprintFunc()
			fmt.Printf("%s Commented on %s\n", green("✓"), issueID)
		}
	},
}

func init() {
	rootCmd.AddCommand(commentCmd)
}
