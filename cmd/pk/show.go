package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/picket-dev/picket/internal/rpc"
	"github.com/picket-dev/picket/internal/types"
)

var showCmd = &cobra.Command{
	Use:   "show <issue-id>",
	Short: "Show an issue and its audit thread",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		issueID := args[0]
		noThread, _ := cmd.Flags().GetBool("no-thread")

		var issue *types.Issue
		var thread []*types.ThreadEntry
		var err error

		if serverClient != nil {
			var result *rpc.ShowResult
			result, err = serverClient.Show(&rpc.ShowArgs{IssueID: issueID, WithThread: !noThread})
			if err == nil {
				issue = result.Issue
				thread = result.Thread
			}
		} else {
			ctx := context.Background()
			issue, err = store.GetIssue(ctx, issueID)
			if err == nil && !noThread {
				thread, err = store.GetThread(ctx, issueID, 0)
			}
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if jsonOutput {
			outputJSON(rpc.ShowResult{Issue: issue, Thread: thread})
			return
		}

		printIssue(issue)
		if len(thread) > 0 {
			fmt.Println("\nThread:")
			for _, entry := range thread {
				printThreadEntry(entry)
			}
		}
	},
}

func printIssue(issue *types.Issue) {
	bold := color.New(color.Bold).SprintFunc()
	fmt.Printf("%s %s\n", bold(issue.IssueID), issue.Title)
	fmt.Printf("  Priority:     %s\n", issue.Priority)
	fmt.Printf("  Status:       %s\n", issue.Status)
	if issue.WorkStatus == types.WorkLocked {
		fmt.Printf("  Checked out:  %s\n", issue.LockedBy)
	} else {
		fmt.Printf("  Work status:  %s\n", issue.WorkStatus)
	}
	if issue.Project != "" {
		fmt.Printf("  Project:      %s\n", issue.Project)
	}
	if issue.IssueType != "" {
		fmt.Printf("  Type:         %s\n", issue.IssueType)
	}
	if issue.Location != "" {
		fmt.Printf("  Location:     %s\n", issue.Location)
	}
	if issue.AttemptCount > 0 {
		fmt.Printf("  Attempts:     %d\n", issue.AttemptCount)
	}
	fmt.Printf("  Created:      %s\n", issue.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Printf("  Updated:      %s\n", issue.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
	if issue.Description != "" {
		fmt.Printf("\n  %s\n", issue.Description)
	}
	if issue.RootCause != "" {
		fmt.Printf("\n  Root cause: %s\n", issue.RootCause)
	}
	if issue.RequiredFix != "" {
		fmt.Printf("  Required fix: %s\n", issue.RequiredFix)
	}
}

func printThreadEntry(entry *types.ThreadEntry) {
	faint := color.New(color.Faint).SprintFunc()
	ts := entry.CreatedAt.Local().Format("2006-01-02 15:04:05")
	fmt.Printf("  %s %s %-13s %s\n", faint(ts), entry.Author, "["+string(entry.EntryType)+"]", entry.Body)
	if entry.EntryType == types.EntryReport && entry.Payload != "" {
		var report types.Report
		if err := json.Unmarshal([]byte(entry.Payload), &report); err == nil {
			fmt.Printf("      attempt %d: %s", report.AttemptNumber, report.Outcome.Result)
			if report.Outcome.Assessment != "" {
				fmt.Printf(" (%s)", report.Outcome.Assessment)
			}
			fmt.Println()
		}
	}
}

func init() {
	showCmd.Flags().Bool("no-thread", false, "Skip the audit thread")
	rootCmd.AddCommand(showCmd)
}
