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

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List issues, critical first",
	Run: func(cmd *cobra.Command, args []string) {
		status, _ := cmd.Flags().GetString("status")
		priority, _ := cmd.Flags().GetString("priority")
		project, _ := cmd.Flags().GetString("project")
		available, _ := cmd.Flags().GetBool("available")
		locked, _ := cmd.Flags().GetBool("locked")
		limit, _ := cmd.Flags().GetInt("limit")

		if available && locked {
			fmt.Fprintf(os.Stderr, "Error: --available and --locked are mutually exclusive\n")
			os.Exit(1)
		}
		workStatus := ""
		if available {
			workStatus = string(types.WorkAvailable)
		}
		if locked {
			workStatus = string(types.WorkLocked)
		}

		var issues []*types.Issue
		var err error
		if serverClient != nil {
			issues, err = serverClient.List(&rpc.ListArgs{
				Status:     status,
				Priority:   priority,
				Project:    project,
				WorkStatus: workStatus,
				Limit:      limit,
			})
		} else {
			filter := types.IssueFilter{Limit: limit}
			if status != "" {
				s := types.Status(status)
				filter.Status = &s
			}
			if priority != "" {
				p := types.Priority(priority)
				filter.Priority = &p
			}
			if project != "" {
				filter.Project = &project
			}
			if workStatus != "" {
				ws := types.WorkStatus(workStatus)
				filter.WorkStatus = &ws
			}
			issues, err = store.ListIssues(context.Background(), filter)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if jsonOutput {
			if issues == nil {
				issues = []*types.Issue{}
			}
			outputJSON(issues)
			return
		}

		if len(issues) == 0 {
			fmt.Println("No issues found")
			return
		}
		for _, issue := range issues {
			fmt.Println(formatIssueLine(issue))
		}
	},
}

// formatIssueLine renders one issue as a single list row.
func formatIssueLine(issue *types.Issue) string {
	pri := string(issue.Priority)
	switch issue.Priority {
	case types.PriorityCritical:
		pri = color.RedString("%-8s", pri)
	case types.PriorityHigh:
		pri = color.YellowString("%-8s", pri)
	default:
		pri = fmt.Sprintf("%-8s", pri)
	}

	lock := ""
	if issue.WorkStatus == types.WorkLocked {
		lock = color.CyanString(" [%s]", issue.LockedBy)
	}
	return fmt.Sprintf("%-16s %s %-12s %s%s", issue.IssueID, pri, issue.Status, issue.Title, lock)
}

func init() {
	listCmd.Flags().StringP("status", "s", "", "Filter by status (outstanding|in_progress|resolved|failed)")
	listCmd.Flags().StringP("priority", "p", "", "Filter by priority (critical|high|medium)")
	listCmd.Flags().String("project", "", "Filter by project")
	listCmd.Flags().Bool("available", false, "Only claimable issues")
	listCmd.Flags().Bool("locked", false, "Only checked-out issues")
	listCmd.Flags().IntP("limit", "n", 0, "Maximum issues to show (0 = all)")
	rootCmd.AddCommand(listCmd)
}
