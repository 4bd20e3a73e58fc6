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

var createCmd = &cobra.Command{
	Use:   "create [title]",
	Short: "Create a new issue",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		titleFlag, _ := cmd.Flags().GetString("title")
		var title string
		switch {
		case len(args) > 0 && titleFlag != "" && args[0] != titleFlag:
			fmt.Fprintf(os.Stderr, "Error: cannot specify different titles as both positional argument and --title flag\n")
			os.Exit(1)
		case len(args) > 0:
			title = args[0]
		case titleFlag != "":
			title = titleFlag
		default:
			fmt.Fprintf(os.Stderr, "Error: title required\n")
			os.Exit(1)
		}

		description, _ := cmd.Flags().GetString("description")
		priority, _ := cmd.Flags().GetString("priority")
		project, _ := cmd.Flags().GetString("project")
		issueType, _ := cmd.Flags().GetString("type")
		location, _ := cmd.Flags().GetString("location")
		rootCause, _ := cmd.Flags().GetString("root-cause")
		requiredFix, _ := cmd.Flags().GetString("required-fix")

		issue := &types.Issue{
			Title:       title,
			Description: description,
			Priority:    types.Priority(priority),
			Project:     project,
			IssueType:   issueType,
			Location:    location,
			RootCause:   rootCause,
			RequiredFix: requiredFix,
		}

		if serverClient != nil {
			created, err := serverClient.Create(&rpc.CreateArgs{Issue: issue, Actor: actor})
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			issue = created
		} else {
			if err := store.CreateIssue(context.Background(), issue, actor); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		}

		if jsonOutput {
			outputJSON(issue)
		} else {
			green := color.New(color.FgGreen).SprintFunc()
			fmt.Printf("%s Created issue: %s\n", green("✓"), issue.IssueID)
			fmt.Printf("  Title: %s\n", issue.Title)
			fmt.Printf("  Priority: %s\n", issue.Priority)
			fmt.Printf("  Status: %s\n", issue.Status)
		}
	},
}

func init() {
	createCmd.Flags().String("title", "", "Issue title (alternative to positional argument)")
	createCmd.Flags().StringP("description", "d", "", "Issue description")
	createCmd.Flags().StringP("priority", "p", "medium", "Priority (critical|high|medium)")
	createCmd.Flags().String("project", "", "Project or component name")
	createCmd.Flags().StringP("type", "t", "", "Issue type (e.g. bug, regression, flaky-test)")
	createCmd.Flags().String("location", "", "File or code location the issue points at")
	createCmd.Flags().String("root-cause", "", "Root cause analysis")
	createCmd.Flags().String("required-fix", "", "Expected fix description")
	rootCmd.AddCommand(createCmd)
}
