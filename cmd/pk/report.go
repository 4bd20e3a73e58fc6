package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/picket-dev/picket/internal/rpc"
	"github.com/picket-dev/picket/internal/types"
)

var reportCmd = &cobra.Command{
	Use:   "report <issue-id>",
	Short: "Submit a structured attempt report",
	Long: `Reads a JSON report from --file (or stdin with "-") and records it on the
issue's thread. A SUCCESS outcome resolves the issue; a FAILURE outcome
counts the attempt, releases the lock, and returns the issue to the pool
(or marks it failed once the store's max_attempts policy is reached).`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		issueID := args[0]
		file, _ := cmd.Flags().GetString("file")
		agent, _ := cmd.Flags().GetString("agent")
		if agent == "" {
			agent = actor
		}

		var raw []byte
		var err error
		if file == "" || file == "-" {
			raw, err = io.ReadAll(os.Stdin)
		} else {
			raw, err = os.ReadFile(file)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading report: %v\n", err)
			os.Exit(1)
		}

		var report types.Report
		if err := json.Unmarshal(raw, &report); err != nil {
			fmt.Fprintf(os.Stderr, "Error: report is not valid JSON: %v\n", err)
			os.Exit(1)
		}

		if serverClient != nil {
			err = serverClient.Report(&rpc.ReportArgs{IssueID: issueID, Report: &report, Agent: agent})
		} else {
			err = store.SubmitReport(context.Background(), issueID, &report, agent)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if jsonOutput {
			outputJSON(map[string]interface{}{
				"issue_id": issueID,
				"attempt":  report.AttemptNumber,
				"outcome":  report.Outcome.Result,
			})
		} else {
			green := color.New(color.FgGreen).SprintFunc()
			fmt.Printf("%s Recorded attempt %d on %s: %s\n",
				green("✓"), report.AttemptNumber, issueID, report.Outcome.Result)
		}
	},
}

func init() {
	reportCmd.Flags().StringP("file", "f", "", "Report JSON file (default: stdin)")
	reportCmd.Flags().String("agent", "", "Agent submitting the report (default: actor)")
	rootCmd.AddCommand(reportCmd)
}
