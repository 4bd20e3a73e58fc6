package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/picket-dev/picket/internal/config"
	"github.com/picket-dev/picket/internal/rpc"
	"github.com/picket-dev/picket/internal/storage"
)

var checkoutCmd = &cobra.Command{
	Use:   "checkout <issue-id>",
	Short: "Claim an issue for exclusive work",
	Long: `Atomically locks an issue so no other agent can claim it. Checkout does
not change lifecycle status; use 'pk status' to mark work in progress.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		issueID := args[0]
		agent, _ := cmd.Flags().GetString("agent")
		if agent == "" {
			agent = actor
		}

		err := retryBusy(func() error {
			if serverClient != nil {
				return serverClient.Checkout(&rpc.CheckoutArgs{IssueID: issueID, Agent: agent})
			}
			return store.CheckoutIssue(context.Background(), issueID, agent)
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if jsonOutput {
			outputJSON(map[string]string{"issue_id": issueID, "locked_by": agent})
		} else {
			green := color.New(color.FgGreen).SprintFunc()
			fmt.Printf("%s Checked out %s as %s\n", green("✓"), issueID, agent)
		}
	},
}

// retryBusy runs op, retrying with jittered exponential backoff only on
// transient storage contention. All other failures, including a lost claim,
// surface immediately.
func retryBusy(op func() error) error {
	retries := config.GetInt("busy-retries")
	backoff := config.GetDuration("busy-backoff")
	if backoff <= 0 {
		backoff = 100 * time.Millisecond
	}

	var err error
	for attempt := 0; ; attempt++ {
		err = op()
		if err == nil || !isBusy(err) || attempt >= retries {
			return err
		}
		sleep := backoff * (1 << attempt)
		sleep += time.Duration(rand.Int63n(int64(backoff)))
		time.Sleep(sleep)
	}
}

// isBusy matches contention both as a sentinel (direct mode) and as a server
// error string (server mode).
func isBusy(err error) bool {
	if errors.Is(err, storage.ErrBusy) {
		return true
	}
	return strings.Contains(err.Error(), storage.ErrBusy.Error())
}

func init() {
	checkoutCmd.Flags().String("agent", "", "Agent name holding the lock (default: actor)")
	rootCmd.AddCommand(checkoutCmd)
}
