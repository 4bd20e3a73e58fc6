package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/picket-dev/picket"
	"github.com/picket-dev/picket/internal/config"
	"github.com/picket-dev/picket/internal/rpc"
	"github.com/picket-dev/picket/internal/storage"
	"github.com/picket-dev/picket/internal/storage/sqlite"
)

var (
	dbPath     string
	actor      string
	jsonOutput bool
	noServer   bool

	store storage.Storage

	// serverClient is non-nil when a pk serve process owns the store and
	// commands route through it.
	serverClient *rpc.Client
)

var rootCmd = &cobra.Command{
	Use:   "pk",
	Short: "pk - Shared work-item tracker for agent fleets",
	Long: `A claim-and-lifecycle tracker. Agents discover issues, check them out with
race-free locks, work them, and file structured attempt reports against a
shared store.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Priority: flags > viper (config file + env vars) > defaults
		if !cmd.Flags().Changed("json") {
			jsonOutput = config.GetBool("json")
		}
		if !cmd.Flags().Changed("no-server") {
			noServer = config.GetBool("no-server")
		}
		if !cmd.Flags().Changed("db") && dbPath == "" {
			dbPath = config.GetString("db")
		}
		if !cmd.Flags().Changed("actor") && actor == "" {
			actor = config.GetString("actor")
		}

		// Commands that manage their own store access
		switch cmd.Name() {
		case "init", "help", "version", "completion":
			return
		}

		rpc.ClientVersion = Version

		if dbPath == "" {
			dbPath = picket.FindDatabasePath()
			if dbPath == "" {
				fmt.Fprintf(os.Stderr, "Error: no picket database found\n")
				fmt.Fprintf(os.Stderr, "Hint: run 'pk init' to create a database in the current directory\n")
				fmt.Fprintf(os.Stderr, "      or set PICKET_DB to specify a database\n")
				os.Exit(1)
			}
		}

		// Actor priority: --actor flag > config/PICKET_ACTOR > USER > "unknown"
		if actor == "" {
			if user := os.Getenv("USER"); user != "" {
				actor = user
			} else {
				actor = "unknown"
			}
		}

		// serve owns the store directly and must not route through itself
		if cmd.Name() == "serve" {
			return
		}

		if !noServer {
			client, err := rpc.TryConnect(getSocketPath())
			if err == nil && client != nil {
				serverClient = client
				return
			}
		}

		var err error
		store, err = sqlite.Open(dbPath)
		if err != nil {
			exitStoreError(err)
		}
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if serverClient != nil {
			_ = serverClient.Close()
			serverClient = nil
		}
		if store != nil {
			_ = store.Close()
			store = nil
		}
	},
}

// exitStoreError prints an open failure in terms the operator can act on.
func exitStoreError(err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		fmt.Fprintf(os.Stderr, "Error: database not found: %s\n", dbPath)
		fmt.Fprintf(os.Stderr, "Hint: run 'pk init' to create it\n")
	case errors.Is(err, storage.ErrIntegrity):
		fmt.Fprintf(os.Stderr, "Error: database is corrupt or not a picket store: %s\n", dbPath)
		fmt.Fprintf(os.Stderr, "Hint: run 'pk init' to replace it with a fresh store\n")
	case errors.Is(err, storage.ErrPermissionDenied):
		fmt.Fprintf(os.Stderr, "Error: permission denied opening %s\n", dbPath)
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(1)
}

// getSocketPath returns the serve socket next to the database: .picket/pk.sock
func getSocketPath() string {
	return filepath.Join(filepath.Dir(dbPath), "pk.sock")
}

// outputJSON writes a value as indented JSON to stdout
func outputJSON(v interface{}) {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Database path (default: auto-discover .picket/*.db or ~/.picket/default.db)")
	rootCmd.PersistentFlags().StringVar(&actor, "actor", "", "Actor name for the audit thread (default: $PICKET_ACTOR or $USER)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&noServer, "no-server", false, "Force direct storage mode, bypass a running pk serve")
}

func main() {
	// --version in addition to the 'version' subcommand
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-v" {
			fmt.Printf("pk version %s (%s)\n", Version, Build)
			return
		}
	}

	if err := config.Initialize(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
