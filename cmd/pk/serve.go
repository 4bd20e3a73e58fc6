package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/picket-dev/picket/internal/lockfile"
	"github.com/picket-dev/picket/internal/rpc"
	"github.com/picket-dev/picket/internal/storage/sqlite"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the store over a unix socket",
	Long: `Holds the store open and serves it to pk clients over .picket/pk.sock.
Other pk invocations in the same project route through the server
automatically. Only one server per store; the lock file enforces it.`,
	Run: func(cmd *cobra.Command, args []string) {
		foreground, _ := cmd.Flags().GetBool("foreground")

		picketDir := filepath.Dir(dbPath)
		if err := os.MkdirAll(picketDir, 0700); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		lock, err := lockfile.Acquire(filepath.Join(picketDir, "serve.lock"))
		if err != nil {
			if errors.Is(err, lockfile.ErrLocked) {
				fmt.Fprintf(os.Stderr, "Error: another pk serve is already running for this store\n")
			} else {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
			os.Exit(1)
		}
		defer func() { _ = lock.Close() }()

		logFile, logf := setupServeLogger(filepath.Join(picketDir, "serve.log"))
		defer func() { _ = logFile.Close() }()

		s, err := sqlite.Open(dbPath)
		if err != nil {
			exitStoreError(err)
		}
		defer func() { _ = s.Close() }()

		rpc.ServerVersion = Version
		server := rpc.NewServer(getSocketPath(), s)

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			sig := <-sigChan
			logf("received %v, shutting down", sig)
			server.Stop()
		}()

		logf("serving %s on %s (version %s)", dbPath, getSocketPath(), Version)
		if foreground {
			fmt.Printf("pk serve: %s on %s\n", dbPath, getSocketPath())
		}

		if err := server.Start(); err != nil {
			logf("server failed: %v", err)
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		logf("server stopped")
	},
}

// setupServeLogger creates a rotating log file for the server
func setupServeLogger(logPath string) (*lumberjack.Logger, func(string, ...interface{})) {
	logFile := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    getEnvInt("PICKET_LOG_MAX_SIZE", 10),
		MaxBackups: getEnvInt("PICKET_LOG_MAX_BACKUPS", 3),
		MaxAge:     getEnvInt("PICKET_LOG_MAX_AGE", 7),
		Compress:   true,
	}

	logf := func(format string, args ...interface{}) {
		msg := fmt.Sprintf(format, args...)
		timestamp := time.Now().Format("2006-01-02 15:04:05")
		_, _ = fmt.Fprintf(logFile, "[%s] %s\n", timestamp, msg)
	}
	return logFile, logf
}

// getEnvInt reads an integer from an environment variable with a default
func getEnvInt(key string, defaultValue int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultValue
}

func init() {
	serveCmd.Flags().Bool("foreground", false, "Print startup info to stdout")
	rootCmd.AddCommand(serveCmd)
}
