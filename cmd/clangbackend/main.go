// Command clangbackend is the completion backend process. It speaks the
// framed protocol on stdin/stdout and logs to stderr.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/teranos/clangcomplete/clangbackend"
	"github.com/teranos/clangcomplete/logger"
	"github.com/teranos/clangcomplete/parser/treesitter"
	"github.com/teranos/clangcomplete/version"
)

var (
	aliveInterval   time.Duration
	logLevel        string
	jsonLog         bool
	maxIncludeDepth int
)

var rootCmd = &cobra.Command{
	Use:   "clangbackend",
	Short: "C/C++ code completion backend",
	Long: `clangbackend answers code completion requests for a clangcomplete client.

It reads length-prefixed msgpack commands on stdin and writes responses on
stdout. Diagnostics go to stderr. It is started and supervised by the
client; running it by hand is only useful for debugging the protocol.`,
	Version:       version.Get().String(),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runBackend,
}

func init() {
	rootCmd.Flags().StringVar(&logLevel, "log-level", "warn", "Log level on stderr: debug, info, warn")
	rootCmd.Flags().BoolVar(&jsonLog, "json-log", false, "Log as JSON")
	rootCmd.Flags().DurationVar(&aliveInterval, "alive-interval", clangbackend.DefaultAliveInterval, "Heartbeat interval, 0 disables")
	rootCmd.Flags().IntVar(&maxIncludeDepth, "max-include-depth", treesitter.DefaultMaxIncludeDepth, "Maximum nesting of followed #include directives")
}

func runBackend(cmd *cobra.Command, args []string) error {
	if err := logger.Initialize(jsonLog, logger.ParseLevel(logLevel)); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Cleanup()

	log := logger.ComponentLogger("backend")
	engine := treesitter.New(
		treesitter.WithLogger(logger.ComponentLogger("parser")),
		treesitter.WithMaxIncludeDepth(maxIncludeDepth),
	)
	srv := clangbackend.NewServer(engine,
		clangbackend.WithLogger(log),
		clangbackend.WithAliveInterval(aliveInterval),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.Serve(ctx, os.Stdin, os.Stdout)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "clangbackend: %v\n", err)
		os.Exit(1)
	}
}
