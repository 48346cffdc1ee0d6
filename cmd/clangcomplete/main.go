package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/teranos/clangcomplete/cmd/clangcomplete/commands"
	"github.com/teranos/clangcomplete/logger"
	"github.com/teranos/clangcomplete/version"
)

var rootCmd = &cobra.Command{
	Use:   "clangcomplete",
	Short: "C/C++ code completion through an out-of-process backend",
	Long: `clangcomplete - C/C++ code completion through an out-of-process backend.

The completion backend (clangbackend) runs as a child process and is restarted
transparently if it crashes or hangs. Registered files and project parts are
replayed into every new backend.

Available commands:
  complete - Complete code at a position in a file
  config   - Show the effective configuration
  version  - Show version information

Examples:
  clangcomplete complete main.cpp --marker @         # Complete where "@" is
  clangcomplete complete main.cpp --offset 120 -I include
  clangcomplete complete src/a.cpp --marker @ --project project.toml --format json
  clangcomplete config show --format yaml`,
	Version:       version.Get().String(),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env values are overridden by the real environment
		_ = godotenv.Load()

		verbosity, _ := cmd.Flags().GetCount("verbose")
		jsonLog, _ := cmd.Flags().GetBool("json-log")
		if err := logger.Initialize(jsonLog, verbosity); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Cleanup()
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv, -vvv)")
	rootCmd.PersistentFlags().Bool("json-log", false, "Write logs to stderr as JSON")

	rootCmd.AddCommand(commands.CompleteCmd)
	rootCmd.AddCommand(commands.ConfigCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
