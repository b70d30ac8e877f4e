package cli

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/getmockd/gqlfixtures/pkg/cli/internal/output"
	"github.com/getmockd/gqlfixtures/pkg/logging"
)

var (
	// Persistent flags available to all subcommands
	logLevel   string
	logFormat  string
	jsonOutput bool

	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
	// BuildDate is injected during build
	BuildDate = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "gqlfixtures",
	Short: "gqlfixtures serves mock data for any GraphQL schema",
	Long: `gqlfixtures answers GraphQL operations against a schema with generated mock data.

Mock values and canned resolver responses can be provided in a fixtures file
(YAML or JSON). Everything not covered by fixtures is generated from the schema.`,
	SilenceUsage:  true,
	SilenceErrors: true, // We handle errors in Execute()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		info := map[string]string{
			"version": Version,
			"commit":  Commit,
			"date":    BuildDate,
			"go":      runtime.Version(),
			"os":      runtime.GOOS,
			"arch":    runtime.GOARCH,
		}
		if jsonOutput {
			return output.JSON(cmd.OutOrStdout(), info)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "gqlfixtures %s (commit %s, built %s, %s %s/%s)\n",
			Version, Commit, BuildDate, info["go"], info["os"], info["arch"])
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if code := Run(); code != 0 {
		os.Exit(code)
	}
}

// Run executes the root command with os.Args and returns the process exit code.
func Run() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(rootCmd.ErrOrStderr(), "Error:", err)
		return 1
	}
	return 0
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format (text, json)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output command results in JSON format")

	rootCmd.AddCommand(versionCmd)
}

// newLogger builds the logger selected by the persistent flags. Logs go to the
// command's error stream so stdout stays parseable.
func newLogger(cmd *cobra.Command) *slog.Logger {
	cfg := logging.DefaultConfig()
	cfg.Level = logging.ParseLevel(logLevel)
	cfg.Format = logging.ParseFormat(logFormat)
	cfg.Output = cmd.ErrOrStderr()
	cfg.Component = cmd.Name()
	return logging.New(cfg)
}
