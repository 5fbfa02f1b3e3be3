package cli

import (
	"fmt"
	"os"

	"github.com/charliek/tailhub/internal/config"
	"github.com/charliek/tailhub/internal/constants"
	"github.com/charliek/tailhub/internal/daemon"
	"github.com/charliek/tailhub/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Version is set during build
var Version = "dev"

// Global flags
var (
	configPath string
	apiAddr    string
	logLevel   string
	logFormat  string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "tailhub",
	Short: "Real-time log hub",
	Long: `tailhub follows the logs of a fixed set of sources and streams them
live to any number of viewers:
  - One follow process per source (docker logs -f, journalctl -f, tail -F)
  - Websocket and server-sent event streams
  - Terminal viewer with per-source tabs, pause and follow mode`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if !cmd.Flags().Changed("config") {
			configPath = discoverConfigPath()
		}

		// Client commands find a running hub unless --addr says otherwise
		clientCommands := map[string]bool{
			"status": true,
			"tail":   true,
			"stop":   true,
			"watch":  true,
		}
		if clientCommands[cmd.Name()] && !cmd.Flags().Changed("addr") {
			apiAddr = discoverAPIAddress()
		}
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "tailhub version %s\n", Version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", constants.DefaultConfigFile, "Config file")
	rootCmd.PersistentFlags().StringVar(&apiAddr, "addr", constants.DefaultAPIAddress, "Hub address for client commands")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", logging.FormatConsole, "Log format (console, json)")

	rootCmd.SetVersionTemplate("tailhub version {{.Version}}\n")

	rootCmd.AddCommand(versionCmd)
}

// newLogger builds the process logger from the global flags. A non-empty
// file sends output there instead of stderr.
func newLogger(file string) (*zap.Logger, error) {
	opts := logging.DefaultOptions()
	opts.Level = logLevel
	opts.Format = logFormat
	opts.File = file
	return logging.New(opts)
}

// loadAPIAddrFromConfig attempts to read the hub address from the config file.
// Returns empty string if config doesn't exist or can't be read.
func loadAPIAddrFromConfig() string {
	cfg, err := config.Load(configPath)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("http://%s:%d", cfg.API.Host, cfg.API.Port)
}

// discoverAPIAddress attempts to discover the hub address.
// Priority:
// 1. State file (.tailhub/state.json) of a hub serving this directory
// 2. Config file (tailhub.yaml)
// 3. Default address
func discoverAPIAddress() string {
	if cwd, err := os.Getwd(); err == nil {
		if state, err := daemon.RunningState(cwd); err == nil {
			return "http://" + state.Address()
		}
	}

	if addr := loadAPIAddrFromConfig(); addr != "" {
		return addr
	}

	return constants.DefaultAPIAddress
}

// discoverConfigPath returns the first known config file name present in the
// working directory, or the default name
func discoverConfigPath() string {
	if cwd, err := os.Getwd(); err == nil {
		if path, err := config.FindConfigFile(cwd); err == nil {
			return path
		}
	}
	return constants.DefaultConfigFile
}

// getSourceNames returns source names from config for shell completion
func getSourceNames() []string {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil
	}
	return cfg.SourceNames()
}

// completeSourceNames completes any number of source arguments
func completeSourceNames(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return getSourceNames(), cobra.ShellCompDirectiveNoFileComp
}
