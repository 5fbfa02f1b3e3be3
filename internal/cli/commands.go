package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/charliek/tailhub/internal/api"
	"github.com/charliek/tailhub/internal/tui"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var (
	statusJSON bool
	tailJSON   bool
	noColor    bool
)

// statusCmd shows hub and source status
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show hub and source status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStatus(cmd.OutOrStdout(), NewClient(apiAddr), statusJSON)
	},
}

// stopCmd asks a running hub to exit
var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running hub",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := NewClient(apiAddr).Shutdown(); err != nil {
			return notRunningHint(err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Shutdown initiated")
		return nil
	},
}

// tailCmd prints the live stream
var tailCmd = &cobra.Command{
	Use:               "tail [source...]",
	Short:             "Print live log lines",
	Long:              "Print live log lines from the hub. Only lines of the named sources are shown when any are given.",
	ValidArgsFunction: completeSourceNames,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		color := !noColor && useColor(os.Stdout)
		return runTail(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr(), NewClient(apiAddr), args, tailJSON, color)
	},
}

// watchCmd opens the terminal viewer
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Open the terminal viewer",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := NewClient(apiAddr)

		sources, err := client.GetSources()
		if err != nil {
			return notRunningHint(err)
		}
		names := make([]string, 0, len(sources.Sources))
		for _, s := range sources.Sources {
			names = append(names, s.Name)
		}

		return tui.Run(cmd.Context(), client, tui.Options{
			Address: displayAddress(apiAddr),
			Sources: names,
		})
	},
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Output as JSON")
	tailCmd.Flags().BoolVar(&tailJSON, "json", false, "Print wire messages as JSON")
	tailCmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colors")

	rootCmd.AddCommand(statusCmd, stopCmd, tailCmd, watchCmd)
}

// runStatus prints hub status and the source table
func runStatus(out io.Writer, client *Client, jsonOutput bool) error {
	status, err := client.GetStatus()
	if err != nil {
		return notRunningHint(err)
	}

	sources, err := client.GetSources()
	if err != nil {
		return err
	}

	if jsonOutput {
		output := map[string]interface{}{
			"status":  status,
			"sources": sources.Sources,
		}
		return json.NewEncoder(out).Encode(output)
	}

	fmt.Fprintf(out, "Status:  %s\n", status.Status)
	fmt.Fprintf(out, "Uptime:  %s\n", formatDuration(time.Duration(status.UptimeSeconds)*time.Second))
	fmt.Fprintf(out, "Config:  %s\n", status.ConfigFile)
	fmt.Fprintf(out, "Viewers: %d\n", status.Viewers)
	fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSTATE\tPID\tUPTIME\tLINES\tEXIT")
	fmt.Fprintln(w, "----\t-----\t---\t------\t-----\t----")

	for _, s := range sources.Sources {
		exit := "-"
		if s.ExitCode != nil {
			exit = fmt.Sprintf("%d", *s.ExitCode)
		}
		pid := "-"
		if s.PID > 0 {
			pid = fmt.Sprintf("%d", s.PID)
		}
		uptime := formatDuration(time.Duration(s.UptimeSeconds) * time.Second)
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n", s.Name, s.State, pid, uptime, s.Lines, exit)
	}
	return w.Flush()
}

// runTail streams the hub's output until ctx ends or the hub closes the
// channel. With sources given, other sources' lines are skipped.
func runTail(ctx context.Context, out, errOut io.Writer, client *Client, sources []string, jsonOutput, color bool) error {
	only := make(map[string]bool, len(sources))
	for _, s := range sources {
		only[s] = true
	}

	printer := NewLogPrinter(out, color)
	enc := json.NewEncoder(out)

	err := client.StreamLogs(ctx, api.StreamHandlers{
		OnMessage: func(msg api.LogMessage) {
			if len(only) > 0 && !only[msg.Container] {
				return
			}
			if jsonOutput {
				if err := enc.Encode(msg); err != nil {
					fmt.Fprintf(errOut, "Warning: failed to encode message: %v\n", err)
				}
				return
			}
			printer.PrintMessage(msg)
		},
		OnMalformed: func(data []byte, err error) {
			fmt.Fprintf(errOut, "Warning: skipping malformed message: %v\n", err)
		},
	})
	if err != nil {
		return notRunningHint(err)
	}
	return nil
}

// useColor reports whether f is a terminal that wants ANSI colors
func useColor(f *os.File) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// notRunningHint adds a hint to connection failures
func notRunningHint(err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return err
	}
	return fmt.Errorf("%w\nIs tailhub running? Try 'tailhub serve' first", err)
}

// displayAddress strips the scheme for the status bar
func displayAddress(addr string) string {
	u, err := url.Parse(addr)
	if err != nil || u.Host == "" {
		return addr
	}
	return u.Host
}

// formatDuration formats a duration nicely
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
