package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/charliek/tailhub/internal/api"
	"github.com/charliek/tailhub/internal/config"
	"github.com/charliek/tailhub/internal/constants"
	"github.com/charliek/tailhub/internal/daemon"
	"github.com/charliek/tailhub/internal/hub"
	"github.com/charliek/tailhub/internal/supervisor"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// serveOptions configures one hub run
type serveOptions struct {
	ConfigPath string
	// StateDir holds .tailhub/; the working directory for the CLI
	StateDir string
	// Port overrides the configured port when PortSet; 0 picks a free port
	Port    int
	PortSet bool
	// Echo prints every event to out
	Echo  bool
	Color bool
	// LogFile sends the hub's own logs to .tailhub/tailhub.log
	LogFile bool
}

var (
	servePort    int
	serveEcho    bool
	serveLogFile bool
)

// serveCmd runs the hub in the foreground
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the log hub",
	Long: `Run the log hub in the foreground. Every configured source gets one
follow process whose output is streamed to connected viewers. The hub exits
on SIGINT, SIGTERM or 'tailhub stop'.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cwd, err := os.Getwd()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return runServe(ctx, cmd.OutOrStdout(), serveOptions{
			ConfigPath: configPath,
			StateDir:   cwd,
			Port:       servePort,
			PortSet:    cmd.Flags().Changed("port"),
			Echo:       serveEcho,
			Color:      useColor(os.Stdout),
			LogFile:    serveLogFile,
		})
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Override the configured port (0 picks a free port)")
	serveCmd.Flags().BoolVar(&serveEcho, "echo", false, "Also print every log line to stdout")
	serveCmd.Flags().BoolVar(&serveLogFile, "log-file", false, "Write hub logs to .tailhub/tailhub.log instead of stderr")

	rootCmd.AddCommand(serveCmd)
}

// runServe runs the hub until ctx is cancelled or a shutdown is requested
// over the API. On the way out sources are stopped first so viewers receive
// their exit lines, then viewers are closed, then the listener.
func runServe(ctx context.Context, out io.Writer, opts serveOptions) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if opts.PortSet {
		if opts.Port < 0 || opts.Port > 65535 {
			return fmt.Errorf("invalid port: %d (must be 0-65535)", opts.Port)
		}
		cfg.API.Port = opts.Port
	}

	absConfig, err := filepath.Abs(opts.ConfigPath)
	if err != nil {
		absConfig = opts.ConfigPath
	}
	sources, err := cfg.ToDomainSources(filepath.Dir(absConfig))
	if err != nil {
		return fmt.Errorf("loading sources: %w", err)
	}

	// Claim the state directory
	if err := daemon.CleanupStaleFiles(opts.StateDir); err != nil {
		return err
	}
	if err := daemon.EnsureStateDir(opts.StateDir); err != nil {
		return err
	}
	pidFile := daemon.NewPIDFile(daemon.PIDPath(opts.StateDir))
	if err := pidFile.Create(); err != nil {
		if errors.Is(err, daemon.ErrPIDFileLocked) {
			return daemon.ErrAlreadyRunning
		}
		return err
	}
	defer pidFile.Release()

	logFile := ""
	if opts.LogFile {
		logFile = daemon.LogPath(opts.StateDir)
	}
	logger, err := newLogger(logFile)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	h := hub.New(hub.DefaultConfig(), logger)
	sup := supervisor.New(sources, h, nil, supervisor.DefaultSupervisorConfig(), logger)

	shutdownCh := make(chan struct{})
	var shutdownOnce sync.Once
	shutdownFn := func() {
		shutdownOnce.Do(func() { close(shutdownCh) })
	}

	handlers := api.NewHandlers(sup, h, absConfig, shutdownFn, logger)
	server := api.NewServer(api.ServerConfig{
		Host: cfg.API.Host,
		Port: cfg.API.Port,
	}, handlers, logger)
	if err := server.Listen(); err != nil {
		return err
	}

	state := &daemon.State{
		PID:        os.Getpid(),
		Port:       server.Port(),
		Host:       cfg.API.Host,
		StartedAt:  time.Now(),
		ConfigFile: absConfig,
		Sources:    sup.SourceNames(),
	}
	if err := state.Write(opts.StateDir); err != nil {
		_ = server.Shutdown(context.Background())
		return fmt.Errorf("writing state: %w", err)
	}
	defer func() {
		if err := daemon.RemoveState(opts.StateDir); err != nil {
			logger.Warn("failed to remove state file", zap.Error(err))
		}
	}()

	serverErr := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	var echoDone chan struct{}
	if opts.Echo {
		viewer, err := h.Connect()
		if err != nil {
			return err
		}
		echoDone = make(chan struct{})
		go func() {
			defer close(echoDone)
			printer := NewLogPrinter(out, opts.Color)
			for event := range viewer.Events() {
				printer.PrintMessage(api.ToLogMessage(event))
			}
		}()
	}

	fmt.Fprintf(out, "tailhub serving %d sources on http://%s\n", len(sources), server.Addr())

	result, err := sup.Start(context.Background())
	if err != nil {
		return err
	}
	for name, startErr := range result.Failed {
		logger.Error("source failed to start", zap.String("source", name), zap.Error(startErr))
	}

	if _, err := daemon.NotifyReady(); err != nil {
		logger.Debug("systemd notify failed", zap.Error(err))
	}
	_, _ = daemon.NotifyStatus("Streaming %d of %d sources", len(result.Started), len(sources))

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("signal received, shutting down")
	case <-shutdownCh:
		logger.Info("shutdown requested via API")
	case runErr = <-serverErr:
		logger.Error("server failed", zap.Error(runErr))
	}

	_, _ = daemon.NotifyStopping()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.DefaultShutdownTimeout)
	defer cancel()

	if err := sup.Stop(shutdownCtx); err != nil {
		logger.Warn("error stopping sources", zap.Error(err))
	}
	h.Close()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("error stopping server", zap.Error(err))
	}
	if echoDone != nil {
		<-echoDone
	}

	fmt.Fprintln(out, "Shutdown complete")
	return runErr
}
