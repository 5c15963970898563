package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/npratt/buildwatch/internal/buildlog"
	"github.com/npratt/buildwatch/internal/config"
	"github.com/npratt/buildwatch/internal/dashboard"
	"github.com/npratt/buildwatch/internal/shutdown"
)

var version = "dev"

// untilSignalFunc has the signature of shutdown.RunUntilSignal.
type untilSignalFunc func(ctx context.Context, logger *slog.Logger, timeout time.Duration, run func(ctx context.Context) error) error

// app carries what the root command needs beyond its flags.
type app struct {
	v        *viper.Viper
	stdout   io.Writer
	stderr   io.Writer
	exitCode int
	// dashOpts is appended after the options derived from config.
	dashOpts    []dashboard.Option
	untilSignal untilSignalFunc
}

func newApp(stdout, stderr io.Writer) *app {
	v := viper.New()
	v.SetEnvPrefix("BUILDWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	return &app{v: v, stdout: stdout, stderr: stderr, untilSignal: shutdown.RunUntilSignal}
}

func main() {
	a := newApp(os.Stdout, os.Stderr)
	os.Exit(a.execute(context.Background(), os.Args[1:]))
}

// execute runs the command line and returns the process exit code.
func (a *app) execute(ctx context.Context, args []string) int {
	rootCmd := a.newRootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(a.stdout)
	rootCmd.SetErr(a.stderr)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintf(a.stderr, "buildwatch: %v\n", err)
		return dashboard.ExitFailure
	}
	return a.exitCode
}

func (a *app) newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "buildwatch",
		Short: "Run build phases under a live terminal dashboard",
		Long: `buildwatch runs the configured build phases (by default "make clean"
then "make") one after another, streaming their output into a terminal
dashboard next to host telemetry. Every status message is mirrored into
a plain-text build log.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		FParseErrWhitelist: cobra.FParseErrWhitelist{
			UnknownFlags: true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			a.exitCode = a.runBuild(cmd.Context())
			return nil
		},
	}

	rootCmd.Flags().Bool(FlagNoExitKeypress, false, "Exit as soon as the build finishes instead of waiting for a key")
	rootCmd.Flags().String(FlagConfig, "", "Config file path (default: .buildwatch/config.yaml)")
	rootCmd.Flags().String(FlagBuildLog, "", "Build log path (default: BuildLog.txt)")
	rootCmd.Flags().Bool(FlagVerbose, false, "Enable verbose (debug) logging")

	bindings := map[string]string{
		FlagNoExitKeypress: keyNoExitKeypress,
		FlagConfig:         keyConfig,
		FlagBuildLog:       keyBuildLog,
		FlagVerbose:        keyVerbose,
	}
	rootCmd.Flags().VisitAll(func(f *pflag.Flag) {
		if key, ok := bindings[f.Name]; ok {
			_ = a.v.BindPFlag(key, f)
		}
	})

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "buildwatch %s\n", version)
		},
	}
	rootCmd.AddCommand(versionCmd)

	return rootCmd
}

// runBuild loads config, runs the dashboard and returns the exit code.
func (a *app) runBuild(ctx context.Context) int {
	cfg, err := config.LoadConfig(a.v)
	if err != nil {
		_, _ = fmt.Fprintf(a.stderr, "buildwatch: load config: %v\n", err)
		return dashboard.ExitFailure
	}

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logResult := SetupLogger(cfg.DebugLogPath(), level, cfg.LogRotation)
	defer func() { _ = logResult.Close() }()
	logger := logResult.Logger

	log, err := buildlog.Open(cfg.Paths.BuildLog)
	if err != nil {
		_, _ = fmt.Fprintf(a.stderr, "buildwatch: %v\n", err)
		logger.Error("open build log failed", "error", err)
		return dashboard.ExitFailure
	}

	phases, err := cfg.BuildPhases()
	if err != nil {
		a.reportFatal(log, logger, err, nil)
		return a.closeLog(log, dashboard.ExitFailure)
	}

	d := dashboard.New(phases, log, append([]dashboard.Option{
		dashboard.WithLogger(logger),
		dashboard.WithNoExitKeypress(cfg.NoExitKeypress),
		dashboard.WithTiming(cfg.Timing.PollInterval, cfg.Timing.SpinnerInterval, cfg.Timing.TelemetryInterval),
	}, a.dashOpts...)...)

	logger.Info("buildwatch starting",
		"version", version,
		"phases", len(phases),
		"build_log", cfg.Paths.BuildLog,
		"debug_log", logResult.FilePath,
		"config_files", cfg.Sources,
	)

	result, err := runDashboard(ctx, logger, a.untilSignal, d.Run)
	if err != nil {
		a.reportFatal(log, logger, err, result.Cursors)
		return a.closeLog(log, dashboard.ExitFailure)
	}

	logger.Info("buildwatch finished", "exit_code", result.ExitCode, "log_entries", log.Entries())
	return a.closeLog(log, result.ExitCode)
}

// runDashboard runs the dashboard under signal handling. The result comes
// back on a channel: after a shutdown timeout the run may still be going,
// and the zero Result is returned instead.
func runDashboard(ctx context.Context, logger *slog.Logger, until untilSignalFunc, run func(ctx context.Context) (dashboard.Result, error)) (dashboard.Result, error) {
	results := make(chan dashboard.Result, 1)
	err := until(ctx, logger, shutdown.DefaultTimeout, func(ctx context.Context) error {
		result, runErr := run(ctx)
		results <- result
		return runErr
	})

	select {
	case result := <-results:
		return result, err
	default:
		return dashboard.Result{}, err
	}
}

// reportFatal is the single handler for errors that stop buildwatch before
// or outside the dashboard: the message goes to stderr, and the build log
// gets a status entry plus a diagnostic with the error's stack.
func (a *app) reportFatal(log *buildlog.Log, logger *slog.Logger, err error, cursors []buildlog.PaneCursor) {
	_, _ = fmt.Fprintf(a.stderr, "buildwatch: %v\n", err)
	log.Append(buildlog.SeverityError, "Build failed: "+err.Error())
	log.Diagnostic(err, cursors)
	logger.Error("build failed", "error", err)
}

// closeLog closes the build log; a failed write turns any exit code into
// a failure.
func (a *app) closeLog(log *buildlog.Log, code int) int {
	if err := log.Close(); err != nil {
		_, _ = fmt.Fprintf(a.stderr, "buildwatch: write build log: %v\n", err)
		return dashboard.ExitFailure
	}
	return code
}
