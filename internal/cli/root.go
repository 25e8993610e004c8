// Package cli provides the sgdesk command line: the root command opens the GUI.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pipelinekit/sgdesk/internal/config"
	"github.com/pipelinekit/sgdesk/internal/constants"
	"github.com/pipelinekit/sgdesk/internal/gui"
	"github.com/pipelinekit/sgdesk/internal/logging"
	"github.com/pipelinekit/sgdesk/internal/version"
)

var (
	// Global flags
	cfgFile string
	debug   bool
	noLog   bool

	// launch is swapped in tests
	launch = gui.Launch
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sgdesk",
		Short: constants.AppName + " - browse and transfer ShotGrid task files",
		Long: constants.AppName + ` ` + version.Version + ` - Built: ` + version.BuildTime + `
Desktop client for the ShotGrid tasks assigned to you.

Opens a window that asks for your site and login, then lists your tasks.
Each task can download its published files into a folder tree or upload a
file as a new Version.

Settings come from SGDESK_* environment variables or a .env file in the
working directory.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGUI(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Saved login file (default "+constants.CredentialsFileName+")")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.Flags().BoolVar(&noLog, "no-log-file", false, "Log to stderr only")

	rootCmd.Version = version.Version + " (" + version.BuildTime + ")"
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "sgdesk %s (%s)\n", version.Version, version.BuildTime)
		},
	}
}

func runGUI(cmd *cobra.Command) error {
	settings, err := config.LoadSettings()
	if err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	if debug {
		settings.Debug = true
	}
	if cfgFile != "" {
		settings.CredentialsPath = cfgFile
	}

	out, closeLog := logOutput(cmd.ErrOrStderr())
	defer closeLog()

	logger := logging.NewLoggerWithOutput("gui", out)
	if settings.Debug {
		logging.SetGlobalLevel(zerolog.DebugLevel)
	}

	store := config.NewCredentialStore(settings.CredentialsPath)
	logger.Info().Str("version", version.Version).Str("credentials", store.Path()).Msg("starting")

	return launch(gui.Options{
		Settings:    settings,
		Credentials: store,
		Logger:      logger,
	})
}

// logOutput tees logs to the log file when it can be opened.
func logOutput(stderr io.Writer) (io.Writer, func()) {
	if noLog {
		return stderr, func() {}
	}
	f, err := config.OpenLogFile()
	if err != nil {
		fmt.Fprintf(stderr, "Warning: log file unavailable: %v\n", err)
		return stderr, func() {}
	}
	return io.MultiWriter(stderr, f), func() { _ = f.Close() }
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
