// Package cli provides the command-line interface for logo-cruncher.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/logocruncher/logo-cruncher/internal/config"
	"github.com/logocruncher/logo-cruncher/internal/core"
	"github.com/logocruncher/logo-cruncher/internal/logging"
	"github.com/logocruncher/logo-cruncher/internal/progress"
)

var (
	// Global flags
	cfgFile      string
	executorMode string
	filesDir     string
	verbose      bool
	debug        bool

	// Global logger
	logger *logging.Logger

	// Global context for signal handling
	rootContext context.Context
	cancelFunc  context.CancelFunc
)

// Version information - set by main package at startup from internal/version.
var (
	Version   = "v0.0.0-dev"
	BuildTime = "unknown"
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "logo-cruncher",
		Short: "Logo Cruncher - turn pasted job payloads into logo jobs",
		Long: `Logo Cruncher ` + Version + ` - Built: ` + BuildTime + `
Parses pasted JSON payloads into logo jobs, hands them to a processing
backend and lists the files the backend works on.

The backend is selected with --executor (or [executor] mode in the config):
  local    built-in backend, runs in this process
  process  external program speaking the JSON envelope on stdin/stdout
  http     backend service reached over HTTP`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = logging.NewDefaultCLILogger()
			if verbose || debug {
				logging.SetGlobalLevel(zerolog.DebugLevel)
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&executorMode, "executor", "", "Backend executor: local, process or http (overrides config)")
	rootCmd.PersistentFlags().StringVar(&filesDir, "dir", "", "Working directory listed by the backend (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output (shows debug messages)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug output (same as --verbose)")

	rootCmd.Version = Version + " (" + BuildTime + ")"

	rootCmd.AddCommand(newCompletionCmd(rootCmd))
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	return rootCmd
}

func newCompletionCmd(rootCmd *cobra.Command) *cobra.Command {
	completionCmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Enable tab-completion for logo-cruncher commands",
		Long: `Generate shell completion scripts for logo-cruncher.

QUICK START:

  bash:
    logo-cruncher completion bash | sudo tee /etc/bash_completion.d/logo-cruncher

  zsh:
    logo-cruncher completion zsh > "${fpath[1]}/_logo-cruncher"

  fish:
    logo-cruncher completion fish > ~/.config/fish/completions/logo-cruncher.fish`,
	}

	completionCmd.AddCommand(&cobra.Command{
		Use:   "bash",
		Short: "Generate bash completion script",
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootCmd.Root().GenBashCompletion(cmd.OutOrStdout())
		},
	})
	completionCmd.AddCommand(&cobra.Command{
		Use:   "zsh",
		Short: "Generate zsh completion script",
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootCmd.Root().GenZshCompletion(cmd.OutOrStdout())
		},
	})
	completionCmd.AddCommand(&cobra.Command{
		Use:   "fish",
		Short: "Generate fish completion script",
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootCmd.Root().GenFishCompletion(cmd.OutOrStdout(), true)
		},
	})
	completionCmd.AddCommand(&cobra.Command{
		Use:   "powershell",
		Short: "Generate PowerShell completion script",
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootCmd.Root().GenPowerShellCompletion(cmd.OutOrStdout())
		},
	})

	return completionCmd
}

// Execute runs the CLI.
func Execute() error {
	rootContext, cancelFunc = context.WithCancel(context.Background())
	defer cancelFunc()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Loop so that repeated Ctrl+C presses do not block the sender.
	go func() {
		for sig := range sigChan {
			if sig != nil {
				fmt.Fprintf(os.Stderr, "\nReceived signal %v, cancelling...\n", sig)
				cancelFunc()
			}
		}
	}()

	rootCmd := NewRootCmd()
	AddCommands(rootCmd)
	err := rootCmd.Execute()

	signal.Stop(sigChan)
	close(sigChan)

	return err
}

// AddCommands adds all subcommands to the root command.
func AddCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(newJobsCmd())
	rootCmd.AddCommand(newFilesCmd())
	rootCmd.AddCommand(newGreetCmd())
	rootCmd.AddCommand(newLogoListCmd())
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newBackendCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newVersionCmd())
}

// GetLogger returns the global CLI logger.
func GetLogger() *logging.Logger {
	if logger == nil {
		logger = logging.NewDefaultCLILogger()
	}
	return logger
}

// GetContext returns the global CLI context with signal handling.
// This context will be cancelled when the user presses Ctrl+C.
func GetContext() context.Context {
	if rootContext == nil {
		return context.Background()
	}
	return rootContext
}

// loadConfig reads the configuration file and applies the global flag
// overrides on top of it.
func loadConfig() (*config.Config, string, error) {
	cfg, path, exists, err := config.Load(cfgFile)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load configuration: %w", err)
	}

	if executorMode != "" {
		cfg.Executor.Mode = strings.ToLower(strings.TrimSpace(executorMode))
	}
	if filesDir != "" {
		dir, err := config.ExpandPath(filesDir)
		if err != nil {
			return nil, "", fmt.Errorf("invalid --dir: %w", err)
		}
		cfg.Files.Directory = dir
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}

	if cfg.Debug {
		logging.SetGlobalLevel(zerolog.DebugLevel)
	}
	GetLogger().Debug().Str("path", path).Bool("exists", exists).Str("executor", cfg.Executor.Mode).Msg("Configuration loaded")
	return cfg, path, nil
}

// startEngine builds and starts an engine for the effective configuration.
// Each setup function runs before Start. Callers must Close the returned
// engine.
func startEngine(ctx context.Context, setup ...func(*core.Engine)) (*core.Engine, error) {
	cfg, _, err := loadConfig()
	if err != nil {
		return nil, err
	}

	engine, err := core.NewEngine(cfg, GetLogger())
	if err != nil {
		return nil, err
	}
	for _, fn := range setup {
		fn(engine)
	}
	if err := engine.Start(ctx); err != nil {
		engine.Close()
		return nil, err
	}
	return engine, nil
}

// newReporter returns a spinner on an interactive stderr. Verbose runs get
// no spinner.
func newReporter() progress.Reporter {
	return progress.New(os.Stderr, !verbose && !debug)
}
