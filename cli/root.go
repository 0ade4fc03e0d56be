// Package cli assembles the n8nctl command tree: a cobra root command
// that loads layered configuration and a logger into cmd.Context()
// before any subcommand runs.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	autofixcmd "github.com/n8nctl/n8nctl/cli/cmd/autofix"
	breakingcmd "github.com/n8nctl/n8nctl/cli/cmd/breaking"
	catalogcmd "github.com/n8nctl/n8nctl/cli/cmd/catalog"
	diffcmd "github.com/n8nctl/n8nctl/cli/cmd/diffcmd"
	migratecmd "github.com/n8nctl/n8nctl/cli/cmd/migrate"
	schemacmd "github.com/n8nctl/n8nctl/cli/cmd/schema"
	validatecmd "github.com/n8nctl/n8nctl/cli/cmd/validate"
	versionscmd "github.com/n8nctl/n8nctl/cli/cmd/versions"
	workflowcmd "github.com/n8nctl/n8nctl/cli/cmd/workflow"
	"github.com/n8nctl/n8nctl/cli/helpers"
	"github.com/n8nctl/n8nctl/internal/lifecycle"
	"github.com/n8nctl/n8nctl/pkg/config"
	"github.com/n8nctl/n8nctl/pkg/logger"
	"github.com/spf13/cobra"
)

// RootCmd builds the n8nctl command tree.
func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "n8nctl",
		Short: "Validate, fix, migrate, diff, and version n8n workflow documents",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return SetupGlobalConfig(cmd)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	addGlobalFlags(root)
	root.AddCommand(
		validatecmd.NewCommand(),
		autofixcmd.NewCommand(),
		migratecmd.NewCommand(),
		diffcmd.NewCommand(),
		breakingcmd.NewCommand(),
		catalogcmd.NewCommand(),
		versionscmd.NewCommand(),
		workflowcmd.NewCommand(),
		schemacmd.NewCommand(),
	)
	return root
}

func addGlobalFlags(root *cobra.Command) {
	root.PersistentFlags().Bool("json", false, "emit machine-readable JSON instead of human output")
	root.PersistentFlags().Bool("debug", false, "enable debug logging and stack-level detail")
	root.PersistentFlags().Bool("quiet", false, "suppress non-essential logging")
	root.PersistentFlags().Bool("no-color", false, "disable ANSI color in human output")
	root.PersistentFlags().String("config", "", "path to a config.yaml (defaults to ~/.config/n8nctl/config.yaml)")
	root.PersistentFlags().String("base-url", "", "control-plane base URL")
	root.PersistentFlags().String("api-key", "", "control-plane API key")
}

// SetupGlobalConfig loads configuration (default -> yaml -> env -> cli
// flags) and a logger into cmd.Context() before any subcommand runs.
func SetupGlobalConfig(cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	flags, err := extractGlobalFlags(cmd)
	if err != nil {
		return fmt.Errorf("cli: extract flags: %w", err)
	}

	stateDir, err := config.StateDir()
	if err != nil {
		return fmt.Errorf("cli: resolve state dir: %w", err)
	}

	yamlPath := config.YAMLPath(stateDir)
	if v, _ := cmd.Flags().GetString("config"); v != "" {
		yamlPath = v
	}

	mgr := config.NewManager(nil)
	cfg, err := mgr.Load(ctx,
		config.NewDefaultProvider(),
		config.NewYAMLProvider(yamlPath),
		config.NewEnvProvider(),
		config.NewCLIProvider(flags),
	)
	if err != nil {
		return fmt.Errorf("cli: load configuration: %w", err)
	}
	config.ResolveStorePaths(&cfg.Store, stateDir)

	ctx = config.ContextWithManager(ctx, mgr)
	ctx = logger.ContextWithLogger(ctx, buildLogger(cfg))
	cmd.SetContext(ctx)
	return nil
}

func buildLogger(cfg *config.Config) logger.Logger {
	level := logger.InfoLevel
	switch {
	case cfg.CLI.Quiet:
		level = logger.DisabledLevel
	case cfg.CLI.Debug:
		level = logger.DebugLevel
	}
	return logger.SetupLogger(level, helpers.ShouldUseColor(cfg.CLI.NoColor), cfg.CLI.Debug)
}

func extractGlobalFlags(cmd *cobra.Command) (map[string]any, error) {
	out := map[string]any{}
	boolFlags := []string{"json", "debug", "quiet", "no-color"}
	for _, name := range boolFlags {
		v, err := cmd.Flags().GetBool(name)
		if err != nil {
			return nil, err
		}
		if v {
			out[name] = v
		}
	}
	stringFlags := []string{"base-url", "api-key"}
	for _, name := range stringFlags {
		v, err := cmd.Flags().GetString(name)
		if err != nil {
			return nil, err
		}
		if v != "" {
			out[name] = v
		}
	}
	return out, nil
}

// Execute runs the root command and returns the process exit code. It is
// the simple entry point for callers that don't need the signal-driven
// context cancellation cmd/n8nctl/main.go wires on top of MapExitCode.
func Execute() int {
	return MapExitCode(RootCmd().Execute())
}

// MapExitCode maps a command error to the process exit code, printing a
// *lifecycle.CLIError's code/message/hint per the error-rendering
// contract. Any other error (cobra usage errors, or a subcommand error
// that wasn't wrapped as a CLIError) falls back to ExitUsageError.
func MapExitCode(err error) int {
	if err == nil {
		return int(lifecycle.ExitSuccess)
	}

	var cliErr *lifecycle.CLIError
	if errors.As(err, &cliErr) {
		fmt.Fprintf(os.Stderr, "error [%s]: %s\n", cliErr.Code, cliErr.Message)
		if cliErr.Hint != "" {
			fmt.Fprintf(os.Stderr, "hint: %s\n", cliErr.Hint)
		}
		return int(cliErr.Exit)
	}

	fmt.Fprintln(os.Stderr, "error:", err)
	return int(lifecycle.ExitUsageError)
}
