package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"devbox_provision/pkg/config"
	"devbox_provision/pkg/log"
	"devbox_provision/pkg/task"
	"devbox_provision/pkg/workflow"
)

// confirmAction prompts the user for confirmation before proceeding with a dangerous action.
// It returns an error if the user does not confirm.
func confirmAction(prompt string) error {
	if assumeYes || dryRun {
		log.L().Debug("confirmation skipped", "prompt", prompt)
		return nil
	}

	fmt.Printf("\n!!! WARNING: %s !!!\n", prompt)
	fmt.Print("Please type 'yes' to confirm: ")

	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')

	if strings.TrimSpace(input) != "yes" {
		return fmt.Errorf("action cancelled by user")
	}

	return nil
}

// loadConfig reads the config file and applies the connection flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	log.L().Debug("Loading configuration", "path", cfgFile)
	cfg, err := config.LoadConfig(cfgFile, cmd.Flags().Changed("config"))
	if err != nil {
		return nil, fmt.Errorf("configuration loading failed: %w", err)
	}

	if sshHost != "" {
		cfg.SSH.Host = sshHost
	}
	if sshPort != 0 {
		cfg.SSH.Port = sshPort
	}
	if sshUser != "" {
		cfg.SSH.User = sshUser
	}
	if sshKey != "" {
		cfg.SSH.KeyPath = sshKey
	}
	if sshClient != "" {
		cfg.SSH.Client = sshClient
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newRunner connects to the configured host. In dry-run mode the connection is
// only used for existence checks, and its absence is tolerated.
func newRunner(ctx context.Context, cfg *config.Config) (task.Runner, error) {
	target := fmt.Sprintf("%s@%s:%d", cfg.SSH.User, cfg.SSH.Host, cfg.SSH.Port)

	runner, err := connect(ctx, cfg.SSH)
	if dryRun {
		r := &task.DryRunRunner{Host: target}
		if err != nil {
			log.L().Warn("no connection for dry run, every guard reports absent", "target", target, "error", err)
		} else {
			r.Probe = runner
		}
		return r, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", target, err)
	}
	return runner, nil
}

func connect(ctx context.Context, cfg config.SSHConfig) (task.Runner, error) {
	if cfg.Client == config.ClientOpenSSH {
		return task.NewExecRunner(cfg)
	}
	return task.NewSSHRunner(ctx, cfg)
}

// withWorkflow loads the configuration, connects and hands a workflow to fn.
func withWorkflow(cmd *cobra.Command, fn func(ctx context.Context, w *workflow.Workflow) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	runner, err := newRunner(ctx, cfg)
	if err != nil {
		return err
	}
	defer runner.Close()

	host := task.NewShell(runner, cfg.SSH.Host)
	return fn(ctx, workflow.NewWorkflow(cfg, host))
}

// override replaces *target with the flag value when the flag was given.
func override[T any](flags *pflag.FlagSet, name string, target *T, get func(string) (T, error)) error {
	if !flags.Changed(name) {
		return nil
	}
	value, err := get(name)
	if err != nil {
		return fmt.Errorf("invalid --%s: %w", name, err)
	}
	*target = value
	return nil
}

// selectRepositories narrows the repository table to names.
func selectRepositories(all map[string]config.Repository, names []string) (map[string]config.Repository, error) {
	selected := make(map[string]config.Repository, len(names))
	for _, name := range names {
		repository, ok := all[name]
		if !ok {
			return nil, fmt.Errorf("unknown repository %q", name)
		}
		selected[name] = repository
	}
	return selected, nil
}
