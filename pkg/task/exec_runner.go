package task

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"

	"devbox_provision/pkg/config"
)

// ExecRunner runs commands through the system OpenSSH client, so host aliases,
// proxies and options from an ssh config file (e.g. `vagrant ssh-config`) apply.
type ExecRunner struct {
	Binary string
	// Args precede the remote command on the client command line.
	Args []string
}

// NewExecRunner returns an ExecRunner targeting the host described by cfg.
func NewExecRunner(cfg config.SSHConfig) (*ExecRunner, error) {
	args := []string{"-o", "BatchMode=yes"}
	if cfg.ConfigFile != "" {
		configFile, err := expandHome(cfg.ConfigFile)
		if err != nil {
			return nil, err
		}
		args = append(args, "-F", configFile)
	}
	if cfg.Port != 0 {
		args = append(args, "-p", strconv.Itoa(cfg.Port))
	}
	if cfg.KeyPath != "" {
		keyPath, err := expandHome(cfg.KeyPath)
		if err != nil {
			return nil, err
		}
		args = append(args, "-i", keyPath)
	}
	if cfg.KnownHostsFile != "" {
		knownHosts, err := expandHome(cfg.KnownHostsFile)
		if err != nil {
			return nil, err
		}
		args = append(args, "-o", "UserKnownHostsFile="+knownHosts)
	} else {
		args = append(args, "-o", "StrictHostKeyChecking=no", "-o", "UserKnownHostsFile=/dev/null")
	}
	args = append(args, fmt.Sprintf("%s@%s", cfg.User, cfg.Host))

	return &ExecRunner{Binary: "ssh", Args: args}, nil
}

// Run executes a command on the remote host.
func (r *ExecRunner) Run(ctx context.Context, cmd string) (string, error) {
	args := append(append([]string{}, r.Args...), cmd)
	output, err := exec.CommandContext(ctx, r.Binary, args...).CombinedOutput()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return string(output), ctxErr
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return string(output), &ExitError{Command: cmd, Status: exitErr.ExitCode(), Output: string(output)}
		}
		return string(output), fmt.Errorf("failed to run %s: %w", r.Binary, err)
	}
	return string(output), nil
}

func (r *ExecRunner) Close() error {
	return nil
}
