package task

import (
	"context"
	"errors"
	"fmt"

	"devbox_provision/pkg/log"
)

// Shell implements Host on top of a Runner. Every command goes through a bash
// login shell so the profile written by the provisioning tasks is honoured.
type Shell struct {
	runner Runner
	name   string
}

// NewShell returns a Shell issuing commands through runner. name identifies the
// target host in log records.
func NewShell(runner Runner, name string) *Shell {
	return &Shell{runner: runner, name: name}
}

func (s *Shell) Run(ctx context.Context, cmd string) (string, error) {
	return s.exec(ctx, cmd, false)
}

func (s *Shell) Sudo(ctx context.Context, cmd string) (string, error) {
	return s.exec(ctx, cmd, true)
}

func (s *Shell) Exists(ctx context.Context, path string) (bool, error) {
	return s.test(ctx, "-e", path)
}

func (s *Shell) IsLink(ctx context.Context, path string) (bool, error) {
	return s.test(ctx, "-L", path)
}

func (s *Shell) Append(ctx context.Context, path, line string) error {
	l, p := Quote(line), Quote(path)
	_, err := s.Run(ctx, fmt.Sprintf("grep -qxF -- %s %s 2>/dev/null || echo %s >> %s", l, p, l, p))
	return err
}

func (s *Shell) exec(ctx context.Context, cmd string, sudo bool) (string, error) {
	log.L().Info("run", "host", s.name, "sudo", sudo, "cmd", cmd)

	out, err := s.runner.Run(ctx, Wrap(cmd, sudo))
	if out != "" {
		log.L().Debug("output", "host", s.name, "output", out)
	}
	if err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			exitErr.Command = cmd
		}
		return out, err
	}
	return out, nil
}

// test runs a read-only check. Exit status 1 means the check failed; anything
// else that is not success is an error.
func (s *Shell) test(ctx context.Context, flag, path string) (bool, error) {
	cmd := probePrefix + flag + " " + Quote(path)
	log.L().Debug("check", "host", s.name, "cmd", cmd)

	_, err := s.runner.Run(ctx, cmd)
	if err == nil {
		return true, nil
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Status == 1 {
		return false, nil
	}
	return false, fmt.Errorf("failed to check %s: %w", path, err)
}

// Wrap turns cmd into the command line sent over the runner: a bash login
// shell, behind non-interactive sudo when privileged.
func Wrap(cmd string, sudo bool) string {
	wrapped := "/bin/bash -l -c " + Quote(cmd)
	if sudo {
		return "sudo -n -H " + wrapped
	}
	return wrapped
}
